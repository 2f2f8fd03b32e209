package settings

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestStoreSetGet(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	require.Equal(t, "fallback", store.Get("missing", "fallback"))

	require.NoError(t, store.Set(KeyTriggerPrice, "1.16"))
	require.Equal(t, "1.16", store.Get(KeyTriggerPrice, "0"))
}

func TestStoreSurvivesReopen(t *testing.T) {
	dir := t.TempDir()

	store, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.SetDecimal(KeyProfitThresholdPercent, decimal.NewFromFloat(1.5)))
	require.NoError(t, store.SetDecimal(KeyProfitThresholdPercent, decimal.NewFromFloat(5)))
	require.NoError(t, store.SetBool(KeyProtectionActive, true))
	require.NoError(t, store.Close())

	reopened, err := NewStore(dir)
	require.NoError(t, err)
	defer reopened.Close()

	// last write wins
	got := reopened.GetDecimal(KeyProfitThresholdPercent, decimal.Zero)
	require.True(t, got.Equal(decimal.NewFromFloat(5)), "expected 5, got %s", got.String())
	require.True(t, reopened.GetBool(KeyProtectionActive, false))
}

func TestStoreTypedFallbacks(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Set("garbage", "not-a-number"))

	def := decimal.NewFromInt(3)
	require.True(t, store.GetDecimal("garbage", def).Equal(def))
	require.True(t, store.GetBool("garbage", true))

	_, ok := store.Lookup("never-set")
	require.False(t, ok)
}
