package retrier

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func fastRetrier(maxRetries int, opts ...Option) *Retrier {
	base := []Option{
		WithMaxRetries(maxRetries),
		WithInitialInterval(time.Millisecond),
		WithMaxInterval(5 * time.Millisecond),
		WithJitter(0),
	}
	return New(append(base, opts...)...)
}

func TestDoSucceedsFirstAttempt(t *testing.T) {
	attempts := 0
	err := fastRetrier(3).Do(context.Background(), func(context.Context) error {
		attempts++
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 1, attempts)
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	attempts := 0
	err := fastRetrier(3).Do(context.Background(), func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, attempts)
}

func TestDoReturnsLastErrorWhenExhausted(t *testing.T) {
	boom := errors.New("still broken")
	attempts := 0
	err := fastRetrier(2).Do(context.Background(), func(context.Context) error {
		attempts++
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.Equal(t, 3, attempts, "initial attempt plus two retries")
}

func TestDoWithDataReturnsValue(t *testing.T) {
	attempts := 0
	value, err := DoWithData(fastRetrier(3), context.Background(), func(context.Context) (int, error) {
		attempts++
		if attempts < 2 {
			return 0, errors.New("transient")
		}
		return 42, nil
	})
	require.NoError(t, err)
	require.Equal(t, 42, value)
}

func TestRetryIfStopsOnPermanentError(t *testing.T) {
	permanent := errors.New("rejected")
	attempts := 0
	err := fastRetrier(5, WithRetryIf(func(err error) bool {
		return !errors.Is(err, permanent)
	})).Do(context.Background(), func(context.Context) error {
		attempts++
		return permanent
	})
	require.ErrorIs(t, err, permanent)
	require.Equal(t, 1, attempts)
}

func TestDoStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	err := New(WithMaxRetries(5), WithInitialInterval(50*time.Millisecond)).
		Do(ctx, func(context.Context) error {
			attempts++
			cancel()
			return errors.New("transient")
		})
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, attempts)
}
