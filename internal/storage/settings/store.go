// Package settings persists runtime configuration and position snapshots in a
// write-ahead log so that thresholds and the open ledger survive a restart.
package settings

import (
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/gowal"
)

// Well-known keys used by the engine.
const (
	KeyProfitThresholdPercent = "profit_threshold_percent"
	KeyTriggerPrice           = "trigger_price"
	KeyProtectionActive       = "protection_active"
	KeyPositions              = "positions"
)

const (
	settingKeyPrefix    = "setting_"
	walSegmentThreshold = 1000
	walMaxSegments      = 100
)

// Store is a WAL-backed key/value settings store. Every Set appends to the
// log; on open the log is replayed with last-write-wins semantics.
type Store struct {
	mu     sync.RWMutex
	wal    *gowal.Wal
	values map[string]string
}

// NewStore opens (or creates) the settings WAL in dir and replays it.
func NewStore(dir string) (*Store, error) {
	walCfg := gowal.Config{
		Dir:              dir,
		Prefix:           "log_",
		SegmentThreshold: walSegmentThreshold,
		MaxSegments:      walMaxSegments,
		IsInSyncDiskMode: true,
	}

	wal, err := gowal.NewWAL(walCfg)
	if err != nil {
		return nil, errors.Wrap(err, "open settings WAL")
	}

	values := make(map[string]string)
	for msg := range wal.Iterator() {
		if !strings.HasPrefix(msg.Key, settingKeyPrefix) {
			continue
		}
		values[strings.TrimPrefix(msg.Key, settingKeyPrefix)] = string(msg.Value)
	}

	return &Store{wal: wal, values: values}, nil
}

// Get returns the stored value for key, or def when absent.
func (s *Store) Get(key, def string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if v, ok := s.values[key]; ok {
		return v
	}
	return def
}

// Lookup returns the stored value and whether it exists.
func (s *Store) Lookup(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[key]
	return v, ok
}

// Set persists the value for key.
func (s *Store) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	nextIndex := s.wal.CurrentIndex() + 1
	if err := s.wal.Write(nextIndex, settingKeyPrefix+key, []byte(value)); err != nil {
		return errors.Wrapf(err, "persist setting %s", key)
	}

	s.values[key] = value
	return nil
}

// GetDecimal parses the stored value as a decimal, falling back to def on
// absence or parse failure.
func (s *Store) GetDecimal(key string, def decimal.Decimal) decimal.Decimal {
	raw, ok := s.Lookup(key)
	if !ok {
		return def
	}

	v, err := decimal.NewFromString(raw)
	if err != nil {
		return def
	}
	return v
}

// SetDecimal persists a decimal value for key.
func (s *Store) SetDecimal(key string, value decimal.Decimal) error {
	return s.Set(key, value.String())
}

// GetBool parses the stored value as a bool, falling back to def.
func (s *Store) GetBool(key string, def bool) bool {
	raw, ok := s.Lookup(key)
	if !ok {
		return def
	}

	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return v
}

// SetBool persists a bool value for key.
func (s *Store) SetBool(key string, value bool) error {
	return s.Set(key, strconv.FormatBool(value))
}

// Close releases the underlying WAL.
func (s *Store) Close() error {
	return s.wal.Close()
}
