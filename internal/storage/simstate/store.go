// Package simstate persists simulator state so dry runs survive restarts.
package simstate

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

const stateFileName = "simulate.json"

// Store persists simulator wallet and open orders as a JSON file.
type Store struct {
	path string
}

// NewStore creates a simulator state store under the given data directory.
func NewStore(dataDir string) (*Store, error) {
	stateDir := filepath.Join(dataDir, "simulate")
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create simulate state dir")
	}

	return &Store{path: filepath.Join(stateDir, stateFileName)}, nil
}

// State represents all persisted simulator data. Decimals are stored as
// strings to round-trip exactly.
type State struct {
	Wallet     map[string]string `json:"wallet"`
	OpenOrders []StoredOrder     `json:"open_orders,omitempty"`
	NextID     int               `json:"next_id"`
}

// StoredOrder is a serializable open limit sell.
type StoredOrder struct {
	OrderID  string `json:"order_id"`
	Symbol   string `json:"symbol"`
	Quantity string `json:"quantity"`
	Limit    string `json:"limit"`
}

// Load reads simulator state from disk. Returns nil when no state exists yet.
func (s *Store) Load() (*State, error) {
	if s == nil || s.path == "" {
		return nil, nil
	}

	payload, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "read simulate state")
	}

	if len(payload) == 0 {
		return nil, nil
	}

	var state State
	if err := json.Unmarshal(payload, &state); err != nil {
		return nil, errors.Wrap(err, "decode simulate state")
	}

	return &state, nil
}

// Save writes simulator state to disk atomically via temp file.
func (s *Store) Save(state State) error {
	if s == nil || s.path == "" {
		return nil
	}

	payload, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode simulate state")
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return errors.Wrap(err, "write simulate state temp file")
	}

	if err := os.Rename(tmp, s.path); err != nil {
		return errors.Wrap(err, "persist simulate state")
	}

	return nil
}
