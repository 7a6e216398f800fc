package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnavailable is returned when the underlying store cannot be reached.
// Callers surface it to the user; it is never silently swallowed for
// state-mutating operations.
var ErrUnavailable = errors.New("storage unavailable")

// Store is a string-keyed, string-valued store with full-value semantics.
// No transactions, no queries: every read-modify-write sequence is
// non-atomic and relies on the single-writer contract (one local client,
// one operation at a time).
type Store interface {
	// Get returns the value for key and whether it exists.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set writes the full value for key.
	Set(ctx context.Context, key, value string) error
	// Remove deletes key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error
}

// GetJSON reads key and unmarshals its value into dest. Returns false when
// the key is absent, leaving dest untouched.
func GetJSON(ctx context.Context, s Store, key string, dest any) (bool, error) {
	raw, ok, err := s.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// SetJSON marshals value and writes it under key.
func SetJSON(ctx context.Context, s Store, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Set(ctx, key, string(raw))
}
