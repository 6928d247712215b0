// Package store defines the persisted key-value storage the session uses
// to survive process restarts. Only serialized tokens live here; user
// identity and transient counters are reconstructed through rehydration.
package store

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("store: not found")

// Store is the persisted storage interface. Concrete drivers (memory,
// redis, sqlite) implement it. Writes are last-writer-wins; this is a
// single-session client, so no conflict resolution is needed.
type Store interface {
	// Get returns the value for key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Remove deletes key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error

	// Close releases any underlying resources.
	Close() error
}
