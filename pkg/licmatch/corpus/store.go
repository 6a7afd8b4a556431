package corpus

import (
	"context"
)

// Store is a key/value store mapping a license ID to its canonical,
// gzip-compressed text. Keys are plain license IDs at this boundary;
// backends that store bytes decode them before returning.
type Store interface {
	Close() error

	// Get returns the compressed canonical text for id, or an error wrapping
	// internalerr.ErrNotFound when the ID is unknown.
	Get(ctx context.Context, id string) ([]byte, error)

	// Keys lists every license ID in the store.
	Keys(ctx context.Context) ([]string, error)

	// Put inserts or replaces a single entry.
	Put(ctx context.Context, id string, compressed []byte) error

	// Replace drops every entry and bulk-loads entries in one step.
	Replace(ctx context.Context, entries map[string][]byte) error
}
