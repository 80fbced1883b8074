package store

import (
	"context"
	"errors"
)

// BlobStore is the durable key-value storage holding the persisted cart and
// the last known order number. Writes are best-effort: callers on the cart
// mutation path log and swallow failures, the in-memory state stays
// authoritative.
// Consumers define this interface, not the Redis/SQLite implementations.
type BlobStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Close() error
}

var ErrNotFound = errors.New("blob not found")
