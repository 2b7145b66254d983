package cache

import (
	"context"
	"errors"
	"time"
)

var (
	ErrCacheMiss = errors.New("cache: key not found")
)

// Store is a byte-oriented cache with a per-entry TTL. Entries are whole, self-contained
// values: written once and read until they expire.
type Store interface {
	GetBytes(ctx context.Context, key string) ([]byte, bool, error)
	SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Close() error
}
