package cache

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Provider stores opaque report blobs by key.
type Provider interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Close() error
}

// ErrCacheMiss signals that a cache key was not found.
var ErrCacheMiss = errors.New("cache miss")

// Key derives a namespaced cache key from the content hash of parts.
func Key(namespace string, parts ...[]byte) string {
	d := xxhash.New()
	for _, p := range parts {
		_, _ = d.Write(p)
		// separator keeps ("ab","c") and ("a","bc") apart
		_, _ = d.Write([]byte{0})
	}
	return namespace + ":" + strconv.FormatUint(d.Sum64(), 16)
}

// NoopProvider never stores anything.
type NoopProvider struct{}

// Get always misses.
func (NoopProvider) Get(context.Context, string) ([]byte, error) {
	return nil, ErrCacheMiss
}

// Set discards the value.
func (NoopProvider) Set(context.Context, string, []byte, time.Duration) error {
	return nil
}

// Close is a no-op.
func (NoopProvider) Close() error { return nil }
