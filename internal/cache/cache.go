// Package cache stores memoized byte payloads with an expiry.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store. A miss is reported as ok == false, not an error.
type Cache interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
