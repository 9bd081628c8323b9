package repository

import (
	"context"
	"time"
)

// CredentialStore is the ephemeral TTL key-value abstraction backing
// authorization state and one-time credential hand-off. Implementations must
// be atomic per key: GetDelete may yield a value to at most one caller even
// under concurrent retrieval.
type CredentialStore interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Get returns nil with no error when the key is absent or expired.
	Get(ctx context.Context, key string) ([]byte, error)
	// GetDelete atomically reads and removes the key, returning nil when absent.
	GetDelete(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}
