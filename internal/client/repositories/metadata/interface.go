// Package metadata stores small key/value facts about the local session:
// who is signed in, their tokens and the offline-login verifier.
package metadata

import (
	"context"
)

type Repository interface {
	// Get returns (nil, nil) for an absent key.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error
	List(ctx context.Context) (map[string][]byte, error)
	Clear(ctx context.Context) error
}
