// Package artifact stores opaque model artifacts on the local filesystem or
// an S3-compatible bucket.
package artifact

import (
	"context"
	"errors"
)

// ErrNotExist is returned by Get when no artifact is stored under a key.
var ErrNotExist = errors.New("artifact does not exist")

// Storage is a flat key/value blob store for model artifacts.
type Storage interface {
	// Put stores data under key, replacing any previous artifact
	Put(ctx context.Context, key string, data []byte) error

	// Get retrieves the artifact; missing keys yield ErrNotExist
	Get(ctx context.Context, key string) ([]byte, error)

	// List returns all keys starting with prefix, sorted
	List(ctx context.Context, prefix string) ([]string, error)

	// Delete removes the artifact stored under key
	Delete(ctx context.Context, key string) error

	// Exists reports whether an artifact is stored under key
	Exists(ctx context.Context, key string) (bool, error)
}
