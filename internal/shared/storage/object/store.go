package object

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotFound is returned when a storage key has no object behind it.
var ErrNotFound = errors.New("object not found")

// ObjectStore defines the contract for saving and retrieving binary objects.
type ObjectStore interface {
	SaveWithKey(ctx context.Context, storageKey string, contentType string, r io.Reader) (int64, error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
	Head(ctx context.Context, storageKey string) (sizeBytes int64, err error)
	Delete(ctx context.Context, storageKey string) error
}

// Presigner issues time-limited URLs for direct client access to storage.
// Stores that cannot presign simply don't implement it.
type Presigner interface {
	PresignPut(ctx context.Context, storageKey string, contentType string, expires time.Duration) (string, error)
	PresignGet(ctx context.Context, storageKey string, expires time.Duration) (string, error)
}
