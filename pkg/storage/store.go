package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Object is a stored blob.
type Object struct {
	Bucket      string
	Key         string
	ContentType string
	Data        []byte

	// ETag is the hex SHA-256 of Data, set by the store on write.
	ETag string

	// UpdatedAt is set by the store on write.
	UpdatedAt time.Time
}

// Validate checks that the object can be addressed.
func (o *Object) Validate() error {
	if o.Bucket == "" {
		return fmt.Errorf("%w: bucket is required", ErrInvalidObject)
	}
	if o.Key == "" {
		return fmt.Errorf("%w: key is required", ErrInvalidObject)
	}
	return nil
}

// ComputeETag returns the ETag for data.
func ComputeETag(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// FileStore persists blobs addressed by bucket and key. Writing an
// existing key replaces the object. Implementations must be safe for
// concurrent use.
type FileStore interface {
	// PutObject stores obj, replacing any object under the same key.
	PutObject(ctx context.Context, obj Object) error

	// GetObject returns the object, or ErrNotFound.
	GetObject(ctx context.Context, bucket, key string) (*Object, error)

	// HealthCheck reports whether the backend is reachable.
	HealthCheck(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}
