package storage

import "errors"

// Sentinel errors for storage operations.
var (
	// ErrNotFound is returned when no object exists under a bucket and key.
	ErrNotFound = errors.New("object not found")

	// ErrInvalidObject is returned when an object lacks a bucket or key.
	ErrInvalidObject = errors.New("invalid object")
)
