// Package storage defines the blob store contract used by the file routes
// and the types and sentinel errors shared by its adapters.
//
// Adapters live in subpackages: memory keeps objects in process memory,
// postgres persists them in a PostgreSQL table via pgx.
package storage
