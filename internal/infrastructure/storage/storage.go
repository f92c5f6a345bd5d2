// Package storage provides the object storage implementations backing the
// pipeline's blob store.
package storage

import (
	"context"
	"errors"
)

// ErrObjectNotFound is returned by Get and Copy when the source key does not
// exist.
var ErrObjectNotFound = errors.New("object not found")

// ErrObjectExists is returned by PutIfAbsent when the key already exists.
var ErrObjectExists = errors.New("object already exists")

// ObjectStorage is the blob-store surface the pipeline stages depend on.
// Implementations are injected into each stage; nothing holds a process-wide
// client.
type ObjectStorage interface {
	// Get returns the full content of an object.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put writes an object, overwriting any existing content.
	Put(ctx context.Context, key string, data []byte, contentType string) error

	// PutIfAbsent writes an object only if the key does not exist yet,
	// atomically. Returns ErrObjectExists when it does.
	PutIfAbsent(ctx context.Context, key string, data []byte, contentType string) error

	// List returns the keys of all objects under a prefix, in listing order.
	List(ctx context.Context, prefix string) ([]string, error)

	// Exists reports whether an object with the exact key exists.
	Exists(ctx context.Context, key string) (bool, error)

	// Copy duplicates an object within the bucket.
	Copy(ctx context.Context, sourceKey, destKey string) error

	// Delete removes an object. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
