package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Ensure MemoryObjectStorage implements ObjectStorage
var _ ObjectStorage = (*MemoryObjectStorage)(nil)

// MemoryObjectStorage is an in-memory ObjectStorage for tests and local
// development. Keys list in lexical order, matching S3 listing behavior.
type MemoryObjectStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
}

// NewMemoryObjectStorage creates an empty in-memory store.
func NewMemoryObjectStorage() *MemoryObjectStorage {
	return &MemoryObjectStorage{objects: make(map[string][]byte)}
}

// Get returns the full content of an object.
func (m *MemoryObjectStorage) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.objects[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Put writes an object, overwriting any existing content.
func (m *MemoryObjectStorage) Put(ctx context.Context, key string, data []byte, contentType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := make([]byte, len(data))
	copy(stored, data)
	m.objects[key] = stored
	return nil
}

// PutIfAbsent writes an object only if the key does not exist.
func (m *MemoryObjectStorage) PutIfAbsent(ctx context.Context, key string, data []byte, contentType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.objects[key]; ok {
		return fmt.Errorf("%w: %s", ErrObjectExists, key)
	}
	stored := make([]byte, len(data))
	copy(stored, data)
	m.objects[key] = stored
	return nil
}

// List returns the keys of all objects under a prefix in lexical order.
func (m *MemoryObjectStorage) List(ctx context.Context, prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var keys []string
	for key := range m.objects {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Exists reports whether an object with the exact key exists.
func (m *MemoryObjectStorage) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.objects[key]
	return ok, nil
}

// Copy duplicates an object within the store.
func (m *MemoryObjectStorage) Copy(ctx context.Context, sourceKey, destKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.objects[sourceKey]
	if !ok {
		return fmt.Errorf("%w: %s", ErrObjectNotFound, sourceKey)
	}
	stored := make([]byte, len(data))
	copy(stored, data)
	m.objects[destKey] = stored
	return nil
}

// Delete removes an object. Deleting a missing key is not an error.
func (m *MemoryObjectStorage) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.objects, key)
	return nil
}

// Len returns the number of stored objects.
func (m *MemoryObjectStorage) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.objects)
}
