// Package memory provides an in-memory implementation of storage.FileStore
// for testing and lightweight deployments. Objects are lost when the
// process restarts. Optional LRU eviction limits memory usage.
package memory

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/rhuss/blobgate/pkg/storage"
)

// objectKey addresses an object within the store.
type objectKey struct {
	bucket string
	key    string
}

// entry holds a stored object and its position in the LRU list.
type entry struct {
	obj     storage.Object
	lruElem *list.Element
}

// Store is an in-memory FileStore with optional LRU eviction.
type Store struct {
	mu      sync.Mutex
	entries map[objectKey]*entry
	lruList *list.List // front = most recently used, back = least recently used
	maxSize int        // 0 = unlimited
	now     func() time.Time
}

// Ensure Store implements storage.FileStore at compile time.
var _ storage.FileStore = (*Store)(nil)

// New creates a new in-memory store. If maxSize is 0, the store grows
// without limit. If maxSize > 0, the least recently used object is
// evicted when the limit is reached.
func New(maxSize int) *Store {
	return &Store{
		entries: make(map[objectKey]*entry),
		lruList: list.New(),
		maxSize: maxSize,
		now:     time.Now,
	}
}

// PutObject stores a copy of obj, replacing any existing object.
func (s *Store) PutObject(ctx context.Context, obj storage.Object) error {
	if err := obj.Validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	obj.Data = append([]byte(nil), obj.Data...)
	obj.ETag = storage.ComputeETag(obj.Data)
	obj.UpdatedAt = s.now().UTC()

	k := objectKey{bucket: obj.Bucket, key: obj.Key}

	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[k]; ok {
		e.obj = obj
		s.lruList.MoveToFront(e.lruElem)
		return nil
	}

	if s.maxSize > 0 && len(s.entries) >= s.maxSize {
		s.evictOldest()
	}

	s.entries[k] = &entry{
		obj:     obj,
		lruElem: s.lruList.PushFront(k),
	}
	return nil
}

// GetObject returns a copy of the stored object, or storage.ErrNotFound.
func (s *Store) GetObject(ctx context.Context, bucket, key string) (*storage.Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[objectKey{bucket: bucket, key: key}]
	if !ok {
		return nil, storage.ErrNotFound
	}
	s.lruList.MoveToFront(e.lruElem)

	obj := e.obj
	obj.Data = append([]byte(nil), e.obj.Data...)
	return &obj, nil
}

// Len returns the number of stored objects.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// HealthCheck always returns nil for the in-memory store.
func (s *Store) HealthCheck(_ context.Context) error {
	return nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}

// evictOldest removes the least recently used entry.
// Must be called with s.mu held.
func (s *Store) evictOldest() {
	back := s.lruList.Back()
	if back == nil {
		return
	}

	k := back.Value.(objectKey)
	s.lruList.Remove(back)
	delete(s.entries, k)
}
