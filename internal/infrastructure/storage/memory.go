package storage

import (
	"context"
	"sync"

	"github.com/sorashop/backend/internal/domain"
)

// memoryObject is a single stored object
type memoryObject struct {
	data        []byte
	contentType string
}

// MemoryStore is a thread-safe in-memory ObjectStore used in development and
// tests when no storage endpoint is configured.
type MemoryStore struct {
	objects map[string]memoryObject
	mutex   sync.RWMutex
}

// NewMemoryStore creates a new in-memory object store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		objects: make(map[string]memoryObject),
	}
}

// Put stores a copy of data under key
func (s *MemoryStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	buf := make([]byte, len(data))
	copy(buf, data)
	s.objects[key] = memoryObject{data: buf, contentType: contentType}
	return nil
}

// Get retrieves the object stored under key
func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, string, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	obj, exists := s.objects[key]
	if !exists {
		return nil, "", domain.ErrObjectNotFound
	}
	return obj.data, obj.contentType, nil
}

// Len reports the number of stored objects
func (s *MemoryStore) Len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.objects)
}
