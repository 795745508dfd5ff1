package storage

import (
	"slices"
	"sync"
)

// MemoryStorage - universal in-memory object storage that remembers insertion order.
// K - key type, V - stored object type
type MemoryStorage[K comparable, V any] struct {
	data  map[K]V
	order []K
	mutex sync.RWMutex
}

// NewMemoryStorage creates a new storage
func NewMemoryStorage[K comparable, V any]() *MemoryStorage[K, V] {
	return &MemoryStorage[K, V]{
		data: make(map[K]V),
	}
}

// Set adds or updates an object. Updating keeps the original position.
func (s *MemoryStorage[K, V]) Set(key K, value V) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, exists := s.data[key]; !exists {
		s.order = append(s.order, key)
	}
	s.data[key] = value
}

// Get returns an object by key
func (s *MemoryStorage[K, V]) Get(key K) (V, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	value, exists := s.data[key]
	return value, exists
}

// Delete removes an object by key
func (s *MemoryStorage[K, V]) Delete(key K) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, exists := s.data[key]; !exists {
		return false
	}

	delete(s.data, key)
	if i := slices.Index(s.order, key); i >= 0 {
		s.order = slices.Delete(s.order, i, i+1)
	}
	return true
}

// Replace swaps the whole content for values, keyed by keyOf, in the given order.
func (s *MemoryStorage[K, V]) Replace(values []V, keyOf func(V) K) {
	data := make(map[K]V, len(values))
	order := make([]K, 0, len(values))
	for _, v := range values {
		k := keyOf(v)
		if _, dup := data[k]; !dup {
			order = append(order, k)
		}
		data[k] = v
	}

	s.mutex.Lock()
	s.data = data
	s.order = order
	s.mutex.Unlock()
}

// GetAll returns all objects
func (s *MemoryStorage[K, V]) GetAll() map[K]V {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	result := make(map[K]V, len(s.data))
	for k, v := range s.data {
		result[k] = v
	}
	return result
}

// GetAllValues returns all values in insertion order
func (s *MemoryStorage[K, V]) GetAllValues() []V {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	result := make([]V, 0, len(s.order))
	for _, k := range s.order {
		result = append(result, s.data[k])
	}
	return result
}

// ForEach executes a function for each object in insertion order
func (s *MemoryStorage[K, V]) ForEach(fn func(key K, value V) bool) {
	// Copy data under lock for subsequent processing
	s.mutex.RLock()
	keys := slices.Clone(s.order)
	values := make([]V, len(keys))
	for i, k := range keys {
		values[i] = s.data[k]
	}
	s.mutex.RUnlock()

	// Process copied data without locking
	for i, k := range keys {
		if !fn(k, values[i]) {
			break
		}
	}
}

// Count returns the number of objects
func (s *MemoryStorage[K, V]) Count() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.data)
}
