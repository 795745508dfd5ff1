package storage

import (
	"fmt"
	"hash/fnv"
	"sync"
)

// ShardedMemoryStorage - object storage split across independently locked shards
type ShardedMemoryStorage[K comparable, V any] struct {
	shards     []*shardData[K, V]
	shardMask  int
	keyToShard func(K) int // Shard distribution function
}

// shardData - single shard data
type shardData[K comparable, V any] struct {
	data  map[K]V
	mutex sync.RWMutex
}

// NewShardedMemoryStorage creates a new sharded storage.
// shardCount is rounded up to a power of two; a nil keyToShardFunc hashes the key.
func NewShardedMemoryStorage[K comparable, V any](shardCount int, keyToShardFunc func(K) int) *ShardedMemoryStorage[K, V] {
	realShardCount := 1
	for realShardCount < shardCount {
		realShardCount *= 2
	}

	shards := make([]*shardData[K, V], realShardCount)
	for i := range shards {
		shards[i] = &shardData[K, V]{data: make(map[K]V)}
	}

	mask := realShardCount - 1
	if keyToShardFunc == nil {
		keyToShardFunc = func(key K) int {
			switch k := any(key).(type) {
			case string:
				return int(hashString(k)) & mask
			case int:
				return k & mask
			case int64:
				return int(k) & mask
			default:
				return int(hashString(fmt.Sprintf("%v", key))) & mask
			}
		}
	}

	return &ShardedMemoryStorage[K, V]{
		shards:     shards,
		shardMask:  mask,
		keyToShard: keyToShardFunc,
	}
}

func hashString(s string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return h.Sum32()
}

// getShard returns shard for key
func (s *ShardedMemoryStorage[K, V]) getShard(key K) *shardData[K, V] {
	return s.shards[s.keyToShard(key)&s.shardMask]
}

// Set adds or updates an object
func (s *ShardedMemoryStorage[K, V]) Set(key K, value V) {
	shard := s.getShard(key)

	shard.mutex.Lock()
	defer shard.mutex.Unlock()

	shard.data[key] = value
}

// Update atomically replaces the value for key with fn(current, exists).
// When fn returns keep=false the stored value is left untouched.
func (s *ShardedMemoryStorage[K, V]) Update(key K, fn func(current V, exists bool) (next V, keep bool)) (V, bool) {
	shard := s.getShard(key)

	shard.mutex.Lock()
	defer shard.mutex.Unlock()

	current, exists := shard.data[key]
	next, keep := fn(current, exists)
	if !keep {
		return current, false
	}
	shard.data[key] = next
	return next, true
}

// Get returns object by key
func (s *ShardedMemoryStorage[K, V]) Get(key K) (V, bool) {
	shard := s.getShard(key)

	shard.mutex.RLock()
	defer shard.mutex.RUnlock()

	value, exists := shard.data[key]
	return value, exists
}

// Delete removes an object
func (s *ShardedMemoryStorage[K, V]) Delete(key K) bool {
	shard := s.getShard(key)

	shard.mutex.Lock()
	defer shard.mutex.Unlock()

	if _, exists := shard.data[key]; !exists {
		return false
	}
	delete(shard.data, key)
	return true
}

// DeleteIf removes every object matching fn and returns how many were removed
func (s *ShardedMemoryStorage[K, V]) DeleteIf(fn func(key K, value V) bool) int {
	removed := 0
	for _, shard := range s.shards {
		shard.mutex.Lock()
		for k, v := range shard.data {
			if fn(k, v) {
				delete(shard.data, k)
				removed++
			}
		}
		shard.mutex.Unlock()
	}
	return removed
}

// GetAll returns all objects from all shards
func (s *ShardedMemoryStorage[K, V]) GetAll() map[K]V {
	result := make(map[K]V)

	for _, shard := range s.shards {
		shard.mutex.RLock()
		for k, v := range shard.data {
			result[k] = v
		}
		shard.mutex.RUnlock()
	}

	return result
}

// GetAllValues returns all values as a slice
func (s *ShardedMemoryStorage[K, V]) GetAllValues() []V {
	result := make([]V, 0, s.Count())

	for _, shard := range s.shards {
		shard.mutex.RLock()
		for _, v := range shard.data {
			result = append(result, v)
		}
		shard.mutex.RUnlock()
	}

	return result
}

// ForEach executes a function for each object
func (s *ShardedMemoryStorage[K, V]) ForEach(fn func(key K, value V) bool) {
	for _, shard := range s.shards {
		shard.mutex.RLock()
		items := make(map[K]V, len(shard.data))
		for k, v := range shard.data {
			items[k] = v
		}
		shard.mutex.RUnlock()

		for k, v := range items {
			if !fn(k, v) {
				return
			}
		}
	}
}

// Count returns total number of objects
func (s *ShardedMemoryStorage[K, V]) Count() int {
	count := 0
	for _, shard := range s.shards {
		shard.mutex.RLock()
		count += len(shard.data)
		shard.mutex.RUnlock()
	}
	return count
}
