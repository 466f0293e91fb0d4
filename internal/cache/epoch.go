package cache

import "sync"

// Epoch is an LRU cache whose entries age by frame epochs. It is safe for
// concurrent use.
type Epoch[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]*lruNode[K, V]
	list    lruList[K, V]
	epoch   uint64
	retain  uint64
	onEvict func(K, V)
}

// Entry is an evicted key and value.
type Entry[K comparable, V any] struct {
	Key   K
	Value V
}

// NewEpoch returns a cache that keeps entries for retain epochs after
// their last use.
func NewEpoch[K comparable, V any](retain int) *Epoch[K, V] {
	return &Epoch[K, V]{
		entries: make(map[K]*lruNode[K, V]),
		retain:  uint64(max(retain, 0)),
	}
}

// OnEvict registers a callback run for every evicted entry, with the
// cache lock held.
func (c *Epoch[K, V]) OnEvict(fn func(K, V)) {
	c.mu.Lock()
	c.onEvict = fn
	c.mu.Unlock()
}

// Get returns the value for key and marks it used in the current epoch.
func (c *Epoch[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	n.epoch = c.epoch
	c.list.moveToFront(n)
	return n.value, true
}

// Set stores value for key in the current epoch.
func (c *Epoch[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n, ok := c.entries[key]; ok {
		n.value = value
		n.epoch = c.epoch
		c.list.moveToFront(n)
		return
	}
	n := &lruNode[K, V]{key: key, value: value, epoch: c.epoch}
	c.entries[key] = n
	c.list.pushFront(n)
}

// GetOrCreate returns the cached value for key, creating it on a miss.
// A create error is returned and nothing is stored.
func (c *Epoch[K, V]) GetOrCreate(key K, create func() (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	v, err := create()
	if err != nil {
		return v, err
	}
	c.Set(key, v)
	return v, nil
}

// Advance starts the next epoch and returns it.
func (c *Epoch[K, V]) Advance() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	return c.epoch
}

// Current returns the current epoch.
func (c *Epoch[K, V]) Current() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epoch
}

// Evict removes entries not used within the retention window and returns
// them, least recently used first.
func (c *Epoch[K, V]) Evict() []Entry[K, V] {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []Entry[K, V]
	for n := c.list.tail; n != nil && n.epoch+c.retain < c.epoch; n = c.list.tail {
		c.list.unlink(n)
		delete(c.entries, n.key)
		if c.onEvict != nil {
			c.onEvict(n.key, n.value)
		}
		out = append(out, Entry[K, V]{Key: n.key, Value: n.value})
	}
	return out
}

// Delete removes key.
func (c *Epoch[K, V]) Delete(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, ok := c.entries[key]
	if !ok {
		return false
	}
	c.list.unlink(n)
	delete(c.entries, key)
	return true
}

// Len returns the number of entries.
func (c *Epoch[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
