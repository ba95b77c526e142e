package fakeapi

import (
	"encoding/json"
	"sort"
	"sync"
)

// collection is an in-memory table keyed by a sequential integer id.
type collection[T any] struct {
	mu    sync.RWMutex
	items map[int]T
	next  int
	setID func(*T, int)
}

func newCollection[T any](setID func(*T, int)) *collection[T] {
	return &collection[T]{items: make(map[int]T), setID: setID}
}

func (c *collection[T]) create(item T) T {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.next++
	c.setID(&item, c.next)
	c.items[c.next] = item
	return item
}

func (c *collection[T]) get(id int) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	item, ok := c.items[id]
	return item, ok
}

// list returns the items accepted by keep (all when nil) in id order.
func (c *collection[T]) list(keep func(T) bool) []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]int, 0, len(c.items))
	for id := range c.items {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	out := make([]T, 0, len(ids))
	for _, id := range ids {
		if keep == nil || keep(c.items[id]) {
			out = append(out, c.items[id])
		}
	}
	return out
}

func (c *collection[T]) put(id int, item T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setID(&item, id)
	c.items[id] = item
}

// replace swaps an existing item, keeping its id.
func (c *collection[T]) replace(id int, item T) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.items[id]; !ok {
		return item, false
	}
	c.setID(&item, id)
	c.items[id] = item
	return item, true
}

// patch overlays the JSON fields in body onto the stored item.
func (c *collection[T]) patch(id int, body []byte) (T, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	item, ok := c.items[id]
	if !ok {
		return item, false, nil
	}
	if err := json.Unmarshal(body, &item); err != nil {
		return item, true, err
	}
	c.setID(&item, id)
	c.items[id] = item
	return item, true, nil
}

func (c *collection[T]) delete(id int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.items[id]; !ok {
		return false
	}
	delete(c.items, id)
	return true
}
