package core

import (
	"context"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// FreshnessCache holds one value loaded at most once until invalidated.
// Concurrent loads are coalesced. A zero TTL keeps the value until
// Invalidate is called. A load that overlaps an Invalidate still returns its
// value to the caller but is not cached.
type FreshnessCache[T any] struct {
	mu         sync.RWMutex
	value      T
	fresh      bool
	loadedAt   time.Time
	ttl        time.Duration
	clone      func(T) T
	group      singleflight.Group
	now        func() time.Time
	generation uint64
}

func NewFreshnessCache[T any](ttl time.Duration, clone func(T) T) *FreshnessCache[T] {
	return &FreshnessCache[T]{ttl: ttl, clone: clone, now: time.Now}
}

func (c *FreshnessCache[T]) Get(ctx context.Context, load func(context.Context) (T, error)) (T, error) {
	if value, ok := c.Peek(); ok {
		return value, nil
	}
	generation := c.currentGeneration()
	key := "load:" + strconv.FormatUint(generation, 10)
	result, err, _ := c.group.Do(key, func() (any, error) {
		if value, ok := c.Peek(); ok {
			return value, nil
		}
		value, err := load(ctx)
		if err != nil {
			return value, err
		}
		c.setIfGeneration(generation, value)
		return value, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return c.copyOf(result.(T)), nil
}

// Peek returns the cached value when it is still fresh.
func (c *FreshnessCache[T]) Peek() (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var zero T
	if !c.fresh {
		return zero, false
	}
	if c.ttl > 0 && c.now().Sub(c.loadedAt) > c.ttl {
		return zero, false
	}
	return c.copyOf(c.value), true
}

func (c *FreshnessCache[T]) Set(value T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = c.copyOf(value)
	c.fresh = true
	c.loadedAt = c.now()
}

// setIfGeneration caches value only when no Invalidate ran since generation
// was read.
func (c *FreshnessCache[T]) setIfGeneration(generation uint64, value T) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation != generation {
		return false
	}
	c.value = c.copyOf(value)
	c.fresh = true
	c.loadedAt = c.now()
	return true
}

func (c *FreshnessCache[T]) currentGeneration() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation
}

func (c *FreshnessCache[T]) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	var zero T
	c.value = zero
	c.fresh = false
	c.loadedAt = time.Time{}
}

func (c *FreshnessCache[T]) copyOf(value T) T {
	if c.clone == nil {
		return value
	}
	return c.clone(value)
}
