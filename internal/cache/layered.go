package cache

import (
	"errors"
	"time"
)

// LayeredCache stacks caches from fastest to slowest. A hit in a slower
// layer is copied into every faster one; writes go to all layers.
type LayeredCache struct {
	layers []Cache
}

// NewLayers stacks the given caches, fastest first
func NewLayers(layers ...Cache) *LayeredCache {
	return &LayeredCache{layers: layers}
}

// NewLayeredCache is the usual memory over disk stack
func NewLayeredCache(memoryTTL time.Duration, diskDir string, diskTTL time.Duration) *LayeredCache {
	return NewLayers(
		NewMemoryCache(memoryTTL, 10*time.Minute),
		NewDiskCache(diskDir, diskTTL),
	)
}

func (c *LayeredCache) Get(key string) ([]byte, bool) {
	for i, layer := range c.layers {
		val, ok := layer.Get(key)
		if !ok {
			continue
		}
		// ttl 0 keeps each faster layer's own default
		for _, faster := range c.layers[:i] {
			_ = faster.Set(key, val, 0)
		}
		return val, true
	}
	return nil, false
}

// Set stops at the first failing layer
func (c *LayeredCache) Set(key string, value []byte, ttl time.Duration) error {
	for _, layer := range c.layers {
		if err := layer.Set(key, value, ttl); err != nil {
			return err
		}
	}
	return nil
}

func (c *LayeredCache) Delete(key string) error {
	return c.each(func(l Cache) error { return l.Delete(key) })
}

func (c *LayeredCache) Clear() error {
	return c.each(Cache.Clear)
}

// each applies fn to every layer and joins the failures
func (c *LayeredCache) each(fn func(Cache) error) error {
	errs := make([]error, 0, len(c.layers))
	for _, layer := range c.layers {
		errs = append(errs, fn(layer))
	}
	return errors.Join(errs...)
}
