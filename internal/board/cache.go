// Package board plays clips through the shared audio context. It owns the
// decoded buffer cache and the single active playback slot shared by full
// playback and preview.
package board

import (
	"sort"
	"sync"

	"github.com/dgnsrekt/soundboard/internal/audio"
)

// BufferCache holds decoded buffers by clip id for the life of the process.
// There is no eviction; catalogs are small and fixed.
type BufferCache struct {
	mu      sync.RWMutex
	buffers map[string]*audio.Buffer
}

// NewBufferCache returns an empty cache.
func NewBufferCache() *BufferCache {
	return &BufferCache{buffers: make(map[string]*audio.Buffer)}
}

// Get returns the buffer for id.
func (c *BufferCache) Get(id string) (*audio.Buffer, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	buf, ok := c.buffers[id]
	return buf, ok
}

// Put stores buf for id.
func (c *BufferCache) Put(id string, buf *audio.Buffer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.buffers[id] = buf
}

// Len returns the number of cached clips.
func (c *BufferCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.buffers)
}

// Size returns the decoded size of every cached clip in bytes.
func (c *BufferCache) Size() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var n int64
	for _, b := range c.buffers {
		n += b.Size()
	}
	return n
}

// IDs returns the cached clip ids in sorted order.
func (c *BufferCache) IDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]string, 0, len(c.buffers))
	for id := range c.buffers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
