package cache

import (
	"errors"
	"time"
)

// Common errors for cache operations
var (
	// ErrItemTooLarge is returned when an item exceeds the cache capacity
	ErrItemTooLarge = errors.New("item too large for cache")

	// ErrClosed is returned by writes after Close
	ErrClosed = errors.New("cache is closed")
)

// Stats holds cache counters.
type Stats struct {
	Capacity  int64 // Maximum capacity in bytes
	Size      int64 // Current size on disk in bytes
	ItemCount int64

	Hits      int64
	Misses    int64
	Evictions int64
	HitRate   float64 // hits / (hits + misses)

	LastAccess time.Time
	LastEvict  time.Time
}

// Config holds disk cache settings.
type Config struct {
	Dir              string        // Directory for cache files
	Capacity         int64         // Bytes
	CompressionLevel int           // Zstd level (1-22); 0 disables compression
	TTL              time.Duration // Entries older than this are pruned on open; 0 keeps forever
}

// DefaultConfig returns default cache settings for dir.
func DefaultConfig(dir string) Config {
	return Config{
		Dir:              dir,
		Capacity:         256 * 1024 * 1024, // 256MB
		CompressionLevel: 3,
		TTL:              30 * 24 * time.Hour,
	}
}

// Cache is the byte store used by the caching transport.
type Cache interface {
	Get(key string) ([]byte, bool)
	Put(key string, value []byte) error
	Delete(key string) error
	Contains(key string) bool
}
