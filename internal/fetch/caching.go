package fetch

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/soundboard/internal/cache"
)

// Caching serves clips from a persistent cache and fills it from Next.
// Only successful fetches are stored.
type Caching struct {
	Next  Transport
	Cache cache.Cache
}

// Fetch implements Transport.
func (c Caching) Fetch(ctx context.Context, id string) ([]byte, error) {
	if data, ok := c.Cache.Get(id); ok {
		log.Debug("Clip served from disk cache", "id", id)
		return data, nil
	}

	data, err := c.Next.Fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := c.Cache.Put(id, data); err != nil {
		log.Warn("Failed to cache clip", "id", id, "error", err)
	}
	return data, nil
}
