package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"
)

// maxClipBytes bounds a single download.
const maxClipBytes = 64 << 20

// HTTPConfig holds settings for the HTTP transport.
type HTTPConfig struct {
	Timeout           time.Duration // Per request; defaults to 30s
	RequestsPerMinute int           // Defaults to 120
	UserAgent         string
}

// HTTP fetches clips over http and https, rate limited to avoid hammering
// the host when a large catalog is preloaded.
type HTTP struct {
	client      *http.Client
	rateLimiter *rate.Limiter
	userAgent   string
}

// NewHTTP returns an HTTP transport.
func NewHTTP(cfg HTTPConfig) *HTTP {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 120
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "soundboard"
	}

	return &HTTP{
		client:      &http.Client{Timeout: cfg.Timeout},
		rateLimiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 4),
		userAgent:   cfg.UserAgent,
	}
}

// Fetch implements Transport. Non-2xx responses are returned as
// *StatusError.
func (h *HTTP) Fetch(ctx context.Context, url string) ([]byte, error) {
	if err := h.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait cancelled: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", h.userAgent)

	start := time.Now()
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxClipBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	if len(data) > maxClipBytes {
		return nil, fmt.Errorf("fetch %s: clip exceeds %d bytes", url, maxClipBytes)
	}

	log.Debug("Fetched clip", "url", url, "bytes", len(data), "elapsed", time.Since(start))
	return data, nil
}
