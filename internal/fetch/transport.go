// Package fetch retrieves raw clip bytes by clip id. Ids are URLs or file
// paths; a Router picks the transport by scheme.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Common fetch errors
var (
	// ErrNotFound is returned when a clip id resolves to nothing
	ErrNotFound = errors.New("clip not found")

	// ErrUnsupportedScheme is returned for ids no transport can serve
	ErrUnsupportedScheme = errors.New("unsupported clip location scheme")
)

// Transport retrieves the raw bytes of a clip.
type Transport interface {
	Fetch(ctx context.Context, id string) ([]byte, error)
}

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(ctx context.Context, id string) ([]byte, error)

// Fetch calls f(ctx, id).
func (f TransportFunc) Fetch(ctx context.Context, id string) ([]byte, error) {
	return f(ctx, id)
}

// StatusError reports a non-2xx HTTP response.
type StatusError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s: %s", e.URL, e.Status)
}

// Is lets 404 responses match ErrNotFound.
func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == 404
}

// Router sends http and https ids to Remote and everything else to Local.
// Relative ids are joined to BaseURL when it is set, so a catalog written for
// a web host can be played against the same host.
type Router struct {
	Local   Transport
	Remote  Transport
	BaseURL string
}

// Fetch implements Transport.
func (r Router) Fetch(ctx context.Context, id string) ([]byte, error) {
	target := id
	if r.BaseURL != "" && !hasScheme(id) {
		target = joinURL(r.BaseURL, id)
	}

	u, err := url.Parse(target)
	if err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		if r.Remote == nil {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedScheme, u.Scheme)
		}
		return r.Remote.Fetch(ctx, target)
	}

	if err == nil && u.Scheme == "file" {
		target = u.Path
	} else if err == nil && len(u.Scheme) > 1 {
		// Single letter schemes are Windows drive letters.
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedScheme, u.Scheme)
	}
	if r.Local == nil {
		return nil, fmt.Errorf("%w: local files", ErrUnsupportedScheme)
	}
	return r.Local.Fetch(ctx, target)
}

func hasScheme(id string) bool {
	u, err := url.Parse(id)
	return err == nil && len(u.Scheme) > 1
}

func joinURL(base, id string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(id, "/")
}
