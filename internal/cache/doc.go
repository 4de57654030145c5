// Package cache provides a persistent, zstd-compressed disk cache for fetched
// clip bytes, so remote catalogs survive restarts without refetching.
package cache
