package cache

import (
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/klauspost/compress/zstd"
)

const (
	indexFile = "clips.index"

	// Clips smaller than this are stored raw.
	compressThreshold = 1024
)

// DiskCache stores clip bytes as files under a directory, keyed by the clip
// id they were fetched for. An index of entries is persisted with gob.
type DiskCache struct {
	dir      string
	capacity int64
	size     int64

	encoder *zstd.Encoder
	decoder *zstd.Decoder

	index  map[string]*diskEntry
	stats  Stats
	closed bool

	mu sync.Mutex
}

type diskEntry struct {
	Key          string
	File         string // base name inside dir
	Size         int64  // bytes on disk
	OriginalSize int64
	Stored       time.Time
	LastAccess   time.Time
	Hits         int64
	Compressed   bool
}

// NewDiskCache opens or creates a cache in cfg.Dir.
func NewDiskCache(cfg Config) (*DiskCache, error) {
	if cfg.Dir == "" {
		return nil, errors.New("cache directory is required")
	}
	if cfg.Capacity <= 0 {
		return nil, fmt.Errorf("cache capacity must be positive, got %d", cfg.Capacity)
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	dc := &DiskCache{
		dir:      cfg.Dir,
		capacity: cfg.Capacity,
		index:    make(map[string]*diskEntry),
		stats:    Stats{Capacity: cfg.Capacity},
	}

	if cfg.CompressionLevel > 0 {
		var err error
		dc.encoder, err = zstd.NewWriter(nil,
			zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(cfg.CompressionLevel)))
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
		}
	}
	// The decoder is always available so entries written with compression
	// stay readable after the level is set to 0.
	var err error
	dc.decoder, err = zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}

	if err := dc.loadIndex(); err != nil {
		log.Warn("Discarding unreadable cache index", "dir", cfg.Dir, "error", err)
		dc.index = make(map[string]*diskEntry)
	}
	dc.recount()

	if cfg.TTL > 0 {
		if n := dc.RemoveOlderThan(time.Now().Add(-cfg.TTL)); n > 0 {
			log.Debug("Pruned expired clips", "count", n)
		}
	}

	return dc, nil
}

// Get returns the bytes stored for key.
func (dc *DiskCache) Get(key string) ([]byte, bool) {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	if dc.closed {
		return nil, false
	}

	entry, ok := dc.index[key]
	if !ok {
		dc.stats.Misses++
		return nil, false
	}

	data, err := dc.read(entry)
	if err != nil {
		log.Debug("Dropping unreadable cache entry", "key", key, "error", err)
		dc.drop(key)
		dc.stats.Misses++
		return nil, false
	}

	now := time.Now()
	entry.LastAccess = now
	entry.Hits++
	dc.stats.Hits++
	dc.stats.LastAccess = now
	return data, true
}

// Put stores value under key, evicting least recently used entries when the
// capacity would be exceeded.
func (dc *DiskCache) Put(key string, value []byte) error {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	if dc.closed {
		return ErrClosed
	}

	data, compressed := value, false
	if dc.encoder != nil && len(value) > compressThreshold {
		if packed := dc.encoder.EncodeAll(value, nil); len(packed) < len(value) {
			data, compressed = packed, true
		}
	}

	onDisk := int64(len(data))
	if onDisk > dc.capacity {
		return ErrItemTooLarge
	}

	if _, ok := dc.index[key]; ok {
		dc.drop(key)
	}
	for dc.size+onDisk > dc.capacity && len(dc.index) > 0 {
		dc.evictLRU()
	}

	name := fileName(key)
	if err := writeAtomic(filepath.Join(dc.dir, name), data); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}

	now := time.Now()
	dc.index[key] = &diskEntry{
		Key:          key,
		File:         name,
		Size:         onDisk,
		OriginalSize: int64(len(value)),
		Stored:       now,
		LastAccess:   now,
		Compressed:   compressed,
	}
	dc.size += onDisk
	return dc.saveIndex()
}

// Delete removes key. Deleting a missing key is not an error.
func (dc *DiskCache) Delete(key string) error {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	if _, ok := dc.index[key]; !ok {
		return nil
	}
	dc.drop(key)
	return dc.saveIndex()
}

// Clear removes every entry.
func (dc *DiskCache) Clear() error {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	for key := range dc.index {
		dc.drop(key)
	}
	return dc.saveIndex()
}

// Contains reports whether key is stored, without touching access times.
func (dc *DiskCache) Contains(key string) bool {
	dc.mu.Lock()
	defer dc.mu.Unlock()
	_, ok := dc.index[key]
	return ok
}

// Size returns the bytes used on disk.
func (dc *DiskCache) Size() int64 {
	dc.mu.Lock()
	defer dc.mu.Unlock()
	return dc.size
}

// Stats returns a copy of the cache counters.
func (dc *DiskCache) Stats() Stats {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	s := dc.stats
	s.Size = dc.size
	s.ItemCount = int64(len(dc.index))
	if s.Hits+s.Misses > 0 {
		s.HitRate = float64(s.Hits) / float64(s.Hits+s.Misses)
	}
	return s
}

// Keys returns the stored keys, least recently used first.
func (dc *DiskCache) Keys() []string {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	entries := dc.byAccess()
	keys := make([]string, len(entries))
	for i, e := range entries {
		keys[i] = e.Key
	}
	return keys
}

// RemoveOlderThan removes entries stored before cutoff and returns how many
// were removed.
func (dc *DiskCache) RemoveOlderThan(cutoff time.Time) int {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	removed := 0
	for key, e := range dc.index {
		if e.Stored.Before(cutoff) {
			dc.drop(key)
			removed++
		}
	}
	if removed > 0 {
		_ = dc.saveIndex()
	}
	return removed
}

// Close persists the index. Later writes fail with ErrClosed.
func (dc *DiskCache) Close() error {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	if dc.closed {
		return nil
	}
	dc.closed = true
	if dc.encoder != nil {
		_ = dc.encoder.Close()
	}
	dc.decoder.Close()
	return dc.saveIndex()
}

func (dc *DiskCache) read(e *diskEntry) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(dc.dir, e.File))
	if err != nil {
		return nil, err
	}
	if e.Compressed {
		return dc.decoder.DecodeAll(data, nil)
	}
	return data, nil
}

// drop removes an entry and its file. Caller holds the lock.
func (dc *DiskCache) drop(key string) {
	e, ok := dc.index[key]
	if !ok {
		return
	}
	_ = os.Remove(filepath.Join(dc.dir, e.File))
	dc.size -= e.Size
	delete(dc.index, key)
}

// evictLRU drops the least recently used entry. Caller holds the lock.
func (dc *DiskCache) evictLRU() {
	entries := dc.byAccess()
	if len(entries) == 0 {
		return
	}
	dc.drop(entries[0].Key)
	dc.stats.Evictions++
	dc.stats.LastEvict = time.Now()
}

func (dc *DiskCache) byAccess() []*diskEntry {
	entries := make([]*diskEntry, 0, len(dc.index))
	for _, e := range dc.index {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].LastAccess.Equal(entries[j].LastAccess) {
			return entries[i].Key < entries[j].Key
		}
		return entries[i].LastAccess.Before(entries[j].LastAccess)
	})
	return entries
}

func (dc *DiskCache) recount() {
	dc.size = 0
	for _, e := range dc.index {
		dc.size += e.Size
	}
}

func (dc *DiskCache) loadIndex() error {
	f, err := os.Open(filepath.Join(dc.dir, indexFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()

	index := make(map[string]*diskEntry)
	if err := gob.NewDecoder(f).Decode(&index); err != nil {
		return err
	}

	// Forget entries whose files have gone missing.
	for key, e := range index {
		if _, err := os.Stat(filepath.Join(dc.dir, e.File)); err != nil {
			delete(index, key)
		}
	}
	dc.index = index
	return nil
}

func (dc *DiskCache) saveIndex() error {
	tmp := filepath.Join(dc.dir, indexFile+".tmp")
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}

	err = gob.NewEncoder(f).Encode(dc.index)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, filepath.Join(dc.dir, indexFile))
}

func fileName(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:16]) + ".clip"
}

// writeAtomic writes to a temp file and renames it into place.
func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}
