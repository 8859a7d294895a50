// Package cache keeps recently parsed results in an LRU with disk persistence.
package cache

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/l3aro/flowstruct/pkg/flow"
	"github.com/vmihailenco/msgpack/v5"
	"github.com/zeebo/xxh3"
)

// ErrCorrupt is returned when a persisted cache cannot be decoded.
var ErrCorrupt = errors.New("corrupt cache data")

// formatVersion is bumped whenever the persisted entry layout changes.
const formatVersion = 1

// Key derives the cache key for a snippet. lang is the forced language, or
// empty when the language is auto-detected.
func Key(lang flow.Language, code string) string {
	h := xxh3.New()
	_, _ = io.WriteString(h, string(lang))
	_, _ = h.Write([]byte{0})
	_, _ = io.WriteString(h, code)
	return hex.EncodeToString(h.Sum(nil))
}

// Entry is a cached parse result with metadata.
type Entry struct {
	Key        string           `msgpack:"key"`
	Result     flow.ParseResult `msgpack:"result"`
	CreatedAt  time.Time        `msgpack:"created_at"`
	AccessedAt time.Time        `msgpack:"accessed_at"`
}

// Options configures the cache.
type Options struct {
	// MaxSize is the maximum number of entries. 0 means unlimited.
	MaxSize int

	// OnEvict is called when an entry is pushed out by MaxSize.
	OnEvict func(key string, result flow.ParseResult)
}

// Stats reports cache usage.
type Stats struct {
	Length    int   `json:"length"`
	HitCount  int64 `json:"hit_count"`
	MissCount int64 `json:"miss_count"`
}

// HitRate returns hits divided by lookups, or 0 before the first lookup.
func (s Stats) HitRate() float64 {
	total := s.HitCount + s.MissCount
	if total == 0 {
		return 0
	}
	return float64(s.HitCount) / float64(total)
}

// ResultCache is an in-memory LRU of parse results. It is safe for
// concurrent use.
type ResultCache struct {
	mu        sync.Mutex
	items     map[string]*listItem
	lru       *list // most recent at head
	maxSize   int
	onEvict   func(key string, result flow.ParseResult)
	hitCount  int64
	missCount int64
}

// New creates an empty cache.
func New(opts Options) *ResultCache {
	return &ResultCache{
		items:   make(map[string]*listItem),
		lru:     &list{},
		maxSize: opts.MaxSize,
		onEvict: opts.OnEvict,
	}
}

// Get returns the result stored under key and marks it most recently used.
func (c *ResultCache) Get(key string) (flow.ParseResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, ok := c.items[key]
	if !ok {
		c.missCount++
		return flow.ParseResult{}, false
	}

	c.hitCount++
	item.AccessedAt = time.Now()
	c.lru.moveToFront(item)
	return item.Result, true
}

// Set stores result under key, evicting the least recently used entries
// when the cache is full.
func (c *ResultCache) Set(key string, result flow.ParseResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	if item, ok := c.items[key]; ok {
		item.Result = result
		item.AccessedAt = now
		c.lru.moveToFront(item)
		return
	}

	item := &listItem{Entry: Entry{Key: key, Result: result, CreatedAt: now, AccessedAt: now}}
	c.items[key] = item
	c.lru.pushFront(item)
	c.evictIfNeeded()
}

// GetOrParse returns the cached result for (lang, code), parsing and storing
// it on a miss. An empty lang means auto-detect.
func (c *ResultCache) GetOrParse(lang flow.Language, code string) (flow.ParseResult, bool) {
	key := Key(lang, code)
	if result, ok := c.Get(key); ok {
		return result, true
	}

	var result flow.ParseResult
	if lang == "" {
		result = flow.Parse(code)
	} else {
		result = flow.ParseAs(code, lang)
	}
	c.Set(key, result)
	return result, false
}

// Delete removes key from the cache.
func (c *ResultCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, ok := c.items[key]
	if !ok {
		return
	}
	c.lru.remove(item)
	delete(c.items, key)
}

// Clear removes every entry. Statistics are kept.
func (c *ResultCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*listItem)
	c.lru = &list{}
}

// Len returns the number of entries.
func (c *ResultCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Stats returns a snapshot of the cache statistics.
func (c *ResultCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Length:    len(c.items),
		HitCount:  c.hitCount,
		MissCount: c.missCount,
	}
}

func (c *ResultCache) evictIfNeeded() {
	for c.maxSize > 0 && c.lru.len > c.maxSize {
		item := c.lru.removeBack()
		if item == nil {
			return
		}
		delete(c.items, item.Key)
		if c.onEvict != nil {
			c.onEvict(item.Key, item.Result)
		}
	}
}

type snapshot struct {
	Version int     `msgpack:"version"`
	Entries []Entry `msgpack:"entries"`
}

// Save writes every entry, most recently used first, as msgpack.
func (c *ResultCache) Save(w io.Writer) error {
	c.mu.Lock()
	snap := snapshot{Version: formatVersion, Entries: make([]Entry, 0, len(c.items))}
	for item := c.lru.head; item != nil; item = item.next {
		snap.Entries = append(snap.Entries, item.Entry)
	}
	c.mu.Unlock()

	return msgpack.NewEncoder(w).Encode(snap)
}

// Load replaces the cache contents with a snapshot written by Save. Entries
// beyond MaxSize are dropped, oldest first.
func (c *ResultCache) Load(r io.Reader) error {
	var snap snapshot
	if err := msgpack.NewDecoder(r).Decode(&snap); err != nil {
		return fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if snap.Version != formatVersion {
		return fmt.Errorf("%w: unsupported version %d", ErrCorrupt, snap.Version)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*listItem)
	c.lru = &list{}
	// oldest first, so a repeated key ends up holding its most recent entry
	for i := len(snap.Entries) - 1; i >= 0; i-- {
		item := &listItem{Entry: snap.Entries[i]}
		if old, ok := c.items[item.Key]; ok {
			c.lru.remove(old)
		}
		c.items[item.Key] = item
		c.lru.pushFront(item)
	}
	c.evictIfNeeded()
	return nil
}

// PersistToFile saves the cache to path.
func PersistToFile(c *ResultCache, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create cache file: %w", err)
	}
	defer f.Close()

	if err := c.Save(f); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	return nil
}

// LoadFromFile loads the cache from path. A missing file is not an error.
func LoadFromFile(c *ResultCache, path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to open cache file: %w", err)
	}
	defer f.Close()

	return c.Load(f)
}
