package weblog

import (
	"strings"
	"sync"
	"time"
)

// EntryCache is an in-memory cache of each weblog's published entries, tags
// and categories with TTL. Entries are cached per weblog handle so a write
// to one tenant never evicts another tenant's working set.
type EntryCache struct {
	mu      sync.RWMutex
	weblogs map[string]*cachedWeblog
	ttl     time.Duration
	store   *Store
}

type cachedWeblog struct {
	entries    []Entry
	tags       []string
	categories []string
	fetched    time.Time
}

// NewEntryCache creates an EntryCache backed by the given Store.
func NewEntryCache(s *Store, ttl time.Duration) *EntryCache {
	return &EntryCache{store: s, ttl: ttl, weblogs: make(map[string]*cachedWeblog)}
}

// Invalidate clears one weblog's cached entries so the next read triggers a
// fresh load.
func (c *EntryCache) Invalidate(handle string) {
	c.mu.Lock()
	delete(c.weblogs, handle)
	c.mu.Unlock()
}

func (c *EntryCache) valid(cw *cachedWeblog) bool {
	return cw != nil && time.Since(cw.fetched) < c.ttl
}

// ensureLoaded returns a weblog's cached state after ensuring it is fresh.
// It tries a read lock first; only takes a write lock if a reload is needed.
func (c *EntryCache) ensureLoaded(handle string) (*cachedWeblog, error) {
	c.mu.RLock()
	cw := c.weblogs[handle]
	if c.valid(cw) {
		c.mu.RUnlock()
		return cw, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if cw = c.weblogs[handle]; c.valid(cw) {
		return cw, nil
	}
	entries, err := c.store.ListEntries(handle, "", "")
	if err != nil {
		return nil, err
	}
	tags, err := c.store.ListTags(handle)
	if err != nil {
		return nil, err
	}
	categories, err := c.store.ListCategories(handle)
	if err != nil {
		return nil, err
	}
	cw = &cachedWeblog{entries: entries, tags: tags, categories: categories, fetched: time.Now()}
	c.weblogs[handle] = cw
	return cw, nil
}

// ListEntries returns a weblog's published entries, optionally filtered by
// category and tag.
func (c *EntryCache) ListEntries(handle, category, tag string) ([]Entry, error) {
	cw, err := c.ensureLoaded(handle)
	if err != nil {
		return nil, err
	}
	if category == "" && tag == "" {
		return cw.entries, nil
	}
	normalized := strings.ToLower(strings.TrimSpace(tag))
	var filtered []Entry
	for _, e := range cw.entries {
		if category != "" && e.Category != category {
			continue
		}
		if normalized != "" && !hasTag(e, normalized) {
			continue
		}
		filtered = append(filtered, e)
	}
	return filtered, nil
}

func hasTag(e Entry, normalized string) bool {
	for _, t := range e.Tags {
		if strings.ToLower(strings.TrimSpace(t)) == normalized {
			return true
		}
	}
	return false
}

// ListTags returns all unique tags of a weblog's published entries.
func (c *EntryCache) ListTags(handle string) ([]string, error) {
	cw, err := c.ensureLoaded(handle)
	if err != nil {
		return nil, err
	}
	return cw.tags, nil
}

// ListCategories returns all categories of a weblog's published entries.
func (c *EntryCache) ListCategories(handle string) ([]string, error) {
	cw, err := c.ensureLoaded(handle)
	if err != nil {
		return nil, err
	}
	return cw.categories, nil
}

// GetEntry returns a single published entry by anchor from the cache.
func (c *EntryCache) GetEntry(handle, anchor string) (Entry, error) {
	cw, err := c.ensureLoaded(handle)
	if err != nil {
		return Entry{}, err
	}
	for _, e := range cw.entries {
		if e.Anchor == anchor {
			return e, nil
		}
	}
	return Entry{}, ErrNotFound
}
