package weblog

import (
	"testing"
	"time"
)

func setupTestCache(t *testing.T) (*EntryCache, *Store) {
	t.Helper()
	s := setupTestStore(t)
	seedEntries(t, s, []Entry{
		{WeblogHandle: "alice", Anchor: "p1", Title: "P1", Date: "2024-01-01", Category: "tech", Tags: []string{"go"}, Published: true},
		{WeblogHandle: "alice", Anchor: "p2", Title: "P2", Date: "2024-01-02", Category: "life", Tags: []string{"go", "web"}, Published: true},
		{WeblogHandle: "alice", Anchor: "p3", Title: "P3", Date: "2024-01-03", Category: "tech", Tags: []string{"rust"}, Published: true},
		{WeblogHandle: "bob", Anchor: "b1", Title: "B1", Date: "2024-01-01", Category: "tech", Tags: []string{"go"}, Published: true},
	})
	return NewEntryCache(s, time.Minute), s
}

func TestCacheListEntries(t *testing.T) {
	c, _ := setupTestCache(t)

	all, err := c.ListEntries("alice", "", "")
	if err != nil {
		t.Fatalf("ListEntries failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("count = %d, want 3", len(all))
	}

	tech, err := c.ListEntries("alice", "tech", "")
	if err != nil {
		t.Fatalf("ListEntries by category failed: %v", err)
	}
	if len(tech) != 2 {
		t.Errorf("tech count = %d, want 2", len(tech))
	}

	tagged, err := c.ListEntries("alice", "", "GO")
	if err != nil {
		t.Fatalf("ListEntries by tag failed: %v", err)
	}
	if len(tagged) != 2 {
		t.Errorf("go-tag count = %d, want 2 (case-insensitive)", len(tagged))
	}

	both, err := c.ListEntries("alice", "tech", "go")
	if err != nil {
		t.Fatalf("ListEntries by category+tag failed: %v", err)
	}
	if len(both) != 1 || both[0].Anchor != "p1" {
		t.Errorf("tech+go = %v, want [p1]", both)
	}
}

func TestCacheServesStaleUntilInvalidated(t *testing.T) {
	c, s := setupTestCache(t)

	// warm the cache
	if _, err := c.ListEntries("alice", "", ""); err != nil {
		t.Fatalf("ListEntries failed: %v", err)
	}

	seedEntries(t, s, []Entry{{WeblogHandle: "alice", Anchor: "p4", Title: "P4", Date: "2024-01-04", Published: true}})

	got, err := c.ListEntries("alice", "", "")
	if err != nil {
		t.Fatalf("ListEntries failed: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("count = %d, want 3 (stale within TTL)", len(got))
	}

	c.Invalidate("alice")
	got, err = c.ListEntries("alice", "", "")
	if err != nil {
		t.Fatalf("ListEntries failed: %v", err)
	}
	if len(got) != 4 {
		t.Errorf("count = %d, want 4 after invalidation", len(got))
	}
}

func TestCacheInvalidateScopedToWeblog(t *testing.T) {
	c, s := setupTestCache(t)

	if _, err := c.ListEntries("alice", "", ""); err != nil {
		t.Fatalf("ListEntries failed: %v", err)
	}
	if _, err := c.ListEntries("bob", "", ""); err != nil {
		t.Fatalf("ListEntries failed: %v", err)
	}

	seedEntries(t, s, []Entry{
		{WeblogHandle: "alice", Anchor: "p4", Title: "P4", Date: "2024-01-04", Published: true},
		{WeblogHandle: "bob", Anchor: "b2", Title: "B2", Date: "2024-01-04", Published: true},
	})
	c.Invalidate("alice")

	alice, _ := c.ListEntries("alice", "", "")
	if len(alice) != 4 {
		t.Errorf("alice count = %d, want 4", len(alice))
	}
	bob, _ := c.ListEntries("bob", "", "")
	if len(bob) != 1 {
		t.Errorf("bob count = %d, want 1 (untouched by alice's invalidation)", len(bob))
	}
}

func TestCacheGetEntry(t *testing.T) {
	c, _ := setupTestCache(t)

	e, err := c.GetEntry("alice", "p2")
	if err != nil {
		t.Fatalf("GetEntry failed: %v", err)
	}
	if e.Title != "P2" {
		t.Errorf("Title = %q, want P2", e.Title)
	}

	if _, err := c.GetEntry("alice", "missing"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCacheTagsAndCategories(t *testing.T) {
	c, _ := setupTestCache(t)

	tags, err := c.ListTags("alice")
	if err != nil {
		t.Fatalf("ListTags failed: %v", err)
	}
	if len(tags) != 3 {
		t.Errorf("tags = %v, want 3", tags)
	}

	cats, err := c.ListCategories("alice")
	if err != nil {
		t.Fatalf("ListCategories failed: %v", err)
	}
	if len(cats) != 2 {
		t.Errorf("categories = %v, want 2", cats)
	}
}
