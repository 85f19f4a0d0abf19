package weblog

import (
	"path/filepath"
	"strings"
	"testing"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "test_weblog.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func seedEntries(t *testing.T, s *Store, entries []Entry) {
	t.Helper()
	for _, e := range entries {
		if err := s.SaveEntry(e); err != nil {
			t.Fatalf("SaveEntry(%s) failed: %v", e.Anchor, err)
		}
	}
}

func TestSaveAndGetWeblog(t *testing.T) {
	s := setupTestStore(t)

	w := Weblog{Handle: "alice", Name: "Alice's Weblog", Description: "about things", Theme: "basic", Locale: "en", Visible: true}
	if err := s.SaveWeblog(w); err != nil {
		t.Fatalf("SaveWeblog failed: %v", err)
	}

	got, err := s.GetWeblog("alice")
	if err != nil {
		t.Fatalf("GetWeblog failed: %v", err)
	}
	if got != w {
		t.Errorf("GetWeblog = %+v, want %+v", got, w)
	}

	if _, err := s.GetWeblog("nobody"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListWeblogs(t *testing.T) {
	s := setupTestStore(t)

	for _, h := range []string{"carol", "alice", "bob"} {
		if err := s.SaveWeblog(Weblog{Handle: h, Name: h, Theme: "basic", Visible: true}); err != nil {
			t.Fatalf("SaveWeblog failed: %v", err)
		}
	}

	got, err := s.ListWeblogs()
	if err != nil {
		t.Fatalf("ListWeblogs failed: %v", err)
	}
	if len(got) != 3 || got[0].Handle != "alice" || got[2].Handle != "carol" {
		t.Errorf("ListWeblogs order = %v", got)
	}
}

func TestDeleteWeblogCascades(t *testing.T) {
	s := setupTestStore(t)

	if err := s.SaveWeblog(Weblog{Handle: "alice", Name: "Alice", Theme: "basic", Visible: true}); err != nil {
		t.Fatalf("SaveWeblog failed: %v", err)
	}
	seedEntries(t, s, []Entry{{WeblogHandle: "alice", Anchor: "p1", Title: "P1", Date: "2024-01-01", Published: true}})
	if err := s.SaveMember(Member{WeblogHandle: "alice", Username: "bob", Permission: PermPost}); err != nil {
		t.Fatalf("SaveMember failed: %v", err)
	}
	if err := s.SaveMediaFile(MediaFile{ID: "m1", WeblogHandle: "alice", OriginalPath: "a.txt", Name: "a.txt", ContentType: "text/plain", UploadedAt: "2024-01-01T00:00:00Z"}); err != nil {
		t.Fatalf("SaveMediaFile failed: %v", err)
	}
	if err := s.IncrementHit("alice", "2024-01-01"); err != nil {
		t.Fatalf("IncrementHit failed: %v", err)
	}

	if err := s.DeleteWeblog("alice"); err != nil {
		t.Fatalf("DeleteWeblog failed: %v", err)
	}
	if _, err := s.GetWeblog("alice"); err != ErrNotFound {
		t.Errorf("weblog should be gone, got %v", err)
	}
	if _, err := s.GetEntry("alice", "p1"); err != ErrNotFound {
		t.Errorf("entries should be gone, got %v", err)
	}
	if _, err := s.GetMember("alice", "bob"); err != ErrNotFound {
		t.Errorf("members should be gone, got %v", err)
	}
	if _, err := s.GetMediaFile("m1"); err != ErrNotFound {
		t.Errorf("media records should be gone, got %v", err)
	}
	if n, err := s.HitCount("alice"); err != nil || n != 0 {
		t.Errorf("hit count = %d (%v), want 0", n, err)
	}
}

func TestSaveAndGetEntry(t *testing.T) {
	s := setupTestStore(t)

	e := Entry{
		WeblogHandle: "alice",
		Anchor:       "first-post",
		Title:        "First Post",
		Date:         "2024-01-15",
		Category:     "tech",
		Tags:         []string{"go", "web"},
		Summary:      "a summary",
		Content:      "# hello",
		Published:    true,
	}
	if err := s.SaveEntry(e); err != nil {
		t.Fatalf("SaveEntry failed: %v", err)
	}

	got, err := s.GetEntry("alice", "first-post")
	if err != nil {
		t.Fatalf("GetEntry failed: %v", err)
	}
	if got.Title != e.Title || got.Category != e.Category || got.Content != e.Content {
		t.Errorf("GetEntry = %+v", got)
	}
	if got.Link != "/alice/entry/first-post/" {
		t.Errorf("Link = %q, want %q", got.Link, "/alice/entry/first-post/")
	}
	if len(got.Tags) != 2 || got.Tags[0] != "go" || got.Tags[1] != "web" {
		t.Errorf("Tags = %v, want [go web]", got.Tags)
	}
}

func TestGetEntryUnpublished(t *testing.T) {
	s := setupTestStore(t)

	seedEntries(t, s, []Entry{{WeblogHandle: "alice", Anchor: "draft", Title: "Draft", Date: "2024-01-01", Published: false}})

	if _, err := s.GetEntry("alice", "draft"); err != ErrNotFound {
		t.Errorf("GetEntry should skip drafts, got %v", err)
	}

	got, err := s.GetEntryAny("alice", "draft")
	if err != nil {
		t.Fatalf("GetEntryAny failed: %v", err)
	}
	if got.Published {
		t.Error("Published should be false")
	}
}

func TestListEntriesFilters(t *testing.T) {
	s := setupTestStore(t)

	seedEntries(t, s, []Entry{
		{WeblogHandle: "alice", Anchor: "p1", Title: "P1", Date: "2024-01-01", Category: "tech", Tags: []string{"go"}, Published: true},
		{WeblogHandle: "alice", Anchor: "p2", Title: "P2", Date: "2024-01-02", Category: "life", Tags: []string{"go", "web"}, Published: true},
		{WeblogHandle: "alice", Anchor: "p3", Title: "P3", Date: "2024-01-03", Category: "tech", Tags: []string{"rust"}, Published: true},
		{WeblogHandle: "alice", Anchor: "p4", Title: "P4", Date: "2024-01-04", Category: "tech", Tags: []string{"go"}, Published: false},
		{WeblogHandle: "bob", Anchor: "b1", Title: "B1", Date: "2024-01-05", Category: "tech", Tags: []string{"go"}, Published: true},
	})

	all, err := s.ListEntries("alice", "", "")
	if err != nil {
		t.Fatalf("ListEntries failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("count = %d, want 3 (published, this weblog only)", len(all))
	}
	if all[0].Anchor != "p3" {
		t.Errorf("first entry = %s, want p3 (newest first)", all[0].Anchor)
	}

	tech, err := s.ListEntries("alice", "tech", "")
	if err != nil {
		t.Fatalf("ListEntries by category failed: %v", err)
	}
	if len(tech) != 2 {
		t.Errorf("tech count = %d, want 2", len(tech))
	}

	tagged, err := s.ListEntries("alice", "", "GO")
	if err != nil {
		t.Fatalf("ListEntries by tag failed: %v", err)
	}
	if len(tagged) != 2 {
		t.Errorf("go-tag count = %d, want 2 (case-insensitive)", len(tagged))
	}

	both, err := s.ListEntries("alice", "tech", "go")
	if err != nil {
		t.Fatalf("ListEntries by category+tag failed: %v", err)
	}
	if len(both) != 1 || both[0].Anchor != "p1" {
		t.Errorf("tech+go = %v, want [p1]", both)
	}
}

func TestListEntriesByDate(t *testing.T) {
	s := setupTestStore(t)

	seedEntries(t, s, []Entry{
		{WeblogHandle: "alice", Anchor: "jan", Title: "Jan", Date: "2024-01-15", Published: true},
		{WeblogHandle: "alice", Anchor: "feb", Title: "Feb", Date: "2024-02-01", Published: true},
		{WeblogHandle: "alice", Anchor: "old", Title: "Old", Date: "2023-12-31", Published: true},
	})

	year, err := s.ListEntriesByDate("alice", "2024")
	if err != nil {
		t.Fatalf("ListEntriesByDate failed: %v", err)
	}
	if len(year) != 2 {
		t.Errorf("2024 count = %d, want 2", len(year))
	}

	month, err := s.ListEntriesByDate("alice", "2024-01")
	if err != nil {
		t.Fatalf("ListEntriesByDate failed: %v", err)
	}
	if len(month) != 1 || month[0].Anchor != "jan" {
		t.Errorf("2024-01 = %v, want [jan]", month)
	}
}

func TestSearchEntries(t *testing.T) {
	s := setupTestStore(t)

	seedEntries(t, s, []Entry{
		{WeblogHandle: "alice", Anchor: "p1", Title: "Gardening Tips", Date: "2024-01-01", Category: "life", Summary: "soil and seeds", Content: "plant things", Published: true},
		{WeblogHandle: "alice", Anchor: "p2", Title: "Go Concurrency", Date: "2024-01-02", Category: "tech", Summary: "channels", Content: "goroutines and gardening metaphors", Published: true},
		{WeblogHandle: "alice", Anchor: "p3", Title: "Draft Gardening", Date: "2024-01-03", Category: "life", Summary: "", Content: "", Published: false},
	})

	got, err := s.SearchEntries("alice", "Gardening", "")
	if err != nil {
		t.Fatalf("SearchEntries failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("count = %d, want 2 (title and content matches, no drafts)", len(got))
	}

	got, err = s.SearchEntries("alice", "gardening", "life")
	if err != nil {
		t.Fatalf("SearchEntries with category failed: %v", err)
	}
	if len(got) != 1 || got[0].Anchor != "p1" {
		t.Errorf("life results = %v, want [p1]", got)
	}

	got, err = s.SearchEntries("alice", "zebra", "")
	if err != nil {
		t.Fatalf("SearchEntries failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("zebra results = %v, want none", got)
	}
}

func TestListCategoriesAndTags(t *testing.T) {
	s := setupTestStore(t)

	seedEntries(t, s, []Entry{
		{WeblogHandle: "alice", Anchor: "p1", Title: "P1", Date: "2024-01-01", Category: "Tech", Tags: []string{"Go", "Web"}, Published: true},
		{WeblogHandle: "alice", Anchor: "p2", Title: "P2", Date: "2024-01-02", Category: "life", Tags: []string{"go", "api"}, Published: true},
		{WeblogHandle: "alice", Anchor: "p3", Title: "P3", Date: "2024-01-03", Category: "secret", Tags: []string{"rust"}, Published: false},
	})

	cats, err := s.ListCategories("alice")
	if err != nil {
		t.Fatalf("ListCategories failed: %v", err)
	}
	if len(cats) != 2 {
		t.Errorf("categories = %v, want 2 (published only)", cats)
	}

	tags, err := s.ListTags("alice")
	if err != nil {
		t.Fatalf("ListTags failed: %v", err)
	}
	want := []string{"api", "go", "web"}
	if len(tags) != len(want) {
		t.Fatalf("tags = %v, want %v", tags, want)
	}
	for i := range want {
		if tags[i] != want[i] {
			t.Errorf("tags[%d] = %q, want %q", i, tags[i], want[i])
		}
	}
}

func TestMediaFileByOriginalPath(t *testing.T) {
	s := setupTestStore(t)

	mf := MediaFile{
		ID: "m1", WeblogHandle: "alice", OriginalPath: "photos/cat.jpg",
		Name: "cat.jpg", ContentType: "image/jpeg", Size: 1234,
		Width: 800, Height: 600, UploadedAt: "2024-01-15T10:00:00Z",
	}
	if err := s.SaveMediaFile(mf); err != nil {
		t.Fatalf("SaveMediaFile failed: %v", err)
	}

	got, err := s.MediaFileByOriginalPath("alice", "photos/cat.jpg")
	if err != nil {
		t.Fatalf("MediaFileByOriginalPath failed: %v", err)
	}
	if got != mf {
		t.Errorf("got %+v, want %+v", got, mf)
	}

	// a leading slash on the lookup path is ignored
	if _, err := s.MediaFileByOriginalPath("alice", "/photos/cat.jpg"); err != nil {
		t.Errorf("leading-slash lookup failed: %v", err)
	}

	// scoped to the weblog
	if _, err := s.MediaFileByOriginalPath("bob", "photos/cat.jpg"); err != ErrNotFound {
		t.Errorf("cross-weblog lookup should miss, got %v", err)
	}
}

func TestMembers(t *testing.T) {
	s := setupTestStore(t)

	if err := s.SaveMember(Member{WeblogHandle: "alice", Username: "bob", Permission: PermPost, Pending: true}); err != nil {
		t.Fatalf("SaveMember failed: %v", err)
	}

	got, err := s.GetMember("alice", "bob")
	if err != nil {
		t.Fatalf("GetMember failed: %v", err)
	}
	if !got.Pending || got.Permission != PermPost {
		t.Errorf("GetMember = %+v", got)
	}

	// accepting the invite clears the pending flag
	got.Pending = false
	if err := s.SaveMember(got); err != nil {
		t.Fatalf("SaveMember update failed: %v", err)
	}
	got, err = s.GetMember("alice", "bob")
	if err != nil {
		t.Fatalf("GetMember failed: %v", err)
	}
	if got.Pending {
		t.Error("Pending should be cleared")
	}

	if err := s.DeleteMember("alice", "bob"); err != nil {
		t.Fatalf("DeleteMember failed: %v", err)
	}
	if _, err := s.GetMember("alice", "bob"); err != ErrNotFound {
		t.Errorf("member should be gone, got %v", err)
	}
}

func TestUpdatePropertyValidation(t *testing.T) {
	s := setupTestStore(t)

	props := []RuntimeProperty{
		{Name: "site.comments", Value: "true", Type: "boolean"},
		{Name: "site.pagesize", Value: "20", Type: "integer"},
		{Name: "site.motto", Value: "hello", Type: "string"},
	}
	for _, p := range props {
		if err := s.SaveProperty(p); err != nil {
			t.Fatalf("SaveProperty failed: %v", err)
		}
	}

	if err := s.UpdateProperty("site.comments", "false"); err != nil {
		t.Errorf("valid boolean rejected: %v", err)
	}
	if err := s.UpdateProperty("site.comments", "maybe"); err == nil {
		t.Error("invalid boolean accepted")
	}
	if err := s.UpdateProperty("site.pagesize", "fifty"); err == nil {
		t.Error("invalid integer accepted")
	}
	if err := s.UpdateProperty("site.motto", "anything goes"); err != nil {
		t.Errorf("string value rejected: %v", err)
	}
	if err := s.UpdateProperty("site.unknown", "x"); err == nil {
		t.Error("unknown property accepted")
	}

	// a rejected value leaves the stored one untouched
	p, err := s.GetProperty("site.pagesize")
	if err != nil {
		t.Fatalf("GetProperty failed: %v", err)
	}
	if p.Value != "20" {
		t.Errorf("pagesize = %q, want untouched %q", p.Value, "20")
	}
}

func TestHitCounts(t *testing.T) {
	s := setupTestStore(t)

	for i := 0; i < 3; i++ {
		if err := s.IncrementHit("alice", "2024-01-15"); err != nil {
			t.Fatalf("IncrementHit failed: %v", err)
		}
	}
	if err := s.IncrementHit("alice", "2024-01-16"); err != nil {
		t.Fatalf("IncrementHit failed: %v", err)
	}
	if err := s.IncrementHit("bob", "2024-01-15"); err != nil {
		t.Fatalf("IncrementHit failed: %v", err)
	}

	n, err := s.HitCount("alice")
	if err != nil {
		t.Fatalf("HitCount failed: %v", err)
	}
	if n != 4 {
		t.Errorf("HitCount = %d, want 4", n)
	}
}

func TestParseTags(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"", nil},
		{",", nil},
		{",go,", []string{"go"}},
		{",go,web,", []string{"go", "web"}},
		{",go, web ,rust,", []string{"go", "web", "rust"}},
	}

	for _, tt := range tests {
		got := ParseTags(tt.input)
		if len(got) != len(tt.want) {
			t.Errorf("ParseTags(%q) = %v, want %v", tt.input, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("ParseTags(%q)[%d] = %q, want %q", tt.input, i, got[i], tt.want[i])
			}
		}
	}
}

func TestSaveEntryNormalizesTags(t *testing.T) {
	s := setupTestStore(t)

	seedEntries(t, s, []Entry{{WeblogHandle: "alice", Anchor: "p1", Title: "P1", Date: "2024-01-01", Tags: []string{" GoLang ", "WEB"}, Published: true}})

	got, err := s.GetEntry("alice", "p1")
	if err != nil {
		t.Fatalf("GetEntry failed: %v", err)
	}
	for _, tag := range got.Tags {
		if tag != strings.ToLower(strings.TrimSpace(tag)) {
			t.Errorf("tag %q not normalized", tag)
		}
	}
}
