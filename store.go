package weblog

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = sql.ErrNoRows

// Store wraps a SQLite database and provides CRUD operations for weblogs,
// entries, media file metadata, members and runtime properties.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and runs schema migrations.
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// Enable WAL mode for concurrent read/write access, set a busy timeout
	// so writers wait instead of returning SQLITE_BUSY immediately, and
	// avoid an fsync per transaction; safe with WAL.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
		PRAGMA cache_size=-8000;
	`); err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS weblogs (
    handle TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    theme TEXT NOT NULL DEFAULT 'basic',
    locale TEXT NOT NULL DEFAULT '',
    visible INTEGER NOT NULL DEFAULT 1
);
CREATE TABLE IF NOT EXISTS entries (
    weblog TEXT NOT NULL,
    anchor TEXT NOT NULL,
    title TEXT NOT NULL,
    date TEXT NOT NULL,
    category TEXT NOT NULL DEFAULT '',
    tags TEXT NOT NULL DEFAULT ',,',
    summary TEXT NOT NULL DEFAULT '',
    content TEXT NOT NULL DEFAULT '',
    published INTEGER NOT NULL DEFAULT 1,
    PRIMARY KEY (weblog, anchor)
);
CREATE TABLE IF NOT EXISTS media_files (
    id TEXT PRIMARY KEY,
    weblog TEXT NOT NULL,
    original_path TEXT NOT NULL,
    name TEXT NOT NULL,
    content_type TEXT NOT NULL,
    size INTEGER NOT NULL DEFAULT 0,
    width INTEGER NOT NULL DEFAULT 0,
    height INTEGER NOT NULL DEFAULT 0,
    uploaded_at TEXT NOT NULL,
    UNIQUE (weblog, original_path)
);
CREATE TABLE IF NOT EXISTS members (
    weblog TEXT NOT NULL,
    username TEXT NOT NULL,
    permission TEXT NOT NULL,
    pending INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (weblog, username)
);
CREATE TABLE IF NOT EXISTS properties (
    name TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    type TEXT NOT NULL DEFAULT 'string'
);
CREATE TABLE IF NOT EXISTS hits (
    weblog TEXT NOT NULL,
    day TEXT NOT NULL,
    count INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (weblog, day)
);
`)
	return err
}

// --- Weblogs ---

// SaveWeblog upserts a weblog.
func (s *Store) SaveWeblog(w Weblog) error {
	visible := 0
	if w.Visible {
		visible = 1
	}
	_, err := s.db.Exec(`INSERT OR REPLACE INTO weblogs (handle, name, description, theme, locale, visible) VALUES (?, ?, ?, ?, ?, ?)`,
		w.Handle, w.Name, w.Description, w.Theme, w.Locale, visible)
	return err
}

// GetWeblog returns a weblog by handle.
func (s *Store) GetWeblog(handle string) (Weblog, error) {
	var w Weblog
	var visible int
	err := s.db.QueryRow(`SELECT handle, name, description, theme, locale, visible FROM weblogs WHERE handle = ?`, handle).
		Scan(&w.Handle, &w.Name, &w.Description, &w.Theme, &w.Locale, &visible)
	if err != nil {
		return Weblog{}, err
	}
	w.Visible = visible == 1
	return w, nil
}

// ListWeblogs returns all weblogs ordered by handle.
func (s *Store) ListWeblogs() ([]Weblog, error) {
	rows, err := s.db.Query(`SELECT handle, name, description, theme, locale, visible FROM weblogs ORDER BY handle`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var weblogs []Weblog
	for rows.Next() {
		var w Weblog
		var visible int
		if err := rows.Scan(&w.Handle, &w.Name, &w.Description, &w.Theme, &w.Locale, &visible); err != nil {
			return nil, err
		}
		w.Visible = visible == 1
		weblogs = append(weblogs, w)
	}
	return weblogs, rows.Err()
}

// DeleteWeblog removes a weblog and everything scoped to it in one
// transaction, so a failure never leaves partial tenant state.
func (s *Store) DeleteWeblog(handle string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for _, q := range []string{
		`DELETE FROM entries WHERE weblog = ?`,
		`DELETE FROM media_files WHERE weblog = ?`,
		`DELETE FROM members WHERE weblog = ?`,
		`DELETE FROM hits WHERE weblog = ?`,
		`DELETE FROM weblogs WHERE handle = ?`,
	} {
		if _, err := tx.Exec(q, handle); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// --- Entries ---

func scanEntry(scan func(dest ...any) error) (Entry, error) {
	var e Entry
	var tags string
	var published int
	if err := scan(&e.WeblogHandle, &e.Anchor, &e.Title, &e.Date, &e.Category, &tags, &e.Summary, &e.Content, &published); err != nil {
		return Entry{}, err
	}
	e.Tags = ParseTags(tags)
	e.Published = published == 1
	e.Link = "/" + e.WeblogHandle + "/entry/" + e.Anchor + "/"
	return e, nil
}

const entryColumns = `weblog, anchor, title, date, category, tags, summary, content, published`

// ListEntries returns all published entries of a weblog ordered by date
// descending. If tag is non-empty, results are filtered to entries carrying
// that tag; if category is non-empty, to entries in that category.
func (s *Store) ListEntries(handle, category, tag string) ([]Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM entries WHERE weblog = ? AND published = 1`
	args := []any{handle}
	if category != "" {
		query += ` AND category = ?`
		args = append(args, category)
	}
	if tag != "" {
		query += ` AND instr(lower(tags), ',' || ? || ',') > 0`
		args = append(args, strings.ToLower(strings.TrimSpace(tag)))
	}
	query += ` ORDER BY date DESC`
	return s.queryEntries(query, args...)
}

// ListEntriesByDate returns published entries whose date starts with the
// given prefix ("2024" or "2024-01" or "2024-01-15"), newest first.
func (s *Store) ListEntriesByDate(handle, datePrefix string) ([]Entry, error) {
	return s.queryEntries(`SELECT `+entryColumns+` FROM entries WHERE weblog = ? AND published = 1 AND date LIKE ? ORDER BY date DESC`,
		handle, datePrefix+"%")
}

// ListAllEntries returns every entry of a weblog including drafts, newest first.
func (s *Store) ListAllEntries(handle string) ([]Entry, error) {
	return s.queryEntries(`SELECT `+entryColumns+` FROM entries WHERE weblog = ? ORDER BY date DESC`, handle)
}

// SearchEntries returns published entries matching q in title, summary or
// content, optionally restricted to a category.
func (s *Store) SearchEntries(handle, q, category string) ([]Entry, error) {
	needle := strings.ToLower(strings.TrimSpace(q))
	query := `SELECT ` + entryColumns + ` FROM entries WHERE weblog = ? AND published = 1
		AND (instr(lower(title), ?) > 0 OR instr(lower(summary), ?) > 0 OR instr(lower(content), ?) > 0)`
	args := []any{handle, needle, needle, needle}
	if category != "" {
		query += ` AND category = ?`
		args = append(args, category)
	}
	query += ` ORDER BY date DESC`
	return s.queryEntries(query, args...)
}

func (s *Store) queryEntries(query string, args ...any) ([]Entry, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows.Scan)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// GetEntry returns a single published entry by anchor.
func (s *Store) GetEntry(handle, anchor string) (Entry, error) {
	row := s.db.QueryRow(`SELECT `+entryColumns+` FROM entries WHERE weblog = ? AND anchor = ? AND published = 1`, handle, anchor)
	return scanEntry(row.Scan)
}

// GetEntryAny returns an entry by anchor regardless of published status (for admin).
func (s *Store) GetEntryAny(handle, anchor string) (Entry, error) {
	row := s.db.QueryRow(`SELECT `+entryColumns+` FROM entries WHERE weblog = ? AND anchor = ?`, handle, anchor)
	return scanEntry(row.Scan)
}

// ListCategories returns the sorted, deduplicated categories used by a
// weblog's published entries.
func (s *Store) ListCategories(handle string) ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT category FROM entries WHERE weblog = ? AND published = 1 AND category != '' ORDER BY category`, handle)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cats []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

// ListTags returns a sorted, deduplicated slice of all tags from a weblog's
// published entries.
func (s *Store) ListTags(handle string) ([]string, error) {
	rows, err := s.db.Query(`SELECT tags FROM entries WHERE weblog = ? AND published = 1`, handle)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	set := make(map[string]struct{})
	for rows.Next() {
		var tags string
		if err := rows.Scan(&tags); err != nil {
			return nil, err
		}
		for _, t := range ParseTags(tags) {
			set[strings.ToLower(t)] = struct{}{}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	var result []string
	for t := range set {
		result = append(result, t)
	}
	sort.Strings(result)
	return result, nil
}

// SaveEntry upserts an entry. Tags are normalized to lowercase.
func (s *Store) SaveEntry(e Entry) error {
	normalized := make([]string, len(e.Tags))
	for i, t := range e.Tags {
		normalized[i] = strings.ToLower(strings.TrimSpace(t))
	}
	tagString := "," + strings.Join(normalized, ",") + ","
	published := 0
	if e.Published {
		published = 1
	}
	_, err := s.db.Exec(`INSERT OR REPLACE INTO entries (weblog, anchor, title, date, category, tags, summary, content, published) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.WeblogHandle, e.Anchor, e.Title, e.Date, e.Category, tagString, e.Summary, e.Content, published)
	return err
}

// DeleteEntry removes an entry by anchor.
func (s *Store) DeleteEntry(handle, anchor string) error {
	_, err := s.db.Exec(`DELETE FROM entries WHERE weblog = ? AND anchor = ?`, handle, anchor)
	return err
}

// --- Media files ---

// SaveMediaFile upserts a media file metadata record.
func (s *Store) SaveMediaFile(mf MediaFile) error {
	_, err := s.db.Exec(`INSERT OR REPLACE INTO media_files (id, weblog, original_path, name, content_type, size, width, height, uploaded_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		mf.ID, mf.WeblogHandle, mf.OriginalPath, mf.Name, mf.ContentType, mf.Size, mf.Width, mf.Height, mf.UploadedAt)
	return err
}

const mediaColumns = `id, weblog, original_path, name, content_type, size, width, height, uploaded_at`

func scanMediaFile(scan func(dest ...any) error) (MediaFile, error) {
	var mf MediaFile
	err := scan(&mf.ID, &mf.WeblogHandle, &mf.OriginalPath, &mf.Name, &mf.ContentType, &mf.Size, &mf.Width, &mf.Height, &mf.UploadedAt)
	return mf, err
}

// GetMediaFile returns a media file by ID.
func (s *Store) GetMediaFile(id string) (MediaFile, error) {
	row := s.db.QueryRow(`SELECT `+mediaColumns+` FROM media_files WHERE id = ?`, id)
	return scanMediaFile(row.Scan)
}

// MediaFileByOriginalPath returns the media file uploaded at the given path
// within a weblog. A leading slash on the path is ignored.
func (s *Store) MediaFileByOriginalPath(handle, path string) (MediaFile, error) {
	path = strings.TrimPrefix(path, "/")
	row := s.db.QueryRow(`SELECT `+mediaColumns+` FROM media_files WHERE weblog = ? AND original_path = ?`, handle, path)
	return scanMediaFile(row.Scan)
}

// ListMediaFiles returns all media files of a weblog, newest first.
func (s *Store) ListMediaFiles(handle string) ([]MediaFile, error) {
	rows, err := s.db.Query(`SELECT `+mediaColumns+` FROM media_files WHERE weblog = ? ORDER BY uploaded_at DESC`, handle)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []MediaFile
	for rows.Next() {
		mf, err := scanMediaFile(rows.Scan)
		if err != nil {
			return nil, err
		}
		files = append(files, mf)
	}
	return files, rows.Err()
}

// DeleteMediaFile removes a media file metadata record by ID.
func (s *Store) DeleteMediaFile(id string) error {
	_, err := s.db.Exec(`DELETE FROM media_files WHERE id = ?`, id)
	return err
}

// --- Members ---

// SaveMember upserts a member record.
func (s *Store) SaveMember(m Member) error {
	pending := 0
	if m.Pending {
		pending = 1
	}
	_, err := s.db.Exec(`INSERT OR REPLACE INTO members (weblog, username, permission, pending) VALUES (?, ?, ?, ?)`,
		m.WeblogHandle, m.Username, m.Permission, pending)
	return err
}

// GetMember returns the member record for a username on a weblog.
func (s *Store) GetMember(handle, username string) (Member, error) {
	var m Member
	var pending int
	err := s.db.QueryRow(`SELECT weblog, username, permission, pending FROM members WHERE weblog = ? AND username = ?`, handle, username).
		Scan(&m.WeblogHandle, &m.Username, &m.Permission, &pending)
	if err != nil {
		return Member{}, err
	}
	m.Pending = pending == 1
	return m, nil
}

// ListMembers returns all members of a weblog ordered by username.
func (s *Store) ListMembers(handle string) ([]Member, error) {
	rows, err := s.db.Query(`SELECT weblog, username, permission, pending FROM members WHERE weblog = ? ORDER BY username`, handle)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []Member
	for rows.Next() {
		var m Member
		var pending int
		if err := rows.Scan(&m.WeblogHandle, &m.Username, &m.Permission, &pending); err != nil {
			return nil, err
		}
		m.Pending = pending == 1
		members = append(members, m)
	}
	return members, rows.Err()
}

// DeleteMember removes a member record.
func (s *Store) DeleteMember(handle, username string) error {
	_, err := s.db.Exec(`DELETE FROM members WHERE weblog = ? AND username = ?`, handle, username)
	return err
}

// --- Runtime properties ---

// SaveProperty upserts a runtime property. The value must already be
// validated against the property type (see UpdateProperty).
func (s *Store) SaveProperty(p RuntimeProperty) error {
	_, err := s.db.Exec(`INSERT OR REPLACE INTO properties (name, value, type) VALUES (?, ?, ?)`,
		p.Name, p.Value, p.Type)
	return err
}

// GetProperty returns a runtime property by name.
func (s *Store) GetProperty(name string) (RuntimeProperty, error) {
	var p RuntimeProperty
	err := s.db.QueryRow(`SELECT name, value, type FROM properties WHERE name = ?`, name).
		Scan(&p.Name, &p.Value, &p.Type)
	return p, err
}

// ListProperties returns all runtime properties ordered by name.
func (s *Store) ListProperties() ([]RuntimeProperty, error) {
	rows, err := s.db.Query(`SELECT name, value, type FROM properties ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var props []RuntimeProperty
	for rows.Next() {
		var p RuntimeProperty
		if err := rows.Scan(&p.Name, &p.Value, &p.Type); err != nil {
			return nil, err
		}
		props = append(props, p)
	}
	return props, rows.Err()
}

// UpdateProperty validates an incoming value against the existing property's
// type and saves it. Invalid values leave the stored value untouched and
// return an error naming the property.
func (s *Store) UpdateProperty(name, value string) error {
	p, err := s.GetProperty(name)
	if err != nil {
		return fmt.Errorf("weblog: unknown property %q: %w", name, err)
	}
	switch p.Type {
	case "boolean":
		if value != "true" && value != "false" {
			return fmt.Errorf("weblog: property %q wants a boolean, got %q", name, value)
		}
	case "integer":
		if _, err := strconv.Atoi(value); err != nil {
			return fmt.Errorf("weblog: property %q wants an integer, got %q", name, value)
		}
	}
	p.Value = value
	return s.SaveProperty(p)
}

// --- Hit counts ---

// IncrementHit bumps the daily hit counter of a weblog.
func (s *Store) IncrementHit(handle, day string) error {
	_, err := s.db.Exec(`INSERT INTO hits (weblog, day, count) VALUES (?, ?, 1)
		ON CONFLICT (weblog, day) DO UPDATE SET count = count + 1`, handle, day)
	return err
}

// HitCount returns the total hits of a weblog across all days.
func (s *Store) HitCount(handle string) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COALESCE(SUM(count), 0) FROM hits WHERE weblog = ?`, handle).Scan(&n)
	return n, err
}

// ParseTags splits a comma-delimited tag string (e.g. ",go,web,") into a slice.
func ParseTags(tagString string) []string {
	tagString = strings.Trim(tagString, ",")
	if tagString == "" {
		return nil
	}
	parts := strings.Split(tagString, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
