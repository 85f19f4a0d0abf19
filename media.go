package weblog

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "image/gif"
	_ "image/jpeg"

	"github.com/google/uuid"
	"golang.org/x/image/draw"

	"github.com/eringen/weblog/theme"
)

const (
	maxUploadSize  = 10 << 20 // 10MB
	thumbnailWidth = 120
)

// MediaLibrary stores uploaded media files on disk and their metadata in the
// Store. Files are addressable two ways: by ID (direct serving) and by their
// original upload path (fixed-path resource resolution).
type MediaLibrary struct {
	store *Store
	dir   string
}

// NewMediaLibrary creates a MediaLibrary rooted at dir.
func NewMediaLibrary(store *Store, dir string) *MediaLibrary {
	return &MediaLibrary{store: store, dir: dir}
}

// Upload stores the bytes read from src as a new media file of the weblog,
// addressable at originalPath. Image uploads get their dimensions recorded
// and a PNG thumbnail generated alongside the original bytes.
func (m *MediaLibrary) Upload(handle, originalPath, name, contentType string, src io.Reader) (MediaFile, error) {
	cleaned := theme.CleanPath(originalPath)
	if cleaned == "" {
		return MediaFile{}, fmt.Errorf("weblog: invalid upload path %q", originalPath)
	}

	data, err := io.ReadAll(io.LimitReader(src, maxUploadSize+1))
	if err != nil {
		return MediaFile{}, fmt.Errorf("weblog: read upload: %w", err)
	}
	if len(data) > maxUploadSize {
		return MediaFile{}, fmt.Errorf("weblog: upload exceeds %d bytes", maxUploadSize)
	}

	// re-uploads to an existing path keep the old ID so media links stay
	// stable and the previous bytes are overwritten instead of orphaned
	id := uuid.NewString()
	if existing, err := m.store.MediaFileByOriginalPath(handle, cleaned); err == nil {
		id = existing.ID
	} else if !errors.Is(err, ErrNotFound) {
		return MediaFile{}, err
	}

	mf := MediaFile{
		ID:           id,
		WeblogHandle: handle,
		OriginalPath: cleaned,
		Name:         name,
		ContentType:  contentType,
		Size:         len(data),
		UploadedAt:   time.Now().UTC().Format(time.RFC3339),
	}

	var thumb []byte
	if img, _, err := image.Decode(bytes.NewReader(data)); err == nil {
		bounds := img.Bounds()
		mf.Width, mf.Height = bounds.Dx(), bounds.Dy()
		thumb, err = renderThumbnail(img)
		if err != nil {
			return MediaFile{}, err
		}
	}

	dir := filepath.Join(m.dir, handle)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return MediaFile{}, fmt.Errorf("weblog: create uploads dir: %w", err)
	}
	if err := os.WriteFile(m.filePath(mf), data, 0o644); err != nil {
		return MediaFile{}, fmt.Errorf("weblog: write media file: %w", err)
	}
	if thumb != nil {
		if err := os.WriteFile(m.thumbPath(mf), thumb, 0o644); err != nil {
			return MediaFile{}, fmt.Errorf("weblog: write thumbnail: %w", err)
		}
	} else {
		// a non-image replacing an image drops the stale thumbnail
		_ = os.Remove(m.thumbPath(mf))
	}

	if err := m.store.SaveMediaFile(mf); err != nil {
		return MediaFile{}, err
	}
	return mf, nil
}

// renderThumbnail scales img down to thumbnailWidth and encodes it as PNG.
// Images already narrower than the thumbnail width are encoded as-is.
func renderThumbnail(img image.Image) ([]byte, error) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w > thumbnailWidth {
		newH := h * thumbnailWidth / w
		dst := image.NewRGBA(image.Rect(0, 0, thumbnailWidth, newH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("weblog: encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

// ByOriginalPath returns the media file uploaded at the given path within a
// weblog.
func (m *MediaLibrary) ByOriginalPath(handle, path string) (MediaFile, error) {
	return m.store.MediaFileByOriginalPath(handle, strings.TrimPrefix(path, "/"))
}

// Get returns a media file by ID.
func (m *MediaLibrary) Get(id string) (MediaFile, error) {
	return m.store.GetMediaFile(id)
}

// List returns all media files of a weblog, newest first.
func (m *MediaLibrary) List(handle string) ([]MediaFile, error) {
	return m.store.ListMediaFiles(handle)
}

// Open opens the stored bytes of a media file. The caller owns the stream.
func (m *MediaLibrary) Open(mf MediaFile) (io.ReadCloser, error) {
	return os.Open(m.filePath(mf))
}

// OpenThumbnail opens the PNG thumbnail of an image media file.
func (m *MediaLibrary) OpenThumbnail(mf MediaFile) (io.ReadCloser, error) {
	return os.Open(m.thumbPath(mf))
}

// Delete removes a media file's bytes, thumbnail and metadata record.
func (m *MediaLibrary) Delete(mf MediaFile) error {
	_ = os.Remove(m.thumbPath(mf)) // ignore error if never generated
	if err := os.Remove(m.filePath(mf)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return m.store.DeleteMediaFile(mf.ID)
}

func (m *MediaLibrary) filePath(mf MediaFile) string {
	return filepath.Join(m.dir, mf.WeblogHandle, mf.ID)
}

func (m *MediaLibrary) thumbPath(mf MediaFile) string {
	return filepath.Join(m.dir, mf.WeblogHandle, mf.ID+".thumb.png")
}
