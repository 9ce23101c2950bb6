package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// HTTPEntry is the metadata stored next to a cached page body. ETag and
// LastModified drive conditional revalidation.
type HTTPEntry struct {
	URL          string    `json:"url"`
	ContentType  string    `json:"content_type"`
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	SavedAt      time.Time `json:"saved_at"`
}

// HTTPCache stores page bodies as <sha256(url)>.body with a sibling
// <sha256(url)>.meta.json.
type HTTPCache struct {
	Dir         string
	StrictPerms bool
}

func (c *HTTPCache) paths(url string) (meta, body string) {
	k := digest("http", url)
	return filepath.Join(c.Dir, k+".meta.json"), filepath.Join(c.Dir, k+".body")
}

// LoadMeta returns the stored entry for url, or an error if absent.
func (c *HTTPCache) LoadMeta(_ context.Context, url string) (*HTTPEntry, error) {
	if err := ensureDir(c.Dir, c.StrictPerms); err != nil {
		return nil, err
	}
	metaPath, _ := c.paths(url)
	b, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, err
	}
	var e HTTPEntry
	if err := json.Unmarshal(b, &e); err != nil {
		return nil, fmt.Errorf("decode meta: %w", err)
	}
	return &e, nil
}

// LoadBody returns the cached body for url.
func (c *HTTPCache) LoadBody(_ context.Context, url string) ([]byte, error) {
	if err := ensureDir(c.Dir, c.StrictPerms); err != nil {
		return nil, err
	}
	_, bodyPath := c.paths(url)
	return os.ReadFile(bodyPath)
}

// Save stores body and metadata for url. The body is written first so a
// readable meta file always has a body behind it.
func (c *HTTPCache) Save(_ context.Context, url, contentType, etag, lastModified string, body []byte) error {
	if err := ensureDir(c.Dir, c.StrictPerms); err != nil {
		return err
	}
	metaPath, bodyPath := c.paths(url)
	mode := fileMode(c.StrictPerms)
	if err := writeAtomic(bodyPath, body, mode); err != nil {
		return fmt.Errorf("write body: %w", err)
	}
	meta, err := json.Marshal(HTTPEntry{
		URL:          url,
		ContentType:  contentType,
		ETag:         etag,
		LastModified: lastModified,
		SavedAt:      time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	if err := writeAtomic(metaPath, meta, mode); err != nil {
		return fmt.Errorf("write meta: %w", err)
	}
	return nil
}
