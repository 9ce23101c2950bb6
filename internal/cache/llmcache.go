package cache

import (
	"context"
	"os"
	"path/filepath"
	"time"
)

// LLMCache stores model responses keyed by KeyFrom(model, prompt).
type LLMCache struct {
	Dir         string
	StrictPerms bool
}

// KeyFrom builds a cache key from the model name and the full prompt.
func KeyFrom(model string, prompt string) string {
	return digest(model, prompt)
}

func (c *LLMCache) pathFor(key string) string {
	return filepath.Join(c.Dir, key+".json")
}

// Get returns the cached bytes for key. A miss is (nil, false, nil).
func (c *LLMCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	if err := ensureDir(c.Dir, c.StrictPerms); err != nil {
		return nil, false, err
	}
	p := c.pathFor(key)
	b, err := os.ReadFile(p)
	if err != nil {
		return nil, false, nil
	}
	// mtime doubles as last-access time for age based purging
	now := time.Now()
	_ = os.Chtimes(p, now, now)
	return b, true, nil
}

// Save writes data under key.
func (c *LLMCache) Save(_ context.Context, key string, data []byte) error {
	if err := ensureDir(c.Dir, c.StrictPerms); err != nil {
		return err
	}
	return writeAtomic(c.pathFor(key), data, fileMode(c.StrictPerms))
}
