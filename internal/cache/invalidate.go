package cache

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ClearDir removes dir and everything in it, then recreates it empty.
func ClearDir(dir string) error {
	if strings.TrimSpace(dir) == "" {
		return errors.New("empty dir")
	}
	if err := os.RemoveAll(dir); err != nil {
		return err
	}
	return os.MkdirAll(dir, 0o755)
}

// PurgeByAge removes entries older than maxAge from dir and returns how many
// were removed. Page entries age by their recorded SavedAt (and lose both
// files); model responses age by mtime, which Get refreshes.
func PurgeByAge(dir string, maxAge time.Duration) (int, error) {
	if maxAge <= 0 {
		return 0, nil
	}
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	now := time.Now().UTC()
	removed := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		switch {
		case strings.HasSuffix(name, ".meta.json"):
			b, err := os.ReadFile(path)
			if err != nil {
				return nil
			}
			var e HTTPEntry
			if json.Unmarshal(b, &e) != nil || now.Sub(e.SavedAt) <= maxAge {
				return nil
			}
			_ = os.Remove(strings.TrimSuffix(path, ".meta.json") + ".body")
			_ = os.Remove(path)
			removed++
		case strings.HasSuffix(name, ".json"):
			info, err := d.Info()
			if err != nil || now.Sub(info.ModTime().UTC()) <= maxAge {
				return nil
			}
			_ = os.Remove(path)
			removed++
		}
		return nil
	})
	return removed, err
}
