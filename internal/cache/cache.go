// Package cache keeps fetched pages and model responses on disk so repeated
// runs over the same document are cheap and reproducible.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// dirMode and fileMode pick permissions; strict mode keeps the cache private
// to the current user.
func dirMode(strict bool) os.FileMode {
	if strict {
		return 0o700
	}
	return 0o755
}

func fileMode(strict bool) os.FileMode {
	if strict {
		return 0o600
	}
	return 0o644
}

func ensureDir(dir string, strict bool) error {
	if strings.TrimSpace(dir) == "" {
		return errors.New("cache dir not configured")
	}
	if err := os.MkdirAll(dir, dirMode(strict)); err != nil {
		return err
	}
	if strict {
		// MkdirAll leaves existing directories alone.
		if info, err := os.Stat(dir); err == nil && info.Mode().Perm() != 0o700 {
			return os.Chmod(dir, 0o700)
		}
	}
	return nil
}

// digest returns the hex sha256 of the parts joined by blank lines.
func digest(parts ...string) string {
	h := sha256.Sum256([]byte(strings.Join(parts, "\n\n")))
	return hex.EncodeToString(h[:])
}

// writeAtomic writes data to a temp file next to path and renames it in place.
func writeAtomic(path string, data []byte, mode os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(name)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return err
	}
	if err := os.Chmod(name, mode); err != nil {
		os.Remove(name)
		return err
	}
	return os.Rename(name, path)
}
