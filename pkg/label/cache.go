package label

import (
	"encoding/json"
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
)

// Cache persists a single version label in a plain text file.
type Cache struct {
	Path string
	fs   FileSystem
}

func NewCache(path string, fsys FileSystem) *Cache {
	if fsys == nil {
		fsys = OSFileSystem{}
	}
	return &Cache{Path: path, fs: fsys}
}

// Load returns the cached label. A missing or empty file is reported as ok=false.
func (c *Cache) Load() (string, bool, error) {
	data, err := c.fs.ReadFile(c.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, nil
		}
		return "", false, &IOError{Op: "read cache", Path: c.Path, Err: err}
	}
	l := decodeLabel(data)
	return l, l != "", nil
}

// Store overwrites the cache file with label, creating its directory if needed.
func (c *Cache) Store(label string) error {
	if dir := filepath.Dir(c.Path); dir != "." {
		if err := c.fs.MkdirAll(dir, 0o755); err != nil {
			return &IOError{Op: "create cache dir", Path: dir, Err: err}
		}
	}
	if err := c.fs.WriteFile(c.Path, []byte(label+"\n"), 0o644); err != nil {
		return &IOError{Op: "write cache", Path: c.Path, Err: err}
	}
	return nil
}

// decodeLabel accepts both the plain format and a JSON string literal.
func decodeLabel(data []byte) string {
	s := strings.TrimSpace(string(data))
	if strings.HasPrefix(s, `"`) {
		var quoted string
		if err := json.Unmarshal([]byte(s), &quoted); err == nil {
			return strings.TrimSpace(quoted)
		}
	}
	return s
}
