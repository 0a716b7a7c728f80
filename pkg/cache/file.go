package cache

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// FileCache stores one JSON file per entry, grouped by key type:
//
//	<dir>/<type>/<hash[:2]>/<hash[2:]>.json
//
// The type directory is the key's prefix (layout, artifact, http, sync) so a
// single kind of entry can be listed or cleared without reading the others.
type FileCache struct {
	dir string
}

// NewFileCache creates dir if needed and returns a cache rooted there.
func NewFileCache(dir string) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileCache{dir: dir}, nil
}

// Dir returns the root directory.
func (c *FileCache) Dir() string { return c.dir }

type fileEntry struct {
	Key       string    `json:"key"`
	Data      []byte    `json:"data"`
	ExpiresAt time.Time `json:"expires_at,omitzero"`
}

func (e fileEntry) expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && now.After(e.ExpiresAt)
}

// Get returns the entry for key. Unreadable and expired entries are removed
// and reported as misses.
func (c *FileCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	path := c.path(key)
	e, err := readEntry(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if e == nil || e.Key != key || e.expired(time.Now()) {
		_ = os.Remove(path)
		return nil, false, nil
	}
	return e.Data, true, nil
}

// Set writes the entry through a temporary file so readers never see a
// partial entry.
func (c *FileCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	e := fileEntry{Key: key, Data: data}
	if ttl > 0 {
		e.ExpiresAt = time.Now().Add(ttl)
	}
	raw, err := json.Marshal(e)
	if err != nil {
		return err
	}

	path := c.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Delete removes the entry for key. Missing entries are not an error.
func (c *FileCache) Delete(ctx context.Context, key string) error {
	err := os.Remove(c.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// Close is a no-op.
func (c *FileCache) Close() error { return nil }

// Usage summarizes the entries of one key type.
type Usage struct {
	Entries int
	Expired int
	Bytes   int64
}

// Usage walks the cache and reports entries per key type.
func (c *FileCache) Usage() (map[string]Usage, error) {
	out := make(map[string]Usage)
	now := time.Now()
	err := c.walk("", func(kind, path string, info fs.FileInfo) error {
		u := out[kind]
		u.Entries++
		u.Bytes += info.Size()
		if e, err := readEntry(path); err != nil || e == nil || e.expired(now) {
			u.Expired++
		}
		out[kind] = u
		return nil
	})
	return out, err
}

// Clear removes the entries of one key type, or all entries when kind is
// empty. With expiredOnly set, live entries are kept. It returns the number
// of entries removed.
func (c *FileCache) Clear(kind string, expiredOnly bool) (int, error) {
	now := time.Now()
	n := 0
	err := c.walk(kind, func(_, path string, _ fs.FileInfo) error {
		if expiredOnly {
			if e, err := readEntry(path); err == nil && e != nil && !e.expired(now) {
				return nil
			}
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		n++
		return nil
	})
	if err != nil {
		return n, err
	}
	c.pruneDirs()
	return n, nil
}

// walk calls fn for each entry file under the type directory kind, or under
// every type directory when kind is empty.
func (c *FileCache) walk(kind string, fn func(kind, path string, info fs.FileInfo) error) error {
	root := c.dir
	if kind != "" {
		root = filepath.Join(c.dir, kindDir(kind))
	}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		rel, _ := filepath.Rel(c.dir, path)
		return fn(topDir(rel), path, info)
	})
	return err
}

// pruneDirs removes empty hash and type directories.
func (c *FileCache) pruneDirs() {
	kinds, _ := os.ReadDir(c.dir)
	for _, k := range kinds {
		if !k.IsDir() {
			continue
		}
		kdir := filepath.Join(c.dir, k.Name())
		shards, _ := os.ReadDir(kdir)
		for _, s := range shards {
			if s.IsDir() {
				_ = os.Remove(filepath.Join(kdir, s.Name())) // fails unless empty
			}
		}
		_ = os.Remove(kdir)
	}
}

func (c *FileCache) path(key string) string {
	h := Hash([]byte(key))
	return filepath.Join(c.dir, kindDir(KeyType(key)), h[:2], h[2:]+".json")
}

func readEntry(path string) (*fileEntry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var e fileEntry
	if json.Unmarshal(raw, &e) != nil {
		return nil, nil
	}
	return &e, nil
}

// kindDir maps a key type to its directory name. Keys without a known
// prefix share "other".
func kindDir(kind string) string {
	switch kind {
	case KeyTypeLayout, KeyTypeArtifact, KeyTypeHTTP, KeyTypeSync:
		return kind
	}
	return "other"
}

func topDir(rel string) string {
	for i := range len(rel) {
		if os.IsPathSeparator(rel[i]) {
			return rel[:i]
		}
	}
	return rel
}

var _ Cache = (*FileCache)(nil)
