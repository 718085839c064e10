// Package cache stores compiled units on disk, keyed by content digest.
package cache

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"tether/internal/project"
)

// Current schema version - increment when Payload format changes.
const schemaVersion uint16 = 1

// DiskCache keeps compiled assembly per unit key. Safe for concurrent use.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// Payload is one cached compilation.
type Payload struct {
	Schema uint16

	Unit     string
	UnitHash project.Digest

	// EXTREQ fragments the unit pulled in, with the digests they had.
	Requirements      []string
	RequirementHashes []project.Digest

	Assembly string
	Warnings []Warning
	Stored   time.Time
}

// Warning is a diagnostic replayed on a cache hit.
type Warning struct {
	Code    uint16
	Message string
	Line    int
}

// Open initializes a cache under $XDG_CACHE_HOME/app (or ~/.cache/app).
func Open(app string) (*DiskCache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	return OpenAt(filepath.Join(base, app))
}

// OpenAt initializes a cache rooted at dir.
func OpenAt(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

// Dir returns the cache root.
func (c *DiskCache) Dir() string {
	if c == nil {
		return ""
	}
	return c.dir
}

func (c *DiskCache) pathFor(key project.Digest) string {
	return filepath.Join(c.dir, "units", key.String()+".mp")
}

// Put serializes and writes a payload.
func (c *DiskCache) Put(key project.Digest, payload *Payload) (err error) {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	payload.Schema = schemaVersion
	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(f.Name())
		}
	}()

	if err = msgpack.NewEncoder(f).Encode(payload); err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), p)
}

// Get reads a payload. A missing entry or one written by another schema is a miss.
func (c *DiskCache) Get(key project.Digest, out *Payload) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer f.Close()

	if err := msgpack.NewDecoder(f).Decode(out); err != nil {
		return false, err
	}
	if out.Schema != schemaVersion {
		return false, nil
	}
	return true, nil
}

// Lookup returns the cached payload for key if every requirement it recorded
// still hashes the same under current.
func (c *DiskCache) Lookup(key project.Digest, current func(name string) (project.Digest, bool)) (*Payload, bool, error) {
	var p Payload
	ok, err := c.Get(key, &p)
	if err != nil || !ok {
		return nil, false, err
	}
	if len(p.Requirements) != len(p.RequirementHashes) {
		return nil, false, nil
	}
	for i, name := range p.Requirements {
		d, found := current(name)
		if !found || d != p.RequirementHashes[i] {
			return nil, false, nil
		}
	}
	return &p, true, nil
}

// DropAll invalidates the whole cache.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := os.RemoveAll(old); err != nil {
		return err
	}
	return os.MkdirAll(c.dir, 0o755)
}
