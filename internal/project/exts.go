package project

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"tether/internal/directive"
)

// ExtSuffix is the extension of requirement fragments.
const ExtSuffix = ".ext"

// ExtFetcher resolves EXTREQ fragments as <Dir>/<name>.ext.
type ExtFetcher struct {
	Dir string
}

func (f ExtFetcher) Path(name string) string {
	return filepath.Join(f.Dir, name+ExtSuffix)
}

func (f ExtFetcher) Fetch(name string) (string, error) {
	if name == "" || filepath.Base(name) != name {
		return "", directive.ErrResourceNotFound
	}
	data, err := os.ReadFile(f.Path(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", directive.ErrResourceNotFound
		}
		return "", err
	}
	return string(data), nil
}

// RecordingFetcher remembers the digest of every fragment it served so a
// cached compilation can be revalidated later.
type RecordingFetcher struct {
	Inner directive.ResourceFetcher

	mu   sync.Mutex
	seen map[string]Digest
}

func NewRecordingFetcher(inner directive.ResourceFetcher) *RecordingFetcher {
	return &RecordingFetcher{Inner: inner, seen: make(map[string]Digest)}
}

func (r *RecordingFetcher) Fetch(name string) (string, error) {
	if r.Inner == nil {
		return "", directive.ErrResourceNotFound
	}
	text, err := r.Inner.Fetch(name)
	if err != nil {
		return "", err
	}
	r.mu.Lock()
	r.seen[name] = HashBytes([]byte(text))
	r.mu.Unlock()
	return text, nil
}

// Requirements returns the fetched names in sorted order with their digests.
func (r *RecordingFetcher) Requirements() ([]string, []Digest) {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.seen))
	for name := range r.seen {
		names = append(names, name)
	}
	sort.Strings(names)
	digests := make([]Digest, len(names))
	for i, name := range names {
		digests[i] = r.seen[name]
	}
	return names, digests
}
