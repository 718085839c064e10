// Package atomicfile replaces files through a sibling temp file and rename,
// so readers never observe a partially written output.
package atomicfile

import (
	"os"
	"path/filepath"
)

// Write replaces path with data, creating parent directories as needed.
// A failed write leaves any previous file at path untouched.
func Write(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".tether-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(f.Name())
		}
	}()
	if _, err = f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), path)
}
