package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"tether/internal/diag"
	"tether/internal/signature"
)

// SignatureExt is the extension of signature files inside a package directory.
const SignatureExt = ".bin"

// PackageSet is the aggregated content of a package directory.
type PackageSet struct {
	Dir   string
	Files []string
	// Digests holds one hash per entry of Files.
	Digests    []Digest
	Signatures signature.List
}

// LoadSignatureDir decodes every *.bin file of dir in name order and
// concatenates their lists. Earlier files win on lookups by name.
func LoadSignatureDir(dir string) (*PackageSet, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, diag.Errorf(diag.MissingResourceFile, "package directory %q does not exist", dir)
		}
		return nil, fmt.Errorf("read package directory: %w", err)
	}
	set := &PackageSet{Dir: dir}
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), SignatureExt) {
			continue
		}
		set.Files = append(set.Files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(set.Files)
	for _, path := range set.Files {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, diag.Errorf(diag.MissingResourceFile, "cannot read package file: %v", err).InFile(path)
		}
		list, err := signature.Decode(data)
		if err != nil {
			var de *diag.Error
			if errors.As(err, &de) {
				return nil, de.InFile(path)
			}
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		set.Digests = append(set.Digests, HashBytes(data))
		set.Signatures = append(set.Signatures, list...)
	}
	return set, nil
}

// Digest combines the hashes of every file in the set.
func (s *PackageSet) Digest() Digest {
	if s == nil {
		return Digest{}
	}
	return Combine(HashBytes([]byte(s.Dir)), s.Digests...)
}
