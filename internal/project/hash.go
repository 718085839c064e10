package project

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
)

// Digest is a fixed 256-bit content hash.
type Digest [32]byte

// HashBytes hashes raw content.
func HashBytes(data []byte) Digest {
	return Digest(sha256.Sum256(data))
}

// HashFile hashes the content of path.
func HashFile(path string) (Digest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Digest{}, err
	}
	return HashBytes(data), nil
}

// Combine builds an aggregate hash: H(content || dep1 || dep2 ...).
// The order of deps must be deterministic.
func Combine(content Digest, deps ...Digest) Digest {
	h := sha256.New()
	_, _ = h.Write(content[:])
	for _, d := range deps {
		_, _ = h.Write(d[:])
	}
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

// IsZero reports whether d was never set.
func (d Digest) IsZero() bool {
	return d == Digest{}
}

func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// Short returns the first 12 hex digits, for logs.
func (d Digest) Short() string {
	return d.String()[:12]
}
