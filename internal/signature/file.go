package signature

import (
	"errors"
	"fmt"
	"os"

	"tether/internal/atomicfile"
	"tether/internal/diag"
)

// ReadFile loads and decodes a signature file.
func ReadFile(path string) (List, error) {
	// #nosec G304 -- path is provided by the caller
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &diag.Error{Code: diag.MissingResourceFile, Message: "signature file not found", File: path}
		}
		return nil, fmt.Errorf("read signature file %q: %w", path, err)
	}
	list, err := Decode(data)
	if err != nil {
		var de *diag.Error
		if errors.As(err, &de) {
			return nil, de.InFile(path)
		}
		return nil, err
	}
	return list, nil
}

// WriteFile encodes list and replaces path atomically.
func WriteFile(path string, list List) error {
	return atomicfile.Write(path, Encode(list))
}
