package directive

import "errors"

// ErrResourceNotFound is returned by fetchers for unknown fragment names.
var ErrResourceNotFound = errors.New("resource not found")

// ResourceFetcher resolves an external requirement fragment by name.
type ResourceFetcher interface {
	Fetch(name string) (string, error)
}

// FetcherFunc adapts a function to ResourceFetcher.
type FetcherFunc func(name string) (string, error)

func (f FetcherFunc) Fetch(name string) (string, error) {
	return f(name)
}

// MapFetcher serves fragments from memory.
type MapFetcher map[string]string

func (m MapFetcher) Fetch(name string) (string, error) {
	text, ok := m[name]
	if !ok {
		return "", ErrResourceNotFound
	}
	return text, nil
}
