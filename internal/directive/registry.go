package directive

import (
	"sort"
	"sync"
)

// Handler executes one directive against the build context.
type Handler interface {
	Run(bc *BuildContext, args []string) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(bc *BuildContext, args []string) error

func (f HandlerFunc) Run(bc *BuildContext, args []string) error {
	return f(bc, args)
}

// Registry maps upper-cased directive names to handlers.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// DefaultRegistry returns a registry holding the built-in directives.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("EXTREQ", extReq{})
	r.Register("BADCI", badCI{})
	r.Register("ENDBADCI", endBadCI{})
	r.Register("PROC", proc{})
	r.Register("LOCALARR", localArr{})
	r.Register("ENDPROC", endProc{})
	return r
}

// Register binds name (normalised to upper case) to h, replacing any previous binding.
func (r *Registry) Register(name string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[normalizeName(name)] = h
}

// Lookup finds the handler for an upper-cased name.
func (r *Registry) Lookup(name string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[name]
	return h, ok
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered directives.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handlers)
}
