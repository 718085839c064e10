package diag

import "sync"

// Reporter receives diagnostics from a component without coupling it to storage.
type Reporter interface {
	Report(d Diagnostic)
}

// BagReporter writes into a *Bag. Safe for use from several goroutines.
type BagReporter struct {
	mu  sync.Mutex
	Bag *Bag
}

func NewBagReporter(max int) *BagReporter {
	return &BagReporter{Bag: NewBag(max)}
}

func (r *BagReporter) Report(d Diagnostic) {
	if r == nil || r.Bag == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Bag.Add(d)
}

// NopReporter drops everything.
type NopReporter struct{}

func (NopReporter) Report(Diagnostic) {}

// FuncReporter adapts a plain function.
type FuncReporter func(Diagnostic)

func (f FuncReporter) Report(d Diagnostic) {
	if f != nil {
		f(d)
	}
}
