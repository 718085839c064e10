package directive

import (
	"strings"

	"tether/internal/diag"
	"tether/internal/layout"
	"tether/internal/signature"
)

// EntrySymbol is the symbol exported by every module.
const EntrySymbol = "_start"

// Local is a procedure-scoped variable created by LOCALARR.
type Local struct {
	Name     string
	Type     *signature.Signature
	RefLevel int
	IsArray  bool
	// Slot is the frame displacement of the variable's stack slot.
	Slot int
}

// BuildContext is the state threaded through every handler of one
// compilation, in source order. It is not safe for concurrent use.
type BuildContext struct {
	Target   layout.Target
	Types    *layout.Engine
	Fetcher  ResourceFetcher
	Reporter diag.Reporter
	File     string
	// Line is the source line of the directive being handled.
	Line int

	requirements strings.Builder
	text         strings.Builder

	procedure    string
	procOpen     bool
	displacement int
	body         strings.Builder
	locals       []Local

	lenient bool
	// allocates is set once a flushed procedure calls the allocator.
	allocates bool
}

func newBuildContext(target layout.Target, types *layout.Engine, fetcher ResourceFetcher, reporter diag.Reporter, file string) *BuildContext {
	if reporter == nil {
		reporter = diag.NopReporter{}
	}
	bc := &BuildContext{
		Target:   target,
		Types:    types,
		Fetcher:  fetcher,
		Reporter: reporter,
		File:     file,
	}
	bc.requirements.WriteString("global " + EntrySymbol + "\n")
	return bc
}

// Lenient reports whether unknown directives are currently tolerated.
func (bc *BuildContext) Lenient() bool { return bc.lenient }

// Procedure returns the label of the open procedure.
func (bc *BuildContext) Procedure() (string, bool) { return bc.procedure, bc.procOpen }

// Displacement returns the stack bytes reserved so far in the open procedure.
func (bc *BuildContext) Displacement() int { return bc.displacement }

// Locals returns the local table of the open procedure.
func (bc *BuildContext) Locals() []Local { return bc.locals }

// Local returns the local called name in the open procedure.
func (bc *BuildContext) Local(name string) (Local, bool) {
	for _, l := range bc.locals {
		if l.Name == name {
			return l, true
		}
	}
	return Local{}, false
}

func (bc *BuildContext) openProcedure(name string) {
	bc.procedure = name
	bc.procOpen = true
	bc.displacement = 0
	bc.locals = nil
	bc.body.Reset()
}

func (bc *BuildContext) closeProcedure() {
	bc.procOpen = false
	bc.displacement = 0
	bc.locals = nil
	bc.body.Reset()
}

// annotate echoes a source line as a comment into the section being built.
func (bc *BuildContext) annotate(raw []byte) {
	dst := &bc.requirements
	if bc.procOpen {
		dst = &bc.body
	}
	dst.WriteString("; ")
	dst.WriteString(display(raw))
	dst.WriteByte('\n')
}

func (bc *BuildContext) fail(code diag.Code, format string, args ...any) error {
	return diag.Errorf(code, format, args...).InFile(bc.File).AtLine(bc.Line)
}

func (bc *BuildContext) warn(code diag.Code, msg string) {
	bc.Reporter.Report(diag.NewWarning(code, msg).At(bc.File, bc.Line))
}

// assemble renders the finished module.
func (bc *BuildContext) assemble() string {
	var out strings.Builder
	writeModuleHeader(&out, bc.Target)
	out.WriteString(bc.requirements.String())
	if bc.allocates {
		writeAllocExtern(&out, bc.requirements.String())
	}
	writeTextSection(&out)
	out.WriteString(bc.text.String())
	return out.String()
}
