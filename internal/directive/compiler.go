// Package directive compiles intermediate directive source into assembly text.
package directive

import (
	"errors"

	"tether/internal/diag"
	"tether/internal/layout"
	"tether/internal/signature"
)

// Config configures a Compiler.
type Config struct {
	Signatures signature.List
	Fetcher    ResourceFetcher
	Reporter   diag.Reporter
	// Target defaults to x86_64.
	Target layout.Target
	// Annotate echoes every source line as an assembly comment.
	Annotate bool
	// File names the source in diagnostics.
	File string
	// OnDirective, when set, sees every active line before it is dispatched.
	OnDirective func(Line)
}

// Compiler turns directive source into an assembly module.
type Compiler struct {
	config   Config
	registry *Registry
	types    *layout.Engine
}

// NewCompiler creates a compiler; a nil registry means DefaultRegistry.
func NewCompiler(config Config, registry *Registry) *Compiler {
	if config.Target.PtrSize == 0 {
		config.Target = layout.X86_64()
	}
	if registry == nil {
		registry = DefaultRegistry()
	}
	return &Compiler{
		config:   config,
		registry: registry,
		types:    layout.New(config.Target, config.Signatures),
	}
}

// Compile cleans src and runs every directive in order. Any error aborts the
// run and no output is produced.
func (c *Compiler) Compile(src []byte) (string, error) {
	cleaned, origin := clean(src)
	bc := newBuildContext(c.config.Target, c.types, c.config.Fetcher, c.config.Reporter, c.config.File)

	for _, ln := range splitLines(cleaned, origin) {
		bc.Line = ln.Number
		if c.config.Annotate {
			bc.annotate(ln.Raw)
		}
		if !ln.Active {
			continue
		}
		if c.config.OnDirective != nil {
			c.config.OnDirective(ln)
		}
		h, ok := c.registry.Lookup(ln.Directive)
		if !ok {
			if bc.lenient {
				bc.warn(diag.UnknownInstructionIgnored, "no compiler instruction '"+ln.Directive+"'")
				continue
			}
			return "", bc.fail(diag.UnknownInstruction, "no compiler instruction %q", ln.Directive)
		}
		if err := h.Run(bc, ln.Args); err != nil {
			return "", positioned(err, bc)
		}
	}
	return bc.assemble(), nil
}

// Compile runs the built-in directives over src with the given signatures and fragments.
func Compile(src []byte, known signature.List, fetcher ResourceFetcher) (string, error) {
	return NewCompiler(Config{Signatures: known, Fetcher: fetcher}, nil).Compile(src)
}

// positioned attaches the current line to errors from custom handlers.
func positioned(err error, bc *BuildContext) error {
	var de *diag.Error
	if errors.As(err, &de) && de.Line == 0 {
		return de.InFile(bc.File).AtLine(bc.Line)
	}
	return err
}
