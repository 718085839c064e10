package typer

import (
	"sort"

	"tether/internal/diag"
	"tether/internal/layout"
	"tether/internal/signature"
)

// Options tunes resolution.
type Options struct {
	// Target provides the pointer size used for forward-declared types.
	// The zero value means x86_64.
	Target layout.Target
	// RejectDuplicates fails on repeated object names and on repeated member
	// names within one object. Off by default: duplicates are accepted.
	RejectDuplicates bool
	// File is attached to errors.
	File string
}

// Resolve builds complex signatures for every object block of source and
// returns known followed by the new signatures.
//
// Definitions are processed by ascending count of '/' in their names. That
// orders a child after a parent exactly one level up, but is not a full
// topological sort.
func Resolve(source string, known signature.List, opts Options) (signature.List, error) {
	target := opts.Target
	if target.PtrSize == 0 {
		target = layout.X86_64()
	}
	engine := layout.New(target, known.Clone())

	defs := ParseDefinitions(source)
	for i := range defs {
		engine.Declare(defs[i].Name)
	}
	if opts.RejectDuplicates {
		if err := checkDuplicates(known, defs); err != nil {
			return nil, fileError(err, opts.File)
		}
	}

	sort.SliceStable(defs, func(i, j int) bool {
		return defs[i].Depth() < defs[j].Depth()
	})

	for i := range defs {
		sig, err := resolveDefinition(engine, &defs[i])
		if err != nil {
			return nil, fileError(err, opts.File)
		}
		engine.Add(sig)
	}
	return engine.Signatures(), nil
}

func resolveDefinition(engine *layout.Engine, def *Definition) (signature.Signature, error) {
	sig := signature.Signature{
		Name:    def.Name,
		Class:   signature.Complex,
		Members: make([]signature.Member, 0, len(def.Members)),
	}

	if def.Parent != "" {
		if !engine.Available(def.Parent) {
			return sig, diag.Errorf(diag.MissingParentType,
				"no parent type %q is available for object %q", def.Parent, def.Name).AtLine(def.Line)
		}
		if parent, ok := engine.Lookup(def.Parent); ok {
			sig.Members = append(sig.Members, parent.Members...)
		}
	}

	offset := engine.EndOffset(sig.Members)
	for _, m := range def.Members {
		n, ok := engine.ImmediateLength(m.TypeName)
		if !ok {
			return sig, diag.Errorf(diag.MissingMemberType,
				"no type %q for member %q in object %q", m.TypeName, m.Name, def.Name).AtLine(m.Line)
		}
		off, err := layout.Offset(offset)
		if err != nil {
			return sig, err
		}
		sig.Members = append(sig.Members, signature.Member{
			TypeName: m.TypeName,
			Name:     m.Name,
			Offset:   off,
		})
		offset += n
	}
	return sig, nil
}

func checkDuplicates(known signature.List, defs []Definition) error {
	seen := make(map[string]bool, len(known)+len(defs))
	for _, name := range known.Names() {
		seen[name] = true
	}
	for i := range defs {
		def := &defs[i]
		if seen[def.Name] {
			return diag.Errorf(diag.DuplicateName, "object %q is defined more than once", def.Name).AtLine(def.Line)
		}
		seen[def.Name] = true

		members := make(map[string]bool, len(def.Members))
		for _, m := range def.Members {
			if members[m.Name] {
				return diag.Errorf(diag.DuplicateName, "member %q is declared more than once in object %q", m.Name, def.Name).AtLine(m.Line)
			}
			members[m.Name] = true
		}
	}
	return nil
}

func fileError(err error, file string) error {
	if de, ok := err.(*diag.Error); ok && file != "" {
		return de.InFile(file)
	}
	return err
}
