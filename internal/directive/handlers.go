package directive

import (
	"errors"
	"strings"

	"tether/internal/diag"
)

// EXTREQ(name): append an external requirement fragment to the header.
type extReq struct{}

func (extReq) Run(bc *BuildContext, args []string) error {
	if len(args) < 1 || args[0] == "" {
		return bc.fail(diag.InvalidInput, "EXTREQ expects a fragment name")
	}
	name := args[0]
	if bc.Fetcher == nil {
		return bc.fail(diag.MissingResourceFile, "cannot find requirement %q: no fragment source configured", name)
	}
	text, err := bc.Fetcher.Fetch(name)
	if err != nil {
		if errors.Is(err, ErrResourceNotFound) {
			return bc.fail(diag.MissingResourceFile, "cannot find requirement %q", name)
		}
		return bc.fail(diag.MissingResourceFile, "cannot load requirement %q: %v", name, err)
	}
	bc.requirements.WriteString(text)
	if text != "" && !strings.HasSuffix(text, "\n") {
		bc.requirements.WriteString("\n\n")
	}
	return nil
}

// BADCI(): tolerate unknown directives.
type badCI struct{}

func (badCI) Run(bc *BuildContext, _ []string) error {
	bc.lenient = true
	return nil
}

// ENDBADCI(): stop tolerating unknown directives.
type endBadCI struct{}

func (endBadCI) Run(bc *BuildContext, _ []string) error {
	bc.lenient = false
	return nil
}

// PROC(name): open a procedure. Unflushed work of a previous PROC is dropped.
type proc struct{}

func (proc) Run(bc *BuildContext, args []string) error {
	if len(args) < 1 || args[0] == "" {
		return bc.fail(diag.InvalidInput, "PROC expects a procedure name")
	}
	bc.openProcedure(args[0])
	return nil
}

// LOCALARR(type, &name): reserve a stack slot holding a freshly allocated buffer.
// The slot is pointer sized whatever the element type.
type localArr struct{}

func (localArr) Run(bc *BuildContext, args []string) error {
	if len(args) < 2 || args[0] == "" || args[1] == "" {
		return bc.fail(diag.InvalidInput, "LOCALARR expects an element type and a name")
	}
	if !bc.procOpen {
		return bc.fail(diag.InvalidInput, "LOCALARR %q outside of a procedure", args[1])
	}
	typeName, declared := args[0], args[1]
	level := len(declared) - len(strings.TrimLeft(declared, "&"))
	name := strings.ReplaceAll(declared, "&", "")

	sig, ok := bc.Types.Lookup(typeName)
	if !ok {
		return bc.fail(diag.MissingMemberType, "no type %q for local %q in procedure %q", typeName, name, bc.procedure)
	}

	bc.displacement += bc.Target.SlotSize()
	bc.locals = append(bc.locals, Local{
		Name:     name,
		Type:     sig,
		RefLevel: level,
		IsArray:  true,
		Slot:     bc.displacement,
	})
	writeLocalAlloc(&bc.body, bc.displacement)
	return nil
}

// ENDPROC(): flush the open procedure into the text section.
type endProc struct{}

func (endProc) Run(bc *BuildContext, _ []string) error {
	if !bc.procOpen {
		return bc.fail(diag.InvalidInput, "ENDPROC without an open procedure")
	}
	if len(bc.locals) > 0 {
		bc.allocates = true
	}
	writePrologue(&bc.text, bc.procedure, bc.Target.FrameSize(bc.displacement))
	bc.text.WriteString(bc.body.String())
	bc.closeProcedure()
	return nil
}
