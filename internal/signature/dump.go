package signature

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// DumpOptions controls Dump output.
type DumpOptions struct {
	Color bool
	// Fundamentals includes fundamental signatures, which the classic listing omits.
	Fundamentals bool
}

// Dump writes a human readable listing of list:
//
//	[SIMPLE] -- int (4)
//	[COMPLEX] -- Point
//	> +0: int (x)
func Dump(w io.Writer, list List, opts DumpOptions) error {
	tag := func(c *color.Color, s string) string {
		if !opts.Color {
			return s
		}
		return c.Sprint(s)
	}
	scalarColor := color.New(color.FgGreen, color.Bold)
	complexColor := color.New(color.FgCyan, color.Bold)
	offsetColor := color.New(color.FgYellow)
	if opts.Color {
		scalarColor.EnableColor()
		complexColor.EnableColor()
		offsetColor.EnableColor()
	}

	for i := range list {
		s := &list[i]
		var err error
		switch s.Class {
		case Fundamental:
			if !opts.Fundamentals {
				continue
			}
			_, err = fmt.Fprintf(w, "%s -- %s (%d)\n", tag(scalarColor, "[FUNDAMENTAL]"), s.Name, s.ImmediateLength())
		case Simple:
			_, err = fmt.Fprintf(w, "%s -- %s (%d)\n", tag(scalarColor, "[SIMPLE]"), s.Name, s.ImmediateLength())
		case Complex:
			if _, err = fmt.Fprintf(w, "%s -- %s\n", tag(complexColor, "[COMPLEX]"), s.Name); err != nil {
				return err
			}
			for _, m := range s.Members {
				off := tag(offsetColor, fmt.Sprintf("+%d", m.Offset))
				if _, err = fmt.Fprintf(w, "> %s: %s (%s)\n", off, m.TypeName, m.Name); err != nil {
					return err
				}
			}
		}
		if err != nil {
			return err
		}
	}
	return nil
}
