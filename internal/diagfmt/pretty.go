package diagfmt

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/fatih/color"

	"tether/internal/diag"
)

// Pretty writes diagnostics as
//
//	<path>:<line>: <SEV> <ID> <Name>: <message>
//	   <line> | <source line>
//	  note: <note>
//
// in bag order; call bag.Sort first for stable output.
func Pretty(w io.Writer, bag *diag.Bag, opts PrettyOpts) error {
	if bag == nil {
		return nil
	}
	p := newPrinter(opts)
	bw := bufio.NewWriter(w)
	for _, d := range bag.Items() {
		p.write(bw, d)
	}
	return bw.Flush()
}

// PrettyOne writes a single diagnostic.
func PrettyOne(w io.Writer, d diag.Diagnostic, opts PrettyOpts) error {
	bw := bufio.NewWriter(w)
	newPrinter(opts).write(bw, d)
	return bw.Flush()
}

type printer struct {
	opts    PrettyOpts
	sev     map[diag.Severity]*color.Color
	path    *color.Color
	gutter  *color.Color
	note    *color.Color
	sources map[string][][]byte
}

func newPrinter(opts PrettyOpts) *printer {
	p := &printer{
		opts: opts,
		sev: map[diag.Severity]*color.Color{
			diag.SevInfo:    color.New(color.FgCyan, color.Bold),
			diag.SevWarning: color.New(color.FgYellow, color.Bold),
			diag.SevError:   color.New(color.FgRed, color.Bold),
		},
		path:    color.New(color.Bold),
		gutter:  color.New(color.FgBlue),
		note:    color.New(color.FgGreen),
		sources: make(map[string][][]byte),
	}
	all := []*color.Color{p.path, p.gutter, p.note}
	for _, c := range p.sev {
		all = append(all, c)
	}
	for _, c := range all {
		if opts.Color {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p *printer) write(w io.Writer, d diag.Diagnostic) {
	loc := formatPath(d.File, p.opts.PathMode, p.opts.BaseDir)
	if d.Line > 0 {
		if loc == "" {
			loc = "line " + strconv.Itoa(d.Line)
		} else {
			loc += ":" + strconv.Itoa(d.Line)
		}
	}
	if loc != "" {
		fmt.Fprint(w, p.path.Sprint(loc+":")+" ")
	}
	sevColor, ok := p.sev[d.Severity]
	if !ok {
		sevColor = p.sev[diag.SevError]
	}
	fmt.Fprintf(w, "%s %s %s: %s\n", sevColor.Sprint(d.Severity.String()), d.Code.ID(), d.Code, d.Message)

	if p.opts.ShowContext && d.File != "" && d.Line > 0 {
		if text, ok := p.sourceLine(d.File, d.Line); ok {
			fmt.Fprintf(w, "%s %s\n", p.gutter.Sprintf("%5d |", d.Line), text)
		}
	}
	if p.opts.ShowNotes {
		for _, n := range d.Notes {
			fmt.Fprintf(w, "  %s %s\n", p.note.Sprint("note:"), n)
		}
	}
}

// sourceLine reads line n of path, showing NUL field separators as spaces.
func (p *printer) sourceLine(path string, n int) (string, bool) {
	lines, ok := p.sources[path]
	if !ok {
		data, err := os.ReadFile(path)
		if err == nil {
			lines = bytes.Split(data, []byte{'\n'})
		}
		p.sources[path] = lines
	}
	if n < 1 || n > len(lines) {
		return "", false
	}
	line := bytes.TrimRight(lines[n-1], "\r")
	return string(bytes.ReplaceAll(line, []byte{0}, []byte{' '})), true
}
