package directive

import (
	"bytes"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	lineSeparator  = '\n'
	fieldSeparator = 0x00
	directiveMark  = '#'
	literalQuote   = '\''
)

// Line is one non-empty line of cleaned directive source.
type Line struct {
	// Number is the 1-based line in the original source, or in the cleaned
	// text when the origin is unknown.
	Number int
	// Active is set for '#' lines; only those dispatch to a handler.
	Active bool
	// Directive is the upper-cased name without '#'. Empty for inert lines.
	Directive string
	Args      []string
	Raw       []byte
}

// SplitLines splits cleaned source into lines and NUL-separated fields.
func SplitLines(cleaned []byte) []Line {
	return splitLines(cleaned, nil)
}

func splitLines(cleaned []byte, origin []int) []Line {
	var lines []Line
	start := 0
	ordinal := 1
	for start <= len(cleaned) {
		end := bytes.IndexByte(cleaned[start:], lineSeparator)
		if end < 0 {
			end = len(cleaned)
		} else {
			end += start
		}
		raw := cleaned[start:end]
		if len(raw) > 0 {
			number := ordinal
			if start < len(origin) {
				number = origin[start]
			}
			lines = append(lines, parseLine(raw, number))
		}
		ordinal++
		start = end + 1
	}
	return lines
}

func parseLine(raw []byte, number int) Line {
	parts := bytes.Split(raw, []byte{fieldSeparator})
	ln := Line{Number: number, Raw: raw}
	// Quotes carry no data, so a quoted '#' still marks a directive.
	head := unquote(parts[0])
	if len(head) == 0 || head[0] != directiveMark {
		return ln
	}
	ln.Active = true
	ln.Directive = normalizeName(head[1:])
	ln.Args = make([]string, 0, len(parts)-1)
	for _, p := range parts[1:] {
		ln.Args = append(ln.Args, unquote(p))
	}
	return ln
}

// unquote drops literal delimiters; they carry no data of their own.
func unquote(field []byte) string {
	return string(bytes.ReplaceAll(field, []byte{literalQuote}, nil))
}

func normalizeName(name string) string {
	// Casers keep state, so one is created per call.
	return cases.Upper(language.Und).String(name)
}

// display renders a raw line for comments, showing field separators as spaces.
func display(raw []byte) string {
	return strings.ReplaceAll(string(raw), string(rune(fieldSeparator)), " ")
}
