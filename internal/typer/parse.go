// Package typer resolves object definitions into complex signatures.
package typer

import (
	"regexp"
	"strings"
)

var (
	objectPattern = regexp.MustCompile(`(?m)^\s*object\s+([A-Za-z0-9/_]+)\s*\{([^}]*)\}`)
	memberPattern = regexp.MustCompile(`(?m)^\s*([A-Za-z0-9_/]+)\s+([A-Za-z0-9_]+)\s*$`)
)

// Definition is one extracted object block.
type Definition struct {
	Name string
	// Parent is the name before the last '/', empty when unqualified.
	Parent  string
	Members []MemberDecl
	Line    int
}

// MemberDecl is one "<TypeName> <MemberName>" line of a block.
type MemberDecl struct {
	TypeName string
	Name     string
	Line     int
}

// Depth counts the '/' separators in the definition name.
func (d *Definition) Depth() int {
	return strings.Count(d.Name, "/")
}

// ParseDefinitions extracts every object block of source in source order.
func ParseDefinitions(source string) []Definition {
	matches := objectPattern.FindAllStringSubmatchIndex(source, -1)
	defs := make([]Definition, 0, len(matches))
	for _, m := range matches {
		name := source[m[2]:m[3]]
		bodyStart := m[4]
		body := source[m[4]:m[5]]

		def := Definition{
			Name:   name,
			Parent: parentOf(name),
			Line:   lineAt(source, m[2]),
		}
		for _, mm := range memberPattern.FindAllStringSubmatchIndex(body, -1) {
			def.Members = append(def.Members, MemberDecl{
				TypeName: body[mm[2]:mm[3]],
				Name:     body[mm[4]:mm[5]],
				Line:     lineAt(source, bodyStart+mm[2]),
			})
		}
		defs = append(defs, def)
	}
	return defs
}

func parentOf(name string) string {
	if idx := strings.LastIndexByte(name, '/'); idx > 0 {
		return name[:idx]
	}
	return ""
}

func lineAt(source string, offset int) int {
	return strings.Count(source[:offset], "\n") + 1
}
