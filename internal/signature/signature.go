// Package signature models tether type signatures and their binary encoding.
package signature

// Classification tells how a type is held.
//
// Fundamental and simple types are scalar-like: they are held directly and
// occupy an explicit number of bytes (0–255). Complex types are held by
// reference; their immediate value is a pointer, and their members live at
// computed offsets in memory.
type Classification uint8

const (
	Fundamental Classification = iota
	Simple
	Complex
)

func (c Classification) String() string {
	switch c {
	case Fundamental:
		return "fundamental"
	case Simple:
		return "simple"
	case Complex:
		return "complex"
	}
	return "unknown"
}

// Scalar reports whether the classification stores an explicit length.
func (c Classification) Scalar() bool {
	return c == Fundamental || c == Simple
}

// ComplexImmediateLength is the size of a complex value held in a register or stack slot.
const ComplexImmediateLength = 8

// Member is one (type, name, offset) entry of a complex signature.
type Member struct {
	TypeName string
	Name     string
	Offset   uint32
}

// Signature is a named type descriptor.
type Signature struct {
	Name  string
	Class Classification
	// Length is the stored immediate length of scalar-like signatures.
	// It is ignored for complex signatures.
	Length  uint8
	Members []Member
}

// NewScalar creates a fundamental or simple signature.
func NewScalar(name string, class Classification, length uint8) Signature {
	return Signature{Name: name, Class: class, Length: length}
}

// NewComplex creates a complex signature owning a copy of members.
func NewComplex(name string, members ...Member) Signature {
	return Signature{
		Name:    name,
		Class:   Complex,
		Members: append([]Member(nil), members...),
	}
}

// ImmediateLength returns the number of bytes a value of this type occupies
// when held directly.
func (s *Signature) ImmediateLength() int {
	if s.Class == Complex {
		return ComplexImmediateLength
	}
	return int(s.Length)
}

// Member returns the first member called name.
func (s *Signature) Member(name string) (Member, bool) {
	for _, m := range s.Members {
		if m.Name == name {
			return m, true
		}
	}
	return Member{}, false
}
