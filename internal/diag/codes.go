package diag

import "fmt"

// Code identifies an error kind.
type Code uint16

const (
	UnknownCode Code = 0

	// signature files
	MalformedSignatureFile Code = 1001

	// object definitions
	MissingParentType Code = 2001
	MissingMemberType Code = 2002
	DuplicateName     Code = 2003

	// directive sources
	UnknownInstruction        Code = 3001
	UnknownInstructionIgnored Code = 3002
	MissingResourceFile       Code = 3003

	// driver inputs
	InvalidInput Code = 4001
)

var codeNames = map[Code]string{
	UnknownCode:               "Unknown",
	MalformedSignatureFile:    "MalformedSignatureFile",
	MissingParentType:         "MissingParentType",
	MissingMemberType:         "MissingMemberType",
	DuplicateName:             "DuplicateName",
	UnknownInstruction:        "UnknownInstruction",
	UnknownInstructionIgnored: "UnknownInstructionIgnored",
	MissingResourceFile:       "MissingResourceFile",
	InvalidInput:              "InvalidInput",
}

// ID returns the stable short form, e.g. "T2001".
func (c Code) ID() string {
	return fmt.Sprintf("T%04d", uint16(c))
}

// String returns the symbolic name of the code.
func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return c.ID()
}

// Error lets a bare Code act as a sentinel for errors.Is.
func (c Code) Error() string {
	return c.String()
}
