package diag

import (
	"errors"
	"fmt"
)

// Error is the fatal error type raised by every core component.
type Error struct {
	Code    Code
	Message string
	File    string
	Line    int
}

// Errorf builds an *Error with a formatted message.
func Errorf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	prefix := ""
	switch {
	case e.File != "" && e.Line > 0:
		prefix = fmt.Sprintf("%s:%d: ", e.File, e.Line)
	case e.File != "":
		prefix = e.File + ": "
	case e.Line > 0:
		prefix = fmt.Sprintf("line %d: ", e.Line)
	}
	return fmt.Sprintf("%s%s: %s", prefix, e.Code, e.Message)
}

// Is matches either a bare Code or another *Error with the same Code.
func (e *Error) Is(target error) bool {
	if e == nil {
		return false
	}
	switch t := target.(type) {
	case Code:
		return e.Code == t
	case *Error:
		return t != nil && e.Code == t.Code
	}
	return false
}

// AtLine returns a copy of e positioned at line.
func (e *Error) AtLine(line int) *Error {
	if e == nil {
		return nil
	}
	cp := *e
	cp.Line = line
	return &cp
}

// InFile returns a copy of e attributed to file, keeping an existing file name.
func (e *Error) InFile(file string) *Error {
	if e == nil {
		return nil
	}
	cp := *e
	if cp.File == "" {
		cp.File = file
	}
	return &cp
}

// Diagnostic converts the error into an error-severity diagnostic.
func (e *Error) Diagnostic() Diagnostic {
	return Diagnostic{
		Severity: SevError,
		Code:     e.Code,
		Message:  e.Message,
		File:     e.File,
		Line:     e.Line,
	}
}

// CodeOf extracts the Code from the first *Error in err's chain.
func CodeOf(err error) (Code, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de.Code, true
	}
	var c Code
	if errors.As(err, &c) {
		return c, true
	}
	return UnknownCode, false
}

// FromError turns any error into an error diagnostic, keeping the code and
// position of a wrapped *Error.
func FromError(err error) Diagnostic {
	var de *Error
	if errors.As(err, &de) {
		d := de.Diagnostic()
		if msg := err.Error(); msg != de.Error() {
			d.Notes = append(d.Notes, msg)
		}
		return d
	}
	return New(SevError, UnknownCode, err.Error())
}
