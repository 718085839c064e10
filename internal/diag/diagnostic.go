package diag

// Diagnostic is a single finding tied to a file and (optionally) a line.
type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	File     string
	Line     int // 1-based, 0 when unknown
	Notes    []string
}

func New(sev Severity, code Code, msg string) Diagnostic {
	return Diagnostic{
		Severity: sev,
		Code:     code,
		Message:  msg,
	}
}

func NewWarning(code Code, msg string) Diagnostic {
	return New(SevWarning, code, msg)
}

// At returns a copy of d positioned at file:line.
func (d Diagnostic) At(file string, line int) Diagnostic {
	d.File = file
	d.Line = line
	return d
}

func (d Diagnostic) WithNote(msg string) Diagnostic {
	d.Notes = append(d.Notes, msg)
	return d
}
