package directive

// Clean normalises raw directive source:
//
//   - bytes between single quotes pass through verbatim, quotes included;
//   - outside quotes, ';' starts a comment that runs to the next newline;
//   - outside quotes and comments, whitespace other than newline is dropped;
//   - finally every newline immediately followed by another newline is removed.
//
// Clean is idempotent.
func Clean(src []byte) []byte {
	out, _ := clean(src)
	return out
}

// clean also returns, for every output byte, the 1-based source line it came from.
func clean(src []byte) ([]byte, []int) {
	stripped := make([]byte, 0, len(src))
	origin := make([]int, 0, len(src))

	line := 1
	inLiteral := false
	inComment := false
	for _, b := range src {
		switch {
		case b == '\n':
			inComment = false
			stripped = append(stripped, b)
			origin = append(origin, line)
			line++
			continue
		case inComment:
			continue
		case b == '\'':
			inLiteral = !inLiteral
		case inLiteral:
		case b == ';':
			inComment = true
			continue
		case isSpace(b):
			continue
		}
		stripped = append(stripped, b)
		origin = append(origin, line)
	}

	out := stripped[:0]
	lines := origin[:0]
	for i, b := range stripped {
		if b == '\n' && i+1 < len(stripped) && stripped[i+1] == '\n' {
			continue
		}
		out = append(out, b)
		lines = append(lines, origin[i])
	}
	return out, lines
}

// isSpace matches ASCII whitespace only; bytes of multi-byte runes pass.
func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\r', '\v', '\f':
		return true
	}
	return false
}
