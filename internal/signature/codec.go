package signature

import (
	"bytes"
	"encoding/binary"

	"tether/internal/diag"
)

// Wire bytes of the signature file format.
const (
	lengthMark      = ':'
	sectionEnd      = '\n'
	offsetMark      = '#'
	memberSeparator = '|'
	entryEnd        = '!'
	offsetWidth     = 4
)

// Encode writes list in the signature file layout:
//
//	name ':' len ... '\n' name ':' type '#' off32be name '|' ... '!' ...
//
// Scalar signatures come first in list order, then the complex ones.
func Encode(list List) []byte {
	var buf bytes.Buffer
	for i := range list {
		s := &list[i]
		if !s.Class.Scalar() {
			continue
		}
		buf.WriteString(s.Name)
		buf.WriteByte(lengthMark)
		buf.WriteByte(s.Length)
	}
	buf.WriteByte(sectionEnd)

	var off [offsetWidth]byte
	for i := range list {
		s := &list[i]
		if s.Class != Complex {
			continue
		}
		buf.WriteString(s.Name)
		buf.WriteByte(lengthMark)
		for j, m := range s.Members {
			buf.WriteString(m.TypeName)
			buf.WriteByte(offsetMark)
			binary.BigEndian.PutUint32(off[:], m.Offset)
			buf.Write(off[:])
			buf.WriteString(m.Name)
			if j < len(s.Members)-1 {
				buf.WriteByte(memberSeparator)
			}
		}
		buf.WriteByte(entryEnd)
	}
	return buf.Bytes()
}

// Decode parses a signature file. Scalar entries decode as Simple: the file
// does not record whether a scalar was fundamental.
//
// Decode does not check offsets for consistency.
func Decode(data []byte) (List, error) {
	list, next, err := decodeScalars(data)
	if err != nil {
		return nil, err
	}
	complexes, err := decodeComplexes(data, next)
	if err != nil {
		return nil, err
	}
	return append(list, complexes...), nil
}

// decodeScalars reads name:len pairs up to the first free newline and
// returns the position right after it.
func decodeScalars(data []byte) (List, int, error) {
	var list List
	name := make([]byte, 0, 16)
	for i := 0; i < len(data); i++ {
		switch b := data[i]; b {
		case lengthMark:
			if i == len(data)-1 {
				return nil, 0, diag.Errorf(diag.MalformedSignatureFile,
					"signature %q at byte %d has its length beyond the end of the file", name, i)
			}
			list = append(list, NewScalar(string(name), Simple, data[i+1]))
			name = name[:0]
			i++
		case sectionEnd:
			return list, i + 1, nil
		default:
			name = append(name, b)
		}
	}
	return list, len(data), nil
}

func decodeComplexes(data []byte, start int) (List, error) {
	var list List
	for i := start; i < len(data); i++ {
		if data[i] != lengthMark {
			continue
		}
		members, end, err := decodeBody(data, i+1)
		if err != nil {
			return nil, err
		}
		list = append(list, Signature{
			Name:    complexName(data, i),
			Class:   Complex,
			Members: members,
		})
		// resume after the entry terminator
		i = end
	}
	return list, nil
}

// complexName scans backwards from the ':' at colon to the previous entry
// or section terminator, so names keep '/' and any other non-marker byte.
func complexName(data []byte, colon int) string {
	l := colon - 1
	for l >= 0 && data[l] != entryEnd && data[l] != sectionEnd {
		l--
	}
	return string(data[l+1 : colon])
}

// decodeBody reads members from pos until '!', a newline or EOF and returns
// the index of the terminator. Offsets are raw binary and may contain any byte.
func decodeBody(data []byte, pos int) ([]Member, int, error) {
	var members []Member
	typeName := make([]byte, 0, 16)
	l := pos
	for l < len(data) {
		b := data[l]
		if b == entryEnd || b == sectionEnd {
			return members, l, nil
		}
		if b != offsetMark {
			typeName = append(typeName, b)
			l++
			continue
		}
		if l+offsetWidth >= len(data) {
			return nil, 0, diag.Errorf(diag.MalformedSignatureFile,
				"member offset at byte %d is truncated (%d of %d bytes present)", l+1, len(data)-l-1, offsetWidth)
		}
		offset := binary.BigEndian.Uint32(data[l+1 : l+1+offsetWidth])
		l += 1 + offsetWidth
		nameStart := l
		for l < len(data) && data[l] != memberSeparator && data[l] != entryEnd && data[l] != sectionEnd {
			l++
		}
		members = append(members, Member{
			TypeName: string(typeName),
			Name:     string(data[nameStart:l]),
			Offset:   offset,
		})
		typeName = typeName[:0]
		if l < len(data) && data[l] == memberSeparator {
			l++
		}
	}
	return members, l, nil
}
