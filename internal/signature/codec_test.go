package signature

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"tether/internal/diag"
)

func sameList(t *testing.T, got, want List) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d (got %+v)", len(got), len(want), got)
	}
	for i := range want {
		g, w := got[i], want[i]
		if g.Name != w.Name || g.Class != w.Class || g.ImmediateLength() != w.ImmediateLength() {
			t.Errorf("[%d] = %s/%s/%d, want %s/%s/%d", i, g.Name, g.Class, g.ImmediateLength(), w.Name, w.Class, w.ImmediateLength())
		}
		if len(g.Members) != len(w.Members) {
			t.Errorf("[%d] %s: %d members, want %d", i, w.Name, len(g.Members), len(w.Members))
			continue
		}
		for j := range w.Members {
			if g.Members[j] != w.Members[j] {
				t.Errorf("[%d] %s member %d = %+v, want %+v", i, w.Name, j, g.Members[j], w.Members[j])
			}
		}
	}
}

func TestEncode_ByteLayout(t *testing.T) {
	list := List{
		NewScalar("int", Simple, 4),
		NewScalar("char", Fundamental, 1),
		NewComplex("Point",
			Member{TypeName: "int", Name: "x", Offset: 0},
			Member{TypeName: "int", Name: "y", Offset: 4},
		),
		NewComplex("Empty"),
	}

	want := []byte("int:\x04char:\x01\n" +
		"Point:int#\x00\x00\x00\x00x|int#\x00\x00\x00\x04y!" +
		"Empty:!")
	got := Encode(list)
	if !bytes.Equal(got, want) {
		t.Errorf("Encode() = %q, want %q", got, want)
	}
}

func TestEncode_EmptyList(t *testing.T) {
	if got := Encode(nil); !bytes.Equal(got, []byte{'\n'}) {
		t.Errorf("Encode(nil) = %q, want a single newline", got)
	}
}

func TestRoundTrip(t *testing.T) {
	list := List{
		NewScalar("int", Simple, 4),
		NewScalar("byte", Simple, 1),
		NewScalar("void", Simple, 0),
		NewScalar("wide_255", Simple, 255),
		NewScalar("nl", Simple, '\n'), // length byte equal to the section terminator
		NewComplex("Point",
			Member{TypeName: "int", Name: "x", Offset: 0},
			Member{TypeName: "int", Name: "y", Offset: 4},
		),
		NewComplex("Point3D",
			Member{TypeName: "int", Name: "x", Offset: 0},
			Member{TypeName: "int", Name: "y", Offset: 4},
			Member{TypeName: "int", Name: "z", Offset: 8},
		),
		NewComplex("Node_1",
			Member{TypeName: "Node_1", Name: "next", Offset: 0},
			Member{TypeName: "int", Name: "value", Offset: 0x01020304},
		),
		NewComplex("Hollow"),
	}

	got, err := Decode(Encode(list))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	sameList(t, got, list)
}

func TestRoundTrip_OffsetsContainingMarkerBytes(t *testing.T) {
	offsets := []uint32{'\n', '!', '|', '#', ':', 0x0A21_7C23}
	members := make([]Member, 0, len(offsets))
	for i, off := range offsets {
		members = append(members, Member{TypeName: "int", Name: string(rune('a' + i)), Offset: off})
	}
	list := List{NewComplex("Odd", members...), NewComplex("After", Member{TypeName: "int", Name: "k", Offset: 3})}

	got, err := Decode(Encode(list))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	sameList(t, got, list)
}

func TestDecode_LengthByteMissing(t *testing.T) {
	_, err := Decode([]byte("int:\x04char:"))
	if !errors.Is(err, diag.MalformedSignatureFile) {
		t.Fatalf("Decode() error = %v, want MalformedSignatureFile", err)
	}
}

func TestDecode_TruncatedOffset(t *testing.T) {
	_, err := Decode([]byte("\nPoint:int#\x00\x00"))
	if !errors.Is(err, diag.MalformedSignatureFile) {
		t.Fatalf("Decode() error = %v, want MalformedSignatureFile", err)
	}
}

func TestDecode_NoSectionTerminator(t *testing.T) {
	got, err := Decode([]byte("int:\x04"))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	sameList(t, got, List{NewScalar("int", Simple, 4)})
}

func TestDecode_QualifiedComplexName(t *testing.T) {
	got, err := Decode([]byte("int:\x04\nPoint/Point3D:int#\x00\x00\x00\x08z!"))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(got) != 2 || got[1].Name != "Point/Point3D" {
		t.Fatalf("Decode() = %+v, want complex named Point/Point3D", got)
	}
	if got[1].Members[0] != (Member{TypeName: "int", Name: "z", Offset: 8}) {
		t.Errorf("member = %+v", got[1].Members[0])
	}
}

func TestRoundTrip_QualifiedAndPunctuatedNames(t *testing.T) {
	list := List{
		NewScalar("int", Simple, 4),
		NewComplex("Point",
			Member{TypeName: "int", Name: "x", Offset: 0},
			Member{TypeName: "int", Name: "y", Offset: 4},
		),
		NewComplex("Point/Point3D",
			Member{TypeName: "int", Name: "x", Offset: 0},
			Member{TypeName: "int", Name: "y", Offset: 4},
			Member{TypeName: "int", Name: "z", Offset: 8},
		),
		NewComplex("a-b", Member{TypeName: "Point/Point3D", Name: "p", Offset: 0}),
		NewComplex("Shape/Poly/Tri"),
	}
	got, err := Decode(Encode(list))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	sameList(t, got, list)
}

func TestDecode_EntryEndsAtNewline(t *testing.T) {
	got, err := Decode([]byte("\nA:int#\x00\x00\x00\x00a\nB:int#\x00\x00\x00\x00b!"))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(got) != 2 || got[0].Name != "A" || got[1].Name != "B" {
		t.Fatalf("Decode() = %+v, want A and B", got)
	}
}

func TestFile_WriteRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sigs", "out.bin")
	list := List{NewScalar("int", Simple, 4), NewComplex("P", Member{TypeName: "int", Name: "x"})}
	if err := WriteFile(path, list); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	sameList(t, got, list)
}

func TestReadFile_Missing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "nope.bin"))
	if !errors.Is(err, diag.MissingResourceFile) {
		t.Fatalf("ReadFile() error = %v, want MissingResourceFile", err)
	}
}

func TestDump(t *testing.T) {
	list := List{
		NewScalar("bool", Fundamental, 1),
		NewScalar("int", Simple, 4),
		NewComplex("Point", Member{TypeName: "int", Name: "x", Offset: 0}, Member{TypeName: "int", Name: "y", Offset: 4}),
	}
	var buf bytes.Buffer
	if err := Dump(&buf, list, DumpOptions{}); err != nil {
		t.Fatalf("Dump: %v", err)
	}
	want := "[SIMPLE] -- int (4)\n[COMPLEX] -- Point\n> +0: int (x)\n> +4: int (y)\n"
	if buf.String() != want {
		t.Errorf("Dump() = %q, want %q", buf.String(), want)
	}

	buf.Reset()
	if err := Dump(&buf, list, DumpOptions{Fundamentals: true}); err != nil {
		t.Fatalf("Dump: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "[FUNDAMENTAL] -- bool (1)\n") {
		t.Errorf("Dump(Fundamentals) = %q", buf.String())
	}
}
