package layout

import (
	"math"
	"testing"

	"tether/internal/signature"
)

func TestTarget_FrameSize(t *testing.T) {
	tgt := X86_64()
	tests := []struct {
		displacement int
		want         int
	}{
		{0, 16},
		{8, 16},
		{10, 16},
		{15, 16},
		{16, 32},
		{20, 32},
		{24, 32},
		{32, 48},
	}
	for _, tc := range tests {
		if got := tgt.FrameSize(tc.displacement); got != tc.want {
			t.Errorf("FrameSize(%d) = %d, want %d", tc.displacement, got, tc.want)
		}
	}
}

func TestEngine_ImmediateLength(t *testing.T) {
	e := New(X86_64(), signature.List{
		signature.NewScalar("int", signature.Simple, 4),
		signature.NewScalar("int", signature.Simple, 2),
		signature.NewComplex("Point"),
	})
	e.Declare("Later")

	tests := []struct {
		name string
		want int
		ok   bool
	}{
		{"int", 4, true},
		{"Point", 8, true},
		{"Later", 8, true},
		{"nosuch", 0, false},
	}
	for _, tc := range tests {
		got, ok := e.ImmediateLength(tc.name)
		if got != tc.want || ok != tc.ok {
			t.Errorf("ImmediateLength(%q) = (%d, %v), want (%d, %v)", tc.name, got, ok, tc.want, tc.ok)
		}
	}
}

func TestEngine_EndOffset(t *testing.T) {
	e := New(X86_64(), signature.List{
		signature.NewScalar("int", signature.Simple, 4),
		signature.NewScalar("byte", signature.Simple, 1),
	})
	members := []signature.Member{
		{TypeName: "int", Name: "a"},
		{TypeName: "byte", Name: "b", Offset: 4},
		{TypeName: "int", Name: "c", Offset: 5},
	}
	if got := e.EndOffset(members); got != 9 {
		t.Errorf("EndOffset() = %d, want 9", got)
	}
}

func TestEngine_EndOffsetCountsDeclaredAsPointer(t *testing.T) {
	e := New(X86_64(), signature.List{signature.NewScalar("int", signature.Simple, 4)})
	e.Declare("Tree/Leaf")
	members := []signature.Member{
		{TypeName: "Tree/Leaf", Name: "first"},
		{TypeName: "int", Name: "n", Offset: 8},
		{TypeName: "nosuch", Name: "skip", Offset: 12},
	}
	if got := e.EndOffset(members); got != 12 {
		t.Errorf("EndOffset() = %d, want 12", got)
	}
}

func TestOffset_Overflow(t *testing.T) {
	if _, err := Offset(-1); err == nil {
		t.Error("Offset(-1) should fail")
	}
	if _, err := Offset(math.MaxUint32 + 1); err == nil {
		t.Error("Offset(MaxUint32+1) should fail")
	}
	if got, err := Offset(12); err != nil || got != 12 {
		t.Errorf("Offset(12) = %d, %v", got, err)
	}
}
