package layout

// Target describes the machine the emitted assembly is for.
//
// Only x86_64 is implemented.
type Target struct {
	Name       string // e.g. "x86_64"
	WordBits   int    // operand width announced in the module header
	PtrSize    int    // bytes
	StackAlign int    // bytes; frames are rounded to this
}

func X86_64() Target {
	return Target{
		Name:       "x86_64",
		WordBits:   64,
		PtrSize:    8,
		StackAlign: 16,
	}
}

// SlotSize is the stack displacement reserved for one local.
func (t Target) SlotSize() int {
	return t.PtrSize
}

// FrameSize rounds a raw stack displacement to the reserved frame size:
// the next StackAlign boundary strictly above displacement.
//
//	0 -> 16, 10 -> 16, 16 -> 32, 20 -> 32
func (t Target) FrameSize(displacement int) int {
	align := t.StackAlign
	if align <= 0 {
		align = 16
	}
	if displacement < 0 {
		displacement = 0
	}
	return align * (displacement/align + 1)
}
