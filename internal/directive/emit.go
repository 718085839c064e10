package directive

import (
	"fmt"
	"strings"

	"tether/internal/layout"
)

const (
	// localBufferBytes is the size of the buffer allocated for every LOCALARR.
	localBufferBytes = 64
	allocSymbol      = "malloc"
	indent           = "    "
)

func writeModuleHeader(w *strings.Builder, target layout.Target) {
	fmt.Fprintf(w, "bits %d\n", target.WordBits)
}

// writeAllocExtern declares the allocator unless the requirements already do.
func writeAllocExtern(w *strings.Builder, requirements string) {
	decl := "extern " + allocSymbol
	for line := range strings.Lines(requirements) {
		if strings.TrimSpace(line) == decl {
			return
		}
	}
	w.WriteString(decl + "\n")
}

func writeTextSection(w *strings.Builder) {
	w.WriteString("section .text\n")
}

func writePrologue(w *strings.Builder, label string, frame int) {
	fmt.Fprintf(w, "%s:\n", label)
	w.WriteString(indent + "push rbp\n")
	w.WriteString(indent + "mov rbp, rsp\n")
	fmt.Fprintf(w, indent+"sub rsp, %d\n", frame)
}

func writeLocalAlloc(w *strings.Builder, slot int) {
	fmt.Fprintf(w, indent+"mov rdi, %d\n", localBufferBytes)
	w.WriteString(indent + "call " + allocSymbol + "\n")
	fmt.Fprintf(w, indent+"mov qword [rbp-%d], rax\n", slot)
}
