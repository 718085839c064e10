package directive

import (
	"bytes"
	"testing"
)

const maxFuzzInput = 1 << 16 // 64 KiB

func FuzzClean(f *testing.F) {
	for _, seed := range []string{
		"",
		"  a 'b c' ; d\n\n\ne",
		"#EXTREQ\x00'std io'\n\n;x\n#PROC\x00main",
		"'unterminated ; literal\n\n",
		"é à\t\r\v\f\n",
		"#PROC\x00main\n#LOCALARR\x00int\x00&&buf\n#ENDPROC\n",
	} {
		f.Add([]byte(seed))
	}
	f.Fuzz(func(t *testing.T, input []byte) {
		if len(input) > maxFuzzInput {
			input = input[:maxFuzzInput]
		}
		once, origin := clean(input)
		if len(origin) != len(once) {
			t.Fatalf("origin has %d entries for %d bytes", len(origin), len(once))
		}
		twice := Clean(once)
		if !bytes.Equal(once, twice) {
			t.Fatalf("Clean is not idempotent:\n once  %q\n twice %q", once, twice)
		}
		if bytes.Contains(once, []byte("\n\n")) {
			t.Fatalf("consecutive newlines survived: %q", once)
		}
		// dispatching must not panic whatever the bytes
		_, _ = NewCompiler(Config{Signatures: knownTypes(), Fetcher: MapFetcher{}}, nil).Compile(input)
	})
}
