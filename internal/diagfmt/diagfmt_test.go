package diagfmt

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tether/internal/diag"
)

func sampleBag(file string) *diag.Bag {
	bag := diag.NewBag(8)
	bag.Add(diag.NewWarning(diag.UnknownInstructionIgnored, "no compiler instruction 'TODO'").At(file, 2))
	bag.Add(diag.New(diag.SevError, diag.MissingResourceFile, "cannot find requirement \"io\"").At(file, 3).WithNote("looked in exts/"))
	return bag
}

func TestPretty(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "main.itd")
	if err := os.WriteFile(file, []byte("#BADCI\n#TODO\n#EXTREQ\x00io\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	err := Pretty(&buf, sampleBag(file), PrettyOpts{BaseDir: dir, ShowContext: true, ShowNotes: true})
	if err != nil {
		t.Fatal(err)
	}
	want := "main.itd:2: WARNING T3002 UnknownInstructionIgnored: no compiler instruction 'TODO'\n" +
		"    2 | #TODO\n" +
		"main.itd:3: ERROR T3003 MissingResourceFile: cannot find requirement \"io\"\n" +
		"    3 | #EXTREQ io\n" +
		"  note: looked in exts/\n"
	if buf.String() != want {
		t.Fatalf("got:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestPretty_NoFile(t *testing.T) {
	var buf bytes.Buffer
	d := diag.New(diag.SevError, diag.InvalidInput, "no input given")
	if err := PrettyOne(&buf, d, PrettyOpts{}); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); got != "ERROR T4001 InvalidInput: no input given\n" {
		t.Fatalf("got %q", got)
	}
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := JSON(&buf, sampleBag("/x/main.itd"), JSONOpts{PathMode: PathModeBasename, Max: 1}); err != nil {
		t.Fatal(err)
	}
	var out DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out.Count != 2 || !out.Truncated || len(out.Diagnostics) != 1 {
		t.Fatalf("out = %+v", out)
	}
	d := out.Diagnostics[0]
	if d.ID != "T3002" || d.Location.File != "main.itd" || d.Location.Line != 2 || d.Severity != "WARNING" {
		t.Fatalf("diagnostic = %+v", d)
	}
	if strings.Contains(buf.String(), "notes") {
		t.Fatal("notes included without IncludeNotes")
	}
}

func TestFormatPath(t *testing.T) {
	if got := formatPath("/a/b/c.itd", PathModeAuto, "/a"); got != filepath.Join("b", "c.itd") {
		t.Errorf("auto = %q", got)
	}
	if got := formatPath("/z/c.itd", PathModeAuto, "/a"); got != "/z/c.itd" {
		t.Errorf("auto outside base = %q", got)
	}
	if _, ok := ParsePathMode("sideways"); ok {
		t.Error("bad mode accepted")
	}
}
