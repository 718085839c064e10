package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"tether/internal/buildpipeline"
	"tether/internal/diag"
	"tether/internal/signature"
)

// execute runs the root command with every flag back at its default, so
// Changed and slice values from an earlier run do not leak into this one.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(t, rootCmd)
	var out bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	err := rootCmd.ExecuteContext(context.Background())
	traceCleanup()
	traceCleanup = func() {}
	return out.String(), err
}

func resetFlags(t *testing.T, cmd *cobra.Command) {
	t.Helper()
	reset := func(f *pflag.Flag) {
		var err error
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			var def []string
			if trimmed := strings.Trim(f.DefValue, "[]"); trimmed != "" {
				def = strings.Split(trimmed, ",")
			}
			err = sv.Replace(def)
		} else {
			err = f.Value.Set(f.DefValue)
		}
		if err != nil {
			t.Fatalf("reset --%s: %v", f.Name, err)
		}
		f.Changed = false
	}
	cmd.PersistentFlags().VisitAll(reset)
	cmd.Flags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(t, sub)
	}
}

func TestParseProgressUI(t *testing.T) {
	cases := []struct {
		in   string
		want progressUI
	}{
		{"", progressAuto},
		{"auto", progressAuto},
		{" ON ", progressOn},
		{"off", progressOff},
	}
	for _, tc := range cases {
		got, err := parseProgressUI(tc.in)
		if err != nil {
			t.Fatalf("parseProgressUI(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("parseProgressUI(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
	if _, err := parseProgressUI("sometimes"); err == nil {
		t.Fatal("expected error for invalid mode")
	}
	if !progressOn.active(os.Stdout) || progressOff.active(os.Stdout) {
		t.Fatal("explicit modes must win over terminal detection")
	}
}

func TestPrintStageTimings(t *testing.T) {
	timings := &buildpipeline.Timings{}
	timings.Set(buildpipeline.StageTypes, 2*time.Millisecond)
	timings.Set(buildpipeline.StageCompile, 500*time.Microsecond)

	var buf bytes.Buffer
	if err := printStageTimings(&buf, timings); err != nil {
		t.Fatal(err)
	}
	want := "typed 2.0 ms\ncompiled 0.5 ms\ntotal 2.5 ms\n"
	if buf.String() != want {
		t.Fatalf("timings = %q, want %q", buf.String(), want)
	}
}

func TestInitThenBuild(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "demo")

	if _, err := execute(t, "init", dir, "--quiet", "--bare=false"); err != nil {
		t.Fatalf("init: %v", err)
	}
	for _, name := range []string{"tether.toml", "types.th", "main.itd", "base.bin", filepath.Join("exts", "io.ext")} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("init did not create %s: %v", name, err)
		}
	}
	if _, err := execute(t, "init", dir, "--quiet", "--bare=false"); err == nil {
		t.Fatal("second init should refuse to overwrite")
	}

	out, err := execute(t, "build", dir, "--quiet=false", "--ui", "off", "--no-cache=false", "--timings=false")
	if err != nil {
		t.Fatalf("build: %v\n%s", err, out)
	}
	if !strings.Contains(out, "from cache") {
		t.Fatalf("build output = %q", out)
	}
	asm, err := os.ReadFile(filepath.Join(dir, "build", "main.asm"))
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"extern printf\n", "main:\n", "sub rsp, 32\n"} {
		if !strings.Contains(string(asm), want) {
			t.Fatalf("main.asm missing %q:\n%s", want, asm)
		}
	}
	types, err := signature.ReadFile(filepath.Join(dir, "build", "types.bin"))
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := types.Lookup("Point/Point3D"); !ok {
		t.Fatalf("types.bin = %v", types.Names())
	}

	out, err = execute(t, "build", dir, "--quiet=false", "--ui", "off", "--no-cache=false", "--timings=false")
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if !strings.Contains(out, "built 1 unit(s), 1 from cache") {
		t.Fatalf("rebuild output = %q", out)
	}

	if _, err := execute(t, "clean", dir, "--quiet"); err != nil {
		t.Fatalf("clean: %v", err)
	}
	for _, gone := range []string{"build", cacheDirName} {
		if _, err := os.Stat(filepath.Join(dir, gone)); !os.IsNotExist(err) {
			t.Fatalf("%s still present after clean", gone)
		}
	}
}

func TestBuild_NoManifest(t *testing.T) {
	_, err := execute(t, "build", t.TempDir(), "--ui", "off", "--quiet")
	if err == nil {
		t.Fatal("expected error without tether.toml")
	}
	if code, ok := diag.CodeOf(err); !ok || code != diag.InvalidInput {
		t.Fatalf("err = %v, want InvalidInput", err)
	}
}

func TestCompileCommand(t *testing.T) {
	dir := t.TempDir()
	sigs := filepath.Join(dir, "types.bin")
	if err := signature.WriteFile(sigs, signature.List{signature.NewScalar("int", signature.Simple, 4)}); err != nil {
		t.Fatal(err)
	}
	src := filepath.Join(dir, "main.itd")
	if err := os.WriteFile(src, []byte("#PROC\x00main\n#LOCALARR\x00int\x00n\n#ENDPROC\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "main.asm")
	cleaned := filepath.Join(dir, "clean.bin")

	if _, err := execute(t, "compile", src, "--quiet", "--out", out, "--sigs", sigs, "--exts", "", "--clean", "--clean-out", cleaned); err != nil {
		t.Fatalf("compile: %v", err)
	}
	asm, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(asm), "main:\n") {
		t.Fatalf("asm = %q", asm)
	}
	if _, err := os.Stat(cleaned); err != nil {
		t.Fatalf("cleaned source not written: %v", err)
	}

	if _, err := execute(t, "compile", "--quiet", "--sigs", sigs); err == nil {
		t.Fatal("expected error without input")
	}
}

// writeTyperInputs writes a base with int and an object source into dir.
func writeTyperInputs(t *testing.T, dir, types string) (base, input string) {
	t.Helper()
	base = filepath.Join(dir, "base.bin")
	if err := signature.WriteFile(base, signature.List{signature.NewScalar("int", signature.Simple, 4)}); err != nil {
		t.Fatal(err)
	}
	input = filepath.Join(dir, "in.th")
	if err := os.WriteFile(input, []byte(types), 0o600); err != nil {
		t.Fatal(err)
	}
	return base, input
}

func TestTyperCommand_DefaultBaseMissingWarns(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	if err := os.WriteFile("in.th", []byte("object Node {\n    Node next\n}\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "typer")
	if err != nil {
		t.Fatalf("typer: %v\n%s", err, out)
	}
	for _, want := range []string{"no base signature file found", "wrote 1 signatures to out.bin"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
	list, err := signature.ReadFile(filepath.Join(dir, "out.bin"))
	if err != nil {
		t.Fatal(err)
	}
	node, ok := list.Lookup("Node")
	if !ok || len(node.Members) != 1 || node.Members[0].Offset != 0 {
		t.Fatalf("out.bin = %+v", list)
	}
}

func TestTyperCommand_ExplicitBaseMissingFails(t *testing.T) {
	dir := t.TempDir()
	_, input := writeTyperInputs(t, dir, "object Node {\n    Node next\n}\n")
	typeFile := filepath.Join(dir, "types.bin")

	_, err := execute(t, "typer", "--quiet", "--input", input, "--base", filepath.Join(dir, "nope.bin"), "--type-file", typeFile)
	if !errors.Is(err, diag.MissingResourceFile) {
		t.Fatalf("err = %v, want MissingResourceFile", err)
	}
	if _, err := os.Stat(typeFile); !os.IsNotExist(err) {
		t.Fatalf("type file written after failure: %v", err)
	}
}

func TestTyperCommand_Listings(t *testing.T) {
	dir := t.TempDir()
	base, input := writeTyperInputs(t, dir, sampleTypes)
	typeFile := filepath.Join(dir, "types.bin")
	listing := filepath.Join(dir, "final.txt")

	out, err := execute(t, "typer", "--input", input, "--base", base, "--type-file", typeFile,
		"--show-base-objs", "--show-final-objs", "--spit-final", listing)
	if err != nil {
		t.Fatalf("typer: %v\n%s", err, out)
	}
	baseAt := strings.Index(out, "[SIMPLE] -- int (4)")
	userAt := strings.Index(out, ">>> Loading user defined object types...")
	if baseAt < 0 || userAt < baseAt {
		t.Fatalf("base listing missing or misplaced:\n%s", out)
	}
	finalListing := "[SIMPLE] -- int (4)\n" +
		"[COMPLEX] -- Point\n> +0: int (x)\n> +4: int (y)\n" +
		"[COMPLEX] -- Point/Point3D\n> +0: int (x)\n> +4: int (y)\n> +8: int (z)\n"
	if !strings.Contains(out[userAt:], finalListing) {
		t.Fatalf("final listing missing:\n%s", out)
	}
	spit, err := os.ReadFile(listing)
	if err != nil {
		t.Fatal(err)
	}
	if string(spit) != finalListing {
		t.Fatalf("--spit-final wrote %q, want %q", spit, finalListing)
	}

	out, err = execute(t, "sigs", typeFile, "--fundamentals=false")
	if err != nil {
		t.Fatalf("sigs: %v", err)
	}
	if out != finalListing {
		t.Fatalf("sigs = %q, want %q", out, finalListing)
	}

	// The slashed name survives the file and is usable by the compiler.
	src := filepath.Join(dir, "main.itd")
	if err := os.WriteFile(src, []byte("#PROC\x00main\n#LOCALARR\x00Point/Point3D\x00p\n#ENDPROC\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	asmPath := filepath.Join(dir, "main.asm")
	if _, err := execute(t, "compile", src, "--quiet", "--out", asmPath, "--sigs", typeFile); err != nil {
		t.Fatalf("compile: %v", err)
	}
	asm, err := os.ReadFile(asmPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(asm), "main:\n") {
		t.Fatalf("asm = %q", asm)
	}
}

func TestTyperCommand_RejectDuplicates(t *testing.T) {
	dir := t.TempDir()
	base, input := writeTyperInputs(t, dir, "object P {\n    int x\n}\nobject P {\n    int y\n}\n")
	typeFile := filepath.Join(dir, "types.bin")

	_, err := execute(t, "typer", "--quiet", "--input", input, "--base", base, "--type-file", typeFile, "--reject-duplicates")
	if !errors.Is(err, diag.DuplicateName) {
		t.Fatalf("err = %v, want DuplicateName", err)
	}
	if _, err := os.Stat(typeFile); !os.IsNotExist(err) {
		t.Fatalf("type file written after failure: %v", err)
	}

	if _, err := execute(t, "typer", "--quiet", "--input", input, "--base", base, "--type-file", typeFile); err != nil {
		t.Fatalf("duplicates are accepted by default: %v", err)
	}
	if _, err := os.Stat(typeFile); err != nil {
		t.Fatal(err)
	}
}

func TestTyperCommand_FailureLeavesNoTypeFile(t *testing.T) {
	dir := t.TempDir()
	base, input := writeTyperInputs(t, dir, "object P {\n    Missing m\n}\n")
	typeFile := filepath.Join(dir, "types.bin")

	_, err := execute(t, "typer", "--quiet", "--input", input, "--base", base, "--type-file", typeFile)
	if !errors.Is(err, diag.MissingMemberType) {
		t.Fatalf("err = %v, want MissingMemberType", err)
	}
	if _, err := os.Stat(typeFile); !os.IsNotExist(err) {
		t.Fatalf("type file written after failure: %v", err)
	}
}

func TestSigsCommand_SeveralFiles(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.bin")
	b := filepath.Join(dir, "b.bin")
	if err := signature.WriteFile(a, signature.List{signature.NewScalar("int", signature.Simple, 4)}); err != nil {
		t.Fatal(err)
	}
	if err := signature.WriteFile(b, signature.List{signature.NewScalar("byte", signature.Simple, 1)}); err != nil {
		t.Fatal(err)
	}
	out, err := execute(t, "sigs", a, b)
	if err != nil {
		t.Fatal(err)
	}
	want := a + ":\n[SIMPLE] -- int (4)\n\n" + b + ":\n[SIMPLE] -- byte (1)\n"
	if out != want {
		t.Fatalf("sigs = %q, want %q", out, want)
	}

	if _, err := execute(t, "sigs", filepath.Join(dir, "missing.bin")); !errors.Is(err, diag.MissingResourceFile) {
		t.Fatalf("err = %v, want MissingResourceFile", err)
	}
}

func TestVersionJSON(t *testing.T) {
	out, err := execute(t, "version", "--format", "json")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `"tool": "tether"`) {
		t.Fatalf("version output = %q", out)
	}
	versionFormat = "pretty"
}
