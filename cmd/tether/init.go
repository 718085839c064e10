package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"tether/internal/project"
	"tether/internal/signature"
)

var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Create a new tether project",
	Long:  "Write tether.toml and a small sample project into dir (default: current directory).",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runInit,
}

func init() {
	initCmd.Flags().String("name", "", "package name (default: directory name)")
	initCmd.Flags().Bool("bare", false, "write only tether.toml")
}

const sampleTypes = `object Point {
    int x
    int y
}

object Point/Point3D {
    int z
}
`

// sampleUnit uses NUL as the field separator, so it is assembled in code.
var sampleUnit = strings.Join([]string{
	"#EXTREQ\x00io",
	"#PROC\x00main",
	"#LOCALARR\x00Point/Point3D\x00&points",
	"#LOCALARR\x00int\x00count",
	"#ENDPROC",
	"",
}, "\n")

const sampleExt = "extern printf\nextern malloc\n"

// baseSignatures are the fundamental types every sample project starts from.
func baseSignatures() signature.List {
	return signature.List{
		signature.NewScalar("char", signature.Fundamental, 1),
		signature.NewScalar("short", signature.Fundamental, 2),
		signature.NewScalar("int", signature.Fundamental, 4),
		signature.NewScalar("long", signature.Fundamental, 8),
		signature.NewScalar("ptr", signature.Simple, 8),
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) > 0 && args[0] != "" {
		dir = args[0]
	}
	name, _ := cmd.Flags().GetString("name")
	bare, _ := cmd.Flags().GetBool("bare")

	abs, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return fmt.Errorf("create %q: %w", abs, err)
	}
	if name == "" {
		name = filepath.Base(abs)
	}

	cfg := project.DefaultConfig(name)
	if !bare {
		cfg.Types.Base = "base.bin"
	}
	path, err := project.WriteConfig(abs, cfg)
	if err != nil {
		return err
	}
	progressf(cmd, "created %s\n", relOrAbs(abs, path))
	if bare {
		return nil
	}

	files := []struct {
		rel  string
		data string
	}{
		{"types.th", sampleTypes},
		{"main.itd", sampleUnit},
		{filepath.Join("exts", "io.ext"), sampleExt},
	}
	for _, f := range files {
		if err := writeNewFile(filepath.Join(abs, f.rel), []byte(f.data)); err != nil {
			return err
		}
		progressf(cmd, "created %s\n", f.rel)
	}
	basePath := filepath.Join(abs, "base.bin")
	if _, err := os.Stat(basePath); err == nil {
		return fmt.Errorf("%s already exists", basePath)
	}
	if err := signature.WriteFile(basePath, baseSignatures()); err != nil {
		return err
	}
	progressf(cmd, "created base.bin\n")
	return nil
}

// writeNewFile refuses to overwrite existing files.
func writeNewFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%s already exists", path)
		}
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
