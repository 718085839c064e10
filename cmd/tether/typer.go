package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tether/internal/atomicfile"
	"tether/internal/diag"
	"tether/internal/observ"
	"tether/internal/signature"
	"tether/internal/trace"
	"tether/internal/typer"
)

var typerCmd = &cobra.Command{
	Use:   "typer",
	Short: "Resolve object definitions into a signature file",
	Long: `Read object definitions, extend the base signatures with them and write
the combined list as a binary signature file.`,
	Args: cobra.NoArgs,
	RunE: runTyper,
}

func init() {
	typerCmd.Flags().String("input", "in.th", "object definition source")
	typerCmd.Flags().String("base", "base.bin", "base signature file (skipped with a warning when absent)")
	typerCmd.Flags().String("type-file", "out.bin", "signature file to write")
	typerCmd.Flags().Bool("show-base-objs", false, "list the base signatures")
	typerCmd.Flags().Bool("show-final-objs", false, "list the final signatures")
	typerCmd.Flags().String("spit-final", "", "also write the final listing to this file")
	typerCmd.Flags().Bool("reject-duplicates", false, "fail on duplicate object or member names")
}

func runTyper(cmd *cobra.Command, _ []string) error {
	input, _ := cmd.Flags().GetString("input")
	basePath, _ := cmd.Flags().GetString("base")
	outPath, _ := cmd.Flags().GetString("type-file")
	showBase, _ := cmd.Flags().GetBool("show-base-objs")
	showFinal, _ := cmd.Flags().GetBool("show-final-objs")
	spitFinal, _ := cmd.Flags().GetString("spit-final")
	rejectDup, _ := cmd.Flags().GetBool("reject-duplicates")

	timer := observ.NewTimer()
	span := trace.Begin(trace.FromContext(cmd.Context()), trace.ScopeDriver, "typer", 0)
	defer span.End("")

	idx := timer.Begin("load base")
	base, err := loadBase(cmd, basePath)
	timer.End(idx, fmt.Sprintf("%d signatures", len(base)))
	if err != nil {
		return err
	}
	if showBase {
		if err := signature.Dump(cmd.OutOrStdout(), base, signature.DumpOptions{Color: useColor(cmd)}); err != nil {
			return err
		}
	}

	progressf(cmd, ">>> Loading user defined object types...\n")
	src, err := os.ReadFile(input)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return diag.Errorf(diag.InvalidInput, "object definition source not found").InFile(input)
		}
		return fmt.Errorf("read %s: %w", input, err)
	}

	idx = timer.Begin("resolve")
	sigs, err := typer.Resolve(string(src), base, typer.Options{RejectDuplicates: rejectDup, File: input})
	timer.End(idx, fmt.Sprintf("%d new", len(sigs)-len(base)))
	if err != nil {
		return err
	}

	if showFinal {
		if err := signature.Dump(cmd.OutOrStdout(), sigs, signature.DumpOptions{Color: useColor(cmd)}); err != nil {
			return err
		}
	}
	if spitFinal != "" {
		if err := writeListing(spitFinal, sigs); err != nil {
			return err
		}
	}

	idx = timer.Begin("write")
	err = signature.WriteFile(outPath, sigs)
	timer.End(idx, outPath)
	if err != nil {
		return fmt.Errorf("write signature file: %w", err)
	}
	progressf(cmd, "wrote %d signatures to %s\n", len(sigs), outPath)
	if wantTimings(cmd) {
		fmt.Fprint(cmd.ErrOrStderr(), timer.Summary())
	}
	return nil
}

// loadBase reads the base signature file. The default file may be absent;
// an explicitly named one must exist.
func loadBase(cmd *cobra.Command, path string) (signature.List, error) {
	progressf(cmd, ">>> Loading base object types...\n")
	list, err := signature.ReadFile(path)
	if err == nil {
		return list, nil
	}
	if errors.Is(err, diag.MissingResourceFile) && !cmd.Flags().Changed("base") {
		warn := diag.NewWarning(diag.MissingResourceFile, "no base signature file found").At(path, 0)
		bag := diag.NewBag(1)
		bag.Add(warn)
		return nil, printDiagnostics(cmd, bag, "pretty")
	}
	return nil, err
}

// writeListing stores the uncoloured listing of sigs at path.
func writeListing(path string, sigs signature.List) error {
	var buf bytes.Buffer
	if err := signature.Dump(&buf, sigs, signature.DumpOptions{}); err != nil {
		return err
	}
	return atomicfile.Write(path, buf.Bytes())
}
