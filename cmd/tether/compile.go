package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tether/internal/atomicfile"
	"tether/internal/diag"
	"tether/internal/directive"
	"tether/internal/observ"
	"tether/internal/project"
	"tether/internal/signature"
	"tether/internal/trace"
)

var compileCmd = &cobra.Command{
	Use:   "compile [flags] <input.itd>",
	Short: "Compile one directive source into assembly",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCompile,
}

func init() {
	compileCmd.Flags().String("out", "out.asm", "assembly output file")
	compileCmd.Flags().Bool("clean", false, "also write the cleaned source")
	compileCmd.Flags().String("clean-out", "clean.bin", "cleaned source file written by --clean")
	compileCmd.Flags().StringSlice("sigs", []string{"out.bin"}, "signature files to load (missing defaults are skipped)")
	compileCmd.Flags().String("pkgs", "", "directory of package signature files")
	compileCmd.Flags().String("exts", "exts", "directory of EXTREQ fragments")
	compileCmd.Flags().Bool("annotate", false, "echo source lines as assembly comments")
	compileCmd.Flags().String("format", "pretty", "diagnostics format (pretty|json)")
}

func runCompile(cmd *cobra.Command, args []string) error {
	if len(args) == 0 || args[0] == "" {
		return diag.Errorf(diag.InvalidInput, "no input file specified")
	}
	input := args[0]
	outPath, _ := cmd.Flags().GetString("out")
	writeClean, _ := cmd.Flags().GetBool("clean")
	cleanOut, _ := cmd.Flags().GetString("clean-out")
	sigPaths, _ := cmd.Flags().GetStringSlice("sigs")
	pkgs, _ := cmd.Flags().GetString("pkgs")
	exts, _ := cmd.Flags().GetString("exts")
	annotate, _ := cmd.Flags().GetBool("annotate")
	format, _ := cmd.Flags().GetString("format")

	tracer := trace.FromContext(cmd.Context())
	span := trace.Begin(tracer, trace.ScopeDriver, "compile", 0)
	defer span.End("")
	timer := observ.NewTimer()

	src, err := os.ReadFile(input)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return diag.Errorf(diag.InvalidInput, "input file not found").InFile(input)
		}
		return fmt.Errorf("read %s: %w", input, err)
	}
	progressf(cmd, "Loaded %d bytes of '%s'\n", len(src), input)

	if writeClean {
		if err := atomicfile.Write(cleanOut, directive.Clean(src)); err != nil {
			return fmt.Errorf("write cleaned source: %w", err)
		}
	}

	idx := timer.Begin("signatures")
	sigs, err := loadSignatures(cmd, sigPaths, pkgs)
	timer.End(idx, fmt.Sprintf("%d signatures", len(sigs)))
	if err != nil {
		return err
	}

	var fetcher directive.ResourceFetcher
	if exts != "" {
		fetcher = project.ExtFetcher{Dir: exts}
	}
	rep := diag.NewBagReporter(maxDiagnostics(cmd))
	compiler := directive.NewCompiler(directive.Config{
		Signatures: sigs,
		Fetcher:    fetcher,
		Reporter:   rep,
		Annotate:   annotate,
		File:       input,
		OnDirective: func(ln directive.Line) {
			trace.Point(tracer, trace.ScopeDirective, ln.Directive, fmt.Sprintf("line %d", ln.Number), span.ID())
		},
	}, nil)

	idx = timer.Begin("compile")
	asm, err := compiler.Compile(src)
	timer.End(idx, input)
	if printErr := printDiagnostics(cmd, rep.Bag, format); printErr != nil {
		return printErr
	}
	if err != nil {
		return err
	}

	if err := atomicfile.Write(outPath, []byte(asm)); err != nil {
		return fmt.Errorf("write %s: %w", outPath, err)
	}
	progressf(cmd, "wrote %s\n", outPath)
	if wantTimings(cmd) {
		fmt.Fprint(cmd.ErrOrStderr(), timer.Summary())
	}
	return nil
}

// loadSignatures merges the given signature files and package directory.
// Files named only by the flag default may be missing.
func loadSignatures(cmd *cobra.Command, paths []string, pkgs string) (signature.List, error) {
	explicit := cmd.Flags().Changed("sigs")
	var lists []signature.List
	for _, path := range paths {
		list, err := signature.ReadFile(path)
		if err != nil {
			if !explicit && errors.Is(err, diag.MissingResourceFile) {
				continue
			}
			return nil, err
		}
		lists = append(lists, list)
	}
	if pkgs != "" {
		set, err := project.LoadSignatureDir(pkgs)
		if err != nil {
			return nil, err
		}
		lists = append(lists, set.Signatures)
	}
	return signature.Merge(lists...), nil
}
