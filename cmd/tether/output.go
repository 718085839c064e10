package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tether/internal/diag"
	"tether/internal/diagfmt"
)

func useColor(cmd *cobra.Command) bool {
	value, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return false
	}
	switch value {
	case "on":
		return true
	case "off":
		return false
	default:
		return isTerminal(os.Stdout)
	}
}

func isQuiet(cmd *cobra.Command) bool {
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	return err == nil && quiet
}

func wantTimings(cmd *cobra.Command) bool {
	timings, err := cmd.Root().PersistentFlags().GetBool("timings")
	return err == nil && timings
}

func maxDiagnostics(cmd *cobra.Command) int {
	n, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil || n <= 0 {
		return 100
	}
	return n
}

// progressf prints a status line unless --quiet is set.
func progressf(cmd *cobra.Command, format string, args ...any) {
	if isQuiet(cmd) {
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}

// printDiagnostics renders warnings collected during a run.
func printDiagnostics(cmd *cobra.Command, bag *diag.Bag, format string) error {
	if bag == nil || bag.Len() == 0 {
		return nil
	}
	bag.Sort()
	bag.Dedup()
	wd, _ := os.Getwd()
	switch format {
	case "json":
		return diagfmt.JSON(cmd.OutOrStdout(), bag, diagfmt.JSONOpts{BaseDir: wd, IncludeNotes: true})
	case "", "pretty":
		return diagfmt.Pretty(cmd.ErrOrStderr(), bag, diagfmt.PrettyOpts{
			Color:       useColor(cmd),
			BaseDir:     wd,
			ShowContext: true,
			ShowNotes:   true,
		})
	default:
		return fmt.Errorf("unknown diagnostics format %q (expected pretty|json)", format)
	}
}

// reportError prints a failed command's error as a diagnostic.
func reportError(cmd *cobra.Command, err error) {
	wd, _ := os.Getwd()
	_ = diagfmt.PrettyOne(cmd.ErrOrStderr(), diag.FromError(err), diagfmt.PrettyOpts{
		Color:       useColor(cmd),
		BaseDir:     wd,
		ShowContext: true,
		ShowNotes:   true,
	})
	dumpTraceRing(cmd)
}
