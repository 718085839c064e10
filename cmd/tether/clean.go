package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"tether/internal/project"
)

var cleanCmd = &cobra.Command{
	Use:   "clean [path]",
	Short: "Remove build outputs and the build cache",
	Long:  "Remove the project's output directory and the cache kept below .tether/.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runClean,
}

func runClean(cmd *cobra.Command, args []string) error {
	base := "."
	if len(args) > 0 && args[0] != "" {
		base = args[0]
	}
	root, err := resolveProjectBase(base)
	if err != nil {
		return err
	}
	targets := []string{filepath.Join(root, cacheDirName)}
	manifest, ok, err := project.LoadManifest(root)
	if err != nil {
		return err
	}
	if ok {
		targets = append([]string{manifest.Abs(manifest.Config.Compile.OutDir)}, targets...)
	} else {
		targets = append([]string{filepath.Join(root, "build")}, targets...)
	}

	removed := 0
	for _, dir := range targets {
		info, err := os.Stat(dir)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to stat %q: %w", dir, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("%q is not a directory", dir)
		}
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("failed to remove %q: %w", dir, err)
		}
		removed++
		progressf(cmd, "removed %s\n", relOrAbs(root, dir))
	}
	if removed == 0 {
		progressf(cmd, "nothing to clean\n")
	}
	return nil
}

func relOrAbs(base, path string) string {
	if rel, err := filepath.Rel(base, path); err == nil {
		return rel
	}
	return path
}
