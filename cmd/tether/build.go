package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"tether/internal/buildpipeline"
	"tether/internal/cache"
	"tether/internal/diag"
	"tether/internal/project"
)

// cacheDirName is the per-project cache location below the project root.
const cacheDirName = ".tether/cache"

var buildCmd = &cobra.Command{
	Use:   "build [flags] [path]",
	Short: "Build a tether project",
	Long:  "Resolve types and compile every unit of the project described by tether.toml.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runBuild,
}

func init() {
	buildCmd.Flags().String("ui", "auto", "progress UI (auto|on|off)")
	buildCmd.Flags().Int("jobs", 0, "parallel unit compilations (0 = manifest or GOMAXPROCS)")
	buildCmd.Flags().Bool("no-cache", false, "ignore and do not update the build cache")
	buildCmd.Flags().String("format", "pretty", "diagnostics format (pretty|json)")
}

func runBuild(cmd *cobra.Command, args []string) error {
	uiValue, err := cmd.Flags().GetString("ui")
	if err != nil {
		return err
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return err
	}
	noCache, err := cmd.Flags().GetBool("no-cache")
	if err != nil {
		return err
	}
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	ui, err := parseProgressUI(uiValue)
	if err != nil {
		return err
	}

	start := "."
	if len(args) > 0 && args[0] != "" {
		start = args[0]
	}
	manifest, ok, err := project.LoadManifest(start)
	if err != nil {
		return err
	}
	if !ok {
		return diag.Errorf(diag.InvalidInput, "no %s found in %s or any parent directory", project.ManifestName, start)
	}

	req, err := buildpipeline.RequestFromManifest(manifest)
	if err != nil {
		return err
	}
	if len(req.Units) == 0 {
		progressf(cmd, "no units matched %v\n", manifest.Config.Compile.Units)
	}
	if jobs > 0 {
		req.Jobs = jobs
	}
	if manifest.Config.Build.Cache && !noCache {
		dc, err := cache.OpenAt(filepath.Join(manifest.Root, cacheDirName))
		if err != nil {
			return fmt.Errorf("open build cache: %w", err)
		}
		req.Cache = dc
	}
	rep := diag.NewBagReporter(maxDiagnostics(cmd))
	req.Reporter = rep

	title := fmt.Sprintf("Building %s", manifest.Config.Package.Name)
	var result buildpipeline.BuildResult
	if ui.active(os.Stdout) && !isQuiet(cmd) {
		result, err = runBuildWithUI(cmd.Context(), title, manifest.Root, req)
	} else {
		req.Progress = plainProgress(cmd, manifest.Root)
		result, err = buildpipeline.Build(cmd.Context(), req)
	}
	if printErr := printDiagnostics(cmd, rep.Bag, format); printErr != nil {
		return printErr
	}
	if err != nil {
		return err
	}

	cached := 0
	for _, u := range result.Units {
		if u.Cached {
			cached++
		}
	}
	progressf(cmd, "built %d unit(s), %d from cache\n", len(result.Units), cached)
	if wantTimings(cmd) {
		return printStageTimings(cmd.OutOrStdout(), result.Timings)
	}
	return nil
}

// progressUI is the --ui setting. The zero value follows the terminal.
type progressUI int

const (
	progressAuto progressUI = iota
	progressOn
	progressOff
)

var progressUINames = map[string]progressUI{
	"":     progressAuto,
	"auto": progressAuto,
	"on":   progressOn,
	"off":  progressOff,
}

func parseProgressUI(value string) (progressUI, error) {
	ui, ok := progressUINames[strings.ToLower(strings.TrimSpace(value))]
	if !ok {
		return progressAuto, fmt.Errorf("invalid --ui value %q (expected auto|on|off)", value)
	}
	return ui, nil
}

// active reports whether the bubbletea progress view should drive out.
func (ui progressUI) active(out *os.File) bool {
	if ui == progressAuto {
		return isTerminal(out)
	}
	return ui == progressOn
}

// plainProgress prints one line per finished unit when the TUI is off.
func plainProgress(cmd *cobra.Command, root string) buildpipeline.ProgressSink {
	if isQuiet(cmd) {
		return nil
	}
	out := cmd.OutOrStdout()
	return buildpipeline.FuncSink(func(evt buildpipeline.Event) {
		if evt.File == "" {
			if evt.Status == buildpipeline.StatusError && evt.Err != nil {
				fmt.Fprintf(out, "%-10s failed\n", evt.Stage)
			}
			return
		}
		name := evt.File
		if rel, err := filepath.Rel(root, evt.File); err == nil {
			name = rel
		}
		switch evt.Status {
		case buildpipeline.StatusDone:
			fmt.Fprintf(out, "%-10s %s (%s)\n", "compiled", name, evt.Elapsed.Round(time.Microsecond))
		case buildpipeline.StatusCached:
			fmt.Fprintf(out, "%-10s %s\n", "cached", name)
		case buildpipeline.StatusError:
			fmt.Fprintf(out, "%-10s %s\n", "failed", name)
		}
	})
}

// resolveProjectBase returns the project root for path, or path itself
// when no manifest is found.
func resolveProjectBase(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", diag.Errorf(diag.InvalidInput, "path not found").InFile(path)
		}
		return "", fmt.Errorf("stat %q: %w", path, err)
	}
	if !info.IsDir() {
		path = filepath.Dir(path)
	}
	root, ok, err := project.FindProjectRoot(path)
	if err != nil {
		return "", err
	}
	if ok {
		return root, nil
	}
	return filepath.Abs(path)
}
