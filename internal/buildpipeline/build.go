// Package buildpipeline runs the types, signatures and compile stages over a project.
package buildpipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"tether/internal/diag"
	"tether/internal/layout"
	"tether/internal/project"
	"tether/internal/signature"
	"tether/internal/trace"
	"tether/internal/typer"
)

// UnitResult describes one compiled unit.
type UnitResult struct {
	Unit         string
	Output       string
	Key          project.Digest
	Cached       bool
	Requirements []string
	Elapsed      time.Duration
}

// BuildResult captures build artefacts and timings.
type BuildResult struct {
	TypesOutput string
	Signatures  signature.List
	Units       []UnitResult
	Timings     *Timings
}

// Build runs every stage. The first failing unit cancels the rest; outputs
// of units that already finished stay on disk.
func Build(ctx context.Context, req *BuildRequest) (BuildResult, error) {
	result := BuildResult{Timings: &Timings{}}
	if ctx == nil {
		ctx = context.Background()
	}
	if req == nil {
		return result, fmt.Errorf("missing build request")
	}
	reqCopy := *req
	req = &reqCopy
	if req.Target.PtrSize == 0 {
		req.Target = layout.X86_64()
	}
	if req.Reporter == nil {
		req.Reporter = diag.NopReporter{}
	}

	ctx, span := trace.Start(ctx, trace.ScopeDriver, "build")
	defer span.End("")
	emitQueued(req.Progress, StageCompile, req.Units)

	sigs, err := runTypes(ctx, req, &result)
	if err != nil {
		return result, err
	}
	sigs, err = runSignatures(ctx, req, sigs, &result)
	if err != nil {
		return result, err
	}
	result.Signatures = sigs

	units, err := runCompile(ctx, req, sigs, result.Timings)
	result.Units = units
	return result, err
}

func runTypes(ctx context.Context, req *BuildRequest, result *BuildResult) (signature.List, error) {
	var base signature.List
	if req.TypesBase != "" {
		list, err := signature.ReadFile(req.TypesBase)
		if err != nil {
			return nil, err
		}
		base = list
	}
	if req.TypesInput == "" {
		emit(req.Progress, Event{Stage: StageTypes, Status: StatusSkipped})
		return base, nil
	}

	_, span := trace.Start(ctx, trace.ScopePass, string(StageTypes))
	start := time.Now()
	emit(req.Progress, Event{Stage: StageTypes, Status: StatusWorking})
	sigs, err := resolveTypes(req, base)
	elapsed := time.Since(start)
	result.Timings.Set(StageTypes, elapsed)
	if err != nil {
		span.End(err.Error())
		emit(req.Progress, Event{Stage: StageTypes, Status: StatusError, Err: err, Elapsed: elapsed})
		return nil, err
	}
	result.TypesOutput = req.TypesOutput
	span.WithExtra("signatures", strconv.Itoa(len(sigs))).End("")
	emit(req.Progress, Event{Stage: StageTypes, Status: StatusDone, Elapsed: elapsed})
	return sigs, nil
}

func resolveTypes(req *BuildRequest, base signature.List) (signature.List, error) {
	src, err := os.ReadFile(req.TypesInput)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, diag.Errorf(diag.InvalidInput, "type source not found").InFile(req.TypesInput)
		}
		return nil, fmt.Errorf("read type source: %w", err)
	}
	sigs, err := typer.Resolve(string(src), base, typer.Options{
		Target:           req.Target,
		RejectDuplicates: req.RejectDuplicates,
		File:             req.TypesInput,
	})
	if err != nil {
		return nil, err
	}
	if req.TypesOutput != "" {
		if err := signature.WriteFile(req.TypesOutput, sigs); err != nil {
			return nil, fmt.Errorf("write signature file: %w", err)
		}
	}
	return sigs, nil
}

func runSignatures(ctx context.Context, req *BuildRequest, sigs signature.List, result *BuildResult) (signature.List, error) {
	_, span := trace.Start(ctx, trace.ScopePass, string(StageSignatures))
	start := time.Now()
	emit(req.Progress, Event{Stage: StageSignatures, Status: StatusWorking})

	lists := []signature.List{sigs, req.Signatures}
	if req.Packages != "" {
		set, err := project.LoadSignatureDir(req.Packages)
		if err != nil {
			span.End(err.Error())
			emit(req.Progress, Event{Stage: StageSignatures, Status: StatusError, Err: err})
			return nil, err
		}
		for _, f := range set.Files {
			trace.Point(trace.FromContext(ctx), trace.ScopeUnit, "package", filepath.Base(f), span.ID())
		}
		lists = append(lists, set.Signatures)
	}
	merged := signature.Merge(lists...)

	elapsed := time.Since(start)
	result.Timings.Set(StageSignatures, elapsed)
	span.WithExtra("signatures", strconv.Itoa(len(merged))).End("")
	emit(req.Progress, Event{Stage: StageSignatures, Status: StatusDone, Elapsed: elapsed})
	return merged, nil
}

func runCompile(ctx context.Context, req *BuildRequest, sigs signature.List, timings *Timings) ([]UnitResult, error) {
	outputs, err := outputPaths(req.Units, req.OutDir)
	if err != nil {
		emit(req.Progress, Event{Stage: StageCompile, Status: StatusError, Err: err})
		return nil, err
	}

	ctx, span := trace.Start(ctx, trace.ScopePass, string(StageCompile))
	start := time.Now()
	emit(req.Progress, Event{Stage: StageCompile, Status: StatusWorking})

	jobs := req.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	uc := newUnitCompiler(req, sigs)
	results := make([]UnitResult, len(req.Units))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(jobs, len(req.Units))))
	for i, unit := range req.Units {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			// results[i] is owned by this goroutine.
			res, err := uc.compile(gctx, unit, outputs[i])
			results[i] = res
			return err
		})
	}
	err = g.Wait()

	elapsed := time.Since(start)
	timings.Set(StageCompile, elapsed)
	if err != nil {
		span.End(err.Error())
		emit(req.Progress, Event{Stage: StageCompile, Status: StatusError, Err: err, Elapsed: elapsed})
		return results, err
	}
	span.WithExtra("units", strconv.Itoa(len(results))).End("")
	emit(req.Progress, Event{Stage: StageCompile, Status: StatusDone, Elapsed: elapsed})
	return results, nil
}

// outputPaths maps every unit to <outDir>/<stem>.asm and rejects collisions.
func outputPaths(units []string, outDir string) ([]string, error) {
	out := make([]string, len(units))
	owner := make(map[string]string, len(units))
	for i, unit := range units {
		stem := strings.TrimSuffix(filepath.Base(unit), filepath.Ext(unit))
		path := filepath.Join(outDir, stem+".asm")
		if prev, dup := owner[path]; dup {
			return nil, diag.Errorf(diag.InvalidInput, "units %q and %q both write %q", prev, unit, path)
		}
		owner[path] = unit
		out[i] = path
	}
	return out, nil
}
