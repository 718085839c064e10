package buildpipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"tether/internal/cache"
	"tether/internal/atomicfile"
	"tether/internal/diag"
	"tether/internal/directive"
	"tether/internal/project"
	"tether/internal/signature"
	"tether/internal/trace"
)

// maxUnitWarnings bounds the warnings kept per unit.
const maxUnitWarnings = 256

// unitCompiler holds what every unit of one build shares. Read-only after construction.
type unitCompiler struct {
	req     *BuildRequest
	sigs    signature.List
	sigHash project.Digest
	optHash project.Digest
	fetcher directive.ResourceFetcher
}

func newUnitCompiler(req *BuildRequest, sigs signature.List) *unitCompiler {
	uc := &unitCompiler{
		req:     req,
		sigs:    sigs,
		sigHash: project.HashBytes(signature.Encode(sigs)),
		optHash: project.HashBytes([]byte(fmt.Sprintf("annotate=%t;target=%s;exts=%s", req.Annotate, req.Target.Name, req.Exts))),
	}
	if req.Exts != "" {
		uc.fetcher = project.ExtFetcher{Dir: req.Exts}
	}
	return uc
}

func (uc *unitCompiler) compile(ctx context.Context, unit, output string) (UnitResult, error) {
	res := UnitResult{Unit: unit, Output: output}
	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeUnit, "unit:"+unit, trace.ParentFromContext(ctx))
	start := time.Now()
	emit(uc.req.Progress, Event{File: unit, Stage: StageCompile, Status: StatusWorking})

	fail := func(err error) (UnitResult, error) {
		res.Elapsed = time.Since(start)
		span.End(err.Error())
		emit(uc.req.Progress, Event{File: unit, Stage: StageCompile, Status: StatusError, Err: err, Elapsed: res.Elapsed})
		return res, err
	}

	src, err := os.ReadFile(unit)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fail(diag.Errorf(diag.InvalidInput, "directive source not found").InFile(unit))
		}
		return fail(fmt.Errorf("read %s: %w", unit, err))
	}
	res.Key = project.Combine(project.HashBytes(src), uc.sigHash, uc.optHash)

	if payload, ok := uc.lookup(res.Key); ok {
		for _, w := range payload.Warnings {
			uc.req.Reporter.Report(diag.NewWarning(diag.Code(w.Code), w.Message).At(unit, w.Line))
		}
		if err := atomicfile.Write(output, []byte(payload.Assembly)); err != nil {
			return fail(fmt.Errorf("write %s: %w", output, err))
		}
		res.Cached = true
		res.Requirements = payload.Requirements
		res.Elapsed = time.Since(start)
		span.WithExtra("cached", "true").End("")
		emit(uc.req.Progress, Event{File: unit, Stage: StageCompile, Status: StatusCached, Elapsed: res.Elapsed})
		return res, nil
	}

	rec := project.NewRecordingFetcher(uc.fetcher)
	bag := diag.NewBagReporter(maxUnitWarnings)
	compiler := directive.NewCompiler(directive.Config{
		Signatures: uc.sigs,
		Fetcher:    rec,
		Reporter:   bag,
		Target:     uc.req.Target,
		Annotate:   uc.req.Annotate,
		File:       unit,
		OnDirective: func(ln directive.Line) {
			trace.Point(tracer, trace.ScopeDirective, ln.Directive, unit+":"+strconv.Itoa(ln.Number), span.ID())
		},
	}, nil)
	asm, err := compiler.Compile(src)
	if err != nil {
		return fail(err)
	}
	if err := atomicfile.Write(output, []byte(asm)); err != nil {
		return fail(fmt.Errorf("write %s: %w", output, err))
	}

	var warnings []cache.Warning
	for _, d := range bag.Bag.Items() {
		uc.req.Reporter.Report(d)
		warnings = append(warnings, cache.Warning{Code: uint16(d.Code), Message: d.Message, Line: d.Line})
	}
	names, digests := rec.Requirements()
	res.Requirements = names
	if uc.req.Cache != nil {
		err := uc.req.Cache.Put(res.Key, &cache.Payload{
			Unit:              unit,
			UnitHash:          project.HashBytes(src),
			Requirements:      names,
			RequirementHashes: digests,
			Assembly:          asm,
			Warnings:          warnings,
			Stored:            time.Now(),
		})
		if err != nil {
			// Cache write failures are not fatal.
			trace.Point(tracer, trace.ScopeUnit, "cache-put-failed", err.Error(), span.ID())
		}
	}

	res.Elapsed = time.Since(start)
	span.WithExtra("requirements", strconv.Itoa(len(names))).End("")
	emit(uc.req.Progress, Event{File: unit, Stage: StageCompile, Status: StatusDone, Elapsed: res.Elapsed})
	return res, nil
}

// lookup returns a cached compilation whose fragments are unchanged.
func (uc *unitCompiler) lookup(key project.Digest) (*cache.Payload, bool) {
	if uc.req.Cache == nil {
		return nil, false
	}
	payload, ok, err := uc.req.Cache.Lookup(key, func(name string) (project.Digest, bool) {
		if uc.fetcher == nil {
			return project.Digest{}, false
		}
		text, err := uc.fetcher.Fetch(name)
		if err != nil {
			return project.Digest{}, false
		}
		return project.HashBytes([]byte(text)), true
	})
	if err != nil || !ok {
		return nil, false
	}
	return payload, true
}
