package main

import (
	"fmt"
	"io"
	"time"

	"tether/internal/buildpipeline"
)

func printStageTimings(out io.Writer, timings *buildpipeline.Timings) error {
	if out == nil || timings == nil {
		return nil
	}
	labels := map[buildpipeline.Stage]string{
		buildpipeline.StageTypes:      "typed",
		buildpipeline.StageSignatures: "signatures",
		buildpipeline.StageCompile:    "compiled",
	}
	for _, stage := range buildpipeline.Stages {
		if !timings.Has(stage) {
			continue
		}
		if _, err := fmt.Fprintf(out, "%s %.1f ms\n", labels[stage], toMillis(timings.Duration(stage))); err != nil {
			return err
		}
	}
	total := timings.Sum(buildpipeline.Stages...)
	_, err := fmt.Fprintf(out, "total %.1f ms\n", toMillis(total))
	return err
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
