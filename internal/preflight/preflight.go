package preflight

import (
	"context"

	"captioner/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every preflight check for cfg.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Input directory", cfg.Paths.InputDir),
		CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir),
		CheckDirectoryAccess("Work directory", cfg.Paths.WorkDir),
	}
	if results[2].Passed {
		results = append(results, CheckFreeSpace("Work directory space", cfg.Paths.WorkDir))
	}

	for _, dep := range CheckSystemDeps(cfg) {
		if dep.Name == "FFmpeg" && dep.Available {
			results = append(results, encoderCheck(ctx, cfg))
			continue
		}
		if dep.Optional && !dep.Available {
			continue
		}
		results = append(results, Result{Name: dep.Name, Passed: dep.Available, Detail: dep.Detail})
	}
	return results
}

// Failed filters results down to failures.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}
