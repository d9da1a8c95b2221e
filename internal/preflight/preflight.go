package preflight

import (
	"context"
	"slices"

	"bookvoice/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name     string
	Passed   bool
	Optional bool
	Detail   string
}

// Failed reports whether any required check did not pass.
func Failed(results []Result) bool {
	return slices.ContainsFunc(results, func(r Result) bool { return !r.Passed && !r.Optional })
}

// RunAll executes all applicable preflight checks for the given config.
// Network checks run only when includeRemote is set.
func RunAll(ctx context.Context, cfg *config.Config, includeRemote bool) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir),
		CheckDirectoryAccess("Staging directory", cfg.Paths.StagingDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckFreeSpace("Output free space", cfg.Paths.OutputDir, MinFreeBytes),
	}
	if cfg.Paths.StagingDir != cfg.Paths.OutputDir {
		results = append(results, CheckFreeSpace("Staging free space", cfg.Paths.StagingDir, MinFreeBytes))
	}

	for _, status := range CheckSystemDeps(cfg) {
		detail := status.Detail
		if status.Available {
			detail = status.Command
		}
		results = append(results, Result{
			Name:     status.Name,
			Passed:   status.Available,
			Optional: status.Optional,
			Detail:   detail,
		})
	}

	if includeRemote && cfg.TranslationKind() == config.TranslationLLM {
		results = append(results, CheckLLM(ctx, "Translation LLM", cfg.Translation))
	}
	return results
}
