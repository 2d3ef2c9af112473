// Package sweep fans a parameter sweep of scenario variants out across a
// pool of workers via a Redis-backed queue. It is the multi-run
// collaborator spec.md's concurrency model names ("Cross-run
// parallelism"): each job owns a private engine.Runner, so the queue is
// the only shared state between runs.
package sweep

import (
	"strconv"

	"turbodriver/internal/scenario"
)

// Job is one scenario variant queued for execution.
type Job struct {
	ID      string          `json:"id"`
	Variant string          `json:"variant"`
	Config  scenario.Config `json:"config"`
}

// Result is what a worker reports back after driving a Job to completion.
type Result struct {
	JobID    string         `json:"job_id"`
	Variant  string         `json:"variant"`
	StepsRun int            `json:"steps_run"`
	Counters map[string]any `json:"counters"`
	Error    string         `json:"error,omitempty"`
}

// BuildVariants derives len(seeds) independent job configs from a base
// config by overriding only the seed, so every variant replays the same
// demand/geography/pricing shape under an independent RNG stream (the
// same "independent runs, same config, different seed" idiom spec.md's
// batch-of-runs design note describes).
func BuildVariants(base scenario.Config, label string, seeds []int64) []Job {
	jobs := make([]Job, 0, len(seeds))
	for i, seed := range seeds {
		cfg := base
		s := seed
		cfg.Seed = &s
		jobs = append(jobs, Job{
			ID:      variantID(label, i),
			Variant: label,
			Config:  cfg.ApplyDefaults(),
		})
	}
	return jobs
}

func variantID(label string, idx int) string {
	if label == "" {
		label = "variant"
	}
	return label + "-" + strconv.Itoa(idx)
}
