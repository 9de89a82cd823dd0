// Package pipeline implements the stage-processor/stage-validator template
// method shared by every stage, plus the snapshot schema and field-checker
// helpers each stage's validator composes.
//
// Go has no class inheritance, so the "abstract StageProcessor" from the
// spec becomes a struct of function fields: a stage supplies LoadPrevious,
// Execute, PersistOutput and Validate, and Run drives them through the
// fixed sequence (log start -> clean stale output -> load previous ->
// execute -> persist output -> validate -> log finish). Run returns the
// snapshot; writing it to SnapshotPath is left to the caller.
package pipeline

import (
	"fmt"
	"log"
	"time"
)

// Result is what a stage's core processor returns.
type Result[Out any] struct {
	Output  Out
	Summary map[string]any
}

// Runner drives one stage end to end. In is the previous stage's output
// type (struct{} for stage 1, which has none); Out is this stage's own.
type Runner[In, Out any] struct {
	StageID     int
	StageName   string
	OutputDir   string
	OutputGlob  string // glob used to clean stale output in OutputDir
	SnapshotPath string
	Clock       Clock

	// LoadPrevious loads and deserialises the previous stage's output.
	// Left nil for stage 1.
	LoadPrevious func() (In, error)

	// Execute is the stage's core algorithm.
	Execute func(previous In) (Result[Out], error)

	// Validate produces a snapshot from this stage's result. Optional --
	// a stage without a validator (none exist in this pipeline, but the
	// framework allows it) simply skips the step.
	Validate func(out Out, summary map[string]any, sampling bool) Snapshot

	// PersistOutput writes Out to OutputDir under a timestamped filename
	// and returns the path written.
	PersistOutput func(out Out, dir string, at time.Time) (string, error)
}

// Run executes the template method and returns the stage's output, or an
// error if any step fails. A failed validation does not abort Run -- it is
// surfaced via the returned Snapshot.OverallStatus, per the "Sanity-check
// violation" row of the error taxonomy: the stage completes, and it is up
// to the caller to stop the chain on overall_status=false (the CLI does;
// the next stage's LoadPrevious does not look at the snapshot).
func (r *Runner[In, Out]) Run() (Out, Snapshot, error) {
	var zero Out
	var snap Snapshot

	log.Printf("stage %d (%s): starting", r.StageID, r.StageName)

	if r.OutputGlob != "" {
		if err := cleanStale(r.OutputDir, r.OutputGlob); err != nil {
			return zero, snap, fmt.Errorf("stage %d: clean stale output: %w", r.StageID, err)
		}
	}

	var previous In
	if r.LoadPrevious != nil {
		var err error
		previous, err = r.LoadPrevious()
		if err != nil {
			return zero, snap, fmt.Errorf("stage %d: load previous output: %w", r.StageID, err)
		}
	}

	started := r.now()
	result, err := r.Execute(previous)
	if err != nil {
		return zero, snap, fmt.Errorf("stage %d (%s): %w", r.StageID, r.StageName, err)
	}
	elapsed := r.now().Sub(started)

	if result.Summary == nil {
		result.Summary = map[string]any{}
	}
	result.Summary["processing_duration_seconds"] = elapsed.Seconds()

	if r.PersistOutput != nil {
		path, err := r.PersistOutput(result.Output, r.OutputDir, r.now())
		if err != nil {
			return zero, snap, fmt.Errorf("stage %d: persist output: %w", r.StageID, err)
		}
		log.Printf("stage %d (%s): wrote %s", r.StageID, r.StageName, path)
	}

	if r.Validate != nil {
		_, relaxed := SamplingFromEnv()
		snap = r.Validate(result.Output, result.Summary, relaxed)
		snap.GeneratedAt = r.now()
		if !snap.ValidationChecks.OverallStatus {
			log.Printf("stage %d (%s): validation FAILED (%d/%d checks passed)",
				r.StageID, r.StageName, snap.ValidationChecks.ChecksPassed, snap.ValidationChecks.ChecksPerformed)
		}
	}

	log.Printf("stage %d (%s): finished in %s", r.StageID, r.StageName, elapsed)

	return result.Output, snap, nil
}

func (r *Runner[In, Out]) now() time.Time {
	if r.Clock != nil {
		return r.Clock.Now()
	}
	return SystemClock{}.Now()
}
