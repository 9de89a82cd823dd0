// Package cpuload picks a worker-pool size from observed CPU load, the way
// the reference CLI sizes its conversion pool from runtime.NumCPU() -- but
// generalized to the threshold scheme spec.md §5 requires instead of a
// fixed 2x multiplier.
package cpuload

import (
	"errors"
	"runtime"
	"time"

	"github.com/alitto/pond"
	"github.com/shirou/gopsutil/v3/cpu"
)

var errNoCPUReading = errors.New("cpuload: no CPU utilization sample returned")

// Thresholds are the cited CPU-utilization breakpoints used to pick a
// worker count. SOURCE: operational defaults carried over from the
// project's earlier single-process batch tooling; exposed here as
// configuration rather than hard-coded, per spec.md §7.
type Thresholds struct {
	High   float64 // fraction of CPU in use above which we back off hardest
	Medium float64 // fraction above which we back off moderately
}

// DefaultThresholds are reference values for the two thresholds. Nothing in
// the module substitutes them automatically: stage 2's config validation
// requires both thresholds to be set.
var DefaultThresholds = Thresholds{High: 0.85, Medium: 0.60}

// WorkerCount selects a worker count in {ceil(cpus*0.6), cpus-1, cpus-2}
// based on where currentUsage falls relative to t. currentUsage is a
// fraction in [0,1]; callers that can't measure it should pass 0, which
// yields the least conservative choice (cpus-1).
//
// If cpus can't be determined (runtime.NumCPU() returning <1, which it
// never does in practice but the check is required by spec.md §5),
// WorkerCount degrades to a single worker.
func WorkerCount(cpus int, currentUsage float64, t Thresholds) int {
	if cpus < 1 {
		return 1
	}

	switch {
	case currentUsage >= t.High:
		n := int(float64(cpus)*0.6 + 0.999999) // ceil
		if n < 1 {
			n = 1
		}
		return n
	case currentUsage >= t.Medium:
		if cpus-2 >= 1 {
			return cpus - 2
		}
		return 1
	default:
		if cpus-1 >= 1 {
			return cpus - 1
		}
		return 1
	}
}

// NewPool constructs a pond worker pool sized by WorkerCount using the
// host's logical CPU count and the supplied current usage fraction.
func NewPool(currentUsage float64, t Thresholds) *pond.WorkerPool {
	n := WorkerCount(runtime.NumCPU(), currentUsage, t)
	return pond.New(n, 0, pond.MinWorkers(n))
}

// NewPoolWithWorkers constructs a pond worker pool with an already-resolved
// worker count, for callers that determined it once up front (e.g. via
// ResolveWorkerCount) rather than per-stage.
func NewPoolWithWorkers(n int) *pond.WorkerPool {
	if n < 1 {
		n = 1
	}
	return pond.New(n, 0, pond.MinWorkers(n))
}

// ResolveWorkerCount samples live CPU utilization once and applies the
// threshold scheme, degrading to a single worker if sampling itself fails
// (spec.md §4.3/§5: "degrades to 1 worker if CPU detection itself fails").
func ResolveWorkerCount(t Thresholds) int {
	usage, err := CurrentUsage()
	if err != nil {
		return 1
	}
	return WorkerCount(runtime.NumCPU(), usage, t)
}

// sampleWindow is how long cpu.Percent blocks observing utilization before
// returning a single aggregate reading.
const sampleWindow = 200 * time.Millisecond

// CurrentUsage samples system-wide CPU utilization via the OS's standard
// per-process/per-host accounting APIs (spec.md §4.3/§5: "selects worker
// count based on observed CPU utilization ... via standard OS APIs"),
// returning a fraction in [0,1]. An error here (no /proc on this platform,
// permission denied, etc.) is the caller's cue to degrade to a single
// worker rather than guess.
func CurrentUsage() (float64, error) {
	percents, err := cpu.Percent(sampleWindow, false)
	if err != nil {
		return 0, err
	}
	if len(percents) == 0 {
		return 0, errNoCPUReading
	}
	return percents[0] / 100.0, nil
}
