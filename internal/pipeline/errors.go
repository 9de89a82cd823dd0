package pipeline

import "errors"

// Sentinel errors for the pipeline framework, following the same
// package-level errors.New table convention used throughout this codebase.
var (
	ErrMissingConfigField   = errors.New("missing required configuration field")
	ErrCorruptInput         = errors.New("corrupt or unparseable input file")
	ErrNoPreviousOutput     = errors.New("no previous-stage output found")
	ErrStageValidation      = errors.New("stage output failed validation")
	ErrEpochIndependence    = errors.New("epoch independence check failed: < 50% distinct epochs")
	ErrCoverageCyclesTooLow = errors.New("coverage_cycles below required minimum of 1.2")
)
