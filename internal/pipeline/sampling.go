package pipeline

import "os"

// Env variable names recognised by the CLI (see EXTERNAL INTERFACES).
const (
	EnvTestMode    = "ORBIT_ENGINE_TEST_MODE"
	EnvSamplingMode = "ORBIT_ENGINE_SAMPLING_MODE"
	EnvNoProgress  = "ORBIT_ENGINE_NO_PROGRESS"
)

// SamplingFromEnv reports whether sampling mode is active and whether
// validation thresholds should additionally be relaxed. TEST_MODE implies
// both; SAMPLING_MODE alone samples without relaxing thresholds.
func SamplingFromEnv() (sampling, relaxed bool) {
	if envTruthy(os.Getenv(EnvTestMode)) {
		return true, true
	}
	if envTruthy(os.Getenv(EnvSamplingMode)) {
		return true, false
	}
	return false, false
}

// ProgressSuppressed reports whether ORBIT_ENGINE_NO_PROGRESS is set.
func ProgressSuppressed() bool {
	return envTruthy(os.Getenv(EnvNoProgress))
}

func envTruthy(v string) bool {
	return v == "1" || v == "true" || v == "TRUE" || v == "yes"
}

// SamplingBySize applies the dataset-size heuristic a stage validator uses
// when the environment doesn't say either way: a dataset smaller than
// threshold is treated as a sampled dataset for validation-leniency
// purposes (e.g. stage 6's "A3>0 only when >=10 satellites" rule already
// encodes this per-stage, this helper is for the generic 5-check gate).
func SamplingBySize(n, threshold int) bool {
	return n > 0 && n < threshold
}
