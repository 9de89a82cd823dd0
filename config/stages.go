package config

// GroundStation is the single configurable ground-station site (spec.md
// Non-goals: no multi-station support).
type GroundStation struct {
	LatitudeDeg  float64 `yaml:"latitude_deg" validate:"required,gte=-90,lte=90"`
	LongitudeDeg float64 `yaml:"longitude_deg" validate:"required,gte=-180,lte=180"`
	AltitudeKM   float64 `yaml:"altitude_km" validate:"gte=0"`
}

// Stage1Config governs TLE loading, epoch analysis, sampling, and the
// epoch filter.
type Stage1Config struct {
	InputDir string `yaml:"input_dir" validate:"required"`

	// EpochFilterMode: "latest_date" | "date_range" | "all".
	EpochFilterMode string `yaml:"epoch_filter_mode" validate:"required,oneof=latest_date date_range all"`
	// ToleranceHours widens the latest-date window; SOURCE: operational
	// slack for TLE publication jitter across constellations.
	ToleranceHours float64 `yaml:"tolerance_hours" validate:"gte=0"`

	// SamplingMode: "disabled" | "enabled" | "auto".
	SamplingMode      string `yaml:"sampling_mode" validate:"required,oneof=disabled enabled auto"`
	SamplingCount     int    `yaml:"sampling_count" validate:"gte=0"`
	SamplingThreshold int    `yaml:"sampling_auto_threshold" validate:"gte=0"`

	// MinMeanMotionRevPerDay/MaxMeanMotionRevPerDay bound the plausible
	// mean-motion range per spec.md §9 Open Question. SOURCE: Vallado
	// (2013) table of orbit-regime mean-motion envelopes, LEO through GEO.
	MinMeanMotionRevPerDay float64 `yaml:"min_mean_motion_rev_per_day" validate:"required,gt=0"`
	MaxMeanMotionRevPerDay float64 `yaml:"max_mean_motion_rev_per_day" validate:"required,gtfield=MinMeanMotionRevPerDay"`
}

// Stage2Config governs the unified time window and SGP4 propagation.
type Stage2Config struct {
	// TimeWindowMode: "unified_window" | "independent_epoch".
	TimeWindowMode  string  `yaml:"time_window_mode" validate:"required,oneof=unified_window independent_epoch"`
	IntervalSeconds float64 `yaml:"interval_seconds" validate:"required,gt=0"`

	// CoverageCycles must be >=1.2 (spec.md §8 scenario 6); SOURCE:
	// research requirement that at least 1.2 orbital periods be sampled
	// so a full ground-track repeat is observed even with phase drift.
	CoverageCycles float64 `yaml:"coverage_cycles" validate:"required,gte=1.2"`

	ConstellationOrbitalPeriods struct {
		StarlinkMinutes float64 `yaml:"starlink_minutes" validate:"required,gt=0"`
		OneWebMinutes   float64 `yaml:"oneweb_minutes" validate:"required,gt=0"`
	} `yaml:"constellation_orbital_periods" validate:"required"`

	// CPUUsageThresholdHigh/Medium: SOURCE: internal batch-tooling
	// defaults carried over from single-process runs; see
	// internal/cpuload.DefaultThresholds.
	CPUUsageThresholdHigh   float64 `yaml:"cpu_usage_threshold_high" validate:"gt=0,lte=1"`
	CPUUsageThresholdMedium float64 `yaml:"cpu_usage_threshold_medium" validate:"gt=0,lte=1"`
}

// Stage3Config governs the IAU coordinate transform and its cache.
type Stage3Config struct {
	UseIAUStandards bool `yaml:"use_iau_standards" validate:"eq=true"`

	// PolarMotionXArcsec/YArcsec: SOURCE: IERS Bulletin A; {0,0} is the
	// documented default for offline runs without a live bulletin feed.
	PolarMotionXArcsec float64 `yaml:"polar_motion_x_arcsec"`
	PolarMotionYArcsec float64 `yaml:"polar_motion_y_arcsec"`

	CacheDir string `yaml:"cache_dir" validate:"required"`
}

// ConstellationThreshold is the per-constellation elevation mask.
type ConstellationThreshold struct {
	// ElevationDeg: SOURCE: 3GPP TR 38.821 §6.1.2 and the constellation's
	// own published minimum-elevation specification.
	ElevationDeg float64 `yaml:"elevation_deg" validate:"required,gte=0,lte=90"`
}

// AvgVisibleTarget is a {min,max} visible-satellite target band.
type AvgVisibleTarget struct {
	Min int `yaml:"min" validate:"required,gt=0"`
	Max int `yaml:"max" validate:"required,gtfield=Min"`
}

// Stage4Config governs link feasibility and pool optimization.
type Stage4Config struct {
	UseIAUStandards bool `yaml:"use_iau_standards" validate:"eq=true"`
	ValidateEpochs  bool `yaml:"validate_epochs" validate:"eq=true"`

	LinkBudget struct {
		MinDistanceKM float64 `yaml:"min_distance_km" validate:"required,gt=0"`
		MaxDistanceKM float64 `yaml:"max_distance_km" validate:"required,gtfield=MinDistanceKM"`
	} `yaml:"link_budget" validate:"required"`

	ConstellationThresholds map[string]ConstellationThreshold `yaml:"constellation_thresholds" validate:"required"`

	PoolOptimization struct {
		TargetCoverageRate float64                     `yaml:"target_coverage_rate" validate:"required,gt=0,lte=1"`
		AvgVisibleTarget   map[string]AvgVisibleTarget  `yaml:"avg_visible_target" validate:"required"`
		MinimumVisible     map[string]int               `yaml:"minimum_visible" validate:"required"`
		MaxPoolSize        int                           `yaml:"max_pool_size" validate:"required,gt=0"`
		// ConvergenceEpsilon: marginal coverage-rate gain below which the
		// greedy set-cover loop stops adding satellites (spec.md §4.5.2
		// stopping rule (b)). Exposed per the Open Question about
		// tie-break weights being configuration, not constants.
		ConvergenceEpsilon float64 `yaml:"convergence_epsilon" validate:"required,gt=0"`
		// DiversityWeight scales the azimuth-diversity score (in [0,1])
		// that is added to a candidate's marginal contribution (0=pure
		// marginal contribution; at 1 the diversity score is added at full
		// weight, so it still only reorders candidates of near-equal gain).
		DiversityWeight float64 `yaml:"diversity_weight" validate:"gte=0,lte=1"`
	} `yaml:"pool_optimization" validate:"required"`

	// LinkQualityBins maps a quality label to its minimum elevation
	// (degrees); free configuration per spec.md §9 Open Question.
	LinkQualityBins map[string]float64 `yaml:"link_quality_bins" validate:"required"`
}

// AtmosphericParams are the ITU-R P.676 slant-path inputs.
type AtmosphericParams struct {
	// TemperatureK: SOURCE: ITU-R P.835 reference standard atmosphere.
	TemperatureK float64 `yaml:"temperature_k" validate:"required,gt=0"`
	// PressureHPa: SOURCE: ITU-R P.835 reference standard atmosphere.
	PressureHPa float64 `yaml:"pressure_hpa" validate:"required,gt=0"`
	// WaterVaporDensityGM3: SOURCE: ITU-R P.836 reference water-vapor
	// profile.
	WaterVaporDensityGM3 float64 `yaml:"water_vapor_density_g_m3" validate:"required,gte=0"`
}

// Stage5Config governs the ITU-R/3GPP signal model.
type Stage5Config struct {
	// BandwidthMHz / SubcarrierSpacingKHz: SOURCE: 3GPP TS 38.104 Table
	// 5.3.2-1 and TS 38.211 Table 4.2-1.
	BandwidthMHz          float64 `yaml:"bandwidth_mhz" validate:"required,gt=0"`
	SubcarrierSpacingKHz  float64 `yaml:"subcarrier_spacing_khz" validate:"required,gt=0"`
	NumResourceBlocks     int     `yaml:"num_resource_blocks" validate:"required,gt=0"`

	// NoiseFigureDb: SOURCE: typical Ka-band VSAT LNA datasheet figure.
	NoiseFigureDb float64 `yaml:"noise_figure_db" validate:"required,gte=0"`
	// TemperatureK: CODATA 2018 reference temperature basis for thermal
	// noise (Johnson-Nyquist N=kTB).
	TemperatureK float64 `yaml:"temperature_k" validate:"required,gt=0"`

	TxEIRPDbw             float64 `yaml:"tx_eirp_dbw" validate:"required"`
	FrequencyGHz          float64 `yaml:"frequency_ghz" validate:"required,gt=0"`
	RxAntennaDiameterM    float64 `yaml:"rx_antenna_diameter_m" validate:"required,gt=0"`
	RxAntennaEfficiency   float64 `yaml:"rx_antenna_efficiency" validate:"required,gt=0,lte=1"`

	Atmospheric AtmosphericParams `yaml:"atmospheric" validate:"required"`
}

// EventThresholds holds the 3GPP TS 38.331 A3/A4/A5/D2 parameters.
type EventThresholds struct {
	A3OffsetDb     float64 `yaml:"a3_offset_db"`
	A3HysteresisDb float64 `yaml:"a3_hysteresis_db"`

	A4ThresholdDbm float64 `yaml:"a4_threshold_dbm" validate:"required"`

	A5Threshold1Dbm float64 `yaml:"a5_threshold_1_dbm" validate:"required"`
	A5Threshold2Dbm float64 `yaml:"a5_threshold_2_dbm" validate:"required"`

	D2 map[string]struct {
		Threshold1KM float64 `yaml:"threshold1_km" validate:"required,gt=0"`
		Threshold2KM float64 `yaml:"threshold2_km" validate:"required,gt=0"`
	} `yaml:"d2" validate:"required"`
}

// Stage6Config governs event detection, dynamic-pool verification, and
// dataset partitioning.
type Stage6Config struct {
	Events EventThresholds `yaml:"events" validate:"required"`

	TrainSplit      float64 `yaml:"train_split" validate:"required,gt=0,lt=1"`
	ValidationSplit float64 `yaml:"validation_split" validate:"required,gt=0,lt=1"`
	TestSplit       float64 `yaml:"test_split" validate:"required,gt=0,lt=1"`
}
