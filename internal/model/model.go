// Package model holds the tagged records passed between pipeline stages.
//
// Each stage reads the previous stage's record type and produces its own;
// fields that only exist from a given stage onward (e.g. link_quality,
// which only exists after stage 4) live on a distinct type rather than as
// optional keys on a shared blob, so a stage can't accidentally read a
// field that hasn't been computed yet.
package model

import "time"

// Constellation identifies which satellite family a record belongs to.
type Constellation string

const (
	ConstellationStarlink Constellation = "starlink"
	ConstellationOneWeb   Constellation = "oneweb"
)

// SatelliteRecord is stage 1's per-satellite output: a parsed TLE plus its
// independently-computed epoch. Each record keeps its own epoch -- there is
// no shared "reference epoch" across satellites, see Vallado (2013) ch. 8.
type SatelliteRecord struct {
	SatelliteID     int           `json:"satellite_id"`
	Name            string        `json:"name"`
	Constellation   Constellation `json:"constellation"`
	Line1           string        `json:"line1"`
	Line2           string        `json:"line2"`
	EpochDatetime   time.Time     `json:"epoch_datetime"`
	MeanMotionRevPD float64       `json:"mean_motion_rev_per_day"`
	ChecksumDigit   string        `json:"checksum_style"` // "minus-only" or "plus-and-minus"
}

// TEMEPoint is one sample of stage 2's per-satellite time series: a TEME
// position and velocity at a timestamp derived from the satellite's own
// epoch, never re-parsed from TLE text (tle_reparse_prohibited).
type TEMEPoint struct {
	Timestamp    time.Time `json:"timestamp"`
	PositionKM   [3]float64 `json:"position_km"`
	VelocityKMPS [3]float64 `json:"velocity_km_per_s"`
	DataSource   string     `json:"data_source"` // always "stage1_provided"
}

// TEMESeries is the full stage 2 output for one satellite.
type TEMESeries struct {
	SatelliteID   int             `json:"satellite_id"`
	Name          string          `json:"name"`
	Constellation Constellation   `json:"constellation"`
	EpochDatetime time.Time       `json:"epoch_datetime"`
	OrbitalPeriodS float64        `json:"orbital_period_s"`
	OrbitRegime   string          `json:"orbit_regime"` // LEO/MEO/GEO, supplemental
	Points        []TEMEPoint     `json:"time_series"`
	FailedReason  string          `json:"failed_reason,omitempty"`
}

// GeodeticPoint is stage 3's output for one TEME point: WGS84 latitude,
// longitude and altitude, still carrying the stage-2 timestamp.
type GeodeticPoint struct {
	Timestamp  time.Time `json:"timestamp"`
	LatitudeDeg  float64 `json:"latitude_deg"`
	LongitudeDeg float64 `json:"longitude_deg"`
	AltitudeKM   float64 `json:"altitude_km"`
}

// GeodeticSeries is stage 3's per-satellite output. EpochDatetime is
// carried through unchanged from stage 2 so stage 4's epoch-independence
// validation doesn't need to re-open stage 2's output.
type GeodeticSeries struct {
	SatelliteID   int           `json:"satellite_id"`
	Name          string        `json:"name"`
	Constellation Constellation `json:"constellation"`
	EpochDatetime time.Time     `json:"epoch_datetime"`
	Points        []GeodeticPoint `json:"geodetic_series"`
}

// LinkQuality is the coarse connection-quality bin used by stage 4.
type LinkQuality string

const (
	LinkExcellent  LinkQuality = "excellent"
	LinkGood       LinkQuality = "good"
	LinkFair       LinkQuality = "fair"
	LinkPoor       LinkQuality = "poor"
	LinkUnavailable LinkQuality = "unavailable"
)

// FeasibilityPoint is stage 4's enrichment of a geodetic point with
// topocentric visibility relative to the ground station.
type FeasibilityPoint struct {
	Timestamp            time.Time   `json:"timestamp"`
	LatitudeDeg          float64     `json:"latitude_deg"`
	LongitudeDeg         float64     `json:"longitude_deg"`
	AltitudeKM           float64     `json:"altitude_km"`
	ElevationDeg         float64     `json:"elevation_deg"`
	AzimuthDeg           float64     `json:"azimuth_deg"`
	DistanceKM           float64     `json:"distance_km"`
	IsConnectable        bool        `json:"is_connectable"`
	ElevationThresholdDeg float64    `json:"elevation_threshold"`
	LinkQuality          LinkQuality `json:"link_quality"`
	// VelocityECEFKMPS is a finite-difference estimate of the satellite's
	// ECEF-frame velocity at this instant, carried through so stage 5 can
	// compute Doppler as a genuine line-of-sight dot product rather than a
	// scalar range-rate heuristic, without re-deriving stage 2's TEME
	// velocity through a second reference-frame transform.
	VelocityECEFKMPS [3]float64 `json:"velocity_ecef_km_per_s"`
}

// ServiceWindow is the contiguous span over which a satellite has at least
// one connectable point.
type ServiceWindow struct {
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	DurationS    float64   `json:"duration_seconds"`
	MaxElevDeg   float64   `json:"max_elevation_deg"`
}

// FeasibilitySatellite is one satellite's stage 4 record -- the full,
// unpruned per-satellite time series enriched with visibility fields.
// Pool optimization prunes satellites, never points.
type FeasibilitySatellite struct {
	SatelliteID   int                `json:"satellite_id"`
	Name          string             `json:"name"`
	Constellation Constellation      `json:"constellation"`
	TimeSeries    []FeasibilityPoint `json:"time_series"`
	ServiceWindow ServiceWindow      `json:"service_window"`
}

// SignalPoint is stage 5's per-point RSRP/RSRQ/SINR record. It only exists
// for points that were is_connectable=true in stage 4.
type SignalPoint struct {
	Timestamp          time.Time `json:"timestamp"`
	RSRPDbm            float64   `json:"rsrp_dbm"`
	RSRQDb             float64   `json:"rsrq_db"`
	SINRDb             float64   `json:"rs_sinr_db"`
	PathLossDb         float64   `json:"path_loss_db"`
	AtmosphericLossDb  float64   `json:"atmospheric_loss_db"`
	AtmosphericBreakdown AtmosphericBreakdown `json:"atmospheric_loss_breakdown"`
	DopplerShiftHz     float64   `json:"doppler_shift_hz"`
	RadialVelocityMPS  float64   `json:"radial_velocity_m_per_s"`
	PropagationDelayMs float64   `json:"propagation_delay_ms"`
	OffsetMODb         float64   `json:"offset_mo_db"`
	CellOffsetDb       float64   `json:"cell_offset_db"`
	CalculationStandard string   `json:"calculation_standard"`
}

// AtmosphericBreakdown separates the ITU-R P.676 total into its oxygen and
// water-vapor components plus the P.618 scintillation contribution.
type AtmosphericBreakdown struct {
	OxygenDb        float64 `json:"oxygen_db"`
	WaterVaporDb    float64 `json:"water_vapor_db"`
	ScintillationDb float64 `json:"scintillation_db"`
}

// SignalSatellite is stage 5's per-satellite record.
type SignalSatellite struct {
	SatelliteID   int               `json:"satellite_id"`
	Name          string            `json:"name"`
	Constellation Constellation     `json:"constellation"`
	Points        []SignalPoint     `json:"signal_series"`
}

// EventType enumerates the 3GPP TS 38.331 measurement-report events this
// pipeline detects.
type EventType string

const (
	EventA3 EventType = "A3"
	EventA4 EventType = "A4"
	EventA5 EventType = "A5"
	EventD2 EventType = "D2"
)

// TriggerContext is the measurement tuple that caused an event to fire.
type TriggerContext struct {
	ServingRSRPDbm   float64 `json:"serving_rsrp_dbm"`
	NeighborRSRPDbm  float64 `json:"neighbor_rsrp_dbm"`
	ServingDistanceKM float64 `json:"serving_distance_km"`
	NeighborDistanceKM float64 `json:"neighbor_distance_km"`
}

// EventRecord is one detected handover-relevant event at one time instant.
type EventRecord struct {
	EventType          EventType       `json:"event_type"`
	Timestamp          time.Time       `json:"timestamp"`
	ServingSatelliteID int             `json:"serving_satellite_id"`
	NeighborSatelliteID int            `json:"neighbor_satellite_id"`
	Trigger            TriggerContext  `json:"trigger_context"`
	HandoverRecommended bool           `json:"handover_recommended"`
}

// PoolStatusPoint records the per-constellation visible-satellite count at
// one time instant, used for stage 6's dynamic-pool verification.
type PoolStatusPoint struct {
	Timestamp     time.Time `json:"timestamp"`
	Constellation Constellation `json:"constellation"`
	VisibleCount  int       `json:"visible_count"`
	MeetsFloor    bool      `json:"meets_floor"`
}

// Episode is one satellite's contiguous training-episode record, stitching
// stages 4/5/6 together over that satellite's connectable points.
type Episode struct {
	SatelliteID      int           `json:"satellite_id"`
	Constellation    Constellation `json:"constellation"`
	OrbitalPeriodMin float64       `json:"orbital_period_minutes"`
	StartTime        time.Time     `json:"start_time"`
	EndTime          time.Time     `json:"end_time"`
	Points           []EpisodePoint `json:"points"`
	Split            string        `json:"split"` // train/validation/test
}

// EpisodePoint is a single step of an episode's trajectory.
type EpisodePoint struct {
	Timestamp          time.Time `json:"timestamp"`
	ElevationDeg       float64   `json:"elevation_deg"`
	AzimuthDeg         float64   `json:"azimuth_deg"`
	DistanceKM         float64   `json:"distance_km"`
	RSRPDbm            float64   `json:"rsrp_dbm"`
	RSRQDb             float64   `json:"rsrq_db"`
	SINRDb             float64   `json:"sinr_db"`
	AtmosphericLossDb  float64   `json:"atmospheric_loss_db"`
	DopplerShiftHz     float64   `json:"doppler_shift_hz"`
	RadialVelocityMPS  float64   `json:"radial_velocity_m_per_s"`
	PropagationDelayMs float64   `json:"propagation_delay_ms"`
	OffsetMODb         float64   `json:"offset_mo_db"`
	CellOffsetDb       float64   `json:"cell_offset_db"`
}
