package stage1

import (
	"strings"
	"testing"
	"time"

	"github.com/cedarwud/orbit-engine/internal/model"
)

// A real ISS TLE (checksum valid, minus-only style), used throughout.
const issLine1 = "1 25544U 98067A   24079.51782528  .00016717  00000-0  10270-3 0  9994"
const issLine2 = "2 25544  51.6416 247.4627 0006703 130.5360 325.0288 15.49560183 32385"

func TestParseRecordRoundTrip(t *testing.T) {
	rec, style, err := parseRecord("ISS (ZARYA)", issLine1, issLine2, "starlink", 1.0, 20.0)
	if err != nil {
		t.Fatalf("parseRecord: %v", err)
	}
	if rec.SatelliteID != 25544 {
		t.Fatalf("got satellite id %d, want 25544", rec.SatelliteID)
	}
	if style != "minus-only" {
		t.Fatalf("got checksum style %q, want minus-only", style)
	}
	if rec.EpochDatetime.Year() != 2024 {
		t.Fatalf("got epoch year %d, want 2024", rec.EpochDatetime.Year())
	}
}

func TestParseRecordBadChecksum(t *testing.T) {
	bad := issLine1[:len(issLine1)-1] + "9"
	if strings.HasSuffix(issLine1, "9") {
		bad = issLine1[:len(issLine1)-1] + "8"
	}
	_, _, err := parseRecord("ISS", bad, issLine2, "starlink", 1.0, 20.0)
	if err == nil {
		t.Fatalf("expected checksum error, got nil")
	}
}

func TestParseRecordMeanMotionOutOfRange(t *testing.T) {
	_, _, err := parseRecord("ISS", issLine1, issLine2, "starlink", 16.0, 20.0)
	if err == nil {
		t.Fatalf("expected mean-motion range error, got nil")
	}
}

func TestParseEpochLeapYearDayOfYear(t *testing.T) {
	// day-of-year 79.5 in 2024 (leap year) should land in March.
	got, err := parseEpoch(issLine1)
	if err != nil {
		t.Fatalf("parseEpoch: %v", err)
	}
	if got.Month() != time.March {
		t.Fatalf("got month %s, want March", got.Month())
	}
}

func TestOrbitalPeriodFromMeanMotion(t *testing.T) {
	period := OrbitalPeriodFromMeanMotion(15.5)
	want := 1440.0 / 15.5
	if diff := period - want; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("got period %f, want %f", period, want)
	}
	if OrbitalPeriodFromMeanMotion(0) != 0 {
		t.Fatalf("expected zero period for zero mean motion")
	}
}

func TestSampleDeterministic(t *testing.T) {
	mk := func(id int) model.SatelliteRecord {
		return model.SatelliteRecord{SatelliteID: id}
	}
	records := []model.SatelliteRecord{mk(30), mk(10), mk(20)}

	got := Sample(records, SamplingEnabled, 2, 0)
	if len(got) != 2 {
		t.Fatalf("got %d records, want 2", len(got))
	}
	if got[0].SatelliteID != 10 || got[1].SatelliteID != 20 {
		t.Fatalf("got ids %d,%d, want 10,20 (stable sort by id)", got[0].SatelliteID, got[1].SatelliteID)
	}

	// repeated calls must return the same result -- no randomness.
	again := Sample(records, SamplingEnabled, 2, 0)
	if again[0].SatelliteID != got[0].SatelliteID || again[1].SatelliteID != got[1].SatelliteID {
		t.Fatalf("sampling was not deterministic across calls")
	}
}

func TestSampleAutoThreshold(t *testing.T) {
	records := []model.SatelliteRecord{{SatelliteID: 1}, {SatelliteID: 2}, {SatelliteID: 3}}
	got := Sample(records, SamplingAuto, 1, 10)
	if len(got) != 3 {
		t.Fatalf("expected auto mode to pass through when below threshold, got %d", len(got))
	}
	got = Sample(records, SamplingAuto, 1, 2)
	if len(got) != 1 {
		t.Fatalf("expected auto mode to sample when above threshold, got %d", len(got))
	}
}
