package stage5

import (
	"math"
	"testing"

	"github.com/cedarwud/orbit-engine/config"
)

func testStage5Config() config.Stage5Config {
	var cfg config.Stage5Config
	cfg.BandwidthMHz = 100
	cfg.SubcarrierSpacingKHz = 30
	cfg.NumResourceBlocks = 273
	cfg.NoiseFigureDb = 3
	cfg.TemperatureK = 290
	cfg.TxEIRPDbw = 50
	cfg.FrequencyGHz = 20
	cfg.RxAntennaDiameterM = 0.6
	cfg.RxAntennaEfficiency = 0.65
	cfg.Atmospheric = config.AtmosphericParams{TemperatureK: 288, PressureHPa: 1013, WaterVaporDensityGM3: 7.5}
	return cfg
}

func TestFreeSpacePathLossIncreasesWithDistance(t *testing.T) {
	near := FreeSpacePathLossDb(600, 20)
	far := FreeSpacePathLossDb(1800, 20)
	if far <= near {
		t.Fatalf("expected FSPL to increase with distance, got near=%f far=%f", near, far)
	}
}

func TestRSRPDecreasesWithDistance(t *testing.T) {
	cfg := testStage5Config()
	near := RSRP(cfg, 600, 1.0)
	far := RSRP(cfg, 1800, 1.0)
	if far >= near {
		t.Fatalf("expected RSRP to decrease with distance, got near=%f far=%f", near, far)
	}
}

func TestDopplerShiftSignAndMagnitude(t *testing.T) {
	los := [3]float64{1, 0, 0}
	approaching := [3]float64{-7.5, 0, 0} // moving toward the station along -x
	shiftHz, radial := DopplerShiftHz(los, approaching, 20)
	if radial >= 0 {
		t.Fatalf("expected negative radial velocity for an approaching satellite, got %f", radial)
	}
	if shiftHz <= 0 {
		t.Fatalf("expected a positive (blue-shifted) Doppler shift for an approaching satellite, got %f", shiftHz)
	}
}

func TestDopplerShiftUsesRelativisticFormAboveTenPercentC(t *testing.T) {
	los := [3]float64{1, 0, 0}
	fast := [3]float64{-0.15 * speedOfLightMPS / 1000, 0, 0}
	shiftHz, _ := DopplerShiftHz(los, fast, 20)
	if math.IsNaN(shiftHz) || math.IsInf(shiftHz, 0) {
		t.Fatalf("relativistic Doppler branch produced a non-finite result: %f", shiftHz)
	}
}

func TestThermalNoiseIsFinite(t *testing.T) {
	cfg := testStage5Config()
	n := ThermalNoiseDbm(cfg)
	if math.IsNaN(n) || math.IsInf(n, 0) {
		t.Fatalf("expected finite thermal noise, got %f", n)
	}
}
