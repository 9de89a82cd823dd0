package stage5

import (
	"math"
	"testing"

	"github.com/cedarwud/orbit-engine/config"
)

func testAtmosphericParams() config.AtmosphericParams {
	return config.AtmosphericParams{TemperatureK: 288, PressureHPa: 1013, WaterVaporDensityGM3: 7.5}
}

func TestAtmosphericLossPositiveAndFinite(t *testing.T) {
	loss := AtmosphericLoss(45, 1200, 20, testAtmosphericParams())
	total := totalAtmosphericLoss(loss)
	if total <= 0 || math.IsNaN(total) || math.IsInf(total, 0) {
		t.Fatalf("expected a positive finite atmospheric loss, got %f", total)
	}
}

func TestAtmosphericLossIncreasesAtLowElevation(t *testing.T) {
	atm := testAtmosphericParams()
	high := totalAtmosphericLoss(AtmosphericLoss(80, 600, 20, atm))
	low := totalAtmosphericLoss(AtmosphericLoss(10, 1800, 20, atm))
	if low <= high {
		t.Fatalf("expected more atmospheric loss at low elevation/long range, got high=%f low=%f", high, low)
	}
}

func TestAtmosphericLossNeverHitsSentinel(t *testing.T) {
	loss := AtmosphericLoss(5, 2000, 30, testAtmosphericParams())
	if totalAtmosphericLoss(loss) == 999.0 {
		t.Fatalf("atmospheric loss must never equal the 999.0 sentinel")
	}
}
