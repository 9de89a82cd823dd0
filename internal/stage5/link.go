package stage5

import (
	"math"

	"github.com/cedarwud/orbit-engine/config"
)

const (
	speedOfLightMPS = 299792458.0
	boltzmannJPerK  = 1.380649e-23 // CODATA 2018
)

// FreeSpacePathLossDb is the ITU-R P.525 free-space loss formula.
func FreeSpacePathLossDb(distanceKM, frequencyGHz float64) float64 {
	return 20*math.Log10(distanceKM) + 20*math.Log10(frequencyGHz) + 92.45
}

// rxAntennaGainDb is the standard parabolic-aperture gain formula, SOURCE:
// ITU-R S.465, used to turn the configured dish diameter/efficiency into
// the RxGain term the RSRP formula needs.
func rxAntennaGainDb(diameterM, efficiency, frequencyGHz float64) float64 {
	wavelengthM := speedOfLightMPS / (frequencyGHz * 1e9)
	effectiveArea := efficiency * math.Pi * (diameterM / 2) * (diameterM / 2)
	gainLinear := 4 * math.Pi * effectiveArea / (wavelengthM * wavelengthM)
	return 10 * math.Log10(gainLinear)
}

// RSRP computes the physical (unclipped) received power, 3GPP TS 38.215
// §5.1.1: RSRP = TxPower + TxGain + RxGain - FSPL - AtmosphericLoss. TxGain
// is folded into the configured TxEIRPDbw (EIRP already includes the
// transmit antenna gain), so only RxGain is added separately.
func RSRP(cfg config.Stage5Config, distanceKM, atmosphericLossDb float64) float64 {
	rxGain := rxAntennaGainDb(cfg.RxAntennaDiameterM, cfg.RxAntennaEfficiency, cfg.FrequencyGHz)
	fspl := FreeSpacePathLossDb(distanceKM, cfg.FrequencyGHz)
	return cfg.TxEIRPDbw + rxGain - fspl - atmosphericLossDb
}

// ThermalNoiseDbm is Johnson-Nyquist noise N = k*T*B referred to the
// receiver (SOURCE: CODATA 2018 Boltzmann constant), plus the configured
// noise figure.
func ThermalNoiseDbm(cfg config.Stage5Config) float64 {
	bandwidthHz := cfg.BandwidthMHz * 1e6
	noiseWatts := boltzmannJPerK * cfg.TemperatureK * bandwidthHz
	noiseDbm := 10*math.Log10(noiseWatts) + 30
	return noiseDbm + cfg.NoiseFigureDb
}

// RSRQ is the N_RB-weighted 3GPP TS 38.215 §5.1.3 form: RSRQ_dB =
// 10*log10(N_RB * P_rsrp_lin / P_rssi_lin), never the simplified
// RSRP/RSSI ratio. RSSI is approximated as the sum of wanted signal,
// interference, and noise across the measured resource blocks.
func RSRQ(cfg config.Stage5Config, rsrpDbm, interferenceDbm, noiseDbm float64) float64 {
	rsrpLin := dbmToWatts(rsrpDbm)
	interferenceLin := dbmToWatts(interferenceDbm)
	noiseLin := dbmToWatts(noiseDbm)
	rssiLin := rsrpLin + interferenceLin + noiseLin
	if rssiLin <= 0 {
		return math.Inf(-1)
	}
	return 10 * math.Log10(float64(cfg.NumResourceBlocks)*rsrpLin/rssiLin)
}

// SINR is RS-SINR = RSRP_linear / (Interference + Noise), both in watts,
// converted back to dB.
func SINR(rsrpDbm, interferenceDbm, noiseDbm float64) float64 {
	rsrpLin := dbmToWatts(rsrpDbm)
	denom := dbmToWatts(interferenceDbm) + dbmToWatts(noiseDbm)
	if denom <= 0 {
		return math.Inf(1)
	}
	return 10 * math.Log10(rsrpLin/denom)
}

func dbmToWatts(dbm float64) float64 {
	return math.Pow(10, (dbm-30)/10)
}

// DopplerShiftHz computes the Doppler shift from the line-of-sight unit
// vector (ground station -> satellite, ECEF) and satellite velocity
// (km/s), returning (shiftHz, radialVelocityMPS). Uses the relativistic
// correction when |v|/c > 0.1 -- never triggered for LEO/MEO speeds, but
// spec-required regardless.
func DopplerShiftHz(losUnit [3]float64, velocityKMPS [3]float64, frequencyGHz float64) (shiftHz, radialVelocityMPS float64) {
	vMPS := [3]float64{velocityKMPS[0] * 1000, velocityKMPS[1] * 1000, velocityKMPS[2] * 1000}
	radial := losUnit[0]*vMPS[0] + losUnit[1]*vMPS[1] + losUnit[2]*vMPS[2]
	speed := math.Sqrt(vMPS[0]*vMPS[0] + vMPS[1]*vMPS[1] + vMPS[2]*vMPS[2])

	f := frequencyGHz * 1e9
	beta := speed / speedOfLightMPS

	var shift float64
	if beta > 0.1 {
		// relativistic Doppler, SOURCE: special-relativity radial case.
		gamma := 1.0 / math.Sqrt(1-beta*beta)
		shift = -f * (radial / speedOfLightMPS) * gamma
	} else {
		shift = -f * radial / speedOfLightMPS
	}

	return shift, radial
}

// PropagationDelayMs is the one-way light-time delay over the slant range.
func PropagationDelayMs(distanceKM float64) float64 {
	return (distanceKM * 1000 / speedOfLightMPS) * 1000
}

// losUnitVector returns the unit line-of-sight vector from the station to
// the satellite, both in ECEF km.
func losUnitVector(stationECEF, satECEF [3]float64) [3]float64 {
	dx := satECEF[0] - stationECEF[0]
	dy := satECEF[1] - stationECEF[1]
	dz := satECEF[2] - stationECEF[2]
	norm := math.Sqrt(dx*dx + dy*dy + dz*dz)
	if norm == 0 {
		return [3]float64{0, 0, 0}
	}
	return [3]float64{dx / norm, dy / norm, dz / norm}
}
