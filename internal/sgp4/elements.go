package sgp4

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseElements extracts the classic orbital elements from a validated TLE
// line pair and converts them into SGP4's native units (radians,
// radians/minute). epoch is the caller's already-parsed epoch (stage 1's
// SatelliteRecord.EpochDatetime) -- ParseElements never re-derives it from
// the TLE text, so a satellite's epoch is computed exactly once per run.
func ParseElements(line1, line2 string, epoch time.Time) (Elements, error) {
	if len(line1) < lineLength || len(line2) < lineLength {
		return Elements{}, fmt.Errorf("sgp4: TLE line shorter than %d columns", lineLength)
	}

	bstar, err := parseBstar(line1[53:61])
	if err != nil {
		return Elements{}, fmt.Errorf("sgp4: bstar: %w", err)
	}

	inclDeg, err := parseFixed(line2[8:16])
	if err != nil {
		return Elements{}, fmt.Errorf("sgp4: inclination: %w", err)
	}
	raanDeg, err := parseFixed(line2[17:25])
	if err != nil {
		return Elements{}, fmt.Errorf("sgp4: raan: %w", err)
	}
	eccStr := "0." + strings.TrimSpace(line2[26:33])
	ecc, err := strconv.ParseFloat(eccStr, 64)
	if err != nil {
		return Elements{}, fmt.Errorf("sgp4: eccentricity: %w", err)
	}
	argpDeg, err := parseFixed(line2[34:42])
	if err != nil {
		return Elements{}, fmt.Errorf("sgp4: arg perigee: %w", err)
	}
	maDeg, err := parseFixed(line2[43:51])
	if err != nil {
		return Elements{}, fmt.Errorf("sgp4: mean anomaly: %w", err)
	}
	meanMotionRevPD, err := parseFixed(line2[52:63])
	if err != nil {
		return Elements{}, fmt.Errorf("sgp4: mean motion: %w", err)
	}

	return Elements{
		Epoch:        epoch,
		Inclination:  inclDeg * de2ra,
		RAAN:         raanDeg * de2ra,
		Eccentricity: ecc,
		ArgPerigee:   argpDeg * de2ra,
		MeanAnomaly:  maDeg * de2ra,
		MeanMotion:   meanMotionRevPD * twoPi / minutesPerDay,
		BStar:        bstar,
	}, nil
}

const lineLength = 69

func parseFixed(field string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(field), 64)
}

// parseBstar decodes the assumed-decimal-point mantissa+signed-exponent
// format TLEs use for the drag term, e.g. " 10270-3" -> 0.10270e-3,
// "-11606-4" -> -0.11606e-4.
func parseBstar(field string) (float64, error) {
	field = strings.TrimSpace(field)
	if field == "" {
		return 0, nil
	}

	sign := 1.0
	if strings.HasPrefix(field, "-") {
		sign = -1.0
		field = field[1:]
	} else if strings.HasPrefix(field, "+") {
		field = field[1:]
	}

	expIdx := strings.IndexAny(field, "+-")
	if expIdx < 0 {
		v, err := strconv.ParseFloat(field, 64)
		return sign * v, err
	}

	mantissa := field[:expIdx]
	expPart := field[expIdx:]

	mantVal, err := strconv.ParseFloat("0."+mantissa, 64)
	if err != nil {
		return 0, err
	}
	expVal, err := strconv.Atoi(expPart)
	if err != nil {
		return 0, err
	}

	return sign * mantVal * pow10(expVal), nil
}

func pow10(n int) float64 {
	v := 1.0
	if n >= 0 {
		for i := 0; i < n; i++ {
			v *= 10
		}
		return v
	}
	for i := 0; i < -n; i++ {
		v /= 10
	}
	return v
}
