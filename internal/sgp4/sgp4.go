// Package sgp4 implements the SGP4 (Simplified General Perturbations 4)
// analytic LEO/MEO propagator (Hoots & Roehrich, Spacetrack Report #3,
// 1980; Vallado, Crawford, Hujsak & Kelso, "Revisiting Spacetrack Report
// #3", AIAA 2006-6753; Vallado 2013).
//
// The recurrence below is adapted from the SGP4_STR3 integrator in
// FengXuebin-gnssgo/src/tle.go (the only complete SGP4 implementation in
// the reference corpus), restructured around an Elements/Propagate pair
// and renamed to Vallado-2013 symbol names, with the output converted to
// TEME kilometers and kilometers/second instead of the original's raw
// Earth-radii/minute internal units.
package sgp4

import (
	"fmt"
	"math"
	"time"
)

// WGS-72 gravitational constants, as used by the original Spacetrack
// Report #3 model (SOURCE: Hoots & Roehrich 1980, table 1).
const (
	earthRadiusKM = 6378.135
	minutesPerDay = 1440.0
	twoPi         = 2.0 * math.Pi
	de2ra         = math.Pi / 180.0
	xke           = 0.0743669161
	ck2           = 5.413080e-4
	ck4           = 0.62098875e-6
	qoms2t        = 1.88027916e-9
	s0            = 1.01222928
	j3            = -0.253881e-5
	epsConverge   = 1.0e-6
)

// Elements are the classic (Keplerian) mean orbital elements carried by a
// TLE, plus the drag term. Angles are in radians, MeanMotion in radians
// per minute -- callers parsing raw TLE fields (degrees, revs/day) must
// convert before constructing Elements; see ParseElements.
type Elements struct {
	Epoch          time.Time
	Inclination    float64 // rad
	RAAN           float64 // rad (right ascension of ascending node)
	Eccentricity   float64
	ArgPerigee     float64 // rad
	MeanAnomaly    float64 // rad
	MeanMotion     float64 // rad/min
	BStar          float64 // per Earth radii
}

// State is a propagated TEME position/velocity pair.
type State struct {
	PositionKM   [3]float64
	VelocityKMPS [3]float64
}

// derived holds the once-per-satellite secular terms computed by
// initialize, reused by every call to Propagate for that satellite.
type derived struct {
	el Elements

	simplifiedModel bool

	xnodp, aodp, eta float64
	c1, c2, c3, c4, c5 float64
	sinio, cosio, x3thm1, x1mth2, x7thm1 float64
	xmdot, omgdot, xnodot float64
	omgcof, xmcof, xnodcf float64
	t2cof, xlcof, aycof   float64
	delmo, sinmo          float64
	d2, d3, d4            float64
	t3cof, t4cof, t5cof   float64
}

// Initialize computes the secular (once-per-satellite) terms SGP4 needs
// and returns a value whose Propagate method can be called repeatedly and
// concurrently -- Propagate has no mutable state, only derived is shared
// read-only, so a single *derived may safely service multiple workers.
func Initialize(el Elements) (*derived, error) {
	if el.Eccentricity < 0 || el.Eccentricity >= 1 {
		return nil, fmt.Errorf("sgp4: eccentricity %g out of range [0,1)", el.Eccentricity)
	}
	if el.MeanMotion <= 0 {
		return nil, fmt.Errorf("sgp4: non-positive mean motion")
	}

	d := &derived{el: el}

	cosio := math.Cos(el.Inclination)
	theta2 := cosio * cosio
	x3thm1 := 3.0*theta2 - 1.0
	eosq := el.Eccentricity * el.Eccentricity
	betao2 := 1.0 - eosq
	betao := math.Sqrt(betao2)

	a1 := math.Pow(xke/el.MeanMotion, 2.0/3.0)
	del1 := 1.5 * ck2 * x3thm1 / (a1 * a1 * betao * betao2)
	ao := a1 * (1.0 - del1*(0.5*(2.0/3.0)+del1*(1.0+134.0/81.0*del1)))
	delo := 1.5 * ck2 * x3thm1 / (ao * ao * betao * betao2)
	xnodp := el.MeanMotion / (1.0 + delo)
	aodp := ao / (1.0 - delo)

	simplified := (aodp*(1.0-el.Eccentricity) - 1.0) < (220.0 / earthRadiusKM)

	s4 := s0
	qoms24 := qoms2t
	perigeeKM := (aodp*(1.0-el.Eccentricity) - 1.0) * earthRadiusKM
	if perigeeKM < 156.0 {
		s4 = perigeeKM - 78.0
		if perigeeKM <= 98.0 {
			s4 = 20.0
		}
		qoms24 = math.Pow((120.0-s4)/earthRadiusKM, 4.0)
		s4 = s4/earthRadiusKM + 1.0
	}

	pinvsq := 1.0 / (aodp * aodp * betao2 * betao2)
	tsi := 1.0 / (aodp - s4)
	eta := aodp * el.Eccentricity * tsi
	etasq := eta * eta
	eeta := el.Eccentricity * eta
	psisq := math.Abs(1.0 - etasq)
	coef := qoms24 * math.Pow(tsi, 4.0)
	coef1 := coef / math.Pow(psisq, 3.5)

	c2 := coef1 * xnodp * (aodp*(1.0+1.5*etasq+eeta*(4.0+etasq)) +
		0.75*ck2*tsi/psisq*x3thm1*(8.0+3.0*etasq*(8.0+etasq)))
	c1 := el.BStar * c2
	sinio := math.Sin(el.Inclination)
	a3ovk2 := -j3 / ck2
	c3 := coef * tsi * a3ovk2 * xnodp * sinio / el.Eccentricity
	x1mth2 := 1.0 - theta2
	c4 := 2.0 * xnodp * coef1 * aodp * betao2 * (eta*(2.0+0.5*etasq) +
		el.Eccentricity*(0.5+2.0*etasq) - 2.0*ck2*tsi/(aodp*psisq)*
		(-3.0*x3thm1*(1.0-2.0*eeta+etasq*(1.5-0.5*eeta))+
			0.75*x1mth2*(2.0*etasq-eeta*(1.0+etasq))*math.Cos(2.0*el.ArgPerigee)))
	c5 := 2.0 * coef1 * aodp * betao2 * (1.0 + 2.75*(etasq+eeta) + eeta*etasq)

	theta4 := theta2 * theta2
	temp1 := 3.0 * ck2 * pinvsq * xnodp
	temp2 := temp1 * ck2 * pinvsq
	temp3 := 1.25 * ck4 * pinvsq * pinvsq * xnodp

	xmdot := xnodp + 0.5*temp1*betao*x3thm1 + 0.0625*temp2*betao*(13.0-78.0*theta2+137.0*theta4)
	x1m5th := 1.0 - 5.0*theta2
	omgdot := -0.5*temp1*x1m5th + 0.0625*temp2*(7.0-114.0*theta2+395.0*theta4) +
		temp3*(3.0-36.0*theta2+49.0*theta4)
	xhdot1 := -temp1 * cosio
	xnodot := xhdot1 + (0.5*temp2*(4.0-19.0*theta2)+2.0*temp3*(3.0-7.0*theta2))*cosio

	omgcof := el.BStar * c3 * math.Cos(el.ArgPerigee)
	xmcof := -(2.0 / 3.0) * coef * el.BStar / eeta
	xnodcf := 3.5 * betao2 * xhdot1 * c1
	t2cof := 1.5 * c1
	xlcof := 0.125 * a3ovk2 * sinio * (3.0 + 5.0*cosio) / (1.0 + cosio)
	aycof := 0.25 * a3ovk2 * sinio
	delmo := math.Pow(1.0+eta*math.Cos(el.MeanAnomaly), 3.0)
	sinmo := math.Sin(el.MeanAnomaly)
	x7thm1 := 7.0*theta2 - 1.0

	var d2, d3, d4, t3cof, t4cof, t5cof float64
	if !simplified {
		c1sq := c1 * c1
		d2 = 4.0 * aodp * tsi * c1sq
		temp := d2 * tsi * c1 / 3.0
		d3 = (17.0*aodp + s4) * temp
		d4 = 0.5 * temp * aodp * tsi * (221.0*aodp + 31.0*s4) * c1
		t3cof = d2 + 2.0*c1sq
		t4cof = 0.25 * (3.0*d3 + c1*(12.0*d2+10.0*c1sq))
		t5cof = 0.2 * (3.0*d4 + 12.0*c1*d3 + 6.0*d2*d2 + 15.0*c1sq*(2.0*d2+c1sq))
	}

	d.simplifiedModel = simplified
	d.xnodp, d.aodp, d.eta = xnodp, aodp, eta
	d.c1, d.c2, d.c3, d.c4, d.c5 = c1, c2, c3, c4, c5
	d.sinio, d.cosio, d.x3thm1, d.x1mth2, d.x7thm1 = sinio, cosio, x3thm1, x1mth2, x7thm1
	d.xmdot, d.omgdot, d.xnodot = xmdot, omgdot, xnodot
	d.omgcof, d.xmcof, d.xnodcf = omgcof, xmcof, xnodcf
	d.t2cof, d.xlcof, d.aycof = t2cof, xlcof, aycof
	d.delmo, d.sinmo = delmo, sinmo
	d.d2, d.d3, d.d4 = d2, d3, d4
	d.t3cof, d.t4cof, d.t5cof = t3cof, t4cof, t5cof

	return d, nil
}

// Propagate computes the TEME state at t, which may be before or after the
// element set's epoch. tsince is in minutes, matching SGP4's native time
// basis; the caller's epoch is stage 1's parsed epoch, never re-derived
// from TLE text (tle_reparse_prohibited).
func (d *derived) Propagate(t time.Time) (State, error) {
	tsince := t.Sub(d.el.Epoch).Minutes()

	el := d.el
	xmdf := el.MeanAnomaly + d.xmdot*tsince
	omgadf := el.ArgPerigee + d.omgdot*tsince
	xnoddf := el.RAAN + d.xnodot*tsince

	tsq := tsince * tsince
	xnode := xnoddf + d.xnodcf*tsq
	tempa := 1.0 - d.c1*tsince
	tempe := el.BStar * d.c4 * tsince
	templ := d.t2cof * tsq

	omega := omgadf
	xmp := xmdf

	if !d.simplifiedModel {
		delomg := d.omgcof * tsince
		delm := d.xmcof * (math.Pow(1.0+d.eta*math.Cos(xmdf), 3.0) - d.delmo)
		temp := delomg + delm
		xmp = xmdf + temp
		omega = omgadf - temp
		tcube := tsq * tsince
		tfour := tsince * tcube
		tempa -= d.d2*tsq + d.d3*tcube + d.d4*tfour
		tempe += el.BStar * d.c5 * (math.Sin(xmp) - d.sinmo)
		templ += d.t3cof*tcube + tfour*(d.t4cof+tsince*d.t5cof)
	}

	a := d.aodp * tempa * tempa
	e := el.Eccentricity - tempe
	xl := xmp + omega + xnode + d.xnodp*templ
	beta := math.Sqrt(1.0 - e*e)
	xn := xke / math.Pow(a, 1.5)

	// long-period periodics
	axn := e * math.Cos(omega)
	temp := 1.0 / (a * beta * beta)
	xll := temp * d.xlcof * axn
	aynl := temp * d.aycof
	xlt := xl + xll
	ayn := e*math.Sin(omega) + aynl

	// solve Kepler's equation
	capu := math.Mod(xlt-xnode, twoPi)
	epw := capu
	var sinepw, cosepw float64
	for i := 0; i < 10; i++ {
		sinepw = math.Sin(epw)
		cosepw = math.Cos(epw)
		t3 := axn * sinepw
		t4 := ayn * cosepw
		t5 := axn * cosepw
		t6 := ayn * sinepw
		next := (capu-t4+t3-epw)/(1.0-t5-t6) + epw
		if math.Abs(next-epw) <= epsConverge {
			epw = next
			break
		}
		epw = next
	}

	ecose := axn*cosepw + ayn*sinepw
	esine := axn*sinepw - ayn*cosepw
	elsq := axn*axn + ayn*ayn
	pl := a * (1.0 - elsq)
	r := a * (1.0 - ecose)
	rdot := xke * math.Sqrt(a) * esine / r
	rfdot := xke * math.Sqrt(pl) / r
	betal := math.Sqrt(1.0 - elsq)
	temp3 := 1.0 / (1.0 + betal)
	cosu := a / r * (cosepw - axn + ayn*esine*temp3)
	sinu := a / r * (sinepw - ayn - axn*esine*temp3)
	u := math.Atan2(sinu, cosu)
	sin2u := 2.0 * sinu * cosu
	cos2u := 2.0*cosu*cosu - 1.0

	tempCK := ck2 / pl
	temp1 := tempCK
	temp2 := tempCK / pl

	rk := r*(1.0-1.5*temp2*betal*d.x3thm1) + 0.5*temp1*d.x1mth2*cos2u
	uk := u - 0.25*temp2*d.x7thm1*sin2u
	xnodek := xnode + 1.5*temp2*d.cosio*sin2u
	xinck := el.Inclination + 1.5*temp2*d.cosio*d.sinio*cos2u
	rdotk := rdot - xn*temp1*d.x1mth2*sin2u
	rfdotk := rfdot + xn*temp1*(d.x1mth2*cos2u+1.5*d.x3thm1)

	sinuk, cosuk := math.Sin(uk), math.Cos(uk)
	sinik, cosik := math.Sin(xinck), math.Cos(xinck)
	sinnok, cosnok := math.Sin(xnodek), math.Cos(xnodek)

	mx := -sinnok * cosik
	my := cosnok * cosik
	ux := mx*sinuk + cosnok*cosuk
	uy := my*sinuk + sinnok*cosuk
	uz := sinik * sinuk
	vx := mx*cosuk - cosnok*sinuk
	vy := my*cosuk - sinnok*sinuk
	vz := sinik * cosuk

	var st State
	st.PositionKM[0] = rk * ux * earthRadiusKM
	st.PositionKM[1] = rk * uy * earthRadiusKM
	st.PositionKM[2] = rk * uz * earthRadiusKM

	// d(position)/d(minute) * (1 minute / 60 seconds) -> km/s
	velScale := earthRadiusKM / 60.0
	st.VelocityKMPS[0] = (rdotk*ux + rfdotk*vx) * velScale
	st.VelocityKMPS[1] = (rdotk*uy + rfdotk*vy) * velScale
	st.VelocityKMPS[2] = (rdotk*uz + rfdotk*vz) * velScale

	return st, nil
}

// SemiMajorAxisKM returns the orbit's semi-major axis in kilometers,
// usable for LEO/MEO/GEO regime classification.
func (d *derived) SemiMajorAxisKM() float64 {
	return d.aodp * earthRadiusKM
}

// OrbitalPeriod returns the Keplerian orbital period implied by the
// element set's mean motion.
func OrbitalPeriod(el Elements) time.Duration {
	revPerMin := el.MeanMotion / twoPi
	if revPerMin <= 0 {
		return 0
	}
	return time.Duration(1.0 / revPerMin * float64(time.Minute))
}
