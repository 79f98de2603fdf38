package rvr

import (
	"math"
	"time"
)

// Rotations are dead reckoned: degrees are converted to a drive duration
// through an empirically fitted model and the tracks are driven in
// opposition for that long. No encoder feedback verifies the achieved
// angle, so drift accumulates over repeated turns.

const (
	// milliseconds per degree measured at the reference speed on a hard
	// floor
	turnBaseMsPerDegree = 7.2

	// speed the base duration was measured at
	turnReferenceSpeed = 100.0

	// extra drag at low speeds, fitted
	turnFrictionCoeff = 18.0

	// small turns overshoot less, large turns lag; fitted exponents
	turnAngleExponent = 0.08
	turnAnglePivot    = 90.0

	turnMinSpeed = 20
)

// TurnDuration converts a desired rotation into a drive time at the given
// track speed. Pure so it can be fitted and tested in isolation.
func TurnDuration(degrees float64, speed int) time.Duration {
	if degrees < 0 {
		degrees = -degrees
	}
	if speed < 0 {
		speed = -speed
	}
	if speed < turnMinSpeed {
		speed = turnMinSpeed
	}
	s := float64(clampSpeed(speed))

	// slower speeds need proportionally longer plus a friction term that
	// grows hyperbolically as the speed drops
	speedCorrection := (turnReferenceSpeed / s) * (1.0 + turnFrictionCoeff/s)

	// small angles finish proportionally faster, large ones slower
	angleCorrection := math.Pow(degrees/turnAnglePivot, turnAngleExponent)

	ms := turnBaseMsPerDegree * degrees * speedCorrection * angleCorrection

	return time.Duration(ms * float64(time.Millisecond))
}

// TurnDegrees rotates in place by driving the tracks in opposition for the
// modeled duration. Positive degrees turn clockwise. The wait is not
// preemptible; call Stop to end a turn early.
func (r *RVR) TurnDegrees(degrees float64, speed int) *RVR {
	if degrees == 0 {
		return r
	}

	speed = clampSpeed(speed)
	if speed < 0 {
		speed = -speed
	}

	d := TurnDuration(degrees, speed)

	r.log.Debug("Turn", "degrees", degrees, "speed", speed, "duration", d)

	if degrees > 0 {
		r.DriveTank(speed, -speed)
	} else {
		r.DriveTank(-speed, speed)
	}

	r.Wait(d).Stop()

	return r
}
