// Package rules implements the pure failure-mode evaluator shared by every
// RPM and by the oracle validator. It is deliberately side-effect free: no
// logging, no I/O, so that all four RPM implementations and the validator
// can call the exact same function and never drift from each other.
package rules

import (
	"math"

	"github.com/jayjanssen/motor-monitor-bench/internal/schema"
)

const (
	heatDissipationTempDelta = 8.6
	heatDissipationMaxRPM    = 1380.0
	powerLowBound            = 3500.0
	powerHighBound           = 9000.0
	overstrainThreshold      = 11000.0
)

// rpmToRad converts rotational speed in RPM to radians/second.
func rpmToRad(rpm float64) float64 {
	return rpm * 2 * math.Pi / 60
}

// Evaluate applies the three failure predicates in precedence order --
// HeatDissipation, then Power, then Overstrain -- to a motor's four
// windowed sensor averages plus its age (seconds since the window was last
// reset). It recomputes power from torque and rotational speed, the same
// path the source's sensor_data_indicates_failure takes. The bool result
// reports whether any rule fired; it is false exactly when the failure is
// FailureNone, and saves callers from spelling that comparison out.
func Evaluate(airTemp, processTemp, rotSpeed, torque, ageSecs float64) (schema.MotorFailure, bool) {
	tempDiff := math.Abs(airTemp - processTemp)
	power := torque * rpmToRad(rotSpeed)
	return evaluate(tempDiff, rotSpeed, power, torque, ageSecs)
}

// EvaluateRelevantData applies the same predicates against the SpringQL
// topology's own pre-folded columns -- temperature_difference and power,
// both computed in-pipeline by the join stage's expr columns -- rather
// than the raw per-sensor temperatures and rotational speed Evaluate
// takes. It skips both the abs() and the rpm_to_rad conversion since
// SpringQL's columns have already folded them in upstream.
func EvaluateRelevantData(tempDiff, rotSpeed, power, torque, ageSecs float64) (schema.MotorFailure, bool) {
	return evaluate(tempDiff, rotSpeed, power, torque, ageSecs)
}

func evaluate(tempDiff, rotSpeed, power, torque, ageSecs float64) (schema.MotorFailure, bool) {
	switch {
	case tempDiff < heatDissipationTempDelta && rotSpeed < heatDissipationMaxRPM:
		return schema.FailureHeatDissipation, true
	case power < powerLowBound || power > powerHighBound:
		return schema.FailurePower, true
	case ageSecs*torque > overstrainThreshold:
		return schema.FailureOverstrain, true
	default:
		return schema.FailureNone, false
	}
}

// OverstrainResetAge is the minimum age, in seconds, that must elapse after
// an overstrain alert before the same motor can trigger overstrain again at
// the given torque. It is the inverse of the overstrain predicate and backs
// the alert-then-reset property every RPM must honor.
func OverstrainResetAge(torque float64) float64 {
	if torque <= 0 {
		return math.Inf(1)
	}
	return overstrainThreshold / torque
}
