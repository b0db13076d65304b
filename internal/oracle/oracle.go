// Package oracle reconstructs the alert sequence a correct monitor should
// have produced for a given run, purely from run parameters, and compares
// it against a recorded alert log. It is the independent reference every
// RPM is measured against.
package oracle

import (
	"sort"

	"github.com/jayjanssen/motor-monitor-bench/internal/rules"
	"github.com/jayjanssen/motor-monitor-bench/internal/schema"
	"github.com/jayjanssen/motor-monitor-bench/internal/testsensor"
)

// Params describes the run being replayed. It mirrors the handful of
// MotorMonitorParameters fields the oracle actually needs.
type Params struct {
	StartTime                float64
	DurationSecs             uint64
	SensorSamplingIntervalMs int64
	WindowSizeMs             int64
	MotorGroups              int
}

// ExpectedAlerts regenerates every motor's four sensor streams
// deterministically and replays the rule evaluator over them, using a
// fixed-size reference window of windowSize/samplingInterval most recent
// samples rather than a time-bounded one -- the oracle works off a
// perfectly regular synthetic clock, so sample count and elapsed time
// agree exactly.
func ExpectedAlerts(p Params) []schema.Alert {
	windowLen := int(p.WindowSizeMs / p.SensorSamplingIntervalMs)
	if windowLen < 1 {
		windowLen = 1
	}

	var alerts []schema.Alert
	for motorID := 0; motorID < p.MotorGroups; motorID++ {
		alerts = append(alerts, motorAlerts(uint32(motorID), p, windowLen)...)
	}
	sort.Slice(alerts, func(i, j int) bool { return alerts[i].Time < alerts[j].Time })
	return alerts
}

func motorAlerts(motorID uint32, p Params, windowLen int) []schema.Alert {
	var streams [4][]testsensor.Sample
	for idx := 0; idx < 4; idx++ {
		streams[idx] = testsensor.Stream(motorID, schema.SensorIndex(idx), p.StartTime, p.DurationSecs, p.SensorSamplingIntervalMs)
	}
	if len(streams[0]) == 0 {
		return nil
	}

	var alerts []schema.Alert
	resetTime := streams[0][0].Timestamp
	for i := range streams[0] {
		airTemp := windowAverage(streams[0], i, windowLen)
		processTemp := windowAverage(streams[1], i, windowLen)
		rotSpeed := windowAverage(streams[2], i, windowLen)
		torque := windowAverage(streams[3], i, windowLen)
		now := streams[0][i].Timestamp
		age := now - resetTime

		failure, fired := rules.Evaluate(airTemp, processTemp, rotSpeed, torque, age)
		if !fired {
			continue
		}
		alerts = append(alerts, schema.Alert{
			Time:    now,
			MotorID: uint16(motorID),
			Failure: failure,
		})
		resetTime = now
	}
	return alerts
}

// windowAverage averages the windowLen most recent samples up to and
// including position i (the same "position - window .. position"
// reference window original_source/test_driver/src/validator.rs computes).
func windowAverage(samples []testsensor.Sample, i, windowLen int) float64 {
	start := i - windowLen + 1
	if start < 0 {
		start = 0
	}
	var sum float64
	n := 0
	for j := start; j <= i; j++ {
		sum += float64(samples[j].Reading)
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// Mismatch describes one alert present on only one side of a comparison.
type Mismatch struct {
	Side  string // "Expected" or "Received"
	Alert schema.Alert
}

// Compare merges expected and received alerts, both assumed sorted by
// time, via a pointer-walk matching two alerts when motor_id and failure
// agree and their timestamps (both in epoch seconds) are within
// toleranceSeconds of each other -- the "±window_size" tolerance spec.md
// §4.7 describes, expressed in the same unit as Alert.Time.
// Everything left unmatched is reported as a Mismatch.
func Compare(expected, received []schema.Alert, toleranceSeconds float64) []Mismatch {
	matchedExpected := make([]bool, len(expected))
	matchedReceived := make([]bool, len(received))

	for i, e := range expected {
		for j, r := range received {
			if matchedReceived[j] {
				continue
			}
			if alertsMatch(e, r, toleranceSeconds) {
				matchedExpected[i] = true
				matchedReceived[j] = true
				break
			}
		}
	}

	var mismatches []Mismatch
	for i, ok := range matchedExpected {
		if !ok {
			mismatches = append(mismatches, Mismatch{Side: "Expected", Alert: expected[i]})
		}
	}
	for j, ok := range matchedReceived {
		if !ok {
			mismatches = append(mismatches, Mismatch{Side: "Received", Alert: received[j]})
		}
	}
	sort.Slice(mismatches, func(i, j int) bool { return mismatches[i].Alert.Time < mismatches[j].Alert.Time })
	return mismatches
}

func alertsMatch(expected, received schema.Alert, toleranceSeconds float64) bool {
	if expected.Failure != received.Failure || expected.MotorID != received.MotorID {
		return false
	}
	diff := expected.Time - received.Time
	if diff < 0 {
		diff = -diff
	}
	return diff <= toleranceSeconds
}
