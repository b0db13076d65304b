// Package testsensor generates the deterministic sensor streams the oracle
// replays and that tests use to stand in for the out-of-scope sensor
// driver process. Every stream is reproducible from nothing but
// (motor id, sensor index, start time, duration, sampling interval): the
// same lookup-table-plus-seeded-selection scheme
// original_source/test_driver/src/validator.rs uses, with the seed and
// RNG chosen independently for this Go implementation rather than ported
// bit-for-bit from the Rust rand crate.
package testsensor

import (
	"math/rand"

	"github.com/jayjanssen/motor-monitor-bench/internal/schema"
)

// lookupTables holds a small fixed set of plausible readings per sensor
// index, standing in for the resources/{0..3}.txt data files the original
// sensor driver samples from.
var lookupTables = [4][]float32{
	// air temperature (K)
	{296.5, 297.0, 297.8, 298.5, 299.1, 300.0, 300.9, 301.4, 302.0, 303.2},
	// process temperature (K)
	{306.3, 307.1, 307.9, 308.5, 309.2, 310.0, 310.8, 311.5, 312.1, 313.0},
	// rotational speed (rpm)
	{1350, 1400, 1425, 1450, 1480, 1500, 1525, 1550, 1580, 1600},
	// torque (Nm)
	{30.0, 32.5, 35.1, 37.8, 40.2, 42.6, 44.9, 47.3, 49.8, 52.0},
}

// Table returns the fixed lookup table for the given sensor index.
func Table(index schema.SensorIndex) []float32 {
	return lookupTables[index]
}

// Seed returns the deterministic per-stream RNG seed. sensor_id already
// equals motor_id*4+sensor_index under this repo's encoding (see
// schema.SensorMessage.MotorID/Index), so the seed is just the sensor id
// itself.
func Seed(motorID uint32, index schema.SensorIndex) uint32 {
	return motorID*4 + uint32(index)
}

// Reading deterministically picks the stepIdx'th reading for the stream
// identified by seed, by re-deriving a fresh seeded RNG and discarding
// stepIdx draws -- this keeps Reading a pure function of (seed, stepIdx)
// with no mutable generator state for callers to thread through.
func Reading(seed uint32, index schema.SensorIndex, stepIdx int) float32 {
	table := Table(index)
	rng := rand.New(rand.NewSource(int64(seed)))
	var pick int
	for i := 0; i <= stepIdx; i++ {
		pick = rng.Intn(len(table))
	}
	return table[pick]
}

// Sample is one generated (timestamp, reading) point.
type Sample struct {
	Timestamp float64
	Reading   float32
}

// Stream generates the full deterministic reading sequence for one sensor
// over [startTime, startTime+durationSecs), sampled every
// samplingIntervalMs milliseconds.
func Stream(motorID uint32, index schema.SensorIndex, startTime float64, durationSecs uint64, samplingIntervalMs int64) []Sample {
	seed := Seed(motorID, index)
	table := Table(index)
	rng := rand.New(rand.NewSource(int64(seed)))

	step := float64(samplingIntervalMs) / 1000.0
	end := startTime + float64(durationSecs)

	var out []Sample
	for t := startTime; t < end; t += step {
		reading := table[rng.Intn(len(table))]
		out = append(out, Sample{Timestamp: t, Reading: reading})
	}
	return out
}

// Messages is Stream rendered as wire-ready SensorMessage records for the
// given sensor id (motorID*4+sensor index).
func Messages(motorID uint32, index schema.SensorIndex, startTime float64, durationSecs uint64, samplingIntervalMs int64) []schema.SensorMessage {
	sensorID := motorID*4 + uint32(index)
	samples := Stream(motorID, index, startTime, durationSecs, samplingIntervalMs)
	out := make([]schema.SensorMessage, len(samples))
	for i, s := range samples {
		out[i] = schema.SensorMessage{Reading: s.Reading, SensorID: sensorID, Timestamp: s.Timestamp}
	}
	return out
}
