package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jayjanssen/motor-monitor-bench/internal/schema"
)

func TestHeatDissipation(t *testing.T) {
	got, fired := Evaluate(300.0, 300.0, 1000.0, 40.0, 1.0)
	assert.True(t, fired)
	assert.Equal(t, schema.FailureHeatDissipation, got)
}

func TestPowerLow(t *testing.T) {
	got, fired := Evaluate(298.0, 308.5, 500.0, 10.0, 1.0)
	assert.True(t, fired)
	assert.Equal(t, schema.FailurePower, got)
}

func TestPowerHigh(t *testing.T) {
	got, fired := Evaluate(298.0, 308.5, 3000.0, 40.0, 1.0)
	assert.True(t, fired)
	assert.Equal(t, schema.FailurePower, got)
}

func TestOverstrainAfterAging(t *testing.T) {
	// power ~= 6283, in range; overstrain needs age*torque > 11000.
	got, fired := Evaluate(298.0, 308.5, 1500.0, 40.0, 1.0)
	assert.False(t, fired)
	assert.Equal(t, schema.FailureNone, got)

	got, fired = Evaluate(298.0, 308.5, 1500.0, 40.0, 276.0)
	assert.True(t, fired)
	assert.Equal(t, schema.FailureOverstrain, got)
}

func TestNoAlert(t *testing.T) {
	got, fired := Evaluate(298.0, 283.0, 1500.0, 30.0, 1.0)
	assert.False(t, fired)
	assert.Equal(t, schema.FailureNone, got)
}

func TestPrecedenceHeatBeatsPower(t *testing.T) {
	// diff 0 < 8.6 and rpm < 1380 satisfies heat; torque/speed pushed out of
	// the power band too, but heat must win.
	got, fired := Evaluate(300.0, 300.0, 100.0, 9999.0, 1.0)
	assert.True(t, fired)
	assert.Equal(t, schema.FailureHeatDissipation, got)
}

func TestPrecedencePowerBeatsOverstrain(t *testing.T) {
	// diff large enough to skip heat, power out of band, and age*torque also
	// over threshold -- power must win.
	got, fired := Evaluate(200.0, 300.0, 5000.0, 500.0, 1000.0)
	assert.True(t, fired)
	assert.Equal(t, schema.FailurePower, got)
}

func TestEvaluateRelevantDataSkipsRadConversion(t *testing.T) {
	// Feed a pre-folded temperature_difference and power directly; rotSpeed
	// here is only used by the heat predicate, not re-multiplied into power.
	got, fired := EvaluateRelevantData(100.0, 1500.0, 6283.0, 40.0, 1.0)
	assert.False(t, fired)
	assert.Equal(t, schema.FailureNone, got)
}

func TestOverstrainResetAge(t *testing.T) {
	assert.InDelta(t, 275.0, OverstrainResetAge(40.0), 0.01)
}
