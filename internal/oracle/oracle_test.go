package oracle

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jayjanssen/motor-monitor-bench/internal/schema"
)

func baseParams() Params {
	return Params{
		StartTime:                0,
		DurationSecs:             30,
		SensorSamplingIntervalMs: 1000,
		WindowSizeMs:             3000,
		MotorGroups:              2,
	}
}

func TestExpectedAlertsIsDeterministic(t *testing.T) {
	p := baseParams()
	a := ExpectedAlerts(p)
	b := ExpectedAlerts(p)
	assert.Equal(t, a, b)
}

func TestExpectedAlertsSortedByTime(t *testing.T) {
	// With the testsensor lookup tables no rule fires within the first 30 s;
	// a 600 s run yields overstrain and heat alerts from both motors.
	p := baseParams()
	p.DurationSecs = 600
	alerts := ExpectedAlerts(p)
	require.NotEmpty(t, alerts)
	for i := 1; i < len(alerts); i++ {
		assert.LessOrEqual(t, alerts[i-1].Time, alerts[i].Time)
	}
}

func TestCompareMatchesWithinTolerance(t *testing.T) {
	expected := []schema.Alert{{Time: 100.0, MotorID: 0, Failure: schema.FailureHeatDissipation}}
	received := []schema.Alert{{Time: 101.5, MotorID: 0, Failure: schema.FailureHeatDissipation}}
	mismatches := Compare(expected, received, 3.0)
	assert.Empty(t, mismatches)
}

func TestCompareReportsUnmatched(t *testing.T) {
	expected := []schema.Alert{{Time: 100.0, MotorID: 0, Failure: schema.FailureHeatDissipation}}
	received := []schema.Alert{{Time: 200.0, MotorID: 0, Failure: schema.FailurePower}}
	mismatches := Compare(expected, received, 3.0)
	require.Len(t, mismatches, 2)
	sides := map[string]bool{mismatches[0].Side: true, mismatches[1].Side: true}
	assert.True(t, sides["Expected"])
	assert.True(t, sides["Received"])
}

func TestCompareRejectsOutsideTolerance(t *testing.T) {
	expected := []schema.Alert{{Time: 100.0, MotorID: 0, Failure: schema.FailureHeatDissipation}}
	received := []schema.Alert{{Time: 110.0, MotorID: 0, Failure: schema.FailureHeatDissipation}}
	mismatches := Compare(expected, received, 3.0)
	assert.Len(t, mismatches, 2)
}

func TestReadAlertLogParsesAlertsAndDelays(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alert_protocol.csv")
	require.NoError(t, os.WriteFile(path, []byte(
		"0,100.5,HeatDissipation,0.25\n1,101.75,Overstrain,0.1\n",
	), 0o644))

	alerts, delays, err := ReadAlertLog(path)
	require.NoError(t, err)
	require.Len(t, alerts, 2)
	assert.Equal(t, schema.Alert{Time: 100.5, MotorID: 0, Failure: schema.FailureHeatDissipation}, alerts[0])
	assert.Equal(t, schema.Alert{Time: 101.75, MotorID: 1, Failure: schema.FailureOverstrain}, alerts[1])
	require.Len(t, delays, 2)
	assert.InDelta(t, 0.25, delays[0], 0.0001)
	assert.InDelta(t, 0.1, delays[1], 0.0001)
}

func TestReadAlertLogRejectsUnknownFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alert_protocol.csv")
	require.NoError(t, os.WriteFile(path, []byte("0,100.5,NotARealFailure,0.25\n"), 0o644))

	_, _, err := ReadAlertLog(path)
	assert.Error(t, err)
}
