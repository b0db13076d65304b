package benchdata

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jayjanssen/motor-monitor-bench/internal/schema"
)

func TestWriterWritesHeaderAndRows(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, DefaultColumns)
	require.NoError(t, w.WriteHeader())
	require.NoError(t, w.WriteRecord(Record{
		RunID: "run-1",
		RPM:   schema.RPMClientServer,
		Data: schema.BenchmarkData{
			Kind:    schema.BenchmarkMotorMonitor,
			PeakRSS: 1024,
		},
		AlertCount:         3,
		ExpectedAlertCount: 3,
	}))
	require.NoError(t, w.Flush())

	out := buf.String()
	assert.Contains(t, out, "run_id,rpm,kind")
	assert.Contains(t, out, "run-1,ClientServer,MotorMonitor")
	assert.Contains(t, out, "1024")
}

func TestWriteAlertDelays(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteAlertDelays(&buf, []float64{0.1, 0.25, 1.0}))
	assert.Equal(t, "0.1,0.25,1\n", buf.String())
}
