package benchdata

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jayjanssen/motor-monitor-bench/internal/schema"
)

func TestCollectReturnsUsageCounters(t *testing.T) {
	data, err := Collect(42, schema.BenchmarkMotorMonitor)
	require.NoError(t, err)
	require.Equal(t, uint32(42), data.ID)
	require.Equal(t, schema.BenchmarkMotorMonitor, data.Kind)
}
