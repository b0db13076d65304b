package telemetry

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, logrus.WarnLevel, ParseLevel("WARN"))
	assert.Equal(t, logrus.InfoLevel, ParseLevel(""))
	assert.Equal(t, logrus.InfoLevel, ParseLevel("bogus"))
}

func TestNewMetricsRegistersAllInstruments(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	m.MessagesIngested.Inc()
	m.AlertsEmitted.WithLabelValues("HeatDissipation").Inc()

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestWatchLevelFileAppliesChanges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "level")
	require.NoError(t, os.WriteFile(path, []byte("info"), 0o644))

	logger := NewLogger("info")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	applied := make(chan logrus.Level, 1)
	require.NoError(t, WatchLevelFile(ctx, logger, path, func(lvl logrus.Level) {
		applied <- lvl
	}))

	require.NoError(t, os.WriteFile(path, []byte("debug"), 0o644))

	select {
	case lvl := <-applied:
		assert.Equal(t, logrus.DebugLevel, lvl)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for level-file watcher to fire")
	}
}
