package springql

import (
	"context"
	"io"
	"math"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/jayjanssen/motor-monitor-bench/internal/rpm"
	"github.com/jayjanssen/motor-monitor-bench/internal/schema"
	"github.com/jayjanssen/motor-monitor-bench/internal/telemetry"
	"github.com/jayjanssen/motor-monitor-bench/internal/wire"
)

type fakeSink struct {
	mu     sync.Mutex
	alerts []schema.Alert
}

func (f *fakeSink) Emit(ctx context.Context, alert schema.Alert) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alerts = append(f.alerts, alert)
	return nil
}

func (f *fakeSink) snapshot() []schema.Alert {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]schema.Alert, len(f.alerts))
	copy(out, f.alerts)
	return out
}

func TestCompileColumnsEvaluatesExpressions(t *testing.T) {
	cols, err := compileColumns()
	require.NoError(t, err)

	diff, err := cols.temperatureDifference(300, 295)
	require.NoError(t, err)
	require.InDelta(t, 5.0, diff, 1e-9)

	power, err := cols.computedPower(10, 60)
	require.NoError(t, err)
	require.InDelta(t, 10*60*2*math.Pi/60, power, 1e-6)
}

func TestSpringQLEmitsHeatDissipationAlert(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	cfg := schema.MotorMonitorParameters{
		RPM:                    schema.RPMSpringQL,
		NumberOfTCPMotorGroups: 1,
		WindowSizeMs:           3000,
		SensorListenAddress:    addr,
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	sink := &fakeSink{}
	deps := rpm.Deps{
		Logger:  logger,
		Metrics: telemetry.NewMetrics(prometheus.NewRegistry()),
		Sink:    sink,
	}

	strategy := &Strategy{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() { _ = strategy.Run(ctx, cfg, deps) }()
	time.Sleep(50 * time.Millisecond)

	// S1 HeatDissipation: air==process==300 (diff 0), speed 1000 < 1380.
	dialAndStream(t, addr, 0, []float32{300, 300, 300, 300})
	dialAndStream(t, addr, 1, []float32{300, 300, 300, 300})
	dialAndStream(t, addr, 2, []float32{1000, 1000, 1000, 1000})
	dialAndStream(t, addr, 3, []float32{40, 40, 40, 40})

	require.Eventually(t, func() bool {
		return len(sink.snapshot()) > 0
	}, 2*time.Second, 20*time.Millisecond)

	alerts := sink.snapshot()
	require.NotEmpty(t, alerts)
	require.Equal(t, schema.FailureHeatDissipation, alerts[0].Failure)
}

func dialAndStream(t *testing.T, addr string, sensorID uint32, readings []float32) {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	go func() {
		defer conn.Close()
		for i, r := range readings {
			msg := schema.SensorMessage{Reading: r, SensorID: sensorID, Timestamp: float64(i) * 0.2}
			if err := wire.WriteFrame(conn, msg); err != nil {
				return
			}
			time.Sleep(20 * time.Millisecond)
		}
		time.Sleep(200 * time.Millisecond)
	}()
}
