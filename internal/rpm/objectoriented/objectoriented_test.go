package objectoriented

import (
	"context"
	"io"
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

func TestObjectOrientedEmitsHeatDissipationAlert(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	cfg := schema.MotorMonitorParameters{
		RPM:                      schema.RPMObjectOriented,
		NumberOfTCPMotorGroups:   1,
		WindowSizeMs:             3000,
		WindowSamplingIntervalMs: 200,
		SensorListenAddress:      addr,
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

	dialAndStream(t, addr, 0, 300)
	dialAndStream(t, addr, 1, 300)
	dialAndStream(t, addr, 2, 1000)
	dialAndStream(t, addr, 3, 40)

	require.Eventually(t, func() bool {
		return len(sink.snapshot()) > 0
	}, 3*time.Second, 20*time.Millisecond)

	alerts := sink.snapshot()
	require.NotEmpty(t, alerts)
	require.Equal(t, schema.FailureHeatDissipation, alerts[0].Failure)
}

func dialAndStream(t *testing.T, addr string, sensorID uint32, reading float32) {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	go func() {
		defer conn.Close()
		for i := 0; i < 20; i++ {
			msg := schema.SensorMessage{Reading: reading, SensorID: sensorID, Timestamp: float64(i) * 0.1}
			if err := wire.WriteFrame(conn, msg); err != nil {
				return
			}
			time.Sleep(15 * time.Millisecond)
		}
		time.Sleep(300 * time.Millisecond)
	}()
}
