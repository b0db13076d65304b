// Package clientserver implements the ClientServer RPM: a bounded worker
// pool of sensor readers feeding a single multi-producer single-consumer
// channel, serviced by one consumer goroutine that owns all per-motor
// state with no locking. Grounded on
// original_source/motor_monitor_cs/src/main.rs's ThreadPool-backed
// setup_tcp_sensor_handlers plus its channel-fed consumer loop.
package clientserver

import (
	"context"
	"net"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jayjanssen/motor-monitor-bench/internal/ingest"
	"github.com/jayjanssen/motor-monitor-bench/internal/rpm"
	"github.com/jayjanssen/motor-monitor-bench/internal/rules"
	"github.com/jayjanssen/motor-monitor-bench/internal/schema"
	"github.com/jayjanssen/motor-monitor-bench/internal/wire"
	"github.com/jayjanssen/motor-monitor-bench/internal/window"
)

func init() {
	rpm.Register(schema.RPMClientServer, func() rpm.Strategy { return &Strategy{} })
}

// Strategy is the ClientServer RPM.
type Strategy struct{}

type motorState struct {
	windows  [4]*window.SlidingWindow
	resetAge float64
	now      float64
}

// Run accepts the expected N*4 sensor connections with a bounded pool of
// worker goroutines, each of which forwards decoded messages to a single
// consumer goroutine that owns all motor state.
func (s *Strategy) Run(ctx context.Context, cfg schema.MotorMonitorParameters, deps rpm.Deps) error {
	totalConns := cfg.TotalMotorGroups() * 4
	messages := make(chan schema.SensorMessage, 256)
	sem := make(chan struct{}, cfg.ThreadPoolSize)

	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		defer close(messages)
		return ingest.Listener(egCtx, deps.Logger, cfg.SensorListenAddress, totalConns, func(connCtx context.Context, conn net.Conn) {
			sem <- struct{}{}
			defer func() { <-sem }()
			handleConnection(connCtx, deps, conn, messages)
		})
	})

	eg.Go(func() error {
		return consume(egCtx, cfg, deps, messages)
	})

	return eg.Wait()
}

func handleConnection(ctx context.Context, deps rpm.Deps, conn net.Conn, out chan<- schema.SensorMessage) {
	defer conn.Close()
	reader := wire.NewReader(conn, 0)
	for {
		conn.SetReadDeadline(time.Now().Add(ingest.ReadDeadline))
		var msg schema.SensorMessage
		if err := reader.Next(&msg); err != nil {
			return
		}
		deps.Metrics.MessagesIngested.Inc()
		select {
		case out <- msg:
		case <-ctx.Done():
			return
		}
	}
}

func consume(ctx context.Context, cfg schema.MotorMonitorParameters, deps rpm.Deps, messages <-chan schema.SensorMessage) error {
	motors := make(map[uint32]*motorState, cfg.TotalMotorGroups())
	windowSizeSecs := float64(cfg.WindowSizeMs) / 1000.0

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			motorID := msg.MotorID()
			m, ok := motors[motorID]
			if !ok {
				m = newMotorState(windowSizeSecs, msg.Timestamp)
				motors[motorID] = m
			}
			m.windows[msg.Index()].Append(msg.Timestamp, msg.Reading)
			if msg.Timestamp > m.now {
				m.now = msg.Timestamp
			}

			if err := evaluateMotor(ctx, deps, motorID, m); err != nil {
				return err
			}
		}
	}
}

func newMotorState(windowSizeSecs, resetAge float64) *motorState {
	m := &motorState{resetAge: resetAge}
	for i := range m.windows {
		m.windows[i] = window.New(windowSizeSecs)
	}
	return m
}

func evaluateMotor(ctx context.Context, deps rpm.Deps, motorID uint32, m *motorState) error {
	airAvg, _, airMaxTs, airOK := m.windows[schema.SensorAirTemperature].Average(m.now)
	procAvg, _, procMaxTs, procOK := m.windows[schema.SensorProcessTemperature].Average(m.now)
	speedAvg, _, speedMaxTs, speedOK := m.windows[schema.SensorRotationalSpeed].Average(m.now)
	torqueAvg, _, torqueMaxTs, torqueOK := m.windows[schema.SensorTorque].Average(m.now)
	if !airOK || !procOK || !speedOK || !torqueOK {
		return nil
	}

	youngest := airMaxTs
	for _, ts := range []float64{procMaxTs, speedMaxTs, torqueMaxTs} {
		if ts > youngest {
			youngest = ts
		}
	}
	age := m.now - m.resetAge

	failure, fired := rules.Evaluate(airAvg, procAvg, speedAvg, torqueAvg, age)
	if !fired {
		return nil
	}

	alert := schema.Alert{Time: youngest, MotorID: uint16(motorID), Failure: failure}
	if err := deps.Sink.Emit(ctx, alert); err != nil {
		return err
	}
	deps.Metrics.AlertsEmitted.WithLabelValues(failure.String()).Inc()

	for i := range m.windows {
		m.windows[i].Reset()
	}
	m.resetAge = m.now
	return nil
}
