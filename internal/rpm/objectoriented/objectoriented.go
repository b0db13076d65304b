// Package objectoriented implements the ObjectOriented RPM: one goroutine
// per accepted sensor connection (owning its own sliding window, ticking
// on window_sampling_interval_ms) feeding a per-motor goroutine over an
// in-process channel, which holds the latest SensorAverage per sensor and
// evaluates the rule once all four are present. Grounded on
// original_source/motor_monitor_oo/src/{sensor,monitor}.rs.
package objectoriented

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
	rpm.Register(schema.RPMObjectOriented, func() rpm.Strategy { return &Strategy{} })
}

// Strategy is the ObjectOriented RPM.
type Strategy struct{}

// sensorAverage is the message a sensor actor sends its motor actor, one
// per window_sampling_interval_ms tick.
type sensorAverage struct {
	value     float64
	sensorID  uint32
	timestamp float64
}

// Run spawns one sensor actor per accepted connection; sensor actors
// discover (and lazily start) their motor's actor through motorRegistry,
// the in-process equivalent of an actor-per-motor supervisor.
func (s *Strategy) Run(ctx context.Context, cfg schema.MotorMonitorParameters, deps rpm.Deps) error {
	totalConns := cfg.TotalMotorGroups() * 4
	registry := newMotorRegistry(ctx, deps)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return ingest.Listener(egCtx, deps.Logger, cfg.SensorListenAddress, totalConns, func(connCtx context.Context, conn net.Conn) {
			runSensorActor(connCtx, deps, conn, cfg.WindowSizeMs, cfg.WindowSamplingIntervalMs, registry)
		})
	})
	return eg.Wait()
}

// motorRegistry lazily starts one motor actor goroutine per motor id,
// serialized through a single request channel so "does this motor already
// have an actor" is never a racing map read/write.
type motorRegistry struct {
	ctx  context.Context
	deps rpm.Deps
	get  chan motorActorRequest
}

type motorActorRequest struct {
	motorID uint32
	reply   chan chan<- sensorAverage
}

func newMotorRegistry(ctx context.Context, deps rpm.Deps) *motorRegistry {
	r := &motorRegistry{ctx: ctx, deps: deps, get: make(chan motorActorRequest)}
	go r.run()
	return r
}

func (r *motorRegistry) run() {
	motors := make(map[uint32]chan sensorAverage)
	for {
		select {
		case <-r.ctx.Done():
			return
		case req := <-r.get:
			inbox, ok := motors[req.motorID]
			if !ok {
				inbox = make(chan sensorAverage, 16)
				motors[req.motorID] = inbox
				go runMotorActor(r.ctx, r.deps, req.motorID, inbox)
			}
			req.reply <- inbox
		}
	}
}

func (r *motorRegistry) inboxFor(motorID uint32) chan<- sensorAverage {
	reply := make(chan chan<- sensorAverage, 1)
	select {
	case r.get <- motorActorRequest{motorID: motorID, reply: reply}:
		return <-reply
	case <-r.ctx.Done():
		return nil
	}
}

// runSensorActor reads one sensor's stream, maintains its own sliding
// window, and on every hop interval sends the current average to its
// motor's actor.
func runSensorActor(ctx context.Context, deps rpm.Deps, conn net.Conn, windowSizeMs, hopMs int64, registry *motorRegistry) {
	defer conn.Close()
	reader := wire.NewReader(conn, 0)
	w := window.New(float64(windowSizeMs) / 1000.0)

	hop := time.Duration(hopMs) * time.Millisecond
	if hop <= 0 {
		hop = 500 * time.Millisecond
	}
	ticker := time.NewTicker(hop)
	defer ticker.Stop()

	msgs := make(chan schema.SensorMessage)
	go func() {
		defer close(msgs)
		for {
			conn.SetReadDeadline(time.Now().Add(ingest.ReadDeadline))
			var msg schema.SensorMessage
			if err := reader.Next(&msg); err != nil {
				return
			}
			select {
			case msgs <- msg:
			case <-ctx.Done():
				return
			}
		}
	}()

	var sensorID uint32
	var inbox chan<- sensorAverage
	var haveIdentity bool
	var latestTs float64

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			if !haveIdentity {
				sensorID = msg.SensorID
				inbox = registry.inboxFor(msg.MotorID())
				haveIdentity = true
			}
			deps.Metrics.MessagesIngested.Inc()
			w.Append(msg.Timestamp, msg.Reading)
			if msg.Timestamp > latestTs {
				latestTs = msg.Timestamp
			}
		case <-ticker.C:
			if !haveIdentity || inbox == nil {
				continue
			}
			avg, _, maxTs, ok := w.Average(latestTs)
			if !ok {
				continue
			}
			select {
			case inbox <- sensorAverage{value: avg, sensorID: sensorID, timestamp: maxTs}:
			case <-ctx.Done():
				return
			}
		}
	}
}

// runMotorActor owns the four latest sensor averages for one motor, the
// actor body original_source/motor_monitor_oo/src/monitor.rs's
// MotorMonitor::run plays.
func runMotorActor(ctx context.Context, deps rpm.Deps, motorID uint32, inbox <-chan sensorAverage) {
	var slots [4]*sensorAverage
	var resetAge float64
	haveReset := false

	for {
		select {
		case <-ctx.Done():
			return
		case sa, ok := <-inbox:
			if !ok {
				return
			}
			idx := sa.sensorID & 0x3
			saCopy := sa
			slots[idx] = &saCopy
			if !haveReset {
				resetAge = sa.timestamp
				haveReset = true
			}

			complete := true
			for _, slot := range slots {
				if slot == nil {
					complete = false
					break
				}
			}
			if !complete {
				continue
			}

			age := slots[schema.SensorTorque].timestamp - resetAge
			failure, fired := rules.Evaluate(
				slots[schema.SensorAirTemperature].value,
				slots[schema.SensorProcessTemperature].value,
				slots[schema.SensorRotationalSpeed].value,
				slots[schema.SensorTorque].value,
				age,
			)
			if !fired {
				continue
			}

			youngest := slots[0].timestamp
			for _, slot := range slots {
				if slot.timestamp > youngest {
					youngest = slot.timestamp
				}
			}

			alert := schema.Alert{Time: youngest, MotorID: uint16(motorID), Failure: failure}
			if err := deps.Sink.Emit(ctx, alert); err != nil {
				deps.Logger.WithError(err).Warn("objectoriented: emitting alert")
				continue
			}
			deps.Metrics.AlertsEmitted.WithLabelValues(failure.String()).Inc()

			for i := range slots {
				slots[i] = nil
			}
			resetAge = youngest
		}
	}
}
