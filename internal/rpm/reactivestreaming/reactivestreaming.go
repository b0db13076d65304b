// Package reactivestreaming implements the ReactiveStreaming RPM: sensor
// connections fan in to a single message stream, a time-hopped
// stream.SlidingWindow snapshots it every window_sampling_interval_ms, and
// each snapshot is flat-mapped (on a bounded pool) into per-motor averages
// and rule evaluations. Grounded on
// original_source/motor_monitor_rx/src/{main,rx_utils,sliding_window}.rs,
// reimplemented as channel operators from
// internal/rpm/reactivestreaming/stream instead of a reactive-extensions
// library.
package reactivestreaming

import (
	"context"
	"net"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jayjanssen/motor-monitor-bench/internal/ingest"
	"github.com/jayjanssen/motor-monitor-bench/internal/rpm"
	"github.com/jayjanssen/motor-monitor-bench/internal/rpm/reactivestreaming/stream"
	"github.com/jayjanssen/motor-monitor-bench/internal/rules"
	"github.com/jayjanssen/motor-monitor-bench/internal/schema"
	"github.com/jayjanssen/motor-monitor-bench/internal/wire"
)

func init() {
	rpm.Register(schema.RPMReactiveStreaming, func() rpm.Strategy { return &Strategy{} })
}

// Strategy is the ReactiveStreaming RPM.
type Strategy struct{}

// ageTracker holds, per motor id, the timestamp an alert last reset its
// age clock. A sync.RWMutex guards the map since every snapshot's worth of
// motor evaluations runs concurrently on the pool.
type ageTracker struct {
	mu   sync.RWMutex
	last map[uint32]float64
}

func newAgeTracker() *ageTracker {
	return &ageTracker{last: make(map[uint32]float64)}
}

func (a *ageTracker) age(motorID uint32, now float64) float64 {
	a.mu.RLock()
	reset, ok := a.last[motorID]
	a.mu.RUnlock()
	if !ok {
		a.mu.Lock()
		a.last[motorID] = now
		a.mu.Unlock()
		return 0
	}
	return now - reset
}

func (a *ageTracker) reset(motorID uint32, at float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.last[motorID] = at
}

// Run accepts the expected sensor connections, fans their decoded messages
// into one channel, windows that channel, and evaluates snapshots
// concurrently on a pool sized by cfg.ThreadPoolSize; the motors within
// one snapshot are evaluated one after another by the same pool task.
func (s *Strategy) Run(ctx context.Context, cfg schema.MotorMonitorParameters, deps rpm.Deps) error {
	totalConns := cfg.TotalMotorGroups() * 4
	messages := make(chan schema.SensorMessage, 256)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		defer close(messages)
		return ingest.Listener(egCtx, deps.Logger, cfg.SensorListenAddress, totalConns, func(connCtx context.Context, conn net.Conn) {
			handleConnection(connCtx, deps, conn, messages)
		})
	})

	hop := time.Duration(cfg.WindowSamplingIntervalMs) * time.Millisecond
	if hop <= 0 {
		hop = 500 * time.Millisecond
	}
	windowSize := time.Duration(cfg.WindowSizeMs) * time.Millisecond

	snapshots := stream.SlidingWindow(egCtx, messages, windowSize, hop, func(m schema.SensorMessage) time.Time {
		return time.Unix(0, int64(m.Timestamp*float64(time.Second)))
	})

	pool := stream.NewPool(poolSize(cfg.ThreadPoolSize))
	ages := newAgeTracker()
	alerts := stream.FlatMap(egCtx, pool, snapshots, func(snapshot []schema.SensorMessage) []schema.Alert {
		return evaluateSnapshot(snapshot, ages)
	})

	eg.Go(func() error {
		for {
			select {
			case <-egCtx.Done():
				return nil
			case alert, ok := <-alerts:
				if !ok {
					return nil
				}
				if err := deps.Sink.Emit(egCtx, alert); err != nil {
					deps.Logger.WithError(err).Warn("reactivestreaming: emitting alert")
					continue
				}
				deps.Metrics.AlertsEmitted.WithLabelValues(alert.Failure.String()).Inc()
			}
		}
	})

	return eg.Wait()
}

func poolSize(configured int) int {
	if configured <= 0 {
		return 4
	}
	return configured
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

type sensorAccumulator struct {
	sum   float64
	count int
	maxTs float64
}

// evaluateSnapshot groups one window snapshot by motor, then by sensor
// index within each motor, reduces each sensor's readings to an average,
// and evaluates the rule once a motor has all four sensors represented.
func evaluateSnapshot(snapshot []schema.SensorMessage, ages *ageTracker) []schema.Alert {
	var alerts []schema.Alert

	byMotor := stream.GroupBy(snapshot, func(m schema.SensorMessage) uint32 { return m.MotorID() })
	for motorID, motorMsgs := range byMotor {
		bySensor := stream.GroupBy(motorMsgs, func(m schema.SensorMessage) schema.SensorIndex { return m.Index() })

		accum := make(map[schema.SensorIndex]sensorAccumulator, 4)
		for idx, msgs := range bySensor {
			accum[idx] = stream.Reduce(msgs, sensorAccumulator{}, func(acc sensorAccumulator, m schema.SensorMessage) sensorAccumulator {
				acc.sum += float64(m.Reading)
				acc.count++
				if m.Timestamp > acc.maxTs {
					acc.maxTs = m.Timestamp
				}
				return acc
			})
		}

		air, hasAir := accum[schema.SensorAirTemperature]
		proc, hasProc := accum[schema.SensorProcessTemperature]
		speed, hasSpeed := accum[schema.SensorRotationalSpeed]
		torque, hasTorque := accum[schema.SensorTorque]
		if !hasAir || !hasProc || !hasSpeed || !hasTorque {
			continue
		}

		youngest := air.maxTs
		for _, ts := range []float64{proc.maxTs, speed.maxTs, torque.maxTs} {
			if ts > youngest {
				youngest = ts
			}
		}

		age := ages.age(motorID, youngest)
		failure, fired := rules.Evaluate(
			air.sum/float64(air.count),
			proc.sum/float64(proc.count),
			speed.sum/float64(speed.count),
			torque.sum/float64(torque.count),
			age,
		)
		if !fired {
			continue
		}

		alerts = append(alerts, schema.Alert{Time: youngest, MotorID: uint16(motorID), Failure: failure})
		ages.reset(motorID, youngest)
	}

	return alerts
}
