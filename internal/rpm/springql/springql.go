// Package springql implements the SpringQL RPM: one source reader per
// sensor connection, all accepted on the shared sensor listener, feeding
// its motor's join actor, which performs a hand-rolled
// LEFT OUTER JOIN-shaped merge keyed on the oldest of the four sensors'
// window timestamps, with the derived "temperature_difference" and
// "power" columns compiled once as expr-lang/expr row expressions rather
// than hard-coded Go arithmetic — the declarative column layer spec.md
// §9's design note calls for in place of an actual streaming-SQL engine.
// Grounded on original_source/motor_monitor_sql/src/main.rs's
// per-motor pipeline topology (source -> window -> join -> sink).
package springql

import (
	"context"
	"fmt"
	"math"
	"net"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"golang.org/x/sync/errgroup"

	"github.com/jayjanssen/motor-monitor-bench/internal/ingest"
	"github.com/jayjanssen/motor-monitor-bench/internal/rpm"
	"github.com/jayjanssen/motor-monitor-bench/internal/rules"
	"github.com/jayjanssen/motor-monitor-bench/internal/schema"
	"github.com/jayjanssen/motor-monitor-bench/internal/wire"
	"github.com/jayjanssen/motor-monitor-bench/internal/window"
)

func init() {
	rpm.Register(schema.RPMSpringQL, func() rpm.Strategy { return &Strategy{} })
}

// Strategy is the SpringQL RPM.
type Strategy struct{}

// columns holds the two compiled row expressions every motor actor shares.
// They are read-only after compileColumns returns, so sharing one *vm.Program
// pair across every motor goroutine needs no locking.
type columns struct {
	tempDiff *vm.Program
	power    *vm.Program
}

func compileColumns() (*columns, error) {
	tempDiffEnv := map[string]interface{}{"air_temp": 0.0, "process_temp": 0.0}
	tempDiff, err := expr.Compile("abs(air_temp - process_temp)", expr.Env(tempDiffEnv), expr.Function("abs", func(args ...interface{}) (interface{}, error) {
		return math.Abs(args[0].(float64)), nil
	}))
	if err != nil {
		return nil, fmt.Errorf("springql: compiling temperature_difference column: %w", err)
	}

	powerEnv := map[string]interface{}{"torque": 0.0, "rot_speed": 0.0}
	power, err := expr.Compile("torque * (rot_speed * 2 * 3.141592653589793 / 60)", expr.Env(powerEnv))
	if err != nil {
		return nil, fmt.Errorf("springql: compiling power column: %w", err)
	}

	return &columns{tempDiff: tempDiff, power: power}, nil
}

func (c *columns) temperatureDifference(air, process float64) (float64, error) {
	out, err := expr.Run(c.tempDiff, map[string]interface{}{"air_temp": air, "process_temp": process})
	if err != nil {
		return 0, err
	}
	return out.(float64), nil
}

func (c *columns) computedPower(torque, rotSpeed float64) (float64, error) {
	out, err := expr.Run(c.power, map[string]interface{}{"torque": torque, "rot_speed": rotSpeed})
	if err != nil {
		return 0, err
	}
	return out.(float64), nil
}

// Run accepts the expected sensor connections and routes each to its
// motor's source reader through motorRegistry, the same lazy-actor
// lookup pattern internal/rpm/objectoriented uses.
func (s *Strategy) Run(ctx context.Context, cfg schema.MotorMonitorParameters, deps rpm.Deps) error {
	cols, err := compileColumns()
	if err != nil {
		return err
	}

	totalConns := cfg.TotalMotorGroups() * 4
	registry := newMotorRegistry(ctx, deps, cfg.WindowSizeMs, cols)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return ingest.Listener(egCtx, deps.Logger, cfg.SensorListenAddress, totalConns, func(connCtx context.Context, conn net.Conn) {
			runSourceReader(connCtx, deps, conn, registry)
		})
	})
	return eg.Wait()
}

// motorRegistry lazily starts one motor-join actor per motor id, the
// serialized lookup/create point every source reader calls through.
type motorRegistry struct {
	ctx      context.Context
	deps     rpm.Deps
	windowMs int64
	cols     *columns
	get      chan motorActorRequest
}

type motorActorRequest struct {
	motorID uint32
	reply   chan chan<- schema.SensorMessage
}

func newMotorRegistry(ctx context.Context, deps rpm.Deps, windowMs int64, cols *columns) *motorRegistry {
	r := &motorRegistry{ctx: ctx, deps: deps, windowMs: windowMs, cols: cols, get: make(chan motorActorRequest)}
	go r.run()
	return r
}

func (r *motorRegistry) run() {
	motors := make(map[uint32]chan schema.SensorMessage)
	for {
		select {
		case <-r.ctx.Done():
			return
		case req := <-r.get:
			inbox, ok := motors[req.motorID]
			if !ok {
				inbox = make(chan schema.SensorMessage, 64)
				motors[req.motorID] = inbox
				go runMotorJoin(r.ctx, r.deps, req.motorID, r.windowMs, r.cols, inbox)
			}
			req.reply <- inbox
		}
	}
}

func (r *motorRegistry) inboxFor(motorID uint32) chan<- schema.SensorMessage {
	reply := make(chan chan<- schema.SensorMessage, 1)
	select {
	case r.get <- motorActorRequest{motorID: motorID, reply: reply}:
		return <-reply
	case <-r.ctx.Done():
		return nil
	}
}

// runSourceReader is one motor's worth of a single sensor connection: it
// decodes frames and forwards them to the motor's join actor, exactly the
// "source" stage of the per-motor pipeline.
func runSourceReader(ctx context.Context, deps rpm.Deps, conn net.Conn, registry *motorRegistry) {
	defer conn.Close()
	reader := wire.NewReader(conn, 0)

	var inbox chan<- schema.SensorMessage
	for {
		conn.SetReadDeadline(time.Now().Add(ingest.ReadDeadline))
		var msg schema.SensorMessage
		if err := reader.Next(&msg); err != nil {
			return
		}
		deps.Metrics.MessagesIngested.Inc()
		if inbox == nil {
			inbox = registry.inboxFor(msg.MotorID())
			if inbox == nil {
				return
			}
		}
		select {
		case inbox <- msg:
		case <-ctx.Done():
			return
		}
	}
}

// runMotorJoin owns one motor's four sensor windows and performs the
// merge-by-min_ts join: a row is only emitted once all four windows hold
// data no older than the window the slowest-updated sensor has reached.
func runMotorJoin(ctx context.Context, deps rpm.Deps, motorID uint32, windowMs int64, cols *columns, inbox <-chan schema.SensorMessage) {
	windowSecs := float64(windowMs) / 1000.0
	windows := [4]*window.SlidingWindow{
		window.New(windowSecs),
		window.New(windowSecs),
		window.New(windowSecs),
		window.New(windowSecs),
	}
	var resetAge float64
	haveReset := false
	var lastJoinTs float64
	haveJoin := false

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-inbox:
			if !ok {
				return
			}
			windows[msg.Index()].Append(msg.Timestamp, msg.Reading)
			if !haveReset {
				resetAge = msg.Timestamp
				haveReset = true
			}

			airAvg, _, airMaxTs, airOK := windows[schema.SensorAirTemperature].Average(msg.Timestamp)
			procAvg, _, procMaxTs, procOK := windows[schema.SensorProcessTemperature].Average(msg.Timestamp)
			speedAvg, _, speedMaxTs, speedOK := windows[schema.SensorRotationalSpeed].Average(msg.Timestamp)
			torqueAvg, _, torqueMaxTs, torqueOK := windows[schema.SensorTorque].Average(msg.Timestamp)
			if !airOK || !procOK || !speedOK || !torqueOK {
				continue
			}

			joinTs := airMaxTs
			for _, ts := range []float64{procMaxTs, speedMaxTs, torqueMaxTs} {
				if ts < joinTs {
					joinTs = ts
				}
			}
			// Evaluate each joined row once: skip rows whose min_ts was
			// already seen.
			if haveJoin && joinTs == lastJoinTs {
				continue
			}
			lastJoinTs = joinTs
			haveJoin = true

			tempDiff, err := cols.temperatureDifference(airAvg, procAvg)
			if err != nil {
				deps.Logger.WithError(err).Warn("springql: evaluating temperature_difference column")
				continue
			}
			power, err := cols.computedPower(torqueAvg, speedAvg)
			if err != nil {
				deps.Logger.WithError(err).Warn("springql: evaluating power column")
				continue
			}

			age := joinTs - resetAge
			failure, fired := rules.EvaluateRelevantData(tempDiff, speedAvg, power, torqueAvg, age)
			if !fired {
				continue
			}

			alert := schema.Alert{Time: joinTs, MotorID: uint16(motorID), Failure: failure}
			if err := deps.Sink.Emit(ctx, alert); err != nil {
				deps.Logger.WithError(err).Warn("springql: emitting alert")
				continue
			}
			deps.Metrics.AlertsEmitted.WithLabelValues(failure.String()).Inc()

			for _, w := range windows {
				w.Reset()
			}
			resetAge = joinTs
		}
	}
}
