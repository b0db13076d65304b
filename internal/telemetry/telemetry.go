// Package telemetry wires the ambient logging, metrics and tracing every
// RPM and command reports through. Structured logging follows a
// RUST_LOG-style level parsing scheme; the counters follow the shape of a
// metric cache (current/previous snapshots addressable by name) but are
// backed by real Prometheus instruments instead of a hand-rolled index,
// since this repo actually ships a /metrics endpoint.
package telemetry

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// Metrics holds every counter/gauge the monitor reports, grouped by
// domain the same way a MySQL status-counter cache groups its counters.
type Metrics struct {
	MessagesIngested prometheus.Counter
	FramesDropped    *prometheus.CounterVec
	WindowsEvicted   prometheus.Counter
	AlertsEmitted    *prometheus.CounterVec
	WindowFillLevel  prometheus.Gauge
}

// NewMetrics registers every instrument against reg and returns the bundle.
// cmd/motor-monitor passes its own prometheus.NewRegistry(), which backs its
// /metrics handler; tests pass a fresh registry each so repeated calls never
// collide.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		MessagesIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "motor_monitor",
			Name:      "messages_ingested_total",
			Help:      "Sensor messages successfully decoded off the wire.",
		}),
		FramesDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "motor_monitor",
			Name:      "frames_dropped_total",
			Help:      "Frames dropped during ingest, labeled by reason.",
		}, []string{"reason"}),
		WindowsEvicted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "motor_monitor",
			Name:      "window_entries_evicted_total",
			Help:      "Sliding window entries aged out across all motors.",
		}),
		AlertsEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "motor_monitor",
			Name:      "alerts_emitted_total",
			Help:      "Alerts emitted, labeled by failure mode.",
		}, []string{"failure"}),
		WindowFillLevel: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "motor_monitor",
			Name:      "window_fill_level",
			Help:      "Most recently observed sliding window entry count.",
		}),
	}
	reg.MustRegister(m.MessagesIngested, m.FramesDropped, m.WindowsEvicted, m.AlertsEmitted, m.WindowFillLevel)
	return m
}

// NewLogger builds a logrus.Logger with its level parsed the same way the
// RUST_LOG environment variable is interpreted by the original
// implementation: a bare level name, case-insensitive, defaulting to info
// on anything unrecognized rather than failing startup over a log setting.
func NewLogger(levelName string) *logrus.Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	l.SetLevel(ParseLevel(levelName))
	return l
}

// ParseLevel maps a RUST_LOG-style level name to a logrus.Level, defaulting
// to Info for an empty or unrecognized value instead of erroring -- log
// verbosity is never the reason a run should fail to start.
func ParseLevel(name string) logrus.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "trace":
		return logrus.TraceLevel
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// WatchLevelFile watches path for writes and calls apply with the file's
// trimmed contents on every change, letting an operator raise or lower a
// running monitor's log verbosity without a restart. It runs until ctx is
// canceled; watch errors are logged through logger rather than propagated,
// since a broken watch should degrade to "verbosity is now fixed", not
// crash the monitor.
func WatchLevelFile(ctx context.Context, logger *logrus.Logger, path string, apply func(logrus.Level)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("telemetry: creating level-file watcher: %w", err)
	}
	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return fmt.Errorf("telemetry: watching %s: %w", path, err)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				data, err := os.ReadFile(path)
				if err != nil {
					logger.WithError(err).Warn("telemetry: reading level file")
					continue
				}
				apply(ParseLevel(string(data)))
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.WithError(err).Warn("telemetry: level-file watcher error")
			}
		}
	}()
	return nil
}
