// Package rpm defines the strategy interface every request-processing
// model implements, plus the registry cmd/motor-monitor selects from at
// startup. The registry mirrors the database/sql driver-registration
// idiom (blank-import a concrete RPM package for its init() to register
// itself) -- the standard Go way to wire a "tag selects one of several
// interchangeable implementations" startup path.
package rpm

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/jayjanssen/motor-monitor-bench/internal/schema"
	"github.com/jayjanssen/motor-monitor-bench/internal/telemetry"
)

// AlertSink is the single long-lived connection to the cloud collector
// every RPM writes its alerts through.
type AlertSink interface {
	Emit(ctx context.Context, alert schema.Alert) error
}

// Deps bundles the ambient services a Strategy needs beyond its run
// parameters, so Strategy.Run's signature doesn't grow a parameter every
// time a new ambient concern is wired in.
type Deps struct {
	Logger  *logrus.Logger
	Metrics *telemetry.Metrics
	Sink    AlertSink
}

// Strategy is implemented once per RPM. Run blocks until the sensor
// ingest listener has serviced every expected connection and every
// resulting stream has ended (read timeout, EOF, or ctx cancellation).
type Strategy interface {
	Run(ctx context.Context, cfg schema.MotorMonitorParameters, deps Deps) error
}

type factory func() Strategy

var registry = map[schema.RPM]factory{}

// Register adds an RPM implementation to the registry. Called from each
// implementation package's init().
func Register(tag schema.RPM, f factory) {
	registry[tag] = f
}

// New instantiates the registered Strategy for tag.
func New(tag schema.RPM) (Strategy, error) {
	f, ok := registry[tag]
	if !ok {
		return nil, fmt.Errorf("rpm: no strategy registered for %q", tag)
	}
	return f(), nil
}
