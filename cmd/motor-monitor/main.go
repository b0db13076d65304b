// Command motor-monitor is the benchmark's subject under test: it is
// invoked by an external driver with a fixed positional argument list
// (see internal/config), ingests four sensors per motor group over TCP,
// evaluates the shared failure rules through whichever RPM strategy was
// requested, and forwards alerts to a cloud collector. Flag handling,
// profiling and signal trapping follow
// cli/myq-status/main.go's shape.
package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"runtime/pprof"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jayjanssen/motor-monitor-bench/internal/benchdata"
	"github.com/jayjanssen/motor-monitor-bench/internal/config"
	"github.com/jayjanssen/motor-monitor-bench/internal/rpm"
	"github.com/jayjanssen/motor-monitor-bench/internal/schema"
	"github.com/jayjanssen/motor-monitor-bench/internal/telemetry"
	"github.com/jayjanssen/motor-monitor-bench/internal/wire"

	_ "github.com/jayjanssen/motor-monitor-bench/internal/rpm/clientserver"
	_ "github.com/jayjanssen/motor-monitor-bench/internal/rpm/objectoriented"
	_ "github.com/jayjanssen/motor-monitor-bench/internal/rpm/reactivestreaming"
	_ "github.com/jayjanssen/motor-monitor-bench/internal/rpm/springql"
)

// Exit codes.
const (
	OK int = iota
	BAD_ARGS
	RUN_ERROR
)

func main() {
	logLevel := flag.String("log-level", "info", "log verbosity (trace, debug, info, warn, error)")
	flag.StringVar(logLevel, "l", "info", "short for -log-level")

	logLevelFile := flag.String("log-level-file", "", "if set, watch this file and apply its contents as the log level on every change")

	metricsAddr := flag.String("metrics-addr", "", "if set, serve Prometheus metrics on this address")
	flag.StringVar(metricsAddr, "m", "", "short for -metrics-addr")

	cnfFile := flag.String("cnf", "", "optional motor-monitor.cnf override file")

	profile := flag.String("profile", "", "enable CPU profiling and store the result in this file")
	flag.StringVar(profile, "p", "", "short for -profile")

	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage:\n  motor-monitor [flags] start_time duration rpm_tag n_tcp_motor_groups n_i2c_motor_groups window_size_ms sensor_listen_address monitor_listen_address window_sampling_interval_ms sensor_sampling_interval_ms thread_pool_size")
		fmt.Fprintln(os.Stderr, "Options:")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *profile != "" {
		f, err := os.Create(*profile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "motor-monitor: creating profile file: %v\n", err)
			os.Exit(BAD_ARGS)
		}
		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	cfg, err := config.ParseMonitorArgs(flag.Args(), *cnfFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "motor-monitor: %v\n", err)
		flag.Usage()
		os.Exit(BAD_ARGS)
	}

	logger := telemetry.NewLogger(*logLevel)

	watchCtx, stopWatch := context.WithCancel(context.Background())
	defer stopWatch()
	if *logLevelFile != "" {
		if err := telemetry.WatchLevelFile(watchCtx, logger, *logLevelFile, logger.SetLevel); err != nil {
			logger.WithError(err).Warn("motor-monitor: log level file watch disabled")
		}
	}

	reg := prometheus.NewRegistry()
	metrics := telemetry.NewMetrics(reg)
	if *metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		srv := &http.Server{Addr: *metricsAddr, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.WithError(err).Warn("motor-monitor: metrics server stopped")
			}
		}()
	}

	tp := telemetry.NewTracerProvider("motor-monitor")
	telemetry.SetGlobalTracerProvider(tp)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tp.Shutdown(shutdownCtx)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if cfg.StartTime > 0 && cfg.Duration > 0 {
		deadline := time.Unix(int64(cfg.StartTime), 0).Add(time.Duration(cfg.Duration) * time.Second)
		var cancel context.CancelFunc
		ctx, cancel = context.WithDeadline(ctx, deadline)
		defer cancel()
	}

	cloudConn, err := dialCloudCollector(ctx, cfg.MotorMonitorListenAddress)
	if err != nil {
		logger.WithError(err).Error("motor-monitor: dialing cloud collector")
		os.Exit(RUN_ERROR)
	}
	defer cloudConn.Close()

	strategy, err := rpm.New(cfg.RPM)
	if err != nil {
		logger.WithError(err).Error("motor-monitor: selecting RPM strategy")
		os.Exit(RUN_ERROR)
	}

	deps := rpm.Deps{Logger: logger, Metrics: metrics, Sink: rpm.NewTCPSink(cloudConn)}
	if err := strategy.Run(ctx, cfg, deps); err != nil && ctx.Err() == nil {
		logger.WithError(err).Error("motor-monitor: strategy run failed")
	}

	data, err := benchdata.Collect(uint32(os.Getpid()), schema.BenchmarkMotorMonitor)
	if err != nil {
		logger.WithError(err).Warn("motor-monitor: collecting resource counters")
	}
	if err := wire.WriteFrame(os.Stdout, data); err != nil {
		logger.WithError(err).Warn("motor-monitor: writing final benchmark record")
	}

	os.Exit(OK)
}

// dialCloudCollector dials addr with a bounded exponential backoff, the
// enrichment spec.md §9 calls for over the original processes' panic! on a
// failed initial dial.
func dialCloudCollector(ctx context.Context, addr string) (net.Conn, error) {
	var conn net.Conn
	var dialer net.Dialer

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = 30 * time.Second

	operation := func() error {
		c, err := dialer.DialContext(ctx, "tcp", addr)
		if err != nil {
			return err
		}
		conn = c
		return nil
	}

	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return nil, fmt.Errorf("motor-monitor: dialing cloud collector at %s: %w", addr, err)
	}
	return conn, nil
}
