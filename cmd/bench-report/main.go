// Command bench-report turns one run's raw artifacts -- the motor
// monitor's final BenchmarkData frame and the cloud collector's
// alert_protocol.csv -- into the single results row and alert-delay row
// original_source/data_aggregator/src/main.rs folds across many runs
// before plotting. Aggregating and charting across runs is left to
// whatever the caller builds on top of this (plotting pulls in an SVG/
// dataframe stack this repo's pack has no Go equivalent for); this
// command only produces one run's numbers.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/jayjanssen/motor-monitor-bench/internal/benchdata"
	"github.com/jayjanssen/motor-monitor-bench/internal/oracle"
	"github.com/jayjanssen/motor-monitor-bench/internal/schema"
	"github.com/jayjanssen/motor-monitor-bench/internal/wire"
)

const (
	OK int = iota
	BAD_ARGS
)

func main() {
	runID := flag.String("run-id", "", "identifier for this run, copied into the results row")
	rpmTag := flag.String("rpm", "", "RPM tag the run used")
	startTime := flag.Float64("start-time", 0, "run start time, epoch seconds")
	duration := flag.Uint64("duration", 0, "run duration, seconds")
	samplingIntervalMs := flag.Int64("sensor-sampling-interval-ms", 100, "sensor sampling interval, milliseconds")
	windowSizeMs := flag.Int64("window-size-ms", 1000, "sliding window size, milliseconds")
	motorGroups := flag.Int("motor-groups", 1, "number of motor groups in the run")
	delaysOut := flag.String("alert-delays-out", "", "optional path to also write the alert_delays.csv row")

	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage:\n  bench-report [flags] benchmark_data_frame alert_protocol.csv")
		fmt.Fprintln(os.Stderr, "Options:")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 2 {
		flag.Usage()
		os.Exit(BAD_ARGS)
	}

	rpm, ok := schema.ParseRPM(*rpmTag)
	if !ok {
		fmt.Fprintf(os.Stderr, "bench-report: unknown rpm tag %q\n", *rpmTag)
		os.Exit(BAD_ARGS)
	}

	data, err := readBenchmarkFrame(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "bench-report: %v\n", err)
		os.Exit(BAD_ARGS)
	}

	received, delays, err := oracle.ReadAlertLog(flag.Arg(1))
	if err != nil {
		fmt.Fprintf(os.Stderr, "bench-report: %v\n", err)
		os.Exit(BAD_ARGS)
	}

	expected := oracle.ExpectedAlerts(oracle.Params{
		StartTime:                *startTime,
		DurationSecs:             *duration,
		SensorSamplingIntervalMs: *samplingIntervalMs,
		WindowSizeMs:             *windowSizeMs,
		MotorGroups:              *motorGroups,
	})

	rec := benchdata.Record{
		RunID:              *runID,
		RPM:                rpm,
		Data:               data,
		AlertCount:         len(received),
		ExpectedAlertCount: len(expected),
	}

	w := benchdata.NewWriter(os.Stdout, benchdata.DefaultColumns)
	if err := w.WriteHeader(); err != nil {
		fmt.Fprintf(os.Stderr, "bench-report: writing header: %v\n", err)
		os.Exit(BAD_ARGS)
	}
	if err := w.WriteRecord(rec); err != nil {
		fmt.Fprintf(os.Stderr, "bench-report: writing record: %v\n", err)
		os.Exit(BAD_ARGS)
	}
	if err := w.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "bench-report: flushing: %v\n", err)
		os.Exit(BAD_ARGS)
	}

	if *delaysOut != "" {
		f, err := os.Create(*delaysOut)
		if err != nil {
			fmt.Fprintf(os.Stderr, "bench-report: creating %s: %v\n", *delaysOut, err)
			os.Exit(BAD_ARGS)
		}
		defer f.Close()
		if err := benchdata.WriteAlertDelays(f, delays); err != nil {
			fmt.Fprintf(os.Stderr, "bench-report: writing %s: %v\n", *delaysOut, err)
			os.Exit(BAD_ARGS)
		}
	}

	os.Exit(OK)
}

// readBenchmarkFrame reads the single framed BenchmarkData record
// motor-monitor writes to its stdout as its last action.
func readBenchmarkFrame(path string) (schema.BenchmarkData, error) {
	var data schema.BenchmarkData
	f, err := os.Open(path)
	if err != nil {
		return data, fmt.Errorf("reading %s: %w", path, err)
	}
	defer f.Close()

	if err := wire.NewReader(f, 0).Next(&data); err != nil {
		return data, fmt.Errorf("decoding benchmark frame in %s: %w", path, err)
	}
	return data, nil
}
