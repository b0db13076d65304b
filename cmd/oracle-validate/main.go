// Command oracle-validate wraps internal/oracle so a previously captured
// alert_protocol.csv can be checked offline against the deterministic
// oracle, instead of only inline as one step of a live test-driver run --
// the supplemented feature mirroring
// original_source/test_driver/src/validator.rs being invoked as its own
// pass from original_source/test_driver/src/main.rs.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/jayjanssen/motor-monitor-bench/internal/oracle"
)

const (
	OK int = iota
	BAD_ARGS
	MISMATCH
)

func main() {
	startTime := flag.Float64("start-time", 0, "run start time, epoch seconds")
	duration := flag.Uint64("duration", 0, "run duration, seconds")
	samplingIntervalMs := flag.Int64("sensor-sampling-interval-ms", 100, "sensor sampling interval, milliseconds")
	windowSizeMs := flag.Int64("window-size-ms", 1000, "sliding window size, milliseconds")
	motorGroups := flag.Int("motor-groups", 1, "number of motor groups in the run")
	tolerance := flag.Float64("tolerance-seconds", 1.0, "match tolerance between expected and received alert timestamps, seconds")

	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage:\n  oracle-validate [flags] alert_protocol.csv")
		fmt.Fprintln(os.Stderr, "Options:")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(BAD_ARGS)
	}

	received, _, err := oracle.ReadAlertLog(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "oracle-validate: %v\n", err)
		os.Exit(BAD_ARGS)
	}

	expected := oracle.ExpectedAlerts(oracle.Params{
		StartTime:                *startTime,
		DurationSecs:             *duration,
		SensorSamplingIntervalMs: *samplingIntervalMs,
		WindowSizeMs:             *windowSizeMs,
		MotorGroups:              *motorGroups,
	})

	mismatches := oracle.Compare(expected, received, *tolerance)

	fmt.Printf("expected=%d received=%d mismatches=%d\n", len(expected), len(received), len(mismatches))
	for _, m := range mismatches {
		fmt.Printf("%s only: motor_id=%d time=%.3f failure=%s\n", m.Side, m.Alert.MotorID, m.Alert.Time, m.Alert.Failure)
	}

	if len(mismatches) > 0 {
		os.Exit(MISMATCH)
	}
	os.Exit(OK)
}
