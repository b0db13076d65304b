// Package config builds a MotorMonitorParameters from the fixed positional
// command line the driver invokes motor-monitor with, layered the way the
// teacher's clientconf package layers MySQL connection settings: defaults
// first, then an optional INI override file, then explicit arguments win.
package config

import (
	"fmt"
	"strconv"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/viper"
	"gopkg.in/ini.v1"

	"github.com/jayjanssen/motor-monitor-bench/internal/schema"
)

// defaults mirrors the values clientconf.initCnf seeds a fresh [client]
// section with, reused here for the handful of settings a run can
// reasonably omit (thread pool size, window sampling cadence).
func defaults() *viper.Viper {
	v := viper.New()
	v.SetDefault("thread_pool_size", 8)
	v.SetDefault("window_sampling_interval_ms", 500)
	return v
}

// LoadOverrideFile reads an optional motor-monitor.cnf, INI-shaped the same
// way a .my.cnf file works, and folds any [monitor] keys it finds into v.
// A missing file is not an error -- it is genuinely optional.
func LoadOverrideFile(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}
	cnf, err := ini.LoadSources(ini.LoadOptions{Loose: true, AllowBooleanKeys: true}, path)
	if err != nil {
		return fmt.Errorf("config: loading override file %s: %w", path, err)
	}
	if !cnf.HasSection("monitor") {
		return nil
	}
	for key, val := range cnf.Section("monitor").KeysHash() {
		v.Set(key, val)
	}
	return nil
}

// ParseMonitorArgs builds MotorMonitorParameters from the fixed positional
// argument list the driver invokes motor-monitor with:
//
//	start_time duration rpm_tag n_tcp_motor_groups n_i2c_motor_groups
//	window_size_ms sensor_listen_address monitor_listen_address
//	window_sampling_interval_ms sensor_sampling_interval_ms thread_pool_size
//
// Malformed positional arguments are a configuration error (fatal at
// startup per the error-handling policy), so every parse failure is
// accumulated and returned together rather than stopping at the first one
// -- the same multierror.Append idiom clientconf.GenerateConfig uses to
// report every broken .my.cnf file in one pass.
func ParseMonitorArgs(args []string, overrideFile string) (schema.MotorMonitorParameters, error) {
	var p schema.MotorMonitorParameters
	var errs *multierror.Error

	const wantArgs = 11
	if len(args) != wantArgs {
		return p, fmt.Errorf("config: expected %d positional arguments, got %d", wantArgs, len(args))
	}

	v := defaults()
	if err := LoadOverrideFile(v, overrideFile); err != nil {
		errs = multierror.Append(errs, err)
	}

	startTime, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		errs = multierror.Append(errs, fmt.Errorf("config: start_time: %w", err))
	}
	duration, err := strconv.ParseUint(args[1], 10, 64)
	if err != nil {
		errs = multierror.Append(errs, fmt.Errorf("config: duration: %w", err))
	}
	rpm, ok := schema.ParseRPM(args[2])
	if !ok {
		errs = multierror.Append(errs, fmt.Errorf("config: unknown rpm tag %q", args[2]))
	}
	nTCP, err := strconv.Atoi(args[3])
	if err != nil {
		errs = multierror.Append(errs, fmt.Errorf("config: n_tcp_motor_groups: %w", err))
	}
	nI2C, err := strconv.Atoi(args[4])
	if err != nil {
		errs = multierror.Append(errs, fmt.Errorf("config: n_i2c_motor_groups: %w", err))
	}
	windowSizeMs, err := strconv.ParseInt(args[5], 10, 64)
	if err != nil {
		errs = multierror.Append(errs, fmt.Errorf("config: window_size_ms: %w", err))
	}
	sensorAddr := args[6]
	monitorAddr := args[7]
	windowSamplingIntervalMs, err := strconv.ParseInt(args[8], 10, 64)
	if err != nil {
		errs = multierror.Append(errs, fmt.Errorf("config: window_sampling_interval_ms: %w", err))
	}
	sensorSamplingIntervalMs, err := strconv.ParseInt(args[9], 10, 64)
	if err != nil {
		errs = multierror.Append(errs, fmt.Errorf("config: sensor_sampling_interval_ms: %w", err))
	}
	threadPoolSize, err := strconv.Atoi(args[10])
	if err != nil {
		errs = multierror.Append(errs, fmt.Errorf("config: thread_pool_size: %w", err))
	}

	if sensorAddr == "" {
		errs = multierror.Append(errs, fmt.Errorf("config: sensor_listen_address must not be empty"))
	}
	if monitorAddr == "" {
		errs = multierror.Append(errs, fmt.Errorf("config: monitor_listen_address must not be empty"))
	}
	if nTCP+nI2C <= 0 {
		errs = multierror.Append(errs, fmt.Errorf("config: at least one motor group is required"))
	}

	if errs.ErrorOrNil() != nil {
		return p, errs
	}

	if threadPoolSize <= 0 {
		threadPoolSize = v.GetInt("thread_pool_size")
	}
	if windowSamplingIntervalMs <= 0 {
		windowSamplingIntervalMs = v.GetInt64("window_sampling_interval_ms")
	}

	p = schema.MotorMonitorParameters{
		StartTime:                 startTime,
		Duration:                  duration,
		RPM:                       rpm,
		NumberOfTCPMotorGroups:    nTCP,
		NumberOfI2CMotorGroups:    nI2C,
		WindowSizeMs:              windowSizeMs,
		WindowSamplingIntervalMs:  windowSamplingIntervalMs,
		SensorSamplingIntervalMs:  sensorSamplingIntervalMs,
		SensorListenAddress:       sensorAddr,
		MotorMonitorListenAddress: monitorAddr,
		ThreadPoolSize:            threadPoolSize,
	}
	return p, nil
}
