// Command cloud-collector is the minimal external collaborator spec.md
// §4.6 describes: it accepts one control connection per benchmark run
// from the test driver, records every alert the monitor sends during that
// run, and returns the compressed alert log once the driver disconnects.
// Grounded on original_source/cloud_server/src/main.rs's accept loop.
package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/jayjanssen/motor-monitor-bench/internal/cloudcollector"
	"github.com/jayjanssen/motor-monitor-bench/internal/telemetry"
)

const (
	OK int = iota
	BAD_ARGS
)

func main() {
	logLevel := flag.String("log-level", "info", "log verbosity (trace, debug, info, warn, error)")
	flag.StringVar(logLevel, "l", "info", "short for -log-level")
	outputPath := flag.String("output", "alert_protocol.csv", "path to write the alert protocol CSV")
	flag.StringVar(outputPath, "o", "alert_protocol.csv", "short for -output")

	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage:\n  cloud-collector [flags] control_listen_address")
		fmt.Fprintln(os.Stderr, "Options:")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(BAD_ARGS)
	}
	controlAddr := flag.Arg(0)

	logger := telemetry.NewLogger(*logLevel)
	collector := cloudcollector.New(logger, *outputPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", controlAddr)
	if err != nil {
		logger.WithError(err).Error("cloud-collector: binding control address")
		os.Exit(BAD_ARGS)
	}
	defer ln.Close()

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	logger.WithField("address", controlAddr).Info("cloud-collector: listening for driver connections")

	for {
		driverConn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.WithError(err).Warn("cloud-collector: accept failed")
			continue
		}
		go func() {
			defer driverConn.Close()
			if err := collector.Run(ctx, driverConn); err != nil {
				logger.WithError(err).Warn("cloud-collector: run ended")
			}
		}()
	}
}
