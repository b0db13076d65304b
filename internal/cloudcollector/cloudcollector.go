// Package cloudcollector implements the minimal external collaborator
// spec.md §4.6 describes: accept one control connection carrying run
// parameters, then one connection from the monitor itself, and write every
// framed Alert it receives to alert_protocol.csv until the driver hangs
// up, at which point the file is zstd-compressed and returned.
package cloudcollector

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/DataDog/zstd"
	"github.com/sirupsen/logrus"

	"github.com/jayjanssen/motor-monitor-bench/internal/schema"
	"github.com/jayjanssen/motor-monitor-bench/internal/wire"
)

// Collector accumulates one run's alerts into a CSV file and hands back a
// compressed copy once the driver disconnects.
type Collector struct {
	logger     *logrus.Logger
	outputPath string
}

// New returns a Collector writing to outputPath (truncated at the start of
// every run, matching the source's OpenOptions::truncate(true)).
func New(logger *logrus.Logger, outputPath string) *Collector {
	return &Collector{logger: logger, outputPath: outputPath}
}

// Run reads CloudServerRunParameters off driverConn, then binds
// params.MotorMonitorAddress and accepts exactly one monitor connection,
// recording every Alert it sends until driverConn is closed or ctx is
// canceled. It then writes the zstd-compressed alert log back over
// driverConn.
func (c *Collector) Run(ctx context.Context, driverConn net.Conn) error {
	var params schema.CloudServerRunParameters
	if err := wire.NewReader(driverConn, 0).Next(&params); err != nil {
		return fmt.Errorf("cloudcollector: reading run parameters: %w", err)
	}

	out, err := os.OpenFile(c.outputPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("cloudcollector: opening %s: %w", c.outputPath, err)
	}
	defer out.Close()

	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", params.MotorMonitorAddress)
	if err != nil {
		return fmt.Errorf("cloudcollector: binding %s: %w", params.MotorMonitorAddress, err)
	}
	defer ln.Close()

	monitorConn, err := ln.Accept()
	if err != nil {
		return fmt.Errorf("cloudcollector: accepting monitor connection: %w", err)
	}
	defer monitorConn.Close()

	driverDone := watchForDisconnect(driverConn)

	if err := c.recordAlerts(ctx, driverDone, monitorConn, out); err != nil {
		c.logger.WithError(err).Warn("cloudcollector: recording alerts ended")
	}

	return c.sendCompressedLog(driverConn)
}

// watchForDisconnect returns a channel closed once conn's peer goes away --
// detected by a zero-length read against a connection no one else is
// reading from, the same "driver disconnect ends the run" signal the
// source's dropped thread handle implies.
func watchForDisconnect(conn net.Conn) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		buf := make([]byte, 1)
		for {
			if _, err := conn.Read(buf); err != nil {
				return
			}
		}
	}()
	return done
}

func (c *Collector) recordAlerts(ctx context.Context, driverDone <-chan struct{}, monitorConn net.Conn, out *os.File) error {
	csvw := csv.NewWriter(out)
	defer csvw.Flush()

	reader := wire.NewReader(monitorConn, 0)
	alerts := make(chan schema.Alert)
	readErr := make(chan error, 1)
	go func() {
		for {
			var a schema.Alert
			if err := reader.Next(&a); err != nil {
				readErr <- err
				close(alerts)
				return
			}
			alerts <- a
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-driverDone:
			return nil
		case a, ok := <-alerts:
			if !ok {
				err := <-readErr
				if err == io.EOF {
					return nil
				}
				return err
			}
			delay := float64(time.Now().UnixNano())/1e9 - a.Time
			row := []string{
				strconv.Itoa(int(a.MotorID)),
				strconv.FormatFloat(a.Time, 'f', -1, 64),
				a.Failure.String(),
				strconv.FormatFloat(delay, 'f', -1, 64),
			}
			if err := csvw.Write(row); err != nil {
				return err
			}
			csvw.Flush()
		}
	}
}

func (c *Collector) sendCompressedLog(driverConn net.Conn) error {
	raw, err := os.ReadFile(c.outputPath)
	if err != nil {
		return fmt.Errorf("cloudcollector: reading alert log for compression: %w", err)
	}
	compressed, err := zstd.Compress(nil, raw)
	if err != nil {
		return fmt.Errorf("cloudcollector: compressing alert log: %w", err)
	}
	if _, err := driverConn.Write(compressed); err != nil {
		return fmt.Errorf("cloudcollector: sending alert log: %w", err)
	}
	return nil
}
