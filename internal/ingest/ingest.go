// Package ingest owns the sensor-facing TCP listener every RPM runs its
// strategy against: it accepts exactly the expected number of sensor
// connections and hands each to a caller-supplied handler with a bounded
// read deadline, leaving all per-RPM concurrency shape (worker pool, actor
// tree, stream graph) to the caller.
package ingest

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// ReadDeadline bounds how long a handler's first read on a freshly accepted
// connection may block before it is abandoned as a transient I/O failure.
const ReadDeadline = 5 * time.Second

// Handler processes one accepted sensor connection. It owns the connection
// for its lifetime and must close it.
type Handler func(ctx context.Context, conn net.Conn)

// Listener binds addr and hands exactly wantConns accepted connections to
// handle, one goroutine per connection. It does not return once every
// expected connection has been accepted: it waits for every dispatched
// handler to exit (on EOF, read timeout, or ctx cancellation) before
// returning, so the run lasts as long as its sensor streams do rather than
// tearing down the moment the last sensor connects.
func Listener(ctx context.Context, logger *logrus.Logger, addr string, wantConns int, handle Handler) error {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("ingest: listening on %s: %w", addr, err)
	}
	defer ln.Close()

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	var wg sync.WaitGroup
	var acceptErr error

	for i := 0; i < wantConns; i++ {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				acceptErr = ctx.Err()
				break
			}
			logger.WithError(err).Warn("ingest: accept failed")
			continue
		}
		if err := conn.SetReadDeadline(time.Now().Add(ReadDeadline)); err != nil {
			logger.WithError(err).Warn("ingest: setting read deadline")
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			handle(ctx, conn)
		}()
	}

	wg.Wait()
	return acceptErr
}
