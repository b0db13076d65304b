package ingest

import (
	"context"
	"io"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestListenerDispatchesExpectedConnections(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var handled int32
	done := make(chan struct{})
	go func() {
		_ = Listener(ctx, logger, addr, 2, func(ctx context.Context, conn net.Conn) {
			atomic.AddInt32(&handled, 1)
			conn.Close()
		})
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	for i := 0; i < 2; i++ {
		c, err := net.Dial("tcp", addr)
		require.NoError(t, err)
		c.Close()
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("listener did not finish after expected connections")
	}
	require.Equal(t, int32(2), atomic.LoadInt32(&handled))
}
