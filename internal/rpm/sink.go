package rpm

import (
	"context"
	"net"
	"sync"

	"github.com/jayjanssen/motor-monitor-bench/internal/schema"
	"github.com/jayjanssen/motor-monitor-bench/internal/wire"
)

// TCPSink frames and writes alerts to a single long-lived cloud-collector
// connection, opened once at RPM start per §4.5.5. A mutex serializes
// writes since every RPM's concurrent goroutines share this one
// connection; that's the one piece of explicit locking every RPM needs
// regardless of its own internal concurrency shape.
type TCPSink struct {
	mu   sync.Mutex
	conn net.Conn
}

// NewTCPSink wraps an already-dialed connection to the cloud collector.
func NewTCPSink(conn net.Conn) *TCPSink {
	return &TCPSink{conn: conn}
}

// Emit writes alert as a single framed object. The connection is never
// retried on failure -- per the error-handling policy, a dropped cloud
// connection voids the run.
func (s *TCPSink) Emit(ctx context.Context, alert schema.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return wire.WriteFrame(s.conn, alert)
}
