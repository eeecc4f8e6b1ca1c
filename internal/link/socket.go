package link

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	ncerr "goecho/internal/errors"
)

// ── Datagram socket ──────────────────────────────────────────────────

// datagramSocket wraps a net.PacketConn with a receive timeout.
type datagramSocket struct {
	pc      net.PacketConn
	timeout time.Duration

	mu     sync.Mutex
	closed bool
}

func newDatagramSocket(pc net.PacketConn) *datagramSocket {
	return &datagramSocket{pc: pc}
}

func (s *datagramSocket) Connect(ctx context.Context, address string) error {
	return ncerr.ErrNotSupported
}

func (s *datagramSocket) Send(p []byte) (int, error) {
	return 0, ncerr.ErrNotSupported
}

func (s *datagramSocket) SendTo(address string, p []byte) (int, error) {
	raddr, err := net.ResolveUDPAddr("udp", address)
	if err != nil {
		return 0, fmt.Errorf("resolve %s: %w", address, err)
	}
	return s.pc.WriteTo(p, raddr)
}

func (s *datagramSocket) Recv(p []byte) (int, error) {
	return 0, ncerr.ErrNotSupported
}

// RecvFrom accepts a reply from any sender, echo-service style.
func (s *datagramSocket) RecvFrom(p []byte) (int, string, error) {
	if s.timeout > 0 {
		if err := s.pc.SetReadDeadline(time.Now().Add(s.timeout)); err != nil {
			return 0, "", err
		}
	}
	n, addr, err := s.pc.ReadFrom(p)
	from := ""
	if addr != nil {
		from = addr.String()
	}
	return n, from, err
}

func (s *datagramSocket) SetTimeout(d time.Duration) { s.timeout = d }

func (s *datagramSocket) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.pc.Close()
}

// ── Stream socket ────────────────────────────────────────────────────

// dialFunc lets the stream socket dial directly or through an SSH
// gateway.
type dialFunc func(ctx context.Context, network, address string) (net.Conn, error)

// streamSocket establishes a connection on Connect and then behaves
// like a plain connected socket.
type streamSocket struct {
	dial    dialFunc
	conn    net.Conn
	timeout time.Duration

	mu     sync.Mutex
	closed bool
}

func newStreamSocket(dial dialFunc) *streamSocket {
	return &streamSocket{dial: dial}
}

func (s *streamSocket) Connect(ctx context.Context, address string) error {
	conn, err := s.dial(ctx, "tcp", address)
	if err != nil {
		return err
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		conn.Close()
		return net.ErrClosed
	}
	s.conn = conn
	s.mu.Unlock()
	return nil
}

func (s *streamSocket) Send(p []byte) (int, error) {
	if s.conn == nil {
		return 0, ncerr.ErrNotConnected
	}
	return s.conn.Write(p)
}

func (s *streamSocket) SendTo(address string, p []byte) (int, error) {
	return 0, ncerr.ErrNotSupported
}

func (s *streamSocket) Recv(p []byte) (int, error) {
	if s.conn == nil {
		return 0, ncerr.ErrNotConnected
	}
	if s.timeout <= 0 {
		return s.conn.Read(p)
	}

	if err := s.conn.SetReadDeadline(time.Now().Add(s.timeout)); err == nil {
		return s.conn.Read(p)
	}

	// Gateway-forwarded conns don't support deadlines; bound the read
	// with a timer instead.
	return timedRead(s.conn, p, s.timeout)
}

func (s *streamSocket) RecvFrom(p []byte) (int, string, error) {
	return 0, "", ncerr.ErrNotSupported
}

func (s *streamSocket) SetTimeout(d time.Duration) { s.timeout = d }

func (s *streamSocket) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// ── Timer-bounded read ───────────────────────────────────────────────

type readResult struct {
	n   int
	err error
}

// timeoutError satisfies net.Error so the timeout classifiers in the
// errors package recognise it.
type timeoutError struct{}

func (timeoutError) Error() string   { return "receive timed out" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

// timedRead reads from conn with a timer bound.  On timeout the conn
// is closed to unblock the reader goroutine; the socket is single-use,
// so a dead conn after a missed reply is acceptable.
func timedRead(conn net.Conn, p []byte, d time.Duration) (int, error) {
	done := make(chan readResult, 1)
	go func() {
		n, err := conn.Read(p)
		done <- readResult{n, err}
	}()

	select {
	case r := <-done:
		return r.n, r.err
	case <-time.After(d):
		conn.Close()
		return 0, timeoutError{}
	}
}
