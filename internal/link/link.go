// Package link abstracts the network the probe runs over.  A Link is
// the runtime-injected replacement for picking a physical interface at
// build time: the probe drives the same connect / resolve / open
// sequence whether the link is the host's own networking or a path
// through an SSH gateway, and tests substitute scripted fakes.
package link

import (
	"context"
	"time"
)

// Transport selects socket semantics.
type Transport int

const (
	// Datagram is connectionless (UDP-style) transport.
	Datagram Transport = iota
	// Stream is connection-oriented (TCP-style) transport.
	Stream
)

// String returns "datagram" or "stream".
func (t Transport) String() string {
	if t == Datagram {
		return "datagram"
	}
	return "stream"
}

// Network returns the net-package network name for the transport.
func (t Transport) Network() string {
	if t == Datagram {
		return "udp"
	}
	return "tcp"
}

// Credentials are applied to a link once, before any connect attempt.
// Which fields matter depends on the link implementation; unknown
// fields are stored and ignored.
type Credentials struct {
	PIN      string
	APN      string
	Username string
	Password string
}

// Link is the capability the probe connects through.
//
// Connect performs a single bring-up attempt; the caller owns the
// retry policy.  A connect attempt failing with an error wrapping
// [goecho/internal/errors.ErrAuthFailure] must not be retried.
type Link interface {
	// SetCredentials stores the link credentials.  Must be called
	// before the first Connect.
	SetCredentials(c Credentials)

	// Connect makes one attempt to bring the link up.
	Connect(ctx context.Context) error

	// IsConnected reports whether the link is currently up.  Safe for
	// concurrent use by read-only observers.
	IsConnected() bool

	// Address returns the link's local address once connected, or ""
	// if unknown.
	Address() string

	// Resolve turns a hostname into a literal address usable with the
	// link's sockets.
	Resolve(ctx context.Context, host string) (string, error)

	// Open creates an unbound socket of the given transport kind.
	Open(t Transport) (Socket, error)

	// Close tears the link down and releases its resources.
	Close() error
}

// Socket is a single-use transport endpoint created by a Link.
//
// Stream sockets use Connect / Send / Recv; datagram sockets use
// SendTo / RecvFrom.  Calling an operation of the other kind returns
// [goecho/internal/errors.ErrNotSupported].
type Socket interface {
	// Connect establishes the stream connection to "host:port".
	Connect(ctx context.Context, address string) error

	// Send writes p on a connected stream socket.
	Send(p []byte) (int, error)

	// SendTo writes p to "host:port" on a datagram socket.
	SendTo(address string, p []byte) (int, error)

	// Recv reads into p, blocking up to the configured timeout.
	Recv(p []byte) (int, error)

	// RecvFrom reads into p from any sender, blocking up to the
	// configured timeout.  Returns the sender's address.
	RecvFrom(p []byte) (int, string, error)

	// SetTimeout bounds every subsequent receive.  Zero means block
	// forever.
	SetTimeout(d time.Duration)

	// Close releases the socket.  Safe to call more than once.
	Close() error
}
