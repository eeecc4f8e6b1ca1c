package link

import (
	"context"
	"fmt"
	"net"
	"sync"

	ncerr "goecho/internal/errors"
)

// HostLink is the Link over the host's own networking.  Connect checks
// that a usable interface address exists; resolution goes through the
// system resolver; sockets are plain UDP/TCP.
type HostLink struct {
	resolver *net.Resolver

	mu        sync.RWMutex
	creds     Credentials
	connected bool
	addr      string
}

// NewHostLink returns a HostLink using the default system resolver.
func NewHostLink() *HostLink {
	return &HostLink{resolver: net.DefaultResolver}
}

// SetCredentials stores the credentials.  Host networking performs no
// authentication, so they only serve the startup milestone log.
func (l *HostLink) SetCredentials(c Credentials) {
	l.mu.Lock()
	l.creds = c
	l.mu.Unlock()
}

// Connect verifies the host has an interface address to send from.
func (l *HostLink) Connect(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	addr, err := localAddress()
	if err != nil {
		return fmt.Errorf("link bring-up: %w", err)
	}

	l.mu.Lock()
	l.connected = true
	l.addr = addr
	l.mu.Unlock()
	return nil
}

// IsConnected reports whether the link is up.
func (l *HostLink) IsConnected() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.connected
}

// Address returns the chosen local interface address.
func (l *HostLink) Address() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.addr
}

// Resolve looks up host and returns a single literal IP, preferring
// IPv4 for echo-server compatibility.
func (l *HostLink) Resolve(ctx context.Context, host string) (string, error) {
	if ip := net.ParseIP(host); ip != nil {
		return host, nil
	}
	addrs, err := l.resolver.LookupHost(ctx, host)
	if err != nil {
		return "", err
	}
	if len(addrs) == 0 {
		return "", fmt.Errorf("no addresses for %q", host)
	}
	for _, a := range addrs {
		if ip := net.ParseIP(a); ip != nil && ip.To4() != nil {
			return a, nil
		}
	}
	return addrs[0], nil
}

// Open creates an unbound socket of the given transport kind.
func (l *HostLink) Open(t Transport) (Socket, error) {
	if !l.IsConnected() {
		return nil, ncerr.ErrNotConnected
	}

	switch t {
	case Datagram:
		pc, err := net.ListenPacket("udp", ":0")
		if err != nil {
			return nil, fmt.Errorf("open datagram socket: %w", err)
		}
		return newDatagramSocket(pc), nil
	case Stream:
		var d net.Dialer
		return newStreamSocket(d.DialContext), nil
	default:
		return nil, fmt.Errorf("unknown transport %d", t)
	}
}

// Close marks the link down.
func (l *HostLink) Close() error {
	l.mu.Lock()
	l.connected = false
	l.mu.Unlock()
	return nil
}

// localAddress picks the host's outgoing interface address: the first
// global unicast address, falling back to loopback.
func localAddress() (string, error) {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return "", err
	}

	fallback := ""
	for _, a := range addrs {
		ipNet, ok := a.(*net.IPNet)
		if !ok || ipNet.IP == nil {
			continue
		}
		if ipNet.IP.IsGlobalUnicast() {
			return ipNet.IP.String(), nil
		}
		if fallback == "" && ipNet.IP.IsLoopback() {
			fallback = ipNet.IP.String()
		}
	}
	if fallback != "" {
		return fallback, nil
	}
	return "", fmt.Errorf("no usable interface address")
}
