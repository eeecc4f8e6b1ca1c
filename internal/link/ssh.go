package link

import (
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"

	ncerr "goecho/internal/errors"
	"goecho/util"
)

// GatewayConfig holds everything needed to dial an SSH gateway.
type GatewayConfig struct {
	User          string
	Host          string
	Port          int
	KeyPath       string
	PromptPass    bool
	UseAgent      bool
	StrictHostKey bool
	KnownHosts    string
	ConnTimeout   time.Duration
}

// TunnelLink is a Link routed through an SSH gateway.  The gateway
// performs name resolution and outbound dialing, so only the Stream
// transport is available.
//
// A failed SSH authentication surfaces as ErrAuthFailure: it is the
// one bring-up error that retrying cannot fix.
type TunnelLink struct {
	config *GatewayConfig
	logger *util.Logger

	mu      sync.RWMutex
	creds   Credentials
	client  *ssh.Client
	tcpConn net.Conn
	alive   bool
}

// NewTunnelLink creates a link that is ready to Connect.
func NewTunnelLink(cfg *GatewayConfig, logger *util.Logger) *TunnelLink {
	if cfg.Port == 0 {
		cfg.Port = 22
	}
	if cfg.ConnTimeout == 0 {
		cfg.ConnTimeout = 30 * time.Second
	}
	return &TunnelLink{config: cfg, logger: logger}
}

// SetCredentials stores the link credentials.  Username and Password
// feed SSH authentication when the gateway config leaves them unset.
func (l *TunnelLink) SetCredentials(c Credentials) {
	l.mu.Lock()
	l.creds = c
	l.mu.Unlock()
}

// Connect makes one attempt to dial the gateway and complete the SSH
// handshake.
func (l *TunnelLink) Connect(ctx context.Context) error {
	l.mu.RLock()
	creds := l.creds
	l.mu.RUnlock()

	authMethods, err := buildAuthMethods(l.config, creds)
	if err != nil {
		return fmt.Errorf("gateway auth setup: %w", err)
	}

	hkCallback, err := hostKeyCallback(l.config)
	if err != nil {
		return fmt.Errorf("gateway hostkey: %w", err)
	}

	user := l.config.User
	if user == "" {
		user = creds.Username
	}

	sshCfg := &ssh.ClientConfig{
		User:            user,
		Auth:            authMethods,
		HostKeyCallback: hkCallback,
		Timeout:         l.config.ConnTimeout,
	}

	addr := util.FormatAddr(l.config.Host, l.config.Port)
	l.logger.Debug("SSH: dialing %s as %s", addr, user)

	var dialer net.Dialer
	tcpConn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial gateway %s: %w", addr, err)
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(tcpConn, addr, sshCfg)
	if err != nil {
		tcpConn.Close()
		if isAuthError(err) {
			return fmt.Errorf("gateway %s: %w: %v", addr, ncerr.ErrAuthFailure, err)
		}
		return fmt.Errorf("gateway handshake %s: %w", addr, err)
	}

	client := ssh.NewClient(sshConn, chans, reqs)

	l.mu.Lock()
	l.client = client
	l.tcpConn = tcpConn
	l.alive = true
	l.mu.Unlock()

	go l.monitor(client)

	return nil
}

// IsConnected reports whether the gateway connection is still up.
func (l *TunnelLink) IsConnected() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.alive
}

// Address returns the local address of the gateway connection.
func (l *TunnelLink) Address() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.tcpConn == nil {
		return ""
	}
	host, _, err := net.SplitHostPort(l.tcpConn.LocalAddr().String())
	if err != nil {
		return l.tcpConn.LocalAddr().String()
	}
	return host
}

// Resolve passes hostnames through: the gateway resolves names when
// it dials on our behalf.
func (l *TunnelLink) Resolve(ctx context.Context, host string) (string, error) {
	if !l.IsConnected() {
		return "", ncerr.ErrNotConnected
	}
	return host, nil
}

// Open creates a stream socket whose connection is dialed by the
// gateway.  Datagram transport cannot be forwarded.
func (l *TunnelLink) Open(t Transport) (Socket, error) {
	if t != Stream {
		return nil, fmt.Errorf("%s over an SSH gateway: %w", t, ncerr.ErrNotSupported)
	}

	l.mu.RLock()
	client := l.client
	alive := l.alive
	l.mu.RUnlock()

	if !alive || client == nil {
		return nil, ncerr.ErrNotConnected
	}

	dial := func(ctx context.Context, network, address string) (net.Conn, error) {
		l.logger.Debug("gateway: dialing %s %s", network, address)
		conn, err := client.Dial(network, address)
		if err != nil {
			return nil, fmt.Errorf("gateway dial %s: %w", address, err)
		}
		return conn, nil
	}
	return newStreamSocket(dial), nil
}

// Close shuts down the SSH connection.
func (l *TunnelLink) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.alive = false
	if l.client != nil {
		err := l.client.Close()
		l.client = nil
		l.tcpConn = nil
		return err
	}
	return nil
}

// monitor blocks until the SSH connection closes and flips the alive
// flag.
func (l *TunnelLink) monitor(client *ssh.Client) {
	err := client.Wait()

	l.mu.Lock()
	l.alive = false
	l.mu.Unlock()

	if err != nil {
		l.logger.Debug("gateway connection closed: %v", err)
	} else {
		l.logger.Debug("gateway connection closed")
	}
}

// isAuthError classifies an SSH handshake error as an authentication
// failure.  x/crypto/ssh does not export a type for this; the message
// is stable across releases.
func isAuthError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "unable to authenticate")
}
