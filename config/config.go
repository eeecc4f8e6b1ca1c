// Package config defines the runtime configuration for goecho and
// provides helpers for parsing gateway specifications.
package config

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// Config holds every tuneable for a single probe run.
type Config struct {
	// ── Endpoint ─────────────────────────────────────────────────────
	Host     string // echo server hostname
	Port     int    // echo server port
	Datagram bool   // -u: datagram transport instead of stream
	Timeout  time.Duration
	NoDNS    bool // numeric host only, skip resolution

	// ── Link credentials ─────────────────────────────────────────────
	// Applied to the link once, before any connect attempt.
	PIN            string
	APN            string
	Username       string
	Password       string
	PromptPassword bool // true → prompt interactively

	// ── SSH gateway link ─────────────────────────────────────────────
	GatewaySpec    string // raw user@host[:port] from -T
	GatewayEnabled bool
	GatewayUser    string
	GatewayHost    string
	GatewayPort    int
	SSHKeyPath     string
	UseSSHAgent    bool
	StrictHostKey  bool
	KnownHostsPath string

	// ── Output ───────────────────────────────────────────────────────
	Verbose     int
	DotInterval time.Duration // 0 disables the connecting indicator
	DryRun      bool          // validate and exit without touching the network
}

// ── Gateway-spec parser ──────────────────────────────────────────────

// gatewayRe matches [user@]host[:port].
var gatewayRe = regexp.MustCompile(`^(?:([^@]+)@)?([^:]+)(?::(\d+))?$`)

// ParseGatewaySpec extracts user, host, and port from a string such as
// "admin@bastion.example.com:2222".  Port defaults to 22.
func ParseGatewaySpec(spec string) (user, host string, port int, err error) {
	m := gatewayRe.FindStringSubmatch(spec)
	if m == nil {
		return "", "", 0, fmt.Errorf("invalid gateway spec %q – expected [user@]host[:port]", spec)
	}
	user = m[1]
	host = m[2]
	port = DefaultSSHPort
	if m[3] != "" {
		port, err = strconv.Atoi(m[3])
		if err != nil || port < 1 || port > 65535 {
			return "", "", 0, fmt.Errorf("invalid gateway port %q", m[3])
		}
	}
	if host == "" {
		return "", "", 0, fmt.Errorf("gateway host is required")
	}
	return user, host, port, nil
}

// ── Validation ───────────────────────────────────────────────────────

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("echo server hostname is required")
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range 1-65535", c.Port)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}

	if c.Datagram && c.GatewayEnabled {
		return fmt.Errorf("datagram transport is not supported through an SSH gateway")
	}

	if c.GatewayEnabled && c.GatewayHost == "" {
		return fmt.Errorf("gateway host is required")
	}

	if c.PromptPassword && c.Password != "" {
		return fmt.Errorf("--password and --password-prompt are mutually exclusive")
	}

	if c.DotInterval < 0 {
		return fmt.Errorf("dot interval must not be negative")
	}

	return nil
}
