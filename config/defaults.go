package config

import "time"

// ── Default values ───────────────────────────────────────────────────
//
// All tuneable defaults live here so they are easy to audit and reuse
// across CLI flags and environment variable loading.

const (
	// MaxRetries is the number of additional connection attempts made
	// after the first failure.  Total attempts = MaxRetries + 1.
	MaxRetries = 3

	// DefaultHost is the public echo server the probe targets.
	DefaultHost = "echo.mbedcloudtesting.com"

	// DefaultPort is the echo service port (same for TCP and UDP).
	DefaultPort = 7

	// ProbePayload is the fixed message sent to elicit a reply.
	// The receive buffer is sized to exactly len(ProbePayload).
	ProbePayload = "TEST"

	// DefaultTimeout bounds the wait for the echo reply.
	DefaultTimeout = 15 * time.Second

	// DefaultDotInterval is how often the connecting indicator prints
	// a progress dot.
	DefaultDotInterval = 4 * time.Second

	// DefaultSSHPort is the standard SSH port.
	DefaultSSHPort = 22

	// DefaultConnTimeout is the TCP/SSH connection timeout for the
	// gateway link.
	DefaultConnTimeout = 30 * time.Second
)
