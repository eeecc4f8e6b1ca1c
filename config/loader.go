package config

// loader.go - configuration loading from environment variables.
//
// Precedence order (highest wins):
//   1. CLI flags  (handled by cmd/root.go)
//   2. Environment variables  (this file)
//   3. Defaults   (defaults.go)

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ── Environment variable mapping ─────────────────────────────────────
//
// Every supported env var uses the GOECHO_ prefix.  Boolean values
// accept "1", "true", "yes" (case-insensitive).

// LoadFromEnv overlays environment variables onto cfg.  Only non-empty
// env vars override the existing value.  This should be called BEFORE
// CLI flag parsing so that flags take precedence.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("GOECHO_HOST"); v != "" {
		cfg.Host = v
	}
	if v := envInt("GOECHO_PORT"); v > 0 {
		cfg.Port = v
	}
	if envBool("GOECHO_UDP") {
		cfg.Datagram = true
	}
	if v := envInt("GOECHO_TIMEOUT"); v > 0 {
		cfg.Timeout = secondsDuration(v)
	}
	if v := envInt("GOECHO_DOT_INTERVAL"); v > 0 {
		cfg.DotInterval = secondsDuration(v)
	}

	// Link credentials
	if v := os.Getenv("GOECHO_PIN"); v != "" {
		cfg.PIN = v
	}
	if v := os.Getenv("GOECHO_APN"); v != "" {
		cfg.APN = v
	}
	if v := os.Getenv("GOECHO_USER"); v != "" {
		cfg.Username = v
	}
	if v := os.Getenv("GOECHO_PASSWORD"); v != "" {
		cfg.Password = v
	}

	// SSH gateway
	if v := os.Getenv("GOECHO_GATEWAY"); v != "" {
		cfg.GatewaySpec = v
	}
	if v := os.Getenv("GOECHO_SSH_KEY"); v != "" {
		cfg.SSHKeyPath = v
	}
	if envBool("GOECHO_SSH_AGENT") {
		cfg.UseSSHAgent = true
	}
	if envBool("GOECHO_STRICT_HOSTKEY") {
		cfg.StrictHostKey = true
	}
	if v := os.Getenv("GOECHO_KNOWN_HOSTS"); v != "" {
		cfg.KnownHostsPath = v
	}

	// Output
	if v := envInt("GOECHO_VERBOSE"); v > 0 {
		cfg.Verbose = v
	}
}

// ── helpers ──────────────────────────────────────────────────────────

func envInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

func envBool(key string) bool {
	v := strings.ToLower(os.Getenv(key))
	return v == "1" || v == "true" || v == "yes"
}

func secondsDuration(sec int) time.Duration {
	return time.Duration(sec) * time.Second
}
