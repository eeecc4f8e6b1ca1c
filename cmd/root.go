// Package cmd wires up the CLI flags and dispatches to the echo probe.
package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"

	flag "github.com/spf13/pflag"

	"goecho/config"
	"goecho/echo"
	"goecho/internal/link"
	"goecho/internal/metrics"
	"goecho/util"
)

// version is overridable at link time:
//
//	go build -ldflags "-X goecho/cmd.version=2.0.0"
var version = "1.0.0" //nolint:gochecknoglobals

// Execute parses args and runs the probe.
func Execute(ctx context.Context, args []string) error {
	cfg := &config.Config{
		Host:        config.DefaultHost,
		Port:        config.DefaultPort,
		Timeout:     config.DefaultTimeout,
		DotInterval: config.DefaultDotInterval,
	}
	config.LoadFromEnv(cfg)

	fs := flag.NewFlagSet("goecho", flag.ContinueOnError)

	// ── endpoint ─────────────────────────────────────────────────
	fs.BoolVarP(&cfg.Datagram, "udp", "u", cfg.Datagram, "Datagram (UDP) transport instead of stream")
	fs.DurationVarP(&cfg.Timeout, "timeout", "w", cfg.Timeout, "Receive timeout for the echo reply")
	fs.BoolVarP(&cfg.NoDNS, "no-dns", "n", false, "Numeric-only, no DNS resolution")
	fs.DurationVar(&cfg.DotInterval, "dot-interval", cfg.DotInterval, "Connecting-indicator interval (0 disables)")

	// ── link credentials ─────────────────────────────────────────
	fs.StringVar(&cfg.PIN, "pin", cfg.PIN, "SIM PIN code")
	fs.StringVar(&cfg.APN, "apn", cfg.APN, "Access point name")
	fs.StringVar(&cfg.Username, "user", cfg.Username, "Link username")
	fs.StringVar(&cfg.Password, "password", cfg.Password, "Link password")
	fs.BoolVar(&cfg.PromptPassword, "password-prompt", false, "Prompt for the link password")

	// ── SSH gateway link ─────────────────────────────────────────
	fs.StringVarP(&cfg.GatewaySpec, "gateway", "T", cfg.GatewaySpec, "Route via SSH gateway [user@]host[:port]")
	fs.StringVar(&cfg.SSHKeyPath, "ssh-key", cfg.SSHKeyPath, "SSH private key file")
	fs.BoolVar(&cfg.UseSSHAgent, "ssh-agent", cfg.UseSSHAgent, "Use SSH agent")
	fs.BoolVar(&cfg.StrictHostKey, "strict-hostkey", cfg.StrictHostKey, "Verify SSH host keys")
	fs.StringVar(&cfg.KnownHostsPath, "known-hosts", cfg.KnownHostsPath, "Custom known_hosts path")

	// ── output ───────────────────────────────────────────────────
	envVerbose := cfg.Verbose // CountVarP zeroes the target on registration
	fs.CountVarP(&cfg.Verbose, "verbose", "v", "Increase verbosity (repeatable)")
	fs.BoolVar(&cfg.DryRun, "dry-run", false, "Validate configuration and exit")

	var showVersion, showHelp bool
	fs.BoolVar(&showVersion, "version", false, "Print version and exit")
	fs.BoolVarP(&showHelp, "help", "h", false, "Show this help")

	fs.Usage = func() { printUsage(fs) }

	// ── parse ────────────────────────────────────────────────────
	if err := fs.Parse(args); err != nil {
		return err
	}
	if cfg.Verbose == 0 {
		cfg.Verbose = envVerbose
	}

	if showHelp {
		printUsage(fs)
		return nil
	}
	if showVersion {
		fmt.Printf("goecho %s\n", version)
		return nil
	}

	// ── positional arguments ─────────────────────────────────────
	if err := parsePositional(cfg, fs.Args()); err != nil {
		return err
	}

	// ── gateway spec ─────────────────────────────────────────────
	if cfg.GatewaySpec != "" {
		user, host, port, err := config.ParseGatewaySpec(cfg.GatewaySpec)
		if err != nil {
			return fmt.Errorf("gateway: %w", err)
		}
		cfg.GatewayEnabled = true
		cfg.GatewayUser = user
		cfg.GatewayHost = host
		cfg.GatewayPort = port
	}

	// ── validate ─────────────────────────────────────────────────
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := util.CheckNumericHost(cfg.Host, cfg.NoDNS); err != nil {
		return err
	}

	if cfg.DryRun {
		return nil
	}

	// ── build components ─────────────────────────────────────────
	logger := util.NewLogger(cfg.Verbose + 1) // default verbosity is "normal"
	collector := metrics.New()

	var lnk link.Link
	if cfg.GatewayEnabled {
		lnk = link.NewTunnelLink(&link.GatewayConfig{
			User:          cfg.GatewayUser,
			Host:          cfg.GatewayHost,
			Port:          cfg.GatewayPort,
			KeyPath:       cfg.SSHKeyPath,
			PromptPass:    cfg.PromptPassword,
			UseAgent:      cfg.UseSSHAgent,
			StrictHostKey: cfg.StrictHostKey,
			KnownHosts:    cfg.KnownHostsPath,
			ConnTimeout:   config.DefaultConnTimeout,
		}, logger)
	} else {
		lnk = link.NewHostLink()
	}

	err := echo.New(cfg, lnk, logger, collector).Run(ctx)

	logger.Debug("run metrics:\n%s", collector.JSON())
	return err
}

// ── helpers ──────────────────────────────────────────────────────────

func parsePositional(cfg *config.Config, remaining []string) error {
	switch len(remaining) {
	case 0: // defaults
	case 2:
		port, err := strconv.Atoi(remaining[1])
		if err != nil || port < 1 || port > 65535 {
			return fmt.Errorf("invalid port %q", remaining[1])
		}
		cfg.Port = port
		fallthrough
	case 1:
		cfg.Host = remaining[0]
	default:
		return fmt.Errorf("too many arguments (expected [host [port]])")
	}
	return nil
}

func printUsage(fs *flag.FlagSet) {
	fmt.Fprintf(os.Stderr, `goecho – network echo probe v%s

Brings up a link with bounded retry, then sends a single probe to an
echo server and waits for the reply.

Usage:
  goecho [options] [host [port]]              Probe (default %s:%d)
  goecho -u [options] [host [port]]           Probe over UDP
  goecho -T user@gateway [options] host port  Probe through an SSH gateway

Options:
`, version, config.DefaultHost, config.DefaultPort)
	fs.PrintDefaults()
	fmt.Fprintf(os.Stderr, `
Examples:
  goecho                                      Stream probe to the default server
  goecho -u -w 15s                            UDP probe, 15s reply timeout
  goecho --pin 1234 --apn internet            Set link credentials first
  goecho -T admin@bastion echo.internal 7     Probe from behind a gateway
`)
}
