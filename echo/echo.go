// Package echo implements the probe's two-phase flow: bring the link
// up with bounded retry, then run a single timed echo transaction.
package echo

import (
	"context"

	"goecho/config"
	"goecho/internal/link"
	"goecho/internal/metrics"
	"goecho/util"
)

// Echoer orchestrates a single probe run.
type Echoer struct {
	Config  *config.Config
	Link    link.Link
	Logger  *util.Logger
	Metrics *metrics.Collector
}

// New returns a ready-to-run Echoer.
func New(cfg *config.Config, l link.Link, logger *util.Logger, m *metrics.Collector) *Echoer {
	return &Echoer{Config: cfg, Link: l, Logger: logger, Metrics: m}
}

// Run performs the whole flow.  The returned error is nil only when
// both the connection and the transaction succeed; main maps it to
// the process exit code.
func (e *Echoer) Run(ctx context.Context) error {
	defer e.Link.Close()

	e.Link.SetCredentials(link.Credentials{
		PIN:      e.Config.PIN,
		APN:      e.Config.APN,
		Username: e.Config.Username,
		Password: e.Config.Password,
	})
	if e.Config.PIN != "" {
		e.Logger.Info("PIN code set")
	}

	e.Logger.Info("establishing connection")

	stop := StartIndicator(ctx, e.Link, e.Logger, e.Config.DotInterval)
	defer stop()

	mgr := NewConnectionManager(e.Link, e.Logger, e.Metrics)
	if err := mgr.Connect(ctx); err != nil {
		return err
	}
	stop()

	tx := &Transaction{
		Link:    e.Link,
		Config:  e.Config,
		Logger:  e.Logger,
		Metrics: e.Metrics,
	}
	res, err := tx.Run(ctx)
	if err != nil {
		e.Logger.Error("echo transaction failed: %v", err)
		return err
	}

	e.Logger.Info("%s: %d bytes sent, %d bytes received", res.Outcome, res.Sent, res.Received)
	return nil
}
