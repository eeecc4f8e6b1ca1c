package echo

import (
	"context"
	"sync/atomic"

	"goecho/config"
	ncerr "goecho/internal/errors"
	"goecho/internal/link"
	"goecho/internal/metrics"
	"goecho/internal/retry"
	"goecho/util"
)

// LinkState is the connection manager's view of the link.  It only
// moves forward: once a terminal state is reached a fresh manager is
// needed for another run.
type LinkState int32

const (
	StateDisconnected LinkState = iota
	StateConnecting
	StateConnected
	StateAuthFailed
	StateExhausted
)

// String returns the state name.
func (s LinkState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateAuthFailed:
		return "auth-failed"
	case StateExhausted:
		return "exhausted"
	}
	return "unknown"
}

func (s LinkState) terminal() bool {
	return s == StateConnected || s == StateAuthFailed || s == StateExhausted
}

// ConnectionManager drives a link through the bounded-retry bring-up
// protocol.  Observers may read State concurrently; only the connect
// loop mutates it.
type ConnectionManager struct {
	link    link.Link
	logger  *util.Logger
	metrics *metrics.Collector
	state   atomic.Int32
}

// NewConnectionManager returns a manager for a single bring-up run.
func NewConnectionManager(l link.Link, logger *util.Logger, m *metrics.Collector) *ConnectionManager {
	return &ConnectionManager{link: l, logger: logger, metrics: m}
}

// State returns the current link state.  Safe for concurrent use.
func (cm *ConnectionManager) State() LinkState {
	return LinkState(cm.state.Load())
}

// setState advances the state machine.  Terminal states are sticky.
func (cm *ConnectionManager) setState(next LinkState) {
	for {
		cur := LinkState(cm.state.Load())
		if cur.terminal() || next <= cur {
			return
		}
		if cm.state.CompareAndSwap(int32(cur), int32(next)) {
			return
		}
	}
}

// Connect loops until the link is up, authentication fails, or the
// retry budget runs out.  Exactly config.MaxRetries + 1 attempts are
// made in total: the initial attempt plus MaxRetries retries.
// Authentication failures abort immediately with no retry.
func (cm *ConnectionManager) Connect(ctx context.Context) error {
	cm.setState(StateConnecting)

	attempts := 0
	var lastErr error

	err := retry.Do(ctx, config.MaxRetries+1, func(attempt int) error {
		if cm.link.IsConnected() {
			return nil
		}

		attempts = attempt
		cm.metrics.ConnectAttempt()

		err := cm.link.Connect(ctx)
		if err == nil {
			return nil
		}
		if ncerr.IsAuthFailure(err) {
			return retry.Permanent(err)
		}

		lastErr = err
		cm.logger.Warn("couldn't connect: %v, will retry", err)
		return err
	})

	if err != nil {
		cm.metrics.RecordError(err.Error())
		if ncerr.IsAuthFailure(err) {
			cm.setState(StateAuthFailed)
			cm.logger.Error("authentication failure, giving up")
			return err
		}
		if lastErr == nil {
			lastErr = err // cancelled before any transient failure
		}
		cm.setState(StateExhausted)
		return &ncerr.ExhaustedError{Attempts: attempts, Err: lastErr}
	}

	cm.setState(StateConnected)
	cm.logger.Info("connection established")
	if addr := cm.link.Address(); addr != "" {
		cm.logger.Info("IP address %s", addr)
	}
	return nil
}
