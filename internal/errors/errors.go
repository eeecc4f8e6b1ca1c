// Package errors provides domain-specific error types for goecho.
//
// These types carry structured context (operation, address, attempt
// counts) that lets the top-level flow map every failure path to a
// distinct exit code without string matching.
package errors

import (
	"errors"
	"fmt"
	"net"
)

// ── Sentinel errors ──────────────────────────────────────────────────

var (
	// ErrAuthFailure is a fatal authentication failure during link
	// bring-up.  Never retried.
	ErrAuthFailure = errors.New("authentication failure")

	// ErrNoReply means the echo server sent nothing back before the
	// receive timeout expired.  A soft failure, not a crash.
	ErrNoReply = errors.New("no reply from echo server")

	// ErrNotConnected is returned by link operations that require an
	// established link.
	ErrNotConnected = errors.New("link is not connected")

	// ErrNotSupported is returned for socket operations that do not
	// apply to the socket's transport kind.
	ErrNotSupported = errors.New("operation not supported by this transport")
)

// ── Structured error types ───────────────────────────────────────────

// ExhaustedError means the connect retry budget ran out.  It carries
// the number of attempts performed and the last error from the link.
type ExhaustedError struct {
	Attempts int
	Err      error // last link error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("fatal connection failure after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }

// TransactionError represents a failure inside the echo transaction.
type TransactionError struct {
	Op   string // "open", "resolve", "connect", "send", "recv"
	Addr string // remote address involved ("" before resolution)
	Err  error
}

func (e *TransactionError) Error() string {
	if e.Addr == "" {
		return fmt.Sprintf("echo %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("echo %s %s: %v", e.Op, e.Addr, e.Err)
}

func (e *TransactionError) Unwrap() error { return e.Err }

// ── Constructors ─────────────────────────────────────────────────────

// WrapTransaction creates a TransactionError for the given step.
func WrapTransaction(op, addr string, err error) *TransactionError {
	return &TransactionError{Op: op, Addr: addr, Err: err}
}

// ── Classification helpers ───────────────────────────────────────────

// IsAuthFailure reports whether err is (or wraps) an authentication
// failure.
func IsAuthFailure(err error) bool {
	return errors.Is(err, ErrAuthFailure)
}

// IsTimeout reports whether err represents an expired deadline.
func IsTimeout(err error) bool {
	var ne net.Error
	if errors.As(err, &ne) {
		return ne.Timeout()
	}
	return false
}

// ── Exit codes ───────────────────────────────────────────────────────

// Process exit codes.  Zero only when both the connection and the
// transaction succeed.
const (
	ExitOK          = 0
	ExitUsage       = 1
	ExitConnect     = 2
	ExitAuthFailure = 3
	ExitTransaction = 4
	ExitNoReply     = 5
)

// ExitCode maps an error from the probe flow to a process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrAuthFailure):
		return ExitAuthFailure
	case errors.Is(err, ErrNoReply):
		return ExitNoReply
	}

	var ex *ExhaustedError
	if errors.As(err, &ex) {
		return ExitConnect
	}
	var te *TransactionError
	if errors.As(err, &te) {
		return ExitTransaction
	}
	return ExitUsage
}

// ── Re-exports for convenience ───────────────────────────────────────
//
// These allow callers to use goecho/internal/errors as a drop-in
// replacement for the standard library in common operations.

// As is [errors.As].
func As(err error, target interface{}) bool { return errors.As(err, target) }

// Is is [errors.Is].
func Is(err, target error) bool { return errors.Is(err, target) }

// New is [errors.New].
func New(text string) error { return errors.New(text) }

// Unwrap is [errors.Unwrap].
func Unwrap(err error) error { return errors.Unwrap(err) }
