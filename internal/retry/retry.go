// Package retry provides a bounded immediate-retry loop for link
// bring-up.  Unlike classic exponential backoff there is no sleep
// between attempts: the link's own connect call provides all the
// pacing the protocol needs.
package retry

import (
	"context"
	"errors"
)

// ── Permanent errors ─────────────────────────────────────────────────

// PermanentError wraps an error to signal that retrying will not help.
// Return [Permanent](err) from the operation function to stop retrying
// immediately.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent marks err as non-retryable.  The retry loop will return
// the inner error immediately without further attempts.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// IsPermanent reports whether err has been marked as permanent.
func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}

// ── Retry loop ───────────────────────────────────────────────────────

// Do executes fn until it succeeds, returns a permanent error, or
// maxAttempts attempts have been made.  The attempt parameter passed
// to fn is 1-based.
//
// On exhaustion Do returns the error from the final attempt; permanent
// errors are unwrapped before being returned.  The context is checked
// between attempts only - a running attempt is never interrupted.
func Do(ctx context.Context, maxAttempts int, fn func(attempt int) error) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err = ctx.Err(); err != nil {
			return err
		}

		err = fn(attempt)
		if err == nil {
			return nil
		}

		if IsPermanent(err) {
			return errors.Unwrap(err)
		}
	}
	return err
}
