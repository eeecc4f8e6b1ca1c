// Package metrics provides lightweight counters for tracking a single
// probe run.
//
// All methods are safe for concurrent use.  A nil *Collector is a
// valid no-op receiver, so callers never need to nil-check.
package metrics

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"
)

// Collector tracks runtime metrics for a probe run.
// A nil Collector is safe to use - all methods become no-ops.
type Collector struct {
	connectAttempts atomic.Int64
	bytesSent       atomic.Int64
	bytesReceived   atomic.Int64
	errorsTotal     atomic.Int64

	mu           sync.RWMutex
	startTime    time.Time
	lastError    time.Time
	lastErrorMsg string
}

// New creates a metrics collector with the start time set to now.
func New() *Collector {
	return &Collector{startTime: time.Now()}
}

// ── Connection metrics ───────────────────────────────────────────────

// ConnectAttempt records one link connect attempt.
func (c *Collector) ConnectAttempt() {
	if c == nil {
		return
	}
	c.connectAttempts.Add(1)
}

// ConnectAttempts returns the number of connect attempts made.
func (c *Collector) ConnectAttempts() int64 {
	if c == nil {
		return 0
	}
	return c.connectAttempts.Load()
}

// ── I/O metrics ──────────────────────────────────────────────────────

// BytesSent records n bytes written to the echo server.
func (c *Collector) BytesSent(n int64) {
	if c == nil {
		return
	}
	c.bytesSent.Add(n)
}

// BytesReceived records n bytes read back from the echo server.
func (c *Collector) BytesReceived(n int64) {
	if c == nil {
		return
	}
	c.bytesReceived.Add(n)
}

// TotalBytesSent returns total bytes sent.
func (c *Collector) TotalBytesSent() int64 {
	if c == nil {
		return 0
	}
	return c.bytesSent.Load()
}

// TotalBytesReceived returns total bytes received.
func (c *Collector) TotalBytesReceived() int64 {
	if c == nil {
		return 0
	}
	return c.bytesReceived.Load()
}

// ── Error metrics ────────────────────────────────────────────────────

// RecordError increments the error counter and stores the message.
func (c *Collector) RecordError(msg string) {
	if c == nil {
		return
	}
	c.errorsTotal.Add(1)
	c.mu.Lock()
	c.lastError = time.Now()
	c.lastErrorMsg = msg
	c.mu.Unlock()
}

// ErrorCount returns the total number of errors recorded.
func (c *Collector) ErrorCount() int64 {
	if c == nil {
		return 0
	}
	return c.errorsTotal.Load()
}

// ── Snapshot ─────────────────────────────────────────────────────────

// Snapshot is a point-in-time view of all metrics.
type Snapshot struct {
	Uptime           string `json:"uptime"`
	ConnectAttempts  int64  `json:"connect_attempts"`
	BytesSent        int64  `json:"bytes_sent"`
	BytesReceived    int64  `json:"bytes_received"`
	ErrorsTotal      int64  `json:"errors_total"`
	LastError        string `json:"last_error,omitempty"`
	LastErrorMessage string `json:"last_error_message,omitempty"`
}

// Snapshot returns a copy of all current metrics.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Snapshot{
		Uptime:          time.Since(c.startTime).Truncate(time.Millisecond).String(),
		ConnectAttempts: c.connectAttempts.Load(),
		BytesSent:       c.bytesSent.Load(),
		BytesReceived:   c.bytesReceived.Load(),
		ErrorsTotal:     c.errorsTotal.Load(),
	}
	if !c.lastError.IsZero() {
		s.LastError = c.lastError.Format(time.RFC3339)
		s.LastErrorMessage = c.lastErrorMsg
	}
	return s
}

// JSON returns the snapshot as an indented JSON string.
func (c *Collector) JSON() string {
	s := c.Snapshot()
	data, _ := json.MarshalIndent(s, "", "  ")
	return string(data)
}
