package pocketbot

import (
	"time"

	"nhooyr.io/websocket"
)

// ============================================================================
// Reconnect Policy
// ============================================================================

// Application close codes used by the pocketbot server.
const (
	// CloseAuthRejected is sent when the token query parameter is missing
	// or does not match. Retrying cannot succeed until the caller supplies
	// new credentials.
	CloseAuthRejected websocket.StatusCode = 4001

	// CloseIdleTimeout is sent when the server recycles a connection that
	// has been inactive. Expected housekeeping, not a fault.
	CloseIdleTimeout websocket.StatusCode = 4002
)

// RetryDecision says whether and when to reopen after a disconnect.
type RetryDecision int

const (
	RetryNever RetryDecision = iota
	RetryNow
	RetryAfterDelay
)

// ClassifyClose maps the close code of a dropped connection to a retry
// decision. Every code other than the two reserved ones, including a clean
// close and a plain transport error (no close frame at all), retries with
// backoff.
func ClassifyClose(code websocket.StatusCode) RetryDecision {
	switch code {
	case CloseAuthRejected:
		return RetryNever
	case CloseIdleTimeout:
		return RetryNow
	}
	return RetryAfterDelay
}

// backoff computes reconnect delays: the base delay doubled per consecutive
// failed attempt, capped at max. No jitter, so the delay never decreases as
// attempts accumulate.
type backoff struct {
	base time.Duration
	max  time.Duration
}

// delay returns the wait before reconnect attempt n (zero-based).
func (b backoff) delay(attempt int) time.Duration {
	d := b.base
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= b.max {
			return b.max
		}
	}
	if d > b.max {
		return b.max
	}
	return d
}
