// Package errors provides error handling for the mediator.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - PII-safe error formatting
//   - Network portability for distributed systems
//   - Sentry integration
//
// Usage:
//
//	// Create new error
//	err := errors.New("something went wrong")
//
//	// Wrap with context
//	if err := doSomething(); err != nil {
//	    return errors.Wrap(err, "failed to do something")
//	}
//
//	// Add hints for users
//	return errors.WithHint(err, "try increasing the timeout")
//
//	// Check errors
//	if errors.Is(err, sql.ErrNoRows) {
//	    // handle not found
//	}
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
)

// User-facing messages and details
var (
	WithHint          = crdb.WithHint
	WithHintf         = crdb.WithHintf
	WithDetail        = crdb.WithDetail
	WithDetailf       = crdb.WithDetailf
	WithSafeDetails   = crdb.WithSafeDetails
	WithSecondaryError = crdb.WithSecondaryError
)

// Error inspection
var (
	Is        = crdb.Is
	IsAny     = crdb.IsAny
	As        = crdb.As
	Unwrap    = crdb.Unwrap
	UnwrapOnce = crdb.UnwrapOnce
	UnwrapAll = crdb.UnwrapAll
	GetAllHints = crdb.GetAllHints
	GetAllDetails = crdb.GetAllDetails
	FlattenHints = crdb.FlattenHints
	FlattenDetails = crdb.FlattenDetails
)

// Advanced features
var (
	Handled            = crdb.Handled
	HandledWithMessage = crdb.HandledWithMessage
	WithDomain         = crdb.WithDomain
	GetDomain          = crdb.GetDomain
	WithContextTags    = crdb.WithContextTags
	EncodeError        = crdb.EncodeError
	DecodeError        = crdb.DecodeError
	GetReportableStackTrace = crdb.GetReportableStackTrace
)

// GetStack is an alias for GetReportableStackTrace for convenience.
var GetStack = crdb.GetReportableStackTrace

// Assertions and panics
var (
	AssertionFailedf  = crdb.AssertionFailedf
	NewAssertionErrorWithWrappedErrf = crdb.NewAssertionErrorWithWrappedErrf
)

// Sentinel taxonomy. Component boundaries construct wrapped errors with
// these as the root cause so callers can Is/As against a stable set
// instead of matching strings.
var (
	// ErrConfigInvalid marks an invalid or absent config value. Fatal at startup.
	ErrConfigInvalid = crdb.New("config: invalid value")

	// ErrSpawnFailed marks a PTY or subprocess that failed to start.
	// The worker enters the failed state immediately.
	ErrSpawnFailed = crdb.New("worker: spawn failed")

	// ErrWorkerLost marks a PTY that closed unexpectedly mid-session.
	ErrWorkerLost = crdb.New("worker: lost")

	// ErrParseFailed marks an unreadable transcript or metrics line.
	// Readers skip the line and log a warning; they never abort on this.
	ErrParseFailed = crdb.New("transcript: parse failed")

	// ErrDecisionFailed marks a rule engine crash or an unrecoverable AI call.
	// Callers fall through to the next decision layer.
	ErrDecisionFailed = crdb.New("decision: failed")

	// ErrEscalationTimeout marks an escalation the human did not answer
	// within the configured budget. The effective answer is deny.
	ErrEscalationTimeout = crdb.New("escalation: timed out")

	// ErrTransport marks a WebSocket write failure. The connection is
	// closed; other subscribers are unaffected.
	ErrTransport = crdb.New("transport: write failed")

	// ErrBackpressureDrop marks a send-queue overflow; the oldest frame
	// was dropped and the drop counter incremented.
	ErrBackpressureDrop = crdb.New("transport: backpressure drop")

	// ErrWorkerNotFound marks a lookup against an unknown worker ID.
	ErrWorkerNotFound = crdb.New("worker: not found")
)
