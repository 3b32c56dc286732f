// Package errors provides error handling for xszc.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - Hints surfaced to end users
//
// Usage:
//
//	// Wrap with context
//	if err := relayPixel(); err != nil {
//	    return errors.Wrap(err, "failed to relay pixel")
//	}
//
//	// Check against a sentinel
//	if errors.Is(err, errors.ErrRejected) {
//	    // surface the relay's reason verbatim
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
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
)

// Error inspection
var (
	Is        = crdb.Is
	IsAny     = crdb.IsAny
	As        = crdb.As
	Unwrap    = crdb.Unwrap
	UnwrapAll = crdb.UnwrapAll
)

// Sentinel errors for the pixel placement flow. Each maps to one failure
// class of the gasless submission protocol; use them with errors.Is and
// wrap them with errors.Wrap to add context while preserving the class.
var (
	// ErrValidation indicates a malformed or out-of-range request field.
	// Never retried automatically; always surfaced verbatim to the caller.
	ErrValidation = New("validation failed")

	// ErrSigning indicates the signer capability declined or failed.
	// The flow resets with the working copy preserved.
	ErrSigning = New("signing failed")

	// ErrRelay indicates a network failure reaching the relay endpoint.
	ErrRelay = New("relay unreachable")

	// ErrRejected indicates the relay returned a non-2xx response.
	// The wrapped message carries the server's reason.
	ErrRejected = New("relay rejected request")

	// ErrLoad indicates a grid snapshot fetch failed. Surfaced as a
	// retryable error state, not auto-retried.
	ErrLoad = New("snapshot load failed")

	// ErrConfiguration indicates missing relayer credentials. Fails fast
	// before any chain interaction is attempted.
	ErrConfiguration = New("relayer not configured")

	// ErrSubmissionInFlight indicates a submit was requested while an
	// earlier submission is still signing, submitting, or confirming.
	ErrSubmissionInFlight = New("submission already in flight")

	// ErrOffGrid indicates a cell outside the contract's current bounds.
	// The contract would reject it, so submission is refused client-side.
	ErrOffGrid = New("cell is off the grid")

	// ErrCooldownActive indicates the author's per-address cooldown has
	// not elapsed yet.
	ErrCooldownActive = New("cooldown active")
)

// IsValidationError checks if an error is or wraps ErrValidation.
func IsValidationError(err error) bool {
	return err != nil && Is(err, ErrValidation)
}

// IsSigningError checks if an error is or wraps ErrSigning.
func IsSigningError(err error) bool {
	return err != nil && Is(err, ErrSigning)
}

// IsRelayError checks if an error is or wraps ErrRelay.
func IsRelayError(err error) bool {
	return err != nil && Is(err, ErrRelay)
}

// IsRejectedError checks if an error is or wraps ErrRejected.
func IsRejectedError(err error) bool {
	return err != nil && Is(err, ErrRejected)
}

// IsLoadError checks if an error is or wraps ErrLoad.
func IsLoadError(err error) bool {
	return err != nil && Is(err, ErrLoad)
}

// IsConfigurationError checks if an error is or wraps ErrConfiguration.
func IsConfigurationError(err error) bool {
	return err != nil && Is(err, ErrConfiguration)
}

// NewValidationError creates a validation error with a formatted message.
func NewValidationError(format string, args ...interface{}) error {
	return Wrap(ErrValidation, Newf(format, args...).Error())
}
