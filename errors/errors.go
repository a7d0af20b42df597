// Package errors provides error handling for typesync.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - Hints and details for user-facing messages
//
// Usage:
//
//	// Wrap with context
//	if err := writeEntry(); err != nil {
//	    return errors.Wrap(err, "failed to write cache entry")
//	}
//
//	// Check against a pipeline sentinel
//	if errors.Is(err, errors.ErrCacheCorrupt) {
//	    // treat as cache miss
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

// Advanced features
var (
	WithSecondary    = crdb.WithSecondaryError
	AssertionFailedf = crdb.AssertionFailedf
)

// Pipeline sentinel errors. Use these with errors.Is() for type-safe checks
// and errors.Wrap() to add context while preserving the type.
//
// The split follows the propagation policy of the sync pipeline: anything that
// prevents producing a correct artifact set is fatal for the cycle, anything
// that only hurts caching efficiency is absorbed with a warning.
var (
	// ErrExtractionFailed indicates the schema could not be extracted and no
	// usable fallback snapshot exists. Fatal for the cycle.
	ErrExtractionFailed = New("schema extraction failed")

	// ErrCacheCorrupt indicates a cache entry could not be read or parsed.
	// Never fatal: the entry is deleted and the lookup degrades to a miss.
	ErrCacheCorrupt = New("cache entry corrupt")

	// ErrCacheWriteFailed indicates a cache entry could not be persisted.
	// Non-fatal: the cycle result is still returned to the caller.
	ErrCacheWriteFailed = New("cache write failed")

	// ErrValidationFailed indicates a cached artifact is missing from disk or
	// its checksum no longer matches. Forces regeneration, not fatal.
	ErrValidationFailed = New("cached artifact validation failed")

	// ErrGeneratorFailed indicates a generator could not produce its artifact.
	// Fatal for the cycle; carries the originating cause.
	ErrGeneratorFailed = New("generator failed")

	// ErrSyncInProgress indicates a sync cycle is already running on this
	// orchestrator instance.
	ErrSyncInProgress = New("sync already in progress")
)

// IsCacheCorruptError checks if an error is or wraps ErrCacheCorrupt.
func IsCacheCorruptError(err error) bool {
	return err != nil && Is(err, ErrCacheCorrupt)
}

// IsExtractionError checks if an error is or wraps ErrExtractionFailed.
func IsExtractionError(err error) bool {
	return err != nil && Is(err, ErrExtractionFailed)
}

// WrapGeneratorFailure wraps a generator error with the generator's identity
// while preserving the ErrGeneratorFailed sentinel and the original cause.
func WrapGeneratorFailure(err error, generatorID string) error {
	return Wrapf(WithSecondary(ErrGeneratorFailed, err), "generator %q", generatorID)
}
