package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/shadowfeed/internal/feed"
)

// SyncError represents a condition detected while running a pass.
//
// None of these reach the sink. Transient skips are expected and logged at
// debug level; scan failures are logged and the partial batch is still
// dispatched.
type SyncError struct {
	// Code identifies the error category.
	Code SyncErrorCode

	// Kind is the record kind the pass was for.
	Kind feed.Kind

	// Message is a human-readable description.
	Message string

	// Row is the row being read when a scan failed, or -1.
	Row int

	// Err is the underlying cause, if any.
	Err error
}

// SyncErrorCode categorizes pass errors.
type SyncErrorCode string

const (
	// ErrCodeGateRejected means a full pass for the kind is already in flight.
	ErrCodeGateRejected SyncErrorCode = "GATE_REJECTED"

	// ErrCodeBulkLoading means the backing store is bulk loading.
	ErrCodeBulkLoading SyncErrorCode = "BULK_LOADING"

	// ErrCodeScanFailed means a backing store read failed mid-pass.
	ErrCodeScanFailed SyncErrorCode = "SCAN_FAILED"

	// ErrCodeUnknownKind means a notification named a kind with no source.
	ErrCodeUnknownKind SyncErrorCode = "UNKNOWN_KIND"
)

// Error implements the error interface.
func (e *SyncError) Error() string {
	msg := fmt.Sprintf("%s: %s (kind=%s", e.Code, e.Message, e.Kind)
	if e.Row >= 0 {
		msg += fmt.Sprintf(", row=%d", e.Row)
	}
	msg += ")"
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *SyncError) Unwrap() error {
	return e.Err
}

// IsTransientSkip reports whether err means the pass was skipped rather
// than failed: a gate rejection or bulk loading.
// Uses errors.As to handle wrapped errors.
func IsTransientSkip(err error) bool {
	var se *SyncError
	if errors.As(err, &se) {
		return se.Code == ErrCodeGateRejected || se.Code == ErrCodeBulkLoading
	}
	return false
}

// IsScanError reports whether err is a backing store read failure.
func IsScanError(err error) bool {
	var se *SyncError
	if errors.As(err, &se) {
		return se.Code == ErrCodeScanFailed
	}
	return false
}

func newGateRejected(kind feed.Kind) *SyncError {
	return &SyncError{
		Code:    ErrCodeGateRejected,
		Kind:    kind,
		Message: "full pass already in flight",
		Row:     -1,
	}
}

func newBulkLoading(kind feed.Kind) *SyncError {
	return &SyncError{
		Code:    ErrCodeBulkLoading,
		Kind:    kind,
		Message: "backing store is bulk loading",
		Row:     -1,
	}
}

func newScanError(kind feed.Kind, row int, err error) *SyncError {
	return &SyncError{
		Code:    ErrCodeScanFailed,
		Kind:    kind,
		Message: "backing store read failed",
		Row:     row,
		Err:     err,
	}
}

func newUnknownKind(kind feed.Kind) *SyncError {
	return &SyncError{
		Code:    ErrCodeUnknownKind,
		Kind:    kind,
		Message: "no source registered for kind",
		Row:     -1,
	}
}
