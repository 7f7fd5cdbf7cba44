package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrListingNotFound     = errors.New("listing not found")
	ErrImageNotFound       = errors.New("image not found")
	ErrInvalidListingData  = errors.New("invalid listing data")
	ErrNoImages            = errors.New("listing has no images")
	ErrNotConfirmed        = errors.New("destructive action requires confirmation")
	ErrAnalysisInFlight    = errors.New("analysis already in flight")
	ErrInvalidStatusChange = errors.New("invalid status transition")
)

// ValidationError carries the human-readable reasons an operation was
// blocked: per-file ingest rejections and missing required fields on Approve.
// It blocks only the specific operation and never corrupts stored state.
type ValidationError struct {
	Reasons []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", strings.Join(e.Reasons, ", "))
}

func NewValidationError(reasons ...string) *ValidationError {
	return &ValidationError{Reasons: reasons}
}
