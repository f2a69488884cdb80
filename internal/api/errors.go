package api

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrSegmentNotEditable is returned when an edit or delete addresses a
// transcript segment outside the reserved chunk id format.
var ErrSegmentNotEditable = errors.New("segment is not editable")

// Error is a structured failure reported by the backend.
type Error struct {
	Code      string `json:"code"`
	Status    int    `json:"status"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`
}

func (e *Error) Error() string {
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		msg = e.Code
	}
	if msg == "" {
		return "unknown backend error"
	}
	if e.Code == "" || strings.Contains(msg, e.Code) {
		return msg
	}
	return fmt.Sprintf("%s (%s)", msg, e.Code)
}

// IsRetryable classifies an operation failure as transient. Transient means
// no response was received at all (transport failure), or the backend
// reported a 5xx-range status; everything else, validation included, is
// permanent. Cancellation is never retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Retryable || apiErr.Status >= 500
	}
	// No structured response at all: the request may never have arrived.
	return true
}
