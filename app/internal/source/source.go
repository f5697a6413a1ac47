package source

import (
	"context"
	"fmt"
)

// Kind classifies an acquisition failure.
type Kind string

const (
	KindTimeout          Kind = "timeout"
	KindNavigationFailed Kind = "navigation_failed"
	KindNoContent        Kind = "content_unavailable"
)

// AcquisitionError is returned when a fetch attempt fails. The scheduler
// owns the retry policy; sources never retry internally.
type AcquisitionError struct {
	Kind Kind
	Err  error
}

func (e *AcquisitionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("acquisition %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("acquisition %s", e.Kind)
}

func (e *AcquisitionError) Unwrap() error { return e.Err }

// Source fetches one consistent snapshot of raw dashboard content.
// Implementations must return within their configured timeout and must tear
// down any transient session before returning, success or not.
type Source interface {
	Fetch(ctx context.Context) (string, error)
}
