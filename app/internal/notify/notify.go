package notify

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies a delivery failure.
type Kind string

const (
	KindUnreachable Kind = "unreachable"
	KindRejected    Kind = "rejected"
)

// DeliveryError is returned when an alert could not be handed to the
// channel. Notifiers never retry internally; the alert manager re-arms the
// owed message and tries again next cycle.
type DeliveryError struct {
	Kind Kind
	Err  error
}

func (e *DeliveryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("delivery %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("delivery %s", e.Kind)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// Notifier delivers a formatted text alert to an external channel.
type Notifier interface {
	Send(ctx context.Context, text string) error
}

// Multi fans a message out to several channels. Delivery counts as failed
// only if every channel failed, so one dead channel cannot silence alerts
// that still reached the other.
type Multi []Notifier

// Send delivers to all channels and returns the first error if none
// succeeded.
func (m Multi) Send(ctx context.Context, text string) error {
	if len(m) == 0 {
		return &DeliveryError{Kind: KindUnreachable, Err: errors.New("no channels configured")}
	}
	var firstErr error
	delivered := false
	for _, n := range m {
		if err := n.Send(ctx, text); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		delivered = true
	}
	if delivered {
		return nil
	}
	return firstErr
}
