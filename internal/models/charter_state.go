package models

import (
	"fmt"
	"time"
)

// AllowTransition defines the permitted charter status transitions as a
// directed graph. A charter is cancellable until it has been dispatched.
var AllowTransition = map[CharterStatus][]CharterStatus{
	StatusBooked:     {StatusConfirmed, StatusCancelled},
	StatusConfirmed:  {StatusDispatched, StatusCancelled},
	StatusDispatched: {StatusCompleted},
	StatusCompleted:  {StatusClosed},
	// Terminal states: no transitions out of closed or cancelled
	StatusClosed:    {},
	StatusCancelled: {},
}

// CanTransition reports whether from -> to is a permitted status transition.
func CanTransition(from, to CharterStatus) bool {
	if from == to {
		return true
	}
	allowed, ok := AllowTransition[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// ApplyTransition applies a status change to the charter and maintains the
// corresponding timestamp fields. Call only after CanTransition returns true,
// or handle the error.
func ApplyTransition(c *Charter, to CharterStatus, now time.Time) error {
	if c == nil {
		return fmt.Errorf("charter is nil")
	}
	from := c.Status
	if !CanTransition(from, to) {
		return fmt.Errorf("invalid charter status transition: %s -> %s", from, to)
	}

	c.Status = to

	switch to {
	case StatusConfirmed:
		if c.ConfirmedAt == nil {
			t := now
			c.ConfirmedAt = &t
		}
	case StatusDispatched:
		if c.DispatchedAt == nil {
			t := now
			c.DispatchedAt = &t
		}
	case StatusCompleted:
		if c.CompletedAt == nil {
			t := now
			c.CompletedAt = &t
		}
	case StatusClosed:
		if c.ClosedAt == nil {
			t := now
			c.ClosedAt = &t
		}
	case StatusCancelled:
		if c.CancelledAt == nil {
			t := now
			c.CancelledAt = &t
		}
	}
	c.UpdatedAt = now
	return nil
}
