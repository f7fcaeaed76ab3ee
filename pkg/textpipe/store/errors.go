package store

import (
	"context"
	"errors"
	"fmt"
)

// ConnectorError is how implementations report failures, carrying the
// transient/permanent classification the storage stage propagates.
type ConnectorError struct {
	Op        string
	Transient bool
	Err       error
}

func (e *ConnectorError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *ConnectorError) Unwrap() error { return e.Err }

// IsTransient reports whether a connector failure may succeed if the
// identical write is retried. Deadline expiry and cancellation count as
// transient: the store was never given the chance to finish.
func IsTransient(err error) bool {
	var ce *ConnectorError
	if errors.As(err, &ce) {
		return ce.Transient
	}
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}
