package weave

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPointcut is returned for malformed target patterns.
	ErrInvalidPointcut = errors.New("weave: invalid pointcut")
	// ErrInvalidAdvice is returned when a callback does not fit its lifecycle point.
	ErrInvalidAdvice = errors.New("weave: invalid advice")
	// ErrInvalidTarget is returned when a proxy target is not a pointer to a struct.
	ErrInvalidTarget = errors.New("weave: target must be a pointer to a struct")
	// ErrMethodNotFound is returned when a proxy has no method with the requested name.
	ErrMethodNotFound = errors.New("weave: method not found")
	// ErrInvalidArguments is returned when call arguments do not fit the method.
	ErrInvalidArguments = errors.New("weave: invalid arguments")
)

// AdviceError reports a failure raised by an advice callback. It aborts the
// dispatch of the intercepted call.
type AdviceError struct {
	Point     Point
	Signature Signature
	Err       error
}

func (e *AdviceError) Error() string {
	return fmt.Sprintf("%s advice on %s: %v", e.Point, e.Signature, e.Err)
}

func (e *AdviceError) Unwrap() error {
	return e.Err
}

func methodNotFound(name string) error {
	return fmt.Errorf("%w: %s", ErrMethodNotFound, name)
}

func invalidArguments(sig Signature, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidArguments, sig, reason)
}
