package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned (wrapped in a permanent ServiceError) when a node
// id or name does not resolve on the remote service.
var ErrNotFound = errors.New("not found")

// ErrorClass classifies a remote failure for the retry decision.
type ErrorClass int

const (
	// ClassPermanent errors surface immediately: not found, invalid
	// argument, quota exhausted for good.
	ClassPermanent ErrorClass = iota

	// ClassRetriable errors are expected to be transient: overload, rate
	// limit, momentary server fault.
	ClassRetriable
)

// ServiceError is a classified remote failure, produced by the remote-service
// adapter at the boundary. Status carries the service's own code when one
// exists (0 otherwise).
type ServiceError struct {
	Class  ErrorClass
	Status int
	Op     string
	Err    error
}

func (e *ServiceError) Error() string {
	class := "permanent"
	if e.Class == ClassRetriable {
		class = "retriable"
	}
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s (status %d): %v", e.Op, class, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, class, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Retriable wraps err as a transient service failure.
func Retriable(op string, status int, err error) error {
	return &ServiceError{Class: ClassRetriable, Status: status, Op: op, Err: err}
}

// Permanent wraps err as a non-retriable service failure.
func Permanent(op string, status int, err error) error {
	return &ServiceError{Class: ClassPermanent, Status: status, Op: op, Err: err}
}

// IsRetriable reports whether err is classified as transient.
func IsRetriable(err error) bool {
	var se *ServiceError
	return errors.As(err, &se) && se.Class == ClassRetriable
}

// IsNotFound reports whether err means the node does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
