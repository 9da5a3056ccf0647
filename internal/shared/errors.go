package shared

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument indicates malformed caller input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrDatabase wraps driver level failures raised below a gateway.
	ErrDatabase = errors.New("database error")
	// ErrLogic indicates a broken invariant in persisted data.
	ErrLogic = errors.New("logic error")
	// ErrIO indicates a storage layer failure.
	ErrIO = errors.New("io error")
	// ErrUnauthorized indicates a credential mismatch.
	ErrUnauthorized = errors.New("unauthorized")
)

// NotFoundError names the missing entity and the identifier used to look it up.
type NotFoundError struct {
	What string
	ID   any
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("could not find '%s' with identifier '%v'", e.What, e.ID)
}

// Is matches ErrNotFound.
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// NewNotFound builds a NotFoundError.
func NewNotFound(what string, id any) error {
	return &NotFoundError{What: what, ID: id}
}

// InvalidArgumentError reports which argument was rejected and why.
type InvalidArgumentError struct {
	Name   string
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("argument '%s' is invalid: %s", e.Name, e.Reason)
}

// Is matches ErrInvalidArgument.
func (e *InvalidArgumentError) Is(target error) bool { return target == ErrInvalidArgument }

// NewInvalidArgument builds an InvalidArgumentError.
func NewInvalidArgument(name, reason string, args ...any) error {
	if len(args) > 0 {
		reason = fmt.Sprintf(reason, args...)
	}
	return &InvalidArgumentError{Name: name, Reason: reason}
}

// DatabaseError carries the gateway operation that failed and the driver cause.
type DatabaseError struct {
	Op  string
	Err error
}

func (e *DatabaseError) Error() string {
	return fmt.Sprintf("database error in %s: %v", e.Op, e.Err)
}

// Is matches ErrDatabase.
func (e *DatabaseError) Is(target error) bool { return target == ErrDatabase }

// Unwrap exposes the driver cause.
func (e *DatabaseError) Unwrap() error { return e.Err }

// IOError reports a failure of the underlying binary storage.
type IOError struct {
	Op  string
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Is matches ErrIO.
func (e *IOError) Is(target error) bool { return target == ErrIO }

// Unwrap exposes the storage cause.
func (e *IOError) Unwrap() error { return e.Err }

// LogicError reports an invariant violation found in stored data.
func LogicError(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrLogic}, args...)...)
}

// IsDomainError reports whether err already belongs to this taxonomy and must
// not be rewrapped by a conversion layer.
func IsDomainError(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrInvalidArgument) ||
		errors.Is(err, ErrDatabase) ||
		errors.Is(err, ErrLogic) ||
		errors.Is(err, ErrIO) ||
		errors.Is(err, ErrUnauthorized)
}

// GatewayObserver is notified whenever a gateway driver error is converted.
type GatewayObserver interface {
	ObserveGatewayError(gateway, op string)
}
