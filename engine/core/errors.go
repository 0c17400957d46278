package core

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

var (
	// ErrStaleSurface is returned when the swapchain no longer matches the surface
	// (out of date or suboptimal). The frame is dropped and the swapchain rebuilt.
	ErrStaleSurface = errors.New("swapchain out of date or suboptimal")
	// ErrCreationFailure marks any failed GPU object creation. Never retried.
	ErrCreationFailure = errors.New("gpu object creation failed")
	// ErrProgrammer marks misuse of the API: double create, use before create,
	// double destroy or an invalid render graph.
	ErrProgrammer = errors.New("programmer error")
	ErrDeviceLost = errors.New("device lost")
	ErrUnknown    = errors.New("unknown")
)

// CreationError carries which object could not be created.
type CreationError struct {
	What  string
	Cause error
}

func (e *CreationError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("failed to create %s", e.What)
	}
	return fmt.Sprintf("failed to create %s: %v", e.What, e.Cause)
}

func (e *CreationError) Unwrap() error { return e.Cause }

// Is reports every creation error as ErrCreationFailure.
func (e *CreationError) Is(target error) bool { return target == ErrCreationFailure }

// ProgrammerError is API misuse. It carries the stack of the call site.
type ProgrammerError struct {
	cause error
}

func (e *ProgrammerError) Error() string { return e.cause.Error() }

func (e *ProgrammerError) Unwrap() error { return e.cause }

func (e *ProgrammerError) Is(target error) bool { return target == ErrProgrammer }

// NewCreationError builds a fatal creation error and logs it.
func NewCreationError(what string, cause error) error {
	err := errors.WithStack(&CreationError{What: what, Cause: cause})
	LogError(err.Error())
	return err
}

// NewProgrammerError builds a fatal error for API misuse and logs it.
func NewProgrammerError(format string, args ...interface{}) error {
	err := &ProgrammerError{cause: errors.NewWithDepthf(1, format, args...)}
	LogError(err.Error())
	return err
}

// StaleSurface wraps ErrStaleSurface with the operation that observed it.
func StaleSurface(op string) error {
	return errors.Wrapf(ErrStaleSurface, "%s", op)
}

func IsRecoverable(err error) bool {
	return err != nil && errors.Is(err, ErrStaleSurface)
}

func IsFatal(err error) bool {
	return err != nil && !IsRecoverable(err)
}
