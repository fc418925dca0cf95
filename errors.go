// Package saxpy structured error types
package saxpy

import (
	"errors"
	"fmt"
)

// ErrorType represents categories of errors
type ErrorType int

const (
	// Command-line usage errors
	ErrTypeUsage ErrorType = iota
	// Host or device memory errors
	ErrTypeMemory
	// Invalid argument errors
	ErrTypeInvalidArg
	// Kernel execution errors
	ErrTypeExecution
	// Device availability errors
	ErrTypeDevice
	// Result verification errors
	ErrTypeVerification
)

// SaxpyError represents a structured error with context
type SaxpyError struct {
	Type    ErrorType
	Op      string // Operation that failed
	Message string // Human-readable message
	Err     error  // Underlying error if any
}

// Error implements the error interface
func (e *SaxpyError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("saxpy %s error in %s: %s (caused by: %v)",
			e.Type, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("saxpy %s error in %s: %s", e.Type, e.Op, e.Message)
}

// Unwrap allows error chain inspection
func (e *SaxpyError) Unwrap() error {
	return e.Err
}

// String returns the error type as a string
func (t ErrorType) String() string {
	switch t {
	case ErrTypeUsage:
		return "Usage"
	case ErrTypeMemory:
		return "Memory"
	case ErrTypeInvalidArg:
		return "InvalidArgument"
	case ErrTypeExecution:
		return "Execution"
	case ErrTypeDevice:
		return "Device"
	case ErrTypeVerification:
		return "Verification"
	default:
		return "Unknown"
	}
}

// NewUsageError creates a command-line usage error
func NewUsageError(op string, message string) error {
	return &SaxpyError{Type: ErrTypeUsage, Op: op, Message: message}
}

// NewMemoryError creates a memory-related error
func NewMemoryError(op string, message string, err error) error {
	return &SaxpyError{Type: ErrTypeMemory, Op: op, Message: message, Err: err}
}

// NewInvalidArgError creates an invalid argument error
func NewInvalidArgError(op string, message string) error {
	return &SaxpyError{Type: ErrTypeInvalidArg, Op: op, Message: message}
}

// NewExecutionError creates an execution error
func NewExecutionError(op string, message string, err error) error {
	return &SaxpyError{Type: ErrTypeExecution, Op: op, Message: message, Err: err}
}

// NewDeviceError creates a device error
func NewDeviceError(op string, message string, err error) error {
	return &SaxpyError{Type: ErrTypeDevice, Op: op, Message: message, Err: err}
}

// NewVerificationError creates a result verification error
func NewVerificationError(op string, message string) error {
	return &SaxpyError{Type: ErrTypeVerification, Op: op, Message: message}
}

var (
	// ErrLengthMismatch indicates input vectors of different lengths
	ErrLengthMismatch = NewInvalidArgError("Saxpy", "vector lengths differ")

	// ErrInvalidSize indicates a negative allocation size
	ErrInvalidSize = NewInvalidArgError("Malloc", "size must not be negative")

	// ErrDoubleFree indicates double free attempt
	ErrDoubleFree = NewMemoryError("Free", "double free detected", nil)

	// ErrUnknownPointer indicates a pointer the pool never handed out
	ErrUnknownPointer = NewMemoryError("Free", "pointer not found in allocation pool", nil)

	// ErrUnknownBackend indicates a backend name with no registered factory
	ErrUnknownBackend = NewInvalidArgError("Open", "unknown backend")

	// ErrNoAdapter indicates that no accelerator could be acquired
	ErrNoAdapter = NewDeviceError("Device", "no compute adapter available", nil)
)

func isType(err error, t ErrorType) bool {
	var e *SaxpyError
	if errors.As(err, &e) {
		return e.Type == t
	}
	return false
}

// IsUsageError checks if an error is a command-line usage error
func IsUsageError(err error) bool { return isType(err, ErrTypeUsage) }

// IsMemoryError checks if an error is a memory error
func IsMemoryError(err error) bool { return isType(err, ErrTypeMemory) }

// IsInvalidArgError checks if an error is an invalid argument error
func IsInvalidArgError(err error) bool { return isType(err, ErrTypeInvalidArg) }

// IsExecutionError checks if an error is an execution error
func IsExecutionError(err error) bool { return isType(err, ErrTypeExecution) }

// IsDeviceError checks if an error is a device error
func IsDeviceError(err error) bool { return isType(err, ErrTypeDevice) }

// IsVerificationError checks if an error is a verification error
func IsVerificationError(err error) bool { return isType(err, ErrTypeVerification) }
