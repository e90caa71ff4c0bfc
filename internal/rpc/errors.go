package rpc

import (
	"errors"
	"fmt"

	"github.com/madeeasy/weave"
)

// Standard error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
	CodeCanceled       = -32800
)

// ProtocolError represents an error that can be sent to the client.
type ProtocolError struct {
	Code    int
	Message string
	Cause   error
}

func (e *ProtocolError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ProtocolError) Unwrap() error {
	return e.Cause
}

// NewError creates a new protocol error.
func NewError(code int, message string) *ProtocolError {
	return &ProtocolError{Code: code, Message: message}
}

// WrapError creates a new protocol error wrapping an existing error.
func WrapError(code int, message string, cause error) *ProtocolError {
	return &ProtocolError{Code: code, Message: message, Cause: cause}
}

// ErrMethodNotFound returns a method not found error.
func ErrMethodNotFound(method string) *ProtocolError {
	return NewError(CodeMethodNotFound, fmt.Sprintf("method not found: %s", method))
}

// ErrInvalidParams returns an invalid params error.
func ErrInvalidParams(reason string) *ProtocolError {
	return NewError(CodeInvalidParams, fmt.Sprintf("invalid params: %s", reason))
}

// ErrCanceled returns a canceled error.
func ErrCanceled() *ProtocolError {
	return NewError(CodeCanceled, "request canceled")
}

// ErrShuttingDown returns the error sent for requests that arrive after Close.
func ErrShuttingDown() *ProtocolError {
	return NewError(CodeInternalError, "server shutting down")
}

// toProtocolError maps an invocation error onto a protocol error.
func toProtocolError(method string, err error) *ProtocolError {
	var perr *ProtocolError
	switch {
	case errors.As(err, &perr):
		return perr
	case errors.Is(err, weave.ErrMethodNotFound):
		return ErrMethodNotFound(method)
	case errors.Is(err, weave.ErrInvalidArguments):
		return WrapError(CodeInvalidParams, "invalid params", err)
	default:
		return WrapError(CodeInternalError, err.Error(), err)
	}
}
