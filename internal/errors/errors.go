package errors

import (
	"errors"
	"fmt"
)

// Standard error codes for the application.
const (
	CodeUnknown           = "UNKNOWN"
	CodeConfig            = "CONFIG"
	CodeStore             = "STORE"
	CodeStoreUnavailable  = "STORE_UNAVAILABLE"
	CodeTransientNetwork  = "TRANSIENT_NETWORK"
	CodeUnrecognizedInput = "UNRECOGNIZED_INPUT"
	CodeTemplateNotFound  = "TEMPLATE_NOT_FOUND"
	CodeMissingVariable   = "MISSING_VARIABLE"
	CodeHandlerTimeout    = "HANDLER_TIMEOUT"
	CodeAPI               = "API"
)

// ApplicationError is the interface that all our custom errors implement.
type ApplicationError interface {
	error
	Code() string
	Unwrap() error
}

// Error represents a basic application error.
type Error struct {
	code    string
	message string
	err     error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.message, e.err)
	}

	return e.message
}

func (e *Error) Code() string {
	return e.code
}

func (e *Error) Unwrap() error {
	return e.err
}

// Code returns the application error code carried by err,
// or CodeUnknown if it doesn't carry one.
func Code(err error) string {
	var appErr ApplicationError
	if errors.As(err, &appErr) {
		return appErr.Code()
	}

	return CodeUnknown
}

// Specific error types and constructors

// ConfigError reports unusable configuration discovered at startup.
type ConfigError struct {
	base Error
}

func (e *ConfigError) Error() string {
	return e.base.Error()
}

func (e *ConfigError) Code() string {
	return e.base.Code()
}

func (e *ConfigError) Unwrap() error {
	return e.base.Unwrap()
}

func NewConfigError(message string, cause error) error {
	return &ConfigError{
		base: Error{
			code:    CodeConfig,
			message: message,
			err:     cause,
		},
	}
}

// StoreError reports a non-transient persistence failure.
type StoreError struct {
	base Error
}

func (e *StoreError) Error() string {
	return e.base.Error()
}

func (e *StoreError) Code() string {
	return e.base.Code()
}

func (e *StoreError) Unwrap() error {
	return e.base.Unwrap()
}

func NewStoreError(message string, cause error) error {
	return &StoreError{
		base: Error{
			code:    CodeStore,
			message: message,
			err:     cause,
		},
	}
}

// StoreUnavailableError reports that the persistent store could not be
// reached within the bounded retry budget. Callers degrade gracefully
// instead of crashing.
type StoreUnavailableError struct {
	base Error
}

func (e *StoreUnavailableError) Error() string {
	return e.base.Error()
}

func (e *StoreUnavailableError) Code() string {
	return e.base.Code()
}

func (e *StoreUnavailableError) Unwrap() error {
	return e.base.Unwrap()
}

func NewStoreUnavailableError(message string, cause error) error {
	return &StoreUnavailableError{
		base: Error{
			code:    CodeStoreUnavailable,
			message: message,
			err:     cause,
		},
	}
}

// TransientNetworkError reports a network failure that is expected to
// heal on its own and is safe to retry.
type TransientNetworkError struct {
	base Error
}

func (e *TransientNetworkError) Error() string {
	return e.base.Error()
}

func (e *TransientNetworkError) Code() string {
	return e.base.Code()
}

func (e *TransientNetworkError) Unwrap() error {
	return e.base.Unwrap()
}

func NewTransientNetworkError(message string, cause error) error {
	return &TransientNetworkError{
		base: Error{
			code:    CodeTransientNetwork,
			message: message,
			err:     cause,
		},
	}
}

// UnrecognizedInputError reports input that no registered command
// handler accepts.
type UnrecognizedInputError struct {
	base Error
}

func (e *UnrecognizedInputError) Error() string {
	return e.base.Error()
}

func (e *UnrecognizedInputError) Code() string {
	return e.base.Code()
}

func (e *UnrecognizedInputError) Unwrap() error {
	return e.base.Unwrap()
}

func NewUnrecognizedInputError(message string) error {
	return &UnrecognizedInputError{
		base: Error{
			code:    CodeUnrecognizedInput,
			message: message,
		},
	}
}

// TemplateNotFoundError reports a render request for a template name
// that was never registered.
type TemplateNotFoundError struct {
	base Error
}

func (e *TemplateNotFoundError) Error() string {
	return e.base.Error()
}

func (e *TemplateNotFoundError) Code() string {
	return e.base.Code()
}

func (e *TemplateNotFoundError) Unwrap() error {
	return e.base.Unwrap()
}

func NewTemplateNotFoundError(message string) error {
	return &TemplateNotFoundError{
		base: Error{
			code:    CodeTemplateNotFound,
			message: message,
		},
	}
}

// MissingVariableError reports a template rendered against a context
// that lacks a variable the template references.
type MissingVariableError struct {
	base Error
}

func (e *MissingVariableError) Error() string {
	return e.base.Error()
}

func (e *MissingVariableError) Code() string {
	return e.base.Code()
}

func (e *MissingVariableError) Unwrap() error {
	return e.base.Unwrap()
}

func NewMissingVariableError(message string, cause error) error {
	return &MissingVariableError{
		base: Error{
			code:    CodeMissingVariable,
			message: message,
			err:     cause,
		},
	}
}

// HandlerTimeoutError reports a command handler that exceeded its
// per-invocation deadline and was abandoned.
type HandlerTimeoutError struct {
	base Error
}

func (e *HandlerTimeoutError) Error() string {
	return e.base.Error()
}

func (e *HandlerTimeoutError) Code() string {
	return e.base.Code()
}

func (e *HandlerTimeoutError) Unwrap() error {
	return e.base.Unwrap()
}

func NewHandlerTimeoutError(message string, cause error) error {
	return &HandlerTimeoutError{
		base: Error{
			code:    CodeHandlerTimeout,
			message: message,
			err:     cause,
		},
	}
}

// APIError reports a failed call to an external HTTP API.
type APIError struct {
	base Error
}

func (e *APIError) Error() string {
	return e.base.Error()
}

func (e *APIError) Code() string {
	return e.base.Code()
}

func (e *APIError) Unwrap() error {
	return e.base.Unwrap()
}

func NewAPIError(message string, cause error) error {
	return &APIError{
		base: Error{
			code:    CodeAPI,
			message: message,
			err:     cause,
		},
	}
}
