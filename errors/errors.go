package errors

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// Validation errors
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeRequired   ErrorType = "required"
	ErrorTypeInvalid    ErrorType = "invalid"

	// Wait errors
	ErrorTypeTimeout  ErrorType = "timeout"
	ErrorTypeCanceled ErrorType = "canceled"

	// Module errors
	ErrorTypeLifecycle ErrorType = "lifecycle"
	ErrorTypeHandler   ErrorType = "handler"

	// System errors
	ErrorTypeInternal ErrorType = "internal"
	ErrorTypeUnknown  ErrorType = "unknown"
)

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType              `json:"type"`
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	InnerError error                  `json:"-"`
	Stack      []string               `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.InnerError != nil {
		return e.InnerError.Error()
	}
	return string(e.Type)
}

// Unwrap returns the inner error
func (e *AppError) Unwrap() error {
	return e.InnerError
}

// WithMessage adds a message to the error
func (e *AppError) WithMessage(msg string) *AppError {
	e.Message = msg
	return e
}

// WithCode adds a code to the error
func (e *AppError) WithCode(code string) *AppError {
	e.Code = code
	return e
}

// WithDetail adds a detail to the error
func (e *AppError) WithDetail(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithDetails adds multiple details to the error
func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithInnerError sets the inner error
func (e *AppError) WithInnerError(err error) *AppError {
	e.InnerError = err
	return e
}

// WithStack captures the call stack
func (e *AppError) WithStack() *AppError {
	e.Stack = captureStack(3) // Skip this method and the caller
	return e
}

// Is checks if this error is of a specific type
func (e *AppError) Is(target error) bool {
	if targetApp, ok := target.(*AppError); ok {
		return e.Type == targetApp.Type
	}
	return false
}

// New creates a new AppError
func New(errType ErrorType, message string) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Code:    string(errType),
	}
}

// FromError converts a standard error to AppError
func FromError(err error) *AppError {
	if err == nil {
		return nil
	}

	if appErr, ok := err.(*AppError); ok {
		return appErr
	}

	return &AppError{
		Type:       ErrorTypeUnknown,
		Message:    err.Error(),
		InnerError: err,
	}
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) *AppError {
	return FromError(err).WithMessage(message)
}

// WrapWithType wraps an error with a specific type
func WrapWithType(err error, errType ErrorType, message string) *AppError {
	return &AppError{
		Type:       errType,
		Message:    message,
		InnerError: err,
		Code:       string(errType),
	}
}

// Validation errors
func NewValidation(message string) *AppError {
	return New(ErrorTypeValidation, message)
}

func NewRequired(field string) *AppError {
	return New(ErrorTypeRequired, fmt.Sprintf("%s is required", field)).
		WithDetail("field", field)
}

func NewInvalid(field string, value interface{}, reason string) *AppError {
	return New(ErrorTypeInvalid, fmt.Sprintf("invalid value for %s: %v", field, value)).
		WithDetail("field", field).
		WithDetail("value", value).
		WithDetail("reason", reason)
}

// Wait errors
func NewTimeout(eventType string) *AppError {
	return New(ErrorTypeTimeout, fmt.Sprintf("timed out waiting for %q", eventType)).
		WithDetail("event_type", eventType)
}

func NewCanceled(eventType string, cause error) *AppError {
	return New(ErrorTypeCanceled, fmt.Sprintf("wait for %q canceled", eventType)).
		WithDetail("event_type", eventType).
		WithInnerError(cause)
}

// Module errors
func NewLifecycle(module string, message string) *AppError {
	return New(ErrorTypeLifecycle, message).
		WithDetail("module", module)
}

func NewHandler(eventType string, cause error) *AppError {
	return New(ErrorTypeHandler, fmt.Sprintf("handler failed for %q", eventType)).
		WithDetail("event_type", eventType).
		WithInnerError(cause)
}

// System errors
func NewInternal(message string) *AppError {
	return New(ErrorTypeInternal, message)
}

// IsType reports whether err is (or wraps) an AppError of the given type.
func IsType(err error, errType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errType
	}
	return false
}

// IsTimeout reports whether err is a wait timeout.
func IsTimeout(err error) bool {
	return IsType(err, ErrorTypeTimeout)
}

// IsCanceled reports whether err is a canceled wait.
func IsCanceled(err error) bool {
	return IsType(err, ErrorTypeCanceled)
}

// captureStack captures the current call stack, skipping the given number of frames.
func captureStack(skip int) []string {
	var stack []string
	for i := skip; i < skip+10; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}
		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}
		name := fn.Name()
		if strings.Contains(name, "runtime.") {
			break
		}
		stack = append(stack, fmt.Sprintf("%s (%s:%d)", name, file, line))
	}
	return stack
}
