package errors

import (
	"errors"
	"fmt"
)

// Category represents the type of error.
type Category string

const (
	CategoryContract    Category = "contract"
	CategoryStructural  Category = "structural"
	CategoryEnvironment Category = "environment"
	CategoryConfig      Category = "config"
	CategoryProtocol    Category = "protocol"
)

// CellError is a structured error with a stable code and an optional hint.
type CellError struct {
	// Code is a unique error identifier (e.g., "R001").
	Code string

	// Category is the error type (contract, structural, etc.).
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Component names the component instance involved, if any.
	Component string

	// Op names the runtime operation that detected the error.
	Op string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *CellError) Error() string {
	msg := e.Message
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Code != "" {
		msg = e.Code + ": " + msg
	}
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *CellError) Unwrap() error {
	return e.Wrapped
}

// Is reports whether target is a *CellError with the same code.
func (e *CellError) Is(target error) bool {
	t, ok := target.(*CellError)
	if !ok {
		return false
	}
	return t.Code != "" && t.Code == e.Code
}

// WithComponent records the component involved.
func (e *CellError) WithComponent(name string) *CellError {
	e.Component = name
	return e
}

// WithOp records the operation that detected the error.
func (e *CellError) WithOp(op string) *CellError {
	e.Op = op
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *CellError) WithSuggestion(s string) *CellError {
	e.Suggestion = s
	return e
}

// WithDetail replaces the detailed explanation.
func (e *CellError) WithDetail(d string) *CellError {
	e.Detail = d
	return e
}

// Wrap wraps another error.
func (e *CellError) Wrap(err error) *CellError {
	e.Wrapped = err
	return e
}

// New creates a CellError from a registered error code.
func New(code string) *CellError {
	template, ok := registry[code]
	if !ok {
		return &CellError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &CellError{
		Code:       code,
		Category:   template.Category,
		Message:    template.Message,
		Detail:     template.Detail,
		Suggestion: template.Suggestion,
	}
}

// Newf creates a new CellError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *CellError {
	return &CellError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in a CellError.
func FromError(err error, code string) *CellError {
	if err == nil {
		return nil
	}
	var ce *CellError
	if errors.As(err, &ce) {
		return ce
	}
	return New(code).Wrap(err)
}

// CodeOf returns the code of the first CellError in err's chain.
func CodeOf(err error) string {
	var ce *CellError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}
