// Package errors provides structured error types for boxdeck.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the library, CLI and HTTP service
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//
// # Error Codes
//
// Codes are grouped into categories (see [CategoryOf]):
//   - Structural: a box tree was built incorrectly (duplicate or malformed anchors)
//   - Layout: a tree could not be resolved (unbounded fill, negative size)
//   - Annotation: an annotation refers to an unknown anchor
//   - Assembly: the document could not be produced or serialized
//   - Input: a deck file, image or request was invalid
//
// # Usage
//
//	err := errors.New(errors.ErrCodeDuplicateAnchor, "anchor %q already defined", name)
//	if errors.Is(err, errors.ErrCodeDuplicateAnchor) {
//	    // Handle construction error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeInvalidImage, origErr, "decode %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Structural errors
	ErrCodeDuplicateAnchor Code = "DUPLICATE_ANCHOR"
	ErrCodeInvalidAnchor   Code = "INVALID_ANCHOR"

	// Layout errors
	ErrCodeUnboundedFill Code = "UNBOUNDED_FILL"
	ErrCodeNegativeSize  Code = "NEGATIVE_SIZE"
	ErrCodeUnknownStyle  Code = "UNKNOWN_STYLE"

	// Annotation errors
	ErrCodeUnknownAnchor Code = "UNKNOWN_ANCHOR"

	// Assembly errors
	ErrCodeEmptyDeck    Code = "EMPTY_DECK"
	ErrCodeRenderFailed Code = "RENDER_FAILED"

	// Input errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidDeck   Code = "INVALID_DECK"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidPath   Code = "INVALID_PATH"
	ErrCodeInvalidImage  Code = "INVALID_IMAGE"
	ErrCodeFileNotFound  Code = "FILE_NOT_FOUND"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Category groups error codes by the stage that produces them.
type Category string

const (
	CategoryStructural Category = "structural"
	CategoryLayout     Category = "layout"
	CategoryAnnotation Category = "annotation"
	CategoryAssembly   Category = "assembly"
	CategoryInput      Category = "input"
	CategoryInternal   Category = "internal"
)

// CategoryOf returns the category of a code. Unknown codes are internal.
func CategoryOf(code Code) Category {
	switch code {
	case ErrCodeDuplicateAnchor, ErrCodeInvalidAnchor:
		return CategoryStructural
	case ErrCodeUnboundedFill, ErrCodeNegativeSize, ErrCodeUnknownStyle:
		return CategoryLayout
	case ErrCodeUnknownAnchor:
		return CategoryAnnotation
	case ErrCodeEmptyDeck, ErrCodeRenderFailed:
		return CategoryAssembly
	case ErrCodeInvalidInput, ErrCodeInvalidDeck, ErrCodeInvalidFormat,
		ErrCodeInvalidPath, ErrCodeInvalidImage, ErrCodeFileNotFound:
		return CategoryInput
	default:
		return CategoryInternal
	}
}

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It walks the whole error tree, so coded errors joined with [errors.Join]
// or collected in a multi-error are found as well.
func Is(err error, code Code) bool {
	if err == nil {
		return false
	}
	if e, ok := err.(*Error); ok && e.Code == code {
		return true
	}
	switch x := err.(type) {
	case interface{ Unwrap() []error }:
		for _, inner := range x.Unwrap() {
			if Is(inner, code) {
				return true
			}
		}
		return false
	case interface{ Unwrap() error }:
		return Is(x.Unwrap(), code)
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
