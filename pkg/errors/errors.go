// Package errors provides coded domain errors shared by the storage layer and
// the HTTP handlers.
package errors

import (
	"errors"
	"net/http"
)

// Code is a machine-readable error code.
type Code string

const (
	CodeUnknown              Code = "UNKNOWN"
	CodeInvalidIdentifier    Code = "INVALID_IDENTIFIER"
	CodePathTraversal        Code = "PATH_TRAVERSAL"
	CodeDuplicateAsset       Code = "DUPLICATE_ASSET"
	CodeNotFound             Code = "NOT_FOUND"
	CodeInvalidAssetType     Code = "INVALID_ASSET_TYPE"
	CodeUnsupportedExtension Code = "UNSUPPORTED_EXTENSION"
	CodeContentMismatch      Code = "CONTENT_MISMATCH"
	CodeInvalidContent       Code = "INVALID_CONTENT"
	CodeResourceExhausted    Code = "RESOURCE_EXHAUSTED"
	CodeShadowedEntry        Code = "SHADOWED_ENTRY"
)

// HTTPStatus maps domain codes to HTTP status codes.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeInvalidIdentifier, CodePathTraversal, CodeInvalidAssetType, CodeInvalidContent:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeDuplicateAsset, CodeShadowedEntry:
		return http.StatusConflict
	case CodeUnsupportedExtension, CodeContentMismatch:
		return http.StatusUnsupportedMediaType
	case CodeResourceExhausted:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Error is the domain error type with structured metadata.
type Error struct {
	Code     Code              // Machine-readable error code
	Message  string            // Human-readable message
	Metadata map[string]string // Additional context (file, id, path)
	Cause    error             // Wrapped underlying error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates a simple domain error with a code and message.
func New(code Code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// WithMetadata creates a domain error carrying metadata.
func WithMetadata(code Code, message string, metadata map[string]string) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Metadata: metadata,
	}
}

// Wrap creates a domain error that wraps an underlying cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// CodeOf returns the code of the first domain error in err's chain, or
// CodeUnknown.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}
