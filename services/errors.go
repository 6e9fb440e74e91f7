package services

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents the type/category of error
type ErrorType string

const (
	ErrorTypeBadRequest           ErrorType = "bad_request"
	ErrorTypeUnauthorized         ErrorType = "unauthorized"
	ErrorTypeForbidden            ErrorType = "forbidden"
	ErrorTypeNotFound             ErrorType = "not_found"
	ErrorTypeNotAcceptable        ErrorType = "not_acceptable"
	ErrorTypeUnsupportedMediaType ErrorType = "unsupported_media_type"
	ErrorTypeUnprocessableEntity  ErrorType = "unprocessable_entity"
	ErrorTypeInternal             ErrorType = "internal"
	// ErrorTypeUnexpected is an internal error that escaped handling.
	// It shares the response of ErrorTypeInternal and is only logged louder.
	ErrorTypeUnexpected ErrorType = "unexpected"
)

// defaultStatus maps each error type to the status used when the error
// does not carry its own.
var defaultStatus = map[ErrorType]int{
	ErrorTypeBadRequest:           http.StatusBadRequest,
	ErrorTypeUnauthorized:         http.StatusUnauthorized,
	ErrorTypeForbidden:            http.StatusForbidden,
	ErrorTypeNotFound:             http.StatusNotFound,
	ErrorTypeNotAcceptable:        http.StatusNotAcceptable,
	ErrorTypeUnsupportedMediaType: http.StatusUnsupportedMediaType,
	ErrorTypeUnprocessableEntity:  http.StatusUnprocessableEntity,
	ErrorTypeInternal:             http.StatusInternalServerError,
	ErrorTypeUnexpected:           http.StatusInternalServerError,
}

// DefaultStatus returns the HTTP status for an error type. Unknown types
// are treated as internal errors.
func DefaultStatus(t ErrorType) int {
	if status, ok := defaultStatus[t]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainError represents a structured error with additional context
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
	// Status overrides the type's default HTTP status when non-zero.
	Status int
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// HTTPStatus returns the per-instance status, or the type's default.
func (e *DomainError) HTTPStatus() int {
	if e.Status != 0 {
		return e.Status
	}
	return DefaultStatus(e.Type)
}

// WithStatus returns a copy of the error carrying an explicit HTTP status.
func (e *DomainError) WithStatus(status int) *DomainError {
	c := *e
	c.Status = status
	return &c
}

// NewDomainError creates a new domain error
func NewDomainError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
	}
}

// Domain error variables

var (
	// Client input errors
	ErrMalformedBody      = NewDomainError(ErrorTypeBadRequest, "The request body is not valid JSON", nil)
	ErrMissingUsername    = NewDomainError(ErrorTypeUnprocessableEntity, "The username has not been provided", nil)
	ErrMissingPassword    = NewDomainError(ErrorTypeUnprocessableEntity, "The password has not been provided", nil)
	ErrNotAcceptable      = NewDomainError(ErrorTypeNotAcceptable, "Accept must be application/json", nil)
	ErrUnsupportedContent = NewDomainError(ErrorTypeUnsupportedMediaType, "Content-Type must be application/json", nil)
	ErrRouteNotFound      = NewDomainError(ErrorTypeNotFound, "Not Found", nil)

	// Authentication errors. Every authentication failure shares this one
	// message so clients cannot tell a bad password from a forged token.
	ErrForbidden = NewDomainError(ErrorTypeForbidden, "you do not have permission to access this service", nil)
)

// Error type checking helper functions

// IsForbiddenError checks if an error is a forbidden error
func IsForbiddenError(err error) bool {
	return GetErrorType(err) == ErrorTypeForbidden
}

// IsUnprocessableError checks if an error is an unprocessable entity error
func IsUnprocessableError(err error) bool {
	return GetErrorType(err) == ErrorTypeUnprocessableEntity
}

// IsInternalError checks if an error is an internal error. Unexpected
// errors are a kind of internal error.
func IsInternalError(err error) bool {
	t := GetErrorType(err)
	return t == ErrorTypeInternal || t == ErrorTypeUnexpected
}

// IsUnexpectedError checks if an error escaped normal handling
func IsUnexpectedError(err error) bool {
	return GetErrorType(err) == ErrorTypeUnexpected
}

// GetErrorType returns the ErrorType of a domain error, or empty string if not a domain error
func GetErrorType(err error) ErrorType {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type
	}
	return ""
}

// WrapUnexpected wraps an error that was not anticipated by the caller
func WrapUnexpected(message string, err error) error {
	return NewDomainError(ErrorTypeUnexpected, message, err)
}
