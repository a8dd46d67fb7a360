package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents different types of errors in the client
type ErrorType string

const (
	// ErrorTypeUnauthenticated indicates no token is present when one is required
	ErrorTypeUnauthenticated ErrorType = "UNAUTHENTICATED"

	// ErrorTypeAuthentication indicates a rejected login or a transport failure during login
	ErrorTypeAuthentication ErrorType = "AUTHENTICATION"

	// ErrorTypeValidation indicates a client-side validation failure
	ErrorTypeValidation ErrorType = "VALIDATION"

	// ErrorTypeTransport indicates a network or HTTP failure
	ErrorTypeTransport ErrorType = "TRANSPORT"

	// ErrorTypeNotFound indicates a resource was not found
	ErrorTypeNotFound ErrorType = "NOT_FOUND"

	// ErrorTypeInternal indicates a local failure (storage, encoding)
	ErrorTypeInternal ErrorType = "INTERNAL"
)

// GenericRetryMessage is shown for transport failures.
const GenericRetryMessage = "Could not reach the clinic. Please try again later."

// AppError represents an application error
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements the unwrap interface
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewUnauthenticatedError creates a new unauthenticated error
func NewUnauthenticatedError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeUnauthenticated,
		Message: message,
	}
}

// NewAuthenticationError creates a new authentication error
func NewAuthenticationError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeAuthentication,
		Message: message,
		Err:     err,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeValidation,
		Message: message,
	}
}

// NewTransportError creates a new transport error
func NewTransportError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeTransport,
		Message: message,
		Err:     err,
	}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeNotFound,
		Message: message,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeInternal,
		Message: message,
		Err:     err,
	}
}

// TypeOf returns the type of the first AppError in err's chain, or "" if none.
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}

// Is reports whether err carries an AppError of the given type.
func Is(err error, t ErrorType) bool {
	return err != nil && TypeOf(err) == t
}

// UserMessage maps an error to the text shown to the patient.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if !stderrors.As(err, &appErr) {
		return GenericRetryMessage
	}
	switch appErr.Type {
	case ErrorTypeUnauthenticated:
		return "You are not logged in. Please log in and try again."
	case ErrorTypeAuthentication:
		return "Login failed. Check your credentials or try again later."
	case ErrorTypeValidation, ErrorTypeNotFound:
		return appErr.Message
	default:
		return GenericRetryMessage
	}
}
