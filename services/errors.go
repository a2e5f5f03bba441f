package services

import (
	"errors"
	"fmt"
)

// ErrorType represents the type/category of error
type ErrorType string

const (
	// ErrorTypeConfiguration covers caller identity that is missing or cannot be resolved
	ErrorTypeConfiguration ErrorType = "configuration"
	// ErrorTypeVerification covers registry failures (unreachable, malformed response)
	ErrorTypeVerification ErrorType = "verification"
	// ErrorTypeAuthorization covers a resolved identity that does not hold the token
	ErrorTypeAuthorization ErrorType = "authorization"
	ErrorTypeValidation    ErrorType = "validation"
	ErrorTypeNotFound      ErrorType = "not_found"
	ErrorTypeInternal      ErrorType = "internal"
)

// DomainError represents a structured error with additional context
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
	Details map[string]interface{}
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

// WithDetail adds a detail to the error
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// NewDomainError creates a new domain error
func NewDomainError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
		Details: make(map[string]interface{}),
	}
}

var (
	// Configuration errors
	ErrMissingCustomerID  = NewDomainError(ErrorTypeConfiguration, "missing customer id", nil)
	ErrNoSession          = NewDomainError(ErrorTypeConfiguration, "no authenticated session", nil)
	ErrNoCustomerMapping  = NewDomainError(ErrorTypeConfiguration, "no customer mapped to user", nil)
	ErrInvalidGateConfig  = NewDomainError(ErrorTypeValidation, "invalid gate configuration", nil)
	ErrInvalidTokenTarget = NewDomainError(ErrorTypeValidation, "invalid token matcher", nil)

	// Verification errors
	ErrVerificationFailed = NewDomainError(ErrorTypeVerification, "ownership verification failed", nil)
	ErrRegistryStatus     = NewDomainError(ErrorTypeVerification, "unexpected registry status", nil)
	ErrRegistryResponse   = NewDomainError(ErrorTypeVerification, "malformed registry response", nil)

	// Authorization errors
	ErrTokenNotOwned = NewDomainError(ErrorTypeAuthorization, "customer does not own the token", nil)

	ErrAccountNotFound = NewDomainError(ErrorTypeNotFound, "customer account not found", nil)
	ErrInternal        = NewDomainError(ErrorTypeInternal, "internal server error", nil)
)

// IsConfigurationError checks if an error is a configuration (identity) error
func IsConfigurationError(err error) bool {
	return GetErrorType(err) == ErrorTypeConfiguration
}

// IsVerificationError checks if an error is a registry verification error
func IsVerificationError(err error) bool {
	return GetErrorType(err) == ErrorTypeVerification
}

// IsAuthorizationError checks if an error is an ownership authorization error
func IsAuthorizationError(err error) bool {
	return GetErrorType(err) == ErrorTypeAuthorization
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return GetErrorType(err) == ErrorTypeValidation
}

// IsNotFoundError checks if an error is a not found error
func IsNotFoundError(err error) bool {
	return GetErrorType(err) == ErrorTypeNotFound
}

// IsInternalError checks if an error is an internal error
func IsInternalError(err error) bool {
	return GetErrorType(err) == ErrorTypeInternal
}

// GetErrorType returns the ErrorType of a domain error, or empty string if not a domain error
func GetErrorType(err error) ErrorType {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type
	}
	return ""
}

// GetErrorDetails returns the details map of a domain error, or nil if not a domain error
func GetErrorDetails(err error) map[string]interface{} {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Details
	}
	return nil
}

// WrapError wraps an error with additional context
func WrapError(errType ErrorType, message string, err error) error {
	return NewDomainError(errType, message, err)
}

// WrapVerification wraps a registry failure as a verification error
func WrapVerification(message string, err error) error {
	return NewDomainError(ErrorTypeVerification, message, err)
}

// WrapInternal wraps an error as an internal error
func WrapInternal(message string, err error) error {
	return NewDomainError(ErrorTypeInternal, message, err)
}
