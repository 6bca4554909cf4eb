package service

import (
	"errors"
	"fmt"

	"github.com/prperemyshlev/reply-assistant/internal/repository"
)

// ErrorKind classifies service errors for the transport layer
type ErrorKind string

const (
	KindValidation      ErrorKind = "validation"
	KindAuthentication  ErrorKind = "authentication"
	KindAuthorization   ErrorKind = "authorization"
	KindNotFound        ErrorKind = "not_found"
	KindConflict        ErrorKind = "conflict"
	KindExternalService ErrorKind = "external_service"
	KindConfiguration   ErrorKind = "configuration"
	KindRateLimited     ErrorKind = "rate_limited"
	KindInternal        ErrorKind = "internal"
)

// Error is a classified service error. Message is safe to show to clients.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewValidationError(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

func NewAuthenticationError(message string) *Error {
	return &Error{Kind: KindAuthentication, Message: message}
}

func NewAuthorizationError(message string) *Error {
	return &Error{Kind: KindAuthorization, Message: message}
}

func NewNotFoundError(message string, err error) *Error {
	return &Error{Kind: KindNotFound, Message: message, Err: err}
}

func NewExternalServiceError(message string, err error) *Error {
	return &Error{Kind: KindExternalService, Message: message, Err: err}
}

func NewConfigurationError(message string) *Error {
	return &Error{Kind: KindConfiguration, Message: message}
}

func NewRateLimitedError(message string) *Error {
	return &Error{Kind: KindRateLimited, Message: message}
}

// KindOf returns the kind of a service error, or KindInternal for anything else
func KindOf(err error) ErrorKind {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Kind
	}
	return KindInternal
}

// fromRepository classifies a repository error, wrapping unknown ones as internal
func fromRepository(message string, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, repository.ErrInvalidReference):
		return NewNotFoundError(message, err)
	default:
		return fmt.Errorf("%s: %w", message, err)
	}
}
