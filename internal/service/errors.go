package service

import (
	"errors"
	"fmt"

	"github.com/phrazzld/tasktrack-api/internal/store"
)

// Sentinel errors returned by the services. Anything else is wrapped in a
// ServiceError; the API layer maps both to status codes.
var (
	// ErrEmailTaken indicates registration with an email that already has an account.
	// API layer should map this to HTTP 400 Bad Request.
	ErrEmailTaken = fmt.Errorf("email already registered: %w", store.ErrEmailExists)

	// ErrUnauthenticated indicates that credentials or a token could not be
	// tied to an existing user. The cause is deliberately not distinguished.
	// API layer should map this to HTTP 401 Unauthorized.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrTaskNotFound indicates the task does not exist or belongs to someone else.
	// API layer should map this to HTTP 404 Not Found.
	ErrTaskNotFound = fmt.Errorf("task not found: %w", store.ErrTaskNotFound)
)

// ServiceError wraps an unexpected failure with the service and operation
// in which it happened.
type ServiceError struct {
	Service string
	Op      string
	Err     error
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s service %s operation failed: %v", e.Service, e.Op, e.Err)
	}
	return fmt.Sprintf("%s service %s operation failed", e.Service, e.Op)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a new ServiceError.
func NewServiceError(service, op string, err error) *ServiceError {
	return &ServiceError{
		Service: service,
		Op:      op,
		Err:     err,
	}
}
