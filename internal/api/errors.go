package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/phrazzld/tasktrack-api/internal/api/shared"
	"github.com/phrazzld/tasktrack-api/internal/domain"
	"github.com/phrazzld/tasktrack-api/internal/service"
	"github.com/phrazzld/tasktrack-api/internal/store"
)

// Client-facing messages.
const (
	msgUnexpected         = "An unexpected error occurred"
	msgInvalidRequest     = "Invalid request format"
	msgInvalidCredentials = "Invalid credentials"
	msgEmailRegistered    = "Email already registered"
	msgTaskNotFound       = "Task not found"
	msgInvalidTaskID      = "Invalid task ID"
	msgIntegrity          = "Stored task data failed an integrity check"
	msgTaskDeleted        = "Task deleted successfully"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusInternalServerError

	case errors.Is(err, service.ErrUnauthenticated):
		return http.StatusUnauthorized

	case errors.Is(err, store.ErrTaskNotFound):
		return http.StatusNotFound

	// A taken email is a 400, not a 409.
	case errors.Is(err, service.ErrEmailTaken),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrInvalidFormat):
		return http.StatusBadRequest

	case errors.Is(err, domain.ErrIntegrity):
		return http.StatusInternalServerError

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return msgUnexpected
	}

	var validationErr *domain.ValidationError
	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		return msgInvalidCredentials

	case errors.Is(err, store.ErrTaskNotFound):
		return msgTaskNotFound

	case errors.Is(err, service.ErrEmailTaken):
		return msgEmailRegistered

	case errors.Is(err, domain.ErrInvalidID):
		return msgInvalidTaskID

	// Validation errors are built from fixed field names and messages.
	case errors.As(err, &validationErr):
		return validationErr.Error()

	case errors.Is(err, domain.ErrIntegrity):
		return msgIntegrity

	default:
		return msgUnexpected
	}
}

// SanitizeValidationError turns request DTO validation failures into a
// message naming the first offending field.
func SanitizeValidationError(err error) string {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return fmt.Sprintf("Invalid %s: %s", fe.Field(), getValidationTagMessage(fe.Tag()))
	}
	return "Validation error"
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "email":
		return "invalid email format"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}

// HandleAPIError writes the status and safe message for err and logs the
// redacted details.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error) {
	status := MapErrorToStatusCode(err)

	var opts []shared.ResponseOption
	if status == http.StatusUnauthorized {
		opts = append(opts, shared.WithElevatedLogLevel())
	}

	shared.RespondWithErrorAndLog(w, r, status, GetSafeErrorMessage(err), err, opts...)
}
