package handlers

import (
	"errors"
	"net/http"

	"github.com/nkiryanov/usersvc/internal/apperrors"
	"github.com/nkiryanov/usersvc/internal/handlers/render"
)

// renderServiceError maps well known service errors to responses, anything else is 500.
// Unexpected errors are logged by the service
func renderServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperrors.ErrInvalidCredentials):
		render.Unauthorized(w, "Invalid credentials")
	case errors.Is(err, apperrors.ErrTokenInvalid):
		render.Unauthorized(w, "Invalid or expired token")
	case errors.Is(err, apperrors.ErrUserInactive):
		render.ServiceError(w, "Inactive user", http.StatusBadRequest)
	case errors.Is(err, apperrors.ErrUserNotFound):
		render.ServiceError(w, "User not found", http.StatusNotFound)
	case errors.Is(err, apperrors.ErrUserAlreadyExists):
		render.ServiceError(w, "User already exists", http.StatusConflict)
	default:
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
	}
}
