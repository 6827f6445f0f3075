package api

import (
	"errors"
	"net/http"

	"github.com/jfowler/remind-api/internal/api/shared"
	"github.com/jfowler/remind-api/internal/domain"
	"github.com/jfowler/remind-api/internal/service/auth"
	"github.com/jfowler/remind-api/internal/store"
)

// respondWithServiceError maps domain, store, and auth errors onto HTTP
// status codes. Unknown errors become 500 with a generic message so
// internal details never leak to clients.
func respondWithServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, store.ErrTaskNotFound):
		shared.RespondWithError(w, r, http.StatusNotFound, "Task not found")
	case errors.Is(err, store.ErrUserNotFound):
		shared.RespondWithError(w, r, http.StatusNotFound, "User not found")
	case errors.Is(err, store.ErrUsernameExists):
		shared.RespondWithError(w, r, http.StatusConflict, "Username already taken")
	case errors.Is(err, store.ErrDuplicate):
		shared.RespondWithError(w, r, http.StatusConflict, "Resource already exists")
	case errors.Is(err, auth.ErrInvalidCredentials):
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid username or password")
	case errors.Is(err, auth.ErrExpiredToken):
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication token has expired")
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrMissingToken):
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid authentication token")
	case errors.Is(err, domain.ErrForbidden):
		shared.RespondWithError(w, r, http.StatusForbidden, "You do not have access to this task")
	case isDomainValidationError(err):
		shared.RespondWithError(w, r, http.StatusBadRequest, err.Error())
	default:
		shared.RespondWithError(w, r, http.StatusInternalServerError, "An unexpected error occurred")
	}
}

// isDomainValidationError reports whether the error is one of the domain
// entity validation failures, all of which are safe to echo to clients.
func isDomainValidationError(err error) bool {
	return errors.Is(err, domain.ErrValidation) ||
		errors.Is(err, domain.ErrInvalidID) ||
		errors.Is(err, domain.ErrTaskNameEmpty) ||
		errors.Is(err, domain.ErrTaskUserIDEmpty) ||
		errors.Is(err, domain.ErrTaskIDNegative) ||
		errors.Is(err, domain.ErrTaskRepeatDaysInvalid) ||
		errors.Is(err, domain.ErrInvalidTaskDate) ||
		errors.Is(err, domain.ErrEmptyUsername) ||
		errors.Is(err, domain.ErrUsernameTooLong) ||
		errors.Is(err, domain.ErrPasswordTooShort) ||
		errors.Is(err, domain.ErrPasswordTooLong)
}
