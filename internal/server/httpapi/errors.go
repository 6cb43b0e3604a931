package httpapi

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/portfolio/internal/common"
	"github.com/dmitrijs2005/portfolio/internal/logging"
)

// ErrInvalidJSON is returned by decode for bodies that are not valid JSON.
var ErrInvalidJSON = fmt.Errorf("%w: invalid JSON format", common.ErrorValidation)

const (
	messageInternal   = "Internal server error"
	messageValidation = "Validation failed"
)

// classify maps an error onto a status code and the message the client sees.
// The order matters: specific sentinels are checked before the ones they wrap.
func classify(err error) (status int, message string, details []string) {
	var (
		ve *common.ValidationError
		ce *common.ConflictError
	)
	switch {
	case errors.Is(err, ErrInvalidJSON):
		return http.StatusBadRequest, messageValidation, []string{"Invalid JSON format"}
	case errors.Is(err, common.ErrorSelfFollow):
		return http.StatusBadRequest, messageValidation, []string{"Cannot follow yourself"}
	case errors.As(err, &ve):
		return http.StatusBadRequest, ve.Message, ve.Errors
	case errors.Is(err, common.ErrorValidation):
		return http.StatusBadRequest, messageValidation, nil

	case errors.Is(err, common.ErrorInvalidCredentials):
		return http.StatusUnauthorized, "Invalid credentials", nil
	case errors.Is(err, common.ErrorAccountDisabled):
		return http.StatusUnauthorized, "Account is disabled", nil
	case errors.Is(err, common.ErrorWrongPassword):
		return http.StatusUnauthorized, "Current password is incorrect", nil
	case errors.Is(err, common.ErrRefreshTokenExpired):
		return http.StatusUnauthorized, "Refresh token expired", nil
	case errors.Is(err, common.ErrInvalidToken):
		return http.StatusUnauthorized, "Invalid or expired token", nil
	case errors.Is(err, common.ErrorUnauthorized):
		return http.StatusUnauthorized, "Authentication required", nil

	case errors.Is(err, common.ErrorForbidden):
		return http.StatusForbidden, "Access denied", nil

	case errors.Is(err, common.ErrorUserNotFound):
		return http.StatusNotFound, "User not found", nil
	case errors.Is(err, common.ErrorPostNotFound):
		return http.StatusNotFound, "Post not found", nil
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound, "Resource not found", nil

	case errors.Is(err, common.ErrorUserExists):
		return http.StatusConflict, "User already exists", nil
	case errors.As(err, &ce):
		return http.StatusConflict, ce.Error(), nil
	case errors.Is(err, common.ErrorConflict):
		return http.StatusConflict, "Resource already exists", nil

	case errors.Is(err, common.ErrorRateLimited):
		return http.StatusTooManyRequests, "Too many requests", nil
	}
	return http.StatusInternalServerError, messageInternal, nil
}

// writeError renders err as a failure envelope. Server errors are logged with
// full detail and reported to the client only generically.
func writeError(w http.ResponseWriter, r *http.Request, logger logging.Logger, err error) {
	status, message, details := classify(err)
	if status >= http.StatusInternalServerError {
		logger.Error(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeFailure(w, status, message, details)
}
