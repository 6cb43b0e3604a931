package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dmitrijs2005/portfolio/internal/common"
	"github.com/dmitrijs2005/portfolio/internal/logging"
	"github.com/dmitrijs2005/portfolio/internal/server/auth"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	wrap := func(err error) error { return fmt.Errorf("service: %w", err) }

	tests := []struct {
		err     error
		status  int
		message string
		details []string
	}{
		{common.NewValidationError("email is required"), 400, "Validation failed", []string{"email is required"}},
		{wrap(auth.ErrPasswordTooLong), 400, "Validation failed", []string{"password must be at most 72 bytes"}},
		{wrap(ErrInvalidJSON), 400, "Validation failed", []string{"Invalid JSON format"}},
		{common.ErrorSelfFollow, 400, "Validation failed", []string{"Cannot follow yourself"}},
		{common.ErrorValidation, 400, "Validation failed", nil},
		{wrap(common.ErrorInvalidCredentials), 401, "Invalid credentials", nil},
		{common.ErrorAccountDisabled, 401, "Account is disabled", nil},
		{common.ErrorWrongPassword, 401, "Current password is incorrect", nil},
		{common.ErrTokenExpired, 401, "Invalid or expired token", nil},
		{common.ErrRefreshTokenExpired, 401, "Refresh token expired", nil},
		{common.ErrorUnauthorized, 401, "Authentication required", nil},
		{common.ErrorForbidden, 403, "Access denied", nil},
		{wrap(common.ErrorUserNotFound), 404, "User not found", nil},
		{common.ErrorPostNotFound, 404, "Post not found", nil},
		{common.ErrorNotFound, 404, "Resource not found", nil},
		{common.ErrorUserExists, 409, "User already exists", nil},
		{wrap(&common.ConflictError{Field: "username"}), 409, "username already exists", nil},
		{common.ErrorConflict, 409, "Resource already exists", nil},
		{common.ErrorRateLimited, 429, "Too many requests", nil},
		{errors.New("pq: connection refused"), 500, "Internal server error", nil},
	}
	for _, tc := range tests {
		t.Run(tc.err.Error(), func(t *testing.T) {
			status, message, details := classify(tc.err)
			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.message, message)
			assert.Equal(t, tc.details, details)
		})
	}
}

type recordingLogger struct {
	logging.Nop
	errors []string
}

func (l *recordingLogger) Error(_ context.Context, msg string, _ ...any) { l.errors = append(l.errors, msg) }
func (l *recordingLogger) With(...any) logging.Logger                    { return l }

func TestWriteError_HidesServerDetail(t *testing.T) {
	log := &recordingLogger{}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)

	writeError(rec, req, log, errors.New("secret dsn in message"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret")
	assert.Contains(t, rec.Body.String(), `"message":"Internal server error"`)
	assert.Len(t, log.errors, 1)

	rec = httptest.NewRecorder()
	writeError(rec, req, log, common.ErrorUserNotFound)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Len(t, log.errors, 1, "client errors are not logged as failures")
}
