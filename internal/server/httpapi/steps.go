package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/portfolio/internal/common"
	"github.com/dmitrijs2005/portfolio/internal/server/auth"
	"github.com/dmitrijs2005/portfolio/internal/server/models"
	"github.com/dmitrijs2005/portfolio/internal/server/policy"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// TokenVerifier is satisfied by *auth.TokenIssuer.
type TokenVerifier interface {
	Verify(token string) (*auth.TokenPayload, error)
}

// UserLookup loads the current record of an account.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// identify resolves the bearer token of r to an active user.
func identify(r *http.Request, tokens TokenVerifier, users UserLookup) (*models.User, *Rejection) {
	token, ok := auth.ExtractBearerToken(r.Header.Get(common.AuthorizationHeaderName))
	if !ok {
		return nil, reject(http.StatusUnauthorized, "Access token required")
	}
	claims, err := tokens.Verify(token)
	if err != nil {
		return nil, reject(http.StatusUnauthorized, "Invalid or expired token")
	}
	// claims only name the account; role and status come from the store
	u, err := users.GetByID(r.Context(), claims.ID)
	switch {
	case errors.Is(err, common.ErrorNotFound):
		return nil, reject(http.StatusUnauthorized, "User not found")
	case err != nil:
		return nil, reject(http.StatusUnauthorized, "Authentication failed")
	case !u.IsActive:
		return nil, reject(http.StatusUnauthorized, "Account is disabled")
	}
	return u, nil
}

// Authenticate requires a valid bearer token of an active account and puts
// the freshly loaded user into the request context.
func Authenticate(tokens TokenVerifier, users UserLookup) Step {
	return Step{
		Name:          "authenticate",
		ProvidesActor: true,
		Run: func(r *http.Request) (*http.Request, *Rejection) {
			u, rej := identify(r, tokens, users)
			if rej != nil {
				return r, rej
			}
			return r.WithContext(withUser(r.Context(), u)), nil
		},
	}
}

// OptionalAuthenticate loads the user when the request carries usable
// credentials and lets it through anonymously otherwise.
func OptionalAuthenticate(tokens TokenVerifier, users UserLookup) Step {
	return Step{
		Name: "optional_authenticate",
		Run: func(r *http.Request) (*http.Request, *Rejection) {
			if r.Header.Get(common.AuthorizationHeaderName) == "" {
				return r, nil
			}
			u, rej := identify(r, tokens, users)
			if rej != nil {
				return r, nil
			}
			return r.WithContext(withUser(r.Context(), u)), nil
		},
	}
}

// Authorize admits actors holding one of roles.
func Authorize(roles ...models.Role) Step {
	allowed := policy.Authorize(roles...)
	return Step{
		Name:          "authorize",
		RequiresActor: true,
		Run: func(r *http.Request) (*http.Request, *Rejection) {
			a := ActorFrom(r.Context())
			if !a.Authenticated() {
				return r, reject(http.StatusUnauthorized, "Authentication required")
			}
			if !allowed(a) {
				return r, reject(http.StatusForbidden, "Insufficient permissions")
			}
			return r, nil
		},
	}
}

// RequireOwnerOrAdmin admits the owner of the resource named by owner(r) and admins.
func RequireOwnerOrAdmin(owner func(*http.Request) string) Step {
	return Step{
		Name:          "require_owner_or_admin",
		RequiresActor: true,
		Run: func(r *http.Request) (*http.Request, *Rejection) {
			a := ActorFrom(r.Context())
			if !a.Authenticated() {
				return r, reject(http.StatusUnauthorized, "Authentication required")
			}
			if !policy.CanAccess(a, owner(r)) {
				return r, reject(http.StatusForbidden, "Access denied")
			}
			return r, nil
		},
	}
}

// ValidID rejects requests whose path parameter is not a UUID.
func ValidID(param string) Step {
	return Step{
		Name: "valid_id",
		Run: func(r *http.Request) (*http.Request, *Rejection) {
			id := chi.URLParam(r, param)
			// uuid.Parse also takes the braced, urn and unhyphenated forms
			if _, err := uuid.Parse(id); err != nil || len(id) != 36 {
				return r, &Rejection{Status: http.StatusBadRequest, Message: messageValidation, Errors: []string{"Invalid user ID"}}
			}
			return r, nil
		},
	}
}

// PathParam reads a named path parameter; used with RequireOwnerOrAdmin.
func PathParam(name string) func(*http.Request) string {
	return func(r *http.Request) string { return chi.URLParam(r, name) }
}
