package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/portfolio/internal/common"
	"github.com/dmitrijs2005/portfolio/internal/server/models"
	"github.com/dmitrijs2005/portfolio/internal/server/services"
)

type registerRequest struct {
	Email     string  `json:"email" validate:"required,email"`
	Username  string  `json:"username" validate:"required,min=3,max=30,username"`
	Password  string  `json:"password" validate:"required,min=8,max=72,bcryptlen"`
	FirstName *string `json:"firstName" validate:"omitempty,max=50"`
	LastName  *string `json:"lastName" validate:"omitempty,max=50"`
	Bio       *string `json:"bio" validate:"omitempty,max=500"`
}

func (r registerRequest) input() services.RegisterInput {
	return services.RegisterInput{
		Email:     r.Email,
		Username:  r.Username,
		Password:  r.Password,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Bio:       r.Bio,
	}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// logoutRequest may be empty, in which case every session is revoked.
type logoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type profileRequest struct {
	Email     *string `json:"email" validate:"omitempty,email"`
	Username  *string `json:"username" validate:"omitempty,min=3,max=30,username"`
	FirstName *string `json:"firstName" validate:"omitempty,max=50"`
	LastName  *string `json:"lastName" validate:"omitempty,max=50"`
	Bio       *string `json:"bio" validate:"omitempty,max=500"`
	Avatar    *string `json:"avatar" validate:"omitempty,url"`
}

func (r profileRequest) input() services.ProfileInput {
	return services.ProfileInput{
		Email:     r.Email,
		Username:  r.Username,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Bio:       r.Bio,
		Avatar:    r.Avatar,
	}
}

type passwordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8,max=72,bcryptlen"`
}

type roleRequest struct {
	Role models.Role `json:"role" validate:"required,oneof=USER MODERATOR ADMIN"`
}

type avatarRequest struct {
	ContentType string `json:"contentType" validate:"required"`
}

type contactRequest struct {
	Name    string `json:"name" validate:"required,min=2"`
	Email   string `json:"email" validate:"required,email"`
	Subject string `json:"subject" validate:"required,min=5"`
	Message string `json:"message" validate:"required,min=20"`
}

// pageFromQuery reads page and limit, defaulting to the first page.
func pageFromQuery(r *http.Request) (models.Page, error) {
	q := r.URL.Query()
	page, limit := 1, common.DefaultPageLimit
	var errs []string
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, "page must be a positive integer")
		}
		page = n
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, "limit must be a positive integer")
		}
		limit = n
	}
	if len(errs) > 0 {
		return models.Page{}, common.NewValidationError(errs...)
	}
	return models.NewPage(page, limit)
}

// filterFromQuery reads the admin user list filters.
func filterFromQuery(r *http.Request) (models.UserFilter, error) {
	q := r.URL.Query()
	f := models.UserFilter{Search: strings.TrimSpace(q.Get("search"))}
	if v := q.Get("role"); v != "" {
		role := models.Role(strings.ToUpper(v))
		if !role.Valid() {
			return f, common.NewValidationError("Invalid role")
		}
		f.Role = &role
	}
	if v := q.Get("isActive"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return f, common.NewValidationError("isActive must be true or false")
		}
		f.IsActive = &b
	}
	return f, nil
}
