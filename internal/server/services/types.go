package services

import (
	"github.com/dmitrijs2005/portfolio/internal/server/auth"
	"github.com/dmitrijs2005/portfolio/internal/server/models"
)

// PasswordHasher is satisfied by *auth.PasswordHasher.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Compare(plain, hash string) bool
}

// TokenIssuer is satisfied by *auth.TokenIssuer.
type TokenIssuer interface {
	Generate(p auth.TokenPayload) (string, error)
	Verify(token string) (*auth.TokenPayload, error)
}

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// AuthResult is returned by registration and login.
type AuthResult struct {
	User *models.PublicUser `json:"user"`
	TokenPair
}

// PageResult is one page of items plus the total number of matches.
type PageResult[T any] struct {
	Items []T
	Page  models.Page
	Total int64
}

func newPageResult[T any](items []T, p models.Page, total int64) *PageResult[T] {
	if items == nil {
		items = []T{}
	}
	return &PageResult[T]{Items: items, Page: p, Total: total}
}

// RegisterInput carries the fields accepted at sign up.
type RegisterInput struct {
	Email     string
	Username  string
	Password  string
	FirstName *string
	LastName  *string
	Bio       *string
}

// ProfileInput is a partial profile update; nil fields are kept.
type ProfileInput struct {
	Email     *string
	Username  *string
	FirstName *string
	LastName  *string
	Bio       *string
	Avatar    *string
}

func (in ProfileInput) toUpdate() models.UserUpdate {
	upd := models.UserUpdate{
		Username:  in.Username,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Bio:       in.Bio,
		Avatar:    in.Avatar,
	}
	if in.Email != nil {
		e := normalizeEmail(*in.Email)
		upd.Email = &e
	}
	return upd
}
