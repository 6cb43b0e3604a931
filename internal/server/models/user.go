// Package models holds the domain records shared by repositories, services
// and the HTTP layer.
package models

import "time"

type Role string

const (
	RoleUser      Role = "USER"
	RoleModerator Role = "MODERATOR"
	RoleAdmin     Role = "ADMIN"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleModerator, RoleAdmin:
		return true
	}
	return false
}

// User is a stored account. It carries the password hash and must be
// passed through Sanitize before leaving the service boundary.
type User struct {
	ID           string
	Email        string
	Username     string
	PasswordHash string
	FirstName    *string
	LastName     *string
	Bio          *string
	Avatar       *string
	IsActive     bool
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PublicUser is a User without credentials.
type PublicUser struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	FirstName *string   `json:"firstName"`
	LastName  *string   `json:"lastName"`
	Bio       *string   `json:"bio"`
	Avatar    *string   `json:"avatar"`
	IsActive  bool      `json:"isActive"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (u *User) Sanitize() *PublicUser {
	if u == nil {
		return nil
	}
	return &PublicUser{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Bio:       u.Bio,
		Avatar:    u.Avatar,
		IsActive:  u.IsActive,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// SanitizeAll maps Sanitize over users, never returning nil.
func SanitizeAll(users []*User) []*PublicUser {
	out := make([]*PublicUser, 0, len(users))
	for _, u := range users {
		out = append(out, u.Sanitize())
	}
	return out
}

// UserUpdate is a partial update; nil fields are left unchanged.
type UserUpdate struct {
	Email        *string
	Username     *string
	PasswordHash *string
	FirstName    *string
	LastName     *string
	Bio          *string
	Avatar       *string
	IsActive     *bool
	Role         *Role
}

// Empty reports whether the update changes nothing.
func (u UserUpdate) Empty() bool {
	return u.Email == nil && u.Username == nil && u.PasswordHash == nil &&
		u.FirstName == nil && u.LastName == nil && u.Bio == nil &&
		u.Avatar == nil && u.IsActive == nil && u.Role == nil
}

// UserFilter narrows FindMany; nil or empty fields do not filter.
type UserFilter struct {
	Search   string
	Role     *Role
	IsActive *bool
}

type UserStats struct {
	Total      int64 `json:"total"`
	Active     int64 `json:"active"`
	Inactive   int64 `json:"inactive"`
	Admins     int64 `json:"admins"`
	Moderators int64 `json:"moderators"`
	Users      int64 `json:"users"`
}

// UserProfile is the public view of a user with relationship counters.
// IsFollowing is only set when the viewer is logged in.
type UserProfile struct {
	*PublicUser
	PostsCount     int64 `json:"postsCount"`
	FollowersCount int64 `json:"followersCount"`
	FollowingCount int64 `json:"followingCount"`
	IsFollowing    *bool `json:"isFollowing,omitempty"`
}
