package httpapi

import (
	"context"
	"time"

	"github.com/dmitrijs2005/portfolio/internal/logging"
	"github.com/dmitrijs2005/portfolio/internal/server/models"
	"github.com/dmitrijs2005/portfolio/internal/server/services"
)

// UserService is the account surface the handlers need; *services.UserService
// satisfies it.
type UserService interface {
	UserLookup
	Register(ctx context.Context, in services.RegisterInput) (*services.AuthResult, error)
	Login(ctx context.Context, email, password string) (*services.AuthResult, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	Logout(ctx context.Context, userID, refreshToken string) error
	GetProfile(ctx context.Context, userID string) (*models.PublicUser, error)
	UpdateProfile(ctx context.Context, userID string, in services.ProfileInput) (*models.PublicUser, error)
	ChangePassword(ctx context.Context, userID, current, next string) error
	Deactivate(ctx context.Context, userID string) error
	Reactivate(ctx context.Context, id string) (*models.PublicUser, error)
	ChangeRole(ctx context.Context, id string, role models.Role) (*models.PublicUser, error)
	GetUser(ctx context.Context, viewerID, id string) (*models.UserProfile, error)
	List(ctx context.Context, filter models.UserFilter, page models.Page) (*services.PageResult[*models.PublicUser], error)
	Search(ctx context.Context, query string, page models.Page) (*services.PageResult[*models.PublicUser], error)
	Stats(ctx context.Context) (*models.UserStats, error)
	DeleteUser(ctx context.Context, id string) error
}

type FollowService interface {
	Follow(ctx context.Context, followerID, targetID string) error
	Unfollow(ctx context.Context, followerID, targetID string) error
	Followers(ctx context.Context, userID string, page models.Page) (*services.PageResult[*models.PublicUser], error)
	Following(ctx context.Context, userID string, page models.Page) (*services.PageResult[*models.PublicUser], error)
}

type PostService interface {
	List(ctx context.Context, page models.Page) (*services.PageResult[*models.Post], error)
	Featured(ctx context.Context) ([]*models.Post, error)
	GetBySlug(ctx context.Context, slug string) (*models.Post, error)
}

type ContactService interface {
	Submit(ctx context.Context, msg *models.ContactMessage) (*models.ContactMessage, error)
	List(ctx context.Context, page models.Page) (*services.PageResult[*models.ContactMessage], error)
}

type AvatarService interface {
	PresignUpload(ctx context.Context, userID, contentType string) (*services.AvatarUpload, error)
}

// Pinger reports database reachability; *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Deps are the collaborators of the router. Avatars and Metrics are optional.
type Deps struct {
	Users    UserService
	Follows  FollowService
	Posts    PostService
	Contacts ContactService
	Avatars  AvatarService
	Tokens   TokenVerifier
	DB       Pinger
	Metrics  *Metrics
	Logger   logging.Logger

	Environment        string
	Version            string
	RequestTimeout     time.Duration
	CORSAllowedOrigins []string
}
