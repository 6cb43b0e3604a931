// Package follows declares the repository contract for the directed
// follower graph between users.
package follows

import (
	"context"

	"github.com/dmitrijs2005/portfolio/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, followerID, followingID string) error
	Delete(ctx context.Context, followerID, followingID string) error
	DeleteAllForUser(ctx context.Context, userID string) error
	Exists(ctx context.Context, followerID, followingID string) (bool, error)
	Followers(ctx context.Context, userID string, page models.Page) ([]*models.User, error)
	Following(ctx context.Context, userID string, page models.Page) ([]*models.User, error)
	CountFollowers(ctx context.Context, userID string) (int64, error)
	CountFollowing(ctx context.Context, userID string) (int64, error)
}
