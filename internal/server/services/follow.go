package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/portfolio/internal/common"
	"github.com/dmitrijs2005/portfolio/internal/logging"
	"github.com/dmitrijs2005/portfolio/internal/server/models"
	"github.com/dmitrijs2005/portfolio/internal/server/repositories/repomanager"
	"golang.org/x/sync/errgroup"
)

// FollowService maintains the follower graph.
type FollowService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewFollowService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *FollowService {
	return &FollowService{db: db, repomanager: m, logger: logger.With("module", "follow_service")}
}

// Follow makes followerID follow targetID. Following twice is a no-op.
func (s *FollowService) Follow(ctx context.Context, followerID, targetID string) error {
	if followerID == targetID {
		return common.ErrorSelfFollow
	}
	if _, err := s.repomanager.Users(s.db).GetByID(ctx, targetID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorUserNotFound
		}
		return fmt.Errorf("error loading user: %w", err)
	}
	if err := s.repomanager.Follows(s.db).Create(ctx, followerID, targetID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			// target deleted between the check and the insert
			return common.ErrorUserNotFound
		}
		return err
	}
	s.logger.Debug(ctx, "follow", "follower_id", followerID, "following_id", targetID)
	return nil
}

// Unfollow removes the edge if present.
func (s *FollowService) Unfollow(ctx context.Context, followerID, targetID string) error {
	if err := s.repomanager.Follows(s.db).Delete(ctx, followerID, targetID); err != nil {
		return err
	}
	s.logger.Debug(ctx, "unfollow", "follower_id", followerID, "following_id", targetID)
	return nil
}

func (s *FollowService) IsFollowing(ctx context.Context, followerID, targetID string) (bool, error) {
	return s.repomanager.Follows(s.db).Exists(ctx, followerID, targetID)
}

func (s *FollowService) Followers(ctx context.Context, userID string, page models.Page) (*PageResult[*models.PublicUser], error) {
	repo := s.repomanager.Follows(s.db)
	return s.list(ctx, page,
		func(ctx context.Context) ([]*models.User, error) { return repo.Followers(ctx, userID, page) },
		func(ctx context.Context) (int64, error) { return repo.CountFollowers(ctx, userID) })
}

func (s *FollowService) Following(ctx context.Context, userID string, page models.Page) (*PageResult[*models.PublicUser], error) {
	repo := s.repomanager.Follows(s.db)
	return s.list(ctx, page,
		func(ctx context.Context) ([]*models.User, error) { return repo.Following(ctx, userID, page) },
		func(ctx context.Context) (int64, error) { return repo.CountFollowing(ctx, userID) })
}

func (s *FollowService) list(ctx context.Context, page models.Page,
	items func(context.Context) ([]*models.User, error),
	count func(context.Context) (int64, error)) (*PageResult[*models.PublicUser], error) {

	var (
		users []*models.User
		total int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		users, err = items(gctx)
		return err
	})
	g.Go(func() (err error) {
		total, err = count(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("error listing follows: %w", err)
	}
	return newPageResult(models.SanitizeAll(users), page, total), nil
}
