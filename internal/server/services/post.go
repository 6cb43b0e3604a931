package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/portfolio/internal/common"
	"github.com/dmitrijs2005/portfolio/internal/server/models"
	"github.com/dmitrijs2005/portfolio/internal/server/repositories/repomanager"
	"golang.org/x/sync/errgroup"
)

// FeaturedLimit caps the featured posts listing.
const FeaturedLimit = 5

// PostService serves published blog posts. It is read-only.
type PostService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewPostService(db *sql.DB, m repomanager.RepositoryManager) *PostService {
	return &PostService{db: db, repomanager: m}
}

func (s *PostService) List(ctx context.Context, page models.Page) (*PageResult[*models.Post], error) {
	repo := s.repomanager.Posts(s.db)

	var (
		items []*models.Post
		total int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		items, err = repo.ListPublished(gctx, page)
		return err
	})
	g.Go(func() (err error) {
		total, err = repo.CountPublished(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("error listing posts: %w", err)
	}
	return newPageResult(items, page, total), nil
}

func (s *PostService) Featured(ctx context.Context) ([]*models.Post, error) {
	items, err := s.repomanager.Posts(s.db).ListFeatured(ctx, FeaturedLimit)
	if err != nil {
		return nil, fmt.Errorf("error listing featured posts: %w", err)
	}
	return items, nil
}

func (s *PostService) GetBySlug(ctx context.Context, slug string) (*models.Post, error) {
	p, err := s.repomanager.Posts(s.db).GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorPostNotFound
		}
		return nil, fmt.Errorf("error loading post: %w", err)
	}
	return p, nil
}
