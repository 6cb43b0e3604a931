// Package posts declares the repository contract for blog posts.
package posts

import (
	"context"

	"github.com/dmitrijs2005/portfolio/internal/server/models"
)

type Repository interface {
	ListPublished(ctx context.Context, page models.Page) ([]*models.Post, error)
	CountPublished(ctx context.Context) (int64, error)
	ListFeatured(ctx context.Context, limit int) ([]*models.Post, error)
	GetBySlug(ctx context.Context, slug string) (*models.Post, error)
	CountByAuthor(ctx context.Context, authorID string) (int64, error)
	CreateIfAbsent(ctx context.Context, post *models.Post) (bool, error)
}
