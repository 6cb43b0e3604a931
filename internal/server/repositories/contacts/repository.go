// Package contacts declares the repository contract for contact form messages.
package contacts

import (
	"context"

	"github.com/dmitrijs2005/portfolio/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, msg *models.ContactMessage) (*models.ContactMessage, error)
	List(ctx context.Context, page models.Page) ([]*models.ContactMessage, error)
	Count(ctx context.Context) (int64, error)
}
