package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/portfolio/internal/logging"
	"github.com/dmitrijs2005/portfolio/internal/server/models"
	"github.com/dmitrijs2005/portfolio/internal/server/repositories/repomanager"
	"golang.org/x/sync/errgroup"
)

// ContactService stores messages sent through the contact form.
type ContactService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewContactService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *ContactService {
	return &ContactService{db: db, repomanager: m, logger: logger.With("module", "contact_service")}
}

func (s *ContactService) Submit(ctx context.Context, msg *models.ContactMessage) (*models.ContactMessage, error) {
	saved, err := s.repomanager.Contacts(s.db).Create(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("error saving contact message: %w", err)
	}
	s.logger.Info(ctx, "contact message received", "id", saved.ID, "email", saved.Email, "subject", saved.Subject)
	return saved, nil
}

func (s *ContactService) List(ctx context.Context, page models.Page) (*PageResult[*models.ContactMessage], error) {
	repo := s.repomanager.Contacts(s.db)

	var (
		items []*models.ContactMessage
		total int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		items, err = repo.List(gctx, page)
		return err
	})
	g.Go(func() (err error) {
		total, err = repo.Count(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("error listing contact messages: %w", err)
	}
	return newPageResult(items, page, total), nil
}
