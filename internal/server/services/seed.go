package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/portfolio/internal/common"
	"github.com/dmitrijs2005/portfolio/internal/dbx"
	"github.com/dmitrijs2005/portfolio/internal/logging"
	"github.com/dmitrijs2005/portfolio/internal/server/models"
	"github.com/dmitrijs2005/portfolio/internal/server/repositories/repomanager"
)

func strptr(s string) *string { return &s }

// DefaultAdmin is the account created by the seed command.
var DefaultAdmin = models.User{
	Email:     "admin@chhuonmakararoth.site",
	Username:  "makaraadmin",
	FirstName: strptr("Makara"),
	LastName:  strptr("Chhuon"),
	Bio:       strptr("Full Stack Developer specializing in modern web technologies"),
	IsActive:  true,
	Role:      models.RoleAdmin,
}

// SamplePosts are published with DefaultAdmin as author.
var SamplePosts = []models.Post{
	{
		Title:     "Welcome to My Portfolio",
		Slug:      "welcome-to-my-portfolio",
		Content:   "This is my first blog post on my new portfolio website. I'm excited to share my journey as a full-stack developer.",
		Published: true,
		Featured:  true,
		Tags:      []string{"introduction", "portfolio", "web-development"},
	},
	{
		Title:     "Building Modern Web Applications with Next.js",
		Slug:      "building-modern-web-applications-nextjs",
		Content:   "Next.js has revolutionized the way we build React applications. In this post, I'll share my experience building this portfolio.",
		Published: true,
		Tags:      []string{"nextjs", "react", "web-development", "javascript"},
	},
	{
		Title:     "The Power of TypeScript in Backend Development",
		Slug:      "power-of-typescript-backend-development",
		Content:   "TypeScript brings type safety to JavaScript, making backend development more robust and maintainable.",
		Published: true,
		Tags:      []string{"typescript", "backend", "nodejs", "development"},
	},
}

// SeedResult reports what Seed wrote.
type SeedResult struct {
	AdminCreated bool
	AdminID      string
	PostsCreated int
}

// Seeder inserts the admin account and the sample posts. Existing rows are
// left untouched, so running it twice is safe.
type Seeder struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      PasswordHasher
	logger      logging.Logger
}

func NewSeeder(db *sql.DB, m repomanager.RepositoryManager, hasher PasswordHasher, logger logging.Logger) *Seeder {
	return &Seeder{db: db, repomanager: m, hasher: hasher, logger: logger.With("module", "seeder")}
}

func (s *Seeder) Seed(ctx context.Context, adminPassword string) (*SeedResult, error) {
	res := &SeedResult{}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		users := s.repomanager.Users(tx)

		admin, err := users.GetByEmail(ctx, DefaultAdmin.Email)
		switch {
		case errors.Is(err, common.ErrorNotFound):
			hash, err := s.hasher.Hash(adminPassword)
			if err != nil {
				return fmt.Errorf("error hashing password: %w", err)
			}
			u := DefaultAdmin
			u.PasswordHash = hash
			if admin, err = users.Create(ctx, &u); err != nil {
				return fmt.Errorf("error creating admin: %w", err)
			}
			res.AdminCreated = true
		case err != nil:
			return fmt.Errorf("error loading admin: %w", err)
		}
		res.AdminID = admin.ID

		posts := s.repomanager.Posts(tx)
		for _, p := range SamplePosts {
			p.AuthorID = admin.ID
			created, err := posts.CreateIfAbsent(ctx, &p)
			if err != nil {
				return fmt.Errorf("error creating post %q: %w", p.Slug, err)
			}
			if created {
				res.PostsCreated++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "seed completed", "admin_created", res.AdminCreated, "posts_created", res.PostsCreated)
	return res, nil
}
