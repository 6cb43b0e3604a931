// Package posts provides a PostgreSQL-backed repository for blog posts.
package posts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/portfolio/internal/common"
	"github.com/dmitrijs2005/portfolio/internal/dbx"
	"github.com/dmitrijs2005/portfolio/internal/server/models"
)

// Tags travel as a comma separated string so database/sql needs no array codec.
const selectPosts = `
	SELECT p.id, p.title, p.slug, p.content, p.excerpt, array_to_string(p.tags, ','),
	       p.published, p.featured, p.author_id, p.created_at, p.updated_at,
	       u.id, u.username, u.first_name, u.last_name, u.avatar, u.bio
	FROM posts p
	JOIN users u ON u.id = p.author_id
`

type scanner interface {
	Scan(dest ...any) error
}

func scanPost(s scanner) (*models.Post, error) {
	p := &models.Post{Author: &models.Author{}}
	var tags string
	err := s.Scan(&p.ID, &p.Title, &p.Slug, &p.Content, &p.Excerpt, &tags,
		&p.Published, &p.Featured, &p.AuthorID, &p.CreatedAt, &p.UpdatedAt,
		&p.Author.ID, &p.Author.Username, &p.Author.FirstName, &p.Author.LastName, &p.Author.Avatar, &p.Author.Bio)
	if err != nil {
		return nil, err
	}
	p.Tags = splitTags(tags)
	return p, nil
}

func splitTags(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(s, ",")
}

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]*models.Post, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbx.Classify(err)
	}
	defer rows.Close()

	result := []*models.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		// list views carry the short author summary only
		p.Author.Bio = nil
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

// ListPublished returns one page of published posts, newest first.
func (r *PostgresRepository) ListPublished(ctx context.Context, page models.Page) ([]*models.Post, error) {
	query := selectPosts + `
	WHERE p.published = TRUE
	ORDER BY p.created_at DESC
	LIMIT $1 OFFSET $2
	`
	return r.list(ctx, query, page.Limit, page.Offset())
}

func (r *PostgresRepository) CountPublished(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts WHERE published = TRUE`).Scan(&n); err != nil {
		return 0, dbx.Classify(err)
	}
	return n, nil
}

// ListFeatured returns up to limit published featured posts, newest first.
func (r *PostgresRepository) ListFeatured(ctx context.Context, limit int) ([]*models.Post, error) {
	query := selectPosts + `
	WHERE p.published = TRUE AND p.featured = TRUE
	ORDER BY p.created_at DESC
	LIMIT $1
	`
	return r.list(ctx, query, limit)
}

// GetBySlug returns a published post with its author's bio.
func (r *PostgresRepository) GetBySlug(ctx context.Context, slug string) (*models.Post, error) {
	query := selectPosts + `
	WHERE p.slug = $1 AND p.published = TRUE
	`
	p, err := scanPost(r.db.QueryRowContext(ctx, query, slug))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, dbx.Classify(err)
	}
	return p, nil
}

func (r *PostgresRepository) CountByAuthor(ctx context.Context, authorID string) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts WHERE author_id = $1`, authorID).Scan(&n); err != nil {
		return 0, dbx.Classify(err)
	}
	return n, nil
}

// CreateIfAbsent inserts post unless its slug is taken and reports whether
// a row was written. On insert post.ID and timestamps are filled in.
func (r *PostgresRepository) CreateIfAbsent(ctx context.Context, post *models.Post) (bool, error) {
	query := `
		INSERT INTO posts (title, slug, content, excerpt, tags, published, featured, author_id)
		VALUES ($1, $2, $3, $4, string_to_array($5, ','), $6, $7, $8)
		ON CONFLICT (slug) DO NOTHING
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		post.Title, post.Slug, post.Content, post.Excerpt, strings.Join(post.Tags, ","),
		post.Published, post.Featured, post.AuthorID,
	).Scan(&post.ID, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, dbx.Classify(err)
	}
	return true, nil
}
