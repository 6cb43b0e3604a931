// Package follows provides a PostgreSQL-backed repository for follow edges.
package follows

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/portfolio/internal/common"
	"github.com/dmitrijs2005/portfolio/internal/dbx"
	"github.com/dmitrijs2005/portfolio/internal/server/models"
	"github.com/dmitrijs2005/portfolio/internal/server/repositories/users"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts the edge follower -> following. Creating an existing edge
// is a no-op. A missing user yields common.ErrorNotFound.
func (r *PostgresRepository) Create(ctx context.Context, followerID, followingID string) error {
	if followerID == followingID {
		return common.ErrorSelfFollow
	}
	query := `
		INSERT INTO follows (follower_id, following_id)
		VALUES ($1, $2)
		ON CONFLICT (follower_id, following_id) DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, query, followerID, followingID); err != nil {
		return dbx.Classify(err)
	}
	return nil
}

// Delete removes the edge. Removing an absent edge is not an error.
func (r *PostgresRepository) Delete(ctx context.Context, followerID, followingID string) error {
	query := `
		DELETE FROM follows
		WHERE follower_id = $1 AND following_id = $2
	`
	if _, err := r.db.ExecContext(ctx, query, followerID, followingID); err != nil {
		return dbx.Classify(err)
	}
	return nil
}

// DeleteAllForUser removes every edge touching userID in either direction.
func (r *PostgresRepository) DeleteAllForUser(ctx context.Context, userID string) error {
	query := `
		DELETE FROM follows
		WHERE follower_id = $1 OR following_id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return dbx.Classify(err)
	}
	return nil
}

func (r *PostgresRepository) Exists(ctx context.Context, followerID, followingID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM follows WHERE follower_id = $1 AND following_id = $2
		)
	`
	var ok bool
	if err := r.db.QueryRowContext(ctx, query, followerID, followingID).Scan(&ok); err != nil {
		return false, dbx.Classify(err)
	}
	return ok, nil
}

// listUsers joins the edge side "other" to users, filtering by side "self".
func (r *PostgresRepository) listUsers(ctx context.Context, self, other, userID string, page models.Page) ([]*models.User, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM follows f
		JOIN users u ON u.id = f.%s
		WHERE f.%s = $1
		ORDER BY f.created_at DESC, u.id DESC
		LIMIT $2 OFFSET $3
	`, users.PrefixedColumns("u"), other, self)

	rows, err := r.db.QueryContext(ctx, query, userID, page.Limit, page.Offset())
	if err != nil {
		return nil, dbx.Classify(err)
	}
	defer rows.Close()

	result := []*models.User{}
	for rows.Next() {
		u, err := users.ScanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

// Followers lists users following userID, most recent edge first.
func (r *PostgresRepository) Followers(ctx context.Context, userID string, page models.Page) ([]*models.User, error) {
	return r.listUsers(ctx, "following_id", "follower_id", userID, page)
}

// Following lists users that userID follows, most recent edge first.
func (r *PostgresRepository) Following(ctx context.Context, userID string, page models.Page) ([]*models.User, error) {
	return r.listUsers(ctx, "follower_id", "following_id", userID, page)
}

func (r *PostgresRepository) count(ctx context.Context, column, userID string) (int64, error) {
	var n int64
	query := fmt.Sprintf(`SELECT COUNT(*) FROM follows WHERE %s = $1`, column)
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&n); err != nil {
		return 0, dbx.Classify(err)
	}
	return n, nil
}

func (r *PostgresRepository) CountFollowers(ctx context.Context, userID string) (int64, error) {
	return r.count(ctx, "following_id", userID)
}

func (r *PostgresRepository) CountFollowing(ctx context.Context, userID string) (int64, error) {
	return r.count(ctx, "follower_id", userID)
}
