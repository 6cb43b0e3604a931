// Package refreshtokens stores the server side of refresh-token sessions.
// Tokens are opaque to the store; implementations may keep only a digest.
package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/portfolio/internal/server/models"
)

type Repository interface {
	// Create starts a session for userID that ends validity from now.
	Create(ctx context.Context, userID string, token string, validity time.Duration) error

	// Find returns the session for token, or common.ErrorNotFound.
	Find(ctx context.Context, token string) (*models.RefreshToken, error)

	// Claim ends the session for token and returns it. Of concurrent claims on
	// one token exactly one succeeds; the rest get common.ErrorNotFound.
	Claim(ctx context.Context, token string) (*models.RefreshToken, error)

	// Delete ends one session. Unknown tokens are not an error.
	Delete(ctx context.Context, token string) error

	// DeleteAllForUser ends every session of userID.
	DeleteAllForUser(ctx context.Context, userID string) error

	// DeleteExpired purges sessions that ended at or before now and reports how many went.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
