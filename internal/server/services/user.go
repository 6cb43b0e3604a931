// Package services contains server-side business logic. This file implements
// UserService: registration, login, token refresh and the account and
// administration operations over the identity store.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/portfolio/internal/common"
	"github.com/dmitrijs2005/portfolio/internal/dbx"
	"github.com/dmitrijs2005/portfolio/internal/logging"
	"github.com/dmitrijs2005/portfolio/internal/server/auth"
	"github.com/dmitrijs2005/portfolio/internal/server/models"
	"github.com/dmitrijs2005/portfolio/internal/server/repositories/repomanager"
	"golang.org/x/sync/errgroup"
)

// UserService provides authentication and account operations.
type UserService struct {
	db                           *sql.DB
	repomanager                  repomanager.RepositoryManager
	hasher                       PasswordHasher
	tokens                       TokenIssuer
	refreshTokenValidityDuration time.Duration
	logger                       logging.Logger

	dummyOnce sync.Once
	dummyHash string
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, hasher PasswordHasher, tokens TokenIssuer,
	refreshValidity time.Duration, logger logging.Logger) *UserService {
	return &UserService{
		db:                           db,
		repomanager:                  m,
		hasher:                       hasher,
		tokens:                       tokens,
		refreshTokenValidityDuration: refreshValidity,
		logger:                       logger.With("module", "user_service"),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an active USER account and signs it in.
// An existing email or username yields common.ErrorUserExists.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	email := normalizeEmail(in.Email)
	username := strings.TrimSpace(in.Username)

	repo := s.repomanager.Users(s.db)
	if _, err := repo.GetByEmailOrUsername(ctx, email, username); err == nil {
		return nil, common.ErrorUserExists
	} else if !errors.Is(err, common.ErrorNotFound) {
		return nil, fmt.Errorf("error checking user: %w", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{
		Email:        email,
		Username:     username,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Bio:          in.Bio,
		IsActive:     true,
		Role:         models.RoleUser,
	}

	var pair *TokenPair
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		// the unique constraints still decide when two sign ups race past the check above
		u, err := s.repomanager.Users(tx).Create(ctx, user)
		if err != nil {
			return err
		}
		user = u
		pair, err = s.generateTokenPair(ctx, user, tx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	s.logger.Info(ctx, "user registered", "user_id", user.ID)
	return &AuthResult{User: user.Sanitize(), TokenPair: *pair}, nil
}

// Login verifies credentials and issues a token pair. Unknown email and wrong
// password are indistinguishable; a disabled account is reported only after
// the password matched.
func (s *UserService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.hasher.Compare(password, s.getDummyHash())
			return nil, common.ErrorInvalidCredentials
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}

	if !s.hasher.Compare(password, user.PasswordHash) {
		return nil, common.ErrorInvalidCredentials
	}
	if !user.IsActive {
		return nil, common.ErrorAccountDisabled
	}

	pair, err := s.generateTokenPair(ctx, user, s.db)
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "user logged in", "user_id", user.ID)
	return &AuthResult{User: user.Sanitize(), TokenPair: *pair}, nil
}

// RefreshToken claims a refresh token and returns a fresh TokenPair in the
// same transaction, so a token rotates at most once. Expired tokens yield
// ErrRefreshTokenExpired, unknown or already used ones ErrInvalidToken.
func (s *UserService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	var (
		pair    *TokenPair
		expired bool
	)
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		token, err := s.repomanager.RefreshTokens(tx).Claim(ctx, refreshToken)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrInvalidToken
			}
			return fmt.Errorf("error claiming refresh token: %w", err)
		}
		if token.Expired(time.Now()) {
			// commit so the stale session is gone
			expired = true
			return nil
		}

		user, err := s.repomanager.Users(tx).GetByID(ctx, token.UserID)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrorUserNotFound
			}
			return fmt.Errorf("error loading user: %w", err)
		}
		if !user.IsActive {
			return common.ErrorAccountDisabled
		}

		pair, err = s.generateTokenPair(ctx, user, tx)
		return err
	}); err != nil {
		return nil, err
	}
	if expired {
		return nil, common.ErrRefreshTokenExpired
	}
	return pair, nil
}

// Logout revokes refreshToken if it belongs to userID, or every token of
// userID when refreshToken is empty. Unknown tokens are ignored.
func (s *UserService) Logout(ctx context.Context, userID, refreshToken string) error {
	repo := s.repomanager.RefreshTokens(s.db)
	if refreshToken == "" {
		if err := repo.DeleteAllForUser(ctx, userID); err != nil {
			return fmt.Errorf("error revoking tokens: %w", err)
		}
		return nil
	}

	token, err := repo.Find(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil
		}
		return fmt.Errorf("error searching refresh token: %w", err)
	}
	if token.UserID != userID {
		return nil
	}
	if err := repo.Delete(ctx, refreshToken); err != nil {
		return fmt.Errorf("error deleting refresh token: %w", err)
	}
	return nil
}

// GetByID returns the stored record, including the password hash. It backs
// the request pipeline, which must see the current role and active flag.
func (s *UserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	u, err := s.repomanager.Users(s.db).GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUserNotFound
		}
		return nil, err
	}
	return u, nil
}

func (s *UserService) GetProfile(ctx context.Context, userID string) (*models.PublicUser, error) {
	u, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return u.Sanitize(), nil
}

// UpdateProfile applies in to userID. Taken emails or usernames surface as
// *common.ConflictError.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, in ProfileInput) (*models.PublicUser, error) {
	u, err := s.update(ctx, s.db, userID, in.toUpdate())
	if err != nil {
		return nil, err
	}
	return u.Sanitize(), nil
}

func (s *UserService) update(ctx context.Context, db dbx.DBTX, id string, upd models.UserUpdate) (*models.User, error) {
	u, err := s.repomanager.Users(db).Update(ctx, id, upd)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUserNotFound
		}
		return nil, err
	}
	return u, nil
}

// ChangePassword replaces the password after checking the current one and
// revokes all refresh tokens of the account.
func (s *UserService) ChangePassword(ctx context.Context, userID, current, next string) error {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !s.hasher.Compare(current, user.PasswordHash) {
		return common.ErrorWrongPassword
	}

	hash, err := s.hasher.Hash(next)
	if err != nil {
		return fmt.Errorf("error hashing password: %w", err)
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.update(ctx, tx, userID, models.UserUpdate{PasswordHash: &hash}); err != nil {
			return err
		}
		return s.repomanager.RefreshTokens(tx).DeleteAllForUser(ctx, userID)
	})
}

func (s *UserService) setActive(ctx context.Context, id string, active bool) (*models.PublicUser, error) {
	var user *models.User
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		u, err := s.update(ctx, tx, id, models.UserUpdate{IsActive: &active})
		if err != nil {
			return err
		}
		user = u
		if active {
			return nil
		}
		return s.repomanager.RefreshTokens(tx).DeleteAllForUser(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return user.Sanitize(), nil
}

// Deactivate disables the caller's own account. Outstanding access tokens
// stop working on the next request; refresh tokens are revoked.
func (s *UserService) Deactivate(ctx context.Context, userID string) error {
	if _, err := s.setActive(ctx, userID, false); err != nil {
		return err
	}
	s.logger.Info(ctx, "account deactivated", "user_id", userID)
	return nil
}

func (s *UserService) Reactivate(ctx context.Context, id string) (*models.PublicUser, error) {
	u, err := s.setActive(ctx, id, true)
	if err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "account reactivated", "user_id", id)
	return u, nil
}

func (s *UserService) ChangeRole(ctx context.Context, id string, role models.Role) (*models.PublicUser, error) {
	if !role.Valid() {
		return nil, common.NewValidationError("Invalid role")
	}
	u, err := s.update(ctx, s.db, id, models.UserUpdate{Role: &role})
	if err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "role changed", "user_id", id, "role", string(role))
	return u.Sanitize(), nil
}

// GetUser returns the public profile of id with posts, followers and
// following counts. IsFollowing is set when viewerID is not empty.
func (s *UserService) GetUser(ctx context.Context, viewerID, id string) (*models.UserProfile, error) {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	profile := &models.UserProfile{PublicUser: user.Sanitize()}
	followRepo := s.repomanager.Follows(s.db)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		profile.PostsCount, err = s.repomanager.Posts(s.db).CountByAuthor(gctx, id)
		return err
	})
	g.Go(func() (err error) {
		profile.FollowersCount, err = followRepo.CountFollowers(gctx, id)
		return err
	})
	g.Go(func() (err error) {
		profile.FollowingCount, err = followRepo.CountFollowing(gctx, id)
		return err
	})
	if viewerID != "" {
		g.Go(func() error {
			ok, err := followRepo.Exists(gctx, viewerID, id)
			profile.IsFollowing = &ok
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("error loading profile: %w", err)
	}
	return profile, nil
}

// List returns one page of users matching filter, newest first.
func (s *UserService) List(ctx context.Context, filter models.UserFilter, page models.Page) (*PageResult[*models.PublicUser], error) {
	repo := s.repomanager.Users(s.db)

	var (
		items []*models.User
		total int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		items, err = repo.FindMany(gctx, filter, page)
		return err
	})
	g.Go(func() (err error) {
		total, err = repo.Count(gctx, filter)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("error listing users: %w", err)
	}
	return newPageResult(models.SanitizeAll(items), page, total), nil
}

// Search lists active users whose email, username or names contain query.
func (s *UserService) Search(ctx context.Context, query string, page models.Page) (*PageResult[*models.PublicUser], error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, common.NewValidationError("Search query is required")
	}
	active := true
	return s.List(ctx, models.UserFilter{Search: query, IsActive: &active}, page)
}

// Stats runs the six counts concurrently.
func (s *UserService) Stats(ctx context.Context) (*models.UserStats, error) {
	repo := s.repomanager.Users(s.db)
	active, inactive := true, false
	admin, moderator, user := models.RoleAdmin, models.RoleModerator, models.RoleUser

	stats := &models.UserStats{}
	counts := []struct {
		dst    *int64
		filter models.UserFilter
	}{
		{&stats.Total, models.UserFilter{}},
		{&stats.Active, models.UserFilter{IsActive: &active}},
		{&stats.Inactive, models.UserFilter{IsActive: &inactive}},
		{&stats.Admins, models.UserFilter{Role: &admin}},
		{&stats.Moderators, models.UserFilter{Role: &moderator}},
		{&stats.Users, models.UserFilter{Role: &user}},
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, c := range counts {
		g.Go(func() (err error) {
			*c.dst, err = repo.Count(gctx, c.filter)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("error counting users: %w", err)
	}
	return stats, nil
}

// DeleteUser removes id together with its follow edges and refresh tokens in
// one transaction.
func (s *UserService) DeleteUser(ctx context.Context, id string) error {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Follows(tx).DeleteAllForUser(ctx, id); err != nil {
			return err
		}
		if err := s.repomanager.RefreshTokens(tx).DeleteAllForUser(ctx, id); err != nil {
			return err
		}
		return s.repomanager.Users(tx).Delete(ctx, id)
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorUserNotFound
		}
		return fmt.Errorf("error deleting user: %w", err)
	}
	s.logger.Info(ctx, "user deleted", "user_id", id)
	return nil
}

// --- helpers below ---

// getDummyHash returns a valid hash of a random password so that logins for
// unknown emails take as long as real ones.
func (s *UserService) getDummyHash() string {
	s.dummyOnce.Do(func() {
		plain, err := common.MakeRandHexString(16)
		if err != nil {
			return
		}
		s.dummyHash, _ = s.hasher.Hash(plain)
	})
	return s.dummyHash
}

func (s *UserService) generateTokenPair(ctx context.Context, user *models.User, tx dbx.DBTX) (*TokenPair, error) {
	access, err := s.tokens.Generate(auth.TokenPayload{ID: user.ID, Email: user.Email, Role: string(user.Role)})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	refresh, err := auth.GenerateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	if err := s.repomanager.RefreshTokens(tx).Create(ctx, user.ID, refresh, s.refreshTokenValidityDuration); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// PurgeExpiredTokens drops refresh tokens past their expiry.
func (s *UserService) PurgeExpiredTokens(ctx context.Context) (int64, error) {
	n, err := s.repomanager.RefreshTokens(s.db).DeleteExpired(ctx, time.Now())
	if err != nil {
		return 0, fmt.Errorf("error purging refresh tokens: %w", err)
	}
	if n > 0 {
		s.logger.Info(ctx, "expired refresh tokens purged", "count", n)
	}
	return n, nil
}
