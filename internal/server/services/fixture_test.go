package services

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/portfolio/internal/logging"
	"github.com/dmitrijs2005/portfolio/internal/server/auth"
	"github.com/dmitrijs2005/portfolio/internal/server/models"
	"github.com/dmitrijs2005/portfolio/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/portfolio/internal/server/repositories/repotest"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fixture struct {
	store   *repotest.Store
	db      *sql.DB
	mock    sqlmock.Sqlmock
	hasher  *auth.PasswordHasher
	issuer  *auth.TokenIssuer
	users   *UserService
	follows *FollowService
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWith(t, nil)
}

// newFixtureWith lets a test wrap the in-memory manager, e.g. to inject failures.
func newFixtureWith(t *testing.T, wrap func(*repotest.Store) repomanager.RepositoryManager) *fixture {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	issuer, err := auth.NewTokenIssuer([]byte("k"), time.Hour)
	require.NoError(t, err)

	store := repotest.New()
	var rm repomanager.RepositoryManager = store
	if wrap != nil {
		rm = wrap(store)
	}

	hasher := auth.NewPasswordHasher(bcrypt.MinCost)
	return &fixture{
		store:   store,
		db:      db,
		mock:    mock,
		hasher:  hasher,
		issuer:  issuer,
		users:   NewUserService(db, rm, hasher, issuer, 2*time.Hour, logging.Nop{}),
		follows: NewFollowService(db, rm, logging.Nop{}),
	}
}

func (f *fixture) expectTx() {
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()
}

func (f *fixture) expectRollback() {
	f.mock.ExpectBegin()
	f.mock.ExpectRollback()
}

// seedUser stores an account directly, bypassing Register.
func (f *fixture) seedUser(t *testing.T, name, password string, active bool) *models.User {
	t.Helper()
	hash, err := f.hasher.Hash(password)
	require.NoError(t, err)
	u, err := f.store.Users(nil).Create(context.Background(), &models.User{
		Email:        name + "@x.com",
		Username:     name,
		PasswordHash: hash,
		IsActive:     active,
		Role:         models.RoleUser,
	})
	require.NoError(t, err)
	return u
}

func (f *fixture) done(t *testing.T) {
	t.Helper()
	require.NoError(t, f.mock.ExpectationsWereMet())
}
