package repotest

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/portfolio/internal/common"
	"github.com/dmitrijs2005/portfolio/internal/server/models"
	"github.com/dmitrijs2005/portfolio/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ repomanager.RepositoryManager = (*Store)(nil)

func mkUser(t *testing.T, s *Store, name string) *models.User {
	t.Helper()
	u, err := s.Users(nil).Create(context.Background(), &models.User{Email: name + "@x.com", Username: name, IsActive: true})
	require.NoError(t, err)
	return u
}

func TestUsers_UniqueAndOrder(t *testing.T) {
	s := New()
	ctx := context.Background()
	a := mkUser(t, s, "alice")
	b := mkUser(t, s, "bob")

	_, err := s.Users(nil).Create(ctx, &models.User{Email: "alice@x.com", Username: "other"})
	var ce *common.ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "email", ce.Field)

	list, err := s.Users(nil).FindMany(ctx, models.UserFilter{}, models.DefaultPage())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, b.ID, list[0].ID)
	assert.Equal(t, a.ID, list[1].ID)
}

func TestUsers_DeleteCascades(t *testing.T) {
	s := New()
	ctx := context.Background()
	a := mkUser(t, s, "alice")
	b := mkUser(t, s, "bob")

	require.NoError(t, s.Follows(nil).Create(ctx, a.ID, b.ID))
	require.NoError(t, s.Follows(nil).Create(ctx, b.ID, a.ID))
	require.NoError(t, s.RefreshTokens(nil).Create(ctx, a.ID, "t", 0))

	require.NoError(t, s.Users(nil).Delete(ctx, a.ID))
	assert.Zero(t, s.FollowCount())
	assert.Zero(t, s.TokenCount())
	assert.True(t, errors.Is(s.Users(nil).Delete(ctx, a.ID), common.ErrorNotFound))
}

func TestFollows_Idempotent(t *testing.T) {
	s := New()
	ctx := context.Background()
	a := mkUser(t, s, "alice")
	b := mkUser(t, s, "bob")

	require.NoError(t, s.Follows(nil).Create(ctx, a.ID, b.ID))
	require.NoError(t, s.Follows(nil).Create(ctx, a.ID, b.ID))
	assert.Equal(t, 1, s.FollowCount())

	assert.ErrorIs(t, s.Follows(nil).Create(ctx, a.ID, a.ID), common.ErrorSelfFollow)
	assert.ErrorIs(t, s.Follows(nil).Create(ctx, a.ID, "ghost"), common.ErrorNotFound)

	require.NoError(t, s.Follows(nil).Delete(ctx, b.ID, a.ID))
	assert.Equal(t, 1, s.FollowCount())
}

func TestTokens_ClaimOnce(t *testing.T) {
	s := New()
	ctx := context.Background()
	a := mkUser(t, s, "alice")
	require.NoError(t, s.RefreshTokens(nil).Create(ctx, a.ID, "t", time.Hour))

	var won, lost atomic.Int32
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tok, err := s.RefreshTokens(nil).Claim(ctx, "t")
			switch {
			case err == nil && tok.UserID == a.ID:
				won.Add(1)
			case errors.Is(err, common.ErrorNotFound):
				lost.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, won.Load())
	assert.EqualValues(t, 7, lost.Load())
	assert.Zero(t, s.TokenCount())
}

func TestFollows_SameInstantOrderedByID(t *testing.T) {
	s := New()
	ctx := context.Background()
	target := mkUser(t, s, "target")
	a := mkUser(t, s, "alice")
	b := mkUser(t, s, "bob")
	c := mkUser(t, s, "carol")

	for _, u := range []*models.User{a, b, c} {
		require.NoError(t, s.Follows(nil).Create(ctx, u.ID, target.ID))
	}
	same := s.follows[0].CreatedAt
	for i := range s.follows {
		s.follows[i].CreatedAt = same
	}

	list, err := s.Follows(nil).Followers(ctx, target.ID, models.DefaultPage())
	require.NoError(t, err)
	require.Len(t, list, 3)
	for i := 1; i < len(list); i++ {
		assert.Greater(t, list[i-1].ID, list[i].ID)
	}
}
