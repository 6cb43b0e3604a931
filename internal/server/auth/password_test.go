package auth

import (
	"strings"
	"testing"

	"github.com/dmitrijs2005/portfolio/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHasher_RoundTrip(t *testing.T) {
	t.Parallel()

	h := NewPasswordHasher(bcrypt.MinCost)

	hash, err := h.Hash("correct horse battery")
	require.NoError(t, err)

	assert.True(t, h.Compare("correct horse battery", hash))
	assert.False(t, h.Compare("wrong horse battery", hash))
}

func TestPasswordHasher_FreshSaltEachCall(t *testing.T) {
	t.Parallel()

	h := NewPasswordHasher(bcrypt.MinCost)

	a, err := h.Hash("same password")
	require.NoError(t, err)
	b, err := h.Hash("same password")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.True(t, h.Compare("same password", a))
	assert.True(t, h.Compare("same password", b))
}

func TestPasswordHasher_MalformedHash(t *testing.T) {
	t.Parallel()

	h := NewPasswordHasher(bcrypt.MinCost)

	for _, hash := range []string{"", "plain", "$2a$10$short"} {
		assert.NotPanics(t, func() {
			assert.False(t, h.Compare("anything", hash))
		})
	}
}

func TestPasswordHasher_DefaultCost(t *testing.T) {
	t.Parallel()

	h := NewPasswordHasher(0)
	require.Equal(t, DefaultCost, h.Cost)

	hash, err := h.Hash("hunter2hunter2")
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, 12, cost)
}

func TestPasswordHasher_TooLong(t *testing.T) {
	t.Parallel()

	h := NewPasswordHasher(bcrypt.MinCost)
	long := make([]byte, 73)
	for i := range long {
		long[i] = 'a'
	}
	_, err := h.Hash(string(long))
	assert.ErrorIs(t, err, ErrPasswordTooLong)
	assert.ErrorIs(t, err, common.ErrorValidation)

	// 40 two-byte runes fit a 72 character limit but not bcrypt's 72 bytes
	_, err = h.Hash(strings.Repeat("é", 40))
	assert.ErrorIs(t, err, common.ErrorValidation)

	_, err = h.Hash(strings.Repeat("é", 36))
	assert.NoError(t, err)
}
