package migrations

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrations_EmbeddedInOrder(t *testing.T) {
	entries, err := fs.ReadDir(Migrations, ".")
	require.NoError(t, err)

	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}

	assert.Equal(t, []string{
		"00001_create_users.sql",
		"00002_create_follows.sql",
		"00003_create_refresh_tokens.sql",
		"00004_create_posts.sql",
		"00005_create_contact_messages.sql",
	}, names)
}

func TestMigrations_HaveUpAndDown(t *testing.T) {
	entries, err := fs.ReadDir(Migrations, ".")
	require.NoError(t, err)

	for _, e := range entries {
		b, err := fs.ReadFile(Migrations, e.Name())
		require.NoError(t, err)
		body := string(b)
		assert.True(t, strings.Contains(body, "-- +goose Up"), e.Name())
		assert.True(t, strings.Contains(body, "-- +goose Down"), e.Name())
	}
}

func TestFollowsSchema_EnforcesInvariants(t *testing.T) {
	b, err := fs.ReadFile(Migrations, "00002_create_follows.sql")
	require.NoError(t, err)
	body := string(b)

	assert.Contains(t, body, "PRIMARY KEY (follower_id, following_id)")
	assert.Contains(t, body, "CHECK (follower_id <> following_id)")
	assert.Contains(t, body, "ON DELETE CASCADE")
}
