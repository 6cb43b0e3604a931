// Package repotest provides an in-memory repomanager.RepositoryManager for
// tests. It enforces the same uniqueness, foreign key and self-follow rules
// as the PostgreSQL schema. Transactions are not emulated: the DBTX handed to
// the factories is ignored, so a rolled back transaction keeps its writes.
package repotest

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/portfolio/internal/common"
	"github.com/dmitrijs2005/portfolio/internal/dbx"
	"github.com/dmitrijs2005/portfolio/internal/server/models"
	"github.com/dmitrijs2005/portfolio/internal/server/repositories/contacts"
	"github.com/dmitrijs2005/portfolio/internal/server/repositories/follows"
	"github.com/dmitrijs2005/portfolio/internal/server/repositories/posts"
	"github.com/dmitrijs2005/portfolio/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/portfolio/internal/server/repositories/users"
	"github.com/google/uuid"
)

// Store holds every table. The zero value is not usable; call New.
type Store struct {
	mu       sync.Mutex
	base     time.Time
	seq      int
	users    map[string]*models.User
	follows  []models.Follow
	tokens   map[string]models.RefreshToken
	posts    []*models.Post
	contacts []*models.ContactMessage

	// Migrations counts RunMigrations calls.
	Migrations int
}

func New() *Store {
	return &Store{
		base:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		users:  map[string]*models.User{},
		tokens: map[string]models.RefreshToken{},
	}
}

// tick returns a strictly increasing timestamp so ordering by creation time
// is deterministic. Callers hold mu.
func (s *Store) tick() time.Time {
	s.seq++
	return s.base.Add(time.Duration(s.seq) * time.Millisecond)
}

func (s *Store) RunMigrations(context.Context, *sql.DB) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Migrations++
	return nil
}

func (s *Store) Users(dbx.DBTX) users.Repository                 { return userRepo{s} }
func (s *Store) Follows(dbx.DBTX) follows.Repository             { return followRepo{s} }
func (s *Store) Posts(dbx.DBTX) posts.Repository                 { return postRepo{s} }
func (s *Store) RefreshTokens(dbx.DBTX) refreshtokens.Repository { return tokenRepo{s} }
func (s *Store) Contacts(dbx.DBTX) contacts.Repository           { return contactRepo{s} }

// FollowCount returns the number of stored edges.
func (s *Store) FollowCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.follows)
}

// TokenCount returns the number of stored refresh tokens.
func (s *Store) TokenCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tokens)
}

func cloneUser(u *models.User) *models.User {
	c := *u
	return &c
}

func page[T any](items []T, p models.Page) []T {
	out := []T{}
	start := p.Offset()
	if start >= len(items) {
		return out
	}
	end := start + p.Limit
	if end > len(items) {
		end = len(items)
	}
	return append(out, items[start:end]...)
}

// users

type userRepo struct{ s *Store }

func (r userRepo) conflict(u *models.User, skipID string) error {
	for _, o := range r.s.users {
		if o.ID == skipID {
			continue
		}
		if o.Email == u.Email {
			return fmt.Errorf("db error: %w", &common.ConflictError{Field: "email"})
		}
		if o.Username == u.Username {
			return fmt.Errorf("db error: %w", &common.ConflictError{Field: "username"})
		}
	}
	return nil
}

func (r userRepo) Create(_ context.Context, user *models.User) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.conflict(user, ""); err != nil {
		return nil, err
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	now := r.s.tick()
	user.CreatedAt, user.UpdatedAt = now, now
	r.s.users[user.ID] = cloneUser(user)
	return user, nil
}

func (r userRepo) find(match func(*models.User) bool) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if match(u) {
			return cloneUser(u), nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r userRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.ID == id })
}

func (r userRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.Email == email })
}

func (r userRepo) GetByUsername(_ context.Context, username string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.Username == username })
}

func (r userRepo) GetByEmailOrUsername(_ context.Context, email, username string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.Email == email || u.Username == username })
}

func (r userRepo) Update(_ context.Context, id string, upd models.UserUpdate) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cur, ok := r.s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	next := cloneUser(cur)
	if upd.Email != nil {
		next.Email = *upd.Email
	}
	if upd.Username != nil {
		next.Username = *upd.Username
	}
	if upd.PasswordHash != nil {
		next.PasswordHash = *upd.PasswordHash
	}
	if upd.FirstName != nil {
		next.FirstName = upd.FirstName
	}
	if upd.LastName != nil {
		next.LastName = upd.LastName
	}
	if upd.Bio != nil {
		next.Bio = upd.Bio
	}
	if upd.Avatar != nil {
		next.Avatar = upd.Avatar
	}
	if upd.IsActive != nil {
		next.IsActive = *upd.IsActive
	}
	if upd.Role != nil {
		next.Role = *upd.Role
	}
	if err := r.conflict(next, id); err != nil {
		return nil, err
	}
	if !upd.Empty() {
		next.UpdatedAt = r.s.tick()
	}
	r.s.users[id] = next
	return cloneUser(next), nil
}

// Delete cascades to follows, refresh tokens and posts like the schema's
// ON DELETE CASCADE foreign keys.
func (r userRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.s.users, id)

	kept := r.s.follows[:0]
	for _, f := range r.s.follows {
		if f.FollowerID != id && f.FollowingID != id {
			kept = append(kept, f)
		}
	}
	r.s.follows = kept

	for k, t := range r.s.tokens {
		if t.UserID == id {
			delete(r.s.tokens, k)
		}
	}

	keptPosts := r.s.posts[:0]
	for _, p := range r.s.posts {
		if p.AuthorID != id {
			keptPosts = append(keptPosts, p)
		}
	}
	r.s.posts = keptPosts
	return nil
}

func matches(u *models.User, f models.UserFilter) bool {
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		fields := []string{u.Email, u.Username}
		if u.FirstName != nil {
			fields = append(fields, *u.FirstName)
		}
		if u.LastName != nil {
			fields = append(fields, *u.LastName)
		}
		hit := false
		for _, v := range fields {
			if strings.Contains(strings.ToLower(v), q) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	if f.Role != nil && u.Role != *f.Role {
		return false
	}
	if f.IsActive != nil && u.IsActive != *f.IsActive {
		return false
	}
	return true
}

func (r userRepo) filtered(f models.UserFilter) []*models.User {
	var out []*models.User
	for _, u := range r.s.users {
		if matches(u, f) {
			out = append(out, cloneUser(u))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (r userRepo) FindMany(_ context.Context, f models.UserFilter, p models.Page) ([]*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return page(r.filtered(f), p), nil
}

func (r userRepo) Count(_ context.Context, f models.UserFilter) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return int64(len(r.filtered(f))), nil
}

// follows

type followRepo struct{ s *Store }

func (r followRepo) Create(_ context.Context, followerID, followingID string) error {
	if followerID == followingID {
		return common.ErrorSelfFollow
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[followerID]; !ok {
		return fmt.Errorf("db error: %w", common.ErrorNotFound)
	}
	if _, ok := r.s.users[followingID]; !ok {
		return fmt.Errorf("db error: %w", common.ErrorNotFound)
	}
	for _, f := range r.s.follows {
		if f.FollowerID == followerID && f.FollowingID == followingID {
			return nil
		}
	}
	r.s.follows = append(r.s.follows, models.Follow{FollowerID: followerID, FollowingID: followingID, CreatedAt: r.s.tick()})
	return nil
}

func (r followRepo) remove(keep func(models.Follow) bool) {
	kept := r.s.follows[:0]
	for _, f := range r.s.follows {
		if keep(f) {
			kept = append(kept, f)
		}
	}
	r.s.follows = kept
}

func (r followRepo) Delete(_ context.Context, followerID, followingID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.remove(func(f models.Follow) bool {
		return f.FollowerID != followerID || f.FollowingID != followingID
	})
	return nil
}

func (r followRepo) DeleteAllForUser(_ context.Context, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.remove(func(f models.Follow) bool {
		return f.FollowerID != userID && f.FollowingID != userID
	})
	return nil
}

func (r followRepo) Exists(_ context.Context, followerID, followingID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, f := range r.s.follows {
		if f.FollowerID == followerID && f.FollowingID == followingID {
			return true, nil
		}
	}
	return false, nil
}

// edges returns the users on the other side of userID's edges, newest edge
// first and then by descending user id.
func (r followRepo) edges(userID string, followers bool) []*models.User {
	var sel []models.Follow
	for _, f := range r.s.follows {
		if (followers && f.FollowingID == userID) || (!followers && f.FollowerID == userID) {
			sel = append(sel, f)
		}
	}
	other := func(f models.Follow) string {
		if followers {
			return f.FollowerID
		}
		return f.FollowingID
	}
	sort.Slice(sel, func(i, j int) bool {
		if !sel[i].CreatedAt.Equal(sel[j].CreatedAt) {
			return sel[i].CreatedAt.After(sel[j].CreatedAt)
		}
		return other(sel[i]) > other(sel[j])
	})

	out := []*models.User{}
	for _, f := range sel {
		if u, ok := r.s.users[other(f)]; ok {
			out = append(out, cloneUser(u))
		}
	}
	return out
}

func (r followRepo) Followers(_ context.Context, userID string, p models.Page) ([]*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return page(r.edges(userID, true), p), nil
}

func (r followRepo) Following(_ context.Context, userID string, p models.Page) ([]*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return page(r.edges(userID, false), p), nil
}

func (r followRepo) CountFollowers(_ context.Context, userID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return int64(len(r.edges(userID, true))), nil
}

func (r followRepo) CountFollowing(_ context.Context, userID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return int64(len(r.edges(userID, false))), nil
}

// refresh tokens

type tokenRepo struct{ s *Store }

func (r tokenRepo) Create(_ context.Context, userID, token string, validity time.Duration) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[userID]; !ok {
		return fmt.Errorf("db error: %w", common.ErrorNotFound)
	}
	r.s.tokens[token] = models.RefreshToken{UserID: userID, Token: token, Expires: time.Now().Add(validity), CreatedAt: r.s.tick()}
	return nil
}

func (r tokenRepo) Find(_ context.Context, token string) (*models.RefreshToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tokens[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &t, nil
}

func (r tokenRepo) Claim(_ context.Context, token string) (*models.RefreshToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tokens[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	delete(r.s.tokens, token)
	return &t, nil
}

func (r tokenRepo) Delete(_ context.Context, token string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.tokens, token)
	return nil
}

func (r tokenRepo) DeleteAllForUser(_ context.Context, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for k, t := range r.s.tokens {
		if t.UserID == userID {
			delete(r.s.tokens, k)
		}
	}
	return nil
}

func (r tokenRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for k, t := range r.s.tokens {
		if t.Expired(now) {
			delete(r.s.tokens, k)
			n++
		}
	}
	return n, nil
}

// posts

type postRepo struct{ s *Store }

// view copies p and resolves its author. Callers hold mu.
func (r postRepo) view(p *models.Post, withBio bool) *models.Post {
	c := *p
	c.Tags = append([]string{}, p.Tags...)
	if u, ok := r.s.users[p.AuthorID]; ok {
		c.Author = &models.Author{ID: u.ID, Username: u.Username, FirstName: u.FirstName, LastName: u.LastName, Avatar: u.Avatar}
		if withBio {
			c.Author.Bio = u.Bio
		}
	}
	return &c
}

func (r postRepo) published(featuredOnly bool) []*models.Post {
	out := []*models.Post{}
	for i := len(r.s.posts) - 1; i >= 0; i-- {
		p := r.s.posts[i]
		if p.Published && (!featuredOnly || p.Featured) {
			out = append(out, r.view(p, false))
		}
	}
	return out
}

func (r postRepo) ListPublished(_ context.Context, p models.Page) ([]*models.Post, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return page(r.published(false), p), nil
}

func (r postRepo) CountPublished(context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return int64(len(r.published(false))), nil
}

func (r postRepo) ListFeatured(_ context.Context, limit int) ([]*models.Post, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return page(r.published(true), models.Page{Page: 1, Limit: limit}), nil
}

func (r postRepo) GetBySlug(_ context.Context, slug string) (*models.Post, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.posts {
		if p.Slug == slug && p.Published {
			return r.view(p, true), nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r postRepo) CountByAuthor(_ context.Context, authorID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, p := range r.s.posts {
		if p.AuthorID == authorID {
			n++
		}
	}
	return n, nil
}

func (r postRepo) CreateIfAbsent(_ context.Context, post *models.Post) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.posts {
		if p.Slug == post.Slug {
			return false, nil
		}
	}
	if _, ok := r.s.users[post.AuthorID]; !ok {
		return false, fmt.Errorf("db error: %w", common.ErrorNotFound)
	}
	post.ID = uuid.NewString()
	now := r.s.tick()
	post.CreatedAt, post.UpdatedAt = now, now
	c := *post
	r.s.posts = append(r.s.posts, &c)
	return true, nil
}

// contacts

type contactRepo struct{ s *Store }

func (r contactRepo) Create(_ context.Context, msg *models.ContactMessage) (*models.ContactMessage, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	msg.ID = uuid.NewString()
	msg.CreatedAt = r.s.tick()
	c := *msg
	r.s.contacts = append(r.s.contacts, &c)
	return msg, nil
}

func (r contactRepo) List(_ context.Context, p models.Page) ([]*models.ContactMessage, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*models.ContactMessage, 0, len(r.s.contacts))
	for i := len(r.s.contacts) - 1; i >= 0; i-- {
		c := *r.s.contacts[i]
		out = append(out, &c)
	}
	return page(out, p), nil
}

func (r contactRepo) Count(context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return int64(len(r.s.contacts)), nil
}
