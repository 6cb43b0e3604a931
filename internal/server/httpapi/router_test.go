package httpapi

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/portfolio/internal/logging"
	"github.com/dmitrijs2005/portfolio/internal/server/auth"
	"github.com/dmitrijs2005/portfolio/internal/server/models"
	"github.com/dmitrijs2005/portfolio/internal/server/repositories/repotest"
	"github.com/dmitrijs2005/portfolio/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"
)

type api struct {
	t       *testing.T
	handler http.Handler
	store   *repotest.Store
	seeder  *services.Seeder
}

// response is an Envelope with the payload left undecoded.
type response struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  []string        `json:"errors"`
	Meta    *Meta           `json:"meta"`
}

func newAPI(t *testing.T) *api {
	t.Helper()

	// transactions need a real handle; the in-memory store ignores it
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	issuer, err := auth.NewTokenIssuer([]byte("test-secret"), time.Hour)
	require.NoError(t, err)
	hasher := auth.NewPasswordHasher(bcrypt.MinCost)
	store := repotest.New()

	users := services.NewUserService(db, store, hasher, issuer, 24*time.Hour, logging.Nop{})
	h, err := NewRouter(Deps{
		Users:    users,
		Follows:  services.NewFollowService(db, store, logging.Nop{}),
		Posts:    services.NewPostService(db, store),
		Contacts: services.NewContactService(db, store, logging.Nop{}),
		Tokens:   issuer,
		DB:       db,
		Metrics:  NewMetrics(),
		Version:  "test",
	})
	require.NoError(t, err)

	return &api{t: t, handler: h, store: store, seeder: services.NewSeeder(db, store, hasher, logging.Nop{})}
}

func (a *api) do(method, path, token string, body any) (int, response) {
	a.t.Helper()
	var rd *bytes.Reader
	switch b := body.(type) {
	case nil:
		rd = bytes.NewReader(nil)
	case string:
		rd = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(a.t, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)

	var res response
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), &res), rec.Body.String())
	}
	return rec.Code, res
}

type session struct {
	User         models.PublicUser `json:"user"`
	AccessToken  string            `json:"accessToken"`
	RefreshToken string            `json:"refreshToken"`
}

func (a *api) register(username string) session {
	a.t.Helper()
	code, res := a.do(http.MethodPost, "/api/v1/users/register", "", map[string]string{
		"email":    username + "@example.com",
		"username": username,
		"password": "password123",
	})
	require.Equal(a.t, http.StatusCreated, code, res.Message)
	assert.Equal(a.t, "User registered successfully", res.Message)
	var s session
	require.NoError(a.t, json.Unmarshal(res.Data, &s))
	return s
}

func decodeData[T any](t *testing.T, res response) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(res.Data, &v))
	return v
}

func TestRouter_FollowScenario(t *testing.T) {
	a := newAPI(t)
	alice := a.register("alice")
	bob := a.register("bob")

	code, res := a.do(http.MethodPost, "/api/v1/users/login", "", map[string]string{"email": "ALICE@example.com", "password": "password123"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Login successful", res.Message)
	login := decodeData[session](t, res)
	assert.Equal(t, alice.User.ID, login.User.ID)
	assert.NotContains(t, string(res.Data), "password")

	code, res = a.do(http.MethodPost, "/api/v1/users/"+bob.User.ID+"/follow", login.AccessToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "User followed successfully", res.Message)

	code, res = a.do(http.MethodGet, "/api/v1/users/"+bob.User.ID+"/followers", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Followers retrieved successfully", res.Message)
	followers := decodeData[[]models.PublicUser](t, res)
	require.Len(t, followers, 1)
	assert.Equal(t, "alice", followers[0].Username)
	assert.Equal(t, &Meta{Page: 1, Limit: 10, Total: 1, TotalPages: 1}, res.Meta)

	code, res = a.do(http.MethodGet, "/api/v1/users/"+bob.User.ID, login.AccessToken, nil)
	require.Equal(t, http.StatusOK, code)
	profile := decodeData[struct {
		User models.UserProfile `json:"user"`
	}](t, res)
	assert.Equal(t, int64(1), profile.User.FollowersCount)
	require.NotNil(t, profile.User.IsFollowing)
	assert.True(t, *profile.User.IsFollowing)

	code, res = a.do(http.MethodDelete, "/api/v1/users/"+bob.User.ID+"/follow", login.AccessToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "User unfollowed successfully", res.Message)
	code, _ = a.do(http.MethodDelete, "/api/v1/users/"+bob.User.ID+"/follow", login.AccessToken, nil)
	assert.Equal(t, http.StatusOK, code)

	_, res = a.do(http.MethodGet, "/api/v1/users/"+bob.User.ID+"/followers", "", nil)
	assert.JSONEq(t, `[]`, string(res.Data))
	assert.Zero(t, res.Meta.Total)
}

func TestRouter_FollowErrors(t *testing.T) {
	a := newAPI(t)
	alice := a.register("alice")

	code, res := a.do(http.MethodPost, "/api/v1/users/"+alice.User.ID+"/follow", alice.AccessToken, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, []string{"Cannot follow yourself"}, res.Errors)

	code, res = a.do(http.MethodPost, "/api/v1/users/"+aliceID+"/follow", alice.AccessToken, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "User not found", res.Message)

	code, res = a.do(http.MethodPost, "/api/v1/users/abc/follow", alice.AccessToken, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, []string{"Invalid user ID"}, res.Errors)

	code, res = a.do(http.MethodPost, "/api/v1/users/"+aliceID+"/follow", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Access token required", res.Message)
}

func TestRouter_Registration(t *testing.T) {
	a := newAPI(t)
	a.register("alice")

	code, res := a.do(http.MethodPost, "/api/v1/users/register", "", map[string]string{
		"email": "other@example.com", "username": "alice", "password": "password123",
	})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "User already exists", res.Message)

	code, res = a.do(http.MethodPost, "/api/v1/users/register", "", `{"email":`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, []string{"Invalid JSON format"}, res.Errors)

	code, res = a.do(http.MethodPost, "/api/v1/users/register", "", map[string]string{"email": "x@example.com", "username": "xy", "password": "password123"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Validation failed", res.Message)
	assert.Equal(t, []string{"username must be at least 3 characters"}, res.Errors)

	code, res = a.do(http.MethodPost, "/api/v1/users/login", "", map[string]string{"email": "alice@example.com", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Invalid credentials", res.Message)
}

func TestRouter_ProfileAndPassword(t *testing.T) {
	a := newAPI(t)
	alice := a.register("alice")
	bob := a.register("bob")

	code, res := a.do(http.MethodGet, "/api/v1/users/profile", alice.AccessToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Profile retrieved successfully", res.Message)

	code, res = a.do(http.MethodPut, "/api/v1/users/profile", alice.AccessToken, map[string]string{"bio": "hello"})
	require.Equal(t, http.StatusOK, code)
	u := decodeData[struct {
		User models.PublicUser `json:"user"`
	}](t, res)
	require.NotNil(t, u.User.Bio)
	assert.Equal(t, "hello", *u.User.Bio)

	code, res = a.do(http.MethodPut, "/api/v1/users/profile", alice.AccessToken, map[string]string{"username": "bob"})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "username already exists", res.Message)

	code, res = a.do(http.MethodPut, "/api/v1/users/"+bob.User.ID, alice.AccessToken, map[string]string{"bio": "hijack"})
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "Access denied", res.Message)

	code, res = a.do(http.MethodPut, "/api/v1/users/password", alice.AccessToken, map[string]string{"currentPassword": "nope", "newPassword": "newpassword1"})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Current password is incorrect", res.Message)

	code, res = a.do(http.MethodPut, "/api/v1/users/password", alice.AccessToken, map[string]string{"currentPassword": "password123", "newPassword": "newpassword1"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Password changed successfully", res.Message)

	code, _ = a.do(http.MethodPost, "/api/v1/users/login", "", map[string]string{"email": "alice@example.com", "password": "newpassword1"})
	assert.Equal(t, http.StatusOK, code)
}

func TestRouter_RefreshAndLogout(t *testing.T) {
	a := newAPI(t)
	alice := a.register("alice")

	code, res := a.do(http.MethodPost, "/api/v1/users/refresh", "", map[string]string{"refreshToken": alice.RefreshToken})
	require.Equal(t, http.StatusOK, code)
	pair := decodeData[services.TokenPair](t, res)
	assert.NotEqual(t, alice.RefreshToken, pair.RefreshToken)

	code, res = a.do(http.MethodPost, "/api/v1/users/refresh", "", map[string]string{"refreshToken": alice.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Invalid or expired token", res.Message)

	code, _ = a.do(http.MethodPost, "/api/v1/users/logout", pair.AccessToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Zero(t, a.store.TokenCount())
}

func TestRouter_DeactivatedAccountIsLockedOut(t *testing.T) {
	a := newAPI(t)
	alice := a.register("alice")

	code, res := a.do(http.MethodDelete, "/api/v1/users/deactivate", alice.AccessToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Account deactivated successfully", res.Message)

	// the access token is still well formed but the account is not
	code, res = a.do(http.MethodGet, "/api/v1/users/profile", alice.AccessToken, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Account is disabled", res.Message)

	code, res = a.do(http.MethodPost, "/api/v1/users/login", "", map[string]string{"email": "alice@example.com", "password": "password123"})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Account is disabled", res.Message)
}

func (a *api) adminSession() session {
	a.t.Helper()
	_, err := a.seeder.Seed(context.Background(), "admin-password")
	require.NoError(a.t, err)
	code, res := a.do(http.MethodPost, "/api/v1/users/login", "", map[string]string{"email": services.DefaultAdmin.Email, "password": "admin-password"})
	require.Equal(a.t, http.StatusOK, code)
	return decodeData[session](a.t, res)
}

func TestRouter_AdminSurface(t *testing.T) {
	a := newAPI(t)
	alice := a.register("alice")
	admin := a.adminSession()

	code, res := a.do(http.MethodGet, "/api/v1/users", alice.AccessToken, nil)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "Insufficient permissions", res.Message)

	code, res = a.do(http.MethodGet, "/api/v1/users?limit=1&role=USER", admin.AccessToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Users retrieved successfully", res.Message)
	assert.Equal(t, int64(1), res.Meta.Total)

	code, res = a.do(http.MethodGet, "/api/v1/users/stats/overview", admin.AccessToken, nil)
	require.Equal(t, http.StatusOK, code)
	stats := decodeData[models.UserStats](t, res)
	assert.Equal(t, models.UserStats{Total: 2, Active: 2, Admins: 1, Users: 1}, stats)

	code, res = a.do(http.MethodPut, "/api/v1/users/"+alice.User.ID+"/role", admin.AccessToken, map[string]string{"role": "MODERATOR"})
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(res.Data), `"role":"MODERATOR"`)

	code, _ = a.do(http.MethodPut, "/api/v1/users/"+alice.User.ID, admin.AccessToken, map[string]string{"firstName": "Alice"})
	assert.Equal(t, http.StatusOK, code)

	code, _ = a.do(http.MethodDelete, "/api/v1/users/deactivate", alice.AccessToken, nil)
	require.Equal(t, http.StatusOK, code)
	code, res = a.do(http.MethodPut, "/api/v1/users/"+alice.User.ID+"/reactivate", admin.AccessToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Account reactivated successfully", res.Message)

	code, res = a.do(http.MethodDelete, "/api/v1/users/"+alice.User.ID, admin.AccessToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "User deleted successfully", res.Message)
	code, res = a.do(http.MethodDelete, "/api/v1/users/"+alice.User.ID, admin.AccessToken, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "User not found", res.Message)
}

func TestRouter_Search(t *testing.T) {
	a := newAPI(t)
	a.register("alice")
	a.register("alfred")
	a.register("bob")

	code, res := a.do(http.MethodGet, "/api/v1/users/search", "", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, []string{"Search query is required"}, res.Errors)

	code, res = a.do(http.MethodGet, "/api/v1/users/search?q=AL&limit=1", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, &Meta{Page: 1, Limit: 1, Total: 2, TotalPages: 2}, res.Meta)
}

func TestRouter_PostsAndContact(t *testing.T) {
	a := newAPI(t)
	a.adminSession()

	code, res := a.do(http.MethodGet, "/api/v1/posts", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Posts fetched successfully", res.Message)
	assert.Equal(t, int64(3), res.Meta.Total)

	code, res = a.do(http.MethodGet, "/api/v1/posts/featured", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decodeData[[]models.Post](t, res), 1)

	code, res = a.do(http.MethodGet, "/api/v1/posts/welcome-to-my-portfolio", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Post fetched successfully", res.Message)

	code, res = a.do(http.MethodGet, "/api/v1/posts/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Post not found", res.Message)

	code, res = a.do(http.MethodPost, "/api/v1/contact", "", map[string]string{"name": "A", "email": "a@example.com", "subject": "Hi", "message": "short"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Invalid form data", res.Message)
	assert.Len(t, res.Errors, 3)

	code, res = a.do(http.MethodPost, "/api/v1/contact", "", map[string]string{
		"name": "Ann", "email": "ann@example.com", "subject": "Project", "message": "I would like to discuss a project with you.",
	})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Contact form submitted successfully", res.Message)
}

func TestRouter_InfoHealthMetricsAndUnknown(t *testing.T) {
	a := newAPI(t)

	code, res := a.do(http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "API Server is running", res.Message)

	code, res = a.do(http.MethodGet, "/api/v1", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "API information", res.Message)

	code, res = a.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(res.Data), `"database":"healthy"`)

	code, res = a.do(http.MethodGet, "/api/v1/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Route /api/v1/nope not found", res.Message)
	assert.False(t, res.Success)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `portfolio_http_requests_total{method="GET",route="/health",status="200"} 1`)
}

func TestRouter_RejectsMisorderedPipeline(t *testing.T) {
	h := &handlers{logger: logging.Nop{}}
	_, err := h.mount(Deps{}, []route{
		{http.MethodGet, "/admin", []Step{Authorize(models.RoleAdmin)}, func(http.ResponseWriter, *http.Request) {}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GET /admin")
}

func TestRouter_RecoversPanics(t *testing.T) {
	h := &handlers{logger: logging.Nop{}}
	r, err := h.mount(Deps{}, []route{
		{http.MethodGet, "/boom", nil, func(http.ResponseWriter, *http.Request) { panic("boom") }},
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Internal server error")
}
