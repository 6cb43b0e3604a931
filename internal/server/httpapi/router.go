package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/portfolio/internal/logging"
	"github.com/dmitrijs2005/portfolio/internal/server/models"
	"github.com/dmitrijs2005/portfolio/internal/server/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// APIPrefix is where the versioned API is mounted.
const APIPrefix = "/api/v1"

type followList func(ctx context.Context, userID string, page models.Page) (*services.PageResult[*models.PublicUser], error)

type handlers struct {
	users    UserService
	follows  FollowService
	posts    PostService
	contacts ContactService
	avatars  AvatarService
	db       Pinger
	logger   logging.Logger

	environment string
	version     string
	started     time.Time
}

func (h *handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	writeError(w, r, h.logger, err)
}

// route is one endpoint of the API together with its pipeline.
type route struct {
	method  string
	pattern string
	steps   []Step
	handler http.HandlerFunc
}

func (h *handlers) routes(d Deps) []route {
	var (
		authn    = Authenticate(d.Tokens, d.Users)
		optional = OptionalAuthenticate(d.Tokens, d.Users)
		admin    = Authorize(models.RoleAdmin)
		id       = ValidID("id")
		owner    = RequireOwnerOrAdmin(PathParam("id"))
	)
	steps := func(s ...Step) []Step { return s }

	rs := []route{
		{http.MethodPost, "/users/register", nil, h.register},
		{http.MethodPost, "/users/login", nil, h.login},
		{http.MethodPost, "/users/refresh", nil, h.refresh},
		{http.MethodPost, "/users/logout", steps(authn), h.logout},

		{http.MethodGet, "/users/profile", steps(authn), h.getProfile},
		{http.MethodPut, "/users/profile", steps(authn), h.updateProfile},
		{http.MethodPut, "/users/password", steps(authn), h.changePassword},
		{http.MethodDelete, "/users/deactivate", steps(authn), h.deactivate},

		{http.MethodGet, "/users/search", steps(optional), h.searchUsers},
		{http.MethodGet, "/users", steps(authn, admin), h.listUsers},
		{http.MethodGet, "/users/stats/overview", steps(authn, admin), h.stats},

		{http.MethodGet, "/users/{id}", steps(optional, id), h.getUser},
		{http.MethodPut, "/users/{id}", steps(authn, id, owner), h.updateUserByID},
		{http.MethodDelete, "/users/{id}", steps(authn, admin, id), h.deleteUser},
		{http.MethodPut, "/users/{id}/reactivate", steps(authn, admin, id), h.reactivate},
		{http.MethodPut, "/users/{id}/role", steps(authn, admin, id), h.changeRole},

		{http.MethodGet, "/users/{id}/followers", steps(optional, id), h.followers},
		{http.MethodGet, "/users/{id}/following", steps(optional, id), h.following},
		{http.MethodPost, "/users/{id}/follow", steps(authn, id), h.follow},
		{http.MethodDelete, "/users/{id}/follow", steps(authn, id), h.unfollow},

		{http.MethodGet, "/posts", nil, h.listPosts},
		{http.MethodGet, "/posts/featured", nil, h.featuredPosts},
		{http.MethodGet, "/posts/{slug}", nil, h.getPost},

		{http.MethodPost, "/contact", nil, h.submitContact},
		{http.MethodGet, "/contact", steps(authn, admin), h.listContacts},
	}
	if h.avatars != nil {
		rs = append(rs, route{http.MethodPost, "/users/profile/avatar", steps(authn), h.uploadAvatar})
	}
	return rs
}

// NewRouter assembles the HTTP API. It fails when a route's pipeline is
// misordered, e.g. an authorization step without authentication in front.
func NewRouter(d Deps) (http.Handler, error) {
	if d.Logger == nil {
		d.Logger = logging.Nop{}
	}
	logger := d.Logger.With("module", "http")

	h := &handlers{
		users:       d.Users,
		follows:     d.Follows,
		posts:       d.Posts,
		contacts:    d.Contacts,
		avatars:     d.Avatars,
		db:          d.DB,
		logger:      logger,
		environment: d.Environment,
		version:     d.Version,
		started:     time.Now(),
	}

	return h.mount(d, h.routes(d))
}

func (h *handlers) mount(d Deps, routes []route) (http.Handler, error) {
	for _, rt := range routes {
		if err := ValidatePipeline(rt.steps...); err != nil {
			return nil, fmt.Errorf("route %s %s: %w", rt.method, rt.pattern, err)
		}
	}

	origins := d.CORSAllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(h.logger))
	r.Use(recoverer(h.logger))
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware)
	}
	if d.RequestTimeout > 0 {
		r.Use(middleware.Timeout(d.RequestTimeout))
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		// credentials are sent in the Authorization header, never in cookies
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.NotFound(h.notFound)
	r.MethodNotAllowed(h.notFound)

	r.Get("/", h.root)
	r.Get("/health", h.health)
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}

	r.Route(APIPrefix, func(api chi.Router) {
		api.Get("/", h.apiInfo)
		for _, rt := range routes {
			api.Method(rt.method, rt.pattern, Pipeline(rt.steps...)(rt.handler))
		}
	})

	return r, nil
}

func (h *handlers) notFound(w http.ResponseWriter, r *http.Request) {
	writeFailure(w, http.StatusNotFound, fmt.Sprintf("Route %s not found", r.URL.Path), nil)
}

func (h *handlers) root(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, http.StatusOK, "API Server is running", map[string]any{
		"message":     "Portfolio API Server",
		"version":     h.version,
		"environment": h.environment,
		"endpoints": map[string]string{
			"health": "/health",
			"users":  APIPrefix + "/users",
			"posts":  APIPrefix + "/posts",
		},
	})
}

func (h *handlers) apiInfo(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, http.StatusOK, "API information", map[string]any{
		"message":     "Portfolio API v1",
		"version":     h.version,
		"environment": h.environment,
		"endpoints": map[string]string{
			"users":   APIPrefix + "/users",
			"posts":   APIPrefix + "/posts",
			"contact": APIPrefix + "/contact",
			"health":  "/health",
		},
	})
}

// health reports the process as up; the database state is part of the payload.
func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	database := "healthy"
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.PingContext(ctx); err != nil {
			h.logger.Warn(r.Context(), "database ping failed", "error", err)
			database = "unhealthy"
		}
	}
	writeSuccess(w, http.StatusOK, "Health check passed", map[string]any{
		"status":   "healthy",
		"database": database,
		"uptime":   time.Since(h.started).Seconds(),
	})
}
