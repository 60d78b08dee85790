package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/egx/identity/internal/identity/domain"
	"github.com/egx/identity/internal/identity/service"
	"github.com/egx/identity/internal/identity/store"
	"github.com/egx/identity/pkg/httpx"
	"github.com/egx/identity/pkg/jwtx"
	"github.com/egx/identity/pkg/metricsx"
	"github.com/egx/identity/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier     jwtx.TokenVerifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store           store.Store
	IdentityService *service.IdentityService
	UserService     *service.UserService
	RolesService    *service.RolesService
}

func NewRouter(
	verifier jwtx.TokenVerifier,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	// Panic recovery is outermost so every later failure becomes a
	// logged 500 rather than a dropped connection.
	r.middlewares = []httpx.Middleware{
		httpx.Recover(),
		slogx.HTTPMiddleware(r.logger),
		metricsx.Instrument,
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerUsers()
	r.registerRoles()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerUsers() {
	// Credential endpoints take a strict per-IP limit: they are the
	// brute-force surface.
	r.Mux.Handle("POST /v1/users/login",
		httpx.Chain(&LoginHandler{IdentityService: r.IdentityService},
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	r.Mux.Handle("POST /v1/users/refresh",
		httpx.Chain(&RefreshHandler{IdentityService: r.IdentityService},
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	r.Mux.Handle("POST /v1/users/register",
		httpx.Chain(&RegisterHandler{UserService: r.UserService},
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerRoles() {
	h := &RolesHandler{RolesService: r.RolesService}

	secured := func(next http.Handler) http.Handler {
		return httpx.Chain(next,
			httpx.AuthnMiddleware(r.verifier),
			httpx.RequireRole(domain.RoleAdministrator),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		)
	}

	r.Mux.Handle("GET /v1/roles", secured(http.HandlerFunc(h.HandleList)))
	r.Mux.Handle("POST /v1/roles", secured(http.HandlerFunc(h.HandleCreate)))
	r.Mux.Handle("GET /v1/roles/{id}", secured(http.HandlerFunc(h.HandleGet)))
	r.Mux.Handle("PUT /v1/roles/{id}", secured(http.HandlerFunc(h.HandleRename)))
	r.Mux.Handle("DELETE /v1/roles/{id}", secured(http.HandlerFunc(h.HandleDelete)))
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /metrics", metricsx.Handler())
}
