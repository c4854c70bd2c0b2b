package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/nordbooks/tenauth/internal/auth/service"
	"github.com/nordbooks/tenauth/internal/auth/store"
	"github.com/nordbooks/tenauth/internal/auth/tenant"
	"github.com/nordbooks/tenauth/pkg/httpx"
	"github.com/nordbooks/tenauth/pkg/jwtx"
	"github.com/nordbooks/tenauth/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	signer       *jwtx.SessionSigner
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store     store.Store
	directory tenant.Directory

	Authenticator *service.Authenticator
	Registration  *service.RegistrationService
}

func NewRouter(
	signer *jwtx.SessionSigner,
	buildVersion string,
	st store.Store,
	dir tenant.Directory,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		signer:       signer,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		directory:    dir,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerSession()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	loginHandler := &LoginHandler{
		Authenticator: r.Authenticator,
		Signer:        r.signer,
	}

	// POST /login - strict rate limit per IP+username (authentication attempts)
	r.Mux.Handle("POST /v1/login",
		httpx.Chain(loginHandler,
			httpx.RateLimitByIPAndJSONField(httpx.StrictLimit, "username"),
		),
	)

	// POST /register - strict rate limit (public signup endpoint)
	registerHandler := &RegisterHandler{Registration: r.Registration}
	r.Mux.Handle("POST /v1/register",
		httpx.Chain(registerHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerSession() {
	h := &SessionHandler{Authenticator: r.Authenticator}

	// GET /session - requires a valid session token, lenient limit
	r.Mux.Handle("GET /v1/session",
		httpx.Chain(http.HandlerFunc(h.HandleGet),
			httpx.AuthnMiddleware(r.signer),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)

	// POST /logout - requires a valid session token
	r.Mux.Handle("POST /v1/logout",
		httpx.Chain(http.HandlerFunc(h.HandleLogout),
			httpx.AuthnMiddleware(r.signer),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.directory),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
