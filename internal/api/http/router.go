package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sneakdex/sneakdex-api/internal/api/identity"
	"github.com/sneakdex/sneakdex-api/internal/api/service"
	"github.com/sneakdex/sneakdex-api/internal/api/store"
	"github.com/sneakdex/sneakdex-api/pkg/httpx"
	"github.com/sneakdex/sneakdex-api/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store               store.Store
	KeyService          *service.KeyService
	SubscriptionService *service.SubscriptionService
	Identity            identity.Resolver
	Gate                *Gate
	Registry            *prometheus.Registry // Optional: /metrics is omitted when nil
}

func NewRouter(buildVersion string, st store.Store, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerKeys()
	r.registerSubscriptions()
	r.registerCatalog()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerKeys() {
	h := &KeysHandler{KeyService: r.KeyService}

	// POST /v1/keys - strict rate limit by IP (issuance mints credentials)
	r.Mux.Handle("POST /v1/keys",
		httpx.Chain(http.HandlerFunc(h.HandleIssue),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// GET /v1/keys - lenient rate limit (dashboard listing)
	r.Mux.Handle("GET /v1/keys",
		httpx.Chain(http.HandlerFunc(h.HandleList),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)

	r.Mux.Handle("GET /v1/keys/{id}",
		httpx.Chain(http.HandlerFunc(h.HandleGet),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)

	// DELETE /v1/keys/{id} - moderate rate limit by IP
	r.Mux.Handle("DELETE /v1/keys/{id}",
		httpx.Chain(http.HandlerFunc(h.HandleRevoke),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerSubscriptions() {
	h := &SubscriptionHandler{
		SubscriptionService: r.SubscriptionService,
		Identity:            r.Identity,
	}

	r.Mux.Handle("GET /v1/subscription",
		httpx.Chain(http.HandlerFunc(h.HandleCurrent),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)

	// POST /v1/subscription - strict rate limit by IP (triggers a charge)
	r.Mux.Handle("POST /v1/subscription",
		httpx.Chain(http.HandlerFunc(h.HandleCreate),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	r.Mux.Handle("DELETE /v1/subscription/{id}",
		httpx.Chain(http.HandlerFunc(h.HandleCancel),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	r.Mux.Handle("GET /v1/subscription/{id}/payments",
		httpx.Chain(http.HandlerFunc(h.HandlePayments),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerCatalog() {
	h := &CatalogHandler{KeyService: r.KeyService}

	// The data API sits behind the gate; quota enforcement there replaces
	// the per-IP management limits used on the routes above.
	r.Mux.Handle("GET /v1/catalog/ping",
		httpx.Chain(http.HandlerFunc(h.HandlePing),
			r.Gate.Middleware,
		),
	)

	r.Mux.Handle("POST /v1/catalog/search",
		httpx.Chain(http.HandlerFunc(h.HandleSearch),
			r.Gate.Middleware,
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
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)

	if r.Registry != nil {
		r.Mux.Handle("GET /metrics", promhttp.HandlerFor(r.Registry, promhttp.HandlerOpts{}))
	}
}
