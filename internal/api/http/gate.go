package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sneakdex/sneakdex-api/internal/api/identity"
	"github.com/sneakdex/sneakdex-api/internal/api/metrics"
	"github.com/sneakdex/sneakdex-api/internal/api/ratelimit"
	"github.com/sneakdex/sneakdex-api/internal/api/service"
	"github.com/sneakdex/sneakdex-api/pkg/apisdk"
	"github.com/sneakdex/sneakdex-api/pkg/httpx"
	"github.com/sneakdex/sneakdex-api/pkg/slogx"
)

// APIKeyHeader carries the plaintext API key on data-plane requests.
const APIKeyHeader = "x-api-key"

// Gate is the per-request decision pipeline in front of the data API.
// Per request it extracts and verifies the API key, resolves the caller's
// tier ceiling, and evaluates the sliding-window quota. Every dependency is
// injected; there is no process-wide limiter.
type Gate struct {
	Keys          *service.KeyService
	Subscriptions *service.SubscriptionService
	Identity      identity.Resolver
	Limiter       *ratelimit.Limiter
	Metrics       *metrics.Metrics
}

type gateContextKey struct{}

// RequestQuota is the gate's verdict attached to allowed requests.
type RequestQuota struct {
	KeyID     string // empty for anonymous requests
	Tier      string
	Limit     int
	Remaining int
}

// QuotaFromContext returns the quota attached by the gate, if any.
func QuotaFromContext(ctx context.Context) (RequestQuota, bool) {
	q, ok := ctx.Value(gateContextKey{}).(RequestQuota)
	return q, ok
}

// Middleware wraps a data-plane handler with the gate pipeline. Terminal
// outcomes only: invalid key is a 401, exhausted quota a 429; everything
// else proceeds with quota headers attached.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		log := slogx.FromContext(ctx)

		// 1. Extract the key; absent means anonymous traffic, which is
		// still admitted at the default tier keyed by client IP.
		keyID := ""
		if candidate := r.Header.Get(APIKeyHeader); candidate != "" {
			verdict, err := g.Keys.Verify(ctx, candidate)
			if err != nil {
				log.Error("key verification failed", "error", err)
				httpx.WriteJSON(w, http.StatusInternalServerError, apisdk.ErrorResponse{
					Error: "server_error",
				})
				return
			}
			// 2. An invalid key is terminal before any quota accounting.
			if !verdict.Valid {
				g.Metrics.GateDecision("unauthorized", "")
				httpx.WriteJSON(w, http.StatusUnauthorized, apisdk.ErrorResponse{
					Error: string(verdict.Reason),
				})
				return
			}
			keyID = verdict.KeyID
		}

		// 3. Resolve the caller identity and derive the rate-limit key.
		// Verified keys count per key id; anonymous traffic per IP.
		ident := ""
		if g.Identity != nil {
			ident = g.Identity.Resolve(r)
		}
		rlKey := ratelimit.KeyFor(keyID, httpx.IPKeyExtractor(r))

		// 4. Identity to ceiling. Resolution never blocks traffic; store
		// failures inside degrade to the default tier.
		tier, ceiling := g.Subscriptions.ResolveCeiling(ctx, ident)

		// 5. Count against the window. A counting-backend failure fails
		// open rather than turning the limiter into an outage amplifier.
		res, err := g.Limiter.Check(ctx, rlKey, ceiling)
		if err != nil {
			log.Error("rate limit check failed, allowing request", "error", err, "rate_limit_key", rlKey)
			w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", ceiling))
			w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", ceiling))
			w.Header().Set("X-RateLimit-Tier", tier.String())
			g.Metrics.GateDecision("allowed", tier.String())
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", res.Limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", res.Remaining))
		w.Header().Set("X-RateLimit-Tier", tier.String())

		if !res.Allowed {
			retryAfter := max(int(time.Until(res.ResetAt).Seconds()), 1)
			w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfter))

			g.Metrics.GateDecision("denied", tier.String())
			log.Warn("rate limit exceeded",
				"rate_limit_key", rlKey,
				"tier", tier.String(),
				"limit", res.Limit,
				"retry_after", retryAfter,
			)

			httpx.WriteJSON(w, http.StatusTooManyRequests, apisdk.RateLimitedResponse{
				Error:   "rate_limit_exceeded",
				Message: fmt.Sprintf("Rate limit exceeded for the %s tier. Retry in %ds.", tier, retryAfter),
				Tier:    tier.String(),
				Limit:   res.Limit,
			})
			return
		}

		// 6. Allowed: attach the verdict for downstream handlers.
		g.Metrics.GateDecision("allowed", tier.String())
		quota := RequestQuota{
			KeyID:     keyID,
			Tier:      tier.String(),
			Limit:     res.Limit,
			Remaining: res.Remaining,
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, gateContextKey{}, quota)))
	})
}
