package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	nethttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sneakdex/sneakdex-api/internal/api/identity"
	"github.com/sneakdex/sneakdex-api/internal/api/ratelimit"
	"github.com/sneakdex/sneakdex-api/internal/api/service"
	"github.com/sneakdex/sneakdex-api/internal/api/store/drivers/sqlite"
	"github.com/sneakdex/sneakdex-api/pkg/apisdk"
)

type testEnv struct {
	router       *Router
	keys         *service.KeyService
	subscription *service.SubscriptionService
}

func newTestEnv(t *testing.T, resolver identity.Resolver) testEnv {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	keySvc := &service.KeyService{Store: st}
	subSvc := &service.SubscriptionService{
		Store:    st,
		Payments: service.NullProcessor{},
	}
	limiter := ratelimit.New(ratelimit.NewMemoryCounter(10 * time.Second))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	router := NewRouter("test", st, logger)
	router.KeyService = keySvc
	router.SubscriptionService = subSvc
	router.Identity = resolver
	router.Gate = &Gate{
		Keys:          keySvc,
		Subscriptions: subSvc,
		Identity:      resolver,
		Limiter:       limiter,
	}
	router.ApplyRoutes()

	return testEnv{router: router, keys: keySvc, subscription: subSvc}
}

func (env testEnv) ping(apiKey string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(nethttp.MethodGet, "/v1/catalog/ping", nil)
	if apiKey != "" {
		req.Header.Set(APIKeyHeader, apiKey)
	}
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

func TestGateAnonymousRequestAllowed(t *testing.T) {
	env := newTestEnv(t, identity.Anonymous)

	rec := env.ping("")
	require.Equal(t, nethttp.StatusOK, rec.Code)
	require.Equal(t, "100", rec.Header().Get("X-RateLimit-Limit"))
	require.Equal(t, "99", rec.Header().Get("X-RateLimit-Remaining"))
	require.Equal(t, "bronze", rec.Header().Get("X-RateLimit-Tier"))

	var body apisdk.PingResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "pong", body.Message)
}

func TestGateRejectsInvalidKeys(t *testing.T) {
	ctx := t.Context()
	env := newTestEnv(t, identity.Anonymous)

	t.Run("unknown key", func(t *testing.T) {
		rec := env.ping("sk_live_never-issued")
		require.Equal(t, nethttp.StatusUnauthorized, rec.Code)

		var body apisdk.ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Equal(t, "not_found", body.Error)
	})

	t.Run("revoked key short-circuits before quota", func(t *testing.T) {
		issued, err := env.keys.Issue(ctx, testMetadata())
		require.NoError(t, err)

		_, err = env.keys.Revoke(ctx, issued.ID)
		require.NoError(t, err)

		rec := env.ping(issued.Key)
		require.Equal(t, nethttp.StatusUnauthorized, rec.Code)
		require.Empty(t, rec.Header().Get("X-RateLimit-Limit"))

		var body apisdk.ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Equal(t, "revoked", body.Error)
	})
}

func TestGateDeniesAfterCeiling(t *testing.T) {
	env := newTestEnv(t, identity.Anonymous)

	for i := range 100 {
		rec := env.ping("")
		require.Equal(t, nethttp.StatusOK, rec.Code, "request %d should pass", i+1)
	}

	rec := env.ping("")
	require.Equal(t, nethttp.StatusTooManyRequests, rec.Code)
	require.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	retryAfter := rec.Header().Get("Retry-After")
	require.NotEmpty(t, retryAfter)
	require.NotEqual(t, "0", retryAfter)

	var body apisdk.RateLimitedResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "rate_limit_exceeded", body.Error)
	require.Equal(t, "bronze", body.Tier)
	require.Equal(t, 100, body.Limit)
}

func TestGateUsesSubscriptionTier(t *testing.T) {
	ctx := t.Context()
	env := newTestEnv(t, identity.Static("user-9"))

	_, _, err := env.subscription.Create(ctx, "user-9", "gold", "monthly", 4999)
	require.NoError(t, err)

	rec := env.ping("")
	require.Equal(t, nethttp.StatusOK, rec.Code)
	require.Equal(t, "5000", rec.Header().Get("X-RateLimit-Limit"))
	require.Equal(t, "gold", rec.Header().Get("X-RateLimit-Tier"))
}

type failingCounter struct{}

func (failingCounter) Incr(context.Context, string, int, time.Time) (bool, int, time.Time, error) {
	return false, 0, time.Time{}, errors.New("counter backend unreachable")
}

func (failingCounter) Window() time.Duration { return 10 * time.Second }

func TestGateFailsOpenOnCounterError(t *testing.T) {
	env := newTestEnv(t, identity.Anonymous)
	env.router.Gate.Limiter = ratelimit.New(failingCounter{})

	rec := env.ping("")
	require.Equal(t, nethttp.StatusOK, rec.Code)

	// Fail-open responses still carry the full quota header triple; the
	// ceiling stands in for the unknowable remaining count.
	require.Equal(t, "100", rec.Header().Get("X-RateLimit-Limit"))
	require.Equal(t, "100", rec.Header().Get("X-RateLimit-Remaining"))
	require.Equal(t, "bronze", rec.Header().Get("X-RateLimit-Tier"))

	var body apisdk.PingResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "pong", body.Message)
}

func TestGateCountsVerifiedKeysSeparately(t *testing.T) {
	ctx := t.Context()
	env := newTestEnv(t, identity.Anonymous)

	issued, err := env.keys.Issue(ctx, testMetadata())
	require.NoError(t, err)

	// Anonymous and keyed traffic from the same address burn separate
	// windows: one is keyed by IP, the other by API key id.
	rec := env.ping("")
	require.Equal(t, "99", rec.Header().Get("X-RateLimit-Remaining"))

	rec = env.ping(issued.Key)
	require.Equal(t, nethttp.StatusOK, rec.Code)
	require.Equal(t, "99", rec.Header().Get("X-RateLimit-Remaining"))
}
