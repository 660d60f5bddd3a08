package http

import (
	"bytes"
	"encoding/json"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sneakdex/sneakdex-api/internal/api/domain"
	"github.com/sneakdex/sneakdex-api/internal/api/identity"
	"github.com/sneakdex/sneakdex-api/internal/api/service"
	"github.com/sneakdex/sneakdex-api/pkg/apisdk"
)

func testMetadata() domain.KeyMetadata {
	return domain.KeyMetadata{
		Category: "Sneakers",
		Brand:    "Nike",
		Model:    "Air Max",
		Size:     "10",
		Price:    150,
	}
}

func (env testEnv) do(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			panic(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

func TestKeyLifecycleOverHTTP(t *testing.T) {
	env := newTestEnv(t, identity.Anonymous)

	// Issue: the plaintext is returned exactly once, carrying the fixed
	// prefix and a matching last4.
	rec := env.do(nethttp.MethodPost, "/v1/keys", apisdk.IssueKeyRequest{
		KeyMetadata: apisdk.KeyMetadata{
			Category: "Sneakers",
			Brand:    "Nike",
			Model:    "Air Max",
			Price:    150,
		},
	})
	require.Equal(t, nethttp.StatusCreated, rec.Code)

	var issued apisdk.IssueKeyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &issued))
	require.True(t, strings.HasPrefix(issued.Key, service.DefaultKeyPrefix))
	require.Equal(t, issued.Key[len(issued.Key)-4:], issued.Last4)
	require.Equal(t, "Nike", issued.Brand)

	// List: masked display only, never the plaintext or the hash.
	rec = env.do(nethttp.MethodGet, "/v1/keys", nil)
	require.Equal(t, nethttp.StatusOK, rec.Code)

	var list apisdk.ListKeysResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Keys, 1)
	require.Equal(t, issued.ID, list.Keys[0].ID)
	require.Equal(t, service.DefaultKeyPrefix+"..."+issued.Last4, list.Keys[0].Masked)
	require.False(t, list.Keys[0].Revoked)
	require.NotContains(t, rec.Body.String(), issued.Key)

	// Revoke reports whether a row changed.
	rec = env.do(nethttp.MethodDelete, "/v1/keys/"+issued.ID, nil)
	require.Equal(t, nethttp.StatusOK, rec.Code)

	var revoked apisdk.RevokeKeyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &revoked))
	require.True(t, revoked.Success)

	rec = env.do(nethttp.MethodDelete, "/v1/keys/"+issued.ID, nil)
	require.Equal(t, nethttp.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &revoked))
	require.False(t, revoked.Success)

	rec = env.do(nethttp.MethodGet, "/v1/keys/"+issued.ID, nil)
	require.Equal(t, nethttp.StatusOK, rec.Code)

	var info apisdk.KeyInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	require.True(t, info.Revoked)
}

func TestIssueKeyRejectsInvalidMetadata(t *testing.T) {
	env := newTestEnv(t, identity.Anonymous)

	rec := env.do(nethttp.MethodPost, "/v1/keys", apisdk.IssueKeyRequest{
		KeyMetadata: apisdk.KeyMetadata{Category: "Sneakers", Brand: "N", Model: "Air Max", Price: 150},
	})
	require.Equal(t, nethttp.StatusBadRequest, rec.Code)

	var body apisdk.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "invalid_request", body.Error)
}

func TestRevokeUnknownKeyIs404(t *testing.T) {
	env := newTestEnv(t, identity.Anonymous)

	rec := env.do(nethttp.MethodDelete, "/v1/keys/no-such-id", nil)
	require.Equal(t, nethttp.StatusNotFound, rec.Code)

	var body apisdk.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "key_not_found", body.Error)
}

func TestCatalogSearch(t *testing.T) {
	ctx := t.Context()
	env := newTestEnv(t, identity.Anonymous)

	_, err := env.keys.Issue(ctx, testMetadata())
	require.NoError(t, err)

	rec := env.do(nethttp.MethodPost, "/v1/catalog/search", apisdk.CatalogSearchRequest{Brand: "Nike"})
	require.Equal(t, nethttp.StatusOK, rec.Code)

	var found apisdk.CatalogSearchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &found))
	require.Len(t, found.Results, 1)
	require.Equal(t, "Air Max", found.Results[0].Model)

	rec = env.do(nethttp.MethodPost, "/v1/catalog/search", apisdk.CatalogSearchRequest{Brand: "Puma"})
	require.Equal(t, nethttp.StatusNotFound, rec.Code)

	rec = env.do(nethttp.MethodPost, "/v1/catalog/search", apisdk.CatalogSearchRequest{})
	require.Equal(t, nethttp.StatusBadRequest, rec.Code)
}
