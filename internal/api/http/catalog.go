package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/sneakdex/sneakdex-api/internal/api/service"
	"github.com/sneakdex/sneakdex-api/pkg/apisdk"
	"github.com/sneakdex/sneakdex-api/pkg/httpx"
	"github.com/sneakdex/sneakdex-api/pkg/slogx"
)

// CatalogHandler serves the demo data API behind the request gate.
type CatalogHandler struct {
	KeyService *service.KeyService
}

// HandlePing handles GET /v1/catalog/ping. It exists to exercise the gate:
// the interesting part of the response is the quota headers.
func (h *CatalogHandler) HandlePing(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, apisdk.PingResponse{Message: "pong"})
}

// HandleSearch handles POST /v1/catalog/search, looking up catalog entries
// by brand.
func (h *CatalogHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req apisdk.CatalogSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteJSON(w, http.StatusBadRequest, apisdk.ErrorResponse{
			Error:            "invalid_request",
			ErrorDescription: "Invalid JSON in request body",
		})
		return
	}

	brand := strings.TrimSpace(req.Brand)
	if brand == "" {
		httpx.WriteJSON(w, http.StatusBadRequest, apisdk.ErrorResponse{
			Error:            "invalid_request",
			ErrorDescription: "Brand is required",
		})
		return
	}

	keys, err := h.KeyService.SearchByBrand(ctx, brand)
	if err != nil {
		log.Error("catalog search failed", "error", err, "brand", brand)
		httpx.WriteJSON(w, http.StatusInternalServerError, apisdk.ErrorResponse{
			Error:            "server_error",
			ErrorDescription: "Search failed",
		})
		return
	}

	if len(keys) == 0 {
		httpx.WriteJSON(w, http.StatusNotFound, apisdk.ErrorResponse{
			Error:            "no_results",
			ErrorDescription: "No catalog entries match that brand",
		})
		return
	}

	results := make([]apisdk.KeyInfo, len(keys))
	for i, key := range keys {
		results[i] = keyInfo(key, h.KeyService.KeyPrefix())
	}

	httpx.WriteJSON(w, http.StatusOK, apisdk.CatalogSearchResponse{Results: results})
}
