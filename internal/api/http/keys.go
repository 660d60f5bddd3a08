package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/sneakdex/sneakdex-api/internal/api/domain"
	"github.com/sneakdex/sneakdex-api/internal/api/service"
	"github.com/sneakdex/sneakdex-api/pkg/apisdk"
	"github.com/sneakdex/sneakdex-api/pkg/httpx"
	"github.com/sneakdex/sneakdex-api/pkg/slogx"
)

// KeysHandler handles the API key management endpoints.
type KeysHandler struct {
	KeyService *service.KeyService
}

// HandleIssue handles POST /v1/keys. The response is the only time the
// plaintext key is ever transmitted.
func (h *KeysHandler) HandleIssue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req apisdk.IssueKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteJSON(w, http.StatusBadRequest, apisdk.ErrorResponse{
			Error:            "invalid_request",
			ErrorDescription: "Invalid JSON in request body",
		})
		return
	}

	issued, err := h.KeyService.Issue(ctx, domain.KeyMetadata{
		Category: req.Category,
		Brand:    req.Brand,
		Model:    req.Model,
		Size:     req.Size,
		Price:    req.Price,
		ImageURL: req.ImageURL,
		Attrs:    req.Attrs,
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidMetadata) {
			httpx.WriteJSON(w, http.StatusBadRequest, apisdk.ErrorResponse{
				Error:            "invalid_request",
				ErrorDescription: err.Error(),
			})
			return
		}
		// Issuance is not idempotent, so a store failure is surfaced as-is
		// rather than retried.
		log.Error("failed to issue key", "error", err)
		httpx.WriteJSON(w, http.StatusInternalServerError, apisdk.ErrorResponse{
			Error:            "server_error",
			ErrorDescription: "Failed to issue key",
		})
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, apisdk.IssueKeyResponse{
		ID:          issued.ID,
		Key:         issued.Key,
		Last4:       issued.Last4,
		KeyMetadata: metadataInfo(issued.Metadata),
	})
}

// HandleList handles GET /v1/keys, newest first.
func (h *KeysHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	keys, err := h.KeyService.List(ctx)
	if err != nil {
		log.Error("failed to list keys", "error", err)
		httpx.WriteJSON(w, http.StatusInternalServerError, apisdk.ErrorResponse{
			Error:            "server_error",
			ErrorDescription: "Failed to list keys",
		})
		return
	}

	infos := make([]apisdk.KeyInfo, len(keys))
	for i, key := range keys {
		infos[i] = keyInfo(key, h.KeyService.KeyPrefix())
	}

	httpx.WriteJSON(w, http.StatusOK, apisdk.ListKeysResponse{Keys: infos})
}

// HandleGet handles GET /v1/keys/{id}.
func (h *KeysHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	id := r.PathValue("id")

	key, err := h.KeyService.Get(ctx, id)
	if err != nil {
		if errors.Is(err, service.ErrKeyNotFound) {
			httpx.WriteJSON(w, http.StatusNotFound, apisdk.ErrorResponse{
				Error:            "key_not_found",
				ErrorDescription: "Key not found",
			})
			return
		}
		log.Error("failed to fetch key", "error", err, "key_id", id)
		httpx.WriteJSON(w, http.StatusInternalServerError, apisdk.ErrorResponse{
			Error:            "server_error",
			ErrorDescription: "Failed to fetch key",
		})
		return
	}

	httpx.WriteJSON(w, http.StatusOK, keyInfo(key, h.KeyService.KeyPrefix()))
}

// HandleRevoke handles DELETE /v1/keys/{id}. Success reports whether a row
// actually changed; revoking an already-revoked key returns success=false.
func (h *KeysHandler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	id := r.PathValue("id")

	affected, err := h.KeyService.Revoke(ctx, id)
	if err != nil {
		if errors.Is(err, service.ErrKeyNotFound) {
			httpx.WriteJSON(w, http.StatusNotFound, apisdk.ErrorResponse{
				Error:            "key_not_found",
				ErrorDescription: "Key not found",
			})
			return
		}
		log.Error("failed to revoke key", "error", err, "key_id", id)
		httpx.WriteJSON(w, http.StatusInternalServerError, apisdk.ErrorResponse{
			Error:            "server_error",
			ErrorDescription: "Failed to revoke key",
		})
		return
	}

	httpx.WriteJSON(w, http.StatusOK, apisdk.RevokeKeyResponse{Success: affected})
}

func keyInfo(key domain.APIKey, prefix string) apisdk.KeyInfo {
	return apisdk.KeyInfo{
		ID:          key.ID,
		Masked:      key.Masked(prefix),
		Last4:       key.Last4,
		KeyMetadata: metadataInfo(key.Metadata),
		Revoked:     key.Revoked,
		CreatedAt:   key.CreatedAt.Format(time.RFC3339),
	}
}

func metadataInfo(m domain.KeyMetadata) apisdk.KeyMetadata {
	return apisdk.KeyMetadata{
		Category: m.Category,
		Brand:    m.Brand,
		Model:    m.Model,
		Size:     m.Size,
		Price:    m.Price,
		ImageURL: m.ImageURL,
		Attrs:    m.Attrs,
	}
}
