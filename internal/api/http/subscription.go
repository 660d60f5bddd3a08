package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/sneakdex/sneakdex-api/internal/api/domain"
	"github.com/sneakdex/sneakdex-api/internal/api/identity"
	"github.com/sneakdex/sneakdex-api/internal/api/service"
	"github.com/sneakdex/sneakdex-api/pkg/apisdk"
	"github.com/sneakdex/sneakdex-api/pkg/httpx"
	"github.com/sneakdex/sneakdex-api/pkg/slogx"
)

// SubscriptionHandler handles the subscription management endpoints. The
// caller identity comes from the injected resolver; purchase and cancel
// require one, while the current-subscription read degrades to the default
// tier for anonymous callers.
type SubscriptionHandler struct {
	SubscriptionService *service.SubscriptionService
	Identity            identity.Resolver
}

func (h *SubscriptionHandler) callerIdentity(r *http.Request) string {
	if h.Identity == nil {
		return ""
	}
	return h.Identity.Resolve(r)
}

// HandleCurrent handles GET /v1/subscription.
func (h *SubscriptionHandler) HandleCurrent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	ident := h.callerIdentity(r)
	if ident == "" {
		httpx.WriteJSON(w, http.StatusOK, defaultSubscriptionResponse())
		return
	}

	sub, ok, err := h.SubscriptionService.Current(ctx, ident)
	if err != nil {
		log.Error("failed to fetch subscription", "error", err, "owner", ident)
		httpx.WriteJSON(w, http.StatusInternalServerError, apisdk.ErrorResponse{
			Error:            "server_error",
			ErrorDescription: "Failed to fetch subscription",
		})
		return
	}
	if !ok {
		httpx.WriteJSON(w, http.StatusOK, defaultSubscriptionResponse())
		return
	}

	info := subscriptionInfo(sub)
	httpx.WriteJSON(w, http.StatusOK, apisdk.CurrentSubscriptionResponse{
		Tier:         sub.Tier.String(),
		RateLimit:    sub.RateLimit,
		Subscription: &info,
	})
}

// HandleCreate handles POST /v1/subscription.
func (h *SubscriptionHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	ident := h.callerIdentity(r)
	if ident == "" {
		httpx.WriteJSON(w, http.StatusUnauthorized, apisdk.ErrorResponse{
			Error:            "unauthorized",
			ErrorDescription: "A caller identity is required to purchase a subscription",
		})
		return
	}

	var req apisdk.CreateSubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteJSON(w, http.StatusBadRequest, apisdk.ErrorResponse{
			Error:            "invalid_request",
			ErrorDescription: "Invalid JSON in request body",
		})
		return
	}

	sub, payment, err := h.SubscriptionService.Create(ctx, ident, req.Tier, req.BillingCycle, req.AmountCents)
	if err != nil {
		if errors.Is(err, service.ErrInvalidSubscriptionRequest) {
			httpx.WriteJSON(w, http.StatusBadRequest, apisdk.ErrorResponse{
				Error:            "invalid_request",
				ErrorDescription: err.Error(),
			})
			return
		}
		log.Error("failed to create subscription", "error", err, "owner", ident)
		httpx.WriteJSON(w, http.StatusInternalServerError, apisdk.ErrorResponse{
			Error:            "server_error",
			ErrorDescription: "Failed to create subscription",
		})
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, apisdk.CreateSubscriptionResponse{
		Subscription: subscriptionInfo(sub),
		Payment:      paymentInfo(payment),
	})
}

// HandleCancel handles DELETE /v1/subscription/{id}. Ownership is enforced
// against the caller identity.
func (h *SubscriptionHandler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	ident := h.callerIdentity(r)
	if ident == "" {
		httpx.WriteJSON(w, http.StatusUnauthorized, apisdk.ErrorResponse{
			Error:            "unauthorized",
			ErrorDescription: "A caller identity is required to cancel a subscription",
		})
		return
	}

	id := r.PathValue("id")

	err := h.SubscriptionService.Cancel(ctx, ident, id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSubscriptionNotFound):
			httpx.WriteJSON(w, http.StatusNotFound, apisdk.ErrorResponse{
				Error:            "subscription_not_found",
				ErrorDescription: "Subscription not found",
			})
		case errors.Is(err, service.ErrNotSubscriptionOwner):
			httpx.WriteJSON(w, http.StatusForbidden, apisdk.ErrorResponse{
				Error:            "forbidden",
				ErrorDescription: "Subscription belongs to a different identity",
			})
		default:
			log.Error("failed to cancel subscription", "error", err, "subscription_id", id)
			httpx.WriteJSON(w, http.StatusInternalServerError, apisdk.ErrorResponse{
				Error:            "server_error",
				ErrorDescription: "Failed to cancel subscription",
			})
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandlePayments handles GET /v1/subscription/{id}/payments.
func (h *SubscriptionHandler) HandlePayments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	ident := h.callerIdentity(r)
	if ident == "" {
		httpx.WriteJSON(w, http.StatusUnauthorized, apisdk.ErrorResponse{
			Error:            "unauthorized",
			ErrorDescription: "A caller identity is required to view payments",
		})
		return
	}

	id := r.PathValue("id")

	payments, err := h.SubscriptionService.PaymentHistory(ctx, ident, id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSubscriptionNotFound):
			httpx.WriteJSON(w, http.StatusNotFound, apisdk.ErrorResponse{
				Error:            "subscription_not_found",
				ErrorDescription: "Subscription not found",
			})
		case errors.Is(err, service.ErrNotSubscriptionOwner):
			httpx.WriteJSON(w, http.StatusForbidden, apisdk.ErrorResponse{
				Error:            "forbidden",
				ErrorDescription: "Subscription belongs to a different identity",
			})
		default:
			log.Error("failed to list payments", "error", err, "subscription_id", id)
			httpx.WriteJSON(w, http.StatusInternalServerError, apisdk.ErrorResponse{
				Error:            "server_error",
				ErrorDescription: "Failed to list payments",
			})
		}
		return
	}

	infos := make([]apisdk.PaymentInfo, len(payments))
	for i, p := range payments {
		infos[i] = paymentInfo(p)
	}

	httpx.WriteJSON(w, http.StatusOK, apisdk.ListPaymentsResponse{Payments: infos})
}

func defaultSubscriptionResponse() apisdk.CurrentSubscriptionResponse {
	return apisdk.CurrentSubscriptionResponse{
		Tier:      domain.DefaultTier.String(),
		RateLimit: domain.DefaultTier.Limit(),
	}
}

func subscriptionInfo(sub domain.Subscription) apisdk.SubscriptionInfo {
	return apisdk.SubscriptionInfo{
		ID:                 sub.ID,
		Tier:               sub.Tier.String(),
		BillingCycle:       string(sub.BillingCycle),
		AmountCents:        sub.AmountCents,
		Status:             string(sub.Status),
		RateLimit:          sub.RateLimit,
		CurrentPeriodStart: sub.CurrentPeriodStart.Format(time.RFC3339),
		CurrentPeriodEnd:   sub.CurrentPeriodEnd.Format(time.RFC3339),
		CreatedAt:          sub.CreatedAt.Format(time.RFC3339),
	}
}

func paymentInfo(p domain.Payment) apisdk.PaymentInfo {
	return apisdk.PaymentInfo{
		ID:             p.ID,
		SubscriptionID: p.SubscriptionID,
		AmountCents:    p.AmountCents,
		Currency:       p.Currency,
		Status:         string(p.Status),
		Method:         p.Method,
		CreatedAt:      p.CreatedAt.Format(time.RFC3339),
	}
}
