// Package apisdk contains the request and response types of the sneakdex
// API. It is importable by Go clients so the wire shapes live in one place.
package apisdk

// ErrorResponse is the uniform error body. ErrorDescription is optional
// human-readable detail.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// RateLimitedResponse is the body of a 429 from the request gate. Tier and
// Limit let clients render actionable messaging.
type RateLimitedResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Tier    string `json:"tier"`
	Limit   int    `json:"limit"`
}

// KeyMetadata is the catalog entry attached to an API key. Attrs holds
// category-specific extras (storage, cpu, colourway) that have no fixed
// schema.
type KeyMetadata struct {
	Category string            `json:"category"`
	Brand    string            `json:"brand"`
	Model    string            `json:"model"`
	Size     string            `json:"size,omitempty"`
	Price    int64             `json:"price"`
	ImageURL string            `json:"image_url,omitempty"`
	Attrs    map[string]string `json:"attrs,omitempty"`
}

// IssueKeyRequest is the body of POST /v1/keys.
type IssueKeyRequest struct {
	KeyMetadata
}

// IssueKeyResponse is the one-time issuance result. Key carries the
// plaintext secret and is never transmitted again.
type IssueKeyResponse struct {
	ID    string `json:"id"`
	Key   string `json:"key"`
	Last4 string `json:"last4"`
	KeyMetadata
}

// KeyInfo is the display form of an issued key. Masked is the issuance
// prefix plus the last four characters; the stored hash is never exposed.
type KeyInfo struct {
	ID     string `json:"id"`
	Masked string `json:"masked"`
	Last4  string `json:"last4"`
	KeyMetadata
	Revoked   bool   `json:"revoked"`
	CreatedAt string `json:"created_at"`
}

// ListKeysResponse is the body of GET /v1/keys, newest first.
type ListKeysResponse struct {
	Keys []KeyInfo `json:"keys"`
}

// RevokeKeyResponse reports whether the revocation changed a row. Revoking
// an already-revoked key returns success=false.
type RevokeKeyResponse struct {
	Success bool `json:"success"`
}

// SubscriptionInfo is the wire form of a subscription row.
type SubscriptionInfo struct {
	ID                 string `json:"id"`
	Tier               string `json:"tier"`
	BillingCycle       string `json:"billing_cycle"`
	AmountCents        int64  `json:"amount_cents"`
	Status             string `json:"status"`
	RateLimit          int    `json:"rate_limit"`
	CurrentPeriodStart string `json:"current_period_start"`
	CurrentPeriodEnd   string `json:"current_period_end"`
	CreatedAt          string `json:"created_at"`
}

// CurrentSubscriptionResponse is the body of GET /v1/subscription.
// Subscription is null when the caller has none; Tier and RateLimit then
// report the default tier.
type CurrentSubscriptionResponse struct {
	Tier         string            `json:"tier"`
	RateLimit    int               `json:"rate_limit"`
	Subscription *SubscriptionInfo `json:"subscription"`
}

// CreateSubscriptionRequest is the body of POST /v1/subscription.
type CreateSubscriptionRequest struct {
	Tier         string `json:"tier"`
	BillingCycle string `json:"billing_cycle"`
	AmountCents  int64  `json:"amount_cents"`
}

// PaymentInfo is one row of the append-only payment ledger.
type PaymentInfo struct {
	ID             string `json:"id"`
	SubscriptionID string `json:"subscription_id"`
	AmountCents    int64  `json:"amount_cents"`
	Currency       string `json:"currency"`
	Status         string `json:"status"`
	Method         string `json:"method"`
	CreatedAt      string `json:"created_at"`
}

// ListPaymentsResponse is the body of GET /v1/subscription/{id}/payments,
// newest first.
type ListPaymentsResponse struct {
	Payments []PaymentInfo `json:"payments"`
}

// CreateSubscriptionResponse is the body of a successful purchase.
type CreateSubscriptionResponse struct {
	Subscription SubscriptionInfo `json:"subscription"`
	Payment      PaymentInfo      `json:"payment"`
}

// PingResponse is the body of GET /v1/catalog/ping.
type PingResponse struct {
	Message string `json:"message"`
}

// CatalogSearchRequest is the body of POST /v1/catalog/search.
type CatalogSearchRequest struct {
	Brand string `json:"brand"`
}

// CatalogSearchResponse lists catalog entries matching a search.
type CatalogSearchResponse struct {
	Results []KeyInfo `json:"results"`
}

// HealthChecks reports per-dependency health for the readiness probe.
type HealthChecks struct {
	Database string `json:"database"`
}

// HealthResponse is the body of the /livez and /readyz probes.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}
