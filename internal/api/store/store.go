package store

import (
	"context"
	"errors"

	"github.com/sneakdex/sneakdex-api/internal/api/domain"
)

var ErrNotFound = errors.New("store: not found")

// Store is the root data access interface. Concrete drivers (sqlite for
// now) implement this. It exposes sub-repositories to keep concerns tidy
// and testable, and to actively stop callers from accidentally nesting
// transactions.
type Store interface {
	APIKeys() APIKeys
	Subscriptions() Subscriptions
	Payments() Payments

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed. This is the
	// recommended way to run multi-step operations that must be atomic
	// (e.g. swapping the active subscription for an identity).
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type APIKeys interface {
	// CreateKey inserts a new key row (id is provided by the issuer).
	CreateKey(ctx context.Context, k domain.APIKey) error

	// GetKeyByID returns a key by id, revoked or not.
	GetKeyByID(ctx context.Context, id string) (domain.APIKey, error)

	// GetKeyByHash looks a key up by the exact fingerprint of its plaintext.
	// This is the verification path; no partial or prefix matching.
	GetKeyByHash(ctx context.Context, hash string) (domain.APIKey, error)

	// ListKeys returns all keys, newest first.
	ListKeys(ctx context.Context) ([]domain.APIKey, error)

	// RevokeKey marks a non-revoked key as revoked and reports whether a
	// row changed. Revoking an already-revoked key is a no-op returning
	// false. Rows are never deleted.
	RevokeKey(ctx context.Context, id string) (bool, error)

	// SearchKeysByBrand returns keys whose metadata brand matches exactly.
	SearchKeysByBrand(ctx context.Context, brand string) ([]domain.APIKey, error)
}

type Subscriptions interface {
	// CreateSubscription inserts a new subscription row.
	CreateSubscription(ctx context.Context, s domain.Subscription) error

	// GetSubscriptionByID returns a subscription regardless of status.
	GetSubscriptionByID(ctx context.Context, id string) (domain.Subscription, error)

	// GetActiveSubscriptionByOwner returns the newest active subscription
	// for the identity, or ErrNotFound.
	GetActiveSubscriptionByOwner(ctx context.Context, owner string) (domain.Subscription, error)

	// UpdateSubscriptionStatus transitions a subscription's status and
	// bumps updated_at.
	UpdateSubscriptionStatus(ctx context.Context, id string, status domain.SubscriptionStatus) error

	// CancelActiveByOwner cancels every active subscription for the
	// identity, returning how many rows changed. Used inside the
	// create-subscription transaction to enforce the single-active rule.
	CancelActiveByOwner(ctx context.Context, owner string) (int64, error)
}

type Payments interface {
	// CreatePayment appends a ledger row. Payments are never updated.
	CreatePayment(ctx context.Context, p domain.Payment) error

	// ListPaymentsBySubscription returns ledger rows, newest first.
	ListPaymentsBySubscription(ctx context.Context, subscriptionID string) ([]domain.Payment, error)
}
