package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sneakdex/sneakdex-api/internal/api/domain"
	"github.com/sneakdex/sneakdex-api/internal/api/store"

	_ "modernc.org/sqlite"
)

type Store struct {
	db  *sqlx.DB
	dsn string
}

func NewStore(dsn string) (*Store, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// Enforce FKs
	if _, err := db.ExecContext(context.Background(), `PRAGMA foreign_keys = ON;`); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{
		db:  db,
		dsn: dsn,
	}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Tx starts a read/write transaction and returns a Tx-scoped Store.
func (s *Store) Tx(ctx context.Context) (store.Tx, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return newTx(tx), nil
}

// WithTx executes fn within a transaction, automatically handling commit/rollback.
func (s *Store) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	tx, err := s.Tx(ctx)
	if err != nil {
		return err
	}

	// Ensure rollback is called if we panic or return early with error
	defer func() {
		_ = tx.Rollback() // safe to call even after commit
	}()

	if err := fn(tx); err != nil {
		return err // rollback happens in defer
	}

	return tx.Commit()
}

func (s *Store) APIKeys() store.APIKeys             { return &apiKeysRepo{q: s.db} }
func (s *Store) Subscriptions() store.Subscriptions { return &subscriptionsRepo{q: s.db} }
func (s *Store) Payments() store.Payments           { return &paymentsRepo{q: s.db} }

func mapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

type apiKeyRow struct {
	ID        string    `db:"id"`
	HashedKey string    `db:"hashed_key"`
	Last4     string    `db:"last4"`
	Metadata  []byte    `db:"metadata"`
	Revoked   bool      `db:"revoked"`
	CreatedAt time.Time `db:"created_at"`
}

func mapAPIKey(row apiKeyRow) (domain.APIKey, error) {
	var meta domain.KeyMetadata
	if len(row.Metadata) > 0 {
		if err := json.Unmarshal(row.Metadata, &meta); err != nil {
			return domain.APIKey{}, err
		}
	}

	return domain.APIKey{
		ID:        row.ID,
		HashedKey: row.HashedKey,
		Last4:     row.Last4,
		Metadata:  meta,
		Revoked:   row.Revoked,
		CreatedAt: row.CreatedAt.UTC(),
	}, nil
}

func mapAPIKeys(rows []apiKeyRow) ([]domain.APIKey, error) {
	keys := make([]domain.APIKey, len(rows))
	for i, row := range rows {
		k, err := mapAPIKey(row)
		if err != nil {
			return nil, err
		}
		keys[i] = k
	}
	return keys, nil
}

type subscriptionRow struct {
	ID                 string    `db:"id"`
	OwnerIdentity      string    `db:"owner_identity"`
	Tier               string    `db:"tier"`
	BillingCycle       string    `db:"billing_cycle"`
	AmountCents        int64     `db:"amount_cents"`
	Status             string    `db:"status"`
	RateLimit          int       `db:"rate_limit"`
	CurrentPeriodStart time.Time `db:"current_period_start"`
	CurrentPeriodEnd   time.Time `db:"current_period_end"`
	CreatedAt          time.Time `db:"created_at"`
	UpdatedAt          time.Time `db:"updated_at"`
}

func mapSubscription(row subscriptionRow) domain.Subscription {
	return domain.Subscription{
		ID:                 row.ID,
		OwnerIdentity:      row.OwnerIdentity,
		Tier:               domain.Tier(row.Tier),
		BillingCycle:       domain.BillingCycle(row.BillingCycle),
		AmountCents:        row.AmountCents,
		Status:             domain.SubscriptionStatus(row.Status),
		RateLimit:          row.RateLimit,
		CurrentPeriodStart: row.CurrentPeriodStart.UTC(),
		CurrentPeriodEnd:   row.CurrentPeriodEnd.UTC(),
		CreatedAt:          row.CreatedAt.UTC(),
		UpdatedAt:          row.UpdatedAt.UTC(),
	}
}

type paymentRow struct {
	ID             string    `db:"id"`
	SubscriptionID string    `db:"subscription_id"`
	OwnerIdentity  string    `db:"owner_identity"`
	AmountCents    int64     `db:"amount_cents"`
	Currency       string    `db:"currency"`
	Status         string    `db:"status"`
	Method         string    `db:"method"`
	CreatedAt      time.Time `db:"created_at"`
}

func mapPayment(row paymentRow) domain.Payment {
	return domain.Payment{
		ID:             row.ID,
		SubscriptionID: row.SubscriptionID,
		OwnerIdentity:  row.OwnerIdentity,
		AmountCents:    row.AmountCents,
		Currency:       row.Currency,
		Status:         domain.PaymentStatus(row.Status),
		Method:         row.Method,
		CreatedAt:      row.CreatedAt.UTC(),
	}
}
