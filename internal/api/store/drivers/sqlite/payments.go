package sqlite

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/sneakdex/sneakdex-api/internal/api/domain"
)

type paymentsRepo struct {
	q sqlx.ExtContext
}

func (r *paymentsRepo) CreatePayment(ctx context.Context, p domain.Payment) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO payments (id, subscription_id, owner_identity, amount_cents,
			currency, status, method, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.SubscriptionID, p.OwnerIdentity, p.AmountCents,
		p.Currency, string(p.Status), p.Method, p.CreatedAt.UTC(),
	)
	return err
}

func (r *paymentsRepo) ListPaymentsBySubscription(
	ctx context.Context,
	subscriptionID string,
) ([]domain.Payment, error) {
	var rows []paymentRow
	err := sqlx.SelectContext(ctx, r.q, &rows, `
		SELECT id, subscription_id, owner_identity, amount_cents, currency, status, method, created_at
		FROM payments
		WHERE subscription_id = ?
		ORDER BY created_at DESC, id DESC`, subscriptionID)
	if err != nil {
		return nil, err
	}

	payments := make([]domain.Payment, len(rows))
	for i, row := range rows {
		payments[i] = mapPayment(row)
	}
	return payments, nil
}
