package sqlite

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sneakdex/sneakdex-api/internal/api/domain"
)

type subscriptionsRepo struct {
	q sqlx.ExtContext
}

const subscriptionColumns = `id, owner_identity, tier, billing_cycle, amount_cents,
	status, rate_limit, current_period_start, current_period_end, created_at, updated_at`

func (r *subscriptionsRepo) CreateSubscription(ctx context.Context, s domain.Subscription) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO subscriptions (id, owner_identity, tier, billing_cycle, amount_cents,
			status, rate_limit, current_period_start, current_period_end, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.OwnerIdentity, string(s.Tier), string(s.BillingCycle), s.AmountCents,
		string(s.Status), s.RateLimit, s.CurrentPeriodStart.UTC(), s.CurrentPeriodEnd.UTC(),
		s.CreatedAt.UTC(), s.UpdatedAt.UTC(),
	)
	return err
}

func (r *subscriptionsRepo) GetSubscriptionByID(ctx context.Context, id string) (domain.Subscription, error) {
	var row subscriptionRow
	err := sqlx.GetContext(ctx, r.q, &row, `
		SELECT `+subscriptionColumns+` FROM subscriptions WHERE id = ?`, id)
	if err != nil {
		return domain.Subscription{}, mapNotFound(err)
	}
	return mapSubscription(row), nil
}

func (r *subscriptionsRepo) GetActiveSubscriptionByOwner(ctx context.Context, owner string) (domain.Subscription, error) {
	var row subscriptionRow
	err := sqlx.GetContext(ctx, r.q, &row, `
		SELECT `+subscriptionColumns+` FROM subscriptions
		WHERE owner_identity = ? AND status = 'active'
		ORDER BY created_at DESC, id DESC
		LIMIT 1`, owner)
	if err != nil {
		return domain.Subscription{}, mapNotFound(err)
	}
	return mapSubscription(row), nil
}

func (r *subscriptionsRepo) UpdateSubscriptionStatus(
	ctx context.Context,
	id string,
	status domain.SubscriptionStatus,
) error {
	_, err := r.q.ExecContext(ctx, `
		UPDATE subscriptions SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC(), id)
	return err
}

func (r *subscriptionsRepo) CancelActiveByOwner(ctx context.Context, owner string) (int64, error) {
	res, err := r.q.ExecContext(ctx, `
		UPDATE subscriptions SET status = 'cancelled', updated_at = ?
		WHERE owner_identity = ? AND status = 'active'`,
		time.Now().UTC(), owner)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
