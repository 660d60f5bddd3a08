package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sneakdex/sneakdex-api/internal/api/domain"
	"github.com/sneakdex/sneakdex-api/internal/api/store"
)

func newSubscriptionService(t *testing.T) (*SubscriptionService, store.Store, *time.Time) {
	t.Helper()

	st := newTestStore(t)
	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := &SubscriptionService{
		Store:    st,
		Payments: NullProcessor{},
		Now:      func() time.Time { return current },
	}
	return svc, st, &current
}

func TestCreateSubscription(t *testing.T) {
	ctx := context.Background()
	svc, _, clock := newSubscriptionService(t)

	sub, payment, err := svc.Create(ctx, "user-1", "gold", "monthly", 4999)
	require.NoError(t, err)

	require.Equal(t, domain.TierGold, sub.Tier)
	require.Equal(t, domain.SubscriptionActive, sub.Status)
	require.Equal(t, domain.TierGold.Limit(), sub.RateLimit)
	require.Equal(t, clock.AddDate(0, 1, 0), sub.CurrentPeriodEnd)

	require.Equal(t, sub.ID, payment.SubscriptionID)
	require.Equal(t, domain.PaymentSucceeded, payment.Status)
	require.Equal(t, int64(4999), payment.AmountCents)
}

func TestCreateSubscriptionValidation(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newSubscriptionService(t)

	_, _, err := svc.Create(ctx, "user-1", "diamond", "monthly", 100)
	require.ErrorIs(t, err, ErrInvalidSubscriptionRequest)

	_, _, err = svc.Create(ctx, "user-1", "gold", "weekly", 100)
	require.ErrorIs(t, err, ErrInvalidSubscriptionRequest)

	_, _, err = svc.Create(ctx, "user-1", "gold", "monthly", -1)
	require.ErrorIs(t, err, ErrInvalidSubscriptionRequest)

	// Nothing was persisted by the rejected attempts.
	_, ok, err := svc.Current(ctx, "user-1")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCreateCancelsPriorActiveSubscription(t *testing.T) {
	ctx := context.Background()
	svc, st, _ := newSubscriptionService(t)

	first, _, err := svc.Create(ctx, "user-1", "silver", "monthly", 999)
	require.NoError(t, err)

	second, _, err := svc.Create(ctx, "user-1", "platinum", "yearly", 49999)
	require.NoError(t, err)

	// Exactly one active row remains and it is the new one.
	active, err := st.Subscriptions().GetActiveSubscriptionByOwner(ctx, "user-1")
	require.NoError(t, err)
	require.Equal(t, second.ID, active.ID)

	prior, err := st.Subscriptions().GetSubscriptionByID(ctx, first.ID)
	require.NoError(t, err)
	require.Equal(t, domain.SubscriptionCancelled, prior.Status)
}

func TestCancelSubscription(t *testing.T) {
	ctx := context.Background()
	svc, st, _ := newSubscriptionService(t)

	sub, _, err := svc.Create(ctx, "user-1", "silver", "monthly", 999)
	require.NoError(t, err)

	t.Run("unknown id", func(t *testing.T) {
		err := svc.Cancel(ctx, "user-1", "no-such-id")
		require.ErrorIs(t, err, ErrSubscriptionNotFound)
	})

	t.Run("ownership enforced", func(t *testing.T) {
		err := svc.Cancel(ctx, "someone-else", sub.ID)
		require.ErrorIs(t, err, ErrNotSubscriptionOwner)
	})

	t.Run("owner cancels", func(t *testing.T) {
		require.NoError(t, svc.Cancel(ctx, "user-1", sub.ID))

		row, err := st.Subscriptions().GetSubscriptionByID(ctx, sub.ID)
		require.NoError(t, err)
		require.Equal(t, domain.SubscriptionCancelled, row.Status)
	})

	t.Run("cancel again is a no-op", func(t *testing.T) {
		require.NoError(t, svc.Cancel(ctx, "user-1", sub.ID))
	})
}

func TestResolveCeiling(t *testing.T) {
	ctx := context.Background()

	t.Run("anonymous gets default", func(t *testing.T) {
		svc, _, _ := newSubscriptionService(t)
		tier, ceiling := svc.ResolveCeiling(ctx, "")
		require.Equal(t, domain.TierBronze, tier)
		require.Equal(t, 100, ceiling)
	})

	t.Run("no subscription gets default", func(t *testing.T) {
		svc, _, _ := newSubscriptionService(t)
		tier, ceiling := svc.ResolveCeiling(ctx, "user-1")
		require.Equal(t, domain.TierBronze, tier)
		require.Equal(t, 100, ceiling)
	})

	t.Run("active subscription gets its tier", func(t *testing.T) {
		svc, _, _ := newSubscriptionService(t)
		_, _, err := svc.Create(ctx, "user-1", "gold", "monthly", 4999)
		require.NoError(t, err)

		tier, ceiling := svc.ResolveCeiling(ctx, "user-1")
		require.Equal(t, domain.TierGold, tier)
		require.Equal(t, 5000, ceiling)
	})

	t.Run("store failure fails open to default", func(t *testing.T) {
		svc, st, _ := newSubscriptionService(t)
		require.NoError(t, st.Close())

		tier, ceiling := svc.ResolveCeiling(ctx, "user-1")
		require.Equal(t, domain.TierBronze, tier)
		require.Equal(t, 100, ceiling)
	})
}

func TestResolveCeilingExpiresLazily(t *testing.T) {
	ctx := context.Background()
	svc, st, clock := newSubscriptionService(t)

	sub, _, err := svc.Create(ctx, "user-1", "gold", "monthly", 4999)
	require.NoError(t, err)

	// Move past the period end; first resolution does the transition.
	*clock = clock.AddDate(0, 1, 0).Add(time.Hour)

	tier, ceiling := svc.ResolveCeiling(ctx, "user-1")
	require.Equal(t, domain.TierBronze, tier)
	require.Equal(t, 100, ceiling)

	row, err := st.Subscriptions().GetSubscriptionByID(ctx, sub.ID)
	require.NoError(t, err)
	require.Equal(t, domain.SubscriptionExpired, row.Status)

	// Second resolution stays on the default with no further transition.
	tier, ceiling = svc.ResolveCeiling(ctx, "user-1")
	require.Equal(t, domain.TierBronze, tier)
	require.Equal(t, 100, ceiling)

	// Expired rows are also invisible to the current-subscription read.
	_, ok, err := svc.Current(ctx, "user-1")
	require.NoError(t, err)
	require.False(t, ok)
}
