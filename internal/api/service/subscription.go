package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sneakdex/sneakdex-api/internal/api/domain"
	"github.com/sneakdex/sneakdex-api/internal/api/store"
	"github.com/sneakdex/sneakdex-api/pkg/idx"
	"github.com/sneakdex/sneakdex-api/pkg/slogx"
)

var (
	ErrInvalidSubscriptionRequest = errors.New("invalid subscription request")
	ErrSubscriptionNotFound       = errors.New("subscription not found")
	ErrNotSubscriptionOwner       = errors.New("subscription belongs to a different identity")
)

type SubscriptionService struct {
	Store    store.Store
	Payments PaymentProcessor

	Now func() time.Time // optional clock override for tests
}

func (s *SubscriptionService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Current returns the identity's active subscription. The second return is
// false when the caller has none and should be treated as the default tier.
// An active row whose period has already ended is lazily transitioned to
// expired here, same as during ceiling resolution.
func (s *SubscriptionService) Current(ctx context.Context, identity string) (domain.Subscription, bool, error) {
	sub, err := s.Store.Subscriptions().GetActiveSubscriptionByOwner(ctx, identity)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Subscription{}, false, nil
		}
		return domain.Subscription{}, false, err
	}

	if sub.ExpiredAt(s.now()) {
		s.expire(ctx, sub)
		return domain.Subscription{}, false, nil
	}

	return sub, true, nil
}

// Create purchases a subscription for the identity. Steps:
//  1. Validate tier, billing cycle and amount (before any mutation).
//  2. Atomically cancel any prior active subscription and insert the new
//     active row, so at most one active row per identity ever exists.
//  3. Charge through the payment collaborator and append a ledger row.
//
// The stored rate limit always comes from the central tier table.
func (s *SubscriptionService) Create(
	ctx context.Context,
	identity string,
	tierName string,
	cycleName string,
	amountCents int64,
) (domain.Subscription, domain.Payment, error) {
	log := slogx.FromContext(ctx)

	tier, err := domain.ParseTier(tierName)
	if err != nil {
		return domain.Subscription{}, domain.Payment{}, fmt.Errorf("%w: %v", ErrInvalidSubscriptionRequest, err)
	}

	cycle, err := domain.ParseBillingCycle(cycleName)
	if err != nil {
		return domain.Subscription{}, domain.Payment{}, fmt.Errorf("%w: %v", ErrInvalidSubscriptionRequest, err)
	}

	if amountCents < 0 {
		return domain.Subscription{}, domain.Payment{}, fmt.Errorf("%w: amount must not be negative", ErrInvalidSubscriptionRequest)
	}

	now := s.now()
	sub := domain.Subscription{
		ID:                 idx.New().String(),
		OwnerIdentity:      identity,
		Tier:               tier,
		BillingCycle:       cycle,
		AmountCents:        amountCents,
		Status:             domain.SubscriptionActive,
		RateLimit:          tier.Limit(),
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   cycle.PeriodEnd(now),
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		cancelled, err := tx.Subscriptions().CancelActiveByOwner(ctx, identity)
		if err != nil {
			return err
		}
		if cancelled > 0 {
			log.Info("cancelled prior active subscriptions",
				"owner", identity,
				"count", cancelled,
			)
		}

		return tx.Subscriptions().CreateSubscription(ctx, sub)
	})
	if err != nil {
		log.Error("failed to create subscription", "error", err, "owner", identity)
		return domain.Subscription{}, domain.Payment{}, err
	}

	result, err := s.Payments.Charge(ctx, identity, amountCents)
	if err != nil {
		log.Error("payment charge failed", "error", err, "subscription_id", sub.ID)
		return domain.Subscription{}, domain.Payment{}, err
	}

	payment := domain.Payment{
		ID:             idx.New().String(),
		SubscriptionID: sub.ID,
		OwnerIdentity:  identity,
		AmountCents:    amountCents,
		Currency:       result.Currency,
		Status:         result.Status,
		Method:         result.Method,
		CreatedAt:      s.now(),
	}

	if err := s.Store.Payments().CreatePayment(ctx, payment); err != nil {
		log.Error("failed to append payment ledger row", "error", err, "subscription_id", sub.ID)
		return domain.Subscription{}, domain.Payment{}, err
	}

	log.Info("subscription created",
		"subscription_id", sub.ID,
		"owner", identity,
		"tier", tier.String(),
		"billing_cycle", string(cycle),
		"rate_limit", sub.RateLimit,
	)

	return sub, payment, nil
}

// Cancel transitions the identity's subscription to cancelled. Ownership is
// checked against the caller identity. Cancelling an already cancelled or
// expired subscription is a no-op.
func (s *SubscriptionService) Cancel(ctx context.Context, identity, subscriptionID string) error {
	log := slogx.FromContext(ctx)

	sub, err := s.Store.Subscriptions().GetSubscriptionByID(ctx, subscriptionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrSubscriptionNotFound
		}
		return err
	}

	if sub.OwnerIdentity != identity {
		log.Warn("subscription cancel attempted by non-owner",
			"subscription_id", subscriptionID,
			"owner", sub.OwnerIdentity,
			"caller", identity,
		)
		return ErrNotSubscriptionOwner
	}

	// Cancelled and expired rows are immutable.
	if sub.Status != domain.SubscriptionActive {
		return nil
	}

	if err := s.Store.Subscriptions().UpdateSubscriptionStatus(ctx, subscriptionID, domain.SubscriptionCancelled); err != nil {
		log.Error("failed to cancel subscription", "error", err, "subscription_id", subscriptionID)
		return err
	}

	log.Info("subscription cancelled", "subscription_id", subscriptionID, "owner", identity)
	return nil
}

// ResolveCeiling maps an identity to its active rate-limit tier and
// ceiling. Anonymous identities and identities without an active
// subscription get the default tier. An active subscription whose period
// has ended is transitioned to expired as a side effect and the default
// applies from this call on.
//
// Resolution never blocks traffic: any store failure degrades to the
// default (most conservative) ceiling instead of failing the request.
func (s *SubscriptionService) ResolveCeiling(ctx context.Context, identity string) (domain.Tier, int) {
	log := slogx.FromContext(ctx)

	if identity == "" {
		return domain.DefaultTier, domain.DefaultTier.Limit()
	}

	sub, err := s.Store.Subscriptions().GetActiveSubscriptionByOwner(ctx, identity)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			// Fail open to the most conservative tier.
			log.Warn("subscription lookup failed, using default tier", "error", err, "owner", identity)
		}
		return domain.DefaultTier, domain.DefaultTier.Limit()
	}

	if sub.ExpiredAt(s.now()) {
		s.expire(ctx, sub)
		return domain.DefaultTier, domain.DefaultTier.Limit()
	}

	limit := sub.RateLimit
	if limit <= 0 {
		limit = sub.Tier.Limit()
	}
	return sub.Tier, limit
}

// PaymentHistory returns the ledger rows for a subscription, newest first.
// Ownership is checked the same way as Cancel.
func (s *SubscriptionService) PaymentHistory(ctx context.Context, identity, subscriptionID string) ([]domain.Payment, error) {
	sub, err := s.Store.Subscriptions().GetSubscriptionByID(ctx, subscriptionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}

	if sub.OwnerIdentity != identity {
		return nil, ErrNotSubscriptionOwner
	}

	return s.Store.Payments().ListPaymentsBySubscription(ctx, subscriptionID)
}

// expire lazily transitions an active-but-ended subscription. There is no
// background sweeper; the first post-expiry call pays the transition cost.
func (s *SubscriptionService) expire(ctx context.Context, sub domain.Subscription) {
	log := slogx.FromContext(ctx)

	if err := s.Store.Subscriptions().UpdateSubscriptionStatus(ctx, sub.ID, domain.SubscriptionExpired); err != nil {
		log.Warn("failed to mark subscription expired", "error", err, "subscription_id", sub.ID)
		return
	}

	log.Info("subscription expired",
		"subscription_id", sub.ID,
		"owner", sub.OwnerIdentity,
		"period_end", sub.CurrentPeriodEnd,
	)
}
