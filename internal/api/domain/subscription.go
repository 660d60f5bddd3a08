package domain

import (
	"fmt"
	"time"
)

// BillingCycle is the subscription renewal period.
type BillingCycle string

const (
	BillingMonthly BillingCycle = "monthly"
	BillingYearly  BillingCycle = "yearly"
)

// ParseBillingCycle validates a billing cycle name.
func ParseBillingCycle(s string) (BillingCycle, error) {
	switch BillingCycle(s) {
	case BillingMonthly, BillingYearly:
		return BillingCycle(s), nil
	}
	return "", fmt.Errorf("invalid billing cycle %q", s)
}

// PeriodEnd computes the end of a billing period that starts at start.
func (c BillingCycle) PeriodEnd(start time.Time) time.Time {
	if c == BillingYearly {
		return start.AddDate(1, 0, 0)
	}
	return start.AddDate(0, 1, 0)
}

// SubscriptionStatus is the subscription lifecycle state. Rows only move
// active -> cancelled (explicit) or active -> expired (lazy, on resolution);
// cancelled and expired rows are immutable and never reactivated.
type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
	SubscriptionExpired   SubscriptionStatus = "expired"
)

// Subscription is a per-identity tier purchase. At most one row per
// OwnerIdentity may be active at a time; creating a new active subscription
// cancels prior active rows in the same transaction.
type Subscription struct {
	ID                 string
	OwnerIdentity      string
	Tier               Tier
	BillingCycle       BillingCycle
	AmountCents        int64
	Status             SubscriptionStatus
	RateLimit          int
	CurrentPeriodStart time.Time
	CurrentPeriodEnd   time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// ExpiredAt reports whether the subscription's period had ended by now.
func (s Subscription) ExpiredAt(now time.Time) bool {
	return now.After(s.CurrentPeriodEnd)
}
