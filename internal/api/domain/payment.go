package domain

import "time"

// PaymentStatus is the outcome of a charge attempt.
type PaymentStatus string

const (
	PaymentSucceeded PaymentStatus = "succeeded"
	PaymentFailed    PaymentStatus = "failed"
)

// Payment is one row of the append-only payment ledger. Rows are written
// when a subscription is purchased and never mutated or deleted afterwards.
type Payment struct {
	ID             string
	SubscriptionID string
	OwnerIdentity  string
	AmountCents    int64
	Currency       string
	Status         PaymentStatus
	Method         string
	CreatedAt      time.Time
}
