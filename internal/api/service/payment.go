package service

import (
	"context"

	"github.com/sneakdex/sneakdex-api/internal/api/domain"
)

// PaymentResult is what the payment collaborator reports back for a charge.
type PaymentResult struct {
	Status   domain.PaymentStatus
	Method   string
	Currency string
}

// PaymentProcessor is the external payment collaborator. This core only
// needs it to report success or failure; a production implementation would
// have to make the charge idempotent.
type PaymentProcessor interface {
	Charge(ctx context.Context, ownerIdentity string, amountCents int64) (PaymentResult, error)
}

// NullProcessor approves every charge. It stands in for a real payment
// provider in the demo deployment.
type NullProcessor struct{}

func (NullProcessor) Charge(ctx context.Context, ownerIdentity string, amountCents int64) (PaymentResult, error) {
	return PaymentResult{
		Status:   domain.PaymentSucceeded,
		Method:   "card ending in 4242",
		Currency: "USD",
	}, nil
}
