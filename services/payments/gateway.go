// Package payments wraps the payment provider behind narrow interfaces so the
// enrollment workflow and instructor onboarding can be tested against fakes.
package payments

import (
	"context"
	"encoding/json"
)

// Session status values reported by the provider for a checkout session
const (
	StatusUnpaid = "unpaid"
	StatusPaid   = "paid"
)

// CheckoutParams describes one provider-hosted checkout attempt: a single line
// item plus the platform/instructor split, all amounts in the currency's minor
// unit.
type CheckoutParams struct {
	CourseName           string
	AmountCents          int64
	Currency             string
	ApplicationFeeCents  int64
	DestinationAccountID string
	SuccessURL           string
	CancelURL            string
}

// Session is the provider's reference for one checkout attempt
type Session struct {
	ID          string
	URL         string
	Status      string
	AmountCents int64
}

// SellerAccount is a snapshot of a connected seller account
type SellerAccount struct {
	ID             string
	ChargesEnabled bool
	Raw            json.RawMessage // provider payload, persisted opaquely on the user
}

// Gateway is the checkout-session surface consumed by the enrollment workflow
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*Session, error)
	RetrieveSession(ctx context.Context, id string) (*Session, error)
}

// AccountGateway is the Connect onboarding surface consumed by instructor handlers
type AccountGateway interface {
	CreateExpressAccount(ctx context.Context) (string, error)
	AccountOnboardingLink(ctx context.Context, accountID, refreshURL, returnURL string) (string, error)
	RetrieveAccount(ctx context.Context, accountID string) (*SellerAccount, error)
	AccountBalance(ctx context.Context, accountID string) (json.RawMessage, error)
	AccountLoginLink(ctx context.Context, accountID, redirectURL string) (string, error)
}
