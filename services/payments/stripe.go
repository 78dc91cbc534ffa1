package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	stripe "github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"
)

const (
	// callTimeout bounds every provider round-trip; the source of truth for
	// enrollment is our own store, so a slow gateway must not pin a request.
	callTimeout = 15 * time.Second
)

// StripeGateway implements Gateway and AccountGateway over the Stripe API.
// Transient transport failures are retried once; API-level rejections are not.
type StripeGateway struct {
	sc *client.API
}

// NewStripeGateway creates a gateway from a secret API key
func NewStripeGateway(secretKey string) *StripeGateway {
	return &StripeGateway{
		sc: client.New(secretKey, nil),
	}
}

// CreateCheckoutSession creates a provider-hosted checkout session carrying the
// course line item and the platform fee split
func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, p CheckoutParams) (*Session, error) {
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(p.Currency),
					UnitAmount: stripe.Int64(p.AmountCents),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(p.CourseName),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		// Charge the buyer, transfer the remainder to the seller after the fee
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			ApplicationFeeAmount: stripe.Int64(p.ApplicationFeeCents),
			TransferData: &stripe.CheckoutSessionPaymentIntentDataTransferDataParams{
				Destination: stripe.String(p.DestinationAccountID),
			},
		},
		SuccessURL: stripe.String(p.SuccessURL),
		CancelURL:  stripe.String(p.CancelURL),
	}

	var sess *stripe.CheckoutSession
	err := g.do(ctx, &params.Params, func() error {
		var err error
		sess, err = g.sc.CheckoutSessions.New(params)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}

	return sessionFromStripe(sess), nil
}

// RetrieveSession fetches the current status of a checkout session
func (g *StripeGateway) RetrieveSession(ctx context.Context, id string) (*Session, error) {
	params := &stripe.CheckoutSessionParams{}

	var sess *stripe.CheckoutSession
	err := g.do(ctx, &params.Params, func() error {
		var err error
		sess, err = g.sc.CheckoutSessions.Get(id, params)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("retrieve checkout session %s: %w", id, err)
	}

	return sessionFromStripe(sess), nil
}

// CreateExpressAccount creates a new express connected account for a seller
func (g *StripeGateway) CreateExpressAccount(ctx context.Context) (string, error) {
	params := &stripe.AccountParams{
		Type: stripe.String(string(stripe.AccountTypeExpress)),
	}

	var acct *stripe.Account
	err := g.do(ctx, &params.Params, func() error {
		var err error
		acct, err = g.sc.Accounts.New(params)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("create express account: %w", err)
	}

	return acct.ID, nil
}

// AccountOnboardingLink creates the link the seller follows to complete onboarding
func (g *StripeGateway) AccountOnboardingLink(ctx context.Context, accountID, refreshURL, returnURL string) (string, error) {
	params := &stripe.AccountLinkParams{
		Account:    stripe.String(accountID),
		RefreshURL: stripe.String(refreshURL),
		ReturnURL:  stripe.String(returnURL),
		Type:       stripe.String("account_onboarding"),
	}

	var link *stripe.AccountLink
	err := g.do(ctx, &params.Params, func() error {
		var err error
		link, err = g.sc.AccountLinks.New(params)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("create account link for %s: %w", accountID, err)
	}

	return link.URL, nil
}

// RetrieveAccount fetches the connected account and reports whether charges are enabled
func (g *StripeGateway) RetrieveAccount(ctx context.Context, accountID string) (*SellerAccount, error) {
	params := &stripe.AccountParams{}

	var acct *stripe.Account
	err := g.do(ctx, &params.Params, func() error {
		var err error
		acct, err = g.sc.Accounts.GetByID(accountID, params)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("retrieve account %s: %w", accountID, err)
	}

	raw, err := json.Marshal(acct)
	if err != nil {
		return nil, fmt.Errorf("marshal account %s: %w", accountID, err)
	}

	return &SellerAccount{
		ID:             acct.ID,
		ChargesEnabled: acct.ChargesEnabled,
		Raw:            raw,
	}, nil
}

// AccountBalance fetches the balance of a connected seller account
func (g *StripeGateway) AccountBalance(ctx context.Context, accountID string) (json.RawMessage, error) {
	params := &stripe.BalanceParams{}
	params.SetStripeAccount(accountID)

	var bal *stripe.Balance
	err := g.do(ctx, &params.Params, func() error {
		var err error
		bal, err = g.sc.Balance.Get(params)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("retrieve balance for %s: %w", accountID, err)
	}

	raw, err := json.Marshal(bal)
	if err != nil {
		return nil, fmt.Errorf("marshal balance for %s: %w", accountID, err)
	}

	return raw, nil
}

// AccountLoginLink creates an express-dashboard login link for payout settings
func (g *StripeGateway) AccountLoginLink(ctx context.Context, accountID, redirectURL string) (string, error) {
	params := &stripe.LoginLinkParams{
		Account: stripe.String(accountID),
	}

	var link *stripe.LoginLink
	err := g.do(ctx, &params.Params, func() error {
		var err error
		link, err = g.sc.LoginLinks.New(params)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("create login link for %s: %w", accountID, err)
	}

	_ = redirectURL // express dashboard links ignore redirect targets
	return link.URL, nil
}

// do runs one provider call with a bounded timeout, retrying once when the
// failure looks transient (transport error rather than an API rejection).
func (g *StripeGateway) do(ctx context.Context, params *stripe.Params, call func() error) error {
	callCtx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()
	params.Context = callCtx

	err := call()
	if err == nil || !isTransient(err) {
		return err
	}

	// One retry, fresh timeout; persistent failure surfaces to the caller
	retryCtx, cancelRetry := context.WithTimeout(ctx, callTimeout)
	defer cancelRetry()
	params.Context = retryCtx

	return call()
}

// isTransient reports whether an error is worth a single retry. Stripe API
// errors carry a decision from the provider and are never retried here.
func isTransient(err error) bool {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	return true
}

func sessionFromStripe(s *stripe.CheckoutSession) *Session {
	return &Session{
		ID:          s.ID,
		URL:         s.URL,
		Status:      string(s.PaymentStatus),
		AmountCents: s.AmountTotal,
	}
}
