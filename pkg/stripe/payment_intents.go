package stripe

import (
	"context"
	"errors"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/paymentintent"
)

// IntentRequest describes a PaymentIntent for a single order.
type IntentRequest struct {
	AmountMinor int64
	Currency    string
	OrderID     string
	UserID      string
}

// Intent is the subset of a PaymentIntent the API hands back to clients.
type Intent struct {
	ID           string
	ClientSecret string
	Status       string
}

// PaymentIntentCreator exposes intent creation so services can be tested without Stripe.
type PaymentIntentCreator interface {
	CreatePaymentIntent(ctx context.Context, req IntentRequest) (*Intent, error)
}

type paymentIntentClient struct {
	client *Client
}

// NewPaymentIntentCreator returns the live creator backed by the global stripe key.
func NewPaymentIntentCreator(client *Client) PaymentIntentCreator {
	if client == nil {
		return nil
	}
	return &paymentIntentClient{client: client}
}

func (p *paymentIntentClient) CreatePaymentIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	if req.AmountMinor <= 0 {
		return nil, errors.New("payment amount must be positive")
	}
	currency := req.Currency
	if currency == "" {
		currency = p.client.Currency()
	}
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.AmountMinor),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	params.AddMetadata(MetadataOrderID, req.OrderID)
	if req.UserID != "" {
		params.AddMetadata(MetadataUserID, req.UserID)
	}
	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, err
	}
	return &Intent{ID: pi.ID, ClientSecret: pi.ClientSecret, Status: string(pi.Status)}, nil
}

const (
	MetadataOrderID = "order_id"
	MetadataUserID  = "user_id"
)
