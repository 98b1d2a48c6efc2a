package payments

import (
	"fmt"
	"math"

	config "github.com/anjiri1684/etuition_backend/configs"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
)

// CheckoutSessionParams is what the marketplace needs from a checkout:
// one line item and the metadata that later drives the settlement.
type CheckoutSessionParams struct {
	Amount        float64
	Currency      string
	Description   string
	CustomerEmail string
	Metadata      map[string]string
	SuccessURL    string
	CancelURL     string
}

type CheckoutSession struct {
	ID  string
	URL string
}

type SessionDetails struct {
	PaymentIntentID string
	PaymentStatus   string
	AmountTotal     int64
	Currency        string
	CustomerEmail   string
	Metadata        map[string]string
}

// CheckoutGateway is the seam over the payment processor; the payment
// handlers talk only to this so the settlement flow can be exercised
// without the network.
type CheckoutGateway interface {
	CreateCheckoutSession(params CheckoutSessionParams) (*CheckoutSession, error)
	RetrieveSession(sessionID string) (*SessionDetails, error)
}

var Gateway CheckoutGateway = &stripeGateway{}

func InitStripe() {
	stripe.Key = config.Config("STRIPE_SECRET_KEY")
}

type stripeGateway struct{}

func (g *stripeGateway) CreateCheckoutSession(p CheckoutSessionParams) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(p.Currency),
					UnitAmount: stripe.Int64(int64(math.Round(p.Amount * 100))),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(p.Description),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		CustomerEmail: stripe.String(p.CustomerEmail),
		SuccessURL:    stripe.String(p.SuccessURL),
		CancelURL:     stripe.String(p.CancelURL),
	}
	for key, value := range p.Metadata {
		params.AddMetadata(key, value)
	}

	s, err := session.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe create checkout session: %w", err)
	}
	return &CheckoutSession{ID: s.ID, URL: s.URL}, nil
}

func (g *stripeGateway) RetrieveSession(sessionID string) (*SessionDetails, error) {
	s, err := session.Get(sessionID, nil)
	if err != nil {
		return nil, fmt.Errorf("stripe retrieve checkout session: %w", err)
	}

	details := &SessionDetails{
		PaymentStatus: string(s.PaymentStatus),
		AmountTotal:   s.AmountTotal,
		Currency:      string(s.Currency),
		CustomerEmail: s.CustomerEmail,
		Metadata:      s.Metadata,
	}
	if s.PaymentIntent != nil {
		details.PaymentIntentID = s.PaymentIntent.ID
	}
	if details.CustomerEmail == "" && s.CustomerDetails != nil {
		details.CustomerEmail = s.CustomerDetails.Email
	}
	return details, nil
}
