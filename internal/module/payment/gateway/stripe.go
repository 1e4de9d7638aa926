package gateway

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
	"github.com/stripe/stripe-go/v76/refund"

	"github.com/commercekit/payments/internal/model"
)

// StripeConfig holds Stripe configuration.
type StripeConfig struct {
	APIKey string
}

// StripeGateway settles card payments through Stripe. Holds are
// manual-capture PaymentIntents; the intent ID doubles as the
// authorization code so captures and reversals can find their hold.
type StripeGateway struct {
	apiKey string
}

// NewStripeGateway creates a new Stripe gateway.
func NewStripeGateway(config *StripeConfig) *StripeGateway {
	stripe.Key = config.APIKey
	return &StripeGateway{apiKey: config.APIKey}
}

// Type returns the gateway type.
func (g *StripeGateway) Type() model.GatewayType {
	return model.GatewayCard
}

// PreAuthorize places a manual-capture hold for the payment's amount.
func (g *StripeGateway) PreAuthorize(ctx context.Context, p *model.OrderPayment, billing *model.Address) error {
	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(p.Amount),
		Currency:      stripe.String(p.Currency),
		CaptureMethod: stripe.String(string(stripe.PaymentIntentCaptureMethodManual)),
		Confirm:       stripe.Bool(true),
		PaymentMethod: stripe.String(p.ReferenceID),
		Metadata: map[string]string{
			"order_id": p.OrderID.String(),
		},
	}
	if billing != nil {
		params.Shipping = &stripe.ShippingDetailsParams{
			Name: stripe.String(billing.Name),
			Address: &stripe.AddressParams{
				Line1:      stripe.String(billing.Line1),
				Line2:      stripe.String(billing.Line2),
				City:       stripe.String(billing.City),
				State:      stripe.String(billing.Region),
				PostalCode: stripe.String(billing.PostalCode),
				Country:    stripe.String(billing.Country),
			},
		}
	}
	pi, err := paymentintent.New(params)
	if err != nil {
		return processErr(g.Type(), "pre-authorize", stripeReason(err), err)
	}
	if pi.Status != stripe.PaymentIntentStatusRequiresCapture {
		return processErr(g.Type(), "pre-authorize",
			fmt.Sprintf("unexpected intent status %s", pi.Status), nil)
	}
	p.AuthorizationCode = pi.ID
	return nil
}

// Capture settles a previously placed hold, possibly for less than the
// held amount.
func (g *StripeGateway) Capture(ctx context.Context, p *model.OrderPayment) error {
	params := &stripe.PaymentIntentCaptureParams{
		AmountToCapture: stripe.Int64(p.Amount),
	}
	_, err := paymentintent.Capture(p.AuthorizationCode, params)
	if err != nil {
		return processErr(g.Type(), "capture", stripeReason(err), err)
	}
	return nil
}

// ReversePreAuthorization cancels the hold.
func (g *StripeGateway) ReversePreAuthorization(ctx context.Context, p *model.OrderPayment) error {
	_, err := paymentintent.Cancel(p.AuthorizationCode, nil)
	if err != nil {
		return processErr(g.Type(), "reverse", stripeReason(err), err)
	}
	return nil
}

// Refund returns captured funds.
func (g *StripeGateway) Refund(ctx context.Context, p *model.OrderPayment) error {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(p.AuthorizationCode),
		Amount:        stripe.Int64(p.Amount),
	}
	_, err := refund.New(params)
	if err != nil {
		return processErr(g.Type(), "refund", stripeReason(err), err)
	}
	return nil
}

// VoidCaptureOrCredit voids a settled capture. Stripe has no distinct
// void after settlement, so this is a full refund of the capture.
func (g *StripeGateway) VoidCaptureOrCredit(ctx context.Context, p *model.OrderPayment) error {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(p.AuthorizationCode),
		Amount:        stripe.Int64(p.Amount),
	}
	_, err := refund.New(params)
	if err != nil {
		return processErr(g.Type(), "void", stripeReason(err), err)
	}
	return nil
}

// FinalizeShipment is a no-op for Stripe.
func (g *StripeGateway) FinalizeShipment(ctx context.Context, p *model.OrderPayment) error {
	return nil
}

func stripeReason(err error) string {
	if stripeErr, ok := err.(*stripe.Error); ok {
		if stripeErr.Code != "" {
			return string(stripeErr.Code)
		}
		return stripeErr.Msg
	}
	return err.Error()
}
