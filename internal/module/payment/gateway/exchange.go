package gateway

import (
	"context"

	"github.com/commercekit/payments/internal/model"
)

// ExchangeGateway backs exchange-credit payments. The credit is money
// the store already owes the customer, so every operation succeeds
// without touching a processor; the payment records alone carry the
// accounting.
type ExchangeGateway struct{}

// NewExchangeGateway creates an exchange gateway.
func NewExchangeGateway() *ExchangeGateway {
	return &ExchangeGateway{}
}

// Type returns the gateway type.
func (g *ExchangeGateway) Type() model.GatewayType {
	return model.GatewayExchange
}

func (g *ExchangeGateway) PreAuthorize(_ context.Context, p *model.OrderPayment, _ *model.Address) error {
	p.AuthorizationCode = "exchange-" + p.ID.String()
	return nil
}

func (g *ExchangeGateway) Capture(context.Context, *model.OrderPayment) error { return nil }

func (g *ExchangeGateway) ReversePreAuthorization(context.Context, *model.OrderPayment) error {
	return nil
}

func (g *ExchangeGateway) Refund(context.Context, *model.OrderPayment) error { return nil }

func (g *ExchangeGateway) VoidCaptureOrCredit(context.Context, *model.OrderPayment) error {
	return nil
}

func (g *ExchangeGateway) FinalizeShipment(context.Context, *model.OrderPayment) error { return nil }
