package gateway

import (
	"context"
	"fmt"

	"github.com/go-pay/gopay"
	"github.com/go-pay/gopay/alipay"

	"github.com/commercekit/payments/internal/model"
)

// AlipayConfig holds Alipay configuration.
type AlipayConfig struct {
	AppID           string // Application ID
	PrivateKey      string // RSA2 private key (PEM format)
	AlipayPublicKey string // Alipay public key for verification (PEM format)
	IsProd          bool
}

// AlipayGateway settles payments through Alipay. Alipay has no true
// hold-then-capture: a pre-authorization creates an unpaid trade and
// capture verifies the buyer paid it. Reversal closes the unpaid trade.
type AlipayGateway struct {
	client *alipay.Client
}

// NewAlipayGateway creates a new Alipay gateway.
func NewAlipayGateway(config *AlipayConfig) (*AlipayGateway, error) {
	client, err := alipay.NewClient(config.AppID, config.PrivateKey, config.IsProd)
	if err != nil {
		return nil, fmt.Errorf("create alipay client: %w", err)
	}
	client.AutoVerifySign([]byte(config.AlipayPublicKey))
	return &AlipayGateway{client: client}, nil
}

// Type returns the gateway type.
func (g *AlipayGateway) Type() model.GatewayType {
	return model.GatewayAlipay
}

// PreAuthorize creates an unpaid trade for the payment's amount. The
// trade number doubles as the authorization code.
func (g *AlipayGateway) PreAuthorize(ctx context.Context, p *model.OrderPayment, _ *model.Address) error {
	bm := make(gopay.BodyMap)
	bm.Set("out_trade_no", p.ID.String())
	bm.Set("total_amount", alipayAmount(p.Amount))
	bm.Set("subject", "order "+p.OrderID.String())
	bm.Set("product_code", "FACE_TO_FACE_PAYMENT")

	resp, err := g.client.TradePrecreate(ctx, bm)
	if err != nil {
		return processErr(g.Type(), "pre-authorize", err.Error(), err)
	}
	if resp.Response.Code != "10000" {
		return processErr(g.Type(), "pre-authorize",
			fmt.Sprintf("%s - %s", resp.Response.Code, resp.Response.Msg), nil)
	}
	p.AuthorizationCode = resp.Response.OutTradeNo
	return nil
}

// Capture verifies the trade was paid; the funds move when the buyer
// pays, so success here is a successful trade query.
func (g *AlipayGateway) Capture(ctx context.Context, p *model.OrderPayment) error {
	bm := make(gopay.BodyMap)
	bm.Set("out_trade_no", p.AuthorizationCode)

	resp, err := g.client.TradeQuery(ctx, bm)
	if err != nil {
		return processErr(g.Type(), "capture", err.Error(), err)
	}
	if resp.Response.Code != "10000" {
		return processErr(g.Type(), "capture",
			fmt.Sprintf("%s - %s", resp.Response.Code, resp.Response.Msg), nil)
	}
	switch resp.Response.TradeStatus {
	case "TRADE_SUCCESS", "TRADE_FINISHED":
		p.ReferenceID = resp.Response.TradeNo
		return nil
	default:
		return processErr(g.Type(), "capture",
			"trade not paid: "+resp.Response.TradeStatus, nil)
	}
}

// ReversePreAuthorization closes the unpaid trade.
func (g *AlipayGateway) ReversePreAuthorization(ctx context.Context, p *model.OrderPayment) error {
	bm := make(gopay.BodyMap)
	bm.Set("out_trade_no", p.AuthorizationCode)

	resp, err := g.client.TradeClose(ctx, bm)
	if err != nil {
		return processErr(g.Type(), "reverse", err.Error(), err)
	}
	if resp.Response.Code != "10000" {
		return processErr(g.Type(), "reverse",
			fmt.Sprintf("%s - %s", resp.Response.Code, resp.Response.Msg), nil)
	}
	return nil
}

// Refund returns captured funds.
func (g *AlipayGateway) Refund(ctx context.Context, p *model.OrderPayment) error {
	return g.refund(ctx, p, "refund")
}

// VoidCaptureOrCredit refunds the capture; Alipay has no void.
func (g *AlipayGateway) VoidCaptureOrCredit(ctx context.Context, p *model.OrderPayment) error {
	return g.refund(ctx, p, "void")
}

// FinalizeShipment is a no-op for Alipay.
func (g *AlipayGateway) FinalizeShipment(ctx context.Context, p *model.OrderPayment) error {
	return nil
}

func (g *AlipayGateway) refund(ctx context.Context, p *model.OrderPayment, op string) error {
	bm := make(gopay.BodyMap)
	bm.Set("out_trade_no", p.AuthorizationCode)
	bm.Set("out_request_no", p.ID.String())
	bm.Set("refund_amount", alipayAmount(p.Amount))

	resp, err := g.client.TradeRefund(ctx, bm)
	if err != nil {
		return processErr(g.Type(), op, err.Error(), err)
	}
	if resp.Response.Code != "10000" {
		return processErr(g.Type(), op,
			fmt.Sprintf("%s - %s", resp.Response.Code, resp.Response.Msg), nil)
	}
	return nil
}

func alipayAmount(cents int64) string {
	return fmt.Sprintf("%.2f", float64(cents)/100)
}
