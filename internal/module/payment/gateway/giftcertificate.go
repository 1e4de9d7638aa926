package gateway

import (
	"context"
	"errors"

	"github.com/commercekit/payments/internal/domain/ledger"
	"github.com/commercekit/payments/internal/domain/money"
	"github.com/commercekit/payments/internal/infra/lock"
	"github.com/commercekit/payments/internal/model"
)

// GiftCertificateGateway settles stored-value payments against the
// certificate ledger. It acquires the certificate lock around each
// mutation so concurrent spends of one certificate serialize.
type GiftCertificateGateway struct {
	ledger *ledger.Service
	locks  lock.Provider
}

// NewGiftCertificateGateway creates a gift certificate gateway.
func NewGiftCertificateGateway(ledgerSvc *ledger.Service, locks lock.Provider) *GiftCertificateGateway {
	return &GiftCertificateGateway{ledger: ledgerSvc, locks: locks}
}

// Type returns the gateway type.
func (g *GiftCertificateGateway) Type() model.GatewayType {
	return model.GatewayGiftCertificate
}

// PreAuthorize reserves the payment's amount on the certificate.
func (g *GiftCertificateGateway) PreAuthorize(ctx context.Context, p *model.OrderPayment, _ *model.Address) error {
	return g.withLock(ctx, p, "pre-authorize", func(tok lock.Token) error {
		entry, err := g.ledger.PreAuthorize(ctx, tok, p.GiftCertificate, money.New(p.Amount, p.Currency))
		if err != nil {
			return err
		}
		p.AuthorizationCode = entry.AuthorizationCode
		return nil
	})
}

// Capture settles the reservation.
func (g *GiftCertificateGateway) Capture(ctx context.Context, p *model.OrderPayment) error {
	return g.withLock(ctx, p, "capture", func(tok lock.Token) error {
		_, err := g.ledger.Capture(ctx, tok, p.GiftCertificate, p.AuthorizationCode, money.New(p.Amount, p.Currency))
		return err
	})
}

// ReversePreAuthorization releases the reservation in full.
func (g *GiftCertificateGateway) ReversePreAuthorization(ctx context.Context, p *model.OrderPayment) error {
	return g.withLock(ctx, p, "reverse", func(tok lock.Token) error {
		_, err := g.ledger.ReversePreAuthorization(ctx, tok, p.GiftCertificate, p.AuthorizationCode, money.New(p.Amount, p.Currency))
		return err
	})
}

// Refund returns captured value to the certificate.
func (g *GiftCertificateGateway) Refund(ctx context.Context, p *model.OrderPayment) error {
	return g.withLock(ctx, p, "refund", func(tok lock.Token) error {
		_, err := g.ledger.Refund(ctx, tok, p.GiftCertificate, p.AuthorizationCode, money.New(p.Amount, p.Currency))
		return err
	})
}

// VoidCaptureOrCredit refunds the capture back onto the certificate.
func (g *GiftCertificateGateway) VoidCaptureOrCredit(ctx context.Context, p *model.OrderPayment) error {
	return g.Refund(ctx, p)
}

// FinalizeShipment is a no-op for gift certificates.
func (g *GiftCertificateGateway) FinalizeShipment(ctx context.Context, p *model.OrderPayment) error {
	return nil
}

func (g *GiftCertificateGateway) withLock(ctx context.Context, p *model.OrderPayment, op string, fn func(lock.Token) error) error {
	if p.GiftCertificate == nil {
		return processErr(g.Type(), op, "no gift certificate attached to payment", nil)
	}
	tok, err := g.locks.Acquire(ctx, p.GiftCertificate.Code)
	if err != nil {
		return err
	}
	defer g.locks.Release(ctx, tok)

	if err := fn(tok); err != nil {
		// Ledger corruption is an integration fault, not a decline.
		if errors.Is(err, ledger.ErrLedgerCorrupt) {
			return err
		}
		return processErr(g.Type(), op, err.Error(), err)
	}
	return nil
}
