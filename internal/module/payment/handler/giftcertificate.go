package handler

import (
	"context"

	"github.com/google/uuid"

	"github.com/commercekit/payments/internal/domain/ledger"
	"github.com/commercekit/payments/internal/domain/money"
	"github.com/commercekit/payments/internal/domain/orderpay"
	"github.com/commercekit/payments/internal/model"
)

// giftCertificate drafts stored-value authorizations. A certificate
// reserves at most its remaining balance, so drafts may cover only part
// of the requirement and leave the rest to the next instrument.
type giftCertificate struct {
	base
	ledger *ledger.Service
}

// NewGiftCertificateHandler creates the gift certificate handler.
func NewGiftCertificateHandler(ledgerSvc *ledger.Service) Handler {
	return &giftCertificate{
		base:   newBase(model.MethodGiftCertificate),
		ledger: ledgerSvc,
	}
}

// CanAuthorizePartly is true: stored value drains before the
// conventional instrument takes over.
func (h *giftCertificate) CanAuthorizePartly() bool {
	return true
}

// AuthorizeShipmentPayments drafts an authorization capped at the
// certificate's balance.
func (h *giftCertificate) AuthorizeShipmentPayments(ctx context.Context, template *model.OrderPayment, o *model.Order, s *model.OrderShipment, drafted []*model.OrderPayment) ([]*model.OrderPayment, error) {
	required := orderpay.RequiredAuthorizationAmount(o, s)
	return h.draftCapped(ctx, template, o, &s.ID, required, drafted)
}

// AuthorizeOrderPayments drafts an order-level authorization capped at
// the certificate's balance.
func (h *giftCertificate) AuthorizeOrderPayments(ctx context.Context, template *model.OrderPayment, o *model.Order, drafted []*model.OrderPayment) ([]*model.OrderPayment, error) {
	return h.draftCapped(ctx, template, o, nil, orderRequirement(o), drafted)
}

func (h *giftCertificate) draftCapped(ctx context.Context, template *model.OrderPayment, o *model.Order, shipmentID *uuid.UUID, required money.Money, drafted []*model.OrderPayment) ([]*model.OrderPayment, error) {
	remaining := remainingAfter(required, drafted)
	if remaining <= 0 {
		return nil, nil
	}
	balance, err := h.ledger.Balance(ctx, template.GiftCertificate)
	if err != nil {
		return nil, err
	}
	amount := remaining
	if balance.Amount() < amount {
		amount = balance.Amount()
	}
	if amount <= 0 {
		return nil, nil
	}
	return []*model.OrderPayment{h.authDraft(template, o, shipmentID, amount)}, nil
}
