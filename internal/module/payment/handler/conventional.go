package handler

import (
	"context"

	"github.com/commercekit/payments/internal/domain/orderpay"
	"github.com/commercekit/payments/internal/model"
)

// conventional serves instruments that reserve the full uncovered
// remainder in one authorization: cards, Alipay, hosted payment pages
// and exchange credit.
type conventional struct {
	base
}

// NewCardHandler creates the handler for card payments.
func NewCardHandler() Handler {
	return &conventional{base: newBase(model.MethodCard)}
}

// NewAlipayHandler creates the handler for Alipay payments.
func NewAlipayHandler() Handler {
	return &conventional{base: newBase(model.MethodAlipay)}
}

// NewHostedPageHandler creates the handler for payments authorized on a
// hosted payment page. Drafts look like card drafts; the orchestrator
// skips the gateway hold because the page already placed it.
func NewHostedPageHandler() Handler {
	return &conventional{base: newBase(model.MethodHostedPage)}
}

// NewExchangeHandler creates the handler for exchange-credit payments.
func NewExchangeHandler() Handler {
	return &conventional{base: newBase(model.MethodExchange)}
}

// AuthorizeShipmentPayments drafts one authorization for whatever the
// prior drafts leave uncovered.
func (h *conventional) AuthorizeShipmentPayments(_ context.Context, template *model.OrderPayment, o *model.Order, s *model.OrderShipment, drafted []*model.OrderPayment) ([]*model.OrderPayment, error) {
	required := orderpay.RequiredAuthorizationAmount(o, s)
	remaining := remainingAfter(required, drafted)
	if remaining <= 0 {
		return nil, nil
	}
	return []*model.OrderPayment{h.authDraft(template, o, &s.ID, remaining)}, nil
}

// AuthorizeOrderPayments drafts one order-level authorization for the
// uncovered remainder of the whole order.
func (h *conventional) AuthorizeOrderPayments(_ context.Context, template *model.OrderPayment, o *model.Order, drafted []*model.OrderPayment) ([]*model.OrderPayment, error) {
	remaining := remainingAfter(orderRequirement(o), drafted)
	if remaining <= 0 {
		return nil, nil
	}
	return []*model.OrderPayment{h.authDraft(template, o, nil, remaining)}, nil
}
