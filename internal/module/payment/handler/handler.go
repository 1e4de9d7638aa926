// Package handler builds the payment records each instrument
// contributes to an operation. Handlers never call gateways: they
// produce pending drafts describing what should happen, and the
// orchestrator executes the drafts in order.
package handler

import (
	"context"
	"errors"
	"fmt"

	"github.com/commercekit/payments/internal/domain/money"
	"github.com/commercekit/payments/internal/model"
)

// ErrHandlerNotFound is returned when no handler is registered for a
// payment method. It is a configuration error, never a decline.
var ErrHandlerNotFound = errors.New("payment handler not found")

// Handler builds draft payment records for one payment method.
type Handler interface {
	// Method returns the payment method this handler serves.
	Method() model.PaymentMethod

	// AuthorizeShipmentPayments returns the pending authorizations this
	// instrument adds for the shipment. drafted holds authorizations
	// already planned in this pass by other instruments; only the
	// uncovered remainder is drafted.
	AuthorizeShipmentPayments(ctx context.Context, template *model.OrderPayment, o *model.Order, s *model.OrderShipment, drafted []*model.OrderPayment) ([]*model.OrderPayment, error)

	// AuthorizeOrderPayments is AuthorizeShipmentPayments at order
	// level: the requirement is summed over every shipment.
	AuthorizeOrderPayments(ctx context.Context, template *model.OrderPayment, o *model.Order, drafted []*model.OrderPayment) ([]*model.OrderPayment, error)

	// CaptureDraft returns a pending capture consuming the given
	// authorization for the given amount.
	CaptureDraft(auth *model.OrderPayment, amount money.Money) *model.OrderPayment

	// ReverseDraft returns a pending reversal releasing the given
	// authorization in full.
	ReverseDraft(auth *model.OrderPayment) *model.OrderPayment

	// RefundDraft returns a pending refund against the given capture.
	RefundDraft(capture *model.OrderPayment, amount money.Money) *model.OrderPayment

	// CanAuthorizePartly reports whether the instrument may reserve
	// less than requested, leaving the rest to other instruments.
	CanAuthorizePartly() bool

	// CanCapture reports whether the authorization covers a capture of
	// the given amount.
	CanCapture(auth *model.OrderPayment, amount money.Money) bool
}

// Registry resolves handlers by payment method. Missing methods are
// wiring mistakes and surface as hard errors.
type Registry struct {
	handlers map[model.PaymentMethod]Handler
}

// NewRegistry creates a handler registry.
func NewRegistry(handlers ...Handler) *Registry {
	r := &Registry{handlers: make(map[model.PaymentMethod]Handler, len(handlers))}
	for _, h := range handlers {
		r.handlers[h.Method()] = h
	}
	return r
}

// Get returns the handler for a payment method.
func (r *Registry) Get(method model.PaymentMethod) (Handler, error) {
	h, ok := r.handlers[method]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrHandlerNotFound, method)
	}
	return h, nil
}
