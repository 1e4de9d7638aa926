package handler

import (
	"time"

	"github.com/google/uuid"

	"github.com/commercekit/payments/internal/domain/money"
	"github.com/commercekit/payments/internal/domain/orderpay"
	"github.com/commercekit/payments/internal/model"
)

// base carries the draft construction shared by every handler.
type base struct {
	method model.PaymentMethod
	now    func() time.Time
}

func newBase(method model.PaymentMethod) base {
	return base{method: method, now: time.Now}
}

// Method returns the payment method this handler serves.
func (b base) Method() model.PaymentMethod {
	return b.method
}

// CanAuthorizePartly is false for ordinary instruments: they reserve
// the full remainder or decline.
func (b base) CanAuthorizePartly() bool {
	return false
}

// CanCapture reports whether the held amount covers the capture.
func (b base) CanCapture(auth *model.OrderPayment, amount money.Money) bool {
	return auth.Amount >= amount.Amount()
}

// remainingAfter returns how much of required the drafts so far leave
// uncovered; zero or negative means the requirement is met.
func remainingAfter(required money.Money, drafted []*model.OrderPayment) int64 {
	remaining := required.Amount()
	for _, d := range drafted {
		remaining -= d.Amount
	}
	return remaining
}

// orderRequirement sums the authorization requirement over every
// shipment of the order.
func orderRequirement(o *model.Order) money.Money {
	total := int64(0)
	for _, s := range o.Shipments {
		total += orderpay.RequiredAuthorizationAmount(o, s).Amount()
	}
	return money.New(total, o.Currency)
}

// authDraft builds one pending authorization record from the template.
func (b base) authDraft(template *model.OrderPayment, o *model.Order, shipmentID *uuid.UUID, amount int64) *model.OrderPayment {
	return &model.OrderPayment{
		ID:                  uuid.New(),
		OrderID:             o.ID,
		ShipmentID:          shipmentID,
		GiftCertificateCode: template.GiftCertificateCode,
		GiftCertificate:     template.GiftCertificate,
		TransactionType:     model.TransactionAuthorization,
		Method:              b.method,
		Amount:              amount,
		Currency:            o.Currency,
		ReferenceID:         template.ReferenceID,
		Status:              model.PaymentStatusPending,
		CreatedAt:           b.now(),
	}
}

// CaptureDraft returns a pending capture consuming the authorization.
func (b base) CaptureDraft(auth *model.OrderPayment, amount money.Money) *model.OrderPayment {
	return &model.OrderPayment{
		ID:                  uuid.New(),
		OrderID:             auth.OrderID,
		ShipmentID:          auth.ShipmentID,
		GiftCertificateCode: auth.GiftCertificateCode,
		GiftCertificate:     auth.GiftCertificate,
		TransactionType:     model.TransactionCapture,
		Method:              b.method,
		Amount:              amount.Amount(),
		Currency:            auth.Currency,
		AuthorizationCode:   auth.AuthorizationCode,
		ReferenceID:         auth.ReferenceID,
		Status:              model.PaymentStatusPending,
		CreatedAt:           b.now(),
	}
}

// ReverseDraft returns a pending reversal of the authorization. The
// amount and authorization code are copied verbatim: reversals always
// release the whole hold.
func (b base) ReverseDraft(auth *model.OrderPayment) *model.OrderPayment {
	return &model.OrderPayment{
		ID:                  uuid.New(),
		OrderID:             auth.OrderID,
		ShipmentID:          auth.ShipmentID,
		GiftCertificateCode: auth.GiftCertificateCode,
		GiftCertificate:     auth.GiftCertificate,
		TransactionType:     model.TransactionReverseAuthorization,
		Method:              b.method,
		Amount:              auth.Amount,
		Currency:            auth.Currency,
		AuthorizationCode:   auth.AuthorizationCode,
		ReferenceID:         auth.ReferenceID,
		Status:              model.PaymentStatusPending,
		CreatedAt:           b.now(),
	}
}

// RefundDraft returns a pending refund against the capture.
func (b base) RefundDraft(capture *model.OrderPayment, amount money.Money) *model.OrderPayment {
	return &model.OrderPayment{
		ID:                  uuid.New(),
		OrderID:             capture.OrderID,
		ShipmentID:          capture.ShipmentID,
		GiftCertificateCode: capture.GiftCertificateCode,
		GiftCertificate:     capture.GiftCertificate,
		TransactionType:     model.TransactionCredit,
		Method:              b.method,
		Amount:              amount.Amount(),
		Currency:            capture.Currency,
		AuthorizationCode:   capture.AuthorizationCode,
		ReferenceID:         capture.ReferenceID,
		Status:              model.PaymentStatusPending,
		CreatedAt:           b.now(),
	}
}
