// Package orderpay answers questions about an order's payment history:
// how much a shipment still needs authorized, which authorizations are
// active, and what a capture should settle. All functions are pure
// queries over the order aggregate.
package orderpay

import (
	"sort"

	"github.com/commercekit/payments/internal/domain/money"
	"github.com/commercekit/payments/internal/model"
)

// RequiredAuthorizationAmount returns the amount that must be held in
// authorizations for the shipment. Service shipments need nothing.
// Shipments with an unallocated back-order or pre-order line hold only
// a nominal unit until inventory arrives. Exchange orders net out the
// amount still owed on the originating return.
func RequiredAuthorizationAmount(o *model.Order, s *model.OrderShipment) money.Money {
	if s.IsService() {
		return money.Zero(o.Currency)
	}
	if s.HasUnallocatedDeferredLine() {
		return money.NominalUnit(o.Currency)
	}
	return exchangeAdjusted(o, money.New(s.Total, o.Currency))
}

// exchangeAdjusted nets the exchange credit out of an authorization
// amount. Exchange authorizations never drop below the nominal unit:
// the hold proves the instrument stays chargeable while the return is
// in flight, so the floor here differs deliberately from the capture
// floor of zero.
func exchangeAdjusted(o *model.Order, amount money.Money) money.Money {
	if !o.IsExchange() {
		return amount
	}
	if o.AwaitingExchange {
		return money.NominalUnit(o.Currency)
	}
	adjusted := amount.Amount() - o.DueToRMA
	if adjusted <= 0 {
		return money.NominalUnit(o.Currency)
	}
	return money.New(adjusted, o.Currency)
}

// CaptureAmount returns the amount a capture of the shipment should
// settle. For exchange orders the return credit is netted out, floored
// at zero: nothing real is owed once the credit covers the shipment.
func CaptureAmount(o *model.Order, s *model.OrderShipment) money.Money {
	amount := money.New(s.Total, o.Currency)
	if !o.IsExchange() {
		return amount
	}
	adjusted := amount.Amount() - o.DueToRMA
	if adjusted <= 0 {
		return money.Zero(o.Currency)
	}
	return money.New(adjusted, o.Currency)
}

// AdditionalAuthorizationAmount returns how much more must be reserved
// for the shipment beyond its currently active authorizations.
func AdditionalAuthorizationAmount(o *model.Order, s *model.OrderShipment) money.Money {
	required := RequiredAuthorizationAmount(o, s)
	held := int64(0)
	for _, p := range ActiveAuthorizations(o, s) {
		held += p.Amount
	}
	remaining := required.Amount() - held
	if remaining <= 0 {
		return money.Zero(o.Currency)
	}
	return money.New(remaining, o.Currency)
}

// ActiveAuthorizations returns the authorizations still usable for the
// shipment: approved, not reversed, not yet captured. Gift certificate
// authorizations come first, oldest first, so stored value is drawn
// down before the conventional instrument; the single conventional
// authorization, if any, comes last. A shipment-level conventional
// authorization shadows an order-level one.
func ActiveAuthorizations(o *model.Order, s *model.OrderShipment) []*model.OrderPayment {
	var gift []*model.OrderPayment
	var shipmentConv, orderConv *model.OrderPayment
	for _, p := range o.Payments {
		if !isOpenAuthorization(o, p) || !inScope(p, s) {
			continue
		}
		switch {
		case p.Method.IsGiftCertificate():
			gift = append(gift, p)
		case p.OrderLevel():
			orderConv = p
		default:
			shipmentConv = p
		}
	}
	sort.SliceStable(gift, func(i, j int) bool {
		return gift[i].CreatedAt.Before(gift[j].CreatedAt)
	})
	conv := shipmentConv
	if conv == nil {
		conv = orderConv
	}
	if conv != nil {
		gift = append(gift, conv)
	}
	return gift
}

// ActiveConventionalAuthorization returns the shipment's usable non-gift
// authorization, or nil.
func ActiveConventionalAuthorization(o *model.Order, s *model.OrderShipment) *model.OrderPayment {
	for i := len(o.Payments) - 1; i >= 0; i-- {
		p := o.Payments[i]
		if isOpenAuthorization(o, p) && inScope(p, s) && p.Method.IsConventional() && !p.OrderLevel() {
			return p
		}
	}
	for i := len(o.Payments) - 1; i >= 0; i-- {
		p := o.Payments[i]
		if isOpenAuthorization(o, p) && inScope(p, s) && p.Method.IsConventional() {
			return p
		}
	}
	return nil
}

// AllAuthorizations returns every approved, non-reversed authorization
// usable for the shipment, captured ones included. Ordering matches
// ActiveAuthorizations: stored value first, oldest first, conventional
// last.
func AllAuthorizations(o *model.Order, s *model.OrderShipment) []*model.OrderPayment {
	var gift, conv []*model.OrderPayment
	for _, p := range o.Payments {
		if !p.IsAuthorization() || p.Status != model.PaymentStatusApproved ||
			reversed(o, p) || !inScope(p, s) {
			continue
		}
		if p.Method.IsGiftCertificate() {
			gift = append(gift, p)
		} else {
			conv = append(conv, p)
		}
	}
	sort.SliceStable(gift, func(i, j int) bool {
		return gift[i].CreatedAt.Before(gift[j].CreatedAt)
	})
	return append(gift, conv...)
}

// LastAuthorization returns the shipment's most recently created active
// authorization, or nil.
func LastAuthorization(o *model.Order, s *model.OrderShipment) *model.OrderPayment {
	var last *model.OrderPayment
	for _, p := range ActiveAuthorizations(o, s) {
		if last == nil || p.CreatedAt.After(last.CreatedAt) {
			last = p
		}
	}
	return last
}

// AuthorizedByGiftCertificates reports whether any active authorization
// on the shipment draws on a gift certificate.
func AuthorizedByGiftCertificates(o *model.Order, s *model.OrderShipment) bool {
	for _, p := range ActiveAuthorizations(o, s) {
		if p.Method.IsGiftCertificate() {
			return true
		}
	}
	return false
}

// AuthorizedByConventional reports whether an active non-gift
// authorization covers the shipment.
func AuthorizedByConventional(o *model.Order, s *model.OrderShipment) bool {
	for _, p := range ActiveAuthorizations(o, s) {
		if p.Method.IsConventional() {
			return true
		}
	}
	return false
}

// CapturePayment returns the approved capture recorded for the
// shipment, or nil if its funds were never captured.
func CapturePayment(o *model.Order, s *model.OrderShipment) *model.OrderPayment {
	for _, p := range o.Payments {
		if p.TransactionType == model.TransactionCapture &&
			p.Status == model.PaymentStatusApproved &&
			p.ForShipment(s.ID) {
			return p
		}
	}
	return nil
}

// isOpenAuthorization reports whether p is an approved authorization
// that has been neither reversed nor captured.
func isOpenAuthorization(o *model.Order, p *model.OrderPayment) bool {
	if !p.IsAuthorization() || p.Status != model.PaymentStatusApproved {
		return false
	}
	return !reversed(o, p) && !captured(o, p)
}

func reversed(o *model.Order, p *model.OrderPayment) bool {
	return hasFollowUp(o, p, model.TransactionReverseAuthorization)
}

func captured(o *model.Order, p *model.OrderPayment) bool {
	return hasFollowUp(o, p, model.TransactionCapture)
}

func hasFollowUp(o *model.Order, auth *model.OrderPayment, typ model.TransactionType) bool {
	for _, p := range o.Payments {
		if p.TransactionType == typ &&
			p.Status == model.PaymentStatusApproved &&
			p.Method == auth.Method &&
			sameInstrument(p, auth) {
			return true
		}
	}
	return false
}

// sameInstrument matches a follow-up transaction to its authorization:
// by authorization code when one was recorded, falling back to the gift
// certificate code for ledger-backed payments.
func sameInstrument(p, auth *model.OrderPayment) bool {
	if auth.AuthorizationCode != "" {
		return p.AuthorizationCode == auth.AuthorizationCode
	}
	return auth.Method.IsGiftCertificate() && p.GiftCertificateCode == auth.GiftCertificateCode
}

// inScope reports whether a payment applies to the shipment: either
// recorded against it directly or held at order level.
func inScope(p *model.OrderPayment, s *model.OrderShipment) bool {
	if s == nil {
		return true
	}
	return p.OrderLevel() || p.ForShipment(s.ID)
}
