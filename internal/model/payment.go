package model

import (
	"time"

	"github.com/google/uuid"
)

// TransactionType classifies a monetary transaction record.
type TransactionType string

const (
	TransactionAuthorization        TransactionType = "authorization"
	TransactionReverseAuthorization TransactionType = "reverse_authorization"
	TransactionCapture              TransactionType = "capture"
	TransactionCredit               TransactionType = "credit"
	// TransactionRefund appears only on gift certificate ledger entries,
	// never on order payments.
	TransactionRefund TransactionType = "refund"
)

// PaymentStatus represents the status of an order payment.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusApproved PaymentStatus = "approved"
	PaymentStatusFailed   PaymentStatus = "failed"
)

// IsTerminal returns true if the status is a terminal state.
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusApproved || s == PaymentStatusFailed
}

// CanTransitionTo returns true if the status can transition to the target status.
func (s PaymentStatus) CanTransitionTo(target PaymentStatus) bool {
	switch s {
	case PaymentStatusPending:
		return target == PaymentStatusApproved || target == PaymentStatusFailed
	default:
		return false
	}
}

// PaymentMethod represents a payment method type.
type PaymentMethod string

const (
	MethodGiftCertificate PaymentMethod = "gift_certificate"
	MethodCard            PaymentMethod = "card"
	MethodAlipay          PaymentMethod = "alipay"
	MethodHostedPage      PaymentMethod = "hosted_page"
	MethodExchange        PaymentMethod = "exchange"
)

// IsGiftCertificate returns true for the stored-value rail.
func (m PaymentMethod) IsGiftCertificate() bool {
	return m == MethodGiftCertificate
}

// IsConventional returns true for rails that settle through an external
// gateway rather than the gift certificate ledger.
func (m PaymentMethod) IsConventional() bool {
	return m != MethodGiftCertificate
}

// ExternallyAuthorized returns true for methods whose authorization
// already happened outside this engine (hosted payment pages). The
// authorization record is still written, but no gateway call is made.
func (m PaymentMethod) ExternallyAuthorized() bool {
	return m == MethodHostedPage
}

// GatewayType identifies which gateway settles transactions for a method.
type GatewayType string

const (
	GatewayCard            GatewayType = "card"
	GatewayAlipay          GatewayType = "alipay"
	GatewayGiftCertificate GatewayType = "gift_certificate"
	GatewayExchange        GatewayType = "exchange"
)

// GatewayType maps the payment method to its settling gateway. Hosted
// page payments settle through the card gateway.
func (m PaymentMethod) GatewayType() GatewayType {
	switch m {
	case MethodGiftCertificate:
		return GatewayGiftCertificate
	case MethodAlipay:
		return GatewayAlipay
	case MethodExchange:
		return GatewayExchange
	default:
		return GatewayCard
	}
}

// OrderPayment is one transaction record in an order's payment history.
// The history is append-only: after creation only the status may move,
// and only pending -> approved|failed.
type OrderPayment struct {
	ID                  uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	OrderID             uuid.UUID       `json:"order_id" gorm:"type:uuid;not null;index"`
	ShipmentID          *uuid.UUID      `json:"shipment_id,omitempty" gorm:"type:uuid;index"` // nil = order-level
	GiftCertificateCode string          `json:"gift_certificate_code,omitempty" gorm:"index"`
	TransactionType     TransactionType `json:"transaction_type" gorm:"not null"`
	Method              PaymentMethod   `json:"method" gorm:"not null"`
	Amount              int64           `json:"amount"`
	Currency            string          `json:"currency" gorm:"default:usd"`
	AuthorizationCode   string          `json:"authorization_code,omitempty" gorm:"index"`
	ReferenceID         string          `json:"reference_id,omitempty"`
	Status              PaymentStatus   `json:"status" gorm:"not null;default:pending"`
	FailureMessage      *string         `json:"failure_message,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`

	// GiftCertificate is the loaded certificate aggregate for gift
	// certificate payments. Not persisted with the payment row.
	GiftCertificate *GiftCertificate `json:"-" gorm:"-"`
}

// TableName returns the table name for GORM.
func (OrderPayment) TableName() string {
	return "order_payments"
}

// IsAuthorization reports whether this record reserves funds.
func (p *OrderPayment) IsAuthorization() bool {
	return p.TransactionType == TransactionAuthorization
}

// ForShipment reports whether this payment belongs to the given shipment.
func (p *OrderPayment) ForShipment(shipmentID uuid.UUID) bool {
	return p.ShipmentID != nil && *p.ShipmentID == shipmentID
}

// OrderLevel reports whether this payment is attached to the order as a
// whole rather than to a single shipment.
func (p *OrderPayment) OrderLevel() bool {
	return p.ShipmentID == nil
}

// --- Request/Response DTOs ---

// InitializePaymentsRequest asks the engine to authorize an order's
// opening payments.
type InitializePaymentsRequest struct {
	OrderID uuid.UUID     `json:"order_id" binding:"required"`
	Method  PaymentMethod `json:"method" binding:"required"`
	Code    string        `json:"code"` // gift certificate code, when applicable
	Token   string        `json:"token"`
	// GiftCertificates lists certificates to drain before the main
	// instrument is charged.
	GiftCertificates []string `json:"gift_certificates"`
}

// AdjustShipmentRequest asks the engine to re-authorize a shipment after
// its total changed.
type AdjustShipmentRequest struct {
	OrderID    uuid.UUID     `json:"order_id" binding:"required"`
	ShipmentID uuid.UUID     `json:"shipment_id" binding:"required"`
	Method     PaymentMethod `json:"method"`
	Code       string        `json:"code"`
}

// CaptureShipmentRequest asks the engine to capture a shipment's funds.
type CaptureShipmentRequest struct {
	OrderID    uuid.UUID `json:"order_id" binding:"required"`
	ShipmentID uuid.UUID `json:"shipment_id" binding:"required"`
}

// RefundShipmentRequest asks the engine to refund captured funds.
type RefundShipmentRequest struct {
	OrderID    uuid.UUID     `json:"order_id" binding:"required"`
	ShipmentID uuid.UUID     `json:"shipment_id" binding:"required"`
	Amount     int64         `json:"amount" binding:"required,gt=0"`
	Method     PaymentMethod `json:"method"`
	Code       string        `json:"code"`
}

// PaymentResultResponse reports the payments touched by an operation.
type PaymentResultResponse struct {
	Status   string          `json:"status"`
	Payments []*OrderPayment `json:"payments"`
}

// BalanceResponse reports a gift certificate's available balance.
type BalanceResponse struct {
	Code     string `json:"code"`
	Balance  int64  `json:"balance"`
	Currency string `json:"currency"`
}
