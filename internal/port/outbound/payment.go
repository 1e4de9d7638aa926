package outbound

import (
	"context"

	"github.com/google/uuid"

	"github.com/commercekit/payments/internal/model"
)

// OrderDatabasePort defines order persistence operations.
type OrderDatabasePort interface {
	// GetOrder loads an order with its shipments and payment history.
	GetOrder(ctx context.Context, id uuid.UUID) (*model.Order, error)

	// AppendPayments records processed payments. History rows are
	// inserted, never updated.
	AppendPayments(ctx context.Context, payments []*model.OrderPayment) error

	// UpdateOrderStatus moves the order to a new status.
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus) error

	// UpdateShipmentStatus moves a shipment to a new status.
	UpdateShipmentStatus(ctx context.Context, id uuid.UUID, status model.ShipmentStatus) error
}

// CertificateDatabasePort defines gift certificate persistence operations.
type CertificateDatabasePort interface {
	// FindByCode finds a gift certificate by its code.
	FindByCode(ctx context.Context, code string) (*model.GiftCertificate, error)

	// Create creates a new gift certificate record.
	Create(ctx context.Context, cert *model.GiftCertificate) error
}
