package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/commercekit/payments/internal/model"
	"github.com/commercekit/payments/internal/module/payment"
	"github.com/commercekit/payments/internal/port/outbound"
	"github.com/commercekit/payments/internal/shared/metrics"
)

// OrderRepository loads the order aggregate and appends payment records.
type OrderRepository struct {
	db      *gorm.DB
	metrics *metrics.Metrics
}

// NewOrderRepository creates a new order repository.
func NewOrderRepository(db *gorm.DB, m *metrics.Metrics) *OrderRepository {
	return &OrderRepository{db: db, metrics: m}
}

// GetOrder returns the order with its shipments, lines and the full
// payment history.
func (r *OrderRepository) GetOrder(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	defer r.observe("order_select", time.Now())

	var o model.Order
	err := r.db.WithContext(ctx).
		Preload("Shipments.Lines").
		Preload("Shipments").
		Preload("Payments", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		First(&o, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, payment.ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	return &o, nil
}

// CreateOrder inserts an order with its shipments and lines.
func (r *OrderRepository) CreateOrder(ctx context.Context, o *model.Order) error {
	if err := r.db.WithContext(ctx).Create(o).Error; err != nil {
		return fmt.Errorf("create order: %w", err)
	}
	return nil
}

// AppendPayments persists payment records produced by an operation.
// Records are inserted, never updated: the history is append-only.
func (r *OrderRepository) AppendPayments(ctx context.Context, payments []*model.OrderPayment) error {
	if len(payments) == 0 {
		return nil
	}
	defer r.observe("payments_insert", time.Now())
	if err := r.db.WithContext(ctx).Create(payments).Error; err != nil {
		return fmt.Errorf("append payments: %w", err)
	}
	return nil
}

// UpdateOrderStatus moves the order to a new status.
func (r *OrderRepository) UpdateOrderStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus) error {
	err := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("id = ?", id).
		Update("status", status).Error
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	return nil
}

// UpdateShipmentStatus moves a shipment to a new status.
func (r *OrderRepository) UpdateShipmentStatus(ctx context.Context, id uuid.UUID, status model.ShipmentStatus) error {
	err := r.db.WithContext(ctx).
		Model(&model.OrderShipment{}).
		Where("id = ?", id).
		Update("status", status).Error
	if err != nil {
		return fmt.Errorf("update shipment status: %w", err)
	}
	return nil
}

func (r *OrderRepository) observe(operation string, start time.Time) {
	if r.metrics != nil {
		r.metrics.DBQueryDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}
}

// Compile-time check
var _ outbound.OrderDatabasePort = (*OrderRepository)(nil)
