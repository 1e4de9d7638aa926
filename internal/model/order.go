package model

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus represents the status of an order.
type OrderStatus string

const (
	OrderStatusCreated          OrderStatus = "created"
	OrderStatusInProgress       OrderStatus = "in_progress"
	OrderStatusAwaitingExchange OrderStatus = "awaiting_exchange"
	OrderStatusOnHold           OrderStatus = "on_hold"
	OrderStatusPartiallyShipped OrderStatus = "partially_shipped"
	OrderStatusCompleted        OrderStatus = "completed"
	OrderStatusCanceled         OrderStatus = "canceled"
)

// String returns the string representation of the status.
func (s OrderStatus) String() string {
	return string(s)
}

// IsValid checks if the status is a valid order status.
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusCreated, OrderStatusInProgress, OrderStatusAwaitingExchange,
		OrderStatusOnHold, OrderStatusPartiallyShipped, OrderStatusCompleted,
		OrderStatusCanceled:
		return true
	}
	return false
}

// Cancellable reports whether an order in this status may still be
// canceled. Orders with shipped or completed work cannot be.
func (s OrderStatus) Cancellable() bool {
	switch s {
	case OrderStatusCreated, OrderStatusInProgress, OrderStatusAwaitingExchange, OrderStatusOnHold:
		return true
	}
	return false
}

// OrderType represents the type of order.
type OrderType string

const (
	OrderTypeStandard OrderType = "standard"
	OrderTypeExchange OrderType = "exchange"
)

// String returns the string representation of the order type.
func (t OrderType) String() string {
	return string(t)
}

// Order is the payment engine's view of a purchase order: totals,
// shipments, and the append-only payment history.
type Order struct {
	ID       uuid.UUID   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrderNo  string      `gorm:"uniqueIndex;not null"`
	Type     OrderType   `gorm:"not null;default:standard"`
	Status   OrderStatus `gorm:"not null;default:created"`
	Currency string      `gorm:"default:usd"`

	// DueToRMA is the amount, in cents, still owed back to the customer
	// on the originating return of an exchange order.
	DueToRMA int64

	// AwaitingExchange is set while the returned goods of an exchange
	// order have not yet been received.
	AwaitingExchange bool

	BillingAddress Address `gorm:"embedded;embeddedPrefix:billing_"`

	CreatedAt time.Time
	UpdatedAt time.Time

	// Relations
	Shipments []*OrderShipment `gorm:"foreignKey:OrderID"`
	Payments  []*OrderPayment  `gorm:"foreignKey:OrderID"`
}

// TableName returns the database table name.
func (Order) TableName() string {
	return "orders"
}

// IsExchange reports whether this order originated from an exchange.
func (o *Order) IsExchange() bool {
	return o.Type == OrderTypeExchange
}

// Cancellable reports whether the order may still be canceled.
func (o *Order) Cancellable() bool {
	return o.Status.Cancellable()
}

// AddPayment appends a payment record to the order's history.
func (o *Order) AddPayment(p *OrderPayment) {
	p.OrderID = o.ID
	o.Payments = append(o.Payments, p)
}

// Shipment returns the shipment with the given ID, or nil.
func (o *Order) Shipment(id uuid.UUID) *OrderShipment {
	for _, s := range o.Shipments {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// ShipmentType distinguishes physical goods from service shipments.
type ShipmentType string

const (
	ShipmentTypePhysical ShipmentType = "physical"
	ShipmentTypeService  ShipmentType = "service"
)

// ShipmentStatus represents the status of a shipment.
type ShipmentStatus string

const (
	ShipmentStatusInventoryAssigned ShipmentStatus = "inventory_assigned"
	ShipmentStatusAwaitingInventory ShipmentStatus = "awaiting_inventory"
	ShipmentStatusOnHold            ShipmentStatus = "on_hold"
	ShipmentStatusReleased          ShipmentStatus = "released"
	ShipmentStatusShipped           ShipmentStatus = "shipped"
	ShipmentStatusCanceled          ShipmentStatus = "canceled"
)

// Cancellable reports whether a shipment in this status may be canceled.
func (s ShipmentStatus) Cancellable() bool {
	switch s {
	case ShipmentStatusInventoryAssigned, ShipmentStatusAwaitingInventory, ShipmentStatusOnHold:
		return true
	}
	return false
}

// ReadyForFundsCapture reports whether the shipment has progressed far
// enough for its funds to be captured.
func (s ShipmentStatus) ReadyForFundsCapture() bool {
	return s == ShipmentStatusReleased
}

// ItemAvailability describes when a shipment line can ship.
type ItemAvailability string

const (
	AvailabilityInStock   ItemAvailability = "in_stock"
	AvailabilityBackOrder ItemAvailability = "back_order"
	AvailabilityPreOrder  ItemAvailability = "pre_order"
)

// DeferredDelivery reports whether the item ships later than checkout.
func (a ItemAvailability) DeferredDelivery() bool {
	return a == AvailabilityBackOrder || a == AvailabilityPreOrder
}

// OrderShipment groups the lines of an order that ship together and are
// therefore authorized and captured together.
type OrderShipment struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrderID    uuid.UUID      `gorm:"type:uuid;not null;index"`
	ShipmentNo string         `gorm:"uniqueIndex;not null"`
	Type       ShipmentType   `gorm:"not null;default:physical"`
	Status     ShipmentStatus `gorm:"not null;default:inventory_assigned"`
	Total      int64          // in cents
	CreatedAt  time.Time
	UpdatedAt  time.Time

	// Relations
	Lines []*ShipmentLine `gorm:"foreignKey:ShipmentID"`
}

// TableName returns the database table name.
func (OrderShipment) TableName() string {
	return "order_shipments"
}

// IsService reports whether this shipment carries only services.
func (s *OrderShipment) IsService() bool {
	return s.Type == ShipmentTypeService
}

// Cancellable reports whether the shipment may still be canceled.
func (s *OrderShipment) Cancellable() bool {
	return s.Status.Cancellable()
}

// ReadyForFundsCapture reports whether the shipment's funds may be captured.
func (s *OrderShipment) ReadyForFundsCapture() bool {
	return s.Status.ReadyForFundsCapture()
}

// HasUnallocatedDeferredLine reports whether any line is a back-order or
// pre-order item with no inventory allocated yet. Such shipments carry a
// nominal authorization until inventory arrives.
func (s *OrderShipment) HasUnallocatedDeferredLine() bool {
	for _, l := range s.Lines {
		if l.Availability.DeferredDelivery() && !l.Allocated {
			return true
		}
	}
	return false
}

// ShipmentLine is a single SKU on a shipment.
type ShipmentLine struct {
	ID           uuid.UUID        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ShipmentID   uuid.UUID        `gorm:"type:uuid;not null;index"`
	SKU          string           `gorm:"not null"`
	Quantity     int              `gorm:"default:1"`
	UnitPrice    int64            // in cents
	Availability ItemAvailability `gorm:"not null;default:in_stock"`

	// Allocated is set once warehouse inventory has been assigned.
	Allocated bool
}

// TableName returns the database table name.
func (ShipmentLine) TableName() string {
	return "shipment_lines"
}

// Address holds the billing address forwarded to payment gateways.
type Address struct {
	Name       string `json:"name"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	Region     string `json:"region,omitempty"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}
