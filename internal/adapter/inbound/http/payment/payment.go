package paymenthttp

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/commercekit/payments/internal/model"
	"github.com/commercekit/payments/internal/module/payment"
	"github.com/commercekit/payments/internal/port/inbound"
)

// PaymentHandler handles payment flow HTTP requests.
type PaymentHandler struct {
	flows *payment.Flows
}

// NewPaymentHandler creates a new payment handler.
func NewPaymentHandler(flows *payment.Flows) *PaymentHandler {
	return &PaymentHandler{flows: flows}
}

// RegisterRoutes registers payment routes.
func (h *PaymentHandler) RegisterRoutes(r *gin.RouterGroup) {
	payments := r.Group("/payments")
	{
		payments.POST("/initialize", h.InitializePayments)
		payments.POST("/adjust", h.AdjustShipment)
		payments.POST("/capture", h.CaptureShipment)
	}
	orders := r.Group("/orders")
	{
		orders.POST("/:id/cancel", h.CancelOrder)
		orders.POST("/:id/shipments/:shipment_id/cancel", h.CancelShipment)
		orders.GET("/:id/shipments/:shipment_id/authorizations", h.ListShipmentAuthorizations)
	}
}

// InitializePayments handles POST /payments/initialize.
func (h *PaymentHandler) InitializePayments(c *gin.Context) {
	var req model.InitializePaymentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Code:    "invalid_input",
			Message: err.Error(),
		})
		return
	}

	res, err := h.flows.Initialize(c.Request.Context(), &req)
	respondResult(c, res, err)
}

// AdjustShipment handles POST /payments/adjust.
func (h *PaymentHandler) AdjustShipment(c *gin.Context) {
	var req model.AdjustShipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Code:    "invalid_input",
			Message: err.Error(),
		})
		return
	}

	res, err := h.flows.AdjustShipment(c.Request.Context(), &req)
	respondResult(c, res, err)
}

// CaptureShipment handles POST /payments/capture.
func (h *PaymentHandler) CaptureShipment(c *gin.Context) {
	var req model.CaptureShipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Code:    "invalid_input",
			Message: err.Error(),
		})
		return
	}

	res, err := h.flows.CaptureShipment(c.Request.Context(), &req)
	respondResult(c, res, err)
}

// CancelOrder handles POST /orders/:id/cancel.
func (h *PaymentHandler) CancelOrder(c *gin.Context) {
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}

	res, err := h.flows.CancelOrder(c.Request.Context(), orderID)
	respondResult(c, res, err)
}

// CancelShipment handles POST /orders/:id/shipments/:shipment_id/cancel.
func (h *PaymentHandler) CancelShipment(c *gin.Context) {
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}
	shipmentID, ok := pathID(c, "shipment_id")
	if !ok {
		return
	}

	res, err := h.flows.CancelShipment(c.Request.Context(), orderID, shipmentID)
	respondResult(c, res, err)
}

// ListShipmentAuthorizations handles GET /orders/:id/shipments/:shipment_id/authorizations.
func (h *PaymentHandler) ListShipmentAuthorizations(c *gin.Context) {
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}
	shipmentID, ok := pathID(c, "shipment_id")
	if !ok {
		return
	}

	all := c.Query("all") == "true"
	auths, err := h.flows.ShipmentAuthorizations(c.Request.Context(), orderID, shipmentID, all)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"authorizations": auths})
}

// pathID parses a UUID path parameter, responding 400 on failure.
func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Code:    "invalid_id",
			Message: "Invalid " + name,
		})
		return uuid.Nil, false
	}
	return id, true
}

// Compile-time check
var _ inbound.PaymentHttpPort = (*PaymentHandler)(nil)
