package paymenthttp

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/commercekit/payments/internal/model"
	"github.com/commercekit/payments/internal/module/payment"
	"github.com/commercekit/payments/internal/port/inbound"
)

// RefundHandler handles refund HTTP requests.
type RefundHandler struct {
	flows *payment.Flows
}

// NewRefundHandler creates a new refund handler.
func NewRefundHandler(flows *payment.Flows) *RefundHandler {
	return &RefundHandler{flows: flows}
}

// RegisterRoutes registers refund routes (admin only).
func (h *RefundHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/payments/refund", h.RefundShipment)
}

// RefundShipment handles POST /payments/refund.
func (h *RefundHandler) RefundShipment(c *gin.Context) {
	var req model.RefundShipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Code:    "invalid_input",
			Message: err.Error(),
		})
		return
	}

	res, err := h.flows.RefundShipment(c.Request.Context(), &req)
	respondResult(c, res, err)
}

// Compile-time check
var _ inbound.RefundHttpPort = (*RefundHandler)(nil)
