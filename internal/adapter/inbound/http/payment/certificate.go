package paymenthttp

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/commercekit/payments/internal/model"
	"github.com/commercekit/payments/internal/module/payment"
	"github.com/commercekit/payments/internal/port/inbound"
)

// CertificateHandler handles gift certificate HTTP requests.
type CertificateHandler struct {
	flows *payment.Flows
}

// NewCertificateHandler creates a new certificate handler.
func NewCertificateHandler(flows *payment.Flows) *CertificateHandler {
	return &CertificateHandler{flows: flows}
}

// RegisterRoutes registers certificate routes.
func (h *CertificateHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/certificates/:code/balance", h.GetBalance)
}

// GetBalance handles GET /certificates/:code/balance.
func (h *CertificateHandler) GetBalance(c *gin.Context) {
	code := c.Param("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Code:    "invalid_code",
			Message: "Certificate code required",
		})
		return
	}

	balance, err := h.flows.CertificateBalance(c.Request.Context(), code)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, balance)
}

// Compile-time check
var _ inbound.CertificateHttpPort = (*CertificateHandler)(nil)
