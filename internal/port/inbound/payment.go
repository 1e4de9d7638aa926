package inbound

import "github.com/gin-gonic/gin"

// PaymentHttpPort defines HTTP handler interface for payment flows.
type PaymentHttpPort interface {
	// InitializePayments handles POST /v1/payments/initialize.
	InitializePayments(c *gin.Context)

	// AdjustShipment handles POST /v1/payments/adjust.
	AdjustShipment(c *gin.Context)

	// CaptureShipment handles POST /v1/payments/capture.
	CaptureShipment(c *gin.Context)

	// CancelShipment handles POST /v1/orders/:id/shipments/:shipment_id/cancel.
	CancelShipment(c *gin.Context)

	// CancelOrder handles POST /v1/orders/:id/cancel.
	CancelOrder(c *gin.Context)

	// ListShipmentAuthorizations handles GET /v1/orders/:id/shipments/:shipment_id/authorizations.
	ListShipmentAuthorizations(c *gin.Context)
}

// RefundHttpPort defines HTTP handler interface for refunds.
type RefundHttpPort interface {
	// RefundShipment handles POST /v1/payments/refund.
	RefundShipment(c *gin.Context)
}

// CertificateHttpPort defines HTTP handler interface for gift certificates.
type CertificateHttpPort interface {
	// GetBalance handles GET /v1/certificates/:code/balance.
	GetBalance(c *gin.Context)
}
