package paymenthttp

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/commercekit/payments/internal/domain/ledger"
	"github.com/commercekit/payments/internal/model"
	"github.com/commercekit/payments/internal/module/payment"
	"github.com/commercekit/payments/internal/module/payment/gateway"
)

// handleError maps payment and ledger errors to HTTP responses.
func handleError(c *gin.Context, err error) {
	var statusCode int
	var errorCode string
	var message string

	switch {
	case errors.Is(err, payment.ErrOrderNotFound):
		statusCode = http.StatusNotFound
		errorCode = "order_not_found"
		message = "Order not found"

	case errors.Is(err, payment.ErrShipmentNotFound):
		statusCode = http.StatusNotFound
		errorCode = "shipment_not_found"
		message = "Shipment not found"

	case errors.Is(err, ledger.ErrCertificateNotFound):
		statusCode = http.StatusNotFound
		errorCode = "certificate_not_found"
		message = "Gift certificate not found"

	case errors.Is(err, payment.ErrOrderNotCancellable):
		statusCode = http.StatusConflict
		errorCode = "order_not_cancellable"
		message = "Order can no longer be canceled"

	case errors.Is(err, payment.ErrShipmentNotCancellable):
		statusCode = http.StatusConflict
		errorCode = "shipment_not_cancellable"
		message = "Shipment can no longer be canceled"

	case errors.Is(err, payment.ErrShipmentNotCapturable):
		statusCode = http.StatusConflict
		errorCode = "shipment_not_capturable"
		message = "Shipment is not ready for funds capture"

	case errors.Is(err, payment.ErrInsufficientAuthorization):
		statusCode = http.StatusPaymentRequired
		errorCode = "insufficient_authorization"
		message = "The instrument cannot cover the order total"

	case errors.Is(err, ledger.ErrInsufficientBalance):
		statusCode = http.StatusPaymentRequired
		errorCode = "insufficient_balance"
		message = "Not enough balance on this gift certificate"

	case errors.Is(err, payment.ErrNoMatchingAuthorization):
		statusCode = http.StatusBadRequest
		errorCode = "no_matching_authorization"
		message = "No matching authorization payment found"

	case errors.Is(err, payment.ErrNoCapturePayment):
		statusCode = http.StatusBadRequest
		errorCode = "no_capture_payment"
		message = "No captured payment to refund"

	case errors.Is(err, ledger.ErrLedgerCorrupt):
		statusCode = http.StatusInternalServerError
		errorCode = "ledger_corrupt"
		message = "Gift certificate ledger is inconsistent"

	default:
		statusCode = http.StatusInternalServerError
		errorCode = "internal_error"
		message = "Internal server error"
	}

	c.JSON(statusCode, model.ErrorResponse{
		Code:    errorCode,
		Message: message,
	})
}

// respondResult writes the payments an operation touched. Declines come
// back as 402 with the failed attempts still listed; anything else that
// went wrong is mapped by handleError.
func respondResult(c *gin.Context, res *payment.Result, err error) {
	if err != nil && !errors.Is(err, gateway.ErrProcessing) {
		handleError(c, err)
		return
	}

	resp := model.PaymentResultResponse{Status: string(model.PaymentStatusApproved)}
	if res != nil {
		resp.Status = string(res.Code())
		resp.Payments = res.Processed
	}

	status := http.StatusOK
	if err != nil {
		status = http.StatusPaymentRequired
	}
	c.JSON(status, resp)
}
