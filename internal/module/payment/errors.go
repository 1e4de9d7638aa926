package payment

import "errors"

// Module errors.
var (
	ErrOrderNotFound             = errors.New("order not found")
	ErrShipmentNotFound          = errors.New("shipment not found")
	ErrOrderNotCancellable       = errors.New("order is not cancellable")
	ErrShipmentNotCancellable    = errors.New("shipment is not cancellable")
	ErrShipmentNotCapturable     = errors.New("shipment is not ready for funds capture")
	ErrNoMatchingAuthorization   = errors.New("no matching authorization payment found")
	ErrNoCapturePayment          = errors.New("no capture payment found for shipment")
	ErrInsufficientAuthorization = errors.New("authorized amount does not cover the order")
)
