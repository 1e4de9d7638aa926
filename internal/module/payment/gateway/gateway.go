// Package gateway defines the outbound port to payment processors and
// its implementations. A gateway executes exactly one transaction and
// reports declines as ProcessError so the orchestrator can tell a
// refused payment from a broken integration.
package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/commercekit/payments/internal/model"
)

// ErrProcessing marks a gateway decline or processing failure. The
// payment was attempted and refused; the attempt must still be recorded.
var ErrProcessing = errors.New("payment processing failed")

// ProcessError carries the gateway's decline detail.
type ProcessError struct {
	Gateway model.GatewayType
	Op      string
	Reason  string
	Cause   error
}

func (e *ProcessError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Gateway, e.Op, e.Reason)
}

func (e *ProcessError) Unwrap() error {
	if e.Cause != nil {
		return e.Cause
	}
	return ErrProcessing
}

// Is lets errors.Is match ProcessError against ErrProcessing.
func (e *ProcessError) Is(target error) bool {
	return target == ErrProcessing
}

func processErr(gw model.GatewayType, op, reason string, cause error) error {
	return &ProcessError{Gateway: gw, Op: op, Reason: reason, Cause: cause}
}

// Gateway executes payment transactions against one processor. Each
// call mutates the passed payment in place: on success the gateway
// fills in its reference fields, on decline it returns ProcessError and
// the caller marks the payment failed.
type Gateway interface {
	// Type returns the gateway type.
	Type() model.GatewayType

	// PreAuthorize places a hold for the payment's amount.
	PreAuthorize(ctx context.Context, p *model.OrderPayment, billing *model.Address) error

	// Capture settles a previously placed hold.
	Capture(ctx context.Context, p *model.OrderPayment) error

	// ReversePreAuthorization releases a hold in full.
	ReversePreAuthorization(ctx context.Context, p *model.OrderPayment) error

	// Refund returns captured funds.
	Refund(ctx context.Context, p *model.OrderPayment) error

	// VoidCaptureOrCredit voids a settled capture or credit where the
	// processor supports it, falling back to a refund where it does not.
	VoidCaptureOrCredit(ctx context.Context, p *model.OrderPayment) error

	// FinalizeShipment tells the processor a shipment completed. Most
	// processors need nothing here.
	FinalizeShipment(ctx context.Context, p *model.OrderPayment) error
}
