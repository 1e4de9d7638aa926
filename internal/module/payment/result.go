package payment

import "github.com/commercekit/payments/internal/model"

// Result reports every payment an operation touched, in execution
// order. Failed attempts stay in the list: the order's history must
// show everything that was tried, not just what worked.
type Result struct {
	Processed []*model.OrderPayment

	// Cause holds the gateway decline that stopped the operation, if
	// one did.
	Cause error
}

// Code derives the overall outcome from the processed payments. A
// failed reversal does not fail the operation as a whole; any other
// failed transaction does.
func (r *Result) Code() model.PaymentStatus {
	for _, p := range r.Processed {
		if p.TransactionType == model.TransactionReverseAuthorization {
			continue
		}
		if p.Status == model.PaymentStatusFailed {
			return model.PaymentStatusFailed
		}
	}
	return model.PaymentStatusApproved
}

func (r *Result) record(p *model.OrderPayment) {
	r.Processed = append(r.Processed, p)
}

// merge appends another result's payments.
func (r *Result) merge(other *Result) {
	if other == nil {
		return
	}
	r.Processed = append(r.Processed, other.Processed...)
	if r.Cause == nil {
		r.Cause = other.Cause
	}
}
