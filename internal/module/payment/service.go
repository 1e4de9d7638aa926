// Package payment orchestrates authorization, capture, reversal and
// refund across an order's payment instruments. It owns the sequencing
// rules: authorize before reversing during adjustment, capture before
// releasing unused stored value, and record every attempt in the
// order's history whether it succeeded or not.
package payment

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/commercekit/payments/internal/domain/money"
	"github.com/commercekit/payments/internal/domain/orderpay"
	"github.com/commercekit/payments/internal/model"
	"github.com/commercekit/payments/internal/module/payment/gateway"
	"github.com/commercekit/payments/internal/module/payment/handler"
	"github.com/commercekit/payments/internal/shared/metrics"
)

// Service implements the payment orchestration operations.
type Service struct {
	handlers *handler.Registry
	gateways *gateway.Registry
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewService creates a new payment orchestration service.
func NewService(handlers *handler.Registry, gateways *gateway.Registry, m *metrics.Metrics, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		handlers: handlers,
		gateways: gateways,
		metrics:  m,
		logger:   logger,
	}
}

// InitializePayments places the order's opening authorizations. Every
// shipment gets its own holds: gift certificates reserve first, then
// the template instrument covers the shipment's remainder. Hosted-page
// holds already exist on the processor side and are recorded as one
// order-level authorization instead. Unless the covering instrument can
// authorize partly, the drafts must cover the full requirement. A
// decline stops the batch and leaves earlier approvals standing; only
// an integration fault rolls fresh approvals back.
func (s *Service) InitializePayments(ctx context.Context, o *model.Order, template *model.OrderPayment, certs ...*model.GiftCertificate) (*Result, error) {
	res := &Result{}

	var gcHandler handler.Handler
	if len(certs) > 0 {
		var err error
		gcHandler, err = s.handlers.Get(model.MethodGiftCertificate)
		if err != nil {
			return res, err
		}
	}
	var mainHandler handler.Handler
	if template != nil {
		var err error
		mainHandler, err = s.handlers.Get(template.Method)
		if err != nil {
			return res, err
		}
	}

	var drafts []*model.OrderPayment
	for _, sh := range o.Shipments {
		var scoped []*model.OrderPayment
		for _, cert := range certs {
			gcTemplate := &model.OrderPayment{
				OrderID:             o.ID,
				Method:              model.MethodGiftCertificate,
				Currency:            o.Currency,
				GiftCertificateCode: cert.Code,
				GiftCertificate:     cert,
			}
			ds, err := gcHandler.AuthorizeShipmentPayments(ctx, gcTemplate, o, sh, scoped)
			if err != nil {
				return res, err
			}
			scoped = append(scoped, ds...)
		}
		if mainHandler != nil && !template.Method.ExternallyAuthorized() {
			ds, err := mainHandler.AuthorizeShipmentPayments(ctx, template, o, sh, scoped)
			if err != nil {
				return res, err
			}
			scoped = append(scoped, ds...)
		}
		drafts = append(drafts, scoped...)
	}
	if mainHandler != nil && template.Method.ExternallyAuthorized() {
		ds, err := mainHandler.AuthorizeOrderPayments(ctx, template, o, drafts)
		if err != nil {
			return res, err
		}
		drafts = append(drafts, ds...)
	}

	// Stored value on its own may cover only part of the order; an
	// instrument that cannot authorize partly may not.
	if mainHandler != nil && !mainHandler.CanAuthorizePartly() {
		required := int64(0)
		for _, sh := range o.Shipments {
			required += orderpay.RequiredAuthorizationAmount(o, sh).Amount()
		}
		drafted := int64(0)
		for _, d := range drafts {
			drafted += d.Amount
		}
		if drafted < required {
			return res, fmt.Errorf("%w: required %d, authorized %d",
				ErrInsufficientAuthorization, required, drafted)
		}
	}

	for _, draft := range drafts {
		if err := s.execute(ctx, o, draft, res); err != nil {
			if !errors.Is(err, gateway.ErrProcessing) {
				s.rollBack(ctx, o, res.Processed)
			}
			return res, err
		}
	}

	s.logger.Info("order payments initialized",
		zap.String("order", o.OrderNo),
		zap.Int("payments", len(res.Processed)))
	return res, nil
}

// InitializeShipmentPayment authorizes a shipment added to the order
// after its payments were initialized. The template instrument must
// cover the shipment in full, stored value included.
func (s *Service) InitializeShipmentPayment(ctx context.Context, o *model.Order, sh *model.OrderShipment, template *model.OrderPayment) (*Result, error) {
	res := &Result{}
	h, err := s.handlers.Get(template.Method)
	if err != nil {
		return res, err
	}

	drafts, err := h.AuthorizeShipmentPayments(ctx, template, o, sh, nil)
	if err != nil {
		return res, err
	}
	required := orderpay.RequiredAuthorizationAmount(o, sh).Amount()
	drafted := int64(0)
	for _, d := range drafts {
		drafted += d.Amount
	}
	if drafted < required {
		return res, fmt.Errorf("%w: required %d, authorized %d",
			ErrInsufficientAuthorization, required, drafted)
	}

	for _, draft := range drafts {
		if err := s.execute(ctx, o, draft, res); err != nil {
			if !errors.Is(err, gateway.ErrProcessing) {
				s.rollBack(ctx, o, res.Processed)
			}
			return res, err
		}
	}

	s.logger.Info("shipment payments initialized",
		zap.String("order", o.OrderNo),
		zap.String("shipment", sh.ShipmentNo),
		zap.Int("payments", len(res.Processed)))
	return res, nil
}

// AdditionalAuthAmount returns how much more must be reserved for the
// shipment. Zero when the holds already cover it, or when the active
// conventional authorization's handler can stretch the hold to the
// required amount at capture time.
func (s *Service) AdditionalAuthAmount(o *model.Order, sh *model.OrderShipment) (money.Money, error) {
	additional := orderpay.AdditionalAuthorizationAmount(o, sh)
	if additional.IsZero() {
		return additional, nil
	}
	if conv := orderpay.ActiveConventionalAuthorization(o, sh); conv != nil {
		h, err := s.handlers.Get(conv.Method)
		if err != nil {
			return money.Money{}, err
		}
		// The conventional instrument owes whatever stored value does
		// not hold.
		need := orderpay.RequiredAuthorizationAmount(o, sh).Amount()
		for _, p := range orderpay.ActiveAuthorizations(o, sh) {
			if p.Method.IsGiftCertificate() {
				need -= p.Amount
			}
		}
		if h.CanCapture(conv, money.New(need, o.Currency)) {
			return money.Zero(o.Currency), nil
		}
	}
	return additional, nil
}

// AdjustShipmentPayments brings the shipment's held amount in line with
// its current total. The replacement authorization is placed first and
// the stale ones reversed only after it succeeds, so the funds never go
// unprotected. Returns a nil result when no adjustment is needed.
func (s *Service) AdjustShipmentPayments(ctx context.Context, o *model.Order, sh *model.OrderShipment) (*Result, error) {
	return s.AdjustShipmentPaymentsWith(ctx, o, sh, nil)
}

// AdjustShipmentPaymentsWith is AdjustShipmentPayments with an explicit
// replacement instrument. A nil template falls back to the most recent
// active authorization.
func (s *Service) AdjustShipmentPaymentsWith(ctx context.Context, o *model.Order, sh *model.OrderShipment, template *model.OrderPayment) (*Result, error) {
	additional, err := s.AdditionalAuthAmount(o, sh)
	if err != nil {
		return &Result{}, err
	}
	if additional.IsZero() {
		return nil, nil
	}
	actives := orderpay.ActiveAuthorizations(o, sh)
	if template == nil {
		template = orderpay.LastAuthorization(o, sh)
		if template == nil {
			return &Result{}, ErrNoMatchingAuthorization
		}
	}

	// Collect the reversals before anything new is authorized; the
	// list must not include the authorization about to be created.
	var reversals []*model.OrderPayment
	for _, auth := range actives {
		h, err := s.handlers.Get(auth.Method)
		if err != nil {
			return &Result{}, err
		}
		reversals = append(reversals, h.ReverseDraft(auth))
	}

	h, err := s.handlers.Get(template.Method)
	if err != nil {
		return &Result{}, err
	}
	drafts, err := h.AuthorizeShipmentPayments(ctx, template, o, sh, nil)
	if err != nil {
		return &Result{}, err
	}

	// The replacement must cover the shipment in full before any stale
	// hold is touched; a short draft would reverse real coverage into a
	// smaller hold.
	required := orderpay.RequiredAuthorizationAmount(o, sh).Amount()
	drafted := int64(0)
	for _, d := range drafts {
		drafted += d.Amount
	}
	if drafted < required {
		return &Result{}, fmt.Errorf("%w: required %d, authorized %d",
			ErrInsufficientAuthorization, required, drafted)
	}

	res := &Result{}
	for _, draft := range drafts {
		if err := s.execute(ctx, o, draft, res); err != nil {
			return res, err
		}
	}
	// New hold is in place; releasing the stale ones is safe now.
	for _, rev := range reversals {
		if err := s.execute(ctx, o, rev, res); err != nil {
			return res, err
		}
	}

	s.logger.Info("shipment payments adjusted",
		zap.String("order", o.OrderNo),
		zap.String("shipment", sh.ShipmentNo),
		zap.Int("payments", len(res.Processed)))
	return res, nil
}

// ProcessShipmentPayment settles a shipment that is ready to ship:
// adjust the holds, capture what is owed, then release whatever stored
// value the capture did not use. Stored value is captured before the
// conventional instrument.
func (s *Service) ProcessShipmentPayment(ctx context.Context, o *model.Order, sh *model.OrderShipment) (*Result, error) {
	if !sh.ReadyForFundsCapture() {
		return &Result{}, fmt.Errorf("%w: shipment %s in status %s",
			ErrShipmentNotCapturable, sh.ShipmentNo, sh.Status)
	}

	res := &Result{}
	adjusted, err := s.AdjustShipmentPayments(ctx, o, sh)
	res.merge(adjusted)
	if err != nil {
		return res, err
	}

	toCapture := orderpay.CaptureAmount(o, sh)
	actives := orderpay.ActiveAuthorizations(o, sh)
	var unused []*model.OrderPayment
	remaining := toCapture.Amount()
	for _, auth := range actives {
		if remaining <= 0 {
			// Only amounts above zero are worth a transaction.
			unused = append(unused, auth)
			continue
		}
		amount := remaining
		if auth.Amount < amount {
			amount = auth.Amount
		}
		h, err := s.handlers.Get(auth.Method)
		if err != nil {
			return res, err
		}
		draft := h.CaptureDraft(auth, money.New(amount, o.Currency))
		if err := s.execute(ctx, o, draft, res); err != nil {
			return res, err
		}
		remaining -= amount
	}
	if remaining > 0 {
		return res, fmt.Errorf("%w: %d uncaptured for shipment %s",
			ErrNoMatchingAuthorization, remaining, sh.ShipmentNo)
	}

	// Capture succeeded; stored value the capture never touched goes
	// back to the certificates.
	for _, auth := range unused {
		if !auth.Method.IsGiftCertificate() {
			continue
		}
		h, err := s.handlers.Get(auth.Method)
		if err != nil {
			return res, err
		}
		if err := s.execute(ctx, o, h.ReverseDraft(auth), res); err != nil {
			return res, err
		}
	}

	s.logger.Info("shipment payment processed",
		zap.String("order", o.OrderNo),
		zap.String("shipment", sh.ShipmentNo),
		zap.Int64("captured", toCapture.Amount()))
	return res, nil
}

// CancelShipmentPayments releases the holds of a cancellable shipment.
// Order-level authorizations stay: other shipments may still need them.
func (s *Service) CancelShipmentPayments(ctx context.Context, o *model.Order, sh *model.OrderShipment) (*Result, error) {
	if !sh.Cancellable() {
		return &Result{}, fmt.Errorf("%w: shipment %s in status %s",
			ErrShipmentNotCancellable, sh.ShipmentNo, sh.Status)
	}
	res := &Result{}
	if err := s.reverseActives(ctx, o, sh, false, res); err != nil {
		return res, err
	}
	return res, nil
}

// CancelOrderPayments releases every hold on a cancellable order. Each
// shipment is attempted even when an earlier one fails; everything
// processed lands in the result and the first failure is reported.
func (s *Service) CancelOrderPayments(ctx context.Context, o *model.Order) (*Result, error) {
	if !o.Cancellable() {
		return &Result{}, fmt.Errorf("%w: order %s in status %s",
			ErrOrderNotCancellable, o.OrderNo, o.Status)
	}
	res := &Result{}
	var firstErr error
	for _, sh := range o.Shipments {
		if err := s.reverseActives(ctx, o, sh, false, res); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := s.reverseOrderLevel(ctx, o, res); err != nil && firstErr == nil {
		firstErr = err
	}
	return res, firstErr
}

// RefundShipmentPayment returns captured funds for a shipment. With a
// nil template the refund goes back to the instrument that was
// captured; a template redirects it to another instrument.
func (s *Service) RefundShipmentPayment(ctx context.Context, o *model.Order, sh *model.OrderShipment, template *model.OrderPayment, amount money.Money) (*Result, error) {
	res := &Result{}
	source := template
	if source == nil {
		capture := orderpay.CapturePayment(o, sh)
		if capture == nil {
			return res, fmt.Errorf("%w: shipment %s", ErrNoCapturePayment, sh.ShipmentNo)
		}
		if capture.Amount < amount.Amount() {
			return res, fmt.Errorf("refund %d exceeds captured %d for shipment %s",
				amount.Amount(), capture.Amount, sh.ShipmentNo)
		}
		source = capture
	}
	h, err := s.handlers.Get(source.Method)
	if err != nil {
		return res, err
	}
	draft := h.RefundDraft(source, amount)
	draft.OrderID = o.ID
	if draft.ShipmentID == nil {
		draft.ShipmentID = &sh.ID
	}
	if err := s.execute(ctx, o, draft, res); err != nil {
		return res, err
	}

	s.logger.Info("shipment payment refunded",
		zap.String("order", o.OrderNo),
		zap.String("shipment", sh.ShipmentNo),
		zap.Int64("amount", amount.Amount()))
	return res, nil
}

// IsRefundable reports whether a recorded payment can seed a refund.
// Only approved captures qualify.
func IsRefundable(p *model.OrderPayment) bool {
	return p != nil &&
		p.TransactionType == model.TransactionCapture &&
		p.Status == model.PaymentStatusApproved
}

// RollBackPayments undoes freshly approved authorizations after a later
// step failed. Best effort: failures are logged and swallowed, since
// the caller is already propagating the original error.
func (s *Service) RollBackPayments(ctx context.Context, o *model.Order, payments []*model.OrderPayment) {
	s.rollBack(ctx, o, payments)
}

// FinalizeShipment tells the conventional instrument's processor the
// shipment completed. Processors that need nothing make this a no-op;
// failures are logged, never propagated.
func (s *Service) FinalizeShipment(ctx context.Context, o *model.Order, sh *model.OrderShipment) {
	capture := orderpay.CapturePayment(o, sh)
	if capture == nil || capture.Method.IsGiftCertificate() {
		return
	}
	gw, err := s.gateways.ForMethod(capture.Method)
	if err != nil {
		s.logger.Warn("finalize shipment skipped", zap.Error(err))
		return
	}
	if err := gw.FinalizeShipment(ctx, capture); err != nil {
		s.logger.Warn("finalize shipment failed",
			zap.String("order", o.OrderNo),
			zap.String("shipment", sh.ShipmentNo),
			zap.Error(err))
	}
}

// reverseActives reverses the shipment's active authorizations,
// optionally including order-level ones.
func (s *Service) reverseActives(ctx context.Context, o *model.Order, sh *model.OrderShipment, includeOrderLevel bool, res *Result) error {
	for _, auth := range orderpay.ActiveAuthorizations(o, sh) {
		if auth.OrderLevel() && !includeOrderLevel {
			continue
		}
		h, err := s.handlers.Get(auth.Method)
		if err != nil {
			return err
		}
		if err := s.execute(ctx, o, h.ReverseDraft(auth), res); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) reverseOrderLevel(ctx context.Context, o *model.Order, res *Result) error {
	for _, auth := range orderpay.ActiveAuthorizations(o, nil) {
		if !auth.OrderLevel() {
			continue
		}
		h, err := s.handlers.Get(auth.Method)
		if err != nil {
			return err
		}
		if err := s.execute(ctx, o, h.ReverseDraft(auth), res); err != nil {
			return err
		}
	}
	return nil
}

// execute runs one draft against its gateway and appends the outcome to
// the order's history. The append happens on success and on decline
// alike: an attempted payment that left no record is an audit hole.
func (s *Service) execute(ctx context.Context, o *model.Order, draft *model.OrderPayment, res *Result) error {
	gw, err := s.gateways.ForMethod(draft.Method)
	if err != nil {
		return err
	}

	opErr := s.dispatch(ctx, gw, o, draft)
	if opErr != nil && !errors.Is(opErr, gateway.ErrProcessing) {
		// Integration fault: nothing was attempted downstream, so no
		// record is written and the operation aborts.
		return opErr
	}

	if opErr != nil {
		draft.Status = model.PaymentStatusFailed
		msg := opErr.Error()
		draft.FailureMessage = &msg
		res.Cause = opErr
	} else {
		draft.Status = model.PaymentStatusApproved
	}
	o.AddPayment(draft)
	res.record(draft)
	if s.metrics != nil {
		s.metrics.RecordPayment(string(draft.TransactionType), string(draft.Method), string(draft.Status))
	}
	if opErr != nil {
		s.logger.Warn("payment declined",
			zap.String("order", o.OrderNo),
			zap.String("transaction_type", string(draft.TransactionType)),
			zap.String("method", string(draft.Method)),
			zap.Int64("amount", draft.Amount),
			zap.Error(opErr))
		return opErr
	}
	return nil
}

func (s *Service) dispatch(ctx context.Context, gw gateway.Gateway, o *model.Order, draft *model.OrderPayment) error {
	switch draft.TransactionType {
	case model.TransactionAuthorization:
		if draft.Method.ExternallyAuthorized() {
			// The hold already exists on the processor side; only the
			// record is written here.
			if draft.AuthorizationCode == "" {
				draft.AuthorizationCode = draft.ReferenceID
			}
			return nil
		}
		return gw.PreAuthorize(ctx, draft, &o.BillingAddress)
	case model.TransactionReverseAuthorization:
		return gw.ReversePreAuthorization(ctx, draft)
	case model.TransactionCapture:
		return gw.Capture(ctx, draft)
	case model.TransactionCredit:
		return gw.Refund(ctx, draft)
	default:
		return fmt.Errorf("unsupported transaction type %s", draft.TransactionType)
	}
}

// rollBack compensates approved payments: authorizations are reversed,
// captures are voided. Anything else has nothing to undo.
func (s *Service) rollBack(ctx context.Context, o *model.Order, payments []*model.OrderPayment) {
	for _, p := range payments {
		if p.Status != model.PaymentStatusApproved ||
			(!p.IsAuthorization() && p.TransactionType != model.TransactionCapture) {
			if s.metrics != nil {
				s.metrics.RollbacksTotal.WithLabelValues("skipped").Inc()
			}
			continue
		}
		h, err := s.handlers.Get(p.Method)
		if err != nil {
			s.logger.Error("rollback skipped", zap.Error(err))
			continue
		}
		gw, err := s.gateways.ForMethod(p.Method)
		if err != nil {
			s.logger.Error("rollback skipped", zap.Error(err))
			continue
		}

		var undo *model.OrderPayment
		var undoErr error
		var outcome string
		if p.IsAuthorization() {
			undo = h.ReverseDraft(p)
			undoErr = gw.ReversePreAuthorization(ctx, undo)
			outcome = "reversed"
		} else {
			undo = h.RefundDraft(p, money.New(p.Amount, p.Currency))
			undoErr = gw.VoidCaptureOrCredit(ctx, undo)
			outcome = "voided"
		}
		if undoErr != nil {
			if s.metrics != nil {
				s.metrics.RollbacksTotal.WithLabelValues("failed").Inc()
			}
			s.logger.Error("rollback failed",
				zap.String("order", o.OrderNo),
				zap.String("authorization_code", p.AuthorizationCode),
				zap.Error(undoErr))
			continue
		}
		undo.Status = model.PaymentStatusApproved
		o.AddPayment(undo)
		if s.metrics != nil {
			s.metrics.RollbacksTotal.WithLabelValues(outcome).Inc()
		}
	}
}
