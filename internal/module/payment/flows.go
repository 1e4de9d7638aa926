package payment

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/commercekit/payments/internal/domain/ledger"
	"github.com/commercekit/payments/internal/domain/money"
	"github.com/commercekit/payments/internal/domain/orderpay"
	"github.com/commercekit/payments/internal/model"
	"github.com/commercekit/payments/internal/port/outbound"
)

// Flows ties the orchestration engine to storage: each flow loads the
// order, runs the engine, and appends whatever the engine processed to
// the order's payment history before reporting the outcome.
type Flows struct {
	engine *Service
	orders outbound.OrderDatabasePort
	certs  outbound.CertificateDatabasePort
	ledger *ledger.Service
	logger *zap.Logger
}

// NewFlows creates the payment flows.
func NewFlows(engine *Service, orders outbound.OrderDatabasePort, certs outbound.CertificateDatabasePort, led *ledger.Service, logger *zap.Logger) *Flows {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Flows{
		engine: engine,
		orders: orders,
		certs:  certs,
		ledger: led,
		logger: logger,
	}
}

// Initialize authorizes an order's opening payments.
func (f *Flows) Initialize(ctx context.Context, req *model.InitializePaymentsRequest) (*Result, error) {
	o, err := f.loadOrder(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}
	template, err := f.buildTemplate(ctx, o, req.Method, req.Code, req.Token)
	if err != nil {
		return nil, err
	}
	certs := make([]*model.GiftCertificate, 0, len(req.GiftCertificates))
	for _, code := range req.GiftCertificates {
		cert, err := f.certs.FindByCode(ctx, code)
		if err != nil {
			return nil, err
		}
		certs = append(certs, cert)
	}

	before := len(o.Payments)
	res, engineErr := f.engine.InitializePayments(ctx, o, template, certs...)
	if err := f.persist(ctx, o, before); err != nil {
		return res, err
	}
	return res, engineErr
}

// AdjustShipment re-authorizes a shipment whose total changed. With a
// method in the request the new hold goes on that instrument instead of
// the one already authorized.
func (f *Flows) AdjustShipment(ctx context.Context, req *model.AdjustShipmentRequest) (*Result, error) {
	o, sh, err := f.loadShipment(ctx, req.OrderID, req.ShipmentID)
	if err != nil {
		return nil, err
	}
	var template *model.OrderPayment
	if req.Method != "" {
		template, err = f.buildTemplate(ctx, o, req.Method, req.Code, "")
		if err != nil {
			return nil, err
		}
	}

	before := len(o.Payments)
	res, engineErr := f.engine.AdjustShipmentPaymentsWith(ctx, o, sh, template)
	if err := f.persist(ctx, o, before); err != nil {
		return res, err
	}
	return res, engineErr
}

// CaptureShipment settles a shipment that is ready to ship.
func (f *Flows) CaptureShipment(ctx context.Context, req *model.CaptureShipmentRequest) (*Result, error) {
	o, sh, err := f.loadShipment(ctx, req.OrderID, req.ShipmentID)
	if err != nil {
		return nil, err
	}

	before := len(o.Payments)
	res, engineErr := f.engine.ProcessShipmentPayment(ctx, o, sh)
	if err := f.persist(ctx, o, before); err != nil {
		return res, err
	}
	if engineErr != nil {
		return res, engineErr
	}

	f.engine.FinalizeShipment(ctx, o, sh)
	if err := f.orders.UpdateShipmentStatus(ctx, sh.ID, model.ShipmentStatusShipped); err != nil {
		return res, err
	}
	return res, nil
}

// CancelShipment releases a cancellable shipment's holds and marks it
// canceled.
func (f *Flows) CancelShipment(ctx context.Context, orderID, shipmentID uuid.UUID) (*Result, error) {
	o, sh, err := f.loadShipment(ctx, orderID, shipmentID)
	if err != nil {
		return nil, err
	}

	before := len(o.Payments)
	res, engineErr := f.engine.CancelShipmentPayments(ctx, o, sh)
	if err := f.persist(ctx, o, before); err != nil {
		return res, err
	}
	if engineErr != nil {
		return res, engineErr
	}
	if err := f.orders.UpdateShipmentStatus(ctx, sh.ID, model.ShipmentStatusCanceled); err != nil {
		return res, err
	}
	return res, nil
}

// CancelOrder releases every hold on a cancellable order and marks the
// order and its cancellable shipments canceled.
func (f *Flows) CancelOrder(ctx context.Context, orderID uuid.UUID) (*Result, error) {
	o, err := f.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	before := len(o.Payments)
	res, engineErr := f.engine.CancelOrderPayments(ctx, o)
	if err := f.persist(ctx, o, before); err != nil {
		return res, err
	}
	if engineErr != nil {
		return res, engineErr
	}
	for _, sh := range o.Shipments {
		if !sh.Cancellable() {
			continue
		}
		if err := f.orders.UpdateShipmentStatus(ctx, sh.ID, model.ShipmentStatusCanceled); err != nil {
			return res, err
		}
	}
	if err := f.orders.UpdateOrderStatus(ctx, o.ID, model.OrderStatusCanceled); err != nil {
		return res, err
	}
	return res, nil
}

// RefundShipment returns captured funds. Without a method in the
// request the refund goes back to the captured instrument.
func (f *Flows) RefundShipment(ctx context.Context, req *model.RefundShipmentRequest) (*Result, error) {
	o, sh, err := f.loadShipment(ctx, req.OrderID, req.ShipmentID)
	if err != nil {
		return nil, err
	}

	// Without a method the engine refunds the shipment's captured
	// instrument. With one, find that instrument's capture so the
	// refund carries its authorization code.
	var template *model.OrderPayment
	if req.Method != "" {
		template = capturedInstrument(o, sh, req.Method, req.Code)
		if template == nil {
			return nil, fmt.Errorf("%w: no %s capture on shipment %s",
				ErrNoCapturePayment, req.Method, sh.ShipmentNo)
		}
	}

	before := len(o.Payments)
	res, engineErr := f.engine.RefundShipmentPayment(ctx, o, sh, template, money.New(req.Amount, o.Currency))
	if err := f.persist(ctx, o, before); err != nil {
		return res, err
	}
	return res, engineErr
}

// CertificateBalance reports a gift certificate's available balance.
func (f *Flows) CertificateBalance(ctx context.Context, code string) (*model.BalanceResponse, error) {
	cert, err := f.certs.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	balance, err := f.ledger.Balance(ctx, cert)
	if err != nil {
		return nil, err
	}
	return &model.BalanceResponse{
		Code:     cert.Code,
		Balance:  balance.Amount(),
		Currency: balance.Currency(),
	}, nil
}

// ShipmentAuthorizations lists the shipment's authorizations, stored
// value first. By default only active holds are listed; with all set,
// captured authorizations show up too.
func (f *Flows) ShipmentAuthorizations(ctx context.Context, orderID, shipmentID uuid.UUID, all bool) ([]*model.OrderPayment, error) {
	o, sh, err := f.loadShipment(ctx, orderID, shipmentID)
	if err != nil {
		return nil, err
	}
	if all {
		return orderpay.AllAuthorizations(o, sh), nil
	}
	return orderpay.ActiveAuthorizations(o, sh), nil
}

// capturedInstrument finds the shipment's approved capture on the
// given instrument, if any.
func capturedInstrument(o *model.Order, sh *model.OrderShipment, method model.PaymentMethod, code string) *model.OrderPayment {
	for _, p := range o.Payments {
		if !IsRefundable(p) {
			continue
		}
		if p.Method != method {
			continue
		}
		if p.ShipmentID != nil && *p.ShipmentID != sh.ID {
			continue
		}
		if method.IsGiftCertificate() && p.GiftCertificateCode != code {
			continue
		}
		return p
	}
	return nil
}

func (f *Flows) loadOrder(ctx context.Context, orderID uuid.UUID) (*model.Order, error) {
	o, err := f.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := f.hydrateCertificates(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (f *Flows) loadShipment(ctx context.Context, orderID, shipmentID uuid.UUID) (*model.Order, *model.OrderShipment, error) {
	o, err := f.loadOrder(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	sh := o.Shipment(shipmentID)
	if sh == nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrShipmentNotFound, shipmentID)
	}
	return o, sh, nil
}

// hydrateCertificates attaches the loaded certificate to every history
// payment that references one. Follow-up operations on stored value
// need the certificate itself, not just its code.
func (f *Flows) hydrateCertificates(ctx context.Context, o *model.Order) error {
	certs := make(map[string]*model.GiftCertificate)
	for _, p := range o.Payments {
		if p.GiftCertificateCode == "" {
			continue
		}
		cert, ok := certs[p.GiftCertificateCode]
		if !ok {
			var err error
			cert, err = f.certs.FindByCode(ctx, p.GiftCertificateCode)
			if err != nil {
				return fmt.Errorf("hydrate certificate %s: %w", p.GiftCertificateCode, err)
			}
			certs[p.GiftCertificateCode] = cert
		}
		p.GiftCertificate = cert
	}
	return nil
}

// buildTemplate makes the instrument template the engine drafts from.
func (f *Flows) buildTemplate(ctx context.Context, o *model.Order, method model.PaymentMethod, code, token string) (*model.OrderPayment, error) {
	template := &model.OrderPayment{
		OrderID:     o.ID,
		Method:      method,
		Currency:    o.Currency,
		ReferenceID: token,
	}
	if method.IsGiftCertificate() {
		cert, err := f.certs.FindByCode(ctx, code)
		if err != nil {
			return nil, err
		}
		template.GiftCertificateCode = cert.Code
		template.GiftCertificate = cert
	}
	return template, nil
}

// persist appends every payment the engine touched, including rollback
// reversals, to the order's history.
func (f *Flows) persist(ctx context.Context, o *model.Order, before int) error {
	fresh := o.Payments[before:]
	if len(fresh) == 0 {
		return nil
	}
	if err := f.orders.AppendPayments(ctx, fresh); err != nil {
		f.logger.Error("payment history write failed",
			zap.String("order", o.OrderNo),
			zap.Int("payments", len(fresh)),
			zap.Error(err))
		return fmt.Errorf("append payments: %w", err)
	}
	return nil
}
