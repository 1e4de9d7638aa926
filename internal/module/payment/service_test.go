package payment

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/commercekit/payments/internal/domain/ledger"
	"github.com/commercekit/payments/internal/domain/money"
	"github.com/commercekit/payments/internal/model"
	"github.com/commercekit/payments/internal/module/payment/gateway"
	"github.com/commercekit/payments/internal/module/payment/handler"
)

// fakeGateway records every call and fails the operations it is told
// to: decline produces a processing error, fault a plain one, as a
// processor outage would. The shared log lets tests assert
// cross-gateway ordering.
type fakeGateway struct {
	typ     model.GatewayType
	log     *[]string
	decline map[string]bool
	fault   map[string]bool
	n       int
}

func newFakeGateway(typ model.GatewayType, log *[]string) *fakeGateway {
	return &fakeGateway{typ: typ, log: log, decline: make(map[string]bool), fault: make(map[string]bool)}
}

func (f *fakeGateway) Type() model.GatewayType { return f.typ }

func (f *fakeGateway) call(op string, p *model.OrderPayment) error {
	*f.log = append(*f.log, fmt.Sprintf("%s:%s:%d", f.typ, op, p.Amount))
	if f.fault[op] {
		return fmt.Errorf("%s %s: connection reset", f.typ, op)
	}
	if f.decline[op] {
		return &gateway.ProcessError{Gateway: f.typ, Op: op, Reason: "declined"}
	}
	return nil
}

func (f *fakeGateway) PreAuthorize(_ context.Context, p *model.OrderPayment, _ *model.Address) error {
	if err := f.call("preauth", p); err != nil {
		return err
	}
	f.n++
	p.AuthorizationCode = fmt.Sprintf("%s-auth-%d", f.typ, f.n)
	return nil
}

func (f *fakeGateway) Capture(_ context.Context, p *model.OrderPayment) error {
	return f.call("capture", p)
}

func (f *fakeGateway) ReversePreAuthorization(_ context.Context, p *model.OrderPayment) error {
	return f.call("reverse", p)
}

func (f *fakeGateway) Refund(_ context.Context, p *model.OrderPayment) error {
	return f.call("refund", p)
}

func (f *fakeGateway) VoidCaptureOrCredit(_ context.Context, p *model.OrderPayment) error {
	return f.call("void", p)
}

func (f *fakeGateway) FinalizeShipment(_ context.Context, p *model.OrderPayment) error {
	return f.call("finalize", p)
}

type fixture struct {
	svc  *Service
	log  []string
	card *fakeGateway
	gift *fakeGateway
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{}
	f.card = newFakeGateway(model.GatewayCard, &f.log)
	f.gift = newFakeGateway(model.GatewayGiftCertificate, &f.log)

	gateways := gateway.NewRegistry()
	gateways.Register(f.card)
	gateways.Register(f.gift)
	gateways.Register(gateway.NewExchangeGateway())

	led := ledger.NewService(&fakeLedgerStore{}, nil, zap.NewNop())
	handlers := handler.NewRegistry(
		handler.NewCardHandler(),
		handler.NewHostedPageHandler(),
		handler.NewExchangeHandler(),
		handler.NewGiftCertificateHandler(led),
	)

	f.svc = NewService(handlers, gateways, nil, zap.NewNop())
	return f
}

func newOrder(totals ...int64) *model.Order {
	o := &model.Order{
		ID:       uuid.New(),
		OrderNo:  "ORD-1",
		Type:     model.OrderTypeStandard,
		Status:   model.OrderStatusInProgress,
		Currency: "usd",
	}
	for i, total := range totals {
		o.Shipments = append(o.Shipments, &model.OrderShipment{
			ID:         uuid.New(),
			OrderID:    o.ID,
			ShipmentNo: fmt.Sprintf("SHP-%d", i+1),
			Type:       model.ShipmentTypePhysical,
			Status:     model.ShipmentStatusInventoryAssigned,
			Total:      total,
			Lines: []*model.ShipmentLine{
				{SKU: "SKU", Availability: model.AvailabilityInStock, Allocated: true},
			},
		})
	}
	return o
}

// addAuth seeds an approved authorization directly into the history.
func addAuth(o *model.Order, sh *model.OrderShipment, method model.PaymentMethod, amount int64, code string) *model.OrderPayment {
	p := &model.OrderPayment{
		ID:                uuid.New(),
		OrderID:           o.ID,
		TransactionType:   model.TransactionAuthorization,
		Method:            method,
		Amount:            amount,
		Currency:          o.Currency,
		AuthorizationCode: code,
		Status:            model.PaymentStatusApproved,
	}
	if method.IsGiftCertificate() {
		p.GiftCertificateCode = "GC-" + code
	}
	if sh != nil {
		p.ShipmentID = &sh.ID
	}
	o.AddPayment(p)
	return p
}

func cardTemplate() *model.OrderPayment {
	return &model.OrderPayment{Method: model.MethodCard, ReferenceID: "pm_123"}
}

func TestService_InitializePayments(t *testing.T) {
	ctx := context.Background()

	t.Run("authorizes each shipment on the card", func(t *testing.T) {
		f := newFixture(t)
		o := newOrder(3000, 2000)

		res, err := f.svc.InitializePayments(ctx, o, cardTemplate())
		require.NoError(t, err)
		require.Len(t, res.Processed, 2)
		assert.Equal(t, []string{
			"card:preauth:3000",
			"card:preauth:2000",
		}, f.log)
		require.NotNil(t, res.Processed[0].ShipmentID)
		assert.Equal(t, o.Shipments[0].ID, *res.Processed[0].ShipmentID)
		require.NotNil(t, res.Processed[1].ShipmentID)
		assert.Equal(t, o.Shipments[1].ID, *res.Processed[1].ShipmentID)
		assert.Equal(t, model.PaymentStatusApproved, res.Code())
	})

	t.Run("capturing one shipment leaves the other covered", func(t *testing.T) {
		f := newFixture(t)
		o := newOrder(3000, 2000)

		_, err := f.svc.InitializePayments(ctx, o, cardTemplate())
		require.NoError(t, err)

		for _, sh := range o.Shipments {
			sh.Status = model.ShipmentStatusReleased
		}
		f.log = nil
		_, err = f.svc.ProcessShipmentPayment(ctx, o, o.Shipments[0])
		require.NoError(t, err)
		_, err = f.svc.ProcessShipmentPayment(ctx, o, o.Shipments[1])
		require.NoError(t, err)
		assert.Equal(t, []string{
			"card:capture:3000",
			"card:capture:2000",
		}, f.log)
	})

	t.Run("records the attempt when the card declines", func(t *testing.T) {
		f := newFixture(t)
		f.card.decline["preauth"] = true
		o := newOrder(3000)

		res, err := f.svc.InitializePayments(ctx, o, cardTemplate())
		require.Error(t, err)
		assert.ErrorIs(t, err, gateway.ErrProcessing)
		require.Len(t, res.Processed, 1)
		assert.Equal(t, model.PaymentStatusFailed, res.Processed[0].Status)
		assert.Equal(t, model.PaymentStatusFailed, res.Code())
		// The failed attempt still lands in the order's history.
		assert.Len(t, o.Payments, 1)
	})

	t.Run("hosted page authorizations skip the gateway", func(t *testing.T) {
		f := newFixture(t)
		o := newOrder(3000)
		template := &model.OrderPayment{Method: model.MethodHostedPage, ReferenceID: "hp-ref-9"}

		res, err := f.svc.InitializePayments(ctx, o, template)
		require.NoError(t, err)
		require.Len(t, res.Processed, 1)
		assert.Equal(t, "hp-ref-9", res.Processed[0].AuthorizationCode)
		assert.Empty(t, f.log)
	})
}

func TestService_AdjustShipmentPayments(t *testing.T) {
	ctx := context.Background()

	t.Run("no adjustment when the hold covers the total", func(t *testing.T) {
		f := newFixture(t)
		o := newOrder(3000)
		addAuth(o, o.Shipments[0], model.MethodCard, 3000, "auth-old")

		res, err := f.svc.AdjustShipmentPayments(ctx, o, o.Shipments[0])
		require.NoError(t, err)
		assert.Nil(t, res)
		assert.Empty(t, f.log)
	})

	t.Run("authorizes the new amount before reversing the old hold", func(t *testing.T) {
		f := newFixture(t)
		o := newOrder(5000)
		addAuth(o, o.Shipments[0], model.MethodCard, 3000, "auth-old")

		res, err := f.svc.AdjustShipmentPayments(ctx, o, o.Shipments[0])
		require.NoError(t, err)
		require.Len(t, res.Processed, 2)
		assert.Equal(t, []string{
			"card:preauth:5000",
			"card:reverse:3000",
		}, f.log)
	})

	t.Run("old hold stays when the new authorization declines", func(t *testing.T) {
		f := newFixture(t)
		f.card.decline["preauth"] = true
		o := newOrder(5000)
		addAuth(o, o.Shipments[0], model.MethodCard, 3000, "auth-old")

		res, err := f.svc.AdjustShipmentPayments(ctx, o, o.Shipments[0])
		require.Error(t, err)
		assert.ErrorIs(t, err, gateway.ErrProcessing)
		require.Len(t, res.Processed, 1)
		assert.Equal(t, []string{"card:preauth:5000"}, f.log)
	})

	t.Run("errors when nothing is authorized at all", func(t *testing.T) {
		f := newFixture(t)
		o := newOrder(5000)

		_, err := f.svc.AdjustShipmentPayments(ctx, o, o.Shipments[0])
		assert.ErrorIs(t, err, ErrNoMatchingAuthorization)
	})

	t.Run("re-authorizes on the newest active instrument", func(t *testing.T) {
		f := newFixture(t)
		o := newOrder(5000)
		sh := o.Shipments[0]
		card := addAuth(o, sh, model.MethodCard, 2000, "card-old")
		gc := addAuth(o, sh, model.MethodGiftCertificate, 1000, "gc-new")
		gc.CreatedAt = card.CreatedAt.Add(1)
		gc.GiftCertificate = &model.GiftCertificate{Code: gc.GiftCertificateCode, PurchaseAmount: 5000, Currency: "usd"}

		res, err := f.svc.AdjustShipmentPayments(ctx, o, sh)
		require.NoError(t, err)
		// The certificate hold is the newest, so the replacement draws
		// on it rather than the card.
		assert.Equal(t, model.MethodGiftCertificate, res.Processed[0].Method)
		assert.Equal(t, []string{
			"gift_certificate:preauth:5000",
			"gift_certificate:reverse:1000",
			"card:reverse:2000",
		}, f.log)
	})

	t.Run("no adjustment when the processor captures above the hold", func(t *testing.T) {
		log := []string{}
		card := newFakeGateway(model.GatewayCard, &log)
		gateways := gateway.NewRegistry()
		gateways.Register(card)
		led := ledger.NewService(&fakeLedgerStore{}, nil, zap.NewNop())
		handlers := handler.NewRegistry(
			stretchHandler{handler.NewCardHandler()},
			handler.NewGiftCertificateHandler(led),
		)
		svc := NewService(handlers, gateways, nil, zap.NewNop())

		o := newOrder(5000)
		addAuth(o, o.Shipments[0], model.MethodCard, 3000, "auth-old")

		res, err := svc.AdjustShipmentPayments(ctx, o, o.Shipments[0])
		require.NoError(t, err)
		assert.Nil(t, res)
		assert.Empty(t, log)
	})
}

// stretchHandler serves a processor that settles above the held amount,
// the way card networks tolerate small capture overages.
type stretchHandler struct {
	handler.Handler
}

func (stretchHandler) CanCapture(*model.OrderPayment, money.Money) bool { return true }

func TestService_ProcessShipmentPayment(t *testing.T) {
	ctx := context.Background()

	t.Run("requires the shipment to be released", func(t *testing.T) {
		f := newFixture(t)
		o := newOrder(3000)

		_, err := f.svc.ProcessShipmentPayment(ctx, o, o.Shipments[0])
		assert.ErrorIs(t, err, ErrShipmentNotCapturable)
	})

	t.Run("captures stored value first, conventional for the rest", func(t *testing.T) {
		f := newFixture(t)
		o := newOrder(5000)
		sh := o.Shipments[0]
		sh.Status = model.ShipmentStatusReleased
		gc := addAuth(o, sh, model.MethodGiftCertificate, 2000, "gc-auth")
		gc.GiftCertificate = &model.GiftCertificate{Code: gc.GiftCertificateCode, PurchaseAmount: 2000, Currency: "usd"}
		addAuth(o, sh, model.MethodCard, 3000, "card-auth")

		res, err := f.svc.ProcessShipmentPayment(ctx, o, sh)
		require.NoError(t, err)
		assert.Equal(t, []string{
			"gift_certificate:capture:2000",
			"card:capture:3000",
		}, f.log)
		assert.Equal(t, model.PaymentStatusApproved, res.Code())
	})

	t.Run("releases stored value the capture never needed", func(t *testing.T) {
		f := newFixture(t)
		o := newOrder(3000)
		sh := o.Shipments[0]
		sh.Status = model.ShipmentStatusReleased
		used := addAuth(o, sh, model.MethodGiftCertificate, 3000, "gc-used")
		used.CreatedAt = used.CreatedAt.Add(-1) // keep deterministic order
		spare := addAuth(o, sh, model.MethodGiftCertificate, 1000, "gc-spare")
		spare.CreatedAt = used.CreatedAt.Add(1)

		res, err := f.svc.ProcessShipmentPayment(ctx, o, sh)
		require.NoError(t, err)
		assert.Equal(t, []string{
			"gift_certificate:capture:3000",
			"gift_certificate:reverse:1000",
		}, f.log)
		assert.Equal(t, model.PaymentStatusApproved, res.Code())
	})

	t.Run("records a declined capture and stops", func(t *testing.T) {
		f := newFixture(t)
		f.card.decline["capture"] = true
		o := newOrder(3000)
		sh := o.Shipments[0]
		sh.Status = model.ShipmentStatusReleased
		addAuth(o, sh, model.MethodCard, 3000, "card-auth")

		res, err := f.svc.ProcessShipmentPayment(ctx, o, sh)
		require.Error(t, err)
		require.Len(t, res.Processed, 1)
		assert.Equal(t, model.PaymentStatusFailed, res.Processed[0].Status)
		assert.Equal(t, model.PaymentStatusFailed, res.Code())
	})
}

func TestService_CancelOrderPayments(t *testing.T) {
	ctx := context.Background()

	t.Run("reverses every active hold", func(t *testing.T) {
		f := newFixture(t)
		o := newOrder(3000, 2000)
		addAuth(o, o.Shipments[0], model.MethodCard, 3000, "auth-1")
		addAuth(o, o.Shipments[1], model.MethodCard, 2000, "auth-2")
		addAuth(o, nil, model.MethodCard, 1000, "auth-order")

		res, err := f.svc.CancelOrderPayments(ctx, o)
		require.NoError(t, err)
		assert.Len(t, res.Processed, 3)
		for _, p := range res.Processed {
			assert.Equal(t, model.TransactionReverseAuthorization, p.TransactionType)
		}
	})

	t.Run("refuses non-cancellable orders", func(t *testing.T) {
		f := newFixture(t)
		o := newOrder(3000)
		o.Status = model.OrderStatusCompleted

		_, err := f.svc.CancelOrderPayments(ctx, o)
		assert.ErrorIs(t, err, ErrOrderNotCancellable)
	})

	t.Run("shipment cancel keeps order-level holds", func(t *testing.T) {
		f := newFixture(t)
		o := newOrder(3000, 2000)
		addAuth(o, o.Shipments[0], model.MethodCard, 3000, "auth-1")
		addAuth(o, nil, model.MethodCard, 1000, "auth-order")

		res, err := f.svc.CancelShipmentPayments(ctx, o, o.Shipments[0])
		require.NoError(t, err)
		require.Len(t, res.Processed, 1)
		assert.Equal(t, "auth-1", res.Processed[0].AuthorizationCode)
	})
}

func TestService_RefundShipmentPayment(t *testing.T) {
	ctx := context.Background()

	t.Run("refunds against the recorded capture", func(t *testing.T) {
		f := newFixture(t)
		o := newOrder(3000)
		sh := o.Shipments[0]
		auth := addAuth(o, sh, model.MethodCard, 3000, "card-auth")
		capture := &model.OrderPayment{
			ID:                uuid.New(),
			OrderID:           o.ID,
			ShipmentID:        &sh.ID,
			TransactionType:   model.TransactionCapture,
			Method:            model.MethodCard,
			Amount:            3000,
			Currency:          o.Currency,
			AuthorizationCode: auth.AuthorizationCode,
			Status:            model.PaymentStatusApproved,
		}
		o.AddPayment(capture)

		res, err := f.svc.RefundShipmentPayment(ctx, o, sh, nil, money.New(1000, "usd"))
		require.NoError(t, err)
		require.Len(t, res.Processed, 1)
		assert.Equal(t, model.TransactionCredit, res.Processed[0].TransactionType)
		assert.Equal(t, []string{"card:refund:1000"}, f.log)
	})

	t.Run("errors when nothing was captured", func(t *testing.T) {
		f := newFixture(t)
		o := newOrder(3000)

		_, err := f.svc.RefundShipmentPayment(ctx, o, o.Shipments[0], nil, money.New(1000, "usd"))
		assert.ErrorIs(t, err, ErrNoCapturePayment)
	})

	t.Run("rejects refunds above the captured amount", func(t *testing.T) {
		f := newFixture(t)
		o := newOrder(3000)
		sh := o.Shipments[0]
		capture := &model.OrderPayment{
			ID:              uuid.New(),
			OrderID:         o.ID,
			ShipmentID:      &sh.ID,
			TransactionType: model.TransactionCapture,
			Method:          model.MethodCard,
			Amount:          3000,
			Currency:        o.Currency,
			Status:          model.PaymentStatusApproved,
		}
		o.AddPayment(capture)

		_, err := f.svc.RefundShipmentPayment(ctx, o, sh, nil, money.New(4000, "usd"))
		assert.Error(t, err)
	})
}

func TestService_InitializeWithGiftCertificates(t *testing.T) {
	ctx := context.Background()

	t.Run("drains stored value before the card", func(t *testing.T) {
		f := newFixture(t)
		o := newOrder(3000)
		gcA := &model.GiftCertificate{Code: "GC-A", PurchaseAmount: 1000, Currency: "usd"}
		gcB := &model.GiftCertificate{Code: "GC-B", PurchaseAmount: 500, Currency: "usd"}

		res, err := f.svc.InitializePayments(ctx, o, cardTemplate(), gcA, gcB)
		require.NoError(t, err)
		require.Len(t, res.Processed, 3)
		assert.Equal(t, []string{
			"gift_certificate:preauth:1000",
			"gift_certificate:preauth:500",
			"card:preauth:1500",
		}, f.log)
	})

	t.Run("stored value alone may cover only part of the order", func(t *testing.T) {
		f := newFixture(t)
		o := newOrder(3000)
		gc := &model.GiftCertificate{Code: "GC-A", PurchaseAmount: 1000, Currency: "usd"}

		res, err := f.svc.InitializePayments(ctx, o, nil, gc)
		require.NoError(t, err)
		require.Len(t, res.Processed, 1)
		assert.Equal(t, int64(1000), res.Processed[0].Amount)
		assert.Equal(t, model.PaymentStatusApproved, res.Processed[0].Status)
	})

	t.Run("a decline leaves earlier approvals standing", func(t *testing.T) {
		f := newFixture(t)
		f.card.decline["preauth"] = true
		o := newOrder(3000)
		gc := &model.GiftCertificate{Code: "GC-A", PurchaseAmount: 1000, Currency: "usd"}

		res, err := f.svc.InitializePayments(ctx, o, cardTemplate(), gc)
		require.Error(t, err)
		assert.ErrorIs(t, err, gateway.ErrProcessing)
		assert.Equal(t, []string{
			"gift_certificate:preauth:1000",
			"card:preauth:2000",
		}, f.log)
		require.Len(t, res.Processed, 2)
		// The certificate hold survives the card decline so the order
		// can retry on another instrument.
		assert.Equal(t, model.PaymentStatusApproved, res.Processed[0].Status)
		assert.Equal(t, model.PaymentStatusFailed, res.Processed[1].Status)
	})

	t.Run("an outage rolls fresh approvals back", func(t *testing.T) {
		f := newFixture(t)
		f.card.fault["preauth"] = true
		o := newOrder(3000)
		gc := &model.GiftCertificate{Code: "GC-A", PurchaseAmount: 1000, Currency: "usd"}

		res, err := f.svc.InitializePayments(ctx, o, cardTemplate(), gc)
		require.Error(t, err)
		assert.NotErrorIs(t, err, gateway.ErrProcessing)
		assert.Equal(t, []string{
			"gift_certificate:preauth:1000",
			"card:preauth:2000",
			"gift_certificate:reverse:1000",
		}, f.log)
		// The faulted attempt leaves no record; the certificate hold is
		// released and its reversal recorded.
		require.Len(t, res.Processed, 1)
		require.Len(t, o.Payments, 2)
		assert.Equal(t, model.TransactionReverseAuthorization, o.Payments[1].TransactionType)
	})
}

func TestService_InitializeShipmentPayment(t *testing.T) {
	ctx := context.Background()

	t.Run("authorizes the added shipment in full", func(t *testing.T) {
		f := newFixture(t)
		o := newOrder(3000, 2000)
		addAuth(o, o.Shipments[0], model.MethodCard, 3000, "auth-first")

		res, err := f.svc.InitializeShipmentPayment(ctx, o, o.Shipments[1], cardTemplate())
		require.NoError(t, err)
		require.Len(t, res.Processed, 1)
		assert.Equal(t, int64(2000), res.Processed[0].Amount)
		require.NotNil(t, res.Processed[0].ShipmentID)
		assert.Equal(t, o.Shipments[1].ID, *res.Processed[0].ShipmentID)
	})

	t.Run("partial instruments cannot open a shipment", func(t *testing.T) {
		f := newFixture(t)
		o := newOrder(2000)
		gc := &model.GiftCertificate{Code: "GC-A", PurchaseAmount: 500, Currency: "usd"}
		template := &model.OrderPayment{
			Method:              model.MethodGiftCertificate,
			GiftCertificateCode: gc.Code,
			GiftCertificate:     gc,
		}

		_, err := f.svc.InitializeShipmentPayment(ctx, o, o.Shipments[0], template)
		assert.ErrorIs(t, err, ErrInsufficientAuthorization)
		assert.Empty(t, f.log)
	})
}

func TestService_AdjustShipmentPaymentsWith(t *testing.T) {
	ctx := context.Background()

	t.Run("moves the hold to the supplied instrument", func(t *testing.T) {
		f := newFixture(t)
		o := newOrder(5000)
		addAuth(o, o.Shipments[0], model.MethodCard, 3000, "auth-old")
		template := &model.OrderPayment{Method: model.MethodHostedPage, ReferenceID: "hp-1"}

		res, err := f.svc.AdjustShipmentPaymentsWith(ctx, o, o.Shipments[0], template)
		require.NoError(t, err)
		require.Len(t, res.Processed, 2)
		assert.Equal(t, model.MethodHostedPage, res.Processed[0].Method)
		assert.Equal(t, int64(5000), res.Processed[0].Amount)
		// The page already placed the hold, so only the reversal
		// reaches a gateway.
		assert.Equal(t, []string{"card:reverse:3000"}, f.log)
	})

	t.Run("keeps the old hold when the replacement falls short", func(t *testing.T) {
		f := newFixture(t)
		o := newOrder(5000)
		addAuth(o, o.Shipments[0], model.MethodCard, 3000, "auth-old")
		gc := &model.GiftCertificate{Code: "GC-A", PurchaseAmount: 1000, Currency: "usd"}
		template := &model.OrderPayment{
			Method:              model.MethodGiftCertificate,
			GiftCertificateCode: gc.Code,
			GiftCertificate:     gc,
		}

		res, err := f.svc.AdjustShipmentPaymentsWith(ctx, o, o.Shipments[0], template)
		assert.ErrorIs(t, err, ErrInsufficientAuthorization)
		assert.Empty(t, res.Processed)
		// Nothing reached a gateway, so the 3000 card hold stands.
		assert.Empty(t, f.log)
		assert.Len(t, o.Payments, 1)
	})
}

func TestService_RollBackPayments(t *testing.T) {
	ctx := context.Background()

	t.Run("reverses authorizations and voids captures", func(t *testing.T) {
		f := newFixture(t)
		o := newOrder(3000)
		sh := o.Shipments[0]
		auth := addAuth(o, sh, model.MethodCard, 3000, "card-auth")
		capture := &model.OrderPayment{
			ID:                uuid.New(),
			OrderID:           o.ID,
			ShipmentID:        &sh.ID,
			TransactionType:   model.TransactionCapture,
			Method:            model.MethodCard,
			Amount:            3000,
			Currency:          o.Currency,
			AuthorizationCode: auth.AuthorizationCode,
			Status:            model.PaymentStatusApproved,
		}
		o.AddPayment(capture)

		f.svc.RollBackPayments(ctx, o, []*model.OrderPayment{auth, capture})
		assert.Equal(t, []string{
			"card:reverse:3000",
			"card:void:3000",
		}, f.log)
		// Both compensations land in the history as approved records.
		require.Len(t, o.Payments, 4)
		assert.Equal(t, model.TransactionReverseAuthorization, o.Payments[2].TransactionType)
		assert.Equal(t, model.TransactionCredit, o.Payments[3].TransactionType)
	})

	t.Run("ignores failed and pending payments", func(t *testing.T) {
		f := newFixture(t)
		o := newOrder(3000)
		failed := addAuth(o, o.Shipments[0], model.MethodCard, 3000, "card-auth")
		failed.Status = model.PaymentStatusFailed

		f.svc.RollBackPayments(ctx, o, []*model.OrderPayment{failed})
		assert.Empty(t, f.log)
		assert.Len(t, o.Payments, 1)
	})
}

func TestResult_Code(t *testing.T) {
	t.Run("failed reversal does not fail the operation", func(t *testing.T) {
		res := &Result{Processed: []*model.OrderPayment{
			{TransactionType: model.TransactionAuthorization, Status: model.PaymentStatusApproved},
			{TransactionType: model.TransactionReverseAuthorization, Status: model.PaymentStatusFailed},
		}}
		assert.Equal(t, model.PaymentStatusApproved, res.Code())
	})

	t.Run("failed capture fails the operation", func(t *testing.T) {
		res := &Result{Processed: []*model.OrderPayment{
			{TransactionType: model.TransactionCapture, Status: model.PaymentStatusFailed},
		}}
		assert.Equal(t, model.PaymentStatusFailed, res.Code())
	})
}
