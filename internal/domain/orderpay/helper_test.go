package orderpay

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/commercekit/payments/internal/model"
)

func standardOrder() *model.Order {
	return &model.Order{ID: uuid.New(), Type: model.OrderTypeStandard, Currency: "usd"}
}

func exchangeOrder(dueToRMA int64, awaiting bool) *model.Order {
	return &model.Order{
		ID:               uuid.New(),
		Type:             model.OrderTypeExchange,
		Currency:         "usd",
		DueToRMA:         dueToRMA,
		AwaitingExchange: awaiting,
	}
}

func physicalShipment(o *model.Order, total int64) *model.OrderShipment {
	s := &model.OrderShipment{
		ID:      uuid.New(),
		OrderID: o.ID,
		Type:    model.ShipmentTypePhysical,
		Total:   total,
		Lines: []*model.ShipmentLine{
			{SKU: "SKU-1", Availability: model.AvailabilityInStock, Allocated: true},
		},
	}
	o.Shipments = append(o.Shipments, s)
	return s
}

func authPayment(o *model.Order, s *model.OrderShipment, method model.PaymentMethod, amount int64, at time.Time) *model.OrderPayment {
	p := &model.OrderPayment{
		ID:                uuid.New(),
		TransactionType:   model.TransactionAuthorization,
		Method:            method,
		Amount:            amount,
		Currency:          o.Currency,
		AuthorizationCode: uuid.NewString(),
		Status:            model.PaymentStatusApproved,
		CreatedAt:         at,
	}
	if method.IsGiftCertificate() {
		p.GiftCertificateCode = "GC-" + p.ID.String()[:8]
	}
	if s != nil {
		p.ShipmentID = &s.ID
	}
	o.AddPayment(p)
	return p
}

func followUp(o *model.Order, auth *model.OrderPayment, typ model.TransactionType, at time.Time) *model.OrderPayment {
	p := &model.OrderPayment{
		ID:                  uuid.New(),
		ShipmentID:          auth.ShipmentID,
		GiftCertificateCode: auth.GiftCertificateCode,
		TransactionType:     typ,
		Method:              auth.Method,
		Amount:              auth.Amount,
		Currency:            auth.Currency,
		AuthorizationCode:   auth.AuthorizationCode,
		Status:              model.PaymentStatusApproved,
		CreatedAt:           at,
	}
	o.AddPayment(p)
	return p
}

func TestRequiredAuthorizationAmount(t *testing.T) {
	t.Run("service shipments need nothing", func(t *testing.T) {
		o := standardOrder()
		s := &model.OrderShipment{OrderID: o.ID, Type: model.ShipmentTypeService, Total: 5000}

		amount := RequiredAuthorizationAmount(o, s)
		assert.True(t, amount.IsZero())
	})

	t.Run("unallocated back-order line holds a nominal unit", func(t *testing.T) {
		o := standardOrder()
		s := &model.OrderShipment{
			OrderID: o.ID,
			Type:    model.ShipmentTypePhysical,
			Total:   5000,
			Lines: []*model.ShipmentLine{
				{SKU: "SKU-1", Availability: model.AvailabilityBackOrder, Allocated: false},
			},
		}

		amount := RequiredAuthorizationAmount(o, s)
		assert.Equal(t, int64(100), amount.Amount())
	})

	t.Run("in-stock shipment needs its full total", func(t *testing.T) {
		o := standardOrder()
		s := physicalShipment(o, 5000)

		amount := RequiredAuthorizationAmount(o, s)
		assert.Equal(t, int64(5000), amount.Amount())
	})

	t.Run("exchange nets out the return credit", func(t *testing.T) {
		o := exchangeOrder(2000, false)
		s := physicalShipment(o, 5000)

		amount := RequiredAuthorizationAmount(o, s)
		assert.Equal(t, int64(3000), amount.Amount())
	})

	t.Run("exchange authorization never drops below the nominal unit", func(t *testing.T) {
		o := exchangeOrder(6000, false)
		s := physicalShipment(o, 5000)

		amount := RequiredAuthorizationAmount(o, s)
		assert.Equal(t, int64(100), amount.Amount())
	})

	t.Run("awaiting exchange holds only the nominal unit", func(t *testing.T) {
		o := exchangeOrder(0, true)
		s := physicalShipment(o, 5000)

		amount := RequiredAuthorizationAmount(o, s)
		assert.Equal(t, int64(100), amount.Amount())
	})
}

func TestCaptureAmount(t *testing.T) {
	t.Run("standard order captures the shipment total", func(t *testing.T) {
		o := standardOrder()
		s := physicalShipment(o, 5000)

		assert.Equal(t, int64(5000), CaptureAmount(o, s).Amount())
	})

	t.Run("exchange capture floors at zero, not the nominal unit", func(t *testing.T) {
		o := exchangeOrder(6000, false)
		s := physicalShipment(o, 5000)

		assert.True(t, CaptureAmount(o, s).IsZero())
	})

	t.Run("exchange capture nets out the return credit", func(t *testing.T) {
		o := exchangeOrder(2000, false)
		s := physicalShipment(o, 5000)

		assert.Equal(t, int64(3000), CaptureAmount(o, s).Amount())
	})
}

func TestAdditionalAuthorizationAmount(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("counts active authorizations against the requirement", func(t *testing.T) {
		o := standardOrder()
		s := physicalShipment(o, 5000)
		authPayment(o, s, model.MethodGiftCertificate, 2000, base)

		assert.Equal(t, int64(3000), AdditionalAuthorizationAmount(o, s).Amount())
	})

	t.Run("zero when fully covered", func(t *testing.T) {
		o := standardOrder()
		s := physicalShipment(o, 5000)
		authPayment(o, s, model.MethodCard, 5000, base)

		assert.True(t, AdditionalAuthorizationAmount(o, s).IsZero())
	})

	t.Run("reversed authorizations do not count", func(t *testing.T) {
		o := standardOrder()
		s := physicalShipment(o, 5000)
		auth := authPayment(o, s, model.MethodCard, 5000, base)
		followUp(o, auth, model.TransactionReverseAuthorization, base.Add(time.Minute))

		assert.Equal(t, int64(5000), AdditionalAuthorizationAmount(o, s).Amount())
	})
}

func TestActiveAuthorizations(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("gift certificates come first, oldest first, conventional last", func(t *testing.T) {
		o := standardOrder()
		s := physicalShipment(o, 10000)
		conv := authPayment(o, s, model.MethodCard, 4000, base)
		gcNewer := authPayment(o, s, model.MethodGiftCertificate, 2000, base.Add(2*time.Minute))
		gcOlder := authPayment(o, s, model.MethodGiftCertificate, 3000, base.Add(time.Minute))

		active := ActiveAuthorizations(o, s)
		require.Len(t, active, 3)
		assert.Equal(t, gcOlder.ID, active[0].ID)
		assert.Equal(t, gcNewer.ID, active[1].ID)
		assert.Equal(t, conv.ID, active[2].ID)
	})

	t.Run("shipment-level conventional shadows order-level", func(t *testing.T) {
		o := standardOrder()
		s := physicalShipment(o, 10000)
		authPayment(o, nil, model.MethodCard, 10000, base)
		shipLevel := authPayment(o, s, model.MethodCard, 4000, base.Add(time.Minute))

		active := ActiveAuthorizations(o, s)
		require.Len(t, active, 1)
		assert.Equal(t, shipLevel.ID, active[0].ID)
	})

	t.Run("order-level authorization covers any shipment", func(t *testing.T) {
		o := standardOrder()
		s := physicalShipment(o, 10000)
		orderLevel := authPayment(o, nil, model.MethodCard, 10000, base)

		active := ActiveAuthorizations(o, s)
		require.Len(t, active, 1)
		assert.Equal(t, orderLevel.ID, active[0].ID)
	})

	t.Run("captured and reversed authorizations are excluded", func(t *testing.T) {
		o := standardOrder()
		s := physicalShipment(o, 10000)
		capturedAuth := authPayment(o, s, model.MethodGiftCertificate, 2000, base)
		followUp(o, capturedAuth, model.TransactionCapture, base.Add(time.Minute))
		reversedAuth := authPayment(o, s, model.MethodCard, 4000, base)
		followUp(o, reversedAuth, model.TransactionReverseAuthorization, base.Add(time.Minute))

		assert.Empty(t, ActiveAuthorizations(o, s))
	})

	t.Run("failed follow-ups do not consume the authorization", func(t *testing.T) {
		o := standardOrder()
		s := physicalShipment(o, 10000)
		auth := authPayment(o, s, model.MethodCard, 4000, base)
		failed := followUp(o, auth, model.TransactionCapture, base.Add(time.Minute))
		failed.Status = model.PaymentStatusFailed

		active := ActiveAuthorizations(o, s)
		require.Len(t, active, 1)
		assert.Equal(t, auth.ID, active[0].ID)
	})
}

func TestLastAuthorization(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	o := standardOrder()
	s := physicalShipment(o, 10000)
	authPayment(o, s, model.MethodCard, 4000, base)
	newest := authPayment(o, s, model.MethodGiftCertificate, 2000, base.Add(time.Hour))

	got := LastAuthorization(o, s)
	require.NotNil(t, got)
	assert.Equal(t, newest.ID, got.ID)

	t.Run("reversed authorizations do not count", func(t *testing.T) {
		followUp(o, newest, model.TransactionReverseAuthorization, base.Add(2*time.Hour))
		got := LastAuthorization(o, s)
		require.NotNil(t, got)
		assert.Equal(t, model.MethodCard, got.Method)
	})

	empty := standardOrder()
	assert.Nil(t, LastAuthorization(empty, physicalShipment(empty, 1000)))
}

func TestAllAuthorizations(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	o := standardOrder()
	s := physicalShipment(o, 10000)
	conv := authPayment(o, s, model.MethodCard, 4000, base)
	gc := authPayment(o, s, model.MethodGiftCertificate, 2000, base.Add(time.Minute))
	followUp(o, gc, model.TransactionCapture, base.Add(2*time.Minute))
	reversedAuth := authPayment(o, s, model.MethodGiftCertificate, 1000, base.Add(3*time.Minute))
	followUp(o, reversedAuth, model.TransactionReverseAuthorization, base.Add(4*time.Minute))

	all := AllAuthorizations(o, s)
	require.Len(t, all, 2)
	// The captured certificate hold stays listed; the reversed one is
	// gone; stored value sorts first.
	assert.Equal(t, gc.ID, all[0].ID)
	assert.Equal(t, conv.ID, all[1].ID)
}

func TestCapturePayment(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	o := standardOrder()
	s := physicalShipment(o, 5000)
	assert.Nil(t, CapturePayment(o, s))

	auth := authPayment(o, s, model.MethodCard, 5000, base)
	capture := followUp(o, auth, model.TransactionCapture, base.Add(time.Minute))

	got := CapturePayment(o, s)
	require.NotNil(t, got)
	assert.Equal(t, capture.ID, got.ID)
}

func TestAuthorizedBy(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	o := standardOrder()
	s := physicalShipment(o, 5000)
	authPayment(o, s, model.MethodGiftCertificate, 2000, base)

	assert.True(t, AuthorizedByGiftCertificates(o, s))
	assert.False(t, AuthorizedByConventional(o, s))

	authPayment(o, s, model.MethodCard, 3000, base.Add(time.Minute))
	assert.True(t, AuthorizedByConventional(o, s))
}
