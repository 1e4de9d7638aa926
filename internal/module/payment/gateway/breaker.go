package gateway

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/commercekit/payments/internal/model"
	"github.com/commercekit/payments/internal/shared/metrics"
)

// BreakerConfig controls the circuit breaker around a gateway.
type BreakerConfig struct {
	MaxRequests         uint32
	Interval            time.Duration
	Timeout             time.Duration
	ConsecutiveFailures uint32
}

// DefaultBreakerConfig returns the default breaker configuration.
func DefaultBreakerConfig() *BreakerConfig {
	return &BreakerConfig{
		MaxRequests:         1,
		Interval:            60 * time.Second,
		Timeout:             30 * time.Second,
		ConsecutiveFailures: 5,
	}
}

// BreakerGateway wraps a Gateway with a circuit breaker and metrics.
// Declines count as successes for the breaker: the processor answered.
// Only transport and integration failures trip it.
type BreakerGateway struct {
	inner   Gateway
	breaker *gobreaker.CircuitBreaker[any]
	metrics *metrics.Metrics
}

// NewBreakerGateway wraps a gateway with a circuit breaker.
func NewBreakerGateway(inner Gateway, config *BreakerConfig, m *metrics.Metrics) *BreakerGateway {
	if config == nil {
		config = DefaultBreakerConfig()
	}
	settings := gobreaker.Settings{
		Name:        string(inner.Type()),
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= config.ConsecutiveFailures
		},
	}
	return &BreakerGateway{
		inner:   inner,
		breaker: gobreaker.NewCircuitBreaker[any](settings),
		metrics: m,
	}
}

// Type returns the wrapped gateway's type.
func (g *BreakerGateway) Type() model.GatewayType {
	return g.inner.Type()
}

func (g *BreakerGateway) PreAuthorize(ctx context.Context, p *model.OrderPayment, billing *model.Address) error {
	return g.execute(ctx, "pre_authorize", func() error {
		return g.inner.PreAuthorize(ctx, p, billing)
	})
}

func (g *BreakerGateway) Capture(ctx context.Context, p *model.OrderPayment) error {
	return g.execute(ctx, "capture", func() error {
		return g.inner.Capture(ctx, p)
	})
}

func (g *BreakerGateway) ReversePreAuthorization(ctx context.Context, p *model.OrderPayment) error {
	return g.execute(ctx, "reverse", func() error {
		return g.inner.ReversePreAuthorization(ctx, p)
	})
}

func (g *BreakerGateway) Refund(ctx context.Context, p *model.OrderPayment) error {
	return g.execute(ctx, "refund", func() error {
		return g.inner.Refund(ctx, p)
	})
}

func (g *BreakerGateway) VoidCaptureOrCredit(ctx context.Context, p *model.OrderPayment) error {
	return g.execute(ctx, "void", func() error {
		return g.inner.VoidCaptureOrCredit(ctx, p)
	})
}

func (g *BreakerGateway) FinalizeShipment(ctx context.Context, p *model.OrderPayment) error {
	return g.execute(ctx, "finalize", func() error {
		return g.inner.FinalizeShipment(ctx, p)
	})
}

func (g *BreakerGateway) execute(_ context.Context, op string, fn func() error) error {
	start := time.Now()
	var declined error
	_, err := g.breaker.Execute(func() (any, error) {
		callErr := fn()
		if callErr != nil && errors.Is(callErr, ErrProcessing) {
			// Declines pass through without tripping the breaker.
			declined = callErr
			return nil, nil
		}
		return nil, callErr
	})
	if err == nil {
		err = declined
	}
	g.observe(op, start, err)
	return err
}

func (g *BreakerGateway) observe(op string, start time.Time, err error) {
	if g.metrics == nil {
		return
	}
	status := "success"
	switch {
	case err == nil:
	case errors.Is(err, ErrProcessing):
		status = "declined"
	default:
		status = "error"
	}
	name := string(g.inner.Type())
	g.metrics.GatewayRequestsTotal.WithLabelValues(name, op, status).Inc()
	g.metrics.GatewayRequestDuration.WithLabelValues(name, op).Observe(time.Since(start).Seconds())
}
