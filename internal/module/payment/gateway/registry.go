package gateway

import (
	"errors"
	"fmt"
	"sync"

	"github.com/commercekit/payments/internal/model"
)

// ErrGatewayNotFound is returned when no gateway is registered for a
// payment method. It is a configuration error, never a decline.
var ErrGatewayNotFound = errors.New("gateway not found")

// Registry manages the configured gateways.
type Registry struct {
	mu       sync.RWMutex
	gateways map[model.GatewayType]Gateway
}

// NewRegistry creates a gateway registry.
func NewRegistry() *Registry {
	return &Registry{gateways: make(map[model.GatewayType]Gateway)}
}

// Register registers a gateway.
func (r *Registry) Register(g Gateway) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gateways[g.Type()] = g
}

// Get returns the gateway of the given type.
func (r *Registry) Get(typ model.GatewayType) (Gateway, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.gateways[typ]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrGatewayNotFound, typ)
	}
	return g, nil
}

// ForMethod returns the gateway that settles the given payment method.
func (r *Registry) ForMethod(method model.PaymentMethod) (Gateway, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.gateways[method.GatewayType()]
	if !ok {
		return nil, fmt.Errorf("%w: no gateway for method %s", ErrGatewayNotFound, method)
	}
	return g, nil
}

// List returns all registered gateway types.
func (r *Registry) List() []model.GatewayType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]model.GatewayType, 0, len(r.gateways))
	for typ := range r.gateways {
		types = append(types, typ)
	}
	return types
}
