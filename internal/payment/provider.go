// Package payment holds the placeholder payment capability for paid
// enrollments. There is no real gateway behind it: confirmation is a single
// Confirm call that always succeeds, mirroring the platform's mock card,
// UPI and Razorpay flows.
package payment

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type Method string

const (
	MethodCard     Method = "CARD"
	MethodUPI      Method = "UPI"
	MethodRazorpay Method = "RAZORPAY"
)

func ParseMethod(s string) (Method, bool) {
	switch Method(strings.ToUpper(s)) {
	case MethodCard, MethodUPI, MethodRazorpay:
		return Method(strings.ToUpper(s)), true
	default:
		return "", false
	}
}

// Confirmation is the provider's acknowledgement of a completed payment.
type Confirmation struct {
	Reference string
	Method    Method
}

// Provider confirms a payment for a quoted amount. Implementations are
// mocks; a gateway integration would replace them behind this interface.
type Provider interface {
	Method() Method
	Confirm(ctx context.Context, amount float64, currency string) (*Confirmation, error)
}

type mockProvider struct {
	method Method
}

func (p *mockProvider) Method() Method { return p.method }

func (p *mockProvider) Confirm(_ context.Context, amount float64, currency string) (*Confirmation, error) {
	if amount < 0 {
		return nil, fmt.Errorf("invalid amount %.2f %s", amount, currency)
	}
	ref := fmt.Sprintf("PAY-%s-%s", p.method, strings.ToUpper(uuid.NewString()[:8]))
	return &Confirmation{Reference: ref, Method: p.method}, nil
}

// Registry resolves providers by method.
type Registry struct {
	providers map[Method]Provider
}

// NewMockRegistry returns a registry with mock providers for every
// supported method.
func NewMockRegistry() *Registry {
	r := &Registry{providers: make(map[Method]Provider)}
	for _, m := range []Method{MethodCard, MethodUPI, MethodRazorpay} {
		r.providers[m] = &mockProvider{method: m}
	}
	return r
}

// Get returns the provider for a method.
func (r *Registry) Get(m Method) (Provider, error) {
	p, ok := r.providers[m]
	if !ok {
		return nil, fmt.Errorf("unsupported payment method %q", m)
	}
	return p, nil
}
