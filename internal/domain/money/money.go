package money

import "fmt"

// NominalUnitAmount is the smallest authorization kept alive on a gateway
// rail, in minor units (1.00). Authorizations are floored to this value
// instead of being dropped to zero so they stay adjustable later.
const NominalUnitAmount int64 = 100

// Money represents a monetary value with currency.
// It is an immutable value object holding the amount in the smallest
// currency unit (cents).
type Money struct {
	amount   int64
	currency string // ISO 4217 currency code (e.g., "usd")
}

// New creates a new Money value object.
func New(amount int64, currency string) Money {
	if currency == "" {
		currency = "usd"
	}
	return Money{amount: amount, currency: currency}
}

// Zero returns a zero Money value in the given currency.
func Zero(currency string) Money {
	return New(0, currency)
}

// NominalUnit returns the nominal unit amount in the given currency.
func NominalUnit(currency string) Money {
	return New(NominalUnitAmount, currency)
}

// Amount returns the amount in smallest currency unit.
func (m Money) Amount() int64 {
	return m.amount
}

// Currency returns the ISO 4217 currency code.
func (m Money) Currency() string {
	return m.currency
}

// IsZero returns true if the amount is zero.
func (m Money) IsZero() bool {
	return m.amount == 0
}

// IsPositive returns true if the amount is positive.
func (m Money) IsPositive() bool {
	return m.amount > 0
}

// IsNegative returns true if the amount is negative.
func (m Money) IsNegative() bool {
	return m.amount < 0
}

// Add returns a new Money with the sum of two Money values.
// Returns an error if currencies don't match.
func (m Money) Add(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, fmt.Errorf("currency mismatch: %s vs %s", m.currency, other.currency)
	}
	return New(m.amount+other.amount, m.currency), nil
}

// Subtract returns a new Money with the difference of two Money values.
// Returns an error if currencies don't match.
func (m Money) Subtract(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, fmt.Errorf("currency mismatch: %s vs %s", m.currency, other.currency)
	}
	return New(m.amount-other.amount, m.currency), nil
}

// Cmp compares two amounts, ignoring currency. Returns -1, 0 or 1.
func (m Money) Cmp(other Money) int {
	switch {
	case m.amount < other.amount:
		return -1
	case m.amount > other.amount:
		return 1
	default:
		return 0
	}
}

// Equals checks if two Money values are equal.
func (m Money) Equals(other Money) bool {
	return m.amount == other.amount && m.currency == other.currency
}

// String returns a string representation of the Money value.
func (m Money) String() string {
	sign := ""
	a := m.amount
	if a < 0 {
		sign = "-"
		a = -a
	}
	return fmt.Sprintf("%s%d.%02d %s", sign, a/100, a%100, m.currency)
}
