package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("holds amount and currency", func(t *testing.T) {
		m := New(2500, "eur")
		assert.Equal(t, int64(2500), m.Amount())
		assert.Equal(t, "eur", m.Currency())
	})

	t.Run("defaults empty currency to usd", func(t *testing.T) {
		m := New(100, "")
		assert.Equal(t, "usd", m.Currency())
	})

	t.Run("zero", func(t *testing.T) {
		m := Zero("usd")
		assert.True(t, m.IsZero())
		assert.False(t, m.IsPositive())
		assert.False(t, m.IsNegative())
	})

	t.Run("nominal unit", func(t *testing.T) {
		m := NominalUnit("usd")
		assert.Equal(t, NominalUnitAmount, m.Amount())
		assert.True(t, m.IsPositive())
	})
}

func TestArithmetic(t *testing.T) {
	t.Run("add", func(t *testing.T) {
		sum, err := New(1000, "usd").Add(New(250, "usd"))
		require.NoError(t, err)
		assert.Equal(t, int64(1250), sum.Amount())
	})

	t.Run("subtract below zero", func(t *testing.T) {
		diff, err := New(1000, "usd").Subtract(New(1500, "usd"))
		require.NoError(t, err)
		assert.Equal(t, int64(-500), diff.Amount())
		assert.True(t, diff.IsNegative())
	})

	t.Run("currency mismatch", func(t *testing.T) {
		_, err := New(1000, "usd").Add(New(250, "eur"))
		require.Error(t, err)

		_, err = New(1000, "usd").Subtract(New(250, "eur"))
		require.Error(t, err)
	})

	t.Run("operands unchanged", func(t *testing.T) {
		a := New(1000, "usd")
		b := New(250, "usd")
		_, err := a.Add(b)
		require.NoError(t, err)
		assert.Equal(t, int64(1000), a.Amount())
		assert.Equal(t, int64(250), b.Amount())
	})
}

func TestComparison(t *testing.T) {
	t.Run("cmp", func(t *testing.T) {
		assert.Equal(t, -1, New(100, "usd").Cmp(New(200, "usd")))
		assert.Equal(t, 0, New(200, "usd").Cmp(New(200, "usd")))
		assert.Equal(t, 1, New(300, "usd").Cmp(New(200, "usd")))
	})

	t.Run("equals requires same currency", func(t *testing.T) {
		assert.True(t, New(200, "usd").Equals(New(200, "usd")))
		assert.False(t, New(200, "usd").Equals(New(200, "eur")))
		assert.False(t, New(200, "usd").Equals(New(201, "usd")))
	})
}

func TestString(t *testing.T) {
	assert.Equal(t, "12.05 usd", New(1205, "usd").String())
	assert.Equal(t, "0.07 usd", New(7, "usd").String())
	assert.Equal(t, "-3.50 eur", New(-350, "eur").String())
}
