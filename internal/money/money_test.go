package money

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddAndMultiplyKeepCents(t *testing.T) {
	price := MustFromString("0.10")
	total := Zero()
	for range 1000 {
		total = total.Add(price)
	}
	assert.Equal(t, "100.00", total.String())
	assert.True(t, total.Equal(price.Multiply(1000)))
}

func TestNewRoundsToScale(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "given whole number should pad cents", input: "10", expected: "10.00"},
		{name: "given half cent should round away from zero", input: "1.005", expected: "1.01"},
		{name: "given below half cent should round down", input: "1.004", expected: "1.00"},
		{name: "given negative half cent should round away from zero", input: "-1.005", expected: "-1.01"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New(decimal.RequireFromString(tt.input))
			assert.Equal(t, tt.expected, m.String())
		})
	}
}

func TestFromCents(t *testing.T) {
	assert.Equal(t, "12.34", FromCents(1234).String())
	assert.True(t, FromCents(0).IsZero())
}

func TestAverage(t *testing.T) {
	assert.Equal(t, "20.00", MustFromString("60.00").Average(3).String())
	assert.Equal(t, "3.33", MustFromString("10.00").Average(3).String())
	assert.True(t, MustFromString("10.00").Average(0).IsZero())
}

func TestCmp(t *testing.T) {
	a := MustFromString("10.00")
	b := MustFromString("10")
	c := MustFromString("9.99")
	assert.Equal(t, 0, a.Cmp(b))
	assert.Equal(t, 1, a.Cmp(c))
	assert.Equal(t, -1, c.Cmp(a))
	assert.True(t, c.Sub(a).IsNegative())
}

func TestSum(t *testing.T) {
	assert.Equal(t, "60.00", Sum(FromCents(1000), FromCents(2000), FromCents(3000)).String())
	assert.True(t, Sum().IsZero())
}

func TestJSON(t *testing.T) {
	type payload struct {
		Price Money `json:"price"`
	}

	encoded, err := json.Marshal(payload{Price: MustFromString("10")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"price":"10.00"}`, string(encoded))

	decoded := payload{}
	require.NoError(t, json.Unmarshal([]byte(`{"price":"12.5"}`), &decoded))
	assert.Equal(t, "12.50", decoded.Price.String())

	require.NoError(t, json.Unmarshal([]byte(`{"price":7.25}`), &decoded))
	assert.Equal(t, "7.25", decoded.Price.String())

	assert.Error(t, json.Unmarshal([]byte(`{"price":"abc"}`), &decoded))
}

func TestFromStringInvalid(t *testing.T) {
	_, err := FromString("ten")
	assert.Error(t, err)
	assert.Panics(t, func() { MustFromString("ten") })
}
