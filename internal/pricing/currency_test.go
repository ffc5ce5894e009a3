package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatCurrency(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0.00012345", "$0.000123"},
		{"0.0001", "$0.00010"},
		{"0.00099999", "$0.000999"},
		{"0.0099", "$0.0099"},
		{"0.00999", "$0.0100"},
		{"0.00123", "$0.0013"},
		{"123.456", "$123.45"},
		{"1234567.891", "$1,234,567.89"},
		{"1000", "$1,000.00"},
		{"0", "$0.00"},
		{"0.5", "$0.50"},
		{"0.129", "$0.12"},
		{"1.0001", "$1.00"},
		{"-12.349", "-$12.34"},
		{"-0.0012", "-$0.0012"},
		{"0.0000001", "$0.00"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatCurrency(decimal.RequireFromString(tt.in)))
		})
	}
}

func TestFormatFloat(t *testing.T) {
	assert.Equal(t, "$150.25", FormatFloat(150.25))
	assert.Equal(t, "$0.29", FormatFloat(0.29))
}

func TestShortestMatchesNumberRendering(t *testing.T) {
	assert.Equal(t, "0.000001", shortest(0.000001))
	assert.Equal(t, "1e-07", shortest(0.0000001))
	assert.Equal(t, "123.456", shortest(123.456))
}
