package money

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		wantErr  bool
	}{
		{"plain amount", "100.00", "100.00", false},
		{"rounds to two places", "10.005", "10.01", false},
		{"integer string", "7", "7.00", false},
		{"negative allowed", "-3.50", "-3.50", false},
		{"garbage rejected", "ten pounds", "", true},
		{"empty rejected", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Parse(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidAmount))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, Format(d))
		})
	}
}

func TestParseNonNegative(t *testing.T) {
	d, err := ParseNonNegative("12.34")
	require.NoError(t, err)
	assert.Equal(t, "12.34", Format(d))

	_, err = ParseNonNegative("-0.01")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidAmount))

	// Zero is fine
	d, err = ParseNonNegative("0.00")
	require.NoError(t, err)
	assert.True(t, d.IsZero())
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "0.00", Format(decimal.Zero))
	assert.Equal(t, "1.50", Format(decimal.NewFromFloat(1.5)))
	assert.Equal(t, "-2.00", Format(decimal.NewFromInt(-2)))
}
