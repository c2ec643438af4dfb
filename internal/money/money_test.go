package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  string
	}{
		{"float", 100.5, "100.5"},
		{"float with binary noise", 0.1, "0.1"},
		{"text", "200.75", "200.75"},
		{"integer", 500, "500"},
		{"int64", int64(42), "42"},
		{"decimal passthrough", decimal.RequireFromString("1000.50"), "1000.50"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.input)
			require.NoError(t, err)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)),
				"got %s, want %s", got.String(), tt.want)
		})
	}
}

func TestNormalize_Malformed(t *testing.T) {
	var formatErr *FormatError

	_, err := Normalize("12.3.4")
	require.Error(t, err)
	assert.ErrorAs(t, err, &formatErr)

	_, err = Normalize(struct{}{})
	require.Error(t, err)
	assert.ErrorAs(t, err, &formatErr)

	_, err = Parse("not a number")
	require.Error(t, err)
	assert.ErrorAs(t, err, &formatErr)
	assert.Contains(t, err.Error(), "not a number")
}

func TestFormat(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"749.75", "749.75"},
		{"751", "751.00"},
		{"0.005", "0.01"},
		{"2.675", "2.68"},
		{"-1.005", "-1.01"},
		{"1000.5", "1000.50"},
	}

	for _, tt := range tests {
		d := decimal.RequireFromString(tt.input)
		assert.Equal(t, tt.want, Format(d), "Format(%s)", tt.input)
	}
}

// Round-tripping through the display form must be lossless for values that
// already fit in two fraction digits.
func TestRoundTrip(t *testing.T) {
	inputs := []any{100.5, "200.75", 500}

	for _, in := range inputs {
		d, err := Normalize(in)
		require.NoError(t, err)

		back, err := Normalize(Format(d))
		require.NoError(t, err)
		assert.True(t, back.Equal(d), "round trip changed %v: %s != %s", in, back, d)
	}
}
