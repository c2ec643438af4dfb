// Package money is the single entry point for turning outside numeric values
// into exact decimals. Every amount that reaches the transfer engine or the
// stores has been through Normalize or Parse; nothing downstream touches
// binary floating point.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

func init() {
	// Matches the 28 significant digits the NUMERIC arithmetic is specified
	// with. Addition and subtraction are exact regardless; this only bounds
	// division, which currency code here never performs on stored balances.
	decimal.DivisionPrecision = 28
}

// FormatError reports numeric input that could not be parsed as a decimal.
// It is expected to be handled at the input boundary (console or HTTP),
// never inside the engine.
type FormatError struct {
	Input string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("malformed decimal input: %q", e.Input)
}

// Normalize converts any supported numeric representation into an exact
// decimal. Floats are rendered through their shortest round-trip form first,
// so 100.1 becomes exactly 100.1 rather than its binary approximation.
func Normalize(v any) (decimal.Decimal, error) {
	switch n := v.(type) {
	case decimal.Decimal:
		return n, nil
	case string:
		return Parse(n)
	case float64:
		return decimal.NewFromFloat(n), nil
	case float32:
		return decimal.NewFromFloat32(n), nil
	case int:
		return decimal.NewFromInt(int64(n)), nil
	case int64:
		return decimal.NewFromInt(n), nil
	case int32:
		return decimal.NewFromInt32(n), nil
	default:
		return decimal.Zero, &FormatError{Input: fmt.Sprintf("%v", v)}
	}
}

// Parse converts textual input directly to an exact decimal.
func Parse(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, &FormatError{Input: s}
	}
	return d, nil
}

// Format renders a decimal with exactly two fraction digits, rounding half
// away from zero the same way a NUMERIC(15,2) column does on write. Displayed
// and persisted values therefore never diverge.
func Format(d decimal.Decimal) string {
	return d.StringFixed(2)
}
