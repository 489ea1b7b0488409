// Package precise performs exact arithmetic on decimal numbers carried as text.
//
// An empty string stands for an absent value. Every operation short-circuits to
// an empty result when an operand is absent or unparsable, and division by zero
// yields an empty result instead of an error.
package precise

import (
	"github.com/shopspring/decimal"
)

// DivisionPrecision is the number of fractional digits kept by Div.
const DivisionPrecision = 18

func parse(s string) (decimal.Decimal, bool) {
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

func binary(a, b string, op func(x, y decimal.Decimal) decimal.Decimal) string {
	x, ok := parse(a)
	if !ok {
		return ""
	}
	y, ok := parse(b)
	if !ok {
		return ""
	}
	return op(x, y).String()
}

// Add returns a + b.
func Add(a, b string) string {
	return binary(a, b, decimal.Decimal.Add)
}

// Sub returns a - b.
func Sub(a, b string) string {
	return binary(a, b, decimal.Decimal.Sub)
}

// Mul returns a * b.
func Mul(a, b string) string {
	return binary(a, b, decimal.Decimal.Mul)
}

// Div returns a / b truncated to DivisionPrecision fractional digits.
func Div(a, b string) string {
	x, ok := parse(a)
	if !ok {
		return ""
	}
	y, ok := parse(b)
	if !ok || y.IsZero() {
		return ""
	}
	q, _ := x.QuoRem(y, DivisionPrecision)
	return q.String()
}

// Abs returns |a|.
func Abs(a string) string {
	x, ok := parse(a)
	if !ok {
		return ""
	}
	return x.Abs().String()
}

// Neg returns -a.
func Neg(a string) string {
	x, ok := parse(a)
	if !ok {
		return ""
	}
	return x.Neg().String()
}

func compare(a, b string) (int, bool) {
	x, ok := parse(a)
	if !ok {
		return 0, false
	}
	y, ok := parse(b)
	if !ok {
		return 0, false
	}
	return x.Cmp(y), true
}

// Gt reports a > b. Absent operands compare false.
func Gt(a, b string) bool {
	c, ok := compare(a, b)
	return ok && c > 0
}

// Ge reports a >= b.
func Ge(a, b string) bool {
	c, ok := compare(a, b)
	return ok && c >= 0
}

// Lt reports a < b.
func Lt(a, b string) bool {
	c, ok := compare(a, b)
	return ok && c < 0
}

// Le reports a <= b.
func Le(a, b string) bool {
	c, ok := compare(a, b)
	return ok && c <= 0
}

// Eq reports a == b numerically, so "1.0" equals "1".
func Eq(a, b string) bool {
	c, ok := compare(a, b)
	return ok && c == 0
}

// ToDecimal converts decimal text to a NullDecimal, unset when s is absent.
func ToDecimal(s string) decimal.NullDecimal {
	d, ok := parse(s)
	return decimal.NullDecimal{Decimal: d, Valid: ok}
}

// FromDecimal renders a NullDecimal back to text, empty when unset.
func FromDecimal(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.String()
}

// TruncateToStep truncates value down (toward zero) to a whole multiple of step.
// A non-positive step leaves value unchanged.
func TruncateToStep(value, step decimal.Decimal) decimal.Decimal {
	if step.Sign() <= 0 {
		return value
	}
	return value.Div(step).Truncate(0).Mul(step)
}

// RoundToStep rounds value half away from zero to the nearest multiple of step.
// A non-positive step leaves value unchanged.
func RoundToStep(value, step decimal.Decimal) decimal.Decimal {
	if step.Sign() <= 0 {
		return value
	}
	return value.Div(step).Round(0).Mul(step)
}
