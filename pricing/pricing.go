// Package pricing computes the derived money fields of a prescription line.
// All arithmetic is decimal so that half-cent values round the way a
// cashier expects (1.005 becomes 1.01, not 1.00).
package pricing

import (
	"strings"

	"github.com/cockroachdb/apd/v3"
)

const zero = "0.00"

// money rounds half away from zero
var money = func() *apd.Context {
	c := apd.BaseContext.WithPrecision(34)
	c.Rounding = apd.RoundHalfUp
	return c
}()

// Total returns quantity × unitPrice rounded to two decimals.
// Empty, non-numeric or non-finite inputs count as zero, and the result is
// always a displayable number. Signs are kept: a negative quantity or price
// gives a negative total.
func Total(quantity, unitPrice string) string {
	q := parseQuantity(quantity)
	p := parseDecimal(unitPrice)

	var product apd.Decimal
	if _, err := money.Mul(&product, q, p); err != nil {
		return zero
	}
	return format(&product)
}

// Sum adds already formatted line totals into a grand total.
func Sum(totals ...string) string {
	sum := new(apd.Decimal)
	for _, t := range totals {
		if _, err := money.Add(sum, sum, parseDecimal(t)); err != nil {
			return zero
		}
	}
	return format(sum)
}

// Float converts a formatted amount back to float64 for JSON payloads.
func Float(amount string) float64 {
	f, err := parseDecimal(amount).Float64()
	if err != nil {
		return 0
	}
	return f
}

// Quantity returns the whole-number quantity the desk would submit.
func Quantity(s string) int {
	n, err := parseQuantity(s).Int64()
	if err != nil {
		return 0
	}
	return int(n)
}

func parseDecimal(s string) *apd.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return new(apd.Decimal)
	}
	d, _, err := apd.NewFromString(s)
	if err != nil || d.Form != apd.Finite {
		return new(apd.Decimal)
	}
	return d
}

// parseQuantity reads the leading integer of s the way the desk's integer
// parse does: "2.9" is 2, "1e3" is 1 and "12盒" is 12.
func parseQuantity(s string) *apd.Decimal {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return new(apd.Decimal)
	}
	d, _, err := apd.NewFromString(s[:end])
	if err != nil {
		return new(apd.Decimal)
	}
	return d
}

func format(d *apd.Decimal) string {
	var rounded apd.Decimal
	if _, err := money.Quantize(&rounded, d, -2); err != nil {
		return zero
	}
	if rounded.IsZero() {
		rounded.Negative = false
	}
	return rounded.Text('f')
}
