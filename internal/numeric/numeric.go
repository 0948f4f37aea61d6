// Package numeric implements the exact fraction-based amounts used
// throughout the ledger. Amounts are never converted to binary floating
// point; arithmetic and comparison work on the numerator/denominator pair
// directly so that sums over thousands of splits stay exact.
package numeric

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Numeric is an exact signed fraction. The denominator is kept positive;
// the sign lives on the numerator.
type Numeric struct {
	Num   int64
	Denom int64
}

// Zero is the canonical zero amount.
var Zero = Numeric{Num: 0, Denom: 1}

// MalformedAmountError reports a value string that is not a valid
// "numerator/denominator" pair.
type MalformedAmountError struct {
	Input string
}

func (e *MalformedAmountError) Error() string {
	return fmt.Sprintf("malformed amount %q: want \"numerator/denominator\"", e.Input)
}

// New returns a Numeric with the sign normalized onto the numerator.
func New(num, denom int64) Numeric {
	if denom < 0 {
		num, denom = -num, -denom
	}
	return Numeric{Num: num, Denom: denom}
}

// Parse reads a GnuCash "N/D" amount string.
func Parse(s string) (Numeric, error) {
	left, right, ok := strings.Cut(s, "/")
	if !ok {
		return Numeric{}, &MalformedAmountError{Input: s}
	}
	num, err := strconv.ParseInt(left, 10, 64)
	if err != nil {
		return Numeric{}, &MalformedAmountError{Input: s}
	}
	denom, err := strconv.ParseInt(right, 10, 64)
	if err != nil {
		return Numeric{}, &MalformedAmountError{Input: s}
	}
	return New(num, denom), nil
}

// IsZero reports whether the amount equals zero.
func (n Numeric) IsZero() bool {
	return n.Num == 0
}

// Sign returns -1, 0 or 1.
func (n Numeric) Sign() int {
	switch {
	case n.Num < 0:
		return -1
	case n.Num > 0:
		return 1
	}
	return 0
}

// Neg returns the negated amount.
func (n Numeric) Neg() Numeric {
	return Numeric{Num: -n.Num, Denom: n.Denom}
}

// Abs returns the absolute amount.
func (n Numeric) Abs() Numeric {
	if n.Num < 0 {
		return n.Neg()
	}
	return n
}

// Add returns n + o, rescaling to a common denominator and reducing the
// result so denominators do not grow across long sums.
func (n Numeric) Add(o Numeric) Numeric {
	if n.Denom == o.Denom {
		return Numeric{Num: n.Num + o.Num, Denom: n.Denom}
	}
	num := n.Num*o.Denom + o.Num*n.Denom
	denom := n.Denom * o.Denom
	return reduce(num, denom)
}

// Equal compares two amounts exactly, independent of representation.
func (n Numeric) Equal(o Numeric) bool {
	return n.Num*o.Denom == o.Num*n.Denom
}

// Decimal returns a decimal view of the amount for display. Storage and
// balancing never go through this.
func (n Numeric) Decimal() decimal.Decimal {
	if n.Denom == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(n.Num).Div(decimal.NewFromInt(n.Denom))
}

// String formats the amount in the canonical GnuCash text form: only
// common trailing factors of ten are stripped, never a full reduction, so
// 1250/100 prints as "125/10" (not "25/2"). A zero numerator collapses to
// "0/1" and a zero denominator to "1/0".
func (n Numeric) String() string {
	num, denom := n.Num, n.Denom
	if num == 0 {
		return "0/1"
	}
	if denom == 0 {
		return "1/0"
	}
	for num%10 == 0 && denom%10 == 0 {
		num /= 10
		denom /= 10
	}
	return strconv.FormatInt(num, 10) + "/" + strconv.FormatInt(denom, 10)
}

func reduce(num, denom int64) Numeric {
	g := gcd(num, denom)
	if g > 1 {
		num /= g
		denom /= g
	}
	return New(num, denom)
}

func gcd(a, b int64) int64 {
	if a < 0 {
		a = -a
	}
	if b < 0 {
		b = -b
	}
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
