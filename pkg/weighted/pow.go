package weighted

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// Precision is the number of fractional digits carried by every quotient,
// power and returned result in this package.
//
// Ln and Exp run their series with guardDigits extra digits and stop once a
// term drops below 10^-(Precision+guardDigits). Pow is accurate to a
// relative error below 10^-30 for results in [10^-6, 10^100]; below that
// range the absolute error stays under 10^-(Precision-1).
const Precision int32 = 36

const (
	guardDigits   int32 = 4
	workPrecision       = Precision + guardDigits
	maxIterations       = 300
)

var (
	one  = decimal.NewFromInt(1)
	two  = decimal.NewFromInt(2)
	half = decimal.New(5, -1)

	// ln(2) to workPrecision digits.
	ln2 = decimal.RequireFromString("0.6931471805599453094172321214581765680755")

	epsilon = decimal.New(1, -workPrecision)

	// e^230.25 is just under 10^100.
	maxExpArg = decimal.RequireFromString("230.25")
)

// Pow returns base^exponent for any exponent, computed as
// exp(exponent * ln(base)). base must be positive.
func Pow(base, exponent decimal.Decimal) (decimal.Decimal, error) {
	if base.Sign() <= 0 {
		return decimal.Zero, fmt.Errorf("%w: pow base must be positive, got %s", ErrInvalidDomainInput, base)
	}
	switch {
	case exponent.IsZero(), base.Equal(one):
		return one, nil
	case exponent.Equal(one):
		return base, nil
	}

	l, err := ln(base)
	if err != nil {
		return decimal.Zero, err
	}
	r, err := exp(exponent.Mul(l).Round(workPrecision))
	if err != nil {
		return decimal.Zero, err
	}
	r = r.Round(Precision)
	if r.IsZero() {
		return decimal.Zero, fmt.Errorf("%w: %s^%s underflows", ErrPrecisionLoss, base, exponent)
	}
	return r, nil
}

// Ln returns the natural logarithm of x. x must be positive.
func Ln(x decimal.Decimal) (decimal.Decimal, error) {
	if x.Sign() <= 0 {
		return decimal.Zero, fmt.Errorf("%w: ln argument must be positive, got %s", ErrInvalidDomainInput, x)
	}
	l, err := ln(x)
	if err != nil {
		return decimal.Zero, err
	}
	return l.Round(Precision), nil
}

// Exp returns e^x.
func Exp(x decimal.Decimal) (decimal.Decimal, error) {
	r, err := exp(x)
	if err != nil {
		return decimal.Zero, err
	}
	r = r.Round(Precision)
	if r.IsZero() {
		return decimal.Zero, fmt.Errorf("%w: exp(%s) underflows", ErrPrecisionLoss, x)
	}
	return r, nil
}

// ln reduces x to m*2^k with m in [0.5, 2] and sums
// ln(m) = 2 * atanh((m-1)/(m+1)), where |z| <= 1/3.
func ln(x decimal.Decimal) (decimal.Decimal, error) {
	if x.Equal(one) {
		return decimal.Zero, nil
	}

	m := x
	k := int64(0)
	for m.GreaterThan(two) {
		m = m.DivRound(two, workPrecision)
		k++
	}
	for m.LessThan(half) {
		m = m.Mul(two)
		k--
	}

	z := m.Sub(one).DivRound(m.Add(one), workPrecision)
	z2 := z.Mul(z).Round(workPrecision)
	sum := z
	term := z
	for n := int64(1); ; n++ {
		if n > maxIterations {
			return decimal.Zero, fmt.Errorf("%w: ln(%s) did not converge", ErrPrecisionLoss, x)
		}
		term = term.Mul(z2).Round(workPrecision)
		t := term.DivRound(decimal.NewFromInt(2*n+1), workPrecision)
		if t.IsZero() || t.Abs().LessThan(epsilon) {
			break
		}
		sum = sum.Add(t)
	}

	return sum.Mul(two).Add(decimal.NewFromInt(k).Mul(ln2)).Round(workPrecision), nil
}

// exp reduces x = n*ln2 + r with |r| <= ln2/2, sums the Taylor series of
// e^r and scales the result by 2^n.
func exp(x decimal.Decimal) (decimal.Decimal, error) {
	if x.IsZero() {
		return one, nil
	}
	if x.GreaterThan(maxExpArg) {
		return decimal.Zero, fmt.Errorf("%w: exp(%s) exceeds 1e100", ErrNumericOverflow, x)
	}
	if x.LessThan(maxExpArg.Neg()) {
		return decimal.Zero, fmt.Errorf("%w: exp(%s) underflows", ErrPrecisionLoss, x)
	}

	n := x.DivRound(ln2, 0)
	r := x.Sub(n.Mul(ln2))

	sum := one
	term := one
	for i := int64(1); ; i++ {
		if i > maxIterations {
			return decimal.Zero, fmt.Errorf("%w: exp(%s) did not converge", ErrPrecisionLoss, x)
		}
		term = term.Mul(r).DivRound(decimal.NewFromInt(i), workPrecision)
		if term.IsZero() || term.Abs().LessThan(epsilon) {
			break
		}
		sum = sum.Add(term)
	}

	k := n.IntPart()
	if k == 0 {
		return sum, nil
	}
	shift := k
	if shift < 0 {
		shift = -shift
	}
	scale := decimal.NewFromBigInt(new(big.Int).Lsh(big.NewInt(1), uint(shift)), 0)
	if k > 0 {
		return sum.Mul(scale), nil
	}
	return sum.DivRound(scale, workPrecision), nil
}
