package common

import (
	"errors"

	"github.com/holiman/uint256"
)

var (
	// ErrMathOverflow signals that a checked operation left the uint64 range.
	ErrMathOverflow = errors.New("math overflow")
	// ErrDivisionByZero is returned by MulDiv when the divisor is zero.
	ErrDivisionByZero = errors.New("division by zero")
)

// BasisPoints is the denominator used for every bps-denominated rate.
const BasisPoints = 10_000

// AddU64 returns a+b or ErrMathOverflow.
func AddU64(a, b uint64) (uint64, error) {
	sum := a + b
	if sum < a {
		return 0, ErrMathOverflow
	}
	return sum, nil
}

// SubU64 returns a-b or ErrMathOverflow when b exceeds a.
func SubU64(a, b uint64) (uint64, error) {
	if b > a {
		return 0, ErrMathOverflow
	}
	return a - b, nil
}

// MulU64 returns a*b or ErrMathOverflow.
func MulU64(a, b uint64) (uint64, error) {
	product, overflow := new(uint256.Int).MulOverflow(uint256.NewInt(a), uint256.NewInt(b))
	if overflow || !product.IsUint64() {
		return 0, ErrMathOverflow
	}
	return product.Uint64(), nil
}

// MulDiv computes floor(a*b/d) with a 256-bit intermediate product so the
// multiplication never wraps. The quotient must fit in uint64.
func MulDiv(a, b, d uint64) (uint64, error) {
	if d == 0 {
		return 0, ErrDivisionByZero
	}
	product := new(uint256.Int).Mul(uint256.NewInt(a), uint256.NewInt(b))
	quotient := product.Div(product, uint256.NewInt(d))
	if !quotient.IsUint64() {
		return 0, ErrMathOverflow
	}
	return quotient.Uint64(), nil
}

// ApplyBps returns floor(amount*bps/10000).
func ApplyBps(amount, bps uint64) (uint64, error) {
	return MulDiv(amount, bps, BasisPoints)
}
