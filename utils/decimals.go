package utils

import "math/big"

const MaxDecimalShift = 38

func pow10(n int) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}

// ShiftValue converts an amount from the other side's precision to this side's.
func ShiftValue(value *big.Int, shift int) *big.Int {
	switch {
	case shift > 0:
		return new(big.Int).Mul(value, pow10(shift))
	case shift < 0:
		return new(big.Int).Quo(value, pow10(-shift))
	}
	return new(big.Int).Set(value)
}

// UnshiftValue converts an amount from this side's precision to the other side's.
func UnshiftValue(value *big.Int, shift int) *big.Int {
	return ShiftValue(value, -shift)
}
