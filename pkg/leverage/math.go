package leverage

import (
	"leverage/core"

	"github.com/holiman/uint256"
)

// Add x + y
func Add(x, y *uint256.Int) (*uint256.Int, error) {
	z, overflow := new(uint256.Int).AddOverflow(x, y)
	if overflow {
		return nil, core.ErrArithmeticOverflow
	}
	return z, nil
}

// Sub x - y, underflow is an overflow error
func Sub(x, y *uint256.Int) (*uint256.Int, error) {
	z, underflow := new(uint256.Int).SubOverflow(x, y)
	if underflow {
		return nil, core.ErrArithmeticOverflow
	}
	return z, nil
}

// Mul x * y
func Mul(x, y *uint256.Int) (*uint256.Int, error) {
	z, overflow := new(uint256.Int).MulOverflow(x, y)
	if overflow {
		return nil, core.ErrArithmeticOverflow
	}
	return z, nil
}

// MulDiv x * y / d rounded down, the product may use 512 bits
func MulDiv(x, y, d *uint256.Int) (*uint256.Int, error) {
	if d.IsZero() {
		return nil, core.ErrArithmeticOverflow
	}

	z, overflow := new(uint256.Int).MulDivOverflow(x, y, d)
	if overflow {
		return nil, core.ErrArithmeticOverflow
	}
	return z, nil
}

// MulDivUp x * y / d rounded up
func MulDivUp(x, y, d *uint256.Int) (*uint256.Int, error) {
	z, err := MulDiv(x, y, d)
	if err != nil {
		return nil, err
	}

	if new(uint256.Int).MulMod(x, y, d).IsZero() {
		return z, nil
	}
	return Add(z, uint256.NewInt(1))
}

// PercentMul x * percent / PercentageFactor
func PercentMul(x *uint256.Int, percent uint16) (*uint256.Int, error) {
	return MulDiv(x, uint256.NewInt(uint64(percent)), uint256.NewInt(PercentageFactor))
}

// Min smaller of x and y
func Min(x, y *uint256.Int) *uint256.Int {
	if x.Lt(y) {
		return new(uint256.Int).Set(x)
	}
	return new(uint256.Int).Set(y)
}

// Zero new zero value
func Zero() *uint256.Int {
	return new(uint256.Int)
}
