package leverage

import (
	"math/bits"

	"github.com/holiman/uint256"
)

// UnderlyingMask bit 0
var UnderlyingMask = uint256.NewInt(1)

// MaskFor single bit mask of index
func MaskFor(index uint8) *uint256.Int {
	return new(uint256.Int).Lsh(uint256.NewInt(1), uint(index))
}

// IsSingleBit reports whether exactly one bit of mask is set
func IsSingleBit(mask *uint256.Int) bool {
	if mask.IsZero() {
		return false
	}

	minusOne := new(uint256.Int).Sub(mask, uint256.NewInt(1))
	return new(uint256.Int).And(mask, minusOne).IsZero()
}

// BitIndex index of a single bit mask
func BitIndex(mask *uint256.Int) (uint8, bool) {
	if !IsSingleBit(mask) {
		return 0, false
	}

	return uint8(mask.BitLen() - 1), true
}

// HasBit reports whether every bit of bit is set in mask
func HasBit(mask, bit *uint256.Int) bool {
	return !bit.IsZero() && new(uint256.Int).And(mask, bit).Eq(bit)
}

// WithBit mask | bit
func WithBit(mask, bit *uint256.Int) *uint256.Int {
	return new(uint256.Int).Or(mask, bit)
}

// ForEachBit calls fn for every set bit of mask in ascending order
func ForEachBit(mask *uint256.Int, fn func(index uint8) (bool, error)) error {
	for word := 0; word < len(mask); word++ {
		w := mask[word]
		for w != 0 {
			tz := bits.TrailingZeros64(w)
			next, err := fn(uint8(word*64 + tz))
			if err != nil {
				return err
			}
			if !next {
				return nil
			}
			w &= w - 1
		}
	}

	return nil
}

// BitCount number of set bits
func BitCount(mask *uint256.Int) int {
	n := 0
	for _, w := range mask {
		n += bits.OnesCount64(w)
	}
	return n
}
