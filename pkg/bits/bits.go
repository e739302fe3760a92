// Package bits extracts fixed-width unsigned fields from 16-bit words.
//
// Fields are named by their most significant bit and their width, the way
// the Z-machine standard describes them: "bits 4 to 0" is Field(Bit4, Five).
package bits

import "fmt"

// Number is a bit position within a word, Bit0 being the least significant.
type Number uint8

// Bit positions.
const (
	Bit0 Number = iota
	Bit1
	Bit2
	Bit3
	Bit4
	Bit5
	Bit6
	Bit7
	Bit8
	Bit9
	Bit10
	Bit11
	Bit12
	Bit13
	Bit14
	Bit15
)

// Size is the width of a field in bits.
type Size uint8

// Field widths used by the decoders.
const (
	One   Size = 1
	Two   Size = 2
	Three Size = 3
	Four  Size = 4
	Five  Size = 5
	Six   Size = 6
)

// Pattern is a 16-bit word viewed as a bit field container.
type Pattern uint16

// Bits returns the size-bit field whose most significant bit is high.
// A field that would extend below bit 0 is a programming error and panics.
func (p Pattern) Bits(high Number, size Size) uint16 {
	low := int(high) - int(size) + 1
	if low < 0 || high > Bit15 {
		panic(fmt.Sprintf("bits: %d-bit field at bit %d does not fit a word", size, high))
	}
	mask := uint16(1)<<size - 1
	return (uint16(p) >> uint(low)) & mask
}

// Bit returns the single bit at n.
func (p Pattern) Bit(n Number) uint16 {
	return p.Bits(n, One)
}

// IsSet reports whether bit n is 1.
func (p Pattern) IsSet(n Number) bool {
	return p.Bit(n) == 1
}
