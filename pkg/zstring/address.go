package zstring

import (
	"fmt"

	"github.com/oisee/zvm/pkg/memory"
)

// Address is the location of the first word of an encoded string.
type Address struct {
	word memory.WordAddress
}

// At returns the string starting at the given word.
func At(w memory.WordAddress) Address {
	return Address{word: w}
}

// AtByte returns the string starting at a byte address, as used by
// dictionary entries and object short names.
func AtByte(a memory.ByteAddress) (Address, error) {
	w, err := memory.WordAt(a)
	if err != nil {
		return Address{}, fmt.Errorf("zstring: %w", err)
	}
	return Address{word: w}, nil
}

// Word returns the address of the string's first word.
func (a Address) Word() memory.WordAddress {
	return a.word
}

func (a Address) String() string {
	return a.word.String()
}

// WordPointer is a word address as stored in the abbreviation table:
// the byte address halved. Use Unpack to reach the string.
type WordPointer uint16

// Unpack doubles the pointer into the address of the string it refers to.
func (p WordPointer) Unpack() (Address, error) {
	w, err := memory.NewWordAddress(int(p) * memory.WordSize)
	if err != nil {
		return Address{}, fmt.Errorf("zstring: unpack word pointer %#04x: %w", uint16(p), err)
	}
	return Address{word: w}, nil
}
