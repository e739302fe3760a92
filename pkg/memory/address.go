package memory

import (
	"errors"
	"fmt"
)

// MaxAddress is the highest addressable byte of a story.
const MaxAddress = 0xffff

// ErrAddressOutOfRange is returned for any address outside the story's
// 16-bit address space or outside the region it is applied to.
var ErrAddressOutOfRange = errors.New("address out of range")

func outOfRange(format string, args ...any) error {
	return fmt.Errorf("memory: "+format+": %w", append(args, ErrAddressOutOfRange)...)
}

// ByteAddress is an offset into the 16-bit story address space. Every
// uint16 is a valid ByteAddress; conversion from wider integers goes
// through NewByteAddress.
type ByteAddress uint16

// NewByteAddress validates v against [0, MaxAddress].
func NewByteAddress(v int) (ByteAddress, error) {
	if v < 0 || v > MaxAddress {
		return 0, outOfRange("byte address %#x outside [0, %#x]", v, MaxAddress)
	}
	return ByteAddress(v), nil
}

// Add offsets the address by n bytes. The result is revalidated; it never wraps.
func (a ByteAddress) Add(n int) (ByteAddress, error) {
	return NewByteAddress(int(a) + n)
}

// Sub is Add(-n).
func (a ByteAddress) Sub(n int) (ByteAddress, error) {
	return NewByteAddress(int(a) - n)
}

// Int returns the address as an int, for arithmetic and indexing.
func (a ByteAddress) Int() int {
	return int(a)
}

func (a ByteAddress) String() string {
	return fmt.Sprintf("0x%04x", uint16(a))
}

// WordSize is the number of bytes in a word.
const WordSize = 2

// WordAddress addresses a big-endian word: the high byte at the address,
// the low byte at address+1. Both must lie in the address space.
type WordAddress struct {
	addr uint16
}

// NewWordAddress validates that v and v+1 are both addressable.
func NewWordAddress(v int) (WordAddress, error) {
	if v < 0 || v+1 > MaxAddress {
		return WordAddress{}, outOfRange("word address %#x outside [0, %#x]", v, MaxAddress-1)
	}
	return WordAddress{addr: uint16(v)}, nil
}

// WordAt reinterprets a byte address as the start of a word.
func WordAt(a ByteAddress) (WordAddress, error) {
	return NewWordAddress(int(a))
}

// MustWord is NewWordAddress for compile-time constants such as header offsets.
func MustWord(v int) WordAddress {
	w, err := NewWordAddress(v)
	if err != nil {
		panic(err)
	}
	return w
}

// High is the address of the most significant byte.
func (w WordAddress) High() ByteAddress {
	return ByteAddress(w.addr)
}

// Low is the address of the least significant byte.
func (w WordAddress) Low() ByteAddress {
	return ByteAddress(w.addr + 1)
}

// Add moves the address forward by n words.
func (w WordAddress) Add(n int) (WordAddress, error) {
	return NewWordAddress(int(w.addr) + n*WordSize)
}

// Sub moves the address back by n words.
func (w WordAddress) Sub(n int) (WordAddress, error) {
	return NewWordAddress(int(w.addr) - n*WordSize)
}

// Int returns the byte offset of the word.
func (w WordAddress) Int() int {
	return int(w.addr)
}

func (w WordAddress) String() string {
	return fmt.Sprintf("0x%04x", w.addr)
}
