package story

import (
	"fmt"

	"github.com/oisee/zvm/pkg/memory"
	"github.com/oisee/zvm/pkg/zstring"
)

// PackedAddress is a routine or string operand whose byte address is a
// version-dependent multiple of the stored value. It is not a
// zstring.WordPointer, which is always doubled.
type PackedAddress uint16

// PackedKind selects the V6-7 offset applied when unpacking.
type PackedKind uint8

const (
	PackedRoutine PackedKind = iota
	PackedString
)

// Unpack converts p to a byte address for this story's version.
func (s *Story) Unpack(p PackedAddress, kind PackedKind) (memory.ByteAddress, error) {
	var v int
	switch ver := s.header.Version; {
	case ver.IsV3OrLower():
		v = 2 * int(p)
	case ver == V4 || ver == V5:
		v = 4 * int(p)
	case ver == V6 || ver == V7:
		offset := s.header.RoutinesOffset
		if kind == PackedString {
			offset = s.header.StringsOffset
		}
		v = 4*int(p) + 8*int(offset)
	default:
		v = 8 * int(p)
	}
	a, err := memory.NewByteAddress(v)
	if err != nil {
		return 0, fmt.Errorf("story: unpack %#04x: %w", uint16(p), err)
	}
	return a, nil
}

// UnpackString is Unpack for a string operand, returning its Z-string address.
func (s *Story) UnpackString(p PackedAddress) (zstring.Address, error) {
	a, err := s.Unpack(p, PackedString)
	if err != nil {
		return zstring.Address{}, err
	}
	return zstring.AtByte(a)
}
