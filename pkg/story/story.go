// Package story parses a Z-machine story image: header, abbreviation
// table, dictionary and object tree.
//
// A Story is immutable. Writes go to dynamic memory and return a new
// Story that shares everything else with the old one, so a caller can
// keep earlier values for undo or hand them to other goroutines.
package story

import (
	"fmt"

	"github.com/oisee/zvm/pkg/memory"
	"github.com/oisee/zvm/pkg/zstring"
)

// Story is a loaded story file split into dynamic and static memory.
type Story struct {
	dynamic memory.Image
	static  memory.Image

	header        Header
	abbreviations AbbreviationTable
	dictionary    dictionaryLayout
	objects       objectLayout
}

// New builds a Story from its two regions and parses the header and tables.
func New(dynamic, static memory.Image) (*Story, error) {
	s := &Story{dynamic: dynamic, static: static}
	h, err := readHeader(s)
	if err != nil {
		return nil, err
	}
	s.header = h
	s.abbreviations = AbbreviationTable{base: h.Abbreviations}
	if s.dictionary, err = readDictionary(s, h.Dictionary); err != nil {
		return nil, err
	}
	if s.objects, err = newObjectLayout(h.Version, h.ObjectTable); err != nil {
		return nil, err
	}
	return s, nil
}

// Header returns the parsed header.
func (s *Story) Header() Header {
	return s.header
}

// Version returns the story format version.
func (s *Story) Version() Version {
	return s.header.Version
}

// AbbreviationTable returns the abbreviation pointer table.
func (s *Story) AbbreviationTable() AbbreviationTable {
	return s.abbreviations
}

// DynamicLen is the size of the writable region.
func (s *Story) DynamicLen() int {
	return s.dynamic.Len()
}

// StaticLen is the size of the read-only region.
func (s *Story) StaticLen() int {
	return s.static.Len()
}

// Len is the total addressable size.
func (s *Story) Len() int {
	return s.dynamic.Len() + s.static.Len()
}

// Read returns the byte at a from whichever region holds it.
func (s *Story) Read(a memory.ByteAddress) (byte, error) {
	if s.dynamic.IsInRange(a) {
		return s.dynamic.Read(a)
	}
	return s.static.Read(a - memory.ByteAddress(s.dynamic.Len()))
}

// ReadWord returns the big-endian word at w. The two bytes may straddle
// the region boundary.
func (s *Story) ReadWord(w memory.WordAddress) (uint16, error) {
	high, err := s.Read(w.High())
	if err != nil {
		return 0, err
	}
	low, err := s.Read(w.Low())
	if err != nil {
		return 0, err
	}
	return uint16(high)<<8 | uint16(low), nil
}

// Write returns a new Story with dynamic byte a set to v.
func (s *Story) Write(a memory.ByteAddress, v byte) (*Story, error) {
	dynamic, err := s.dynamic.Write(a, v)
	if err != nil {
		return nil, fmt.Errorf("story: write to static memory: %w", err)
	}
	return s.withDynamic(dynamic), nil
}

// WriteWord returns a new Story with the dynamic word at w set to v.
func (s *Story) WriteWord(w memory.WordAddress, v uint16) (*Story, error) {
	dynamic, err := s.dynamic.WriteWord(w, v)
	if err != nil {
		return nil, fmt.Errorf("story: write to static memory: %w", err)
	}
	return s.withDynamic(dynamic), nil
}

// withDynamic keeps the parsed header and tables: they hold only offsets.
func (s *Story) withDynamic(dynamic memory.Image) *Story {
	next := *s
	next.dynamic = dynamic
	return &next
}

// ReadString decodes the Z-string at addr.
func (s *Story) ReadString(addr zstring.Address) (string, error) {
	return zstring.Decode(s, addr)
}
