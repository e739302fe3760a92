package story

import (
	"fmt"

	"github.com/oisee/zvm/pkg/memory"
)

// Header field offsets.
var (
	offsetVersion       = memory.ByteAddress(0)
	offsetFlags1        = memory.ByteAddress(1)
	offsetRelease       = memory.MustWord(2)
	offsetHighMemory    = memory.MustWord(4)
	offsetInitialPC     = memory.MustWord(6)
	offsetDictionary    = memory.MustWord(8)
	offsetObjectTable   = memory.MustWord(10)
	offsetGlobals       = memory.MustWord(12)
	offsetStaticBase    = memory.MustWord(14)
	offsetFlags2        = memory.MustWord(16)
	offsetSerial        = memory.ByteAddress(18)
	offsetAbbreviations = memory.MustWord(24)
	offsetFileLength    = memory.MustWord(26)
	offsetChecksum      = memory.MustWord(28)
	offsetRoutines      = memory.MustWord(40)
	offsetStrings       = memory.MustWord(42)
)

// serialLength is the number of ASCII bytes in the serial code.
const serialLength = 6

// Header holds the fixed fields at the start of a story file.
type Header struct {
	Version       Version
	Flags1        byte
	Release       uint16
	HighMemory    memory.ByteAddress
	InitialPC     memory.ByteAddress
	Dictionary    memory.ByteAddress
	ObjectTable   memory.ByteAddress
	Globals       memory.ByteAddress
	StaticBase    memory.ByteAddress
	Flags2        uint16
	Serial        string
	Abbreviations memory.WordAddress
	FileLength    int
	Checksum      uint16

	// V6 and V7 only: added to packed routine and string addresses.
	RoutinesOffset uint16
	StringsOffset  uint16
}

type reader interface {
	Read(memory.ByteAddress) (byte, error)
	ReadWord(memory.WordAddress) (uint16, error)
}

// readHeader parses the header. The version is checked before any other
// field is read, so a bad version is reported even on a truncated file.
func readHeader(r reader) (Header, error) {
	var h Header
	b, err := r.Read(offsetVersion)
	if err != nil {
		return h, fmt.Errorf("story: header version: %w", err)
	}
	if h.Version, err = checkVersion(b); err != nil {
		return h, err
	}
	if h.Flags1, err = r.Read(offsetFlags1); err != nil {
		return h, fmt.Errorf("story: header flags: %w", err)
	}

	words := []struct {
		at   memory.WordAddress
		name string
		set  func(uint16)
	}{
		{offsetRelease, "release", func(v uint16) { h.Release = v }},
		{offsetHighMemory, "high memory", func(v uint16) { h.HighMemory = memory.ByteAddress(v) }},
		{offsetInitialPC, "initial pc", func(v uint16) { h.InitialPC = memory.ByteAddress(v) }},
		{offsetDictionary, "dictionary", func(v uint16) { h.Dictionary = memory.ByteAddress(v) }},
		{offsetObjectTable, "object table", func(v uint16) { h.ObjectTable = memory.ByteAddress(v) }},
		{offsetGlobals, "globals", func(v uint16) { h.Globals = memory.ByteAddress(v) }},
		{offsetStaticBase, "static base", func(v uint16) { h.StaticBase = memory.ByteAddress(v) }},
		{offsetFlags2, "flags 2", func(v uint16) { h.Flags2 = v }},
		{offsetFileLength, "file length", func(v uint16) { h.FileLength = int(v) * fileLengthScale(h.Version) }},
		{offsetChecksum, "checksum", func(v uint16) { h.Checksum = v }},
		{offsetRoutines, "routines offset", func(v uint16) { h.RoutinesOffset = v }},
		{offsetStrings, "strings offset", func(v uint16) { h.StringsOffset = v }},
	}
	for _, f := range words {
		v, err := r.ReadWord(f.at)
		if err != nil {
			return h, fmt.Errorf("story: header %s: %w", f.name, err)
		}
		f.set(v)
	}

	v, err := r.ReadWord(offsetAbbreviations)
	if err != nil {
		return h, fmt.Errorf("story: header abbreviations: %w", err)
	}
	if h.Abbreviations, err = memory.NewWordAddress(int(v)); err != nil {
		return h, fmt.Errorf("story: header abbreviations: %w", err)
	}

	serial := make([]byte, serialLength)
	for i := range serial {
		if serial[i], err = r.Read(offsetSerial + memory.ByteAddress(i)); err != nil {
			return h, fmt.Errorf("story: header serial: %w", err)
		}
	}
	h.Serial = string(serial)
	return h, nil
}

// fileLengthScale is the multiplier applied to the stored file length.
func fileLengthScale(v Version) int {
	switch {
	case v.IsV3OrLower():
		return 2
	case v.IsV5OrHigher() && v != V5:
		return 8
	default:
		return 4
	}
}
