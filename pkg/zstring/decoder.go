// Package zstring decodes and encodes Z-machine compressed text.
//
// A string is a run of big-endian words, each holding three 5-bit codes in
// bits 14-10, 9-5 and 4-0. Bit 15 is set on the last word.
package zstring

import (
	"errors"
	"fmt"
	"strings"

	"github.com/oisee/zvm/pkg/bits"
	"github.com/oisee/zvm/pkg/memory"
)

var (
	// ErrUnsupportedFeature marks encodings the decoder recognises but
	// cannot render, such as ZSCII escapes outside printable ASCII.
	ErrUnsupportedFeature = errors.New("unsupported feature")

	// ErrNestedAbbreviation is returned when an abbreviation's own text
	// refers to another abbreviation.
	ErrNestedAbbreviation = errors.New("nested abbreviation")
)

// Source is what the decoder needs from a story.
type Source interface {
	ReadWord(memory.WordAddress) (uint16, error)
	Abbreviation(AbbreviationNumber) (WordPointer, error)
}

// Decode returns the text of the string at addr.
func Decode(src Source, addr Address) (string, error) {
	text, _, err := DecodeLength(src, addr)
	return text, err
}

// DecodeLength is Decode that also reports how many bytes the encoded
// string occupies. Abbreviation expansions do not count.
func DecodeLength(src Source, addr Address) (string, int, error) {
	var out strings.Builder
	n, err := decodeInto(src, addr, &out, 0)
	if err != nil {
		return "", 0, fmt.Errorf("zstring: decode %s: %w", addr, err)
	}
	return out.String(), n, nil
}

// decodeInto runs a fresh state machine over the string at addr, appending
// to out. depth is 1 while expanding an abbreviation.
func decodeInto(src Source, addr Address, out *strings.Builder, depth int) (int, error) {
	s := state{kind: lowercase}
	words, err := codes(src, addr, func(code uint8) error {
		next, act, err := transition(s, code)
		if err != nil {
			return err
		}
		s = next
		switch act.kind {
		case emit:
			out.WriteString(act.text)
		case expand:
			if depth > 0 {
				return fmt.Errorf("%s inside an abbreviation: %w", act.abbrev, ErrNestedAbbreviation)
			}
			ptr, err := src.Abbreviation(act.abbrev)
			if err != nil {
				return err
			}
			target, err := ptr.Unpack()
			if err != nil {
				return err
			}
			if _, err := decodeInto(src, target, out, depth+1); err != nil {
				return fmt.Errorf("%s: %w", act.abbrev, err)
			}
		}
		return nil
	})
	return words * memory.WordSize, err
}

// codes feeds fn every character code of the string at addr, three per
// word, stopping after the word with bit 15 set. It returns the number of
// words read.
func codes(src Source, addr Address, fn func(uint8) error) (int, error) {
	current := addr.Word()
	for words := 1; ; words++ {
		w, err := src.ReadWord(current)
		if err != nil {
			return words, err
		}
		p := bits.Pattern(w)
		for _, high := range [3]bits.Number{bits.Bit14, bits.Bit9, bits.Bit4} {
			if err := fn(uint8(p.Bits(high, bits.Five))); err != nil {
				return words, err
			}
		}
		if p.IsSet(bits.Bit15) {
			return words, nil
		}
		if current, err = current.Add(1); err != nil {
			return words, err
		}
	}
}
