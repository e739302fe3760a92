package story

import (
	"fmt"

	"github.com/oisee/zvm/pkg/memory"
	"github.com/oisee/zvm/pkg/zstring"
)

// AbbreviationTable is the list of word pointers to the abbreviation strings.
type AbbreviationTable struct {
	base memory.WordAddress
}

// Base returns the address of entry 0.
func (t AbbreviationTable) Base() memory.WordAddress {
	return t.base
}

// Entry returns the address of the pointer for abbreviation n.
func (t AbbreviationTable) Entry(n zstring.AbbreviationNumber) (memory.WordAddress, error) {
	return t.base.Add(n.Int())
}

// Abbreviation returns the word pointer stored for n. Unpack it to get
// the string.
func (s *Story) Abbreviation(n zstring.AbbreviationNumber) (zstring.WordPointer, error) {
	at, err := s.abbreviations.Entry(n)
	if err != nil {
		return 0, fmt.Errorf("story: %s: %w", n, err)
	}
	p, err := s.ReadWord(at)
	if err != nil {
		return 0, fmt.Errorf("story: %s: %w", n, err)
	}
	return zstring.WordPointer(p), nil
}

// AbbreviationText decodes abbreviation n.
func (s *Story) AbbreviationText(n zstring.AbbreviationNumber) (string, error) {
	p, err := s.Abbreviation(n)
	if err != nil {
		return "", err
	}
	at, err := p.Unpack()
	if err != nil {
		return "", fmt.Errorf("story: %s: %w", n, err)
	}
	return s.ReadString(at)
}

// Abbreviations decodes all MaxAbbreviations entries in order.
func (s *Story) Abbreviations() ([]string, error) {
	out := make([]string, 0, zstring.MaxAbbreviations)
	for i := 0; i < zstring.MaxAbbreviations; i++ {
		n, err := zstring.NewAbbreviationNumber(i)
		if err != nil {
			return nil, err
		}
		text, err := s.AbbreviationText(n)
		if err != nil {
			return nil, err
		}
		out = append(out, text)
	}
	return out, nil
}
