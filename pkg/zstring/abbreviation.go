package zstring

import (
	"errors"
	"fmt"
)

// MaxAbbreviations is the number of abbreviation slots: three sets of 32.
const MaxAbbreviations = 32 * 3

// ErrInvalidAbbreviationNumber is returned for numbers outside [0, MaxAbbreviations).
var ErrInvalidAbbreviationNumber = errors.New("invalid abbreviation number")

// AbbreviationNumber indexes the abbreviation table.
type AbbreviationNumber struct {
	n uint8
}

// NewAbbreviationNumber validates n against [0, MaxAbbreviations).
func NewAbbreviationNumber(n int) (AbbreviationNumber, error) {
	if n < 0 || n >= MaxAbbreviations {
		return AbbreviationNumber{}, fmt.Errorf("zstring: abbreviation %d not in [0, %d): %w", n, MaxAbbreviations, ErrInvalidAbbreviationNumber)
	}
	return AbbreviationNumber{n: uint8(n)}, nil
}

// Int returns the abbreviation index.
func (a AbbreviationNumber) Int() int {
	return int(a.n)
}

func (a AbbreviationNumber) String() string {
	return fmt.Sprintf("abbrev:%d", a.n)
}
