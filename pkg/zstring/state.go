package zstring

import "fmt"

type stateKind uint8

const (
	lowercase stateKind = iota
	uppercase
	punctuation
	abbreviation // waiting for the code that selects within set
	escapeHigh   // waiting for the top five bits of a ZSCII code
	escapeLow    // waiting for the bottom five bits
)

// state is the decoder's position. set is the abbreviation set (1-3) in
// the abbreviation state and the top half of the ZSCII code in escapeLow.
type state struct {
	kind stateKind
	set  uint8
}

type actionKind uint8

const (
	none actionKind = iota
	emit
	expand
)

type action struct {
	kind   actionKind
	text   string
	abbrev AbbreviationNumber
}

var alphabets = [...]*Alphabet{
	lowercase:   &Lowercase,
	uppercase:   &Uppercase,
	punctuation: &Punctuation,
}

// transition consumes one code.
func transition(s state, code uint8) (state, action, error) {
	switch s.kind {
	case abbreviation:
		n, err := NewAbbreviationNumber(32*int(s.set-1) + int(code))
		if err != nil {
			return s, action{}, err
		}
		return state{kind: lowercase}, action{kind: expand, abbrev: n}, nil

	case escapeHigh:
		return state{kind: escapeLow, set: code}, action{}, nil

	case escapeLow:
		zscii := uint16(s.set)<<5 | uint16(code)
		text, err := zsciiText(zscii)
		if err != nil {
			return s, action{}, err
		}
		return state{kind: lowercase}, action{kind: emit, text: text}, nil
	}

	switch code {
	case 1, 2, 3:
		return state{kind: abbreviation, set: code}, action{}, nil
	case 4:
		return state{kind: uppercase}, action{}, nil
	case 5:
		return state{kind: punctuation}, action{}, nil
	case 6:
		if s.kind == punctuation {
			return state{kind: escapeHigh}, action{}, nil
		}
	}
	return state{kind: lowercase}, action{kind: emit, text: alphabets[s.kind][code]}, nil
}

// zsciiText renders an escaped ZSCII code. Only newline and printable
// ASCII are handled.
func zsciiText(code uint16) (string, error) {
	switch {
	case code == 13:
		return "\n", nil
	case code >= 32 && code <= 126:
		return string(rune(code)), nil
	}
	return "", fmt.Errorf("zscii escape %d: %w", code, ErrUnsupportedFeature)
}
