package zstring

// Alphabet maps a 5-bit character code to text. Codes 1 to 5 are shift
// and abbreviation codes and never reach an alphabet; they hold '?'.
type Alphabet [32]string

// The three standard alphabets. A2 code 6 is the ZSCII escape and code 7
// a newline.
var (
	Lowercase = Alphabet{
		" ", "?", "?", "?", "?", "?",
		"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l", "m",
		"n", "o", "p", "q", "r", "s", "t", "u", "v", "w", "x", "y", "z",
	}
	Uppercase = Alphabet{
		" ", "?", "?", "?", "?", "?",
		"A", "B", "C", "D", "E", "F", "G", "H", "I", "J", "K", "L", "M",
		"N", "O", "P", "Q", "R", "S", "T", "U", "V", "W", "X", "Y", "Z",
	}
	Punctuation = Alphabet{
		" ", "?", "?", "?", "?", "?", "?", "\n",
		"0", "1", "2", "3", "4", "5", "6", "7", "8", "9",
		".", ",", "!", "?", "_", "#", "'", "\"", "/", "\\", "-", ":", "(", ")",
	}
)

// index returns the code of s in a, searching from code first so that
// placeholder entries never match.
func (a *Alphabet) index(s string, first int) (uint8, bool) {
	for i := first; i < len(a); i++ {
		if a[i] == s {
			return uint8(i), true
		}
	}
	return 0, false
}
