package zstring

// Encode packs text into exactly zchars character codes (rounded up to a
// multiple of three) and returns the words, with bit 15 set on the last.
// Short text is padded with code 5, long text is truncated, as story
// compilers do for dictionary keys. Characters found in no alphabet are
// written as ZSCII escapes.
func Encode(text string, zchars int) []uint16 {
	if zchars <= 0 {
		zchars = 3
	}
	zchars = (zchars + 2) / 3 * 3

	codes := make([]uint8, 0, zchars)
	for _, r := range text {
		codes = append(codes, encodeRune(r)...)
		if len(codes) >= zchars {
			break
		}
	}
	codes = codes[:min(len(codes), zchars)]
	for len(codes) < zchars {
		codes = append(codes, 5)
	}

	words := make([]uint16, zchars/3)
	for i := range words {
		words[i] = uint16(codes[3*i])<<10 | uint16(codes[3*i+1])<<5 | uint16(codes[3*i+2])
	}
	words[len(words)-1] |= 0x8000
	return words
}

func encodeRune(r rune) []uint8 {
	s := string(r)
	if r == ' ' {
		return []uint8{0}
	}
	if c, ok := Lowercase.index(s, 6); ok {
		return []uint8{c}
	}
	if c, ok := Uppercase.index(s, 6); ok {
		return []uint8{4, c}
	}
	if c, ok := Punctuation.index(s, 7); ok {
		return []uint8{5, c}
	}
	z := uint16(r)
	if r > 0x3ff {
		z = '?'
	}
	return []uint8{5, 6, uint8(z >> 5), uint8(z & 0x1f)}
}
