// Package storytest assembles small synthetic story files for tests.
package storytest

import (
	"bytes"
	"encoding/binary"
	"sort"

	"github.com/oisee/zvm/pkg/zstring"
)

// Object describes one object table entry.
type Object struct {
	Name                   string
	Parent, Sibling, Child uint16
	Attributes             []int
}

// Builder collects the parts of a story and lays them out in Bytes.
type Builder struct {
	version       byte
	abbreviations []string
	objects       []Object
	defaults      map[int]uint16
	separators    []byte
	words         []string
	code          []byte
	texts         []string
}

// New starts a story of the given version.
func New(version byte) *Builder {
	return &Builder{version: version, separators: []byte{'.', ',', '"'}, defaults: map[int]uint16{}}
}

// Abbreviation appends the next abbreviation string. Entries never set
// point at an empty string.
func (b *Builder) Abbreviation(text string) *Builder {
	b.abbreviations = append(b.abbreviations, text)
	return b
}

// Object appends the next object, numbered from 1.
func (b *Builder) Object(o Object) *Builder {
	b.objects = append(b.objects, o)
	return b
}

// DefaultProperty sets default property p (1-based).
func (b *Builder) DefaultProperty(p int, v uint16) *Builder {
	b.defaults[p] = v
	return b
}

// Separators replaces the dictionary word separators.
func (b *Builder) Separators(sep ...byte) *Builder {
	b.separators = sep
	return b
}

// Words adds dictionary words. They are sorted by encoded key on layout.
func (b *Builder) Words(words ...string) *Builder {
	b.words = append(b.words, words...)
	return b
}

// Code appends raw instruction bytes at the start of high memory.
func (b *Builder) Code(code ...byte) *Builder {
	b.code = append(b.code, code...)
	return b
}

// Text adds a string to high memory at an address every version can
// pack. Layout.Texts holds its address.
func (b *Builder) Text(text string) *Builder {
	b.texts = append(b.texts, text)
	return b
}

// Layout records where Bytes placed each part.
type Layout struct {
	Abbreviations     int
	AbbreviationTexts []int
	ObjectTable       int
	ObjectTree        int
	Globals           int
	StaticBase        int
	Dictionary        int
	DictionaryEntries int
	Code              int
	Texts             []int
}

func (b *Builder) wide() bool {
	return b.version >= 4
}

// Bytes lays the story out and returns the file with its layout.
func (b *Builder) Bytes() ([]byte, Layout) {
	var l Layout
	buf := make([]byte, 64)
	putWord := func(at int, v uint16) { binary.BigEndian.PutUint16(buf[at:], v) }
	align := func() {
		if len(buf)%2 == 1 {
			buf = append(buf, 0)
		}
	}
	appendText := func(text string) int {
		align()
		at := len(buf)
		for _, w := range zstring.Encode(text, encodedLength(text)) {
			buf = binary.BigEndian.AppendUint16(buf, w)
		}
		return at
	}

	// abbreviations: 96 pointers, then the strings
	l.Abbreviations = len(buf)
	buf = append(buf, make([]byte, 2*zstring.MaxAbbreviations)...)
	for i, text := range b.abbreviations {
		at := appendText(text)
		l.AbbreviationTexts = append(l.AbbreviationTexts, at)
		putWord(l.Abbreviations+2*i, uint16(at/2))
	}
	if len(b.abbreviations) < zstring.MaxAbbreviations {
		empty := appendText("")
		for i := len(b.abbreviations); i < zstring.MaxAbbreviations; i++ {
			putWord(l.Abbreviations+2*i, uint16(empty/2))
		}
	}

	// object table: defaults, tree, then property tables
	align()
	defaults, entrySize := 31, 9
	if b.wide() {
		defaults, entrySize = 63, 14
	}
	l.ObjectTable = len(buf)
	buf = append(buf, make([]byte, 2*defaults)...)
	for p, v := range b.defaults {
		putWord(l.ObjectTable+2*(p-1), v)
	}
	l.ObjectTree = len(buf)
	buf = append(buf, make([]byte, entrySize*len(b.objects))...)
	for i, o := range b.objects {
		entry := l.ObjectTree + i*entrySize
		for _, attr := range o.Attributes {
			buf[entry+attr/8] |= 0x80 >> (attr % 8)
		}
		props := len(buf)
		if o.Name == "" {
			buf = append(buf, 0)
		} else {
			words := zstring.Encode(o.Name, encodedLength(o.Name))
			buf = append(buf, byte(len(words)))
			for _, w := range words {
				buf = binary.BigEndian.AppendUint16(buf, w)
			}
		}
		buf = append(buf, 0) // no properties
		if b.wide() {
			putWord(entry+6, o.Parent)
			putWord(entry+8, o.Sibling)
			putWord(entry+10, o.Child)
			putWord(entry+12, uint16(props))
		} else {
			buf[entry+4] = byte(o.Parent)
			buf[entry+5] = byte(o.Sibling)
			buf[entry+6] = byte(o.Child)
			putWord(entry+7, uint16(props))
		}
	}

	// globals close dynamic memory
	align()
	l.Globals = len(buf)
	buf = append(buf, make([]byte, 2*240)...)

	// dictionary opens static memory
	l.StaticBase = len(buf)
	l.Dictionary = len(buf)
	keyLen := 4
	if b.wide() {
		keyLen = 6
	}
	buf = append(buf, byte(len(b.separators)))
	buf = append(buf, b.separators...)
	buf = append(buf, byte(keyLen+3))
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(b.words)))
	l.DictionaryEntries = len(buf)
	keys := make([][]byte, 0, len(b.words))
	for _, word := range b.words {
		var key []byte
		for _, w := range zstring.Encode(word, keyLen/2*3) {
			key = binary.BigEndian.AppendUint16(key, w)
		}
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return bytes.Compare(keys[i], keys[j]) < 0 })
	for _, key := range keys {
		buf = append(buf, key...)
		buf = append(buf, 0, 0, 0)
	}

	// high memory; packed addresses reach multiples of 8 in every version
	for len(buf)%8 != 0 {
		buf = append(buf, 0)
	}
	l.Code = len(buf)
	buf = append(buf, b.code...)
	for _, text := range b.texts {
		for len(buf)%8 != 0 {
			buf = append(buf, 0)
		}
		l.Texts = append(l.Texts, appendText(text))
	}
	// room for operands that run off the end of the code
	buf = append(buf, make([]byte, 8)...)

	buf[0] = b.version
	putWord(4, uint16(l.Code))
	putWord(6, uint16(l.Code))
	putWord(8, uint16(l.Dictionary))
	putWord(10, uint16(l.ObjectTable))
	putWord(12, uint16(l.Globals))
	putWord(14, uint16(l.StaticBase))
	copy(buf[18:24], "250101")
	putWord(24, uint16(l.Abbreviations))
	scale := 2
	switch {
	case b.version >= 6:
		scale = 8
	case b.version >= 4:
		scale = 4
	}
	for len(buf)%scale != 0 {
		buf = append(buf, 0)
	}
	putWord(26, uint16(len(buf)/scale))
	return buf, l
}

// encodedLength is a code count large enough to hold text unabridged.
func encodedLength(text string) int {
	return 4 * len(text)
}
