package story

import (
	"bytes"
	"fmt"

	"github.com/oisee/zvm/pkg/memory"
	"github.com/oisee/zvm/pkg/zstring"
)

// dictionaryLayout is the parsed dictionary header:
//
//	n        number of word separators
//	n bytes  separator ZSCII codes
//	1 byte   entry length
//	1 word   entry count (negative: entries are unsorted)
//	entries
type dictionaryLayout struct {
	base       memory.ByteAddress
	separators []byte
	entrySize  int
	count      int
	sorted     bool
	entries    memory.ByteAddress
}

func readDictionary(r reader, base memory.ByteAddress) (dictionaryLayout, error) {
	d := dictionaryLayout{base: base}
	n, err := r.Read(base)
	if err != nil {
		return d, fmt.Errorf("story: dictionary separators: %w", err)
	}
	for i := 0; i < int(n); i++ {
		at, err := base.Add(1 + i)
		if err != nil {
			return d, fmt.Errorf("story: dictionary separators: %w", err)
		}
		b, err := r.Read(at)
		if err != nil {
			return d, fmt.Errorf("story: dictionary separators: %w", err)
		}
		d.separators = append(d.separators, b)
	}

	sizeAt, err := base.Add(int(n) + 1)
	if err != nil {
		return d, fmt.Errorf("story: dictionary entry size: %w", err)
	}
	size, err := r.Read(sizeAt)
	if err != nil {
		return d, fmt.Errorf("story: dictionary entry size: %w", err)
	}
	d.entrySize = int(size)

	countAt, err := sizeAt.Add(1)
	if err != nil {
		return d, fmt.Errorf("story: dictionary count: %w", err)
	}
	countWord, err := memory.WordAt(countAt)
	if err != nil {
		return d, fmt.Errorf("story: dictionary count: %w", err)
	}
	count, err := r.ReadWord(countWord)
	if err != nil {
		return d, fmt.Errorf("story: dictionary count: %w", err)
	}
	d.count, d.sorted = int(int16(count)), true
	if d.count < 0 {
		d.count, d.sorted = -d.count, false
	}

	if d.entries, err = sizeAt.Add(3); err != nil {
		return d, fmt.Errorf("story: dictionary entries: %w", err)
	}
	return d, nil
}

// Dictionary is the story's word list bound to one Story value.
type Dictionary struct {
	story *Story
	dictionaryLayout
}

// Dictionary returns the story's dictionary.
func (s *Story) Dictionary() Dictionary {
	return Dictionary{story: s, dictionaryLayout: s.dictionary}
}

// Count is the number of entries.
func (d Dictionary) Count() int {
	return d.count
}

// EntrySize is the length of one entry in bytes, key and data.
func (d Dictionary) EntrySize() int {
	return d.entrySize
}

// Separators returns the word-separator characters.
func (d Dictionary) Separators() []byte {
	return bytes.Clone(d.separators)
}

// Sorted reports whether entries are in key order.
func (d Dictionary) Sorted() bool {
	return d.sorted
}

// Entry returns the address of entry n.
func (d Dictionary) Entry(n int) (memory.ByteAddress, error) {
	if n < 0 || n >= d.count {
		return 0, fmt.Errorf("story: dictionary entry %d not in [0, %d): %w", n, d.count, memory.ErrAddressOutOfRange)
	}
	return d.entries.Add(n * d.entrySize)
}

// Word decodes the key of entry n.
func (d Dictionary) Word(n int) (string, error) {
	at, err := d.Entry(n)
	if err != nil {
		return "", err
	}
	zs, err := zstring.AtByte(at)
	if err != nil {
		return "", err
	}
	return d.story.ReadString(zs)
}

// keyLength is the number of key bytes at the start of each entry.
func (d Dictionary) keyLength() int {
	if d.story.Version().IsV3OrLower() {
		return 4
	}
	return 6
}

func (d Dictionary) key(n int) ([]byte, error) {
	at, err := d.Entry(n)
	if err != nil {
		return nil, err
	}
	key := make([]byte, d.keyLength())
	for i := range key {
		b, err := at.Add(i)
		if err != nil {
			return nil, err
		}
		if key[i], err = d.story.Read(b); err != nil {
			return nil, err
		}
	}
	return key, nil
}

// Lookup finds the entry whose key matches word after encoding and
// truncation. ok is false when the word is not in the dictionary.
func (d Dictionary) Lookup(word string) (n int, ok bool, err error) {
	keyLen := d.keyLength()
	words := zstring.Encode(word, keyLen/2*3)
	want := make([]byte, 0, keyLen)
	for _, w := range words {
		want = append(want, byte(w>>8), byte(w))
	}

	if !d.sorted {
		for i := 0; i < d.count; i++ {
			key, err := d.key(i)
			if err != nil {
				return 0, false, err
			}
			if bytes.Equal(key, want) {
				return i, true, nil
			}
		}
		return 0, false, nil
	}

	lo, hi := 0, d.count
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		key, err := d.key(mid)
		if err != nil {
			return 0, false, err
		}
		switch c := bytes.Compare(key, want); {
		case c == 0:
			return mid, true, nil
		case c < 0:
			lo = mid + 1
		default:
			hi = mid
		}
	}
	return 0, false, nil
}
