// Package memory provides the story's address types and a copy-on-write
// byte image.
//
// An Image never changes once built. Writes return a new Image that shares
// the original bytes and every earlier edit with its predecessor, so older
// snapshots stay valid and can be kept around for undo.
package memory

// maxLayers bounds the overlay chain walked by a read. When a write would
// exceed it, the chain is flattened into a single layer.
const maxLayers = 32

// layer is one immutable set of edits stacked on top of its parent.
type layer struct {
	edits  map[ByteAddress]byte
	parent *layer
	depth  int
}

func (l *layer) lookup(a ByteAddress) (byte, bool) {
	for ; l != nil; l = l.parent {
		if v, ok := l.edits[a]; ok {
			return v, true
		}
	}
	return 0, false
}

// flatten merges the chain into one map, newer edits winning.
func (l *layer) flatten() map[ByteAddress]byte {
	var chain []*layer
	for ; l != nil; l = l.parent {
		chain = append(chain, l)
	}
	merged := make(map[ByteAddress]byte)
	for i := len(chain) - 1; i >= 0; i-- {
		for a, v := range chain[i].edits {
			merged[a] = v
		}
	}
	return merged
}

// Image is a byte buffer plus a persistent overlay of edits.
type Image struct {
	original []byte
	top      *layer
}

// New copies data into a fresh Image with no edits.
func New(data []byte) Image {
	original := make([]byte, len(data))
	copy(original, data)
	return Image{original: original}
}

// Len is the number of addressable bytes.
func (m Image) Len() int {
	return len(m.original)
}

// IsInRange reports whether a is below Len.
func (m Image) IsInRange(a ByteAddress) bool {
	return int(a) < len(m.original)
}

// EditCount returns the number of distinct addresses written since load.
func (m Image) EditCount() int {
	if m.top == nil {
		return 0
	}
	return len(m.top.flatten())
}

// Read returns the byte at a, edits first.
func (m Image) Read(a ByteAddress) (byte, error) {
	if !m.IsInRange(a) {
		return 0, outOfRange("read %s beyond 0x%04x", a, len(m.original))
	}
	if v, ok := m.top.lookup(a); ok {
		return v, nil
	}
	return m.original[a], nil
}

// ReadWord returns the big-endian word at w.
func (m Image) ReadWord(w WordAddress) (uint16, error) {
	high, err := m.Read(w.High())
	if err != nil {
		return 0, err
	}
	low, err := m.Read(w.Low())
	if err != nil {
		return 0, err
	}
	return uint16(high)<<8 | uint16(low), nil
}

// Write returns a new Image with a set to v. m is unchanged.
func (m Image) Write(a ByteAddress, v byte) (Image, error) {
	if !m.IsInRange(a) {
		return Image{}, outOfRange("write %s beyond 0x%04x", a, len(m.original))
	}
	return m.with(map[ByteAddress]byte{a: v}), nil
}

// WriteWord returns a new Image with the word at w set to v, high byte
// first. Both bytes are applied as one overlay layer.
func (m Image) WriteWord(w WordAddress, v uint16) (Image, error) {
	if !m.IsInRange(w.High()) || !m.IsInRange(w.Low()) {
		return Image{}, outOfRange("write word %s beyond 0x%04x", w, len(m.original))
	}
	return m.with(map[ByteAddress]byte{
		w.High(): byte(v >> 8),
		w.Low():  byte(v & 0xff),
	}), nil
}

func (m Image) with(edits map[ByteAddress]byte) Image {
	next := &layer{edits: edits, parent: m.top, depth: 1}
	if m.top != nil {
		next.depth = m.top.depth + 1
	}
	if next.depth > maxLayers {
		next = &layer{edits: next.flatten(), depth: 1}
	}
	return Image{original: m.original, top: next}
}

// Sum adds the bytes at offsets [start, end), clipped to Len, modulo
// 0x10000, edits included. Offsets are plain ints, so an image longer than
// the address space can still be summed.
func (m Image) Sum(start, end int) uint16 {
	start = max(start, 0)
	end = min(end, len(m.original))
	var edits map[ByteAddress]byte
	if m.top != nil {
		edits = m.top.flatten()
	}
	var sum uint16
	for i := start; i < end; i++ {
		b := m.original[i]
		if i <= MaxAddress {
			if v, ok := edits[ByteAddress(i)]; ok {
				b = v
			}
		}
		sum += uint16(b)
	}
	return sum
}

// Slice returns length bytes of the original buffer starting at start, as
// a new Image without edits. It is meant for splitting a freshly loaded
// file; any overlay on m is ignored.
func (m Image) Slice(start, length int) (Image, error) {
	if start < 0 || length < 0 || start+length > len(m.original) {
		return Image{}, outOfRange("slice [%#x, %#x) beyond 0x%04x", start, start+length, len(m.original))
	}
	return Image{original: m.original[start : start+length : start+length]}, nil
}
