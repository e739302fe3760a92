package story

import (
	"fmt"

	"github.com/oisee/zvm/pkg/memory"
	"github.com/oisee/zvm/pkg/zstring"
)

// ObjectNumber identifies an object. Numbering starts at 1.
type ObjectNumber uint16

// Invalid is the "no object" value found in parent, sibling and child links.
const Invalid ObjectNumber = 0

// Unnamed is returned as the name of an object whose short name is empty.
const Unnamed = "<unnamed>"

// objectLayout describes the table for one format generation.
//
// V1-3: 31 default properties, 9-byte entries of 4 attribute bytes,
// parent, sibling, child bytes and a property address word.
// V4+: 63 default properties, 14-byte entries of 6 attribute bytes,
// parent, sibling, child words and a property address word.
type objectLayout struct {
	tableBase  memory.ByteAddress
	treeBase   memory.ByteAddress
	defaults   int
	entrySize  int
	attributes int
	wide       bool
}

func newObjectLayout(v Version, tableBase memory.ByteAddress) (objectLayout, error) {
	l := objectLayout{tableBase: tableBase, defaults: 31, entrySize: 9, attributes: 32}
	if v.IsV4OrHigher() {
		l = objectLayout{tableBase: tableBase, defaults: 63, entrySize: 14, attributes: 48, wide: true}
	}
	var err error
	if l.treeBase, err = tableBase.Add(memory.WordSize * l.defaults); err != nil {
		return l, fmt.Errorf("story: object tree base: %w", err)
	}
	return l, nil
}

// link offsets within an entry
func (l objectLayout) parentOffset() int {
	if l.wide {
		return 6
	}
	return 4
}

func (l objectLayout) propertyOffset() int {
	if l.wide {
		return 12
	}
	return 7
}

// ObjectTree is the object table bound to one Story value.
type ObjectTree struct {
	story *Story
	objectLayout
}

// Objects returns the story's object tree.
func (s *Story) Objects() ObjectTree {
	return ObjectTree{story: s, objectLayout: s.objects}
}

// EntrySize is the size of one tree entry in bytes.
func (t ObjectTree) EntrySize() int {
	return t.entrySize
}

// Base returns the address of object 1's entry.
func (t ObjectTree) Base() memory.ByteAddress {
	return t.treeBase
}

// Entry returns the address of object n's entry.
func (t ObjectTree) Entry(n ObjectNumber) (memory.ByteAddress, error) {
	if n == Invalid {
		return 0, fmt.Errorf("story: object 0 has no entry: %w", memory.ErrAddressOutOfRange)
	}
	return t.treeBase.Add((int(n) - 1) * t.entrySize)
}

// DefaultProperty returns the default value of property p (1-based).
func (t ObjectTree) DefaultProperty(p int) (uint16, error) {
	if p < 1 || p > t.defaults {
		return 0, fmt.Errorf("story: default property %d not in [1, %d]: %w", p, t.defaults, memory.ErrAddressOutOfRange)
	}
	at, err := t.tableBase.Add((p - 1) * memory.WordSize)
	if err != nil {
		return 0, err
	}
	w, err := memory.WordAt(at)
	if err != nil {
		return 0, err
	}
	return t.story.ReadWord(w)
}

func (t ObjectTree) link(n ObjectNumber, index int) (ObjectNumber, error) {
	at, err := t.Entry(n)
	if err != nil {
		return Invalid, err
	}
	if !t.wide {
		b, err := at.Add(t.parentOffset() + index)
		if err != nil {
			return Invalid, err
		}
		v, err := t.story.Read(b)
		return ObjectNumber(v), err
	}
	b, err := at.Add(t.parentOffset() + index*memory.WordSize)
	if err != nil {
		return Invalid, err
	}
	w, err := memory.WordAt(b)
	if err != nil {
		return Invalid, err
	}
	v, err := t.story.ReadWord(w)
	return ObjectNumber(v), err
}

// Parent returns the parent of n, or Invalid.
func (t ObjectTree) Parent(n ObjectNumber) (ObjectNumber, error) {
	return t.link(n, 0)
}

// Sibling returns the next sibling of n, or Invalid.
func (t ObjectTree) Sibling(n ObjectNumber) (ObjectNumber, error) {
	return t.link(n, 1)
}

// Child returns the first child of n, or Invalid.
func (t ObjectTree) Child(n ObjectNumber) (ObjectNumber, error) {
	return t.link(n, 2)
}

// PropertyData returns the address of n's property table, which starts
// with the short name.
func (t ObjectTree) PropertyData(n ObjectNumber) (memory.ByteAddress, error) {
	at, err := t.Entry(n)
	if err != nil {
		return 0, err
	}
	b, err := at.Add(t.propertyOffset())
	if err != nil {
		return 0, err
	}
	w, err := memory.WordAt(b)
	if err != nil {
		return 0, err
	}
	v, err := t.story.ReadWord(w)
	return memory.ByteAddress(v), err
}

// Attribute reports whether attribute attr of n is set. Attribute 0 is
// the top bit of the first byte.
func (t ObjectTree) Attribute(n ObjectNumber, attr int) (bool, error) {
	if attr < 0 || attr >= t.attributes {
		return false, fmt.Errorf("story: attribute %d not in [0, %d): %w", attr, t.attributes, memory.ErrAddressOutOfRange)
	}
	at, err := t.Entry(n)
	if err != nil {
		return false, err
	}
	b, err := at.Add(attr / 8)
	if err != nil {
		return false, err
	}
	v, err := t.story.Read(b)
	if err != nil {
		return false, err
	}
	return v&(0x80>>(attr%8)) != 0, nil
}

// Attributes lists the attributes set on n in ascending order.
func (t ObjectTree) Attributes(n ObjectNumber) ([]int, error) {
	var set []int
	for attr := 0; attr < t.attributes; attr++ {
		ok, err := t.Attribute(n, attr)
		if err != nil {
			return nil, err
		}
		if ok {
			set = append(set, attr)
		}
	}
	return set, nil
}

// Name decodes n's short name. An empty name yields Unnamed.
func (t ObjectTree) Name(n ObjectNumber) (string, error) {
	props, err := t.PropertyData(n)
	if err != nil {
		return "", err
	}
	length, err := t.story.Read(props)
	if err != nil {
		return "", err
	}
	if length == 0 {
		return Unnamed, nil
	}
	text, err := props.Add(1)
	if err != nil {
		return "", err
	}
	zs, err := zstring.AtByte(text)
	if err != nil {
		return "", err
	}
	return t.story.ReadString(zs)
}

// Count derives the number of objects from the gap between the tree and
// object 1's property table, which follows the last entry.
func (t ObjectTree) Count() (int, error) {
	props, err := t.PropertyData(1)
	if err != nil {
		return 0, err
	}
	gap := props.Int() - t.treeBase.Int()
	if gap < 0 {
		return 0, fmt.Errorf("story: property table %s below object tree %s: %w", props, t.treeBase, memory.ErrAddressOutOfRange)
	}
	return gap / t.entrySize, nil
}

// Roots returns every object whose parent is Invalid.
func (t ObjectTree) Roots() ([]ObjectNumber, error) {
	count, err := t.Count()
	if err != nil {
		return nil, err
	}
	var roots []ObjectNumber
	for n := ObjectNumber(1); int(n) <= count; n++ {
		p, err := t.Parent(n)
		if err != nil {
			return nil, err
		}
		if p == Invalid {
			roots = append(roots, n)
		}
	}
	return roots, nil
}

// Children returns n's children in sibling order.
func (t ObjectTree) Children(n ObjectNumber) ([]ObjectNumber, error) {
	count, err := t.Count()
	if err != nil {
		return nil, err
	}
	var out []ObjectNumber
	c, err := t.Child(n)
	if err != nil {
		return nil, err
	}
	for c != Invalid {
		if len(out) >= count {
			return nil, fmt.Errorf("story: sibling chain of object %d does not terminate", n)
		}
		out = append(out, c)
		if c, err = t.Sibling(c); err != nil {
			return nil, err
		}
	}
	return out, nil
}
