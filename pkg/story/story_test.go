package story

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/oisee/zvm/pkg/memory"
	"github.com/oisee/zvm/pkg/story/storytest"
	"github.com/oisee/zvm/pkg/zstring"
)

func mustLoad(t *testing.T, b *storytest.Builder) (*Story, []byte, storytest.Layout) {
	t.Helper()
	data, layout := b.Bytes()
	s, err := Load(data)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return s, data, layout
}

func abbrev(t *testing.T, n int) zstring.AbbreviationNumber {
	t.Helper()
	a, err := zstring.NewAbbreviationNumber(n)
	if err != nil {
		t.Fatal(err)
	}
	return a
}

func TestInvalidVersion(t *testing.T) {
	_, err := New(memory.New([]byte{0}), memory.New(nil))
	if !errors.Is(err, ErrInvalidStoryVersion) {
		t.Errorf("New with version 0: got %v want ErrInvalidStoryVersion", err)
	}
	for _, v := range []byte{0, 9, 0xff} {
		data, _ := storytest.New(3).Bytes()
		data[0] = v
		if _, err := Load(data); !errors.Is(err, ErrInvalidStoryVersion) {
			t.Errorf("Load version %d: got %v want ErrInvalidStoryVersion", v, err)
		}
	}
	if _, err := Load(nil); !errors.Is(err, memory.ErrAddressOutOfRange) {
		t.Errorf("Load empty: got %v want ErrAddressOutOfRange", err)
	}
}

func TestHeader(t *testing.T) {
	for _, v := range []byte{1, 3, 4, 5, 8} {
		s, data, l := mustLoad(t, storytest.New(v))
		h := s.Header()
		if h.Version != Version(v) {
			t.Errorf("V%d: version %s", v, h.Version)
		}
		if h.Dictionary.Int() != l.Dictionary || h.ObjectTable.Int() != l.ObjectTable ||
			h.Globals.Int() != l.Globals || h.StaticBase.Int() != l.StaticBase {
			t.Errorf("V%d: table addresses %+v do not match layout %+v", v, h, l)
		}
		if h.Abbreviations.Int() != l.Abbreviations {
			t.Errorf("V%d: abbreviations at %s want %#x", v, h.Abbreviations, l.Abbreviations)
		}
		if h.HighMemory.Int() != l.Code || h.InitialPC.Int() != l.Code {
			t.Errorf("V%d: high memory %s, pc %s want %#x", v, h.HighMemory, h.InitialPC, l.Code)
		}
		if h.Serial != "250101" {
			t.Errorf("V%d: serial %q", v, h.Serial)
		}
		if h.FileLength != len(data) {
			t.Errorf("V%d: file length %d want %d", v, h.FileLength, len(data))
		}
		if s.DynamicLen() != l.StaticBase || s.Len() != len(data) {
			t.Errorf("V%d: dynamic %d total %d", v, s.DynamicLen(), s.Len())
		}
	}
}

func TestReadRoutesRegions(t *testing.T) {
	s, data, l := mustLoad(t, storytest.New(3).Words("lamp"))
	for _, at := range []int{0, l.StaticBase - 1, l.StaticBase, l.DictionaryEntries, len(data) - 1} {
		got, err := s.Read(memory.ByteAddress(at))
		if err != nil {
			t.Fatalf("Read(%#x): %v", at, err)
		}
		if got != data[at] {
			t.Errorf("Read(%#x): got %#02x want %#02x", at, got, data[at])
		}
	}
	// a word straddling the boundary
	w := memory.MustWord(l.StaticBase - 1)
	got, err := s.ReadWord(w)
	if err != nil {
		t.Fatal(err)
	}
	if want := uint16(data[l.StaticBase-1])<<8 | uint16(data[l.StaticBase]); got != want {
		t.Errorf("ReadWord across boundary: got %#04x want %#04x", got, want)
	}
	if _, err := s.Read(memory.ByteAddress(len(data))); !errors.Is(err, memory.ErrAddressOutOfRange) {
		t.Errorf("Read past end: got %v", err)
	}
}

func TestWriteIsPersistent(t *testing.T) {
	s, _, l := mustLoad(t, storytest.New(3))
	at := memory.ByteAddress(l.Globals)
	next, err := s.Write(at, 0x7f)
	if err != nil {
		t.Fatal(err)
	}
	if b, _ := next.Read(at); b != 0x7f {
		t.Errorf("new story: got %#02x want 0x7f", b)
	}
	if b, _ := s.Read(at); b != 0 {
		t.Errorf("old story changed: got %#02x", b)
	}

	w := memory.MustWord(l.Globals + 2)
	next, err = next.WriteWord(w, 0xbeef)
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := next.ReadWord(w); v != 0xbeef {
		t.Errorf("WriteWord: got %#04x", v)
	}
	if next.Header() != s.Header() {
		t.Errorf("header changed by a globals write")
	}

	if _, err := s.Write(memory.ByteAddress(l.StaticBase), 1); !errors.Is(err, memory.ErrAddressOutOfRange) {
		t.Errorf("write to static memory: got %v", err)
	}
	if _, err := s.WriteWord(memory.MustWord(l.StaticBase-1), 1); !errors.Is(err, memory.ErrAddressOutOfRange) {
		t.Errorf("word write over the boundary: got %v", err)
	}
}

func TestAbbreviations(t *testing.T) {
	s, _, l := mustLoad(t, storytest.New(3).Abbreviation("the ").Abbreviation("you").Abbreviation("Zork's"))
	tests := []struct {
		n    int
		want string
	}{
		{0, "the "},
		{1, "you"},
		{2, "Zork's"},
		{3, ""},
		{95, ""},
	}
	for _, tc := range tests {
		got, err := s.AbbreviationText(abbrev(t, tc.n))
		if err != nil {
			t.Fatalf("AbbreviationText(%d): %v", tc.n, err)
		}
		if got != tc.want {
			t.Errorf("AbbreviationText(%d): got %q want %q", tc.n, got, tc.want)
		}
	}

	p, err := s.Abbreviation(abbrev(t, 1))
	if err != nil {
		t.Fatal(err)
	}
	at, err := p.Unpack()
	if err != nil {
		t.Fatal(err)
	}
	if at.Word().Int() != l.AbbreviationTexts[1] {
		t.Errorf("abbreviation 1 at %s want %#x", at, l.AbbreviationTexts[1])
	}
	entry, err := s.AbbreviationTable().Entry(abbrev(t, 95))
	if err != nil {
		t.Fatal(err)
	}
	if entry.Int() != l.Abbreviations+2*95 {
		t.Errorf("entry 95 at %s", entry)
	}

	all, err := s.Abbreviations()
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != zstring.MaxAbbreviations || all[0] != "the " || all[50] != "" {
		t.Errorf("Abbreviations: %d entries, first %q", len(all), all[0])
	}
}

func TestDictionary(t *testing.T) {
	words := []string{"zork", "lamp", "$ve", ".", "#comm"}
	for _, v := range []byte{3, 5} {
		s, _, _ := mustLoad(t, storytest.New(v).Separators('.', ',').Words(words...))
		d := s.Dictionary()
		if d.Count() != len(words) || !d.Sorted() {
			t.Fatalf("V%d: count %d sorted %v", v, d.Count(), d.Sorted())
		}
		wantSize := 7
		if v >= 4 {
			wantSize = 9
		}
		if d.EntrySize() != wantSize {
			t.Errorf("V%d: entry size %d want %d", v, d.EntrySize(), wantSize)
		}
		if !slices.Equal(d.Separators(), []byte{'.', ','}) {
			t.Errorf("V%d: separators %q", v, d.Separators())
		}

		var got []string
		for i := 0; i < d.Count(); i++ {
			w, err := d.Word(i)
			if err != nil {
				t.Fatalf("V%d: Word(%d): %v", v, i, err)
			}
			got = append(got, w)
			n, ok, err := d.Lookup(w)
			if err != nil || !ok || n != i {
				t.Errorf("V%d: Lookup(%q) = %d, %v, %v want %d", v, w, n, ok, err, i)
			}
		}
		slices.Sort(got)
		want := slices.Clone(words)
		slices.Sort(want)
		if !slices.Equal(got, want) {
			t.Errorf("V%d: words %q want %q", v, got, want)
		}

		if _, ok, err := d.Lookup("grue"); ok || err != nil {
			t.Errorf("V%d: Lookup(grue) found=%v err=%v", v, ok, err)
		}
		if _, err := d.Entry(d.Count()); !errors.Is(err, memory.ErrAddressOutOfRange) {
			t.Errorf("V%d: Entry(count): got %v", v, err)
		}
	}
}

func TestDictionaryKeyTruncation(t *testing.T) {
	s, _, _ := mustLoad(t, storytest.New(3).Words("lantern"))
	d := s.Dictionary()
	// V3 keys hold six characters
	if _, ok, _ := d.Lookup("lanterns"); !ok {
		t.Errorf("lanterns should match the truncated key")
	}
	if w, _ := d.Word(0); w != "lanter" {
		t.Errorf("Word(0): got %q want lanter", w)
	}
}

func TestUnsortedDictionary(t *testing.T) {
	data, l := storytest.New(3).Words("bat", "axe").Bytes()
	// mark the count negative, leaving the entries as laid out
	count := l.DictionaryEntries - 2
	data[count], data[count+1] = 0xff, 0xfe
	s, err := Load(data)
	if err != nil {
		t.Fatal(err)
	}
	d := s.Dictionary()
	if d.Sorted() || d.Count() != 2 {
		t.Fatalf("sorted %v count %d", d.Sorted(), d.Count())
	}
	n, ok, err := d.Lookup("bat")
	if err != nil || !ok || n != 1 {
		t.Errorf("Lookup(bat) = %d, %v, %v want 1", n, ok, err)
	}
}

func treeStory(v byte) *storytest.Builder {
	return storytest.New(v).
		DefaultProperty(1, 0x1234).
		Object(storytest.Object{Name: "forest", Child: 2}).
		Object(storytest.Object{Name: "Up a Tree", Parent: 1, Sibling: 3}).
		Object(storytest.Object{Parent: 1}).
		Object(storytest.Object{Name: "brass lantern", Attributes: []int{0, 5, 31}})
}

func TestObjectTree(t *testing.T) {
	for _, v := range []byte{3, 4} {
		s, _, _ := mustLoad(t, treeStory(v))
		tree := s.Objects()
		wantSize := 9
		if v >= 4 {
			wantSize = 14
		}
		if tree.EntrySize() != wantSize {
			t.Errorf("V%d: entry size %d want %d", v, tree.EntrySize(), wantSize)
		}

		count, err := tree.Count()
		if err != nil || count != 4 {
			t.Fatalf("V%d: Count = %d, %v", v, count, err)
		}

		names := []string{"forest", "Up a Tree", Unnamed, "brass lantern"}
		for i, want := range names {
			got, err := tree.Name(ObjectNumber(i + 1))
			if err != nil {
				t.Fatalf("V%d: Name(%d): %v", v, i+1, err)
			}
			if got != want {
				t.Errorf("V%d: Name(%d): got %q want %q", v, i+1, got, want)
			}
		}

		roots, err := tree.Roots()
		if err != nil {
			t.Fatal(err)
		}
		if !slices.Equal(roots, []ObjectNumber{1, 4}) {
			t.Errorf("V%d: roots %v", v, roots)
		}
		children, err := tree.Children(1)
		if err != nil {
			t.Fatal(err)
		}
		if !slices.Equal(children, []ObjectNumber{2, 3}) {
			t.Errorf("V%d: children %v", v, children)
		}
		if p, _ := tree.Parent(3); p != 1 {
			t.Errorf("V%d: Parent(3) = %d", v, p)
		}
		if c, _ := tree.Child(4); c != Invalid {
			t.Errorf("V%d: Child(4) = %d", v, c)
		}

		for attr, want := range map[int]bool{0: true, 1: false, 5: true, 6: false, 31: true} {
			got, err := tree.Attribute(4, attr)
			if err != nil || got != want {
				t.Errorf("V%d: Attribute(4, %d) = %v, %v", v, attr, got, err)
			}
		}
		if attrs, err := tree.Attributes(4); err != nil || !slices.Equal(attrs, []int{0, 5, 31}) {
			t.Errorf("V%d: Attributes(4) = %v, %v", v, attrs, err)
		}
		if attrs, _ := tree.Attributes(1); attrs != nil {
			t.Errorf("V%d: Attributes(1) = %v", v, attrs)
		}
		if d, err := tree.DefaultProperty(1); err != nil || d != 0x1234 {
			t.Errorf("V%d: DefaultProperty(1) = %#x, %v", v, d, err)
		}
		if _, err := tree.Entry(Invalid); err == nil {
			t.Errorf("V%d: Entry(0) succeeded", v)
		}
	}
}

func TestObjectLimitsByVersion(t *testing.T) {
	v3, _, _ := mustLoad(t, treeStory(3))
	if _, err := v3.Objects().Attribute(1, 32); !errors.Is(err, memory.ErrAddressOutOfRange) {
		t.Errorf("V3 attribute 32: got %v", err)
	}
	if _, err := v3.Objects().DefaultProperty(32); !errors.Is(err, memory.ErrAddressOutOfRange) {
		t.Errorf("V3 default property 32: got %v", err)
	}

	v5, _, _ := mustLoad(t, treeStory(5).Object(storytest.Object{Name: "x", Attributes: []int{47}}))
	if ok, err := v5.Objects().Attribute(5, 47); err != nil || !ok {
		t.Errorf("V5 attribute 47 = %v, %v", ok, err)
	}
	if _, err := v5.Objects().DefaultProperty(63); err != nil {
		t.Errorf("V5 default property 63: %v", err)
	}
}

func TestChildrenCycle(t *testing.T) {
	s, _, _ := mustLoad(t, storytest.New(3).
		Object(storytest.Object{Name: "room", Child: 2}).
		Object(storytest.Object{Name: "loop", Parent: 1, Sibling: 2}))
	if _, err := s.Objects().Children(1); err == nil {
		t.Errorf("Children on a cyclic sibling chain succeeded")
	}
}

func TestUnpack(t *testing.T) {
	tests := []struct {
		version byte
		kind    PackedKind
		p       PackedAddress
		want    int
	}{
		{3, PackedRoutine, 0x100, 0x200},
		{3, PackedString, 0x100, 0x200},
		{4, PackedRoutine, 0x100, 0x400},
		{5, PackedString, 0x100, 0x400},
		{6, PackedRoutine, 0x100, 0x400 + 8*0x10},
		{7, PackedString, 0x100, 0x400 + 8*0x20},
		{8, PackedRoutine, 0x100, 0x800},
	}
	for _, tc := range tests {
		data, _ := storytest.New(tc.version).Bytes()
		data[41], data[43] = 0x10, 0x20
		s, err := Load(data)
		if err != nil {
			t.Fatal(err)
		}
		got, err := s.Unpack(tc.p, tc.kind)
		if err != nil {
			t.Fatalf("V%d: Unpack(%#x): %v", tc.version, tc.p, err)
		}
		if got.Int() != tc.want {
			t.Errorf("V%d kind %d: Unpack(%#x) = %s want %#x", tc.version, tc.kind, tc.p, got, tc.want)
		}
	}

	s, _, _ := mustLoad(t, storytest.New(8))
	if _, err := s.Unpack(0x2000, PackedString); !errors.Is(err, memory.ErrAddressOutOfRange) {
		t.Errorf("V8 Unpack(0x2000): got %v", err)
	}
}

func TestUnpackString(t *testing.T) {
	s, _, l := mustLoad(t, storytest.New(5).Text("It is pitch black."))
	zs, err := s.UnpackString(PackedAddress(l.Texts[0] / 4))
	if err != nil {
		t.Fatal(err)
	}
	got, err := s.ReadString(zs)
	if err != nil || got != "It is pitch black." {
		t.Errorf("ReadString = %q, %v", got, err)
	}
}

func TestVerify(t *testing.T) {
	data, _ := storytest.New(3).Abbreviation("the ").Words("lamp").Bytes()
	var sum uint16
	for _, b := range data[0x40:] {
		sum += uint16(b)
	}
	data[28], data[29] = byte(sum>>8), byte(sum)

	s, err := Load(data)
	if err != nil {
		t.Fatal(err)
	}
	if got, ok := s.Verify(); !ok || got != sum {
		t.Errorf("Verify: got %#04x %v, want %#04x true", got, ok, sum)
	}

	data[len(data)-1]++
	s, err = Load(data)
	if err != nil {
		t.Fatal(err)
	}
	if got, ok := s.Verify(); ok || got != sum+1 {
		t.Errorf("Verify after corruption: got %#04x %v", got, ok)
	}
}

func TestVerifyBeyondAddressSpace(t *testing.T) {
	const size = 70000
	data, _ := storytest.New(3).Words("lamp").Bytes()
	for len(data) < size {
		data = append(data, byte(len(data)))
	}
	data[26], data[27] = byte((size/2)>>8), byte((size / 2) & 0xff)
	var sum uint16
	for _, b := range data[0x40:] {
		sum += uint16(b)
	}
	data[28], data[29] = byte(sum>>8), byte(sum)

	s, err := Load(data)
	if err != nil {
		t.Fatal(err)
	}
	if s.Header().FileLength != size {
		t.Fatalf("file length %d want %d", s.Header().FileLength, size)
	}
	if got, ok := s.Verify(); !ok || got != sum {
		t.Errorf("Verify: got %#04x %v, want %#04x true", got, ok, sum)
	}

	// a short image sums as if zero-padded to the header length
	short, err := Load(data[:size-100])
	if err != nil {
		t.Fatal(err)
	}
	var tail uint16
	for _, b := range data[size-100:] {
		tail += uint16(b)
	}
	if got, ok := short.Verify(); ok || got != sum-tail {
		t.Errorf("Verify short: got %#04x %v, want %#04x false", got, ok, sum-tail)
	}
}

func TestLoadFile(t *testing.T) {
	data, _ := storytest.New(3).Bytes()
	path := filepath.Join(t.TempDir(), "tiny.z3")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if s.Version() != V3 {
		t.Errorf("version %s", s.Version())
	}
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.z3")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file: got %v", err)
	}
}

// The remaining tests use the minizork release and are skipped when it
// has not been copied into the repository's testdata directory.

func loadMinizork(t *testing.T) *Story {
	t.Helper()
	path := filepath.Join("..", "..", "testdata", "minizork.z3")
	if _, err := os.Stat(path); err != nil {
		t.Skipf("%s not present", path)
	}
	s, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestMinizorkHeader(t *testing.T) {
	s := loadMinizork(t)
	if s.Version() != V3 {
		t.Errorf("version %s want V3", s.Version())
	}
}

func TestMinizorkAbbreviations(t *testing.T) {
	s := loadMinizork(t)
	text, err := s.AbbreviationText(abbrev(t, 0))
	if err != nil || text != "the " {
		t.Errorf("abbreviation 0 = %q, %v", text, err)
	}
	for n, want := range map[int]memory.ByteAddress{0: 0x40, 1: 0x44, 95: 0x1f0} {
		p, err := s.Abbreviation(abbrev(t, n))
		if err != nil {
			t.Fatal(err)
		}
		at, err := p.Unpack()
		if err != nil {
			t.Fatal(err)
		}
		if at.Word().High() != want {
			t.Errorf("abbreviation %d at %s want %s", n, at, want)
		}
	}
}

func TestMinizorkDictionary(t *testing.T) {
	s := loadMinizork(t)
	d := s.Dictionary()
	if d.Count() != 0x218 {
		t.Errorf("count %#x want 0x218", d.Count())
	}
	for n, want := range map[int]string{0: "$ve", 1: ".", 3: "#comm"} {
		got, err := d.Word(n)
		if err != nil || got != want {
			t.Errorf("Word(%d) = %q, %v want %q", n, got, err, want)
		}
	}
}

func TestMinizorkObjects(t *testing.T) {
	s := loadMinizork(t)
	tree := s.Objects()
	count, err := tree.Count()
	if err != nil || count != 179 {
		t.Fatalf("Count = %d, %v want 179", count, err)
	}
	for n, want := range map[ObjectNumber]string{1: "forest", 99: "Hades"} {
		got, err := tree.Name(n)
		if err != nil || got != want {
			t.Errorf("Name(%d) = %q, %v want %q", n, got, err, want)
		}
	}

	roots, err := tree.Roots()
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, r := range roots {
		name, err := tree.Name(r)
		if err != nil {
			t.Fatal(err)
		}
		names = append(names, name)
	}
	slices.Sort(names)
	names = slices.Compact(names)
	want := []string{Unnamed, "huge diamond", "magic boat", "small piece of vitreous slag", "thing", "you"}
	slices.Sort(want)
	if !slices.Equal(names, want) {
		t.Errorf("root names %q want %q", names, want)
	}
}
