package inst

import (
	"testing"

	"github.com/oisee/zvm/pkg/story"
)

// TestCatalogCompleteness verifies every OpCode has a catalog entry.
func TestCatalogCompleteness(t *testing.T) {
	for _, op := range AllOps() {
		if Catalog[op].Mnemonic == "" {
			t.Errorf("OpCode %d has no mnemonic", op)
		}
	}
	if len(AllOps()) != int(OpCodeCount)-1 {
		t.Errorf("AllOps() returned %d, want %d", len(AllOps()), OpCodeCount-1)
	}
}

// TestTablesCoverEveryOp verifies each opcode sits in exactly one table
// slot and its catalog entry agrees with that slot.
func TestTablesCoverEveryOp(t *testing.T) {
	seen := make(map[OpCode]int)
	check := func(table []OpCode, count OperandCount, first int) {
		for i, op := range table {
			if op == Illegal {
				continue
			}
			seen[op]++
			info := Catalog[op]
			if info.Count != count || int(info.Number) != first+i {
				t.Errorf("%s: catalog says %s:%d, table says %s:%d",
					info.Mnemonic, info.Count, info.Number, count, first+i)
			}
		}
	}
	check(op0Table[:], Op0, 176)
	check(op1Table[:], Op1, 128)
	check(op2Table[:], Op2, 0)
	check(varTable[:], OpVar, 224)
	check(extTable[:], OpVar, 0)

	for _, op := range AllOps() {
		if seen[op] != 1 {
			t.Errorf("%s appears in %d table slots", Catalog[op].Mnemonic, seen[op])
		}
	}
}

func TestReservedSlots(t *testing.T) {
	for _, i := range []int{0, 29, 30, 31} {
		if op2Table[i] != Illegal {
			t.Errorf("2OP slot %d: got %s", i, Catalog[op2Table[i]].Mnemonic)
		}
	}
	for _, i := range []int{15, 30, 31} {
		if extTable[i] != Illegal {
			t.Errorf("EXT slot %d: got %s", i, Catalog[extTable[i]].Mnemonic)
		}
	}
}

func TestHasStore(t *testing.T) {
	tests := []struct {
		op   OpCode
		v    story.Version
		want bool
	}{
		{OP2_20, story.V3, true},  // add
		{OP2_1, story.V3, false},  // je
		{OP1_143, story.V3, true}, // not
		{OP1_143, story.V4, true},
		{OP1_143, story.V5, false}, // call_1n
		{OP0_181, story.V3, false}, // save branches instead
		{OP0_181, story.V4, true},
		{OP0_185, story.V4, false}, // pop
		{OP0_185, story.V5, true},  // catch
		{VAR_228, story.V4, false},
		{VAR_228, story.V5, true},
		{VAR_233, story.V5, false},
		{VAR_233, story.V6, true},
		{VAR_224, story.V3, true},
		{EXT_9, story.V5, true},
		{EXT_5, story.V6, false},
		{Illegal, story.V5, false},
	}
	for _, tc := range tests {
		if got := HasStore(tc.op, tc.v); got != tc.want {
			t.Errorf("HasStore(%s, %s): got %v want %v", Mnemonic(tc.op, tc.v), tc.v, got, tc.want)
		}
	}
}

func TestHasBranch(t *testing.T) {
	tests := []struct {
		op   OpCode
		v    story.Version
		want bool
	}{
		{OP2_1, story.V3, true},
		{OP2_10, story.V3, true},
		{OP2_11, story.V3, false},
		{OP1_128, story.V3, true},
		{OP1_131, story.V3, false}, // get_parent stores only
		{OP0_181, story.V3, true},
		{OP0_181, story.V4, false},
		{OP0_189, story.V5, true},
		{VAR_247, story.V3, false},
		{VAR_247, story.V4, true},
		{VAR_255, story.V4, false},
		{VAR_255, story.V5, true},
		{EXT_6, story.V6, true},
	}
	for _, tc := range tests {
		if got := HasBranch(tc.op, tc.v); got != tc.want {
			t.Errorf("HasBranch(%s, %s): got %v want %v", Mnemonic(tc.op, tc.v), tc.v, got, tc.want)
		}
	}
}

func TestMnemonicByVersion(t *testing.T) {
	tests := []struct {
		op   OpCode
		v    story.Version
		want string
	}{
		{VAR_224, story.V3, "call"},
		{VAR_224, story.V4, "call_vs"},
		{VAR_228, story.V3, "sread"},
		{VAR_228, story.V5, "aread"},
		{OP1_143, story.V4, "not"},
		{OP1_143, story.V5, "call_1n"},
		{OP0_185, story.V3, "pop"},
		{OP0_185, story.V5, "catch"},
		{OP2_20, story.V3, "add"},
		{EXT_9, story.V5, "save_undo"},
		{Illegal, story.V3, "illegal"},
	}
	for _, tc := range tests {
		if got := Mnemonic(tc.op, tc.v); got != tc.want {
			t.Errorf("Mnemonic(%d, %s): got %q want %q", tc.op, tc.v, got, tc.want)
		}
	}
}
