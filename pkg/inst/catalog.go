package inst

import (
	"strings"

	"github.com/oisee/zvm/pkg/story"
)

// Info holds static metadata for an opcode.
type Info struct {
	Mnemonic string       // Inform assembler name in the latest version defining it
	Count    OperandCount // Table the opcode is drawn from
	Number   uint8        // Opcode number in that table (e.g. 20 for OP2_20, 224 for VAR_224)
}

// Catalog maps each OpCode to its Info.
var Catalog [OpCodeCount]Info

// AllOps returns every OpCode except Illegal.
func AllOps() []OpCode {
	ops := make([]OpCode, 0, OpCodeCount-1)
	for op := Illegal + 1; op < OpCodeCount; op++ {
		ops = append(ops, op)
	}
	return ops
}

// Mnemonic returns the name of op in story version v. A few opcode
// numbers were given new meanings in later versions.
func Mnemonic(op OpCode, v story.Version) string {
	switch op {
	case OP1_143:
		if v.IsV4OrLower() {
			return "not"
		}
	case OP0_185:
		if v.IsV4OrLower() {
			return "pop"
		}
	case VAR_224:
		if v.IsV3OrLower() {
			return "call"
		}
	case VAR_228:
		if v.IsV4OrLower() {
			return "sread"
		}
	}
	return Catalog[op].Mnemonic
}

// Disassemble returns assembly text for an instruction, in the style
//
//	call_vs #2a39 #8010 L01 -> sp
//	je sp #05 ?~0x4f1a
//	print "Hello."
func Disassemble(in Instruction) string {
	var b strings.Builder
	b.WriteString(Mnemonic(in.Operation.OpCode, in.Version))
	for _, o := range in.Operands {
		b.WriteByte(' ')
		b.WriteString(o.String())
	}
	if in.Store != nil {
		b.WriteString(" -> ")
		b.WriteString(in.Store.String())
	}
	if in.Branch != nil {
		b.WriteString(" ?")
		if !in.Branch.OnTrue {
			b.WriteByte('~')
		}
		b.WriteString(branchTarget(in))
	}
	if HasText(in.Operation.OpCode) {
		b.WriteByte(' ')
		b.WriteString(quote(in.Text))
	}
	return b.String()
}

func branchTarget(in Instruction) string {
	if value, ok := in.Branch.Returns(); ok {
		if value {
			return "rtrue"
		}
		return "rfalse"
	}
	next, err := in.Next()
	if err != nil {
		return "?"
	}
	target, err := in.Branch.Target(next)
	if err != nil {
		return "?"
	}
	return hex16(uint16(target))
}

func hex16(v uint16) string {
	const hex = "0123456789abcdef"
	return string([]byte{'0', 'x', hex[v>>12], hex[(v>>8)&0x0f], hex[(v>>4)&0x0f], hex[v&0x0f]})
}

// quote writes text in double quotes with embedded quotes and newlines
// escaped, as Inform source would.
func quote(text string) string {
	r := strings.NewReplacer(`"`, `~`, "\n", `^`)
	return `"` + r.Replace(text) + `"`
}

func init() {
	Catalog[Illegal] = Info{Mnemonic: "illegal"}

	// === 2OP ===
	op2 := []string{
		1: "je", "jl", "jg", "dec_chk", "inc_chk", "jin", "test", "or", "and",
		"test_attr", "set_attr", "clear_attr", "store", "insert_obj", "loadw",
		"loadb", "get_prop", "get_prop_addr", "get_next_prop", "add", "sub",
		"mul", "div", "mod", "call_2s", "call_2n", "set_colour", "throw",
	}
	for n := 1; n < len(op2); n++ {
		Catalog[op2Table[n]] = Info{Mnemonic: op2[n], Count: Op2, Number: uint8(n)}
	}

	// === 1OP ===
	op1 := []string{
		"jz", "get_sibling", "get_child", "get_parent", "get_prop_len", "inc",
		"dec", "print_addr", "call_1s", "remove_obj", "print_obj", "ret",
		"jump", "print_paddr", "load", "call_1n",
	}
	for i, name := range op1 {
		Catalog[op1Table[i]] = Info{Mnemonic: name, Count: Op1, Number: uint8(128 + i)}
	}

	// === 0OP ===
	op0 := []string{
		"rtrue", "rfalse", "print", "print_ret", "nop", "save", "restore",
		"restart", "ret_popped", "catch", "quit", "new_line", "show_status",
		"verify", "extended", "piracy",
	}
	for i, name := range op0 {
		Catalog[op0Table[i]] = Info{Mnemonic: name, Count: Op0, Number: uint8(176 + i)}
	}

	// === VAR ===
	vars := []string{
		"call_vs", "storew", "storeb", "put_prop", "aread", "print_char",
		"print_num", "random", "push", "pull", "split_window", "set_window",
		"call_vs2", "erase_window", "erase_line", "set_cursor", "get_cursor",
		"set_text_style", "buffer_mode", "output_stream", "input_stream",
		"sound_effect", "read_char", "scan_table", "not", "call_vn",
		"call_vn2", "tokenise", "encode_text", "copy_table", "print_table",
		"check_arg_count",
	}
	for i, name := range vars {
		Catalog[varTable[i]] = Info{Mnemonic: name, Count: OpVar, Number: uint8(224 + i)}
	}

	// === EXT ===
	ext := []string{
		"save", "restore", "log_shift", "art_shift", "set_font",
		"draw_picture", "picture_data", "erase_picture", "set_margins",
		"save_undo", "restore_undo", "print_unicode", "check_unicode",
		"set_true_colour", "ext_14", "", "move_window", "window_size",
		"window_style", "get_wind_prop", "scroll_window", "pop_stack",
		"read_mouse", "mouse_window", "push_stack", "put_wind_prop",
		"print_form", "make_menu", "picture_table", "buffer_screen",
	}
	for i, name := range ext {
		if extTable[i] == Illegal {
			continue
		}
		Catalog[extTable[i]] = Info{Mnemonic: name, Count: OpVar, Number: uint8(i)}
	}
}
