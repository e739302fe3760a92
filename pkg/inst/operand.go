package inst

import (
	"fmt"

	"github.com/oisee/zvm/pkg/memory"
)

// OpcodeForm is the encoding family selected by the top bits of the first byte.
type OpcodeForm uint8

const (
	LongForm OpcodeForm = iota
	ShortForm
	VariableForm
	ExtendedForm
)

func (f OpcodeForm) String() string {
	switch f {
	case LongForm:
		return "long"
	case ShortForm:
		return "short"
	case VariableForm:
		return "variable"
	case ExtendedForm:
		return "extended"
	}
	return fmt.Sprintf("form(%d)", uint8(f))
}

// OperandCount names the opcode table an instruction is drawn from.
type OperandCount uint8

const (
	Op0 OperandCount = iota
	Op1
	Op2
	OpVar
)

func (c OperandCount) String() string {
	switch c {
	case Op0:
		return "0OP"
	case Op1:
		return "1OP"
	case Op2:
		return "2OP"
	case OpVar:
		return "VAR"
	}
	return fmt.Sprintf("count(%d)", uint8(c))
}

// OperandType is the 2-bit operand type code.
type OperandType uint8

const (
	Large    OperandType = iota // 2-byte constant
	Small                       // 1-byte constant
	Variable                    // 1-byte variable number
	Omitted                     // no operand; ends a type list
)

func (t OperandType) String() string {
	switch t {
	case Large:
		return "large"
	case Small:
		return "small"
	case Variable:
		return "variable"
	case Omitted:
		return "omitted"
	}
	return fmt.Sprintf("type(%d)", uint8(t))
}

// Size is the number of operand bytes the type consumes.
func (t OperandType) Size() int {
	switch t {
	case Large:
		return 2
	case Small, Variable:
		return 1
	}
	return 0
}

// VariableKind distinguishes the three places a variable number can refer to.
type VariableKind uint8

const (
	Stack VariableKind = iota
	Local
	Global
)

// maxLocal is the highest variable number that names a local.
const maxLocal = 15

// VariableLocation is a decoded variable number: 0 is the top of the
// stack, 1-15 are locals of the current routine, 16-255 are globals.
type VariableLocation struct {
	Kind   VariableKind
	Number uint8 // the raw variable byte
}

// DecodeVariable classifies a variable byte.
func DecodeVariable(b byte) VariableLocation {
	switch {
	case b == 0:
		return VariableLocation{Kind: Stack}
	case b <= maxLocal:
		return VariableLocation{Kind: Local, Number: b}
	}
	return VariableLocation{Kind: Global, Number: b}
}

// Encode returns the variable byte.
func (v VariableLocation) Encode() byte {
	if v.Kind == Stack {
		return 0
	}
	return v.Number
}

// Index is the local number (1-15) or the global table index (0-239).
func (v VariableLocation) Index() int {
	switch v.Kind {
	case Local:
		return int(v.Number)
	case Global:
		return int(v.Number) - maxLocal - 1
	}
	return 0
}

func (v VariableLocation) String() string {
	switch v.Kind {
	case Local:
		return fmt.Sprintf("L%02d", v.Index())
	case Global:
		return fmt.Sprintf("G%02x", v.Index())
	}
	return "sp"
}

// Operand is one decoded operand. Value holds the constant for Large and
// Small; Variable is meaningful only for the Variable type.
type Operand struct {
	Type     OperandType
	Value    uint16
	Variable VariableLocation
}

func (o Operand) String() string {
	switch o.Type {
	case Large:
		return fmt.Sprintf("#%04x", o.Value)
	case Small:
		return fmt.Sprintf("#%02x", o.Value)
	case Variable:
		return o.Variable.String()
	}
	return "-"
}

// Branch is the decoded branch data of a test instruction.
//
// The first byte's bit 7 is the polarity. With bit 6 set the offset is the
// unsigned low six bits; otherwise it is a signed 14-bit value spanning the
// low six bits and the following byte.
type Branch struct {
	OnTrue bool
	Offset int16
}

// Returns reports whether the branch returns from the routine instead of
// jumping: offset 0 returns false and offset 1 returns true.
func (b Branch) Returns() (value bool, ok bool) {
	switch b.Offset {
	case 0:
		return false, true
	case 1:
		return true, true
	}
	return false, false
}

// Target is the address jumped to, given the address following the
// instruction.
func (b Branch) Target(next memory.ByteAddress) (memory.ByteAddress, error) {
	return next.Add(int(b.Offset) - 2)
}

// decodeBranch interprets the first branch byte and, when bit 6 is clear,
// the second.
func decodeBranch(first, second byte) Branch {
	b := Branch{OnTrue: first&0x80 != 0}
	if first&0x40 != 0 {
		b.Offset = int16(first & 0x3f)
		return b
	}
	offset := uint16(first&0x3f)<<8 | uint16(second)
	if offset&0x2000 != 0 {
		offset |= 0xc000
	}
	b.Offset = int16(offset)
	return b
}
