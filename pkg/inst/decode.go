package inst

import (
	"errors"
	"fmt"

	"github.com/oisee/zvm/pkg/bits"
	"github.com/oisee/zvm/pkg/memory"
	"github.com/oisee/zvm/pkg/story"
	"github.com/oisee/zvm/pkg/zstring"
)

// ErrMalformedOperands is returned when an operand type follows an
// Omitted type in the same instruction.
var ErrMalformedOperands = errors.New("malformed operand types")

// extendedPrefix is the first byte of every extended-form instruction.
const extendedPrefix = 0xbe

// Source is what the decoder reads from. *story.Story satisfies it.
type Source interface {
	zstring.Source
	Read(memory.ByteAddress) (byte, error)
	Version() story.Version
}

// Operation is the opcode and operand types of one instruction, without
// operand values. Count tags which table OpCode came from.
type Operation struct {
	OpCode OpCode
	Form   OpcodeForm
	Count  OperandCount
	Types  []OperandType
}

// Instruction is a fully decoded instruction.
type Instruction struct {
	Address   memory.ByteAddress
	Version   story.Version
	Operation Operation
	Operands  []Operand
	Store     *VariableLocation // nil unless HasStore
	Branch    *Branch           // nil unless HasBranch
	Text      string            // inline text of print and print_ret
	Length    int               // total encoded bytes
}

// Next returns the address of the following instruction in memory.
func (in Instruction) Next() (memory.ByteAddress, error) {
	return in.Address.Add(in.Length)
}

// longTypes are the operand types selected by bits 6-5 of a long-form byte.
var longTypes = [4][2]OperandType{
	{Small, Small},
	{Small, Variable},
	{Variable, Small},
	{Variable, Variable},
}

func decodeForm(first byte) OpcodeForm {
	switch bits.Pattern(first).Bits(bits.Bit7, bits.Two) {
	case 3:
		return VariableForm
	case 2:
		if first == extendedPrefix {
			return ExtendedForm
		}
		return ShortForm
	}
	return LongForm
}

func decodeCount(p bits.Pattern, form OpcodeForm) OperandCount {
	switch form {
	case ShortForm:
		if p.Bits(bits.Bit5, bits.Two) == uint16(Omitted) {
			return Op0
		}
		return Op1
	case VariableForm:
		if p.IsSet(bits.Bit5) {
			return OpVar
		}
		return Op2
	case ExtendedForm:
		return OpVar
	}
	return Op2
}

// opcodeLength is 2 for the extended prefix plus number, else 1.
func opcodeLength(form OpcodeForm) int {
	if form == ExtendedForm {
		return 2
	}
	return 1
}

// typeLength is the number of operand type bytes after the opcode.
func typeLength(form OpcodeForm, op OpCode) int {
	switch form {
	case VariableForm:
		if IsDoubleVariable(op) {
			return 2
		}
		return 1
	case ExtendedForm:
		return 1
	}
	return 0
}

// cursor reads bytes forward from a source. at is an int so that reading
// the last addressable byte does not fail on the advance.
type cursor struct {
	src Source
	at  int
}

func (c *cursor) addr() (memory.ByteAddress, error) {
	return memory.NewByteAddress(c.at)
}

func (c *cursor) byte() (byte, error) {
	a, err := c.addr()
	if err != nil {
		return 0, err
	}
	b, err := c.src.Read(a)
	if err != nil {
		return 0, err
	}
	c.at++
	return b, nil
}

func (c *cursor) word() (uint16, error) {
	high, err := c.byte()
	if err != nil {
		return 0, err
	}
	low, err := c.byte()
	if err != nil {
		return 0, err
	}
	return uint16(high)<<8 | uint16(low), nil
}

// DecodeOperation decodes the form, table, opcode and operand types of the
// instruction at addr.
func DecodeOperation(src Source, addr memory.ByteAddress) (Operation, error) {
	c := &cursor{src: src, at: addr.Int()}
	first, err := c.byte()
	if err != nil {
		return Operation{}, fmt.Errorf("inst: opcode at %s: %w", addr, err)
	}
	p := bits.Pattern(first)
	op := Operation{Form: decodeForm(first)}
	op.Count = decodeCount(p, op.Form)

	switch {
	case op.Form == ExtendedForm:
		number, err := c.byte()
		if err != nil {
			return Operation{}, fmt.Errorf("inst: extended opcode at %s: %w", addr, err)
		}
		op.OpCode = Illegal
		if int(number) < len(extTable) {
			op.OpCode = extTable[number]
		}
	case op.Count == Op0:
		op.OpCode = op0Table[p.Bits(bits.Bit3, bits.Four)]
	case op.Count == Op1:
		op.OpCode = op1Table[p.Bits(bits.Bit3, bits.Four)]
	case op.Count == Op2:
		op.OpCode = op2Table[p.Bits(bits.Bit4, bits.Five)]
	default:
		op.OpCode = varTable[p.Bits(bits.Bit4, bits.Five)]
	}

	switch {
	case op.Count == Op0:
		return op, nil
	case op.Count == Op1:
		op.Types = []OperandType{OperandType(p.Bits(bits.Bit5, bits.Two))}
		return op, nil
	case op.Form == LongForm:
		t := longTypes[p.Bits(bits.Bit6, bits.Two)]
		op.Types = t[:]
		return op, nil
	}

	n := typeLength(op.Form, op.OpCode)
	typeBytes := make([]byte, n)
	for i := range typeBytes {
		if typeBytes[i], err = c.byte(); err != nil {
			return Operation{}, fmt.Errorf("inst: operand types at %s: %w", addr, err)
		}
	}
	if op.Types, err = decodeTypes(typeBytes); err != nil {
		return Operation{}, fmt.Errorf("inst: operand types at %s: %w", addr, err)
	}
	return op, nil
}

// decodeTypes reads four 2-bit type codes per byte, most significant pair
// first. The list ends at the first Omitted. Rather than ignore the rest,
// any non-Omitted type after it is rejected as malformed.
func decodeTypes(typeBytes []byte) ([]OperandType, error) {
	var types []OperandType
	ended := false
	for _, b := range typeBytes {
		p := bits.Pattern(b)
		for _, high := range [4]bits.Number{bits.Bit7, bits.Bit5, bits.Bit3, bits.Bit1} {
			t := OperandType(p.Bits(high, bits.Two))
			switch {
			case t == Omitted:
				ended = true
			case ended:
				return nil, fmt.Errorf("%s after omitted in %#02x: %w", t, b, ErrMalformedOperands)
			default:
				types = append(types, t)
			}
		}
	}
	return types, nil
}

// Decode decodes the whole instruction at addr: operation, operand values,
// store variable, branch and inline text. It returns the instruction and
// the address that follows it.
func Decode(src Source, addr memory.ByteAddress) (Instruction, memory.ByteAddress, error) {
	op, err := DecodeOperation(src, addr)
	if err != nil {
		return Instruction{}, 0, err
	}
	v := src.Version()
	in := Instruction{Address: addr, Version: v, Operation: op}
	c := &cursor{src: src, at: addr.Int() + opcodeLength(op.Form) + typeLength(op.Form, op.OpCode)}

	for _, t := range op.Types {
		operand := Operand{Type: t}
		switch t {
		case Large:
			operand.Value, err = c.word()
		case Small:
			var b byte
			b, err = c.byte()
			operand.Value = uint16(b)
		case Variable:
			var b byte
			b, err = c.byte()
			operand.Value = uint16(b)
			operand.Variable = DecodeVariable(b)
		}
		if err != nil {
			return Instruction{}, 0, fmt.Errorf("inst: operand %d at %s: %w", len(in.Operands), addr, err)
		}
		in.Operands = append(in.Operands, operand)
	}

	if HasStore(op.OpCode, v) {
		b, err := c.byte()
		if err != nil {
			return Instruction{}, 0, fmt.Errorf("inst: store at %s: %w", addr, err)
		}
		store := DecodeVariable(b)
		in.Store = &store
	}

	if HasBranch(op.OpCode, v) {
		first, err := c.byte()
		if err != nil {
			return Instruction{}, 0, fmt.Errorf("inst: branch at %s: %w", addr, err)
		}
		var second byte
		if first&0x40 == 0 {
			if second, err = c.byte(); err != nil {
				return Instruction{}, 0, fmt.Errorf("inst: branch at %s: %w", addr, err)
			}
		}
		branch := decodeBranch(first, second)
		in.Branch = &branch
	}

	if HasText(op.OpCode) {
		at, err := c.addr()
		if err != nil {
			return Instruction{}, 0, fmt.Errorf("inst: text at %s: %w", addr, err)
		}
		zs, err := zstring.AtByte(at)
		if err != nil {
			return Instruction{}, 0, fmt.Errorf("inst: text at %s: %w", addr, err)
		}
		text, n, err := zstring.DecodeLength(src, zs)
		if err != nil {
			return Instruction{}, 0, fmt.Errorf("inst: text at %s: %w", addr, err)
		}
		in.Text = text
		c.at += n
	}

	in.Length = c.at - addr.Int()
	next, err := c.addr()
	if err != nil {
		return Instruction{}, 0, fmt.Errorf("inst: instruction at %s runs off the address space: %w", addr, err)
	}
	return in, next, nil
}
