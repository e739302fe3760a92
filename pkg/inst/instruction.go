package inst

import "github.com/oisee/zvm/pkg/story"

// OpCode identifies a concrete Z-machine instruction (not the raw byte
// encoding). Names follow the conventional table/number scheme: OP2_20 is
// 2OP:20 ("add"), VAR_224 is the VAR opcode whose short-form byte is 224.
type OpCode uint8

// OpCode constants, grouped by operand-count table.
const (
	// Illegal fills reserved table slots. Decoding one is not an error.
	Illegal OpCode = iota

	// === 2OP (long form, or variable form with bit 5 clear) ===
	OP2_1
	OP2_2
	OP2_3
	OP2_4
	OP2_5
	OP2_6
	OP2_7
	OP2_8
	OP2_9
	OP2_10
	OP2_11
	OP2_12
	OP2_13
	OP2_14
	OP2_15
	OP2_16
	OP2_17
	OP2_18
	OP2_19
	OP2_20
	OP2_21
	OP2_22
	OP2_23
	OP2_24
	OP2_25
	OP2_26
	OP2_27
	OP2_28

	// === 1OP (short form, operand type bits 5-4 not 11) ===
	OP1_128
	OP1_129
	OP1_130
	OP1_131
	OP1_132
	OP1_133
	OP1_134
	OP1_135
	OP1_136
	OP1_137
	OP1_138
	OP1_139
	OP1_140
	OP1_141
	OP1_142
	OP1_143

	// === 0OP (short form, operand type bits 5-4 = 11) ===
	OP0_176
	OP0_177
	OP0_178
	OP0_179
	OP0_180
	OP0_181
	OP0_182
	OP0_183
	OP0_184
	OP0_185
	OP0_186
	OP0_187
	OP0_188
	OP0_189
	OP0_190
	OP0_191

	// === VAR (variable form with bit 5 set) ===
	VAR_224
	VAR_225
	VAR_226
	VAR_227
	VAR_228
	VAR_229
	VAR_230
	VAR_231
	VAR_232
	VAR_233
	VAR_234
	VAR_235
	VAR_236
	VAR_237
	VAR_238
	VAR_239
	VAR_240
	VAR_241
	VAR_242
	VAR_243
	VAR_244
	VAR_245
	VAR_246
	VAR_247
	VAR_248
	VAR_249
	VAR_250
	VAR_251
	VAR_252
	VAR_253
	VAR_254
	VAR_255

	// === EXT (0xBE prefix, V5+) ===
	EXT_0
	EXT_1
	EXT_2
	EXT_3
	EXT_4
	EXT_5
	EXT_6
	EXT_7
	EXT_8
	EXT_9
	EXT_10
	EXT_11
	EXT_12
	EXT_13
	EXT_14
	EXT_16
	EXT_17
	EXT_18
	EXT_19
	EXT_20
	EXT_21
	EXT_22
	EXT_23
	EXT_24
	EXT_25
	EXT_26
	EXT_27
	EXT_28
	EXT_29

	OpCodeCount
)

// Opcode tables indexed by the bit field that selects within each count.
// Reserved slots hold Illegal.
var (
	op0Table = [16]OpCode{
		OP0_176, OP0_177, OP0_178, OP0_179, OP0_180, OP0_181, OP0_182, OP0_183,
		OP0_184, OP0_185, OP0_186, OP0_187, OP0_188, OP0_189, OP0_190, OP0_191,
	}
	op1Table = [16]OpCode{
		OP1_128, OP1_129, OP1_130, OP1_131, OP1_132, OP1_133, OP1_134, OP1_135,
		OP1_136, OP1_137, OP1_138, OP1_139, OP1_140, OP1_141, OP1_142, OP1_143,
	}
	op2Table = [32]OpCode{
		Illegal, OP2_1, OP2_2, OP2_3, OP2_4, OP2_5, OP2_6, OP2_7,
		OP2_8, OP2_9, OP2_10, OP2_11, OP2_12, OP2_13, OP2_14, OP2_15,
		OP2_16, OP2_17, OP2_18, OP2_19, OP2_20, OP2_21, OP2_22, OP2_23,
		OP2_24, OP2_25, OP2_26, OP2_27, OP2_28, Illegal, Illegal, Illegal,
	}
	varTable = [32]OpCode{
		VAR_224, VAR_225, VAR_226, VAR_227, VAR_228, VAR_229, VAR_230, VAR_231,
		VAR_232, VAR_233, VAR_234, VAR_235, VAR_236, VAR_237, VAR_238, VAR_239,
		VAR_240, VAR_241, VAR_242, VAR_243, VAR_244, VAR_245, VAR_246, VAR_247,
		VAR_248, VAR_249, VAR_250, VAR_251, VAR_252, VAR_253, VAR_254, VAR_255,
	}
	extTable = [32]OpCode{
		EXT_0, EXT_1, EXT_2, EXT_3, EXT_4, EXT_5, EXT_6, EXT_7,
		EXT_8, EXT_9, EXT_10, EXT_11, EXT_12, EXT_13, EXT_14, Illegal,
		EXT_16, EXT_17, EXT_18, EXT_19, EXT_20, EXT_21, EXT_22, EXT_23,
		EXT_24, EXT_25, EXT_26, EXT_27, EXT_28, EXT_29, Illegal, Illegal,
	}
)

// HasStore reports whether op is followed by a result variable byte.
func HasStore(op OpCode, v story.Version) bool {
	switch op {
	case OP1_143:
		return v.IsV4OrLower()
	case OP0_181, OP0_182:
		return v.IsV4OrHigher()
	case OP0_185:
		return v.IsV5OrHigher()
	case VAR_233:
		return v == story.V6
	case VAR_228:
		return v.IsV5OrHigher()
	case OP2_8, OP2_9, OP2_15, OP2_16, OP2_17, OP2_18, OP2_19, OP2_20,
		OP2_21, OP2_22, OP2_23, OP2_24, OP2_25,
		OP1_129, OP1_130, OP1_131, OP1_132, OP1_136, OP1_142,
		VAR_224, VAR_231, VAR_236, VAR_246, VAR_247, VAR_248,
		EXT_0, EXT_1, EXT_2, EXT_3, EXT_4, EXT_9, EXT_10, EXT_19, EXT_29:
		return true
	}
	return false
}

// HasBranch reports whether op is followed by branch data.
func HasBranch(op OpCode, v story.Version) bool {
	switch op {
	case OP0_181, OP0_182:
		return v.IsV3OrLower()
	case VAR_247:
		return v.IsV4OrHigher()
	case VAR_255:
		return v.IsV5OrHigher()
	case OP2_1, OP2_2, OP2_3, OP2_4, OP2_5, OP2_6, OP2_7, OP2_10,
		OP1_128, OP1_129, OP1_130,
		OP0_189, OP0_191,
		EXT_6, EXT_24, EXT_27:
		return true
	}
	return false
}

// HasText reports whether op carries an inline Z-string (print, print_ret).
func HasText(op OpCode) bool {
	return op == OP0_178 || op == OP0_179
}

// IsDoubleVariable reports whether op takes two operand type bytes and so
// up to eight operands (call_vs2, call_vn2).
func IsDoubleVariable(op OpCode) bool {
	return op == VAR_236 || op == VAR_250
}
