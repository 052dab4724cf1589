package cpu

// operand names one slot of an opcode's operand pair at decode-table
// granularity: which register, or which ModR/M/immediate/address form to
// resolve once decoding reaches that instruction.
type operand int

const (
	opNone operand = iota

	opAX
	opCX
	opDX
	opBX
	opSP
	opBP
	opSI
	opDI

	opES
	opCS
	opSS
	opDS

	opAL
	opCL
	opDL
	opBL
	opAH
	opCH
	opDH
	opBH

	opImm  // immediate following the opcode, width per isWord
	opImm8 // 0x83's immediate: one byte, sign-extended to 16 bits
	opSegOff

	opRM
	opReg
	opSReg

	opAddr

	opStrSrc
	opStrDst
)

// opcodeDef is one row of the opcode table: the two operand descriptors,
// operand width, whether it is a repeatable string op, and the handler
// that implements it.
type opcodeDef struct {
	name            string
	dest, src       operand
	isWord          bool
	isString        bool
	isStringCompare bool // CMPS/SCAS: REP loop must also honor ZF
	fn              func(*CPU)
}

// immTable is the 0x80-0x83 group's second-level dispatch, selected by the
// ModR/M reg field.
var immTable = [8]opcodeDef{
	{name: "ADD", dest: opRM, src: opImm, fn: opAdd},
	{name: "OR", dest: opRM, src: opImm, fn: opOr},
	{name: "ADC", dest: opRM, src: opImm, fn: opAdc},
	{name: "SBB", dest: opRM, src: opImm, fn: opSbb},
	{name: "AND", dest: opRM, src: opImm, fn: opAnd},
	{name: "SUB", dest: opRM, src: opImm, fn: opSub},
	{name: "XOR", dest: opRM, src: opImm, fn: opXor},
	{name: "CMP", dest: opRM, src: opImm, fn: opCmp},
}

func opImmGroup(c *CPU) {
	immTable[c.modrm.reg].fn(c)
}

// opTable is indexed by the opcode byte. Entries left unspecified are the
// zero value (fn == nil), which Tick treats as an undefined opcode: a
// 1-cycle no-op that latches LastIllegalOpcode. This covers 0x0F, the
// 0x60-0x6F block, the holes at 0xC0/0xC1/0xC8/0xC9, and the rest of the
// map from 0xCC up (apart from the prefix bytes Ready consumes), matching the documented extent of this core's
// instruction coverage.
var opTable = buildOpTable()

func buildOpTable() [256]opcodeDef {
	var t [256]opcodeDef

	alu := func(base byte, name string, fn func(*CPU)) {
		t[base+0x00] = opcodeDef{name: name, dest: opRM, src: opReg, fn: fn}
		t[base+0x01] = opcodeDef{name: name, dest: opRM, src: opReg, isWord: true, fn: fn}
		t[base+0x02] = opcodeDef{name: name, dest: opReg, src: opRM, fn: fn}
		t[base+0x03] = opcodeDef{name: name, dest: opReg, src: opRM, isWord: true, fn: fn}
		t[base+0x04] = opcodeDef{name: name, dest: opAL, src: opImm, fn: fn}
		t[base+0x05] = opcodeDef{name: name, dest: opAX, src: opImm, isWord: true, fn: fn}
	}
	alu(0x00, "ADD", opAdd)
	alu(0x08, "OR", opOr)
	alu(0x10, "ADC", opAdc)
	alu(0x18, "SBB", opSbb)
	alu(0x20, "AND", opAnd)
	alu(0x28, "SUB", opSub)
	alu(0x30, "XOR", opXor)
	alu(0x38, "CMP", opCmp)

	t[0x06] = opcodeDef{name: "PUSH", dest: opES, src: opNone, isWord: true, fn: opPush}
	t[0x07] = opcodeDef{name: "POP", dest: opES, src: opNone, isWord: true, fn: opPop}
	t[0x0E] = opcodeDef{name: "PUSH", dest: opCS, src: opNone, isWord: true, fn: opPush}
	t[0x16] = opcodeDef{name: "PUSH", dest: opSS, src: opNone, isWord: true, fn: opPush}
	t[0x17] = opcodeDef{name: "POP", dest: opSS, src: opNone, isWord: true, fn: opPop}
	t[0x1E] = opcodeDef{name: "PUSH", dest: opDS, src: opNone, isWord: true, fn: opPush}
	t[0x1F] = opcodeDef{name: "POP", dest: opDS, src: opNone, isWord: true, fn: opPop}

	t[0x27] = opcodeDef{name: "DAA", fn: opDaa}
	t[0x2F] = opcodeDef{name: "DAS", fn: opDas}
	t[0x37] = opcodeDef{name: "AAA", fn: opAaa}
	t[0x3F] = opcodeDef{name: "AAS", fn: opAas}

	wordRegs := [8]operand{opAX, opCX, opDX, opBX, opSP, opBP, opSI, opDI}
	for i, r := range wordRegs {
		t[0x40+byte(i)] = opcodeDef{name: "INC", dest: r, src: opNone, isWord: true, fn: opInc}
		t[0x48+byte(i)] = opcodeDef{name: "DEC", dest: r, src: opNone, isWord: true, fn: opDec}
		t[0x50+byte(i)] = opcodeDef{name: "PUSH", dest: r, src: opNone, isWord: true, fn: opPush}
		t[0x58+byte(i)] = opcodeDef{name: "POP", dest: r, src: opNone, isWord: true, fn: opPop}
		t[0x90+byte(i)] = opcodeDef{name: "XCHG", dest: r, src: opAX, isWord: true, fn: opXchg}
	}
	t[0x90].name = "NOP" // technically XCHG AX, AX

	jcc := [16]string{"JO", "JNO", "JB", "JAE", "JE", "JNE", "JBE", "JA", "JS", "JNS", "JP", "JNP", "JL", "JGE", "JLE", "JG"}
	for i, name := range jcc {
		t[0x70+byte(i)] = opcodeDef{name: name, dest: opNone, src: opImm, fn: jccTable[i]}
	}

	t[0x80] = opcodeDef{name: "GRP1", dest: opRM, src: opImm, fn: opImmGroup}
	t[0x81] = opcodeDef{name: "GRP1", dest: opRM, src: opImm, isWord: true, fn: opImmGroup}
	t[0x82] = opcodeDef{name: "GRP1", dest: opRM, src: opImm, fn: opImmGroup}
	t[0x83] = opcodeDef{name: "GRP1", dest: opRM, src: opImm8, isWord: true, fn: opImmGroup}

	t[0x84] = opcodeDef{name: "TEST", dest: opReg, src: opRM, fn: opTest}
	t[0x85] = opcodeDef{name: "TEST", dest: opReg, src: opRM, isWord: true, fn: opTest}
	t[0x86] = opcodeDef{name: "XCHG", dest: opReg, src: opRM, fn: opXchg}
	t[0x87] = opcodeDef{name: "XCHG", dest: opReg, src: opRM, isWord: true, fn: opXchg}
	t[0x88] = opcodeDef{name: "MOV", dest: opRM, src: opReg, fn: opMov}
	t[0x89] = opcodeDef{name: "MOV", dest: opRM, src: opReg, isWord: true, fn: opMov}
	t[0x8A] = opcodeDef{name: "MOV", dest: opReg, src: opRM, fn: opMov}
	t[0x8B] = opcodeDef{name: "MOV", dest: opReg, src: opRM, isWord: true, fn: opMov}
	t[0x8C] = opcodeDef{name: "MOV", dest: opRM, src: opSReg, isWord: true, fn: opMov}
	t[0x8D] = opcodeDef{name: "LEA", dest: opReg, src: opRM, isWord: true, fn: opLea}
	t[0x8E] = opcodeDef{name: "MOV", dest: opSReg, src: opRM, isWord: true, fn: opMov}
	t[0x8F] = opcodeDef{name: "POP", dest: opRM, src: opNone, isWord: true, fn: opPop}

	t[0x98] = opcodeDef{name: "CBW", fn: opCbw}
	t[0x99] = opcodeDef{name: "CWD", fn: opCwd}
	t[0x9A] = opcodeDef{name: "CALL", dest: opNone, src: opSegOff, isWord: true, fn: opCallFar}
	t[0x9B] = opcodeDef{name: "WAIT", fn: opWait}
	t[0x9C] = opcodeDef{name: "PUSHF", fn: opPushf}
	t[0x9D] = opcodeDef{name: "POPF", fn: opPopf}
	t[0x9E] = opcodeDef{name: "SAHF", fn: opSahf}
	t[0x9F] = opcodeDef{name: "LAHF", fn: opLahf}

	t[0xA0] = opcodeDef{name: "MOV", dest: opAL, src: opAddr, fn: opMov}
	t[0xA1] = opcodeDef{name: "MOV", dest: opAX, src: opAddr, isWord: true, fn: opMov}
	t[0xA2] = opcodeDef{name: "MOV", dest: opAddr, src: opAL, fn: opMov}
	t[0xA3] = opcodeDef{name: "MOV", dest: opAddr, src: opAX, isWord: true, fn: opMov}
	t[0xA4] = opcodeDef{name: "MOVSB", dest: opStrDst, src: opStrSrc, isString: true, fn: opMov}
	t[0xA5] = opcodeDef{name: "MOVSW", dest: opStrDst, src: opStrSrc, isWord: true, isString: true, fn: opMov}
	t[0xA6] = opcodeDef{name: "CMPSB", dest: opStrSrc, src: opStrDst, isString: true, isStringCompare: true, fn: opCmp}
	t[0xA7] = opcodeDef{name: "CMPSW", dest: opStrSrc, src: opStrDst, isWord: true, isString: true, isStringCompare: true, fn: opCmp}
	t[0xA8] = opcodeDef{name: "TEST", dest: opAL, src: opImm, fn: opTest}
	t[0xA9] = opcodeDef{name: "TEST", dest: opAX, src: opImm, isWord: true, fn: opTest}
	t[0xAA] = opcodeDef{name: "STOSB", dest: opStrDst, src: opAL, isString: true, fn: opMov}
	t[0xAB] = opcodeDef{name: "STOSW", dest: opStrDst, src: opAX, isWord: true, isString: true, fn: opMov}
	t[0xAC] = opcodeDef{name: "LODSB", dest: opAL, src: opStrSrc, isString: true, fn: opMov}
	t[0xAD] = opcodeDef{name: "LODSW", dest: opAX, src: opStrSrc, isWord: true, isString: true, fn: opMov}
	t[0xAE] = opcodeDef{name: "SCASB", dest: opAL, src: opStrDst, isString: true, isStringCompare: true, fn: opCmp}
	t[0xAF] = opcodeDef{name: "SCASW", dest: opAX, src: opStrDst, isWord: true, isString: true, isStringCompare: true, fn: opCmp}

	byteRegs := [8]operand{opAL, opCL, opDL, opBL, opAH, opCH, opDH, opBH}
	for i, r := range byteRegs {
		t[0xB0+byte(i)] = opcodeDef{name: "MOV", dest: r, src: opImm, fn: opMov}
	}
	for i, r := range wordRegs {
		t[0xB8+byte(i)] = opcodeDef{name: "MOV", dest: r, src: opImm, isWord: true, fn: opMov}
	}

	t[0xC2] = opcodeDef{name: "RET", dest: opNone, src: opImm, isWord: true, fn: opRetNear}
	t[0xC3] = opcodeDef{name: "RET", dest: opNone, src: opNone, isWord: true, fn: opRetNear}
	t[0xC4] = opcodeDef{name: "LES", dest: opReg, src: opRM, isWord: true, fn: opLes}
	t[0xC5] = opcodeDef{name: "LDS", dest: opReg, src: opRM, isWord: true, fn: opLds}
	t[0xC6] = opcodeDef{name: "MOV", dest: opRM, src: opImm, fn: opMov}
	t[0xC7] = opcodeDef{name: "MOV", dest: opRM, src: opImm, isWord: true, fn: opMov}
	t[0xCA] = opcodeDef{name: "RETF", dest: opNone, src: opImm, isWord: true, fn: opRetFar}
	t[0xCB] = opcodeDef{name: "RETF", dest: opNone, src: opNone, isWord: true, fn: opRetFar}

	return t
}
