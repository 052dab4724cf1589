package cpu

import "flex86/mask"

// locKind tags what a location actually addresses. Runtime locations are
// resolved fresh every instruction from the opcode's operand descriptors,
// rather than carried around as raw pointers.
type locKind int

const (
	locNull locKind = iota
	locAccumulator
	locRegister
	locSegReg
	locMemory
	locImmediate
	locString
)

// location is a resolved operand: where to read or write a value. isByte
// says whether the location yields 8 or 16 bits; for Accumulator/Register/
// SegReg it selects between reg and byteReg, and for Memory/String it
// selects between a byte and a word bus access at addr.
type location struct {
	kind    locKind
	reg     RegIndex
	byteReg ByteRegIndex
	addr    uint32
	isByte  bool
}

func (c *CPU) locRead(loc location) uint16 {
	switch loc.kind {
	case locNull:
		return 0
	case locImmediate:
		return uint16(c.immediate)
	case locMemory, locString:
		if loc.isByte {
			return uint16(c.Bus.ReadByte(loc.addr))
		}
		if loc.addr&1 != 0 {
			c.cycles += 4
		}
		return c.Bus.ReadWord(loc.addr)
	default:
		if loc.isByte {
			return uint16(c.RegByte(loc.byteReg))
		}
		return c.Reg(loc.reg)
	}
}

func (c *CPU) locWrite(loc location, v uint16) {
	switch loc.kind {
	case locNull, locImmediate:
		return
	case locMemory, locString:
		if loc.isByte {
			c.Bus.WriteByte(loc.addr, byte(v))
			return
		}
		if loc.addr&1 != 0 {
			c.cycles += 4
		}
		c.Bus.WriteWord(loc.addr, v)
	default:
		if loc.isByte {
			c.SetRegByte(loc.byteReg, byte(v))
			return
		}
		c.SetReg(loc.reg, v)
	}
}

// resolveReg computes the REG-field operand of a ModR/M byte: a plain
// register, or (when the opcode pairs it with a segment register) one of
// ES/CS/SS/DS.
func (c *CPU) resolveReg(op *opcodeDef) {
	if op.isWord {
		idx := RegIndex(c.modrm.reg)
		if c.modrmIsSegReg {
			idx = ES + RegIndex(c.modrm.reg&3)
		}
		c.regIndex = idx
		return
	}
	c.regByteIndex = ByteRegIndex(c.modrm.reg)
}

// resolveRM computes the RM-field operand of a ModR/M byte: either another
// register (mod == 0b11) or a memory effective address, using the classic
// 8086 EA table and its per-mode cycle costs.
func (c *CPU) resolveRM(op *opcodeDef) {
	if c.modrm.mod == 0b11 {
		c.rmIsMemory = false
		if op.isWord {
			c.rmReg = RegIndex(c.modrm.rm)
		} else {
			c.rmByteReg = ByteRegIndex(c.modrm.rm)
		}
		return
	}

	c.rmIsMemory = true
	defaultSeg := DS
	var eff uint16
	switch c.modrm.rm {
	case 0b000:
		eff = c.Reg(BX) + c.Reg(SI)
		c.cycles += 7
	case 0b001:
		eff = c.Reg(BX) + c.Reg(DI)
		c.cycles += 8
	case 0b010:
		eff = c.Reg(BP) + c.Reg(SI)
		defaultSeg = SS
		c.cycles += 8
	case 0b011:
		eff = c.Reg(BP) + c.Reg(DI)
		defaultSeg = SS
		c.cycles += 7
	case 0b100:
		eff = c.Reg(SI)
		c.cycles += 5
	case 0b101:
		eff = c.Reg(DI)
		c.cycles += 5
	case 0b110:
		if c.modrm.mod != 0b00 {
			eff = c.Reg(BP)
			defaultSeg = SS
			c.cycles += 5
		} else {
			eff = uint16(c.modrm.disp16)<<8 | uint16(c.modrm.disp8)
			c.cycles += 6
		}
	case 0b111:
		eff = c.Reg(BX)
		c.cycles += 5
	}

	switch c.modrm.mod {
	case 0b01:
		eff += uint16(int16(int8(c.modrm.disp8)))
		c.cycles += 4
	case 0b10:
		eff += uint16(c.modrm.disp16)<<8 | uint16(c.modrm.disp8)
		c.cycles += 4
	}

	c.rmEA = eff
	c.rmAddr = c.physicalAddress(c.overrideSeg(defaultSeg), eff)
}

// locationFor resolves one opcode operand descriptor into a concrete
// location, using whatever the decoder has already computed this
// instruction (ModR/M fields, immediate, displacement).
func (c *CPU) locationFor(o operand, isWord bool) location {
	switch o {
	case opAX:
		return location{kind: locAccumulator, reg: AX}
	case opCX:
		return location{kind: locRegister, reg: CX}
	case opDX:
		return location{kind: locRegister, reg: DX}
	case opBX:
		return location{kind: locRegister, reg: BX}
	case opSP:
		return location{kind: locRegister, reg: SP}
	case opBP:
		return location{kind: locRegister, reg: BP}
	case opSI:
		return location{kind: locRegister, reg: SI}
	case opDI:
		return location{kind: locRegister, reg: DI}
	case opES:
		return location{kind: locSegReg, reg: ES}
	case opCS:
		return location{kind: locSegReg, reg: CS}
	case opSS:
		return location{kind: locSegReg, reg: SS}
	case opDS:
		return location{kind: locSegReg, reg: DS}
	case opAL:
		return location{kind: locAccumulator, byteReg: AL, isByte: true}
	case opAH:
		return location{kind: locAccumulator, byteReg: AH, isByte: true}
	case opCL:
		return location{kind: locRegister, byteReg: CL, isByte: true}
	case opDL:
		return location{kind: locRegister, byteReg: DL, isByte: true}
	case opBL:
		return location{kind: locRegister, byteReg: BL, isByte: true}
	case opCH:
		return location{kind: locRegister, byteReg: CH, isByte: true}
	case opDH:
		return location{kind: locRegister, byteReg: DH, isByte: true}
	case opBH:
		return location{kind: locRegister, byteReg: BH, isByte: true}
	case opImm, opImm8, opSegOff:
		return location{kind: locImmediate}
	case opRM:
		if c.rmIsMemory {
			return location{kind: locMemory, addr: c.rmAddr, isByte: !isWord}
		}
		if c.modrmIsSegReg {
			return location{kind: locSegReg, reg: c.rmReg}
		}
		if isWord {
			return location{kind: locRegister, reg: c.rmReg}
		}
		return location{kind: locRegister, byteReg: c.rmByteReg, isByte: true}
	case opReg:
		if c.modrmIsSegReg {
			return location{kind: locSegReg, reg: c.regIndex}
		}
		if isWord {
			return location{kind: locRegister, reg: c.regIndex}
		}
		return location{kind: locRegister, byteReg: c.regByteIndex, isByte: true}
	case opSReg:
		return location{kind: locSegReg, reg: c.regIndex}
	case opAddr:
		return location{kind: locMemory, addr: c.physicalAddress(c.overrideSeg(DS), uint16(c.immediate)), isByte: !isWord}
	case opStrSrc:
		return location{kind: locString, addr: c.physicalAddress(c.overrideSeg(DS), c.Reg(SI)), isByte: !isWord}
	case opStrDst:
		return location{kind: locString, addr: c.physicalAddress(ES, c.Reg(DI)), isByte: !isWord}
	default:
		return location{kind: locNull}
	}
}

// Tick advances the CPU by one host clock. The BIU refills the prefetch
// queue whenever it has room; the EU spends its budgeted cycles, then
// walks the decode pipeline one resumable stage at a time, picking up
// exactly where it left off if the queue runs dry mid-fetch.
func (c *CPU) Tick() {
	c.biuStep()

	if c.haveOpcode && c.opcodeByte == 0x9B && c.Bus.TestLine() {
		c.cycles += 5
	}

	if c.cycles > 0 {
		c.cycles--
		return
	}

	if c.empty {
		return
	}

	if c.stage == stageExecuting {
		c.resetDecode()
	}

	var op *opcodeDef
	if c.haveOpcode {
		op = &opTable[c.opcodeByte]
	}

nextStage:
	switch c.stage {
	case stageReady:
		b := c.dequeue()
		switch b {
		case prefixLock:
			c.cycles = 1
			return
		case prefixRepNZ, prefixRepZ:
			c.repeat = true
			c.prefixG1 = b
			c.cycles = 1
			return
		case prefixES, prefixCS, prefixSS, prefixDS:
			c.prefixG2 = b
			c.cycles = 1
			return
		}

		c.opcodeByte = b
		c.haveOpcode = true
		op = &opTable[c.opcodeByte]
		if c.repeat && !op.isString {
			c.repeat = false
		}

		switch {
		case op.dest == opRM || op.src == opRM:
			c.stage = stageFetchModRM
		case op.src == opImm || op.src == opImm8:
			c.stage = stageFetchImmediate
		case op.dest == opAddr || op.src == opAddr || op.src == opSegOff:
			c.stage = stageFetchAddress
		default:
			c.stage = stageDecodeLocations
		}
		goto nextStage

	case stageFetchModRM:
		if !c.modrm.have {
			if c.empty {
				return
			}
			b := c.dequeue()
			mod, reg, rm := mask.ModRM(b)
			c.modrm.mod, c.modrm.reg, c.modrm.rm = mod, reg, rm
			c.modrm.have = true
		}

		isDisp16Only := c.modrm.mod == 0b00 && c.modrm.rm == 0b110
		if (c.modrm.mod == 0b01 || c.modrm.mod == 0b10 || isDisp16Only) && !c.modrm.haveDisp8 {
			if c.empty {
				return
			}
			c.modrm.disp8 = c.dequeue()
			c.modrm.haveDisp8 = true
		}
		if (c.modrm.mod == 0b10 || isDisp16Only) && !c.modrm.haveDisp16 {
			if c.empty {
				return
			}
			c.modrm.disp16 = c.dequeue()
			c.modrm.haveDisp16 = true
		}

		c.modrmIsSegReg = op.dest == opSReg || op.src == opSReg
		c.resolveReg(op)
		c.resolveRM(op)

		switch {
		case op.src == opImm || op.src == opImm8:
			c.stage = stageFetchImmediate
		case op.dest == opAddr || op.src == opAddr || op.src == opSegOff:
			c.stage = stageFetchAddress
		default:
			c.stage = stageDecodeLocations
		}
		goto nextStage

	case stageFetchImmediate:
		if !c.haveImm8 {
			if c.empty {
				return
			}
			c.imm8 = c.dequeue()
			c.haveImm8 = true
		}
		if op.isWord && !c.haveImm16 {
			if op.src == opImm8 {
				if c.imm8&0x80 != 0 {
					c.imm16 = 0xFF
				}
				c.haveImm16 = true
			} else {
				if c.empty {
					return
				}
				c.imm16 = c.dequeue()
				c.haveImm16 = true
			}
		}

		if op.isWord {
			c.immediate = uint32(c.imm8) | uint32(c.imm16)<<8
		} else {
			c.immediate = uint32(c.imm8)
		}
		c.stage = stageDecodeLocations
		goto nextStage

	case stageFetchAddress:
		if !c.haveImm8 {
			if c.empty {
				return
			}
			c.imm8 = c.dequeue()
			c.haveImm8 = true
		}
		if !c.haveImm16 {
			if c.empty {
				return
			}
			c.imm16 = c.dequeue()
			c.haveImm16 = true
		}
		if op.src == opSegOff {
			if !c.haveLoSeg {
				if c.empty {
					return
				}
				c.loSeg = c.dequeue()
				c.haveLoSeg = true
			}
			if !c.haveHiSeg {
				if c.empty {
					return
				}
				c.hiSeg = c.dequeue()
				c.haveHiSeg = true
			}
		}

		// A far target packs as offset in the high word, segment in the
		// low word; a plain direct address is just the 16-bit offset.
		if op.src == opSegOff {
			c.immediate = uint32(c.imm16)<<24 | uint32(c.imm8)<<16 |
				uint32(c.hiSeg)<<8 | uint32(c.loSeg)
		} else {
			c.immediate = uint32(c.imm8) | uint32(c.imm16)<<8
		}
		c.stage = stageDecodeLocations
		goto nextStage

	case stageDecodeLocations:
		c.destination = c.locationFor(op.dest, op.isWord)
		c.source = c.locationFor(op.src, op.isWord)
		c.currentIsWord = op.isWord
		c.currentIsString = op.isString
		c.stage = stageExecuting
		goto nextStage

	case stageExecuting:
		if op.fn == nil {
			b := c.opcodeByte
			c.LastIllegalOpcode = &b
			c.cycles = 0
			return
		}
		c.LastIllegalOpcode = nil

		if c.repeat {
			c.cycles += 9
		}

		for {
			if c.repeat {
				if c.Reg(CX) == 0 {
					return
				}
				c.SetReg(CX, c.Reg(CX)-1)
			}

			// String operands address through SI/DI, which move after every
			// element; re-resolve them fresh each pass rather than reusing
			// the addresses from DecodeLocations.
			if c.currentIsString {
				c.destination = c.locationFor(op.dest, op.isWord)
				c.source = c.locationFor(op.src, op.isWord)
			}

			op.fn(c)

			if c.currentIsString {
				delta := int32(1)
				if op.isWord {
					delta = 2
				}
				if c.GetFlag(FlagDirection) {
					delta = -delta
				}
				c.SetReg(SI, uint16(int32(c.Reg(SI))+delta))
				c.SetReg(DI, uint16(int32(c.Reg(DI))+delta))
			}

			if !c.repeat {
				c.cycles--
				return
			}

			if op.isStringCompare {
				wantZero := c.prefixG1 == prefixRepZ
				if c.GetFlag(FlagZero) != wantZero {
					return
				}
			}
		}
	}
}
