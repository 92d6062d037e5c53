package avr

import "fmt"

// execMicroOp runs the semantic action named by a packed micro-op word and
// advances PC/Cycle accordingly (spec §4.E). It is the single source of
// truth for instruction semantics: the reference decoder calls it
// immediately after translating a fresh address, and the fast dispatch
// loop calls it directly from the cache on every subsequent visit, so the
// two paths can never diverge (spec §8's "same (pc', cycle', data, sreg)
// delta" invariant falls out of sharing this function rather than being
// maintained by hand).
//
// It returns the number of cycles charged and whether the dispatch loop
// must stop even if the cycle budget is still positive (spec §4.E step 4:
// SEI/CLI edge, an I/O write with side effects, SLEEP, RETI).
func (c *Core) execMicroOp(pc uint32, slot uint32) (cycles int, budgetZero bool) {
	tag := opTagOf(slot)
	op1 := op1Of(slot)
	op2 := op2Of(slot)
	op3 := op3Of(slot)

	adv2 := func(cy int) (int, bool) { c.PC = pc + 2; c.Cycle += uint64(cy); return cy, false }
	adv4 := func(cy int) (int, bool) { c.PC = pc + 4; c.Cycle += uint64(cy); return cy, false }
	jump := func(to uint32, cy int) (int, bool) { c.PC = to; c.Cycle += uint64(cy); return cy, false }

	switch tag {
	case opNop:
		return adv2(1)

	case opAdd:
		rd, rr := c.ReadRegister(op1), c.ReadRegister(op2)
		res := rd + rr
		c.WriteRegister(op1, res)
		c.flagsAdd(res, rd, rr)
		return adv2(1)
	case opAdc:
		rd, rr := c.ReadRegister(op1), c.ReadRegister(op2)
		carry := uint8(0)
		if c.SREG[S_C] {
			carry = 1
		}
		res := rd + rr + carry
		c.WriteRegister(op1, res)
		c.flagsAdd(res, rd, rr)
		return adv2(1)
	case opSub:
		rd, rr := c.ReadRegister(op1), c.ReadRegister(op2)
		res := rd - rr
		c.WriteRegister(op1, res)
		c.flagsSub(res, rd, rr)
		return adv2(1)
	case opSbc:
		rd, rr := c.ReadRegister(op1), c.ReadRegister(op2)
		carry := uint8(0)
		if c.SREG[S_C] {
			carry = 1
		}
		res := rd - rr - carry
		c.WriteRegister(op1, res)
		c.flagsSubRzns(res, rd, rr)
		return adv2(1)
	case opSubi:
		h, k := op1, op2
		rd := c.ReadRegister(h)
		res := rd - k
		c.WriteRegister(h, res)
		c.flagsSub(res, rd, k)
		return adv2(1)
	case opSbci:
		h, k := op1, op2
		rd := c.ReadRegister(h)
		carry := uint8(0)
		if c.SREG[S_C] {
			carry = 1
		}
		res := rd - k - carry
		c.WriteRegister(h, res)
		c.flagsSubRzns(res, rd, k)
		return adv2(1)
	case opAndOp:
		rd, rr := c.ReadRegister(op1), c.ReadRegister(op2)
		res := rd & rr
		c.WriteRegister(op1, res)
		c.flagsLogical(res)
		return adv2(1)
	case opAndi:
		h, k := op1, op2
		res := c.ReadRegister(h) & k
		c.WriteRegister(h, res)
		c.flagsLogical(res)
		return adv2(1)
	case opOrOp:
		rd, rr := c.ReadRegister(op1), c.ReadRegister(op2)
		res := rd | rr
		c.WriteRegister(op1, res)
		c.flagsLogical(res)
		return adv2(1)
	case opOri:
		h, k := op1, op2
		res := c.ReadRegister(h) | k
		c.WriteRegister(h, res)
		c.flagsLogical(res)
		return adv2(1)
	case opEor:
		rd, rr := c.ReadRegister(op1), c.ReadRegister(op2)
		res := rd ^ rr
		c.WriteRegister(op1, res)
		c.flagsLogical(res)
		return adv2(1)
	case opComOp:
		res := 0xFF - c.ReadRegister(op1)
		c.WriteRegister(op1, res)
		c.flagsLogical(res)
		c.SREG[S_C] = true
		return adv2(1)
	case opNeg:
		rd := c.ReadRegister(op1)
		res := uint8(0) - rd
		c.WriteRegister(op1, res)
		c.flagsSub(res, 0, rd)
		return adv2(1)
	case opInc:
		res := c.ReadRegister(op1) + 1
		c.WriteRegister(op1, res)
		c.SREG[S_V] = res == 0x80
		c.flagsZNS(res)
		return adv2(1)
	case opDec:
		res := c.ReadRegister(op1) - 1
		c.WriteRegister(op1, res)
		c.SREG[S_V] = res == 0x7F
		c.flagsZNS(res)
		return adv2(1)
	case opLsr:
		old := c.ReadRegister(op1)
		res := old >> 1
		c.WriteRegister(op1, res)
		c.flagsShiftRight(res, old, false)
		return adv2(1)
	case opAsr:
		old := c.ReadRegister(op1)
		res := (old >> 1) | (old & 0x80)
		c.WriteRegister(op1, res)
		c.flagsShiftRight(res, old, old&0x80 != 0)
		return adv2(1)
	case opRor:
		old := c.ReadRegister(op1)
		var carryIn uint8
		if c.SREG[S_C] {
			carryIn = 0x80
		}
		res := (old >> 1) | carryIn
		c.WriteRegister(op1, res)
		c.flagsShiftRight(res, old, c.SREG[S_C])
		return adv2(1)
	case opSwapOp:
		old := c.ReadRegister(op1)
		res := old<<4 | old>>4
		c.WriteRegister(op1, res)
		return adv2(1)

	case opCp:
		rd, rr := c.ReadRegister(op1), c.ReadRegister(op2)
		c.flagsSub(rd-rr, rd, rr)
		return adv2(1)
	case opCpc:
		rd, rr := c.ReadRegister(op1), c.ReadRegister(op2)
		carry := uint8(0)
		if c.SREG[S_C] {
			carry = 1
		}
		c.flagsSubRzns(rd-rr-carry, rd, rr)
		return adv2(1)
	case opCpi:
		h, k := op1, op2
		rd := c.ReadRegister(h)
		c.flagsSub(rd-k, rd, k)
		return adv2(1)
	case opCpse:
		rd, rr := c.ReadRegister(op1), c.ReadRegister(op2)
		if rd == rr {
			return c.skipNext(pc)
		}
		return adv2(1)

	case opBrbs:
		off, bit := int8(op1), op2
		if c.SREG[bit] {
			return jump(branchTarget(pc, off), 2)
		}
		return adv2(1)
	case opBrbc:
		off, bit := int8(op1), op2
		if !c.SREG[bit] {
			return jump(branchTarget(pc, off), 2)
		}
		return adv2(1)

	case opBld:
		d, b := op1, op2
		v := c.ReadRegister(d)
		if c.SREG[S_T] {
			v |= 1 << b
		} else {
			v &^= 1 << b
		}
		c.WriteRegister(d, v)
		return adv2(1)
	case opBst:
		d, b := op1, op2
		c.SREG[S_T] = c.ReadRegister(d)&(1<<b) != 0
		return adv2(1)
	case opSbi:
		a, b := op1, op2
		addr := uint32(a) + IOBase
		v := c.ReadData(addr) | 1<<b
		c.WriteData(addr, v)
		return adv2(2)
	case opCbi:
		a, b := op1, op2
		addr := uint32(a) + IOBase
		v := c.ReadData(addr) &^ (1 << b)
		c.WriteData(addr, v)
		return adv2(2)
	case opSbis:
		a, b := op1, op2
		if c.ReadData(uint32(a)+IOBase)&(1<<b) != 0 {
			return c.skipNext(pc)
		}
		return adv2(1)
	case opSbic:
		a, b := op1, op2
		if c.ReadData(uint32(a)+IOBase)&(1<<b) == 0 {
			return c.skipNext(pc)
		}
		return adv2(1)
	case opSbrs:
		d, b := op1, op2
		if c.ReadRegister(d)&(1<<b) != 0 {
			return c.skipNext(pc)
		}
		return adv2(1)
	case opSbrc:
		d, b := op1, op2
		if c.ReadRegister(d)&(1<<b) == 0 {
			return c.skipNext(pc)
		}
		return adv2(1)
	case opBset:
		c.setSREGBit(op1, true)
		cy, _ := adv2(1)
		return cy, op1 == S_I
	case opBclr:
		c.setSREGBit(op1, false)
		cy, _ := adv2(1)
		return cy, op1 == S_I

	case opLd:
		return c.doLdSt(pc, op1, op2, op3, false)
	case opSt:
		return c.doLdSt(pc, op1, op2, op3, true)
	case opLdd:
		return c.doLddStd(pc, op1, op2, op3, false)
	case opStd:
		return c.doLddStd(pc, op1, op2, op3, true)
	case opLds:
		addr := uint32(op2) | uint32(op3)<<8
		c.WriteRegister(op1, c.ReadData(addr))
		return adv4(2)
	case opSts:
		addr := uint32(op2) | uint32(op3)<<8
		c.WriteData(addr, c.ReadRegister(op1))
		return adv4(2)
	case opLpm:
		return c.doLpm(pc, op1, op2 != 0, false)
	case opElpm:
		return c.doLpm(pc, op1, op2 != 0, true)
	case opPop:
		c.WriteRegister(op1, c.pop8())
		return adv2(2)
	case opPush:
		c.push8(c.ReadRegister(op1))
		return adv2(2)

	case opMov:
		c.WriteRegister(op1, c.ReadRegister(op2))
		return adv2(1)
	case opMovw:
		c.write16le(op1, c.read16le(op2))
		return adv2(1)
	case opLdi:
		c.WriteRegister(op1, op2)
		return adv2(1)
	case opIn:
		c.WriteRegister(op1, c.ReadData(uint32(op2)+IOBase))
		return adv2(1)
	case opOut:
		c.WriteData(uint32(op2)+IOBase, c.ReadRegister(op1))
		cy, _ := adv2(1)
		return cy, true // I/O write side effects zero the budget, spec §4.E

	case opAdiw:
		d, k := op1, op2
		rd := c.read16le(d)
		res := rd + uint16(k)
		c.write16le(d, res)
		c.SREG[S_C] = rd > 0xFFFF-uint16(k) // carry out of bit 15
		c.SREG[S_V] = (^rd&res)&0x8000 != 0
		c.flagsZNS16(res)
		return adv2(2)
	case opSbiw:
		d, k := op1, op2
		rd := c.read16le(d)
		res := rd - uint16(k)
		c.write16le(d, res)
		c.SREG[S_C] = rd < uint16(k)
		c.SREG[S_V] = (rd &^ res) & 0x8000 != 0
		c.flagsZNS16(res)
		return adv2(2)

	case opMul:
		rd, rr := c.ReadRegister(op1), c.ReadRegister(op2)
		res := uint16(rd) * uint16(rr)
		c.write16le(0, res)
		c.flagsMul(res, res&0x8000 != 0)
		return adv2(2)
	case opMuls:
		rd, rr := int8(c.ReadRegister(op1)), int8(c.ReadRegister(op2))
		res := uint16(int16(rd) * int16(rr))
		c.write16le(0, res)
		c.flagsMul(res, res&0x8000 != 0)
		return adv2(2)
	case opMulsu:
		rd, rr := int8(c.ReadRegister(op1)), c.ReadRegister(op2)
		res := uint16(int16(rd) * int16(rr))
		c.write16le(0, res)
		c.flagsMul(res, res&0x8000 != 0)
		return adv2(2)
	case opFmul:
		rd, rr := c.ReadRegister(op1), c.ReadRegister(op2)
		p := uint16(rd) * uint16(rr)
		carry := p&0x8000 != 0
		res := p << 1
		c.write16le(0, res)
		c.flagsMul(res, carry)
		return adv2(2)
	case opFmuls:
		rd, rr := int8(c.ReadRegister(op1)), int8(c.ReadRegister(op2))
		p := uint16(int16(rd) * int16(rr))
		carry := p&0x8000 != 0
		res := p << 1
		c.write16le(0, res)
		c.flagsMul(res, carry)
		return adv2(2)
	case opFmulsu:
		rd, rr := int8(c.ReadRegister(op1)), c.ReadRegister(op2)
		p := uint16(int16(rd) * int16(rr))
		carry := p&0x8000 != 0
		res := p << 1
		c.write16le(0, res)
		c.flagsMul(res, carry)
		return adv2(2)

	case opRjmp:
		off := int16(uint16(op1) | uint16(op2)<<8)
		return jump(uint32(int32(pc)+2+int32(off)*2), 2)
	case opRcall:
		off := int16(uint16(op1) | uint16(op2)<<8)
		c.push16be(uint16((pc + 2) >> 1))
		return jump(uint32(int32(pc)+2+int32(off)*2), 3)
	case opJmp:
		imm := opImm24Of(slot)
		return jump(imm, 3)
	case opCall:
		imm := opImm24Of(slot)
		c.push16be(uint16((pc + 4) >> 1))
		return jump(imm, 4)
	case opIjmp:
		return jump(uint32(c.read16le(30))<<1, 2)
	case opIcall:
		c.push16be(uint16((pc + 2) >> 1))
		return jump(uint32(c.read16le(30))<<1, 3)
	case opEijmp:
		return jump(c.wideZAddr(), 2)
	case opEicall:
		c.push16be(uint16((pc + 2) >> 1))
		return jump(c.wideZAddr(), 3)
	case opRet:
		target := uint32(c.pop16be()) << 1
		return jump(target, 4)
	case opReti:
		target := uint32(c.pop16be()) << 1
		c.setSREGBit(S_I, true)
		c.PC = target
		c.Cycle += 4
		return 4, true
	case opSleepOp:
		c.State = Sleeping
		cy, _ := adv2(1)
		return cy, true
	case opBreakOp:
		return adv2(1) // only meaningful with a debugger attached; no-op otherwise
	case opWdr:
		return adv2(1) // delegates to a watchdog peripheral, out of scope
	case opSpm:
		return adv2(1) // delegates to a flash-program peripheral, out of scope

	case opFuseAddAdc16:
		return c.execFuseAddAdc16(pc, op1, op2)
	case opFuseCpCpc16:
		return c.execFuseCpCpc16(pc, op1, op2)
	case opFuseCpiCpc16:
		return c.execFuseCpiCpc16(pc, op1, op2, op3)
	case opFuseLdi16:
		return c.execFuseLdi16(pc, op1, op2, op3)
	case opFuseLdiOut:
		return c.execFuseLdiOut(pc, op1, op2, op3)
	case opFuseAndiAndi16:
		return c.execFuseAndiAndi16(pc, op1, op2, op3)
	case opFuseSubiSbci16:
		return c.execFuseSubiSbci16(pc, op1, op2, op3)
	case opFuseLds16:
		return c.execFuseLds16(pc, slot)
	case opFuseSts16:
		return c.execFuseSts16(pc, slot)
	case opFuseLdd16:
		return c.execFuseLdd16(pc, op1, op2, op3)
	case opFuseStd16:
		return c.execFuseStd16(pc, op1, op2, op3)
	case opFuseLpm16:
		return c.execFuseLpm16(pc, op1)
	case opFuseLpmSt:
		return c.execFuseLpmSt(pc, op1, op2, op3)
	case opFusePop16:
		return c.execFusePop16(pc, op1, op2)
	case opFusePush16:
		return c.execFusePush16(pc, op1, op2)
	case opFuseLsrRor16:
		return c.execFuseLsrRor16(pc, op1)
	case opFuseLdsTst:
		return c.execFuseLdsTst(pc, op1, op2, op3)
	case opFuseInPush:
		return c.execFuseInPush(pc, op1, op2)
	case opFuseInSbrs:
		return c.execFuseInSbrs(pc, op1, op2, op3)
	case opFusePopOut:
		return c.execFusePopOut(pc, op1, op2)
	}

	c.crash(fmt.Sprintf("unreachable micro-op tag %d", tag))
	return 0, true
}

// branchTarget computes the absolute byte PC reached by a taken BRBS/BRBC,
// relative to the address *after* the 1-word branch instruction.
func branchTarget(pc uint32, offsetWords int8) uint32 {
	return uint32(int32(pc) + 2 + int32(offsetWords)*2)
}

// skipNext advances PC past the instruction following pc, charging an
// extra cycle if it is a 32-bit instruction (spec §4.C compare/skip
// family).
func (c *Core) skipNext(pc uint32) (int, bool) {
	next := pc + 2
	w := c.fetchWord(next)
	if is32BitWord(w) {
		c.PC = next + 4
		c.Cycle += 3
		return 3, false
	}
	c.PC = next + 2
	c.Cycle += 2
	return 2, false
}

// is32BitWord reports whether w is the first word of a 32-bit instruction
// (JMP/CALL/LDS/STS), needed by the skip-if family to charge the right
// cycle count and skip the right number of bytes.
func is32BitWord(w uint16) bool {
	if w&0xfe0e == 0x940c || w&0xfe0e == 0x940e { // JMP/CALL
		return true
	}
	if w&0xfe0f == 0x9000 || w&0xfe0f == 0x9200 { // LDS/STS
		return true
	}
	return false
}

func (c *Core) wideZAddr() uint32 {
	if !c.cfg.HasEIND() {
		c.crash(fmt.Sprintf("%v: EIJMP/EICALL without EIND", ErrMissingExtension))
		return c.PC
	}
	eind := c.ReadData(c.cfg.EINDAddr)
	return uint32(eind)<<17 | uint32(c.read16le(30))<<1
}

// doLdSt implements LD/ST Rd, {X,Y,Z}{,+,-}. ptr: 0=Z,2=Y,3=X (1 is the
// reserved/unencodable combination in real hardware). mode: 0=plain,
// 1=post-increment, 2=pre-decrement.
func (c *Core) doLdSt(pc uint32, d, ptr, mode uint8, store bool) (int, bool) {
	lo := ptrRegLo(ptr)
	if lo == 0 {
		c.crash(fmt.Sprintf("%v: reserved LD/ST pointer select", ErrInvalidOpcode))
		return 0, true
	}
	addr := c.read16le(lo)
	if mode == 2 {
		addr--
	}
	if store {
		c.WriteData(uint32(addr), c.ReadRegister(d))
	} else {
		v := c.ReadData(uint32(addr))
		c.WriteRegister(d, v)
	}
	if mode == 1 {
		addr++
	}
	if mode != 0 {
		c.write16le(lo, addr)
	}
	c.PC = pc + 2
	c.Cycle += 2
	return 2, false
}

func ptrRegLo(ptr uint8) uint8 {
	switch ptr {
	case 0:
		return 30 // Z
	case 2:
		return 28 // Y
	case 3:
		return 26 // X
	default:
		return 0
	}
}

// doLddStd implements LDD/STD Rd, Y/Z+q.
func (c *Core) doLddStd(pc uint32, d, q, useY uint8, store bool) (int, bool) {
	lo := uint8(30)
	if useY != 0 {
		lo = 28
	}
	addr := uint32(c.read16le(lo)) + uint32(q)
	if store {
		c.WriteData(addr, c.ReadRegister(d))
	} else {
		c.WriteRegister(d, c.ReadData(addr))
	}
	c.PC = pc + 2
	c.Cycle += 2
	return 2, false
}

// doLpm implements LPM/ELPM Rd, Z [+]. elpm combines RAMPZ with Z for the
// >64KiB program-memory address; postInc advances Z by 1 afterward.
func (c *Core) doLpm(pc uint32, d uint8, postInc bool, elpm bool) (int, bool) {
	addr := uint32(c.read16le(30))
	if elpm {
		if !c.cfg.HasRAMPZ() {
			c.crash(fmt.Sprintf("%v: ELPM without RAMPZ", ErrMissingExtension))
			return 0, true
		}
		addr |= uint32(c.ReadData(c.cfg.RAMPZAddr)) << 16
	}
	c.WriteRegister(d, c.Flash[addr])
	if postInc {
		c.write16le(30, uint16(addr+1))
	}
	c.PC = pc + 2
	c.Cycle += 3
	return 3, false
}
