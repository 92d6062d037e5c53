package avr

// tryFuse is the opportunistic two-instruction collapse of spec §4.D: given
// the already-decoded instruction at pc, peek at the instruction immediately
// following it and, if the pair matches one of the known fusable shapes,
// pack both into a single micro-op occupying UFlash[pc] alone (UFlash[pc+2]
// is left untranslated; the fast loop never visits it because the fused
// micro-op advances PC by 4).
//
// Fusion is advisory: on anything but an exact pattern match, tryFuse
// returns ok=false and the caller falls back to translating d on its own.
// It never fuses across a 32-bit first instruction (d.words != 1), since
// the fast-core savings come from from collapsing two *cheap* one-word
// instructions into one cache slot.
func (c *Core) tryFuse(pc uint32, d decoded) (uint32, bool) {
	if d.words != 1 {
		return 0, false
	}
	w2 := c.fetchWord(pc + 2)
	d2, ok := c.decodeWord(pc+2, w2)
	if !ok || d2.words != 1 {
		return 0, false
	}

	switch {
	case d.tag == opAdd && d2.tag == opAdc && d2.op1 == d.op1+1 && d2.op2 == d.op2+1:
		return packOp3(opFuseAddAdc16, d.op1, d.op2, 0), true

	case d.tag == opCp && d2.tag == opCpc && d2.op1 == d.op1+1 && d2.op2 == d.op2+1:
		return packOp3(opFuseCpCpc16, d.op1, d.op2, 0), true

	case d.tag == opCpi && d2.tag == opCpc && d2.op1 == d.op1+1:
		// CPI Rh,K ; CPC Rh+1,Rr2 -- 16-bit compare of Rh:Rh+1 against an
		// 8-bit-extended immediate (gcc typically uses the zero register
		// for Rr2, but any register is accepted; its value is read live).
		return packOp3(opFuseCpiCpc16, d.op1, d.op2, d2.op2), true

	case d.tag == opLdi && d2.tag == opLdi && d2.op1 == d.op1+1:
		return packOp3(opFuseLdi16, d.op1, d.op2, d2.op2), true

	case d.tag == opLdi && d2.tag == opOut && d2.op1 == d.op1:
		return packOp3(opFuseLdiOut, d.op1, d.op2, d2.op2), true

	case d.tag == opAndi && d2.tag == opAndi && d2.op1 == d.op1+1:
		return packOp3(opFuseAndiAndi16, d.op1, d.op2, d2.op2), true

	case d.tag == opSubi && d2.tag == opSbci && d2.op1 == d.op1+1:
		return packOp3(opFuseSubiSbci16, d.op1, d.op2, d2.op2), true

	case d.tag == opLds && d2.tag == opLds && d2.op1 == d.op1+1:
		addr := uint16(d.op2) | uint16(d.op3)<<8
		addr2 := uint16(d2.op2) | uint16(d2.op3)<<8
		if addr2 == addr+1 {
			return packOp3(opFuseLds16, d.op1, uint8(addr), uint8(addr>>8)), true
		}

	case d.tag == opSts && d2.tag == opSts && d2.op1 == d.op1+1:
		addr := uint16(d.op2) | uint16(d.op3)<<8
		addr2 := uint16(d2.op2) | uint16(d2.op3)<<8
		if addr2 == addr+1 {
			return packOp3(opFuseSts16, d.op1, uint8(addr), uint8(addr>>8)), true
		}

	case d.tag == opLdd && d2.tag == opLdd && d2.op1 == d.op1+1 &&
		d2.op2 == d.op2+1 && d2.op3 == d.op3:
		return packOp3(opFuseLdd16, d.op1, d.op2, d.op3), true

	case d.tag == opStd && d2.tag == opStd && d2.op1 == d.op1+1 &&
		d2.op2 == d.op2+1 && d2.op3 == d.op3:
		return packOp3(opFuseStd16, d.op1, d.op2, d.op3), true

	case d.tag == opLpm && d.op2 == 1 && d2.tag == opLpm && d2.op2 == 1 &&
		d2.op1 == d.op1+1:
		return packOp3(opFuseLpm16, d.op1, 0, 0), true

	case d.tag == opLpm && d.op2 == 1 && d2.tag == opSt &&
		d2.op2 == 3 && d2.op3 == 1 && d2.op1 == d.op1:
		// LPM Rd,Z+ ; ST X+,Rd -- copies one program byte into RAM.
		return packOp3(opFuseLpmSt, d.op1, 0, 0), true

	case d.tag == opPop && d2.tag == opPop:
		return packOp3(opFusePop16, d.op1, d2.op1, 0), true

	case d.tag == opPush && d2.tag == opPush:
		return packOp3(opFusePush16, d.op1, d2.op1, 0), true

	case d.tag == opLsr && d2.tag == opRor && d2.op1 == d.op1-1:
		return packOp3(opFuseLsrRor16, d2.op1, 0, 0), true

	case d.tag == opLds && d2.tag == opAndOp && d2.op1 == d.op1 && d2.op2 == d.op1:
		// LDS Rd,addr ; TST Rd (TST is the assembler alias for AND Rd,Rd).
		return packOp3(opFuseLdsTst, d.op1, d.op2, d.op3), true

	case d.tag == opIn && d2.tag == opPush && d2.op1 == d.op1:
		return packOp3(opFuseInPush, d.op1, d.op2, 0), true

	case d.tag == opIn && d2.tag == opSbrs && d2.op1 == d.op1:
		return packOp3(opFuseInSbrs, d.op1, d.op2, d2.op2), true

	case d.tag == opPop && d2.tag == opOut && d2.op1 == d.op1:
		return packOp3(opFusePopOut, d.op1, d2.op2, 0), true
	}

	return 0, false
}

// The exec* helpers below replay exactly the two unfused instructions'
// semantics in sequence -- same register deltas, same flag updates, summed
// cycle cost -- so a fused slot is observationally identical to having
// executed both instructions unfused (spec §8's round-trip invariant).
// Only PC advances by 4 in one step instead of two steps of 2.

func (c *Core) execFuseAddAdc16(pc uint32, d, r uint8) (int, bool) {
	rdLo, rrLo := c.ReadRegister(d), c.ReadRegister(r)
	resLo := rdLo + rrLo
	c.WriteRegister(d, resLo)
	c.flagsAdd(resLo, rdLo, rrLo)

	carry := uint8(0)
	if c.SREG[S_C] {
		carry = 1
	}
	rdHi, rrHi := c.ReadRegister(d+1), c.ReadRegister(r+1)
	resHi := rdHi + rrHi + carry
	c.WriteRegister(d+1, resHi)
	c.flagsAdd(resHi, rdHi, rrHi)

	c.PC = pc + 4
	c.Cycle += 2
	return 2, false
}

func (c *Core) execFuseCpCpc16(pc uint32, d, r uint8) (int, bool) {
	rdLo, rrLo := c.ReadRegister(d), c.ReadRegister(r)
	c.flagsSub(rdLo-rrLo, rdLo, rrLo)

	carry := uint8(0)
	if c.SREG[S_C] {
		carry = 1
	}
	rdHi, rrHi := c.ReadRegister(d+1), c.ReadRegister(r+1)
	c.flagsSubRzns(rdHi-rrHi-carry, rdHi, rrHi)

	c.PC = pc + 4
	c.Cycle += 2
	return 2, false
}

func (c *Core) execFuseCpiCpc16(pc uint32, h, k, rr2reg uint8) (int, bool) {
	rd := c.ReadRegister(h)
	c.flagsSub(rd-k, rd, k)

	carry := uint8(0)
	if c.SREG[S_C] {
		carry = 1
	}
	rdHi, rr2 := c.ReadRegister(h+1), c.ReadRegister(rr2reg)
	c.flagsSubRzns(rdHi-rr2-carry, rdHi, rr2)

	c.PC = pc + 4
	c.Cycle += 2
	return 2, false
}

func (c *Core) execFuseLdi16(pc uint32, h, k1, k2 uint8) (int, bool) {
	c.WriteRegister(h, k1)
	c.WriteRegister(h+1, k2)
	c.PC = pc + 4
	c.Cycle += 2
	return 2, false
}

func (c *Core) execFuseLdiOut(pc uint32, h, k, ioAddr uint8) (int, bool) {
	c.WriteRegister(h, k)
	c.WriteData(uint32(ioAddr)+IOBase, k)
	c.PC = pc + 4
	c.Cycle += 2
	return 2, true // OUT's I/O write still zeroes the budget
}

func (c *Core) execFuseAndiAndi16(pc uint32, h, k1, k2 uint8) (int, bool) {
	res1 := c.ReadRegister(h) & k1
	c.WriteRegister(h, res1)
	c.flagsLogical(res1)
	res2 := c.ReadRegister(h+1) & k2
	c.WriteRegister(h+1, res2)
	c.flagsLogical(res2)
	c.PC = pc + 4
	c.Cycle += 2
	return 2, false
}

func (c *Core) execFuseSubiSbci16(pc uint32, h, k1, k2 uint8) (int, bool) {
	rd := c.ReadRegister(h)
	res := rd - k1
	c.WriteRegister(h, res)
	c.flagsSub(res, rd, k1)

	carry := uint8(0)
	if c.SREG[S_C] {
		carry = 1
	}
	rdHi := c.ReadRegister(h + 1)
	resHi := rdHi - k2 - carry
	c.WriteRegister(h+1, resHi)
	c.flagsSubRzns(resHi, rdHi, k2)

	c.PC = pc + 4
	c.Cycle += 2
	return 2, false
}

func (c *Core) execFuseLds16(pc uint32, slot uint32) (int, bool) {
	d := op1Of(slot)
	addr := uint32(op2Of(slot)) | uint32(op3Of(slot))<<8
	c.WriteRegister(d, c.ReadData(addr))
	c.WriteRegister(d+1, c.ReadData(addr+1))
	c.PC = pc + 4
	c.Cycle += 4
	return 4, false
}

func (c *Core) execFuseSts16(pc uint32, slot uint32) (int, bool) {
	d := op1Of(slot)
	addr := uint32(op2Of(slot)) | uint32(op3Of(slot))<<8
	c.WriteData(addr, c.ReadRegister(d))
	c.WriteData(addr+1, c.ReadRegister(d+1))
	c.PC = pc + 4
	c.Cycle += 4
	return 4, true // both are SRAM/IO writes; treat as a side-effecting burst
}

func (c *Core) execFuseLdd16(pc uint32, d, q, useY uint8) (int, bool) {
	lo := uint8(30)
	if useY != 0 {
		lo = 28
	}
	base := uint32(c.read16le(lo)) + uint32(q)
	c.WriteRegister(d, c.ReadData(base))
	c.WriteRegister(d+1, c.ReadData(base+1))
	c.PC = pc + 4
	c.Cycle += 4
	return 4, false
}

func (c *Core) execFuseStd16(pc uint32, d, q, useY uint8) (int, bool) {
	lo := uint8(30)
	if useY != 0 {
		lo = 28
	}
	base := uint32(c.read16le(lo)) + uint32(q)
	c.WriteData(base, c.ReadRegister(d))
	c.WriteData(base+1, c.ReadRegister(d+1))
	c.PC = pc + 4
	c.Cycle += 4
	return 4, false
}

func (c *Core) execFuseLpm16(pc uint32, d uint8) (int, bool) {
	addr := uint32(c.read16le(30))
	c.WriteRegister(d, c.Flash[addr])
	c.WriteRegister(d+1, c.Flash[addr+1])
	c.write16le(30, uint16(addr+2))
	c.PC = pc + 4
	c.Cycle += 6
	return 6, false
}

func (c *Core) execFuseLpmSt(pc uint32, d, _, _ uint8) (int, bool) {
	zAddr := uint32(c.read16le(30))
	v := c.Flash[zAddr]
	c.WriteRegister(d, v)
	c.write16le(30, uint16(zAddr+1))
	xAddr := c.read16le(26)
	c.WriteData(uint32(xAddr), v)
	c.write16le(26, xAddr+1)
	c.PC = pc + 4
	c.Cycle += 5
	return 5, false
}

func (c *Core) execFusePop16(pc uint32, d1, d2 uint8) (int, bool) {
	c.WriteRegister(d1, c.pop8())
	c.WriteRegister(d2, c.pop8())
	c.PC = pc + 4
	c.Cycle += 4
	return 4, false
}

func (c *Core) execFusePush16(pc uint32, d1, d2 uint8) (int, bool) {
	c.push8(c.ReadRegister(d1))
	c.push8(c.ReadRegister(d2))
	c.PC = pc + 4
	c.Cycle += 4
	return 4, false
}

func (c *Core) execFuseLsrRor16(pc uint32, lo uint8) (int, bool) {
	hi := c.ReadRegister(lo + 1)
	newHi := hi >> 1
	c.WriteRegister(lo+1, newHi)
	c.flagsShiftRight(newHi, hi, false)

	oldC := c.SREG[S_C]
	carryBit := uint8(0)
	if oldC {
		carryBit = 0x80
	}
	old := c.ReadRegister(lo)
	newLo := (old >> 1) | carryBit
	c.WriteRegister(lo, newLo)
	c.flagsShiftRight(newLo, old, oldC)

	c.PC = pc + 4
	c.Cycle += 2
	return 2, false
}

func (c *Core) execFuseLdsTst(pc uint32, d, addrLo, addrHi uint8) (int, bool) {
	addr := uint32(addrLo) | uint32(addrHi)<<8
	v := c.ReadData(addr)
	c.WriteRegister(d, v)
	c.flagsLogical(v)
	c.PC = pc + 4
	c.Cycle += 3
	return 3, false
}

func (c *Core) execFuseInPush(pc uint32, d, ioAddr uint8) (int, bool) {
	v := c.ReadData(uint32(ioAddr) + IOBase)
	c.WriteRegister(d, v)
	c.push8(v)
	c.PC = pc + 4
	c.Cycle += 3
	return 3, false
}

func (c *Core) execFuseInSbrs(pc uint32, d, ioAddr, bit uint8) (int, bool) {
	v := c.ReadData(uint32(ioAddr) + IOBase)
	c.WriteRegister(d, v)
	if v&(1<<bit) == 0 {
		c.PC = pc + 4
		c.Cycle += 2
		return 2, false
	}
	next := pc + 4
	w2 := c.fetchWord(next)
	skipWidth, skipCycles := uint32(2), 2
	if is32BitWord(w2) {
		skipWidth, skipCycles = 4, 3
	}
	c.PC = next + skipWidth
	total := 1 + skipCycles
	c.Cycle += uint64(total)
	return total, false
}

func (c *Core) execFusePopOut(pc uint32, d, ioAddr uint8) (int, bool) {
	v := c.pop8()
	c.WriteRegister(d, v)
	c.WriteData(uint32(ioAddr)+IOBase, v)
	c.PC = pc + 4
	c.Cycle += 4
	return 4, true
}
