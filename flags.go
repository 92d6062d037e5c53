package avr

// Canonical status-flag arithmetic, spec §4.H. Bit-exact translation of
// original_source/simavr/sim/sim_core.c's _avr_flags_* family
// (_avr_flags_add_zns, _avr_flags_sub_zns, _avr_flags_Rzns, _avr_flags_zcnvs)
// into the xvec/ovec/rxor formulation spec.md gives in prose.

// flagsZNS sets Z/N/S from an 8-bit result, leaving H/C/V untouched.
func (c *Core) flagsZNS(res uint8) {
	c.SREG[S_Z] = res == 0
	c.SREG[S_N] = res&0x80 != 0
	c.SREG[S_S] = c.SREG[S_N] != c.SREG[S_V]
}

func (c *Core) flagsZNS16(res uint16) {
	c.SREG[S_Z] = res == 0
	c.SREG[S_N] = res&0x8000 != 0
	c.SREG[S_S] = c.SREG[S_N] != c.SREG[S_V]
}

// flagsAdd sets H/C/V/Z/N/S after res = rd + rr (+ carry already folded
// into rr/res by the caller for ADC).
func (c *Core) flagsAdd(res, rd, rr uint8) {
	xvec := rd ^ rr
	ovec := (rr ^ res) &^ xvec
	rxor := xvec ^ ovec ^ res
	c.SREG[S_H] = rxor&0x08 != 0
	c.SREG[S_C] = rxor&0x80 != 0
	c.SREG[S_V] = ovec&0x80 != 0
	c.flagsZNS(res)
}

// flagsAdd16 is the widened ADIW-style variant: H has no 16-bit meaning so
// it is left alone; C/V come from bit 15.
func (c *Core) flagsAdd16(res, rd, rr uint16) {
	xvec := rd ^ rr
	ovec := (rr ^ res) &^ xvec
	rxor := xvec ^ ovec ^ res
	c.SREG[S_C] = rxor&0x8000 != 0
	c.SREG[S_V] = ovec&0x8000 != 0
	c.flagsZNS16(res)
}

// flagsSub sets H/C/V/Z/N/S after res = rd - rr.
func (c *Core) flagsSub(res, rd, rr uint8) {
	xvec := rd ^ rr
	ovec := (rd ^ res) & xvec
	rxor := xvec ^ ovec ^ res
	c.SREG[S_H] = rxor&0x08 != 0
	c.SREG[S_C] = rxor&0x80 != 0
	c.SREG[S_V] = ovec&0x80 != 0
	c.flagsZNS(res)
}

// flagsSubRzns is the CPC/SBC variant: Z is only ever cleared by a
// nonzero result, never set, so a chain of widening compares/subtracts
// composes correctly (spec §4.H "Subtract-Rzns").
func (c *Core) flagsSubRzns(res, rd, rr uint8) {
	xvec := rd ^ rr
	ovec := (rd ^ res) & xvec
	rxor := xvec ^ ovec ^ res
	c.SREG[S_H] = rxor&0x08 != 0
	c.SREG[S_C] = rxor&0x80 != 0
	c.SREG[S_V] = ovec&0x80 != 0
	if res != 0 {
		c.SREG[S_Z] = false
	}
	c.SREG[S_N] = res&0x80 != 0
	c.SREG[S_S] = c.SREG[S_N] != c.SREG[S_V]
}

// flagsSub16 is the SBIW widened variant.
func (c *Core) flagsSub16(res, rd, rr uint16) {
	xvec := rd ^ rr
	ovec := (rd ^ res) & xvec
	rxor := xvec ^ ovec ^ res
	c.SREG[S_C] = rxor&0x8000 != 0
	c.SREG[S_V] = ovec&0x8000 != 0
	c.flagsZNS16(res)
}

// flagsLogical sets V=0, then Z/N/S from result (AND/OR/EOR/COM family;
// COM additionally forces C=1 at the call site).
func (c *Core) flagsLogical(res uint8) {
	c.SREG[S_V] = false
	c.flagsZNS(res)
}

// flagsShiftRight implements the LSR/ASR/ROR family: C = old LSB, N is
// supplied by the caller (0 for LSR, sign-preserving for ASR, old-C for
// ROR), V = N xor C, S = N xor V, Z from result.
func (c *Core) flagsShiftRight(res, oldVal uint8, newN bool) {
	c.SREG[S_C] = oldVal&0x01 != 0
	c.SREG[S_N] = newN
	c.SREG[S_V] = c.SREG[S_N] != c.SREG[S_C]
	c.SREG[S_S] = c.SREG[S_N] != c.SREG[S_V]
	c.SREG[S_Z] = res == 0
}

// flagsMul sets C from bit 15 of the (possibly pre-shifted, for fractional
// variants) product and Z from the full 16-bit result.
func (c *Core) flagsMul(res uint16, carryBit15 bool) {
	c.SREG[S_C] = carryBit15
	c.SREG[S_Z] = res == 0
}
