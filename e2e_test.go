package avr

import "testing"

// TestScenarioRegisterImmediateAdd is spec §8 scenario 1.
func TestScenarioRegisterImmediateAdd(t *testing.T) {
	r := newCoreTestRig()
	r.load(0, []uint16{
		0xE70F, // LDI R16, 0x7F
		0xE011, // LDI R17, 0x01
		0x0F01, // ADD R16, R17  (0000 11rd dddd rrrr, d=16,r=17)
	})
	r.step() // LDI R16/LDI R17 fuse into one step (opFuseLdi16)
	r.step() // ADD R16, R17

	requireEqualU8(t, "R16", r.c.ReadRegister(16), 0x80)
	requireFlag(t, r.c, "H", S_H, true)
	requireFlag(t, r.c, "N", S_N, true)
	requireFlag(t, r.c, "V", S_V, true)
	requireFlag(t, r.c, "S", S_S, false)
	requireFlag(t, r.c, "Z", S_Z, false)
	requireFlag(t, r.c, "C", S_C, false)
}

// TestScenarioWideFusedSubtract is spec §8 scenario 2.
func TestScenarioWideFusedSubtract(t *testing.T) {
	r := newCoreTestRig()
	r.load(0, []uint16{
		0xE080, // LDI R24, 0x00
		0xE890, // LDI R25, 0x80
		0x5081, // SUBI R24, 0x01
		0x4090, // SBCI R25, 0x00
	})
	r.step() // LDI R24 (fused with next LDI, see fusion_test.go)
	r.step() // SUBI/SBCI fused pair
	requireEqualU16(t, "R25:R24", r.c.read16le(24), 0x7FFF)
	requireFlag(t, r.c, "C", S_C, false)
	requireFlag(t, r.c, "N", S_N, false)
	requireFlag(t, r.c, "V", S_V, true)
	requireFlag(t, r.c, "Z", S_Z, false)
}

// TestScenarioSkipIfBit is spec §8 scenario 3.
func TestScenarioSkipIfBit(t *testing.T) {
	r := newCoreTestRig()
	r.load(0, []uint16{
		0xE002, // LDI R16, 0x02
		0xFF01, // SBRS R16, 1
		0xEA1A, // LDI R17, 0xAA (skipped)
		0xEB2B, // LDI R18, 0xBB
	})
	startCycle := r.c.Cycle
	r.step() // LDI R16
	cycleBeforeSBRS := r.c.Cycle
	r.step() // SBRS, taken (bit 1 of 0x02 is set)
	sbrsCycles := r.c.Cycle - cycleBeforeSBRS
	r.step() // LDI R18

	requireEqualU8(t, "R17", r.c.ReadRegister(17), 0x00)
	requireEqualU8(t, "R18", r.c.ReadRegister(18), 0xBB)
	if sbrsCycles != 2 {
		t.Fatalf("SBRS-taken cost = %d cycles, want 2", sbrsCycles)
	}
	_ = startCycle
}

// TestScenarioCallReturnStackLayout is spec §8 scenario 4. The spec's prose
// gives 0x52 for the pushed low byte of the return address; 0x0104>>1 is
// arithmetically 0x82, and 0x52 does not satisfy any consistent reading of
// the stack-layout description, so this test (and the push16be byte-order
// implementation it exercises) follows the arithmetic rather than the
// apparent transcription slip (see DESIGN.md Open Questions).
func TestScenarioCallReturnStackLayout(t *testing.T) {
	r := newCoreTestRig()
	flash := make([]byte, 0x0400)
	// CALL 0x0200 at byte 0x0100 (second word 0x0100 = target word address).
	callWord := fieldX22Encode(0x0200)
	flash[0x0100] = uint8(0x940e & 0xFF)
	flash[0x0101] = uint8(0x940e >> 8)
	flash[0x0102] = uint8(callWord)
	flash[0x0103] = uint8(callWord >> 8)
	flash[0x0104] = 0x00 // NOP
	flash[0x0105] = 0x00
	flash[0x0200] = 0x08 // RET = 0x9508
	flash[0x0201] = 0x95
	r.c.LoadProgram(flash, nil)
	r.c.spSet(uint16(r.c.cfg.RAMEnd))
	r.c.PC = 0x0100

	sp0 := r.c.spGet()
	requireEqualU16(t, "SP before CALL", sp0, 0x08FF)

	r.step() // CALL
	requireEqualU8(t, "data[0x08FF]", r.c.Data[0x08FF], 0x00)
	requireEqualU8(t, "data[0x08FE]", r.c.Data[0x08FE], 0x82)
	requireEqualU16(t, "SP after CALL", r.c.spGet(), 0x08FD)
	requireEqualU32(t, "PC after CALL", r.c.PC, 0x0200)

	r.step() // RET
	requireEqualU16(t, "SP after RET", r.c.spGet(), 0x08FF)
	requireEqualU32(t, "PC after RET", r.c.PC, 0x0104)
}

// fieldX22Encode is the test-side inverse of fieldX22: given a byte
// address, returns the second program word CALL/JMP expects (the first
// word's bits 8:4/0 carry the high bits, which are zero for this address).
func fieldX22Encode(byteAddr uint32) uint16 {
	return uint16(byteAddr >> 1)
}

// TestScenarioInterruptLatch is spec §8 scenario 5.
func TestScenarioInterruptLatch(t *testing.T) {
	r := newCoreTestRig()
	r.load(0, []uint16{0x0000}) // filler; PC forced below
	r.c.PC = 0x0040
	r.c.SREG[S_I] = true
	r.c.spSet(uint16(r.c.cfg.RAMEnd))

	// Raise itself performs the spec's arm check (I set, state idle ->
	// armed); no need to poke InterruptState directly.
	v := r.c.RegisterVector(2, testConfig())
	r.c.Raise(v)

	cy, taken := r.c.serviceInterrupts()
	if !taken {
		t.Fatalf("expected interrupt to be taken")
	}
	_ = cy
	requireEqualU32(t, "PC at vector", r.c.PC, uint32(2)*testConfig().VectorSize)
	requireFlag(t, r.c, "I", S_I, false)
	requireEqualU16(t, "top of stack", uint16(r.c.Data[r.c.spGet()+1])|uint16(r.c.Data[r.c.spGet()+2])<<8, 0x0040>>1)

	// RETI restores.
	flash := make([]byte, r.c.PC+2)
	flash[r.c.PC] = 0x18
	flash[r.c.PC+1] = 0x95 // RETI = 0x9518
	r.c.LoadProgram(flash, nil)
	r.step()
	requireFlag(t, r.c, "I", S_I, true)
	requireEqualU32(t, "PC after RETI", r.c.PC, 0x0040)
}

// TestScenarioCycleTimerPreemptsBurst is spec §8 scenario 6.
func TestScenarioCycleTimerPreemptsBurst(t *testing.T) {
	r := newCoreTestRig()
	nops := make([]uint16, 200)
	r.load(0, nops)

	fired := 0
	var observedAt uint64
	r.c.ScheduleTimer(50, func(c *Core, _ uint32) {
		fired++
		observedAt = c.Cycle
	}, 0)

	r.c.RunMany(100)

	if fired != 1 {
		t.Fatalf("timer fired %d times, want exactly 1", fired)
	}
	if observedAt < 50 {
		t.Fatalf("timer observed cycle=%d, want >= 50", observedAt)
	}
}
