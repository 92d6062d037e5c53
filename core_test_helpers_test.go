package avr

import "testing"

// testConfig is a small, typical classic-AVR memory map: 2KiB SRAM,
// 16KiB flash, 4-byte vectors, no RAMPZ/EIND (AddressSize 2).
func testConfig() Config {
	return Config{
		RAMEnd:     SRAMBase + 2047,
		FlashEnd:   0x3FFF,
		VectorSize: 4,
		AddressSize: 2,
	}
}

type coreTestRig struct {
	c *Core
}

func newCoreTestRig() *coreTestRig {
	return &coreTestRig{c: New(testConfig())}
}

// load resets the rig and installs program starting at byte address
// origin, then points PC at it.
func (r *coreTestRig) load(origin uint32, program []uint16) {
	r.c.Reset()
	flash := make([]byte, len(program)*2)
	for i, w := range program {
		flash[i*2] = uint8(w)
		flash[i*2+1] = uint8(w >> 8)
	}
	full := make([]byte, origin+uint32(len(flash)))
	copy(full[origin:], flash)
	r.c.LoadProgram(full, nil)
	r.c.PC = origin
}

// step runs exactly one instruction (or fused pair) from the current PC.
func (r *coreTestRig) step() {
	r.c.Step()
	if r.c.State == StepDone {
		r.c.State = Running
	}
}

func requireEqualU8(t *testing.T, name string, got, want uint8) {
	t.Helper()
	if got != want {
		t.Fatalf("%s = 0x%02X, want 0x%02X", name, got, want)
	}
}

func requireEqualU16(t *testing.T, name string, got, want uint16) {
	t.Helper()
	if got != want {
		t.Fatalf("%s = 0x%04X, want 0x%04X", name, got, want)
	}
}

func requireEqualU32(t *testing.T, name string, got, want uint32) {
	t.Helper()
	if got != want {
		t.Fatalf("%s = 0x%06X, want 0x%06X", name, got, want)
	}
}

func requireFlag(t *testing.T, c *Core, name string, bit int, want bool) {
	t.Helper()
	if c.SREG[bit] != want {
		t.Fatalf("SREG[%s] = %v, want %v", name, c.SREG[bit], want)
	}
}
