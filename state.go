package avr

import (
	"fmt"

	"github.com/avrsim/avrcore/internal/avrlog"
)

// Core is the single owned aggregate backing one simulated MCU instance
// (spec §3). Nothing outside this package mutates it directly; peripherals
// interact through the MMIODevice/Vector/cycle-timer surfaces in
// peripheral.go.
type Core struct {
	cfg Config

	PC    uint32
	Cycle uint64

	Data  []byte // 0..RAMEnd: registers, I/O space, SRAM
	SREG  [8]bool
	Flash []byte

	// UFlash is the micro-op translation cache, one 32-bit word per flash
	// byte address (only even addresses are ever populated). Every fused
	// shape in fusion.go fits its operands in the packed word's three
	// 8-bit slots, so no separate wide-immediate side table is needed.
	UFlash []uint32

	State          RunState
	InterruptState int
	IShadow        bool

	Interrupts  InterruptTable
	CycleTimers TimerQueue

	io ioTable

	symbols map[uint32]string
}

// New constructs a Core for the given MCU variant and resets it.
func New(cfg Config) *Core {
	c := &Core{cfg: cfg}
	c.Data = make([]byte, cfg.RAMEnd+1)
	c.Flash = make([]byte, cfg.FlashEnd+1)
	c.UFlash = make([]uint32, cfg.FlashEnd+1)
	c.io = newIOTable()
	c.Interrupts = newInterruptTable()
	c.CycleTimers = newTimerQueue()
	c.Reset()
	return c
}

// Reset returns the core to its post-power-on state: PC=0, cycle=0, zeroed
// registers/RAM, I=0, translation cache wiped. Flash and peripheral
// registrations survive a reset (spec §3 Lifecycle).
func (c *Core) Reset() {
	c.PC = 0
	c.Cycle = 0
	for i := range c.Data {
		c.Data[i] = 0
	}
	for i := range c.SREG {
		c.SREG[i] = false
	}
	for i := range c.UFlash {
		c.UFlash[i] = 0
	}
	c.State = Running
	c.InterruptState = 0
	c.IShadow = false
	c.Interrupts.pending = 0
	c.CycleTimers.Reset()
}

func (c *Core) symbolAt(pc uint32) string {
	if c.symbols == nil {
		return ""
	}
	if s, ok := c.symbols[pc]; ok {
		return s
	}
	return ""
}

// ReadRegister reads general register Rn (n in 0..31).
func (c *Core) ReadRegister(n uint8) uint8 {
	debugCheckRegister(n)
	return c.Data[n]
}

// WriteRegister writes general register Rn.
func (c *Core) WriteRegister(n uint8, v uint8) {
	debugCheckRegister(n)
	c.Data[n] = v
}

// read16le/write16le read and write a register pair as a little-endian
// 16-bit value (used by MOVW and by the wide ALU helpers).
func (c *Core) read16le(lo uint8) uint16 {
	return uint16(c.Data[lo]) | uint16(c.Data[lo+1])<<8
}

func (c *Core) write16le(lo uint8, v uint16) {
	c.Data[lo] = uint8(v)
	c.Data[lo+1] = uint8(v >> 8)
}

// spGet/spSet expose the stack pointer as a little-endian pair over
// R_SPL/R_SPH (spec §4.A).
func (c *Core) spGet() uint16 {
	return uint16(c.Data[R_SPL]) | uint16(c.Data[R_SPH])<<8
}

func (c *Core) spSet(v uint16) {
	c.Data[R_SPL] = uint8(v)
	c.Data[R_SPH] = uint8(v >> 8)
}

func (c *Core) crash(reason string) {
	c.State = Crashed
	avrlog.Errorf("%s at pc=%#04x sp=%#04x cycle=%d", reason, c.PC, c.spGet(), c.Cycle)
}

// push8/pop8 push and pop a single byte, SP decrementing downward.
func (c *Core) push8(v uint8) {
	sp := c.spGet()
	if sp < SRAMBase {
		c.crash(fmt.Sprintf("%v: stack underflow pushing byte", ErrStackUnderflow))
		return
	}
	c.Data[sp] = v
	c.spSet(sp - 1)
}

func (c *Core) pop8() uint8 {
	sp := c.spGet() + 1
	c.spSet(sp)
	return c.Data[sp]
}

// push16be/pop16be push/pop a 16-bit value as two bytes, high byte first
// (used for the return address on CALL/interrupt entry, per AVR ABI): the
// high byte lands at the higher stack address and is popped last.
func (c *Core) push16be(v uint16) {
	c.push8(uint8(v >> 8))
	c.push8(uint8(v))
}

func (c *Core) pop16be() uint16 {
	lo := c.pop8()
	hi := c.pop8()
	return uint16(lo) | uint16(hi)<<8
}

// push16le/pop16le push/pop a 16-bit value with the low byte pushed first
// and the high byte pushed last (on top of the stack); pop16le pops the
// high byte first. The fused PUSH/PUSH and POP/POP micro-ops do not use
// them: they replay push8/pop8 in instruction order.
func (c *Core) push16le(v uint16) {
	c.push8(uint8(v))
	c.push8(uint8(v >> 8))
}

func (c *Core) pop16le() uint16 {
	hi := c.pop8()
	lo := c.pop8()
	return uint16(lo) | uint16(hi)<<8
}
