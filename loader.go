package avr

// LoadProgram is the core's entire interface toward an outer firmware
// loader (out of scope for this module per spec §1): install a flash
// image and an optional symbol table, used only for trace output (§6).
// No ELF/IHEX container parsing lives here -- original_source's board
// harnesses (FIGsimavr.c) do that parsing themselves and hand the core a
// flat byte slice plus ramend/flashend via Config, which is exactly the
// split this function preserves.
func (c *Core) LoadProgram(flash []byte, symbols map[uint32]string) {
	n := copy(c.Flash, flash)
	for i := n; i < len(c.Flash); i++ {
		c.Flash[i] = 0
	}
	for i := range c.UFlash {
		c.UFlash[i] = 0
	}
	c.symbols = symbols
}
