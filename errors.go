package avr

import "errors"

// Sentinel errors for the crash conditions in spec §7. Call sites format
// the sentinel's message with per-call context (address, opcode word)
// using fmt.Sprintf("%v: ...") and pass the text to Core.crash, which logs
// it with PC/SP/cycle; the sentinels are not returned or wrapped as error
// values.
var (
	ErrInvalidOpcode    = errors.New("avr: invalid opcode")
	ErrRAMOverrun       = errors.New("avr: access past end of ram")
	ErrStackUnderflow   = errors.New("avr: stack pointer below io space")
	ErrMissingExtension = errors.New("avr: missing extension register")
)
