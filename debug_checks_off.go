//go:build !avrdebug

package avr

func debugCheckRegister(n uint8) {}
