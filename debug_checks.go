//go:build avrdebug

package avr

import "github.com/avrsim/avrcore/internal/avrlog"

// debugCheckRegister range-checks general-register indices. Compiled in
// only under the avrdebug build tag (spec DESIGN NOTES: "expose typed
// register accessors that range-check in debug builds").
func debugCheckRegister(n uint8) {
	if n >= RegFileSize {
		avrlog.Warnf("register index %d out of range 0..31", n)
	}
}
