// Package avrlog is the core's thin logging indirection.
//
// simavr's AVR_LOG macro is a printf wrapper with a severity tag; the
// teacher repo follows the same shape with plain log.Printf calls rather
// than a structured logging library. This package keeps that idiom while
// letting the embedding driver redirect or silence output.
package avrlog

import (
	"io"
	"log"
	"os"
)

var std = log.New(os.Stderr, "", log.LstdFlags)

// SetOutput redirects all core log output. Passing nil discards it.
func SetOutput(l *log.Logger) {
	if l == nil {
		std = log.New(io.Discard, "", 0)
		return
	}
	std = l
}

func Tracef(format string, args ...any) {
	std.Printf("TRACE: "+format, args...)
}

func Warnf(format string, args ...any) {
	std.Printf("WARN: "+format, args...)
}

func Errorf(format string, args ...any) {
	std.Printf("ERROR: "+format, args...)
}
