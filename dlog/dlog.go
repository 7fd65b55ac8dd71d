// Package dlog writes the shim's diagnostic lines to stderr, gated by
// the TERMUX_COMPAT_DEBUG environment variable ("1" enables, anything
// else disables). The flag is read at most once per process.
package dlog

import (
	"fmt"
	"os"
	"sync/atomic"
)

const tag = "[termux-compat] "

// EnvVar is the only runtime configuration input the shim reads.
const EnvVar = "TERMUX_COMPAT_DEBUG"

// 0 = unknown, 1 = off, 2 = on. First write wins; the resolution is
// idempotent, so a race between first callers converges.
var state atomic.Int32

// Enabled reports whether diagnostic logging is on, resolving the
// environment toggle on first use.
func Enabled() bool {
	switch state.Load() {
	case 1:
		return false
	case 2:
		return true
	}
	resolved := int32(1)
	if os.Getenv(EnvVar) == "1" {
		resolved = 2
	}
	state.CompareAndSwap(0, resolved)
	return state.Load() == 2
}

// Logf emits one tagged line to stderr when logging is enabled.
func Logf(format string, args ...any) {
	if !Enabled() {
		return
	}
	fmt.Fprintf(os.Stderr, tag+format+"\n", args...)
}
