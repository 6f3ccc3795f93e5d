package monitoring

import (
	"log"
	"sync/atomic"
)

// Logf is the package-level diagnostic logger used by the library packages.
// It defaults to log.Printf but may be replaced by SetLogger so tests can
// capture or mute bridge output.
var Logf func(format string, v ...interface{}) = log.Printf

var debug atomic.Bool

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// SetDebug toggles Debugf output.
func SetDebug(on bool) { debug.Store(on) }

// DebugEnabled reports whether Debugf currently emits anything.
func DebugEnabled() bool { return debug.Load() }

// Debugf logs through Logf only when debug output is enabled. Per-message and
// per-tick traces go here so the hot paths stay quiet by default.
func Debugf(format string, v ...interface{}) {
	if !debug.Load() {
		return
	}
	Logf("[debug] "+format, v...)
}
