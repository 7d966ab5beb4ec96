// Package probe implements the interceptor handlers: method entry/exit
// tracing, error observation, feature-usage metering, and field-change
// tracking. Probes are invoked explicitly by the instrumented code (there is
// no ambient weaving); per-call state lives in tokens returned from Enter and
// passed back at Exit, so the same probe is safe under arbitrarily many
// concurrent, recursive, or nested invocations.
package probe

import "sync/atomic"

// enabled is the process-wide master switch. Reads are atomic but otherwise
// unsynchronized: a flip may be observed late by in-flight calls, which is
// acceptable.
var enabled atomic.Bool

func init() {
	enabled.Store(true)
}

// SetEnabled flips the process-wide instrumentation switch at runtime.
func SetEnabled(on bool) {
	enabled.Store(on)
}

// Enabled reports whether instrumentation is active.
func Enabled() bool {
	return enabled.Load()
}
