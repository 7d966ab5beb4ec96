package probe

import (
	"fmt"
	"sync"
)

// Instrumentation-internal failures are never allowed to alter the monitored
// code's control flow. Every sink interaction goes through guard, which
// catches errors and panics and routes them to an optional diagnostic hook.

var (
	diagMu     sync.RWMutex
	diagnostic func(error)
)

// SetDiagnostic installs a hook receiving suppressed internal failures.
// Passing nil silences them entirely.
func SetDiagnostic(fn func(error)) {
	diagMu.Lock()
	diagnostic = fn
	diagMu.Unlock()
}

func diag(err error) {
	if err == nil {
		return
	}
	diagMu.RLock()
	fn := diagnostic
	diagMu.RUnlock()
	if fn != nil {
		fn(err)
	}
}

// guard runs fn, suppressing both returned errors and panics.
func guard(fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			diag(fmt.Errorf("instrumentation panic: %v", r))
		}
	}()
	if err := fn(); err != nil {
		diag(err)
	}
}
