// Package clock provides the pluggable time source for the build. The
// production path reads real time; invariant mode substitutes a clock
// frozen at one fixed instant so repeated builds produce byte-identical
// output. The process-wide time source is never patched.
package clock

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// InvariantInstant is the fixed instant observed during invariant
// builds.
var InvariantInstant = time.Date(2038, 1, 1, 0, 0, 0, 0, time.UTC)

// Real returns the wall clock.
func Real() clockwork.Clock {
	return clockwork.NewRealClock()
}

// Frozen returns a clock stopped at InvariantInstant.
func Frozen() clockwork.Clock {
	return clockwork.NewFakeClockAt(InvariantInstant)
}

// FreezeCapability yields the frozen clock when the time-freezing
// capability is available. Its absence is non-fatal: the build
// proceeds without determinism.
type FreezeCapability func() (clockwork.Clock, bool)

// DefaultFreeze is the built-in capability backed by clockwork.
func DefaultFreeze() (clockwork.Clock, bool) {
	return Frozen(), true
}
