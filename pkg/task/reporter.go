package task

import (
	"fmt"
	"io"
)

// Reporter receives unit lifecycle events from the execution engine.
type Reporter interface {
	UnitExecuted(u *WorkUnit)
	UnitSkipped(u *WorkUnit)
	UnitFailed(u *WorkUnit, err error)
}

// ExecutedOnlyReporter announces only units that actually executed;
// up-to-date units stay silent. Output goes to the error stream so it
// does not mix with rendered content on stdout.
type ExecutedOnlyReporter struct {
	Out io.Writer
}

// NewExecutedOnlyReporter creates a reporter writing to out.
func NewExecutedOnlyReporter(out io.Writer) *ExecutedOnlyReporter {
	return &ExecutedOnlyReporter{Out: out}
}

func (r *ExecutedOnlyReporter) UnitExecuted(u *WorkUnit) {
	fmt.Fprintf(r.Out, ".  %s\n", u.Name)
}

func (r *ExecutedOnlyReporter) UnitSkipped(u *WorkUnit) {}

func (r *ExecutedOnlyReporter) UnitFailed(u *WorkUnit, err error) {
	fmt.Fprintf(r.Out, "FAILED %s: %v\n", u.Name, err)
}

// ZeroReporter swallows every event. Selected in quiet mode.
type ZeroReporter struct{}

func (ZeroReporter) UnitExecuted(u *WorkUnit)          {}
func (ZeroReporter) UnitSkipped(u *WorkUnit)           {}
func (ZeroReporter) UnitFailed(u *WorkUnit, err error) {}
