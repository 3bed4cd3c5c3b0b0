package metrics

import "time"

// RunOutcome enumerates final run states for counters.
type RunOutcome string

const (
	RunClean    RunOutcome = "clean"    // no failures
	RunBroken   RunOutcome = "broken"   // at least one failure
	RunErrored  RunOutcome = "error"    // the run could not complete
	RunCanceled RunOutcome = "canceled" // interrupted
)

// Recorder defines observability hooks for link check runs.
type Recorder interface {
	ObserveLinkCheck(kind, outcome string, d time.Duration)
	IncCacheLookup(hit bool)
	ObserveRunDuration(d time.Duration)
	IncRunOutcome(outcome RunOutcome)
	SetDocuments(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveLinkCheck(string, string, time.Duration) {}
func (NoopRecorder) IncCacheLookup(bool)                            {}
func (NoopRecorder) ObserveRunDuration(time.Duration)               {}
func (NoopRecorder) IncRunOutcome(RunOutcome)                       {}
func (NoopRecorder) SetDocuments(int)                               {}
