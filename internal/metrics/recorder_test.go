package metrics

import (
	"testing"
	"time"
)

// Compile-time checks that both recorders satisfy Recorder.
var (
	_ Recorder = NoopRecorder{}
	_ Recorder = (*PrometheusRecorder)(nil)
)

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.ObserveLinkCheck("external", "ok", time.Second)
	r.IncCacheLookup(true)
	r.ObserveRunDuration(time.Second)
	r.IncRunOutcome(RunCanceled)
	r.SetDocuments(0)
}

func TestNilPrometheusRecorderIsSafe(t *testing.T) {
	var p *PrometheusRecorder
	p.ObserveLinkCheck("internal", "ok", time.Millisecond)
	p.IncCacheLookup(false)
	p.ObserveRunDuration(time.Millisecond)
	p.IncRunOutcome(RunErrored)
	p.SetDocuments(2)
}
