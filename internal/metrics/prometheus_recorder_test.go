package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.ObserveLinkCheck("external", "ok", 150*time.Millisecond)
	pr.ObserveLinkCheck("external", "http-error", 20*time.Millisecond)
	pr.ObserveLinkCheck("internal", "missing", time.Millisecond)
	pr.IncCacheLookup(true)
	pr.IncCacheLookup(false)
	pr.IncCacheLookup(false)
	pr.ObserveRunDuration(500 * time.Millisecond)
	pr.IncRunOutcome(RunBroken)
	pr.SetDocuments(7)

	require.InDelta(t, 1, testutil.ToFloat64(pr.linkResults.WithLabelValues("external", "ok")), 0)
	require.InDelta(t, 1, testutil.ToFloat64(pr.linkResults.WithLabelValues("internal", "missing")), 0)
	require.InDelta(t, 2, testutil.ToFloat64(pr.cacheLookups.WithLabelValues("miss")), 0)
	require.InDelta(t, 1, testutil.ToFloat64(pr.runOutcomes.WithLabelValues("broken")), 0)
	require.InDelta(t, 7, testutil.ToFloat64(pr.documents), 0)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, mfs)
}

func TestPrometheusRecorder_NilRegistry(t *testing.T) {
	pr := NewPrometheusRecorder(nil)
	require.NotNil(t, pr.Registry())
	pr.SetDocuments(1)
}

func TestWriteTextfile(t *testing.T) {
	pr := NewPrometheusRecorder(nil)
	pr.IncRunOutcome(RunClean)
	pr.SetDocuments(3)

	path := filepath.Join(t.TempDir(), "nested", "mdlinkcheck.prom")
	require.NoError(t, pr.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	require.True(t, strings.Contains(text, `mdlinkcheck_run_outcomes_total{outcome="clean"} 1`), text)
	require.Contains(t, text, "mdlinkcheck_documents_scanned 3")
}
