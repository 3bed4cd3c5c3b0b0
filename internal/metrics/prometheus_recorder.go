package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "mdlinkcheck"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	reg          *prom.Registry
	linkDuration *prom.HistogramVec
	linkResults  *prom.CounterVec
	cacheLookups *prom.CounterVec
	runDuration  prom.Histogram
	runOutcomes  *prom.CounterVec
	documents    prom.Gauge
}

// NewPrometheusRecorder constructs metrics and registers them on reg. A nil
// reg gets a fresh registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		reg: reg,
		linkDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "link_check_duration_seconds",
			Help:      "Duration of individual link checks",
			Buckets:   prom.DefBuckets,
		}, []string{"kind"}),
		linkResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "link_results_total",
			Help:      "Link check results by kind and outcome",
		}, []string{"kind", "outcome"}),
		cacheLookups: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "External result cache lookups by hit/miss",
		}, []string{"result"}),
		runDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Total run duration",
			Buckets:   prom.DefBuckets,
		}),
		runOutcomes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "run_outcomes_total",
			Help:      "Runs by final outcome",
		}, []string{"outcome"}),
		documents: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "documents_scanned",
			Help:      "Documents scanned by the last run",
		}),
	}
	reg.MustRegister(pr.linkDuration, pr.linkResults, pr.cacheLookups, pr.runDuration, pr.runOutcomes, pr.documents)
	return pr
}

// Registry returns the registry the metrics are registered on.
func (p *PrometheusRecorder) Registry() *prom.Registry { return p.reg }

func (p *PrometheusRecorder) ObserveLinkCheck(kind, outcome string, d time.Duration) {
	if p == nil {
		return
	}
	p.linkDuration.WithLabelValues(kind).Observe(d.Seconds())
	p.linkResults.WithLabelValues(kind, outcome).Inc()
}

func (p *PrometheusRecorder) IncCacheLookup(hit bool) {
	if p == nil {
		return
	}
	res := "miss"
	if hit {
		res = "hit"
	}
	p.cacheLookups.WithLabelValues(res).Inc()
}

func (p *PrometheusRecorder) ObserveRunDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.runDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncRunOutcome(outcome RunOutcome) {
	if p == nil {
		return
	}
	p.runOutcomes.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) SetDocuments(n int) {
	if p == nil {
		return
	}
	p.documents.Set(float64(n))
}

// WriteTextfile writes the registry in text exposition format to path,
// creating the parent directory when needed.
func (p *PrometheusRecorder) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}
	if err := prom.WriteToTextfile(path, p.reg); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
