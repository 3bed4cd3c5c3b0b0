// Package linkcheck validates the links found in Markdown documentation.
//
// A run discovers documents, extracts their links, classifies each one as
// internal, external or anchor-only, validates it and collects the outcomes
// in a ReportSet. Per-link problems are values in the report, never errors;
// only an unreadable root or document aborts a run.
package linkcheck

import (
	"fmt"
	"time"

	"git.home.luguber.info/inful/mdlinkcheck/internal/markdown"
)

// Kind is the resolved kind of a link target.
type Kind string

const (
	KindInternal Kind = "internal" // filesystem path relative to the document
	KindExternal Kind = "external" // absolute http(s) URL
	KindAnchor   Kind = "anchor"   // same-document fragment, never validated
	KindIgnored  Kind = "ignored"  // mailto:, tel: and similar, never validated
)

// Status is the outcome of validating one link.
type Status string

const (
	StatusOK        Status = "ok"
	StatusMissing   Status = "missing"
	StatusHTTPError Status = "http-error"
	StatusWarning   Status = "warning"
)

// Link is a target extracted from a document.
type Link struct {
	Target   string
	Document string // path of the owning document
	Line     int    // 1-based line in the document, 0 when unknown
	Markup   markdown.LinkKind
	Kind     Kind
}

// Result is the immutable outcome of validating a Link.
type Result struct {
	Document string `json:"document"`
	Line     int    `json:"line,omitempty"`
	Target   string `json:"target"`
	Kind     Kind   `json:"kind"`
	Status   Status `json:"status"`
	Code     int    `json:"code,omitempty"` // HTTP status, 0 for transport failures
	Reason   string `json:"reason,omitempty"`
	Cached   bool   `json:"cached,omitempty"`
}

// Failed reports whether the result counts as a broken link.
func (r Result) Failed() bool {
	return r.Status == StatusMissing || r.Status == StatusHTTPError
}

// Outcome renders the status the way reports print it, e.g. "http-error(404)".
func (r Result) Outcome() string {
	switch r.Status {
	case StatusHTTPError, StatusWarning:
		return fmt.Sprintf("%s(%d)", r.Status, r.Code)
	default:
		return string(r.Status)
	}
}

// ReportSet partitions the results of one run into failures and warnings.
type ReportSet struct {
	RunID     string        `json:"run_id"`
	Root      string        `json:"root"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration_ns"`
	Documents int           `json:"documents"`
	Checked   int           `json:"checked"`
	OK        int           `json:"ok"`
	Failed    []Result      `json:"failed"`
	Warnings  []Result      `json:"warnings"`
}

func newReportSet(runID, root string, started time.Time) *ReportSet {
	return &ReportSet{
		RunID:     runID,
		Root:      root,
		StartedAt: started,
		Failed:    []Result{},
		Warnings:  []Result{},
	}
}

// Add files r into its partition.
func (rs *ReportSet) Add(r Result) {
	rs.Checked++
	switch {
	case r.Failed():
		rs.Failed = append(rs.Failed, r)
	case r.Status == StatusWarning:
		rs.Warnings = append(rs.Warnings, r)
	default:
		rs.OK++
	}
}

// HasFailures reports whether any link was broken.
func (rs *ReportSet) HasFailures() bool { return len(rs.Failed) > 0 }

// Clean reports whether the run found neither failures nor warnings.
func (rs *ReportSet) Clean() bool { return len(rs.Failed) == 0 && len(rs.Warnings) == 0 }
