// Package events publishes broken link events to NATS for downstream
// consumers such as issue creators or chat notifiers.
package events

import "time"

// BrokenLinkEvent describes one failed link.
type BrokenLinkEvent struct {
	RunID  string `json:"run_id"`
	Root   string `json:"root"`
	Target string `json:"target"`
	Kind   string `json:"kind"` // internal|external
	Status string `json:"status"`
	Code   int    `json:"code"` // HTTP status, 0 for non-HTTP failures
	Reason string `json:"reason,omitempty"`

	// Source document
	Document            string `json:"document"`
	DocumentLine        int    `json:"document_line,omitempty"`
	DocumentFingerprint string `json:"document_fingerprint,omitempty"`
	Title               string `json:"title,omitempty"` // front matter title

	// Failure tracking from the result cache
	FailureCount  int       `json:"failure_count,omitempty"`
	FirstFailedAt time.Time `json:"first_failed_at,omitzero"`

	Timestamp time.Time `json:"timestamp"`
}
