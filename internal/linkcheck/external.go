package linkcheck

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gobwas/glob"
	"golang.org/x/sync/singleflight"

	"git.home.luguber.info/inful/mdlinkcheck/internal/cache"
	"git.home.luguber.info/inful/mdlinkcheck/internal/logfields"
	"git.home.luguber.info/inful/mdlinkcheck/internal/metrics"
)

// ResultCache persists external results between runs.
type ResultCache interface {
	Get(ctx context.Context, url string) (*cache.Entry, error)
	Put(ctx context.Context, e *cache.Entry) error
	Fresh(e *cache.Entry) bool
}

// maxDrain bounds how much of a GET body is read before closing.
const maxDrain = 64 << 10

// outcome is the URL-level part of a Result, shared by every link to that URL.
type outcome struct {
	Status       Status
	Code         int
	Reason       string
	Cached       bool
	FailureCount int
	FirstFailed  time.Time
}

// externalChecker validates URLs. Each URL is checked at most once per run.
type externalChecker struct {
	client    *http.Client
	userAgent string
	warn      map[int]struct{}
	ignore    []glob.Glob
	cache     ResultCache
	recorder  metrics.Recorder

	group singleflight.Group
	mu    sync.Mutex
	memo  map[string]outcome
}

func (e *externalChecker) check(ctx context.Context, url string) outcome {
	if o, ok := e.lookup(url); ok {
		return o
	}
	v, _, _ := e.group.Do(url, func() (any, error) {
		return e.flight(ctx, url), nil
	})
	return v.(outcome)
}

func (e *externalChecker) lookup(url string) (outcome, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	o, ok := e.memo[url]
	return o, ok
}

// flight resolves url once. A flight for url may have finished between the
// caller's lookup and joining the group, so the memo is consulted again.
func (e *externalChecker) flight(ctx context.Context, url string) outcome {
	if o, ok := e.lookup(url); ok {
		return o
	}
	o := e.resolve(ctx, url)
	e.mu.Lock()
	e.memo[url] = o
	e.mu.Unlock()
	return o
}

// resolve consults the ignore list and the cache before going to the network.
func (e *externalChecker) resolve(ctx context.Context, url string) outcome {
	for _, g := range e.ignore {
		if g.Match(url) {
			return outcome{Status: StatusOK, Reason: "ignored"}
		}
	}

	var prev *cache.Entry
	if e.cache != nil {
		entry, err := e.cache.Get(ctx, url)
		if err != nil {
			slog.Warn("Link cache lookup failed", logfields.URL(url), logfields.Error(err))
		}
		if entry != nil && e.cache.Fresh(entry) {
			e.recorder.IncCacheLookup(true)
			return outcome{
				Status:       Status(entry.Status),
				Code:         entry.Code,
				Reason:       entry.Reason,
				Cached:       true,
				FailureCount: entry.FailureCount,
				FirstFailed:  entry.FirstFailedAt,
			}
		}
		e.recorder.IncCacheLookup(false)
		prev = entry
	}

	o := e.fetch(ctx, url)

	if e.cache != nil && ctx.Err() == nil {
		now := time.Now()
		next := cache.Track(prev, cache.Entry{
			URL:       url,
			Status:    string(o.Status),
			Code:      o.Code,
			Reason:    o.Reason,
			Valid:     o.Status == StatusOK || o.Status == StatusWarning,
			CheckedAt: now,
		}, now)
		if err := e.cache.Put(ctx, &next); err != nil {
			slog.Warn("Failed to update link cache", logfields.URL(url), logfields.Error(err))
		}
		o.FailureCount = next.FailureCount
		o.FirstFailed = next.FirstFailedAt
	}
	return o
}

// fetch issues HEAD and falls back to GET when HEAD reports an error status,
// since many servers reject or mishandle HEAD.
func (e *externalChecker) fetch(ctx context.Context, url string) outcome {
	code, err := e.do(ctx, http.MethodHead, url)
	if err != nil {
		return outcome{Status: StatusHTTPError, Reason: err.Error()}
	}
	if code >= 400 {
		slog.Debug("HEAD rejected, retrying with GET", logfields.URL(url), logfields.Status(code))
		code, err = e.do(ctx, http.MethodGet, url)
		if err != nil {
			return outcome{Status: StatusHTTPError, Reason: err.Error()}
		}
	}

	switch {
	case code < 400:
		return outcome{Status: StatusOK, Code: code}
	case e.isWarning(code):
		return outcome{Status: StatusWarning, Code: code, Reason: http.StatusText(code)}
	default:
		return outcome{Status: StatusHTTPError, Code: code, Reason: http.StatusText(code)}
	}
}

func (e *externalChecker) do(ctx context.Context, method, url string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return 0, fmt.Errorf("invalid URL: %w", err)
	}
	req.Header.Set("User-Agent", e.userAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if method == http.MethodGet {
		_, _ = io.CopyN(io.Discard, resp.Body, maxDrain)
	}

	slog.Debug("Checked URL", logfields.URL(url), logfields.Method(method), logfields.Status(resp.StatusCode))
	return resp.StatusCode, nil
}

func (e *externalChecker) isWarning(code int) bool {
	_, ok := e.warn[code]
	return ok
}
