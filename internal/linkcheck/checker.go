package linkcheck

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gobwas/glob"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/mdlinkcheck/internal/config"
	"git.home.luguber.info/inful/mdlinkcheck/internal/discovery"
	"git.home.luguber.info/inful/mdlinkcheck/internal/errors"
	"git.home.luguber.info/inful/mdlinkcheck/internal/events"
	"git.home.luguber.info/inful/mdlinkcheck/internal/frontmatter"
	"git.home.luguber.info/inful/mdlinkcheck/internal/logfields"
	"git.home.luguber.info/inful/mdlinkcheck/internal/markdown"
	"git.home.luguber.info/inful/mdlinkcheck/internal/metrics"
	"git.home.luguber.info/inful/mdlinkcheck/internal/retry"
)

// Options controls a Checker.
type Options struct {
	Discovery       discovery.Options
	SkipInternal    bool
	SkipExternal    bool
	Concurrency     int
	Timeout         time.Duration
	UserAgent       string
	MaxRedirects    int
	WarnStatusCodes []int
	IgnoreURLs      []string
	Retry           retry.Policy
}

// OptionsFromConfig maps a loaded configuration onto checker options.
func OptionsFromConfig(cfg *config.Config) Options {
	c := cfg.Check
	return Options{
		Discovery: discovery.Options{
			Extensions:       cfg.Discovery.Extensions,
			Exclude:          cfg.Discovery.Exclude,
			RespectGitignore: cfg.Discovery.RespectGitignore,
		},
		SkipInternal:    c.SkipInternal,
		SkipExternal:    c.SkipExternal,
		Concurrency:     c.Concurrency,
		Timeout:         c.TimeoutDuration(),
		UserAgent:       c.UserAgent,
		MaxRedirects:    c.MaxRedirects,
		WarnStatusCodes: c.WarnStatusCodes,
		IgnoreURLs:      c.IgnoreURLs,
		Retry:           retry.FromConfig(c),
	}
}

// DefaultOptions returns the options of an empty configuration.
func DefaultOptions() Options {
	return OptionsFromConfig(config.Default())
}

// Option customises a Checker.
type Option func(*Checker)

// WithHTTPClient replaces the HTTP client used for external links.
func WithHTTPClient(c *http.Client) Option {
	return func(ch *Checker) { ch.client = c }
}

// WithCache enables the persistent external result cache.
func WithCache(c ResultCache) Option {
	return func(ch *Checker) { ch.cache = c }
}

// WithPublisher publishes an event for every failed link.
func WithPublisher(p events.Publisher) Option {
	return func(ch *Checker) { ch.publisher = p }
}

// WithRecorder records metrics for every run.
func WithRecorder(r metrics.Recorder) Option {
	return func(ch *Checker) { ch.recorder = r }
}

// Checker runs link checks. It holds no per-run state, so one Checker can
// serve repeated runs.
type Checker struct {
	opts      Options
	walker    *discovery.Walker
	ignore    []glob.Glob
	warn      map[int]struct{}
	client    *http.Client
	cache     ResultCache
	publisher events.Publisher
	recorder  metrics.Recorder
}

// New builds a Checker from opts.
func New(opts Options, options ...Option) (*Checker, error) {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.MaxRedirects <= 0 {
		opts.MaxRedirects = 10
	}
	if opts.UserAgent == "" {
		opts.UserAgent = config.DefaultUserAgent()
	}
	if err := opts.Retry.Validate(); err != nil {
		return nil, errors.ValidationFailed("retry", err.Error())
	}

	walker, err := discovery.New(opts.Discovery)
	if err != nil {
		return nil, err
	}

	c := &Checker{
		opts:      opts,
		walker:    walker,
		warn:      make(map[int]struct{}, len(opts.WarnStatusCodes)),
		publisher: events.NoopPublisher{},
		recorder:  metrics.NoopRecorder{},
	}
	for _, code := range opts.WarnStatusCodes {
		c.warn[code] = struct{}{}
	}
	for _, pattern := range opts.IgnoreURLs {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, errors.ValidationFailed("ignore_urls", fmt.Sprintf("invalid pattern %q: %v", pattern, err))
		}
		c.ignore = append(c.ignore, g)
	}

	for _, o := range options {
		o(c)
	}
	if c.client == nil {
		c.client = newHTTPClient(opts)
	}
	return c, nil
}

func newHTTPClient(opts Options) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	client := &http.Client{
		Timeout:       opts.Timeout,
		Transport:     transport,
		CheckRedirect: retry.RedirectPolicy(opts.MaxRedirects),
	}
	return retry.WrapHTTPClient(client, opts.Retry)
}

// CheckLinks checks every Markdown document under root with default options.
func CheckLinks(ctx context.Context, root string) (*ReportSet, error) {
	c, err := New(DefaultOptions())
	if err != nil {
		return nil, err
	}
	return c.Run(ctx, root)
}

// document is a parsed document with the metadata events need.
type document struct {
	path        string
	title       string
	fingerprint string
}

// Run discovers, extracts, validates and aggregates. Link problems are
// reported in the ReportSet; the error is reserved for unreadable input and
// cancellation.
func (c *Checker) Run(ctx context.Context, root string) (*ReportSet, error) {
	started := time.Now()
	report := newReportSet(uuid.NewString(), root, started)
	log := slog.With(logfields.RunID(report.RunID), logfields.Root(root))

	docs, err := c.walker.Discover(root)
	if err != nil {
		c.recorder.IncRunOutcome(metrics.RunErrored)
		return nil, err
	}
	report.Documents = len(docs)
	base := resolutionBase(root)

	var (
		links []Link
		meta  = make(map[string]*document, len(docs))
	)
	for _, d := range docs {
		doc, docLinks, err := c.extract(d.Path)
		if err != nil {
			c.recorder.IncRunOutcome(metrics.RunErrored)
			return nil, err
		}
		meta[d.Path] = doc
		links = append(links, docLinks...)
	}
	log.Debug("Extracted links", logfields.Count(len(links)))

	results, err := c.validate(ctx, base, links)
	if err != nil {
		c.recorder.IncRunOutcome(metrics.RunCanceled)
		return nil, errors.Wrap(err, errors.CategoryRuntime, errors.SeverityWarning, "link check interrupted")
	}
	for _, r := range results {
		report.Add(r.Result)
	}

	c.publish(ctx, report, results, meta)

	report.Duration = time.Since(started)
	c.recorder.SetDocuments(report.Documents)
	c.recorder.ObserveRunDuration(report.Duration)
	if report.HasFailures() {
		c.recorder.IncRunOutcome(metrics.RunBroken)
	} else {
		c.recorder.IncRunOutcome(metrics.RunClean)
	}

	log.Info("Link check completed",
		slog.Int("documents", report.Documents),
		slog.Int("checked", report.Checked),
		slog.Int("failed", len(report.Failed)),
		slog.Int("warnings", len(report.Warnings)),
		logfields.DurationMS(float64(report.Duration.Milliseconds())))
	return report, nil
}

// resolutionBase is the directory "/"-prefixed targets resolve against:
// the root itself, or its directory when the root is a single file.
func resolutionBase(root string) string {
	if info, err := os.Stat(root); err == nil && !info.IsDir() {
		return filepath.Dir(root)
	}
	return root
}

// extract reads one document and returns the links that need validation.
func (c *Checker) extract(path string) (*document, []Link, error) {
	// #nosec G304 -- path comes from discovery under the chosen root
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, errors.DocumentUnreadable(path, err)
	}

	parsed, err := frontmatter.Parse(content)
	if err != nil {
		slog.Warn("Ignoring unparsable front matter", logfields.Document(path), logfields.Error(err))
		parsed = frontmatter.Document{Body: content, BodyLine: 1, Fields: map[string]any{}}
	}

	doc := &document{path: path, fingerprint: discovery.Fingerprint(parsed)}
	if title, ok := parsed.Fields["title"].(string); ok {
		doc.title = title
	}
	if parsed.LinkCheckDisabled() {
		slog.Debug("Link checking disabled by front matter", logfields.Document(path))
		return doc, nil, nil
	}

	found, err := markdown.ExtractLinks(parsed.Body)
	if err != nil {
		return nil, nil, errors.InternalError("markdown extraction failed", err).WithContext("document", path)
	}

	links := make([]Link, 0, len(found))
	for _, f := range found {
		kind := Classify(f.Destination)
		switch {
		case kind == KindAnchor, kind == KindIgnored:
			continue
		case kind == KindInternal && c.opts.SkipInternal:
			continue
		case kind == KindExternal && c.opts.SkipExternal:
			continue
		}
		line := f.Line
		if line > 0 {
			line += parsed.BodyLine - 1
		}
		links = append(links, Link{Target: f.Destination, Document: path, Line: line, Markup: f.Kind, Kind: kind})
	}
	return doc, links, nil
}

// checked pairs a Result with URL-level failure tracking for events.
type checked struct {
	Result
	failureCount int
	firstFailed  time.Time
}

// validate checks links with at most Concurrency checks in flight. Results
// keep the order of links.
func (c *Checker) validate(ctx context.Context, root string, links []Link) ([]checked, error) {
	ext := &externalChecker{
		client:    c.client,
		userAgent: c.opts.UserAgent,
		warn:      c.warn,
		ignore:    c.ignore,
		cache:     c.cache,
		recorder:  c.recorder,
		memo:      make(map[string]outcome),
	}

	results := make([]checked, len(links))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Concurrency)
	for i, link := range links {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			results[i] = c.checkOne(gctx, root, ext, link)
			c.recorder.ObserveLinkCheck(string(link.Kind), string(results[i].Status), time.Since(start))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func (c *Checker) checkOne(ctx context.Context, root string, ext *externalChecker, link Link) checked {
	if link.Kind == KindInternal {
		return checked{Result: checkInternal(root, link)}
	}

	o := ext.check(ctx, link.Target)
	return checked{
		Result: Result{
			Document: link.Document,
			Line:     link.Line,
			Target:   link.Target,
			Kind:     KindExternal,
			Status:   o.Status,
			Code:     o.Code,
			Reason:   o.Reason,
			Cached:   o.Cached,
		},
		failureCount: o.FailureCount,
		firstFailed:  o.FirstFailed,
	}
}

// publish emits one event per failure. Publishing problems are logged and
// never change the report.
func (c *Checker) publish(ctx context.Context, report *ReportSet, results []checked, meta map[string]*document) {
	for _, r := range results {
		if !r.Failed() {
			continue
		}
		ev := &events.BrokenLinkEvent{
			RunID:         report.RunID,
			Root:          report.Root,
			Target:        r.Target,
			Kind:          string(r.Kind),
			Status:        string(r.Status),
			Code:          r.Code,
			Reason:        r.Reason,
			Document:      r.Document,
			DocumentLine:  r.Line,
			FailureCount:  r.failureCount,
			FirstFailedAt: r.firstFailed,
		}
		if doc := meta[r.Document]; doc != nil {
			ev.Title = doc.title
			ev.DocumentFingerprint = doc.fingerprint
		}
		if err := c.publisher.PublishBrokenLink(ctx, ev); err != nil {
			if stderrors.Is(err, context.Canceled) {
				return
			}
			slog.Warn("Failed to publish broken link event", logfields.Target(r.Target), logfields.Error(err))
		}
	}
}
