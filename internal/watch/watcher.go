// Package watch re-runs link checks when documentation changes or on a
// fixed schedule.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/mdlinkcheck/internal/discovery"
	"git.home.luguber.info/inful/mdlinkcheck/internal/frontmatter"
	"git.home.luguber.info/inful/mdlinkcheck/internal/logfields"
)

// RunFunc performs one link check run.
type RunFunc func(ctx context.Context) error

// DefaultDebounce collapses bursts of editor writes into one run.
const DefaultDebounce = 300 * time.Millisecond

// Watcher re-runs a check when files under root change. Markdown files whose
// content fingerprint did not change (a touch, or an editor rewriting the
// same bytes) do not trigger a run.
type Watcher struct {
	root       string
	file       string // set when root is a single file
	isMarkdown func(path string) bool
	Debounce   time.Duration

	mu           sync.Mutex
	fingerprints map[string]string
	pending      map[string]struct{}
	force        bool
}

// NewWatcher watches root; isMarkdown decides which files are fingerprinted.
func NewWatcher(root string, isMarkdown func(string) bool) *Watcher {
	return &Watcher{
		root:         filepath.Clean(root),
		isMarkdown:   isMarkdown,
		Debounce:     DefaultDebounce,
		fingerprints: make(map[string]string),
		pending:      make(map[string]struct{}),
	}
}

// Run calls fn once, then again after every relevant change, until ctx is
// done. Errors from fn are logged; they do not stop watching.
func (w *Watcher) Run(ctx context.Context, fn RunFunc) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}
	defer func() { _ = fsw.Close() }()

	if err := w.addRoot(fsw); err != nil {
		return fmt.Errorf("watch %s: %w", w.root, err)
	}
	w.snapshot()

	runReq := make(chan struct{}, 1)
	runReq <- struct{}{}
	trigger := w.debouncer(runReq)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case <-runReq:
				if err := fn(ctx); err != nil && ctx.Err() == nil {
					slog.Warn("Link check run failed", logfields.Error(err))
				}
			}
		}
	}()
	defer wg.Wait()

	slog.Info("Watching for changes", logfields.Root(w.root))
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(fsw, ev, trigger)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Watcher error", logfields.Error(err))
		}
	}
}

// debouncer returns a trigger that queues a run once events stop arriving
// for w.Debounce and the pending changes are real.
func (w *Watcher) debouncer(runReq chan struct{}) func() {
	var mu sync.Mutex
	var timer *time.Timer
	return func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(w.Debounce, func() {
			if !w.settle() {
				slog.Debug("Change without content difference; skipping run")
				return
			}
			select {
			case runReq <- struct{}{}:
			default:
			}
		})
	}
}

// addRoot registers the directories to watch. A single-file root is watched
// through its parent directory so editors that save by renaming a temp
// file over it are still seen.
func (w *Watcher) addRoot(fsw *fsnotify.Watcher) error {
	info, err := os.Stat(w.root)
	if err != nil {
		return err
	}
	if info.IsDir() {
		w.file = ""
		return w.addDirsRecursive(fsw, w.root)
	}
	w.file = w.root
	return fsw.Add(filepath.Dir(w.root))
}

func (w *Watcher) handleEvent(fsw *fsnotify.Watcher, ev fsnotify.Event, trigger func()) {
	ev.Name = filepath.Clean(ev.Name)
	if w.file != "" && ev.Name != w.file {
		return
	}
	if shouldIgnoreEvent(ev.Name) {
		return
	}
	isDir := false
	if ev.Op&fsnotify.Create == fsnotify.Create {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			isDir = true
			_ = w.addDirsRecursive(fsw, ev.Name)
		}
	}
	slog.Debug("File change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))

	w.mu.Lock()
	if !isDir && w.isMarkdown(ev.Name) {
		w.pending[ev.Name] = struct{}{}
	} else {
		// assets and directories can make links resolve or break
		w.force = true
	}
	w.mu.Unlock()
	trigger()
}

// settle refreshes fingerprints of pending files and reports whether
// anything actually changed.
func (w *Watcher) settle() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	changed := w.force
	for path := range w.pending {
		fp := fingerprint(path)
		if prev, ok := w.fingerprints[path]; !ok || prev != fp {
			changed = true
		}
		if fp == "" {
			delete(w.fingerprints, path)
		} else {
			w.fingerprints[path] = fp
		}
	}
	w.pending = make(map[string]struct{})
	w.force = false
	return changed
}

// snapshot records the fingerprints of every Markdown file under root.
func (w *Watcher) snapshot() {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() && path != w.root && strings.HasPrefix(d.Name(), ".") {
			return fs.SkipDir
		}
		if !d.IsDir() && w.isMarkdown(path) {
			if fp := fingerprint(path); fp != "" {
				w.fingerprints[path] = fp
			}
		}
		return nil
	})
}

// fingerprint returns the content fingerprint of path, or "" when unreadable.
func fingerprint(path string) string {
	// #nosec G304 -- path comes from the watched tree
	content, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	doc, err := frontmatter.Parse(content)
	if err != nil {
		doc = frontmatter.Document{Body: content}
	}
	return discovery.Fingerprint(doc)
}

func (w *Watcher) addDirsRecursive(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return fs.SkipDir
		}
		if err := fsw.Add(path); err != nil {
			slog.Warn("Watch add failed", logfields.Path(path), logfields.Error(err))
		}
		return nil
	})
}

// shouldIgnoreEvent returns true for hidden, editor swap and OS metadata files.
func shouldIgnoreEvent(path string) bool {
	base := filepath.Base(path)
	switch {
	case strings.HasPrefix(base, "."):
		return true
	case strings.HasSuffix(base, "~"), strings.HasSuffix(base, ".swp"), strings.HasSuffix(base, ".swx"):
		return true
	case strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#"):
		return true
	case base == "Thumbs.db":
		return true
	}
	return false
}
