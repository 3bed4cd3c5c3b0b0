// Package discovery finds the Markdown documents under a documentation root.
package discovery

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	"github.com/gobwas/glob"

	"git.home.luguber.info/inful/mdlinkcheck/internal/errors"
	"git.home.luguber.info/inful/mdlinkcheck/internal/logfields"
)

// DefaultExtensions are used when Options.Extensions is empty.
var DefaultExtensions = []string{".md", ".markdown"}

// Document is a discovered Markdown file.
type Document struct {
	Path string // filesystem path, joined onto the root as given
	Rel  string // slash-separated path relative to the root
}

// Options controls which files are discovered.
type Options struct {
	Extensions       []string
	Exclude          []string
	RespectGitignore bool
}

// Walker discovers documents according to its Options.
type Walker struct {
	extensions map[string]struct{}
	exclude    []glob.Glob
	gitignore  bool
}

// New compiles opts into a Walker.
func New(opts Options) (*Walker, error) {
	exts := opts.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	w := &Walker{extensions: make(map[string]struct{}, len(exts)), gitignore: opts.RespectGitignore}
	for _, ext := range exts {
		w.extensions[strings.ToLower(ext)] = struct{}{}
	}
	for _, pattern := range opts.Exclude {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, errors.ValidationFailed("exclude", fmt.Sprintf("invalid pattern %q: %v", pattern, err))
		}
		w.exclude = append(w.exclude, g)
	}
	return w, nil
}

// Discover returns the Markdown documents under root using default options.
func Discover(root string) ([]Document, error) {
	w, err := New(Options{})
	if err != nil {
		return nil, err
	}
	return w.Discover(root)
}

// Discover walks root and returns matching documents sorted by relative path.
// Directories whose name starts with "." are skipped. A root that is itself
// a Markdown file yields just that file.
func (w *Walker) Discover(root string) ([]Document, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, errors.RootUnreadable(root, err)
	}
	if !info.IsDir() {
		if !w.IsMarkdown(root) {
			return nil, errors.RootUnreadable(root, fmt.Errorf("%s is not a directory or Markdown file", root))
		}
		return []Document{{Path: root, Rel: filepath.Base(root)}}, nil
	}

	var ignore gitignore.Matcher
	if w.gitignore {
		patterns, perr := gitignore.ReadPatterns(osfs.New(root), nil)
		if perr != nil {
			slog.Warn("Failed to read .gitignore patterns", logfields.Root(root), logfields.Error(perr))
		} else {
			ignore = gitignore.NewMatcher(patterns)
		}
	}

	docs := make([]Document, 0)
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if path == root {
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") || w.excluded(rel, true, ignore) {
				return fs.SkipDir
			}
			return nil
		}
		if !w.IsMarkdown(path) || w.excluded(rel, false, ignore) {
			return nil
		}
		docs = append(docs, Document{Path: path, Rel: rel})
		return nil
	})
	if err != nil {
		var pathErr *fs.PathError
		if stderrors.As(err, &pathErr) && pathErr.Path != root {
			return nil, errors.DocumentUnreadable(pathErr.Path, err)
		}
		return nil, errors.RootUnreadable(root, err)
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].Rel < docs[j].Rel })
	slog.Debug("Discovered documents", logfields.Root(root), logfields.Count(len(docs)))
	return docs, nil
}

// IsMarkdown reports whether path has one of the configured extensions,
// ignoring case.
func (w *Walker) IsMarkdown(path string) bool {
	_, ok := w.extensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

func (w *Walker) excluded(rel string, isDir bool, ignore gitignore.Matcher) bool {
	for _, g := range w.exclude {
		if g.Match(rel) {
			return true
		}
	}
	return ignore != nil && ignore.Match(strings.Split(rel, "/"), isDir)
}

// DetectDefaultPath picks the documentation root when none is given:
// docs/, then documentation/, then the current directory.
func DetectDefaultPath() (string, bool) {
	for _, candidate := range []string{"docs", "documentation"} {
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate, true
		}
	}
	return ".", false
}
