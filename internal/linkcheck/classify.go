package linkcheck

import (
	"net/url"
	"path/filepath"
	"strings"
)

// ignoredSchemes are link targets that cannot be validated.
var ignoredSchemes = []string{"mailto:", "tel:", "javascript:", "data:"}

// Classify resolves the kind of a raw link target.
func Classify(target string) Kind {
	t := strings.TrimSpace(target)
	lower := strings.ToLower(t)
	switch {
	case strings.HasPrefix(t, "#"):
		return KindAnchor
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return KindExternal
	}
	for _, scheme := range ignoredSchemes {
		if strings.HasPrefix(lower, scheme) {
			return KindIgnored
		}
	}
	return KindInternal
}

// StripTarget removes the fragment and query of an internal target and
// decodes percent-escapes.
func StripTarget(target string) string {
	t := strings.TrimSpace(target)
	if i := strings.IndexByte(t, '#'); i >= 0 {
		t = t[:i]
	}
	if i := strings.IndexByte(t, '?'); i >= 0 {
		t = t[:i]
	}
	if decoded, err := url.PathUnescape(t); err == nil {
		t = decoded
	}
	return t
}

// ResolveInternal maps an internal target onto the filesystem. Relative
// targets resolve against the document's directory; a leading "/" resolves
// against root. An empty path refers to the document itself.
func ResolveInternal(root, document, target string) string {
	p := StripTarget(target)
	switch {
	case p == "":
		return document
	case strings.HasPrefix(p, "/"):
		return filepath.Join(root, filepath.FromSlash(p))
	default:
		return filepath.Join(filepath.Dir(document), filepath.FromSlash(p))
	}
}
