package linkcheck

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		target string
		want   Kind
	}{
		{"#section", KindAnchor},
		{"#", KindAnchor},
		{"https://example.com", KindExternal},
		{"HTTP://EXAMPLE.COM/x", KindExternal},
		{"  http://example.com  ", KindExternal},
		{"./doc.md", KindInternal},
		{"doc.md#heading", KindInternal},
		{"/guide/index.md", KindInternal},
		{"../up.md", KindInternal},
		{"mailto:someone@example.com", KindIgnored},
		{"tel:+4712345678", KindIgnored},
		{"JavaScript:void(0)", KindIgnored},
		{"data:image/png;base64,AAAA", KindIgnored},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			require.Equal(t, tt.want, Classify(tt.target))
		})
	}
}

func TestStripTarget(t *testing.T) {
	require.Equal(t, "./doc.md", StripTarget("./doc.md#heading"))
	require.Equal(t, "img.png", StripTarget("img.png?raw=true"))
	require.Equal(t, "my file.md", StripTarget("my%20file.md#x"))
	require.Equal(t, "bad%zz.md", StripTarget("bad%zz.md"))
	require.Equal(t, "", StripTarget("?query"))
}

func TestResolveInternal(t *testing.T) {
	root := filepath.FromSlash("/repo/docs")
	doc := filepath.Join(root, "guide", "intro.md")

	require.Equal(t, filepath.Join(root, "guide", "setup.md"), ResolveInternal(root, doc, "setup.md#install"))
	require.Equal(t, filepath.Join(root, "api.md"), ResolveInternal(root, doc, "../api.md"))
	require.Equal(t, filepath.Join(root, "ref", "cli.md"), ResolveInternal(root, doc, "/ref/cli.md"))
	require.Equal(t, doc, ResolveInternal(root, doc, "?plain=1"))
}

func TestResultOutcome(t *testing.T) {
	require.Equal(t, "ok", Result{Status: StatusOK}.Outcome())
	require.Equal(t, "missing", Result{Status: StatusMissing}.Outcome())
	require.Equal(t, "http-error(500)", Result{Status: StatusHTTPError, Code: 500}.Outcome())
	require.Equal(t, "http-error(0)", Result{Status: StatusHTTPError}.Outcome())
	require.Equal(t, "warning(403)", Result{Status: StatusWarning, Code: 403}.Outcome())
}

func TestReportSetAdd(t *testing.T) {
	rs := newReportSet("id", ".", timeZero)
	rs.Add(Result{Status: StatusOK})
	rs.Add(Result{Status: StatusMissing})
	rs.Add(Result{Status: StatusHTTPError, Code: 500})
	rs.Add(Result{Status: StatusWarning, Code: 403})

	require.Equal(t, 4, rs.Checked)
	require.Equal(t, 1, rs.OK)
	require.Len(t, rs.Failed, 2)
	require.Len(t, rs.Warnings, 1)
	require.True(t, rs.HasFailures())
	require.False(t, rs.Clean())
}
