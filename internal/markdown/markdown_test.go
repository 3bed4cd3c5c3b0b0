package markdown

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func destinations(links []Link) []string {
	out := make([]string, 0, len(links))
	for _, l := range links {
		out = append(out, l.Destination)
	}
	return out
}

func TestExtractLinks_InlineLink(t *testing.T) {
	links, err := ExtractLinks([]byte("See [API](api.md) for details."))
	require.NoError(t, err)
	require.Len(t, links, 1)
	require.Equal(t, LinkKindInline, links[0].Kind)
	require.Equal(t, "api.md", links[0].Destination)
	require.Equal(t, 1, links[0].Line)
}

func TestExtractLinks_ImageLink(t *testing.T) {
	links, err := ExtractLinks([]byte("![Diagram](diagram.png)"))
	require.NoError(t, err)
	require.Len(t, links, 1)
	require.Equal(t, LinkKindImage, links[0].Kind)
	require.Equal(t, "diagram.png", links[0].Destination)
}

func TestExtractLinks_AutoLink(t *testing.T) {
	links, err := ExtractLinks([]byte("<https://example.com/path>"))
	require.NoError(t, err)
	require.Len(t, links, 1)
	require.Equal(t, LinkKindAuto, links[0].Kind)
	require.Equal(t, "https://example.com/path", links[0].Destination)
}

func TestExtractLinks_EmailAutoLinkIgnored(t *testing.T) {
	links, err := ExtractLinks([]byte("<someone@example.com>"))
	require.NoError(t, err)
	require.Empty(t, links)
}

func TestExtractLinks_BareURLIgnored(t *testing.T) {
	links, err := ExtractLinks([]byte("Visit https://example.com today."))
	require.NoError(t, err)
	require.Empty(t, links)
}

func TestExtractLinks_ReferenceUsageNotDuplicated(t *testing.T) {
	src := []byte("See [API][ref].\n\n[ref]: api.md\n")
	links, err := ExtractLinks(src)
	require.NoError(t, err)
	require.Len(t, links, 1)
	require.Equal(t, LinkKindInline, links[0].Kind)
	require.Equal(t, "api.md", links[0].Destination)
}

func TestExtractLinks_UnusedReferenceDefinition(t *testing.T) {
	src := []byte("Intro\n\n[b]: b.md\n[a]: https://example.com/a\n")
	links, err := ExtractLinks(src)
	require.NoError(t, err)
	require.Equal(t, []string{"b.md", "https://example.com/a"}, destinations(links))
	require.Equal(t, LinkKindReferenceDefinition, links[0].Kind)
	require.Equal(t, 3, links[0].Line)
	require.Equal(t, 4, links[1].Line)
}

func TestExtractLinks_ReferenceDefinitionsInDocumentOrder(t *testing.T) {
	src := []byte("" +
		"[z]: z.md
" +
		"
" +
		"Middle [m](m.md).
" +
		"
" +
		"[a]: a.md
" +
		"
" +
		"End [e](e.md).
")
	links, err := ExtractLinks(src)
	require.NoError(t, err)
	require.Equal(t, []string{"z.md", "m.md", "a.md", "e.md"}, destinations(links))
	require.Equal(t, []int{1, 3, 5, 7}, []int{links[0].Line, links[1].Line, links[2].Line, links[3].Line})
}

func TestExtractLinks_SkipsInlineCodeAndCodeBlocks(t *testing.T) {
	src := []byte("" +
		"Inline code: `[Link](./ignored-inline.md)`\n" +
		"\n" +
		"```\n" +
		"[Link](./ignored-fence.md)\n" +
		"<a href=\"ignored.html\">x</a>\n" +
		"```\n" +
		"\n" +
		"    [Link](./ignored-indented.md)\n" +
		"\n" +
		"Real: [OK](./real.md)\n")

	links, err := ExtractLinks(src)
	require.NoError(t, err)
	require.Equal(t, []string{"./real.md"}, destinations(links))
	require.Equal(t, 10, links[0].Line)
}

func TestExtractLinks_RawHTML(t *testing.T) {
	src := []byte("" +
		"<div>\n" +
		"<a href=\"guide.md\">Guide</a>\n" +
		"<img src=\"logo.png\" alt=\"\">\n" +
		"</div>\n" +
		"\n" +
		"Inline <a href=\"https://example.com\">link</a> and <span>text</span>.\n")

	links, err := ExtractLinks(src)
	require.NoError(t, err)
	require.Equal(t, []string{"guide.md", "logo.png", "https://example.com"}, destinations(links))
	for _, l := range links {
		require.Equal(t, LinkKindHTML, l.Kind)
	}
	require.Equal(t, []int{2, 3, 6}, []int{links[0].Line, links[1].Line, links[2].Line})
}

func TestExtractLinks_DocumentOrderAndLines(t *testing.T) {
	src := []byte("# Title\n\nFirst [a](a.md).\n\n- item [b](#b)\n- item ![c](c.png)\n")
	links, err := ExtractLinks(src)
	require.NoError(t, err)
	require.Equal(t, []string{"a.md", "#b", "c.png"}, destinations(links))
	require.Equal(t, []int{3, 5, 6}, []int{links[0].Line, links[1].Line, links[2].Line})
}

func TestExtractLinks_NoLinks(t *testing.T) {
	links, err := ExtractLinks([]byte("# Nothing here\n\nJust text.\n"))
	require.NoError(t, err)
	require.Empty(t, links)
}
