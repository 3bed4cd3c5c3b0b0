// Package markdown extracts link targets from Markdown bodies.
//
// Only real Markdown link syntax is recognised: inline links, images,
// autolinks, reference definitions and href/src attributes in raw HTML.
// Bare URLs in prose are not links and are ignored, as is anything inside
// code spans or code blocks.
package markdown

import (
	"bytes"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"golang.org/x/net/html"
)

// LinkKind names the Markdown construct a link target came from.
type LinkKind string

const (
	LinkKindInline              LinkKind = "inline" // also reference-style usages, resolved by the parser
	LinkKindImage               LinkKind = "image"
	LinkKindAuto                LinkKind = "auto"
	LinkKindReferenceDefinition LinkKind = "reference_definition"
	LinkKindHTML                LinkKind = "html"
)

// Link is a raw target found in a Markdown body. Line is 1-based within the
// body passed to ExtractLinks, 0 when unknown.
type Link struct {
	Kind        LinkKind
	Destination string
	Line        int
}

// htmlLinkAttrs lists the raw HTML attributes that carry link targets.
var htmlLinkAttrs = map[string]string{
	"a":      "href",
	"img":    "src",
	"source": "src",
}

var md = goldmark.New(goldmark.WithExtensions(extension.Table, extension.Strikethrough))

// ExtractLinks parses a Markdown body (front matter already removed) and
// returns its link targets in document order.
func ExtractLinks(body []byte) ([]Link, error) {
	ctx := parser.NewContext()
	root := md.Parser().Parse(text.NewReader(body), parser.WithContext(ctx))
	lines := newLineIndex(body)

	links := make([]Link, 0)
	used := make(map[string]struct{})
	err := gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *gmast.AutoLink:
			if node.AutoLinkType != gmast.AutoLinkURL {
				return gmast.WalkSkipChildren, nil
			}
			links = append(links, Link{Kind: LinkKindAuto, Destination: string(node.URL(body)), Line: lines.lineOf(nodeOffset(node))})
			return gmast.WalkSkipChildren, nil
		case *gmast.Image:
			dest := string(node.Destination)
			used[dest] = struct{}{}
			links = append(links, Link{Kind: LinkKindImage, Destination: dest, Line: lines.lineOf(nodeOffset(node))})
		case *gmast.Link:
			// reference-style usages arrive here already resolved
			dest := string(node.Destination)
			used[dest] = struct{}{}
			links = append(links, Link{Kind: LinkKindInline, Destination: dest, Line: lines.lineOf(nodeOffset(node))})
		case *gmast.HTMLBlock:
			var raw bytes.Buffer
			segs := node.Lines()
			for i := 0; i < segs.Len(); i++ {
				seg := segs.At(i)
				raw.Write(seg.Value(body))
			}
			if node.HasClosure() {
				raw.Write(node.ClosureLine.Value(body))
			}
			links = append(links, htmlLinks(raw.Bytes(), lines.lineOf(nodeOffset(node)))...)
		case *gmast.RawHTML:
			var raw bytes.Buffer
			for i := 0; i < node.Segments.Len(); i++ {
				seg := node.Segments.At(i)
				raw.Write(seg.Value(body))
			}
			links = append(links, htmlLinks(raw.Bytes(), lines.lineOf(nodeOffset(node)))...)
		}
		return gmast.WalkContinue, nil
	})
	if err != nil {
		return nil, err
	}

	// Definitions live in the parse context, not the AST. Ones already
	// consumed by a link above would only duplicate that result.
	var defs []Link
	for _, ref := range ctx.References() {
		dest := string(ref.Destination())
		if _, ok := used[dest]; ok {
			continue
		}
		used[dest] = struct{}{}
		defs = append(defs, Link{Kind: LinkKindReferenceDefinition, Destination: dest, Line: lines.find(dest)})
	}

	return mergeByLine(links, defs), nil
}

// mergeByLine inserts defs into links by line number, keeping the order of
// links untouched. Definitions with an unknown line go last.
func mergeByLine(links, defs []Link) []Link {
	if len(defs) == 0 {
		return links
	}
	sort.Slice(defs, func(i, j int) bool {
		if a, b := lineKey(defs[i].Line), lineKey(defs[j].Line); a != b {
			return a < b
		}
		return defs[i].Destination < defs[j].Destination
	})
	out := make([]Link, 0, len(links)+len(defs))
	i := 0
	for _, d := range defs {
		for i < len(links) && lineKey(links[i].Line) <= lineKey(d.Line) {
			out = append(out, links[i])
			i++
		}
		out = append(out, d)
	}
	return append(out, links[i:]...)
}

func lineKey(line int) int {
	if line <= 0 {
		return int(^uint(0) >> 1)
	}
	return line
}

// htmlLinks tokenizes a raw HTML fragment starting at line and returns
// href/src targets, each on the line its tag opens.
func htmlLinks(raw []byte, line int) []Link {
	var out []Link
	z := html.NewTokenizer(bytes.NewReader(raw))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			return out
		}
		tagLine := line
		line += bytes.Count(z.Raw(), []byte("\n"))
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			continue
		}
		tok := z.Token()
		want, ok := htmlLinkAttrs[tok.Data]
		if !ok {
			continue
		}
		for _, attr := range tok.Attr {
			if attr.Key == want && strings.TrimSpace(attr.Val) != "" {
				out = append(out, Link{Kind: LinkKindHTML, Destination: strings.TrimSpace(attr.Val), Line: tagLine})
			}
		}
	}
}

// nodeOffset returns the byte offset of the first source segment at or below n, or -1.
func nodeOffset(n gmast.Node) int {
	switch node := n.(type) {
	case *gmast.Text:
		return node.Segment.Start
	case *gmast.RawHTML:
		if node.Segments.Len() > 0 {
			return node.Segments.At(0).Start
		}
	}
	if n.Type() == gmast.TypeBlock && n.Lines().Len() > 0 {
		return n.Lines().At(0).Start
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if off := nodeOffset(c); off >= 0 {
			return off
		}
	}
	if p := n.Parent(); p != nil && n.Type() == gmast.TypeInline {
		for ; p != nil; p = p.Parent() {
			if p.Type() == gmast.TypeBlock && p.Lines().Len() > 0 {
				return p.Lines().At(0).Start
			}
		}
	}
	return -1
}

// lineIndex maps byte offsets to 1-based line numbers.
type lineIndex struct {
	src    []byte
	starts []int
}

func newLineIndex(src []byte) lineIndex {
	starts := []int{0}
	for i, b := range src {
		if b == '\n' {
			starts = append(starts, i+1)
		}
	}
	return lineIndex{src: src, starts: starts}
}

func (l lineIndex) lineOf(offset int) int {
	if offset < 0 {
		return 0
	}
	return sort.Search(len(l.starts), func(i int) bool { return l.starts[i] > offset })
}

// find returns the line of the first occurrence of s, or 0.
func (l lineIndex) find(s string) int {
	if s == "" {
		return 0
	}
	return l.lineOf(bytes.Index(l.src, []byte(s)))
}
