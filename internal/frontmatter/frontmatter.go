// Package frontmatter separates YAML front matter from Markdown documents.
package frontmatter

import (
	"bytes"
	"errors"

	"gopkg.in/yaml.v3"
)

// ErrMissingClosingDelimiter indicates the document opened a front matter
// block with `---` but never closed it.
var ErrMissingClosingDelimiter = errors.New("front matter start delimiter found but closing delimiter is missing")

// Document is a Markdown file split into its front matter and body.
type Document struct {
	Raw    []byte         // front matter without delimiters, nil when absent
	Fields map[string]any // parsed front matter, empty when absent
	Body   []byte
	// BodyLine is the 1-based line number of the first body line in the file.
	BodyLine int
}

// Has reports whether the document carried a front matter block.
func (d Document) Has() bool { return d.Raw != nil }

// Split separates YAML front matter (`---` delimited) from the Markdown body.
//
// A document that does not start with `---` is returned as body only.
func Split(content []byte) (fm []byte, body []byte, had bool, err error) {
	nl := detectNewline(content)
	open := []byte("---" + nl)
	if !bytes.HasPrefix(content, open) {
		return nil, content, false, nil
	}

	start := len(open)
	if bytes.HasPrefix(content[start:], open) {
		return []byte{}, content[start+len(open):], true, nil
	}

	closeSeq := []byte(nl + "---" + nl)
	idx := bytes.Index(content[start:], closeSeq)
	if idx < 0 {
		// a closing delimiter on the last line without trailing newline
		tail := []byte(nl + "---")
		if bytes.HasSuffix(content, tail) {
			end := len(content) - len(tail)
			return content[start : end+len(nl)], []byte{}, true, nil
		}
		return nil, nil, false, ErrMissingClosingDelimiter
	}

	end := start + idx + len(nl)
	return content[start:end], content[start+idx+len(closeSeq):], true, nil
}

// Parse splits content and decodes the YAML front matter.
func Parse(content []byte) (Document, error) {
	raw, body, had, err := Split(content)
	if err != nil {
		return Document{}, err
	}
	doc := Document{Body: body, BodyLine: 1, Fields: map[string]any{}}
	if !had {
		return doc, nil
	}

	doc.Raw = raw
	doc.BodyLine = bytes.Count(content[:len(content)-len(body)], []byte("\n")) + 1
	fields, err := ParseYAML(raw)
	if err != nil {
		return Document{}, err
	}
	doc.Fields = fields
	return doc, nil
}

// ParseYAML parses raw YAML front matter (without --- delimiters) into a map.
func ParseYAML(fm []byte) (map[string]any, error) {
	if len(fm) == 0 {
		return map[string]any{}, nil
	}

	var fields map[string]any
	if err := yaml.Unmarshal(fm, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}

// Bool returns a boolean front matter field. ok is false when the key is
// missing or not a boolean.
func (d Document) Bool(key string) (value bool, ok bool) {
	v, present := d.Fields[key]
	if !present {
		return false, false
	}
	b, isBool := v.(bool)
	return b, isBool
}

// LinkCheckDisabled reports whether the document opted out with `linkcheck: false`.
func (d Document) LinkCheckDisabled() bool {
	v, ok := d.Bool("linkcheck")
	return ok && !v
}

func detectNewline(content []byte) string {
	if i := bytes.IndexByte(content, '\n'); i > 0 && content[i-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}
