package discovery

import (
	"strings"

	"github.com/inful/mdfp"

	"git.home.luguber.info/inful/mdlinkcheck/internal/frontmatter"
)

// Fingerprint returns the content fingerprint of a parsed document. Two
// documents with equal fingerprints yield the same links.
func Fingerprint(doc frontmatter.Document) string {
	fm := strings.TrimSuffix(strings.ReplaceAll(string(doc.Raw), "\r\n", "\n"), "\n")
	return mdfp.CalculateFingerprintFromParts(fm, string(doc.Body))
}
