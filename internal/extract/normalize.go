package extract

import (
	"regexp"
	"strings"
)

var (
	reHardSpace       = regexp.MustCompile(`[ \t]+`)
	reMultiBlank      = regexp.MustCompile(`\n{2,}`)
	reSplitSalutation = regexp.MustCompile(`(Herr|Frau)\s*\n\s*([A-ZÄÖÜ])`)

	// Allow-list: letters incl. German umlauts/ß, digits, ". , : / ( ) -",
	// newline and space. Everything else is scanner noise.
	reGarbage = regexp.MustCompile(`[^0-9A-Za-zÄÖÜäöüß.,:/()\-\n ]`)
)

// Normalize cleans raw page text into the canonical form the field
// extractor matches against. Purely lexical, no extraction logic.
// Idempotent: Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	s = strings.ReplaceAll(s, "\r", "")
	s = reHardSpace.ReplaceAllString(s, " ")
	s = reMultiBlank.ReplaceAllString(s, "\n")
	// OCR likes to break "Herr\nMax Mustermann" across lines; rejoin so
	// the address block stays recognizable.
	s = reSplitSalutation.ReplaceAllString(s, "$1 $2")
	s = reGarbage.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}
