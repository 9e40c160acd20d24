package domain

import (
	"regexp"
	"strings"
)

var (
	nonAlnumRe = regexp.MustCompile(`[^a-z0-9\s]`)
	spaceRe    = regexp.MustCompile(`\s+`)

	// U+0130 lower-cases to "i" plus a combining dot above under full case
	// mapping. unicode.ToLower drops the dot, which would merge keys that
	// the full mapping keeps apart.
	dottedCapitalI = strings.NewReplacer("\u0130", "i\u0307")
)

type rewrite struct {
	re   *regexp.Regexp
	repl string
}

// abbreviations are applied in order. Unit designators are dropped entirely.
var abbreviations = []rewrite{
	{regexp.MustCompile(`\b(street|st)\b`), " st "},
	{regexp.MustCompile(`\b(avenue|ave)\b`), " ave "},
	{regexp.MustCompile(`\b(road|rd)\b`), " rd "},
	{regexp.MustCompile(`\b(boulevard|blvd)\b`), " blvd "},
	{regexp.MustCompile(`\b(place|pl)\b`), " pl "},
	{regexp.MustCompile(`\b(court|ct)\b`), " ct "},
	{regexp.MustCompile(`\b(apartment|apt|unit|floor|fl)\b`), " "},
}

// Normalize canonicalizes an address or owner name for comparison:
// lower-case, punctuation stripped, street types and unit designators
// rewritten, whitespace collapsed. It is idempotent.
func Normalize(text string) string {
	s := strings.ToLower(dottedCapitalI.Replace(strings.TrimSpace(text)))
	if s == "" {
		return ""
	}
	s = strings.ReplaceAll(s, "#", " ")
	s = nonAlnumRe.ReplaceAllString(s, " ")
	for _, r := range abbreviations {
		s = r.re.ReplaceAllString(s, r.repl)
	}
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}
