package extract

import (
	"regexp"
	"strings"
)

// smartChars maps typographic characters produced by PDF extraction back to
// their plain ASCII equivalents.
var smartChars = strings.NewReplacer(
	"‘", "'", // left single quote
	"’", "'", // right single quote
	"“", `"`, // left double quote
	"”", `"`, // right double quote
	"–", "-", // en dash
	"—", "-", // em dash
	" ", " ", // non-breaking space
	"ﬁ", "fi", // fi ligature
	"ﬂ", "fl", // fl ligature
)

var (
	multiSpace = regexp.MustCompile(`[ \t]+`)
	multiBlank = regexp.MustCompile(`\n{3,}`)
	// Stray single letters (other than a/A/I) are usually scanner debris.
	strayLetter = regexp.MustCompile(`(?:^| )[b-hj-zB-HJ-Z](?: |$)`)
	// Long consonant-only runs are OCR noise, not words.
	consonantRun = regexp.MustCompile(`\b[bcdfghjklmnpqrstvwxz]{8,}\b`)
)

// CleanText normalizes whitespace and typographic characters and strips
// common artifacts of noisy PDF/OCR extraction.
func CleanText(text string) string {
	if text == "" {
		return ""
	}

	text = smartChars.Replace(text)
	text = consonantRun.ReplaceAllString(text, " ")

	// strayLetter anchors on the surrounding spaces, so adjacent stray
	// letters need a second pass.
	text = strayLetter.ReplaceAllString(text, " ")
	text = strayLetter.ReplaceAllString(text, " ")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(multiSpace.ReplaceAllString(line, " "))
	}
	text = strings.Join(lines, "\n")
	text = multiBlank.ReplaceAllString(text, "\n\n")

	return strings.TrimSpace(text)
}
