package extract

import "strings"

const snippetLen = 500

// Stats summarizes an extraction result for the preview endpoint, which
// reports what extraction would produce without chunking or embedding.
type Stats struct {
	Chars int    `json:"chars"`
	Words int    `json:"words"`
	Lines int    `json:"lines"`
	Head  string `json:"head"`
	Tail  string `json:"tail"`
}

// TextStats computes character/word/line counts plus head and tail snippets.
func TextStats(text string) Stats {
	s := Stats{
		Chars: len(text),
		Words: len(strings.Fields(text)),
	}
	if text != "" {
		s.Lines = strings.Count(text, "\n") + 1
	}

	if len(text) <= snippetLen {
		s.Head = text
		s.Tail = text
	} else {
		s.Head = text[:snippetLen]
		s.Tail = text[len(text)-snippetLen:]
	}
	return s
}
