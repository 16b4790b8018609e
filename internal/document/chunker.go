package document

import "strings"

// defaultSeparators is the split priority: paragraph breaks first, then
// line breaks, then sentence punctuation, then words, then raw characters.
var defaultSeparators = []string{"\n\n", "\n", ". ", "? ", "! ", " ", ""}

// Chunker splits extracted text into bounded, overlapping segments. It
// tries the separators in priority order so chunks stay as semantically
// coherent as the text allows.
type Chunker struct {
	size       int
	overlap    int
	separators []string
}

// NewChunker creates a Chunker with the given maximum chunk size and
// overlap between consecutive chunks, both in characters.
func NewChunker(chunkSize, chunkOverlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = chunkSize / 5
	}
	return &Chunker{
		size:       chunkSize,
		overlap:    chunkOverlap,
		separators: defaultSeparators,
	}
}

// ChunkDocument splits text into Chunks for the given document. Offsets are
// a running cursor over the emitted chunk stream (see Chunk). Empty input
// yields no chunks; any non-empty input yields at least one.
func (c *Chunker) ChunkDocument(text, documentID string, meta Document) []Chunk {
	pieces := c.Split(text)
	if len(pieces) == 0 {
		return nil
	}

	chunks := make([]Chunk, 0, len(pieces))
	cursor := 0
	for i, piece := range pieces {
		chunks = append(chunks, Chunk{
			ID:         ChunkID(documentID, i),
			DocumentID: documentID,
			Text:       piece,
			Index:      i,
			StartChar:  cursor,
			EndChar:    cursor + len(piece),
			Meta:       meta,
		})
		cursor += len(piece)
	}
	return chunks
}

// Split breaks text into segments of at most the configured chunk size.
// It is a pure function of its inputs.
func (c *Chunker) Split(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	return c.splitRecursive(text, c.separators)
}

func (c *Chunker) splitRecursive(text string, seps []string) []string {
	if len(text) <= c.size {
		return []string{text}
	}

	sep, rest := pickSeparator(text, seps)
	if sep == "" {
		return c.splitByLength(text)
	}

	parts := strings.SplitAfter(text, sep)

	var out []string
	var window []string
	windowLen := 0

	// flush emits the current window as a chunk and retains a tail of
	// trailing parts up to the overlap budget as the seed of the next one.
	flush := func() {
		if windowLen == 0 {
			return
		}
		chunk := strings.TrimSpace(strings.Join(window, ""))
		if chunk != "" {
			out = append(out, chunk)
		}
		var kept []string
		keptLen := 0
		for i := len(window) - 1; i >= 0; i-- {
			if keptLen+len(window[i]) > c.overlap {
				break
			}
			kept = append([]string{window[i]}, kept...)
			keptLen += len(window[i])
		}
		window = kept
		windowLen = keptLen
	}

	for _, part := range parts {
		if len(part) > c.size {
			// Part is itself oversized: emit what we have and recurse with
			// the lower-priority separators.
			flush()
			window = nil
			windowLen = 0
			out = append(out, c.splitRecursive(part, rest)...)
			continue
		}
		if windowLen > 0 && windowLen+len(part) > c.size {
			flush()
			if windowLen+len(part) > c.size {
				window = nil
				windowLen = 0
			}
		}
		window = append(window, part)
		windowLen += len(part)
	}
	flush()

	return out
}

// splitByLength is the last-resort strategy: fixed-size character windows
// advanced by size-overlap.
func (c *Chunker) splitByLength(text string) []string {
	step := c.size - c.overlap
	if step <= 0 {
		step = c.size
	}
	var out []string
	for start := 0; start < len(text); start += step {
		end := start + c.size
		if end > len(text) {
			end = len(text)
		}
		out = append(out, text[start:end])
		if end == len(text) {
			break
		}
	}
	return out
}

// pickSeparator returns the highest-priority separator present in text and
// the remaining lower-priority separators for recursion.
func pickSeparator(text string, seps []string) (string, []string) {
	for i, s := range seps {
		if s == "" {
			return "", nil
		}
		if strings.Contains(text, s) {
			return s, seps[i+1:]
		}
	}
	return "", nil
}
