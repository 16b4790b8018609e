package extract

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// pdfStrategy is one way of pulling text out of a PDF. Strategies are tried
// in order and the one yielding the longest cleaned text wins.
type pdfStrategy struct {
	name string
	fn   func(*pdf.Reader) (string, error)
}

var pdfStrategies = []pdfStrategy{
	{name: "layout", fn: extractPDFLayout},
	{name: "plaintext", fn: extractPDFPlainText},
}

// extractPDF runs every strategy and keeps the best successful result,
// measured by cleaned-text length. Scanned or image-only PDFs where no
// strategy yields text produce an ExtractionError.
func (e *Extractor) extractPDF(content []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", &ExtractionError{Reason: "unreadable PDF", Err: err}
	}

	var best string
	var lastErr error
	for _, strat := range pdfStrategies {
		text, err := runPDFStrategy(strat, reader)
		if err != nil {
			lastErr = err
			continue
		}
		cleaned := CleanText(text)
		if len(cleaned) > len(best) {
			best = cleaned
		}
	}

	if best == "" {
		return "", &ExtractionError{Reason: "no text extracted", Err: lastErr}
	}
	return best, nil
}

// runPDFStrategy isolates a single strategy. The pdf library panics on some
// malformed files; a panic here fails the strategy, not the request.
func runPDFStrategy(strat pdfStrategy, reader *pdf.Reader) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf %s strategy panicked: %v", strat.name, r)
		}
	}()
	return strat.fn(reader)
}

// extractPDFLayout walks styled text runs page by page, grouping runs into
// rows by their Y coordinate so reading order survives multi-column noise.
func extractPDFLayout(reader *pdf.Reader) (string, error) {
	var pages []string
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		texts := page.Content().Text
		if len(texts) == 0 {
			continue
		}

		// Stable grouping: rows top to bottom, runs left to right.
		rows := make(map[int][]pdf.Text)
		var ys []int
		for _, t := range texts {
			y := int(t.Y)
			if _, seen := rows[y]; !seen {
				ys = append(ys, y)
			}
			rows[y] = append(rows[y], t)
		}
		sort.Sort(sort.Reverse(sort.IntSlice(ys)))

		var sb strings.Builder
		for _, y := range ys {
			line := rows[y]
			sort.Slice(line, func(a, b int) bool { return line[a].X < line[b].X })
			for _, t := range line {
				sb.WriteString(t.S)
			}
			sb.WriteByte('\n')
		}
		pages = append(pages, sb.String())
	}
	return strings.Join(pages, "\n\n"), nil
}

// extractPDFPlainText is the simple page-by-page text stream reader.
func extractPDFPlainText(reader *pdf.Reader) (string, error) {
	var pages []string
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if text != "" {
			pages = append(pages, text)
		}
	}
	return strings.Join(pages, "\n\n"), nil
}
