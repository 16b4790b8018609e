package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"strings"
)

// documentXML mirrors the parts of word/document.xml we care about.
type documentXML struct {
	Body struct {
		Paragraphs []docxParagraph `xml:"p"`
	} `xml:"body"`
}

type docxParagraph struct {
	Runs []docxRun `xml:"r"`
}

type docxRun struct {
	Text []docxText `xml:"t"`
}

type docxText struct {
	Content string `xml:",chardata"`
}

// extractDOCX opens the document as a ZIP archive and concatenates all
// paragraph texts from word/document.xml, separated by blank lines.
func (e *Extractor) extractDOCX(content []byte) (string, error) {
	reader, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", &ExtractionError{Reason: "not a valid DOCX archive", Err: err}
	}

	for _, file := range reader.File {
		if file.Name != "word/document.xml" {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return "", &ExtractionError{Reason: "cannot open document.xml", Err: err}
		}
		raw, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", &ExtractionError{Reason: "cannot read document.xml", Err: err}
		}

		var doc documentXML
		if err := xml.Unmarshal(raw, &doc); err != nil {
			return "", &ExtractionError{Reason: "malformed document.xml", Err: err}
		}

		paragraphs := make([]string, 0, len(doc.Body.Paragraphs))
		for _, para := range doc.Body.Paragraphs {
			var sb strings.Builder
			for _, run := range para.Runs {
				for _, t := range run.Text {
					sb.WriteString(t.Content)
				}
			}
			paragraphs = append(paragraphs, sb.String())
		}
		return strings.TrimSpace(strings.Join(paragraphs, "\n\n")), nil
	}

	return "", &ExtractionError{Reason: "document.xml missing from DOCX archive"}
}
