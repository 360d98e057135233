// Package pdf extracts text from PDF files and cuts it into content-sized chunks.
package pdf

import (
	"fmt"
	"io"
	"strings"

	lpdf "github.com/ledongthuc/pdf"
	"golang.org/x/text/unicode/norm"
)

// Page is the plain text of one PDF page. Number is 1-based.
type Page struct {
	Number int
	Text   string
}

// ExtractPages returns the NFC-normalized plain text of every page that has
// any. Pages without a text layer are skipped.
func ExtractPages(r io.ReaderAt, size int64) (pages []Page, err error) {
	// The parser panics on some malformed inputs.
	defer func() {
		if rec := recover(); rec != nil {
			pages, err = nil, fmt.Errorf("pdf parse: %v", rec)
		}
	}()

	reader, err := lpdf.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("pdf reader: %w", err)
	}

	n := reader.NumPage()
	pages = make([]Page, 0, n)
	for i := 1; i <= n; i++ {
		p := reader.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("pdf page %d: %w", i, err)
		}
		text = strings.TrimSpace(norm.NFC.String(text))
		if text == "" {
			continue
		}
		pages = append(pages, Page{Number: i, Text: text})
	}
	return pages, nil
}
