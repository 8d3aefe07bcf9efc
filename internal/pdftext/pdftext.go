// Package pdftext adapts a PDF on disk to the extractor's Document interface.
package pdftext

import (
	"fmt"
	"os"

	"github.com/ledongthuc/pdf"

	"github.com/verdant-labs/biodivminer/internal/extract"
)

type file struct {
	f *os.File
	r *pdf.Reader
}

// Open opens a PDF for page-text extraction.
func Open(path string) (extract.Document, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, err
	}
	return &file{f: f, r: r}, nil
}

func (d *file) PageCount() int { return d.r.NumPage() }

// PageText returns the plain text of the 1-based page n. The underlying
// parser panics on some malformed content streams; that is converted to an
// error so one broken page only fails its own document.
func (d *file) PageText(n int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("page %d: malformed content: %v", n, r)
		}
	}()
	page := d.r.Page(n)
	if page.V.IsNull() {
		return "", nil
	}
	return page.GetPlainText(nil)
}

func (d *file) Close() error { return d.f.Close() }
