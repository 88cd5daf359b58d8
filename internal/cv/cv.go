// Package cv inspects the résumé PDF offered by the hero's "Download CV"
// button. It does not render anything; it only tells the viewer whether the
// document can be shown and how many pages it has.
package cv

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/ledongthuc/pdf"
)

var (
	ErrMissing = errors.New("cv: document not found")
	ErrNotPDF  = errors.New("cv: not a PDF document")
	ErrNoPages = errors.New("cv: document has no pages")
)

// maxSize bounds how much of a document is read.
const maxSize = 20 << 20

type Document struct {
	Path  string
	Pages int
	Size  int64
}

// Load reads the document at path and reports its page count.
func Load(path string) (*Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissing, path)
		}
		return nil, fmt.Errorf("stat cv: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrNotPDF, path)
	}
	if info.Size() > maxSize {
		return nil, fmt.Errorf("cv: %s is larger than %d bytes", path, maxSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cv: %w", err)
	}
	pages, err := CountPages(data)
	if err != nil {
		return nil, err
	}
	return &Document{Path: path, Pages: pages, Size: info.Size()}, nil
}

// CountPages reads the document's cross-reference data, including xref and
// object streams, and returns the page count declared by its page tree.
func CountPages(data []byte) (n int, err error) {
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		return 0, ErrNotPDF
	}
	// The reader panics on objects it cannot resolve.
	defer func() {
		if r := recover(); r != nil {
			n, err = 0, fmt.Errorf("%w: %v", ErrNotPDF, r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrNotPDF, err)
	}
	n = r.NumPage()
	if n <= 0 || r.Page(1).V.IsNull() {
		return 0, ErrNoPages
	}
	return n, nil
}
