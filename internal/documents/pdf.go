package documents

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/Epistemic-Technology/pdf-sections-mcp/internal/sections"
	"github.com/Epistemic-Technology/pdf-sections-mcp/models"
)

// LoadError reports input that could not be parsed into a Document. It is
// raised before any export work starts.
type LoadError struct {
	Cause error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load PDF (it may be password protected or corrupted): %v", e.Cause)
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}

// Document is a parsed PDF addressable by 1-indexed page number. The
// underlying pdfcpu context is never handed out, and every access to it is
// serialized, so a Document can be shared between goroutines.
type Document struct {
	mu        sync.Mutex
	ctx       *model.Context
	pageCount int
	size      int
}

// Load parses raw bytes into a Document.
func Load(data []byte) (*Document, error) {
	if len(data) == 0 {
		return nil, &LoadError{Cause: errors.New("empty input")}
	}
	if docType := DetectDocumentType(data); docType != "pdf" {
		return nil, &LoadError{Cause: fmt.Errorf("not a PDF (detected %s)", docType)}
	}

	conf := model.NewDefaultConfiguration()
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil {
		return nil, &LoadError{Cause: err}
	}
	if ctx.PageCount < 1 {
		return nil, &LoadError{Cause: errors.New("document has no pages")}
	}

	return &Document{ctx: ctx, pageCount: ctx.PageCount, size: len(data)}, nil
}

// PageCount returns the total number of pages.
func (d *Document) PageCount() int {
	return d.pageCount
}

// Size returns the length in bytes of the source the document was loaded from.
func (d *Document) Size() int {
	return d.size
}

// Extract builds a new, independent PDF holding pages [s.StartPage,
// s.EndPage] of d in their original order and returns its bytes. A range
// that does not fit the document is rejected with *sections.InvalidRangeError.
func (d *Document) Extract(s models.Section) ([]byte, error) {
	if err := sections.CheckRange(s, d.pageCount); err != nil {
		return nil, err
	}

	// pdfcpu page numbers are 1-based as well, so the section range maps
	// onto them directly.
	pageNrs := make([]int, 0, s.PageCount())
	for nr := s.StartPage; nr <= s.EndPage; nr++ {
		pageNrs = append(pageNrs, nr)
	}

	d.mu.Lock()
	extracted, err := pdfcpu.ExtractPages(d.ctx, pageNrs, false)
	d.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("failed to copy pages %d-%d: %w", s.StartPage, s.EndPage, err)
	}

	var buf bytes.Buffer
	if err := api.WriteContext(extracted, &buf); err != nil {
		return nil, fmt.Errorf("failed to write pages %d-%d: %w", s.StartPage, s.EndPage, err)
	}
	return buf.Bytes(), nil
}

// ExtractPage returns a single-page PDF for page pageNr.
func (d *Document) ExtractPage(pageNr int) ([]byte, error) {
	return d.Extract(models.Section{Name: fmt.Sprintf("page %d", pageNr), StartPage: pageNr, EndPage: pageNr})
}

// PageText returns a best-effort plain text rendering of page pageNr,
// taken from string operands of the page's text operators.
func (d *Document) PageText(pageNr int) (string, error) {
	if pageNr < 1 || pageNr > d.pageCount {
		return "", fmt.Errorf("page %d out of range (1-%d)", pageNr, d.pageCount)
	}

	d.mu.Lock()
	r, err := pdfcpu.ExtractPageContent(d.ctx, pageNr)
	if err != nil {
		d.mu.Unlock()
		return "", fmt.Errorf("failed to read content of page %d: %w", pageNr, err)
	}
	var data []byte
	if r != nil {
		data, err = io.ReadAll(r)
	}
	d.mu.Unlock()
	if err != nil {
		return "", fmt.Errorf("failed to read content of page %d: %w", pageNr, err)
	}

	return extractTextFromStream(data), nil
}
