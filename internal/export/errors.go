package export

import (
	"errors"
	"fmt"

	"github.com/Epistemic-Technology/pdf-sections-mcp/internal/sections"
)

// ExtractionError reports a section whose pages could not be copied.
type ExtractionError struct {
	SectionID   string
	SectionName string
	Cause       error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("failed to extract section %q: %v", e.SectionName, e.Cause)
}

func (e *ExtractionError) Unwrap() error {
	return e.Cause
}

// PackagingError reports a failure to serialize the archive after every
// section was extracted.
type PackagingError struct {
	Cause error
}

func (e *PackagingError) Error() string {
	return fmt.Sprintf("failed to package archive: %v", e.Cause)
}

func (e *PackagingError) Unwrap() error {
	return e.Cause
}

// IsPipelineError reports whether err was produced by the export pipeline
// itself, as opposed to document loading or cancellation.
func IsPipelineError(err error) bool {
	var (
		rangeErr      *sections.InvalidRangeError
		sectionErr    *sections.InvalidSectionError
		extractionErr *ExtractionError
		packagingErr  *PackagingError
	)
	return errors.Is(err, sections.ErrEmptySectionList) ||
		errors.As(err, &rangeErr) ||
		errors.As(err, &sectionErr) ||
		errors.As(err, &extractionErr) ||
		errors.As(err, &packagingErr)
}
