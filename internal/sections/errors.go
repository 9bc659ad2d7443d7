package sections

import (
	"errors"
	"fmt"
)

// ErrEmptySectionList is returned when there is nothing to export.
var ErrEmptySectionList = errors.New("no sections to export")

// ErrSectionNotFound is returned by list edits that reference an unknown id.
var ErrSectionNotFound = errors.New("section not found")

// InvalidRangeError reports a section whose range violates
// 1 <= start <= end <= totalPages.
type InvalidRangeError struct {
	SectionID   string
	SectionName string
	Start       int
	End         int
	TotalPages  int
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid page range in section %q: %d-%d (document has %d pages)",
		e.SectionName, e.Start, e.End, e.TotalPages)
}

// InvalidSectionError reports a structurally malformed section record.
type InvalidSectionError struct {
	Index  int
	Reason string
}

func (e *InvalidSectionError) Error() string {
	return fmt.Sprintf("invalid section at position %d: %s", e.Index+1, e.Reason)
}
