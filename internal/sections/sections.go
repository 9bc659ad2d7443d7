// Package sections models the ordered list of named page ranges a document
// is split into.
package sections

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Epistemic-Technology/pdf-sections-mcp/models"
)

// List is an ordered sequence of sections. Order determines archive order.
type List []models.Section

// Patch is a partial update. Nil fields are left unchanged.
type Patch struct {
	Name      *string
	StartPage *int
	EndPage   *int
}

// NewID returns a fresh opaque section identifier.
func NewID() string {
	return uuid.NewString()
}

// NewDefaultList returns the single section covering the whole document.
func NewDefaultList(totalPages int) List {
	return List{{
		ID:        NewID(),
		Name:      "Section 1",
		StartPage: 1,
		EndPage:   totalPages,
	}}
}

// NextStart suggests the start page of a section appended to the list:
// one past the previous end, clamped to totalPages.
func (l List) NextStart(totalPages int) int {
	if len(l) == 0 {
		return 1
	}
	return min(l[len(l)-1].EndPage+1, totalPages)
}

// Add appends a new section running from NextStart to the last page and
// returns the extended list together with the new section.
func (l List) Add(totalPages int) (List, models.Section) {
	s := models.Section{
		ID:        NewID(),
		Name:      fmt.Sprintf("Section %d", len(l)+1),
		StartPage: l.NextStart(totalPages),
		EndPage:   totalPages,
	}
	return append(l.Clone(), s), s
}

// Update applies patch to the section with the given id.
func (l List) Update(id string, patch Patch) (List, error) {
	i := l.index(id)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrSectionNotFound, id)
	}
	out := l.Clone()
	if patch.Name != nil {
		out[i].Name = *patch.Name
	}
	if patch.StartPage != nil {
		out[i].StartPage = *patch.StartPage
	}
	if patch.EndPage != nil {
		out[i].EndPage = *patch.EndPage
	}
	return out, nil
}

// Remove drops the section with the given id.
func (l List) Remove(id string) (List, error) {
	i := l.index(id)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrSectionNotFound, id)
	}
	out := make(List, 0, len(l)-1)
	out = append(out, l[:i]...)
	return append(out, l[i+1:]...), nil
}

// Clone returns a copy that shares no backing array with l.
func (l List) Clone() List {
	if l == nil {
		return nil
	}
	out := make(List, len(l))
	copy(out, l)
	return out
}

func (l List) index(id string) int {
	for i, s := range l {
		if s.ID == id {
			return i
		}
	}
	return -1
}

// FromSuggestions converts loosely typed records into a List with fresh
// identifiers. Ranges are kept as given; Validate decides on them later.
func FromSuggestions(suggested []models.SuggestedSection) (List, error) {
	out := make(List, 0, len(suggested))
	for i, s := range suggested {
		name := strings.TrimSpace(s.Name)
		if name == "" {
			return nil, &InvalidSectionError{Index: i, Reason: "name is empty"}
		}
		out = append(out, models.Section{
			ID:        NewID(),
			Name:      name,
			StartPage: s.StartPage,
			EndPage:   s.EndPage,
		})
	}
	return out, nil
}

// Normalize trims names, assigns identifiers to sections that have none and
// rejects empty names or duplicate identifiers.
func Normalize(list List) (List, error) {
	out := list.Clone()
	seen := make(map[string]bool, len(out))
	for i := range out {
		out[i].Name = strings.TrimSpace(out[i].Name)
		if out[i].Name == "" {
			return nil, &InvalidSectionError{Index: i, Reason: "name is empty"}
		}
		if out[i].ID == "" {
			out[i].ID = NewID()
		}
		if seen[out[i].ID] {
			return nil, &InvalidSectionError{Index: i, Reason: fmt.Sprintf("duplicate id %q", out[i].ID)}
		}
		seen[out[i].ID] = true
	}
	return out, nil
}
