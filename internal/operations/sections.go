package operations

import (
	"context"
	"fmt"

	"github.com/Epistemic-Technology/pdf-sections-mcp/internal/llm"
	"github.com/Epistemic-Technology/pdf-sections-mcp/internal/logger"
	"github.com/Epistemic-Technology/pdf-sections-mcp/internal/sections"
	"github.com/Epistemic-Technology/pdf-sections-mcp/internal/storage"
	"github.com/Epistemic-Technology/pdf-sections-mcp/models"
)

// SetSections normalizes and stores list as the document's current list.
// Ranges are not checked here.
func SetSections(ctx context.Context, docID string, list []models.Section, store storage.Store) (sections.List, error) {
	normalized, err := sections.Normalize(list)
	if err != nil {
		return nil, err
	}
	if err := store.SaveSections(ctx, docID, normalized); err != nil {
		return nil, err
	}
	return normalized, nil
}

// AddSection appends a new section after the last one.
func AddSection(ctx context.Context, docID string, store storage.Store) (sections.List, models.Section, error) {
	info, err := store.GetDocumentInfo(ctx, docID)
	if err != nil {
		return nil, models.Section{}, err
	}
	current, err := store.GetSections(ctx, docID)
	if err != nil {
		return nil, models.Section{}, err
	}
	list, added := sections.List(current).Add(info.PageCount)
	if err := store.SaveSections(ctx, docID, list); err != nil {
		return nil, models.Section{}, err
	}
	return list, added, nil
}

// UpdateSection applies patch to one section.
func UpdateSection(ctx context.Context, docID, sectionID string, patch sections.Patch, store storage.Store) (sections.List, error) {
	return editSections(ctx, docID, store, func(l sections.List) (sections.List, error) {
		updated, err := l.Update(sectionID, patch)
		if err != nil {
			return nil, err
		}
		// A patched name may end up blank.
		return sections.Normalize(updated)
	})
}

// RemoveSection drops one section.
func RemoveSection(ctx context.Context, docID, sectionID string, store storage.Store) (sections.List, error) {
	return editSections(ctx, docID, store, func(l sections.List) (sections.List, error) {
		return l.Remove(sectionID)
	})
}

func editSections(ctx context.Context, docID string, store storage.Store, edit func(sections.List) (sections.List, error)) (sections.List, error) {
	exists, err := store.DocumentExists(ctx, docID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, docID)
	}
	current, err := store.GetSections(ctx, docID)
	if err != nil {
		return nil, err
	}
	list, err := edit(current)
	if err != nil {
		return nil, err
	}
	if err := store.SaveSections(ctx, docID, list); err != nil {
		return nil, err
	}
	return list, nil
}

// ValidateSections checks the current list against the document's page count.
// The returned error is nil or a validation error from the sections package.
func ValidateSections(ctx context.Context, docID string, store storage.Store) (sections.List, int, error) {
	info, err := store.GetDocumentInfo(ctx, docID)
	if err != nil {
		return nil, 0, err
	}
	list, err := store.GetSections(ctx, docID)
	if err != nil {
		return nil, 0, err
	}
	return list, info.PageCount, sections.Validate(list, info.PageCount)
}

// SuggestParams configures a suggestion request.
type SuggestParams struct {
	APIKey  string
	Options llm.SuggestOptions
}

// SuggestSections asks the model for a breakdown of the document and stores
// the result as the current list. Out-of-range suggestions are kept; they
// fail validation at export like any other range.
func SuggestSections(ctx context.Context, docID string, params SuggestParams, store storage.Store, log logger.Logger) (sections.List, error) {
	loaded, err := OpenDocument(ctx, docID, store)
	if err != nil {
		return nil, err
	}
	suggested, err := llm.SuggestSections(ctx, params.APIKey, loaded.Document, params.Options, log)
	if err != nil {
		return nil, err
	}
	if len(suggested) == 0 {
		log.Warn("No sections suggested for %s, keeping the current list", docID)
		return loaded.Sections, nil
	}
	list, err := sections.FromSuggestions(suggested)
	if err != nil {
		return nil, err
	}
	if err := store.SaveSections(ctx, docID, list); err != nil {
		return nil, err
	}
	if err := sections.Validate(list, loaded.Document.PageCount()); err != nil {
		log.Warn("Suggested sections for %s do not validate yet: %v", docID, err)
	}
	return list, nil
}
