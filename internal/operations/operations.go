// Package operations holds the document workflows shared by tools and
// resources: loading, section editing, suggestion and export.
package operations

import (
	"context"
	"errors"
	"fmt"

	"github.com/Epistemic-Technology/pdf-sections-mcp/internal/documents"
	"github.com/Epistemic-Technology/pdf-sections-mcp/internal/logger"
	"github.com/Epistemic-Technology/pdf-sections-mcp/internal/sections"
	"github.com/Epistemic-Technology/pdf-sections-mcp/internal/storage"
	"github.com/Epistemic-Technology/pdf-sections-mcp/models"
)

// LoadParams names exactly one document source.
type LoadParams struct {
	ZoteroID string
	URL      string
	RawData  []byte
	// Name overrides the name reported by the source.
	Name string
}

// LoadedDocument is a stored document with its parsed pages and current
// section list.
type LoadedDocument struct {
	DocumentID string
	Info       models.DocumentInfo
	Sections   sections.List
	Document   *documents.Document
}

func (p LoadParams) sourceCount() int {
	n := 0
	if p.ZoteroID != "" {
		n++
	}
	if p.URL != "" {
		n++
	}
	if len(p.RawData) > 0 {
		n++
	}
	return n
}

// GetOrLoadDocument returns the stored document for the given source, or
// fetches, parses and stores it if it isn't stored yet. Tools that work on
// a document go through here so every source is handled the same way.
//
// Parameters:
//   - ctx: Context for cancellation and timeouts
//   - params: Exactly one of ZoteroID, URL or RawData, plus an optional name
//   - store: Storage backend for checking existence and storing documents
//   - creds: Zotero credentials, needed only for ZoteroID
//   - log: Logger for recording operations
//
// Returns:
//   - loaded: The document, its pages and its current section list. A newly
//     stored document gets the default single-section list.
//   - error: Any error encountered while fetching, parsing or storing. A
//     document is never left stored without a section list.
func GetOrLoadDocument(ctx context.Context, params LoadParams, store storage.Store, creds documents.ZoteroCredentials, log logger.Logger) (*LoadedDocument, error) {
	if n := params.sourceCount(); n != 1 {
		return nil, fmt.Errorf("exactly one of zotero_id, url, or raw_data must be provided (got %d)", n)
	}
	sourceInfo := models.SourceInfo{ZoteroID: params.ZoteroID, URL: params.URL}

	// Remote sources are identified without downloading them.
	if len(params.RawData) == 0 {
		docID := storage.GenerateDocumentID(sourceInfo, nil)
		exists, err := store.DocumentExists(ctx, docID)
		if err != nil {
			return nil, err
		}
		if exists {
			log.Info("Document %s already stored", docID)
			return OpenDocument(ctx, docID, store)
		}
	}

	var data models.DocumentData
	if len(params.RawData) > 0 {
		data = models.DocumentData{Data: params.RawData, Type: documents.DetectDocumentType(params.RawData)}
	} else {
		var err error
		data, err = documents.GetData(ctx, sourceInfo, creds)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch document: %w", err)
		}
	}
	if params.Name != "" {
		data.Name = params.Name
	}

	docID := storage.GenerateDocumentID(sourceInfo, data.Data)
	if len(params.RawData) > 0 {
		exists, err := store.DocumentExists(ctx, docID)
		if err != nil {
			return nil, err
		}
		if exists {
			log.Info("Document %s already stored", docID)
			return OpenDocument(ctx, docID, store)
		}
	}

	doc, err := documents.Load(data.Data)
	if err != nil {
		return nil, err
	}
	if err := store.StoreDocument(ctx, docID, data, doc.PageCount(), sourceInfo); err != nil {
		return nil, fmt.Errorf("failed to store document: %w", err)
	}
	list := sections.NewDefaultList(doc.PageCount())
	if err := store.SaveSections(ctx, docID, list); err != nil {
		if delErr := store.DeleteDocument(ctx, docID); delErr != nil {
			log.Warn("Failed to remove partially stored document %s: %v", docID, delErr)
		}
		return nil, fmt.Errorf("failed to store sections: %w", err)
	}
	log.Info("Loaded document %s: %d pages", docID, doc.PageCount())

	info, err := store.GetDocumentInfo(ctx, docID)
	if err != nil {
		return nil, err
	}
	return &LoadedDocument{DocumentID: docID, Info: *info, Sections: list, Document: doc}, nil
}

// OpenDocument parses a stored document and reads its current sections.
func OpenDocument(ctx context.Context, docID string, store storage.Store) (*LoadedDocument, error) {
	info, err := store.GetDocumentInfo(ctx, docID)
	if err != nil {
		return nil, err
	}
	data, err := store.GetDocument(ctx, docID)
	if err != nil {
		return nil, err
	}
	doc, err := documents.Load(data.Data)
	if err != nil {
		return nil, err
	}
	list, err := store.GetSections(ctx, docID)
	if err != nil {
		return nil, err
	}
	return &LoadedDocument{DocumentID: docID, Info: *info, Sections: list, Document: doc}, nil
}

// DefaultFolderName derives the export folder from the document name.
func DefaultFolderName(documentName string) string {
	if base := documents.BaseName(documentName); base != "" {
		return base
	}
	return "Exported_PDFs"
}

// IsNotFound reports whether err refers to an unknown document or section.
func IsNotFound(err error) bool {
	return errors.Is(err, storage.ErrNotFound) || errors.Is(err, sections.ErrSectionNotFound)
}
