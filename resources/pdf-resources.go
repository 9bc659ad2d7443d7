package resources

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Epistemic-Technology/pdf-sections-mcp/internal/operations"
	"github.com/Epistemic-Technology/pdf-sections-mcp/internal/storage"
)

// PDFResourceHandler serves pdf:// resources for loaded documents.
type PDFResourceHandler struct {
	store storage.Store
}

func NewPDFResourceHandler(store storage.Store) *PDFResourceHandler {
	return &PDFResourceHandler{store: store}
}

// ListResources returns the fixed resources of every stored document.
func (h *PDFResourceHandler) ListResources(ctx context.Context) ([]mcp.Resource, error) {
	docs, err := h.store.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	var resources []mcp.Resource
	for _, doc := range docs {
		label := doc.Name
		if label == "" {
			label = doc.DocumentID
		}
		resources = append(resources,
			mcp.Resource{
				URI:         fmt.Sprintf("pdf://%s", doc.DocumentID),
				Name:        fmt.Sprintf("%s (Document)", label),
				Description: fmt.Sprintf("PDF document with %d pages", doc.PageCount),
				MIMEType:    "application/json",
			},
			mcp.Resource{
				URI:         fmt.Sprintf("pdf://%s/sections", doc.DocumentID),
				Name:        fmt.Sprintf("%s (Sections)", label),
				Description: "Current section list",
				MIMEType:    "application/json",
			},
			mcp.Resource{
				URI:         fmt.Sprintf("pdf://%s/exports", doc.DocumentID),
				Name:        fmt.Sprintf("%s (Exports)", label),
				Description: "Archives exported from this document",
				MIMEType:    "application/json",
			},
		)
	}
	return resources, nil
}

// ReadResource reads pdf://{id}, pdf://{id}/sections, pdf://{id}/exports
// or pdf://{id}/pages/{pageNumber}.
func (h *PDFResourceHandler) ReadResource(ctx context.Context, uri string) (*mcp.ReadResourceResult, error) {
	if !strings.HasPrefix(uri, "pdf://") {
		return nil, fmt.Errorf("invalid URI scheme, expected pdf://")
	}

	parts := strings.Split(strings.TrimPrefix(uri, "pdf://"), "/")
	docID := parts[0]
	if docID == "" {
		return nil, fmt.Errorf("invalid URI, missing document ID")
	}
	resourceType := ""
	if len(parts) > 1 {
		resourceType = parts[1]
	}

	var content any
	var err error

	switch {
	case resourceType == "" && len(parts) == 1:
		content, err = h.getDocumentSummary(ctx, docID)
	case resourceType == "sections" && len(parts) == 2:
		content, err = h.store.GetSections(ctx, docID)
	case resourceType == "exports" && len(parts) == 2:
		content, err = h.store.ListExports(ctx, docID)
	case resourceType == "pages" && len(parts) == 3:
		pageNr, convErr := strconv.Atoi(parts[2])
		if convErr != nil {
			return nil, fmt.Errorf("invalid page number: %s", parts[2])
		}
		content, err = h.getPage(ctx, docID, pageNr)
	default:
		return nil, fmt.Errorf("unknown resource: %s", uri)
	}
	if err != nil {
		return nil, err
	}

	text, err := json.MarshalIndent(content, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resource: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{
				URI:      uri,
				MIMEType: "application/json",
				Text:     string(text),
			},
		},
	}, nil
}

func (h *PDFResourceHandler) getDocumentSummary(ctx context.Context, docID string) (map[string]any, error) {
	info, err := h.store.GetDocumentInfo(ctx, docID)
	if err != nil {
		return nil, err
	}
	list, err := h.store.GetSections(ctx, docID)
	if err != nil {
		return nil, err
	}
	exports, err := h.store.ListExports(ctx, docID)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"document_id":         info.DocumentID,
		"name":                info.Name,
		"page_count":          info.PageCount,
		"size":                info.Size,
		"source_info":         info.SourceInfo,
		"created_at":          info.CreatedAt,
		"section_count":       len(list),
		"export_count":        len(exports),
		"default_folder":      operations.DefaultFolderName(info.Name),
		"available_resources": storage.CalculateResourcePaths(docID, info.PageCount),
	}, nil
}

func (h *PDFResourceHandler) getPage(ctx context.Context, docID string, pageNr int) (map[string]any, error) {
	loaded, err := operations.OpenDocument(ctx, docID, h.store)
	if err != nil {
		return nil, err
	}
	if pageNr < 1 || pageNr > loaded.Document.PageCount() {
		return nil, fmt.Errorf("page %d out of range (document has %d pages)", pageNr, loaded.Document.PageCount())
	}
	text, err := loaded.Document.PageText(pageNr)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"document_id": docID,
		"page_number": pageNr,
		"page_count":  loaded.Document.PageCount(),
		"text":        text,
	}, nil
}
