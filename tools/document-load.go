package tools

import (
	"context"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Epistemic-Technology/pdf-sections-mcp/internal/config"
	"github.com/Epistemic-Technology/pdf-sections-mcp/internal/logger"
	"github.com/Epistemic-Technology/pdf-sections-mcp/internal/operations"
	"github.com/Epistemic-Technology/pdf-sections-mcp/internal/storage"
)

type DocumentLoadQuery struct {
	ZoteroID string `json:"zotero_id,omitempty"`
	URL      string `json:"url,omitempty"`
	RawData  []byte `json:"raw_data,omitempty"`
	Name     string `json:"name,omitempty"` // Overrides the source file name
}

type DocumentLoadResponse struct {
	DocumentID    string          `json:"document_id"`
	Name          string          `json:"name,omitempty"`
	PageCount     int             `json:"page_count"`
	Size          int             `json:"size"`
	Sections      []SectionResult `json:"sections"`
	ResourcePaths []string        `json:"resource_paths"`
}

func DocumentLoadTool() *mcp.Tool {
	inputschema, err := jsonschema.For[DocumentLoadQuery](nil)
	if err != nil {
		panic(err)
	}
	return &mcp.Tool{
		Name:        "document-load",
		Description: "Load a PDF from a Zotero attachment key, a URL, or raw bytes. Returns a document_id, the page count and the current section list (a single section covering every page for a new document). Loading the same source again returns the stored document.",
		InputSchema: inputschema,
	}
}

func DocumentLoadToolHandler(ctx context.Context, req *mcp.CallToolRequest, query DocumentLoadQuery, store storage.Store, cfg *config.Config, log logger.Logger) (*mcp.CallToolResult, *DocumentLoadResponse, error) {
	log.Info("document-load tool called")
	loaded, err := operations.GetOrLoadDocument(ctx, operations.LoadParams{
		ZoteroID: query.ZoteroID,
		URL:      query.URL,
		RawData:  query.RawData,
		Name:     query.Name,
	}, store, zoteroCredentials(cfg), log)
	if err != nil {
		log.Error("document-load tool failed: %v", err)
		return nil, nil, err
	}

	response := &DocumentLoadResponse{
		DocumentID:    loaded.DocumentID,
		Name:          loaded.Info.Name,
		PageCount:     loaded.Info.PageCount,
		Size:          loaded.Info.Size,
		Sections:      toSectionResults(loaded.Sections),
		ResourcePaths: storage.CalculateResourcePaths(loaded.DocumentID, loaded.Info.PageCount),
	}
	result := &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{
				Text: fmt.Sprintf("Loaded %s (%d pages) as %s with %d sections.",
					displayName(loaded.Info.Name), loaded.Info.PageCount, loaded.DocumentID, len(loaded.Sections)),
			},
		},
	}
	return result, response, nil
}

func displayName(name string) string {
	if name == "" {
		return "document"
	}
	return name
}
