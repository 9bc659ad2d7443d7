package tools

import (
	"context"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Epistemic-Technology/pdf-sections-mcp/internal/config"
	"github.com/Epistemic-Technology/pdf-sections-mcp/internal/llm"
	"github.com/Epistemic-Technology/pdf-sections-mcp/internal/logger"
	"github.com/Epistemic-Technology/pdf-sections-mcp/internal/operations"
	"github.com/Epistemic-Technology/pdf-sections-mcp/internal/sections"
	"github.com/Epistemic-Technology/pdf-sections-mcp/internal/storage"
)

type SectionsSuggestQuery struct {
	DocumentID string `json:"document_id"`
}

type SectionsSuggestResponse struct {
	DocumentID string          `json:"document_id"`
	Sections   []SectionResult `json:"sections"`
	// Valid is false when a suggested range falls outside the document.
	Valid           bool   `json:"valid"`
	ValidationError string `json:"validation_error,omitempty"`
}

func SectionsSuggestTool() *mcp.Tool {
	inputschema, err := jsonschema.For[SectionsSuggestQuery](nil)
	if err != nil {
		panic(err)
	}
	return &mcp.Tool{
		Name:        "sections-suggest",
		Description: "Ask OpenAI to propose a section breakdown from the text of the first pages of a loaded document. The suggestion replaces the current section list; review it before exporting.",
		InputSchema: inputschema,
	}
}

func SectionsSuggestToolHandler(ctx context.Context, req *mcp.CallToolRequest, query SectionsSuggestQuery, store storage.Store, cfg *config.Config, log logger.Logger) (*mcp.CallToolResult, *SectionsSuggestResponse, error) {
	log.Info("sections-suggest tool called for %s", query.DocumentID)
	list, err := operations.SuggestSections(ctx, query.DocumentID, operations.SuggestParams{
		APIKey: cfg.OpenAIKey,
		Options: llm.SuggestOptions{
			Model:       cfg.OpenAIModel,
			SamplePages: cfg.SamplePages,
			SampleChars: cfg.SampleChars,
		},
	}, store, log)
	if err != nil {
		log.Error("sections-suggest tool failed: %v", err)
		return nil, nil, err
	}

	response := &SectionsSuggestResponse{
		DocumentID: query.DocumentID,
		Sections:   toSectionResults(list),
		Valid:      true,
	}
	info, err := store.GetDocumentInfo(ctx, query.DocumentID)
	if err != nil {
		return nil, nil, err
	}
	if err := sections.Validate(list, info.PageCount); err != nil {
		response.Valid = false
		response.ValidationError = err.Error()
	}
	return nil, response, nil
}
