package tools

import (
	"context"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Epistemic-Technology/pdf-sections-mcp/internal/logger"
	"github.com/Epistemic-Technology/pdf-sections-mcp/internal/operations"
	"github.com/Epistemic-Technology/pdf-sections-mcp/internal/sections"
	"github.com/Epistemic-Technology/pdf-sections-mcp/internal/storage"
)

// SectionsResponse is returned by every tool that edits the section list.
type SectionsResponse struct {
	DocumentID string          `json:"document_id"`
	Sections   []SectionResult `json:"sections"`
	// Added is set by section-add.
	Added *SectionResult `json:"added,omitempty"`
}

type SectionsSetQuery struct {
	DocumentID string         `json:"document_id"`
	Sections   []SectionInput `json:"sections"`
}

func SectionsSetTool() *mcp.Tool {
	inputschema, err := jsonschema.For[SectionsSetQuery](nil)
	if err != nil {
		panic(err)
	}
	return &mcp.Tool{
		Name:        "sections-set",
		Description: "Replace the section list of a loaded document. Sections keep the given order; missing ids are generated. Page ranges are checked at export or with sections-validate.",
		InputSchema: inputschema,
	}
}

func SectionsSetToolHandler(ctx context.Context, req *mcp.CallToolRequest, query SectionsSetQuery, store storage.Store, log logger.Logger) (*mcp.CallToolResult, *SectionsResponse, error) {
	log.Info("sections-set tool called for %s with %d sections", query.DocumentID, len(query.Sections))
	list, err := operations.SetSections(ctx, query.DocumentID, fromSectionInputs(query.Sections), store)
	if err != nil {
		return nil, nil, err
	}
	return nil, &SectionsResponse{DocumentID: query.DocumentID, Sections: toSectionResults(list)}, nil
}

type SectionAddQuery struct {
	DocumentID string `json:"document_id"`
}

func SectionAddTool() *mcp.Tool {
	inputschema, err := jsonschema.For[SectionAddQuery](nil)
	if err != nil {
		panic(err)
	}
	return &mcp.Tool{
		Name:        "section-add",
		Description: "Append a section starting after the last one and running to the final page.",
		InputSchema: inputschema,
	}
}

func SectionAddToolHandler(ctx context.Context, req *mcp.CallToolRequest, query SectionAddQuery, store storage.Store, log logger.Logger) (*mcp.CallToolResult, *SectionsResponse, error) {
	log.Info("section-add tool called for %s", query.DocumentID)
	list, added, err := operations.AddSection(ctx, query.DocumentID, store)
	if err != nil {
		return nil, nil, err
	}
	addedResult := toSectionResults(sections.List{added})[0]
	return nil, &SectionsResponse{DocumentID: query.DocumentID, Sections: toSectionResults(list), Added: &addedResult}, nil
}

type SectionUpdateQuery struct {
	DocumentID string  `json:"document_id"`
	ID         string  `json:"id"`
	Name       *string `json:"name,omitempty"`
	StartPage  *int    `json:"start_page,omitempty"`
	EndPage    *int    `json:"end_page,omitempty"`
}

func SectionUpdateTool() *mcp.Tool {
	inputschema, err := jsonschema.For[SectionUpdateQuery](nil)
	if err != nil {
		panic(err)
	}
	return &mcp.Tool{
		Name:        "section-update",
		Description: "Change the name, start page, or end page of one section. Omitted fields are kept.",
		InputSchema: inputschema,
	}
}

func SectionUpdateToolHandler(ctx context.Context, req *mcp.CallToolRequest, query SectionUpdateQuery, store storage.Store, log logger.Logger) (*mcp.CallToolResult, *SectionsResponse, error) {
	log.Info("section-update tool called for %s section %s", query.DocumentID, query.ID)
	list, err := operations.UpdateSection(ctx, query.DocumentID, query.ID, sections.Patch{
		Name:      query.Name,
		StartPage: query.StartPage,
		EndPage:   query.EndPage,
	}, store)
	if err != nil {
		return nil, nil, err
	}
	return nil, &SectionsResponse{DocumentID: query.DocumentID, Sections: toSectionResults(list)}, nil
}

type SectionRemoveQuery struct {
	DocumentID string `json:"document_id"`
	ID         string `json:"id"`
}

func SectionRemoveTool() *mcp.Tool {
	inputschema, err := jsonschema.For[SectionRemoveQuery](nil)
	if err != nil {
		panic(err)
	}
	return &mcp.Tool{
		Name:        "section-remove",
		Description: "Remove one section from the list.",
		InputSchema: inputschema,
	}
}

func SectionRemoveToolHandler(ctx context.Context, req *mcp.CallToolRequest, query SectionRemoveQuery, store storage.Store, log logger.Logger) (*mcp.CallToolResult, *SectionsResponse, error) {
	log.Info("section-remove tool called for %s section %s", query.DocumentID, query.ID)
	list, err := operations.RemoveSection(ctx, query.DocumentID, query.ID, store)
	if err != nil {
		return nil, nil, err
	}
	return nil, &SectionsResponse{DocumentID: query.DocumentID, Sections: toSectionResults(list)}, nil
}
