package tools

import (
	"context"
	"errors"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Epistemic-Technology/pdf-sections-mcp/internal/logger"
	"github.com/Epistemic-Technology/pdf-sections-mcp/internal/operations"
	"github.com/Epistemic-Technology/pdf-sections-mcp/internal/sections"
	"github.com/Epistemic-Technology/pdf-sections-mcp/internal/storage"
)

type SectionsValidateQuery struct {
	DocumentID string `json:"document_id"`
}

// ValidationProblem describes the first section that would stop an export.
type ValidationProblem struct {
	Kind        string `json:"kind"` // empty_section_list, invalid_range
	SectionID   string `json:"section_id,omitempty"`
	SectionName string `json:"section_name,omitempty"`
	StartPage   int    `json:"start_page,omitempty"`
	EndPage     int    `json:"end_page,omitempty"`
	Message     string `json:"message"`
}

type SectionsValidateResponse struct {
	DocumentID string             `json:"document_id"`
	Valid      bool               `json:"valid"`
	TotalPages int                `json:"total_pages"`
	Sections   []SectionResult    `json:"sections"`
	Problem    *ValidationProblem `json:"problem,omitempty"`
}

func SectionsValidateTool() *mcp.Tool {
	inputschema, err := jsonschema.For[SectionsValidateQuery](nil)
	if err != nil {
		panic(err)
	}
	return &mcp.Tool{
		Name:        "sections-validate",
		Description: "Check the current section list against the document without exporting. Reports the first section whose range is not within 1..page count with start <= end.",
		InputSchema: inputschema,
	}
}

func SectionsValidateToolHandler(ctx context.Context, req *mcp.CallToolRequest, query SectionsValidateQuery, store storage.Store, log logger.Logger) (*mcp.CallToolResult, *SectionsValidateResponse, error) {
	log.Info("sections-validate tool called for %s", query.DocumentID)
	list, total, err := operations.ValidateSections(ctx, query.DocumentID, store)
	response := &SectionsValidateResponse{
		DocumentID: query.DocumentID,
		Valid:      err == nil,
		TotalPages: total,
		Sections:   toSectionResults(list),
	}
	if err == nil {
		return nil, response, nil
	}

	var rangeErr *sections.InvalidRangeError
	switch {
	case errors.Is(err, sections.ErrEmptySectionList):
		response.Problem = &ValidationProblem{Kind: "empty_section_list", Message: err.Error()}
	case errors.As(err, &rangeErr):
		response.Problem = &ValidationProblem{
			Kind:        "invalid_range",
			SectionID:   rangeErr.SectionID,
			SectionName: rangeErr.SectionName,
			StartPage:   rangeErr.Start,
			EndPage:     rangeErr.End,
			Message:     err.Error(),
		}
	default:
		return nil, nil, err
	}
	return nil, response, nil
}
