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

type DocumentExportQuery struct {
	DocumentID string `json:"document_id"`
	// FolderName defaults to the document name without its extension.
	FolderName string `json:"folder_name,omitempty"`
	// Sections is exported instead of the current list and replaces it once
	// the export succeeds.
	Sections []SectionInput `json:"sections,omitempty"`
	// WriteFile also saves the archive under the configured export directory.
	WriteFile   bool `json:"write_file,omitempty"`
	Parallelism int  `json:"parallelism,omitempty"`
}

type DocumentExportResponse struct {
	ExportID    string   `json:"export_id"`
	ArchiveName string   `json:"archive_name"`
	Entries     []string `json:"entries"`
	ArchiveSize int      `json:"archive_size"`
	ArchiveData []byte   `json:"archive_data"`
	OutputPath  string   `json:"output_path,omitempty"`
}

func DocumentExportTool() *mcp.Tool {
	inputschema, err := jsonschema.For[DocumentExportQuery](nil)
	if err != nil {
		panic(err)
	}
	return &mcp.Tool{
		Name:        "document-export",
		Description: "Split a loaded document into one PDF per section and return them as a single zip archive (base64 in archive_data). Entries are named <folder>-<section>.pdf in section order. Nothing is produced, and the stored sections are left unchanged, if any section is invalid or fails to extract.",
		InputSchema: inputschema,
	}
}

func DocumentExportToolHandler(ctx context.Context, req *mcp.CallToolRequest, query DocumentExportQuery, store storage.Store, cfg *config.Config, log logger.Logger) (*mcp.CallToolResult, *DocumentExportResponse, error) {
	log.Info("document-export tool called for %s", query.DocumentID)

	params := operations.ExportParams{
		FolderName:  query.FolderName,
		Parallelism: query.Parallelism,
	}
	if query.Sections != nil {
		params.Sections = fromSectionInputs(query.Sections)
	}
	if query.WriteFile {
		if cfg.ExportDir == "" {
			return nil, nil, fmt.Errorf("write_file requested but PDF_SECTIONS_EXPORT_DIR is not set")
		}
		params.OutputDir = cfg.ExportDir
	}

	exported, err := operations.ExportDocument(ctx, query.DocumentID, params, store, log)
	if err != nil {
		log.Error("document-export tool failed: %v", err)
		return nil, nil, err
	}

	response := &DocumentExportResponse{
		ExportID:    exported.Record.ExportID,
		ArchiveName: exported.Record.ArchiveName,
		Entries:     exported.Record.Entries,
		ArchiveSize: exported.Record.ArchiveSize,
		ArchiveData: exported.Archive.Data,
		OutputPath:  exported.Record.OutputPath,
	}
	result := &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{
				Text: fmt.Sprintf("Exported %d sections into %s (%d bytes).",
					len(response.Entries), response.ArchiveName, response.ArchiveSize),
			},
		},
	}
	return result, response, nil
}
