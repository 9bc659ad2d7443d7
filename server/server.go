package server

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Epistemic-Technology/pdf-sections-mcp/internal/config"
	"github.com/Epistemic-Technology/pdf-sections-mcp/internal/logger"
	"github.com/Epistemic-Technology/pdf-sections-mcp/internal/storage"
	"github.com/Epistemic-Technology/pdf-sections-mcp/resources"
	"github.com/Epistemic-Technology/pdf-sections-mcp/tools"
)

const version = "v0.1.0"

// CreateServer opens the store named by cfg and registers every tool and
// resource template. The returned close function releases the store.
func CreateServer(cfg *config.Config, log logger.Logger) (*mcp.Server, func() error, error) {
	store, err := initializeStorage(cfg.DBPath, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	return NewServer(store, cfg, log), store.Close, nil
}

// NewServer registers the tools and resources on top of an open store.
func NewServer(store storage.Store, cfg *config.Config, log logger.Logger) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "pdf-sections-mcp", Version: version}, nil)
	toolLog := log.With("tools")

	mcp.AddTool(server, tools.DocumentLoadTool(), func(ctx context.Context, req *mcp.CallToolRequest, query tools.DocumentLoadQuery) (*mcp.CallToolResult, *tools.DocumentLoadResponse, error) {
		return tools.DocumentLoadToolHandler(ctx, req, query, store, cfg, toolLog)
	})

	mcp.AddTool(server, tools.SectionsSuggestTool(), func(ctx context.Context, req *mcp.CallToolRequest, query tools.SectionsSuggestQuery) (*mcp.CallToolResult, *tools.SectionsSuggestResponse, error) {
		return tools.SectionsSuggestToolHandler(ctx, req, query, store, cfg, toolLog)
	})

	mcp.AddTool(server, tools.SectionsSetTool(), func(ctx context.Context, req *mcp.CallToolRequest, query tools.SectionsSetQuery) (*mcp.CallToolResult, *tools.SectionsResponse, error) {
		return tools.SectionsSetToolHandler(ctx, req, query, store, toolLog)
	})

	mcp.AddTool(server, tools.SectionAddTool(), func(ctx context.Context, req *mcp.CallToolRequest, query tools.SectionAddQuery) (*mcp.CallToolResult, *tools.SectionsResponse, error) {
		return tools.SectionAddToolHandler(ctx, req, query, store, toolLog)
	})

	mcp.AddTool(server, tools.SectionUpdateTool(), func(ctx context.Context, req *mcp.CallToolRequest, query tools.SectionUpdateQuery) (*mcp.CallToolResult, *tools.SectionsResponse, error) {
		return tools.SectionUpdateToolHandler(ctx, req, query, store, toolLog)
	})

	mcp.AddTool(server, tools.SectionRemoveTool(), func(ctx context.Context, req *mcp.CallToolRequest, query tools.SectionRemoveQuery) (*mcp.CallToolResult, *tools.SectionsResponse, error) {
		return tools.SectionRemoveToolHandler(ctx, req, query, store, toolLog)
	})

	mcp.AddTool(server, tools.SectionsValidateTool(), func(ctx context.Context, req *mcp.CallToolRequest, query tools.SectionsValidateQuery) (*mcp.CallToolResult, *tools.SectionsValidateResponse, error) {
		return tools.SectionsValidateToolHandler(ctx, req, query, store, toolLog)
	})

	mcp.AddTool(server, tools.DocumentExportTool(), func(ctx context.Context, req *mcp.CallToolRequest, query tools.DocumentExportQuery) (*mcp.CallToolResult, *tools.DocumentExportResponse, error) {
		return tools.DocumentExportToolHandler(ctx, req, query, store, cfg, toolLog)
	})

	mcp.AddTool(server, tools.ZoteroSearchTool(), func(ctx context.Context, req *mcp.CallToolRequest, query tools.ZoteroSearchQuery) (*mcp.CallToolResult, *tools.ZoteroSearchResponse, error) {
		return tools.ZoteroSearchToolHandler(ctx, req, query, store, cfg, toolLog)
	})

	mcp.AddTool(server, tools.ZoteroCollectionsTool(), func(ctx context.Context, req *mcp.CallToolRequest, query tools.ZoteroCollectionsQuery) (*mcp.CallToolResult, *tools.ZoteroCollectionsResponse, error) {
		return tools.ZoteroCollectionsToolHandler(ctx, req, query, cfg, toolLog)
	})

	pdfResourceHandler := resources.NewPDFResourceHandler(store)
	readResource := func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		return pdfResourceHandler.ReadResource(ctx, req.Params.URI)
	}

	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: "pdf://{documentId}",
		Name:        "pdf-document",
		Description: "Loaded PDF: name, page count, size, source and available resources",
		MIMEType:    "application/json",
	}, readResource)

	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: "pdf://{documentId}/sections",
		Name:        "pdf-sections",
		Description: "Current section list of the document, in export order",
		MIMEType:    "application/json",
	}, readResource)

	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: "pdf://{documentId}/exports",
		Name:        "pdf-exports",
		Description: "Archives previously exported from the document",
		MIMEType:    "application/json",
	}, readResource)

	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: "pdf://{documentId}/pages/{pageNumber}",
		Name:        "pdf-page",
		Description: "Extracted text of one page (1-indexed)",
		MIMEType:    "application/json",
	}, readResource)

	return server
}

func initializeStorage(dbPath string, log logger.Logger) (storage.Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	log.Info("Initializing SQLite database at: %s", dbPath)

	store, err := storage.NewSQLiteStore(dbPath, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create SQLite store: %w", err)
	}
	return store, nil
}
