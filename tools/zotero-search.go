package tools

import (
	"context"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Epistemic-Technology/pdf-sections-mcp/internal/config"
	"github.com/Epistemic-Technology/pdf-sections-mcp/internal/logger"
	"github.com/Epistemic-Technology/pdf-sections-mcp/internal/operations"
	"github.com/Epistemic-Technology/pdf-sections-mcp/internal/storage"
	"github.com/Epistemic-Technology/pdf-sections-mcp/models"
)

type ZoteroSearchQuery struct {
	Query      string   `json:"query,omitempty"`      // Quick search text (title, creator, year)
	Tags       []string `json:"tags,omitempty"`       // Filter by tags
	ItemTypes  []string `json:"item_types,omitempty"` // Filter by type (e.g., "book", "journalArticle")
	Collection string   `json:"collection,omitempty"` // Filter by collection key
	Limit      int      `json:"limit,omitempty"`      // Max results (default 25)
	Sort       string   `json:"sort,omitempty"`       // Sort field (default "dateModified")
}

type ZoteroSearchResponse struct {
	Items []ZoteroItemResult `json:"items"`
	Count int                `json:"count"`
}

type ZoteroItemResult struct {
	Key         string           `json:"key"`
	Title       string           `json:"title"`
	Creators    []string         `json:"creators,omitempty"`
	ItemType    string           `json:"item_type"`
	Date        string           `json:"date,omitempty"`
	Attachments []AttachmentInfo `json:"attachments"`
}

type AttachmentInfo struct {
	Key         string `json:"key"` // Use this as zotero_id in document-load
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	LinkMode    string `json:"link_mode"`
	// DocumentID is set when the attachment has already been loaded.
	DocumentID string `json:"document_id,omitempty"`
}

func ZoteroSearchTool() *mcp.Tool {
	inputschema, err := jsonschema.For[ZoteroSearchQuery](nil)
	if err != nil {
		panic(err)
	}
	return &mcp.Tool{
		Name:        "zotero-search",
		Description: "Search a Zotero library for items that have PDF attachments. Use an attachment key as zotero_id with document-load to split that PDF.",
		InputSchema: inputschema,
	}
}

func ZoteroSearchToolHandler(ctx context.Context, req *mcp.CallToolRequest, query ZoteroSearchQuery, store storage.Store, cfg *config.Config, log logger.Logger) (*mcp.CallToolResult, *ZoteroSearchResponse, error) {
	log.Info("zotero-search tool called")

	items, err := operations.SearchZotero(ctx, zoteroCredentials(cfg), operations.ZoteroSearchParams{
		Query:      query.Query,
		Tags:       query.Tags,
		ItemTypes:  query.ItemTypes,
		Collection: query.Collection,
		Limit:      query.Limit,
		Sort:       query.Sort,
	}, log)
	if err != nil {
		return nil, nil, err
	}

	results := make([]ZoteroItemResult, len(items))
	for i, item := range items {
		results[i] = ZoteroItemResult{
			Key:      item.Key,
			Title:    item.Title,
			Creators: item.Creators,
			ItemType: item.ItemType,
			Date:     item.Date,
		}
		for _, att := range item.Attachments {
			info := AttachmentInfo{
				Key:         att.Key,
				Filename:    att.Filename,
				ContentType: att.ContentType,
				LinkMode:    att.LinkMode,
			}
			docID := storage.GenerateDocumentID(models.SourceInfo{ZoteroID: att.Key}, nil)
			if exists, err := store.DocumentExists(ctx, docID); err != nil {
				log.Warn("Failed to check whether %s is loaded: %v", docID, err)
			} else if exists {
				info.DocumentID = docID
			}
			results[i].Attachments = append(results[i].Attachments, info)
		}
	}

	return nil, &ZoteroSearchResponse{Items: results, Count: len(results)}, nil
}
