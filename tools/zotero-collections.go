package tools

import (
	"context"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Epistemic-Technology/pdf-sections-mcp/internal/config"
	"github.com/Epistemic-Technology/pdf-sections-mcp/internal/logger"
	"github.com/Epistemic-Technology/pdf-sections-mcp/internal/operations"
)

type ZoteroCollectionsQuery struct {
	TopLevelOnly     bool   `json:"top_level_only,omitempty"`
	ParentCollection string `json:"parent_collection,omitempty"` // List subcollections of this key
	Limit            int    `json:"limit,omitempty"`             // Default 100
	Sort             string `json:"sort,omitempty"`              // Default "title"
}

type ZoteroCollectionsResponse struct {
	Collections []CollectionResult `json:"collections"`
	Count       int                `json:"count"`
}

type CollectionResult struct {
	Key              string `json:"key"`
	Name             string `json:"name"`
	ParentCollection string `json:"parent_collection,omitempty"`
}

func ZoteroCollectionsTool() *mcp.Tool {
	inputschema, err := jsonschema.For[ZoteroCollectionsQuery](nil)
	if err != nil {
		panic(err)
	}
	return &mcp.Tool{
		Name:        "zotero-collections",
		Description: "List collections in a Zotero library. Use a collection key as the collection filter of zotero-search.",
		InputSchema: inputschema,
	}
}

func ZoteroCollectionsToolHandler(ctx context.Context, req *mcp.CallToolRequest, query ZoteroCollectionsQuery, cfg *config.Config, log logger.Logger) (*mcp.CallToolResult, *ZoteroCollectionsResponse, error) {
	log.Info("zotero-collections tool called")

	collections, err := operations.ListZoteroCollections(ctx, zoteroCredentials(cfg), operations.ListCollectionsParams{
		TopLevelOnly:     query.TopLevelOnly,
		ParentCollection: query.ParentCollection,
		Limit:            query.Limit,
		Sort:             query.Sort,
	}, log)
	if err != nil {
		return nil, nil, err
	}

	results := make([]CollectionResult, len(collections))
	for i, c := range collections {
		results[i] = CollectionResult{Key: c.Key, Name: c.Name, ParentCollection: c.ParentCollection}
	}
	return nil, &ZoteroCollectionsResponse{Collections: results, Count: len(results)}, nil
}
