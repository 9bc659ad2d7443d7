package operations

import (
	"context"
	"fmt"

	"github.com/Epistemic-Technology/zotero/zotero"

	"github.com/Epistemic-Technology/pdf-sections-mcp/internal/documents"
	"github.com/Epistemic-Technology/pdf-sections-mcp/internal/logger"
)

// ListCollectionsParams contains parameters for listing Zotero collections.
type ListCollectionsParams struct {
	TopLevelOnly     bool
	ParentCollection string // List subcollections of this key
	Limit            int    // Default 100
	Sort             string // Default "title"
}

// CollectionResult is a collection key usable as the zotero-search filter.
type CollectionResult struct {
	Key              string
	Name             string
	ParentCollection string
}

// ListZoteroCollections lists collections so a search can be narrowed to one.
func ListZoteroCollections(ctx context.Context, creds documents.ZoteroCredentials, params ListCollectionsParams, log logger.Logger) ([]CollectionResult, error) {
	if err := checkZoteroCredentials(creds); err != nil {
		return nil, err
	}
	client := zotero.NewClient(creds.LibraryID, zotero.LibraryTypeUser, zotero.WithAPIKey(creds.APIKey))

	queryParams := &zotero.QueryParams{Limit: params.Limit, Sort: params.Sort}
	if queryParams.Limit == 0 {
		queryParams.Limit = 100
	}
	if queryParams.Sort == "" {
		queryParams.Sort = "title"
	}

	var collections []zotero.Collection
	var err error
	switch {
	case params.ParentCollection != "":
		log.Info("Retrieving subcollections for collection: %s", params.ParentCollection)
		collections, err = client.CollectionsSub(ctx, params.ParentCollection, queryParams)
	case params.TopLevelOnly:
		collections, err = client.CollectionsTop(ctx, queryParams)
	default:
		collections, err = client.Collections(ctx, queryParams)
	}
	if err != nil {
		log.Error("Failed to retrieve Zotero collections: %v", err)
		return nil, fmt.Errorf("failed to retrieve Zotero collections: %w", err)
	}

	results := make([]CollectionResult, 0, len(collections))
	for _, collection := range collections {
		results = append(results, CollectionResult{
			Key:              collection.Data.Key,
			Name:             collection.Data.Name,
			ParentCollection: collection.Data.ParentCollection.String(),
		})
	}
	log.Info("Found %d collections", len(results))
	return results, nil
}
