package operations

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Epistemic-Technology/zotero/zotero"

	"github.com/Epistemic-Technology/pdf-sections-mcp/internal/documents"
	"github.com/Epistemic-Technology/pdf-sections-mcp/internal/logger"
)

// ZoteroSearchParams contains parameters for searching a Zotero library.
type ZoteroSearchParams struct {
	Query      string   // Quick search text (title, creator, year)
	Tags       []string
	ItemTypes  []string // e.g. "book", "-attachment"
	Collection string   // Collection key
	Limit      int      // Default 25
	Sort       string   // Default "dateModified"
}

// ZoteroItemResult is a library item together with its PDF attachments.
type ZoteroItemResult struct {
	Key         string
	Title       string
	Creators    []string
	ItemType    string
	Date        string
	Attachments []AttachmentInfo
}

// AttachmentInfo is a PDF attached to a Zotero item. Key is what
// document-load takes as zotero_id.
type AttachmentInfo struct {
	Key         string
	Filename    string
	ContentType string
	LinkMode    string
}

func checkZoteroCredentials(creds documents.ZoteroCredentials) error {
	if creds.APIKey == "" {
		return errors.New("Zotero API key is required")
	}
	if creds.LibraryID == "" {
		return errors.New("Zotero library ID is required")
	}
	return nil
}

// SearchZotero searches the library and returns only items that have at
// least one PDF attachment, since nothing else can be split.
func SearchZotero(ctx context.Context, creds documents.ZoteroCredentials, params ZoteroSearchParams, log logger.Logger) ([]ZoteroItemResult, error) {
	if err := checkZoteroCredentials(creds); err != nil {
		return nil, err
	}
	client := zotero.NewClient(creds.LibraryID, zotero.LibraryTypeUser, zotero.WithAPIKey(creds.APIKey))

	queryParams := &zotero.QueryParams{
		Q:        params.Query,
		QMode:    "titleCreatorYear",
		Tag:      params.Tags,
		ItemType: params.ItemTypes,
		Limit:    params.Limit,
		Sort:     params.Sort,
	}
	if queryParams.Limit == 0 {
		queryParams.Limit = 25
	}
	if queryParams.Sort == "" {
		queryParams.Sort = "dateModified"
	}
	if len(queryParams.ItemType) == 0 {
		queryParams.ItemType = []string{"-attachment"}
	}

	var items []zotero.Item
	var err error
	if params.Collection != "" {
		items, err = client.CollectionItems(ctx, params.Collection, queryParams)
		if err != nil {
			log.Error("Failed to search collection %s: %v", params.Collection, err)
			return nil, fmt.Errorf("failed to search collection %s: %w", params.Collection, err)
		}
	} else {
		items, err = client.Items(ctx, queryParams)
		if err != nil {
			log.Error("Failed to search Zotero library: %v", err)
			return nil, fmt.Errorf("failed to search Zotero library: %w", err)
		}
	}
	log.Info("Found %d items in Zotero library", len(items))

	results := make([]ZoteroItemResult, 0, len(items))
	for _, item := range items {
		if item.Data.ItemType == "attachment" {
			continue
		}

		children, err := client.Children(ctx, item.Key, nil)
		if err != nil {
			log.Error("Failed to retrieve children for item %s: %v", item.Key, err)
			continue
		}

		var attachments []AttachmentInfo
		for _, child := range children {
			if child.Data.ItemType != "attachment" || !isPDFAttachment(child.Data.ContentType, child.Data.Filename) {
				continue
			}
			attachments = append(attachments, AttachmentInfo{
				Key:         child.Key,
				Filename:    child.Data.Filename,
				ContentType: child.Data.ContentType,
				LinkMode:    child.Data.LinkMode,
			})
		}
		if len(attachments) == 0 {
			continue
		}

		result := ZoteroItemResult{
			Key:         item.Key,
			Title:       item.Data.Title,
			ItemType:    item.Data.ItemType,
			Date:        item.Data.DateAdded,
			Attachments: attachments,
		}
		for _, creator := range item.Data.Creators {
			if name := creatorName(creator.Name, creator.FirstName, creator.LastName); name != "" {
				result.Creators = append(result.Creators, name)
			}
		}
		results = append(results, result)
	}

	log.Info("Returning %d items with PDF attachments", len(results))
	return results, nil
}

func isPDFAttachment(contentType, filename string) bool {
	return contentType == "application/pdf" || strings.HasSuffix(strings.ToLower(filename), ".pdf")
}

// creatorName prefers the single-field name Zotero uses for institutions.
func creatorName(name, first, last string) string {
	if name != "" {
		return name
	}
	return strings.TrimSpace(first + " " + last)
}
