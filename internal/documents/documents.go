package documents

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/Epistemic-Technology/zotero/zotero"

	"github.com/Epistemic-Technology/pdf-sections-mcp/models"
)

// maxDownloadSize bounds documents fetched over HTTP.
const maxDownloadSize = 256 << 20

// DetectDocumentType determines the type of document from the raw data
// by checking magic bytes/headers
func DetectDocumentType(data []byte) string {
	if len(data) == 0 {
		return "unknown"
	}

	if bytes.HasPrefix(data, []byte("%PDF")) {
		return "pdf"
	}

	trimmed := bytes.TrimSpace(data)
	if bytes.HasPrefix(trimmed, []byte("<!DOCTYPE html")) ||
		bytes.HasPrefix(trimmed, []byte("<!doctype html")) ||
		bytes.HasPrefix(trimmed, []byte("<html")) ||
		bytes.HasPrefix(trimmed, []byte("<HTML")) {
		return "html"
	}

	if len(data) >= 4 && data[0] == 0x50 && data[1] == 0x4B &&
		(data[2] == 0x03 || data[2] == 0x05 || data[2] == 0x07) {
		return "zip"
	}

	if isLikelyText(data) {
		return "txt"
	}

	return "unknown"
}

// isLikelyText checks if the data is likely plain text (no binary content)
func isLikelyText(data []byte) bool {
	if len(data) == 0 {
		return false
	}

	sample := data[:min(len(data), 512)]
	if bytes.Contains(sample, []byte{0}) {
		return false
	}

	printable := 0
	for _, b := range sample {
		if (b >= 32 && b <= 126) || b == '\n' || b == '\r' || b == '\t' {
			printable++
		}
	}

	return float64(printable)/float64(len(sample)) > 0.9
}

// ZoteroCredentials identifies the Zotero library documents are fetched from.
type ZoteroCredentials struct {
	APIKey    string
	LibraryID string
}

// GetData retrieves document data from a source and detects its type
func GetData(ctx context.Context, sourceInfo models.SourceInfo, creds ZoteroCredentials) (models.DocumentData, error) {
	var doc models.DocumentData
	var err error

	switch {
	case sourceInfo.ZoteroID != "":
		doc, err = GetFromZotero(ctx, sourceInfo.ZoteroID, creds)
	case sourceInfo.URL != "":
		doc, err = GetFromURL(ctx, sourceInfo.URL)
	default:
		return models.DocumentData{}, errors.New("no data provided")
	}
	if err != nil {
		return models.DocumentData{}, err
	}

	if len(doc.Data) == 0 {
		return models.DocumentData{}, errors.New("no data retrieved")
	}

	doc.Type = DetectDocumentType(doc.Data)
	return doc, nil
}

// GetFromURL fetches document data from a URL. The document name is the
// last path element of the URL.
func GetFromURL(ctx context.Context, rawURL string) (models.DocumentData, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return models.DocumentData{}, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return models.DocumentData{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.DocumentData{}, fmt.Errorf("failed to fetch %s: %s", rawURL, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadSize+1))
	if err != nil {
		return models.DocumentData{}, err
	}
	if len(data) > maxDownloadSize {
		return models.DocumentData{}, fmt.Errorf("document at %s exceeds %d bytes", rawURL, maxDownloadSize)
	}

	return models.DocumentData{Data: data, Name: nameFromURL(rawURL)}, nil
}

func nameFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	base := path.Base(u.Path)
	if base == "." || base == "/" {
		return ""
	}
	if unescaped, err := url.PathUnescape(base); err == nil {
		return unescaped
	}
	return base
}

// GetFromZotero fetches an attachment file from a Zotero library. The
// document name is the attachment's filename, falling back to its title.
func GetFromZotero(ctx context.Context, zoteroID string, creds ZoteroCredentials) (models.DocumentData, error) {
	if creds.APIKey == "" || creds.LibraryID == "" {
		return models.DocumentData{}, errors.New("ZOTERO_API_KEY and ZOTERO_LIBRARY_ID must be set to load from Zotero")
	}

	client := zotero.NewClient(creds.LibraryID, zotero.LibraryTypeUser, zotero.WithAPIKey(creds.APIKey))
	data, err := client.File(ctx, zoteroID)
	if err != nil {
		return models.DocumentData{}, fmt.Errorf("failed to fetch Zotero file %s: %w", zoteroID, err)
	}

	doc := models.DocumentData{Data: data}
	// The name is cosmetic; a failed lookup still returns the file.
	if item, err := client.Item(ctx, zoteroID, nil); err == nil {
		doc.Name = item.Data.Filename
		if doc.Name == "" {
			doc.Name = item.Data.Title
		}
	}
	return doc, nil
}

// BaseName strips the directory and final extension from a document name,
// which is how the default export folder name is derived.
func BaseName(name string) string {
	name = path.Base(strings.ReplaceAll(name, `\`, "/"))
	if name == "." || name == "/" {
		return ""
	}
	if ext := path.Ext(name); ext != "" && ext != name {
		name = strings.TrimSuffix(name, ext)
	}
	return name
}
