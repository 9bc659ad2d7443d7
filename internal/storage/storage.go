package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"github.com/Epistemic-Technology/pdf-sections-mcp/models"
)

// ErrNotFound is returned when a document id is unknown.
var ErrNotFound = errors.New("document not found")

// Store persists loaded documents, their current section lists and the
// history of exports made from them.
type Store interface {
	// StoreDocument saves the source bytes and summary under docID,
	// replacing any previous copy.
	StoreDocument(ctx context.Context, docID string, data models.DocumentData, pageCount int, sourceInfo models.SourceInfo) error

	// GetDocument returns the stored source bytes.
	GetDocument(ctx context.Context, docID string) (*models.DocumentData, error)

	// GetDocumentInfo returns the stored summary without the bytes.
	GetDocumentInfo(ctx context.Context, docID string) (*models.DocumentInfo, error)

	DocumentExists(ctx context.Context, docID string) (bool, error)

	// ListDocuments returns every stored document, newest first.
	ListDocuments(ctx context.Context) ([]models.DocumentInfo, error)

	// DeleteDocument removes a document with its sections and exports.
	DeleteDocument(ctx context.Context, docID string) error

	// SaveSections replaces the current section list of a document.
	SaveSections(ctx context.Context, docID string, list []models.Section) error

	// GetSections returns the current section list in order. Unknown
	// documents return ErrNotFound.
	GetSections(ctx context.Context, docID string) ([]models.Section, error)

	// RecordExport stores a completed export and returns its id.
	RecordExport(ctx context.Context, record models.ExportRecord) (string, error)

	// ListExports returns the exports of a document, oldest first. Unknown
	// documents return ErrNotFound.
	ListExports(ctx context.Context, docID string) ([]models.ExportRecord, error)

	Close() error
}

// GenerateDocumentID derives a stable id from where a document came from,
// falling back to a hash of its bytes.
func GenerateDocumentID(sourceInfo models.SourceInfo, data []byte) string {
	if sourceInfo.ZoteroID != "" {
		return "zotero_" + sourceInfo.ZoteroID
	}
	if sourceInfo.URL != "" {
		return "url_" + shortHash([]byte(sourceInfo.URL))
	}
	return "sha_" + shortHash(data)
}

func shortHash(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:8])
}
