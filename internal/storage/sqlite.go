package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/Epistemic-Technology/pdf-sections-mcp/internal/logger"
	"github.com/Epistemic-Technology/pdf-sections-mcp/models"
)

// SQLiteStore implements Store on a single SQLite file.
type SQLiteStore struct {
	db  *sql.DB
	log logger.Logger
}

// NewSQLiteStore opens (creating if needed) the database at dbPath.
func NewSQLiteStore(dbPath string, log logger.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", withForeignKeys(dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &SQLiteStore{db: db, log: log.With("storage")}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// withForeignKeys turns on cascading deletes for every pooled connection.
func withForeignKeys(dbPath string) string {
	sep := "?"
	if strings.Contains(dbPath, "?") {
		sep = "&"
	}
	return dbPath + sep + "_foreign_keys=on"
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		name TEXT,
		doc_type TEXT,
		page_count INTEGER NOT NULL,
		size INTEGER NOT NULL,
		data BLOB NOT NULL,
		zotero_id TEXT,
		url TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS sections (
		document_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		section_id TEXT NOT NULL,
		name TEXT NOT NULL,
		start_page INTEGER NOT NULL,
		end_page INTEGER NOT NULL,
		PRIMARY KEY (document_id, position),
		FOREIGN KEY (document_id) REFERENCES documents(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS exports (
		id TEXT PRIMARY KEY,
		document_id TEXT NOT NULL,
		folder_name TEXT NOT NULL,
		archive_name TEXT NOT NULL,
		entries TEXT NOT NULL,
		archive_size INTEGER NOT NULL,
		output_path TEXT,
		created_at DATETIME NOT NULL,
		FOREIGN KEY (document_id) REFERENCES documents(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_documents_zotero_id ON documents(zotero_id);
	CREATE INDEX IF NOT EXISTS idx_exports_document_id ON exports(document_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// StoreDocument saves a document. Replacing an existing document keeps
// neither its sections nor its exports.
func (s *SQLiteStore) StoreDocument(ctx context.Context, docID string, data models.DocumentData, pageCount int, sourceInfo models.SourceInfo) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// INSERT OR REPLACE would leave the old child rows behind without
	// firing the cascade, so delete first.
	if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, docID); err != nil {
		return fmt.Errorf("failed to replace document: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents (id, name, doc_type, page_count, size, data, zotero_id, url)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, docID, data.Name, data.Type, pageCount, len(data.Data), data.Data, sourceInfo.ZoteroID, sourceInfo.URL)
	if err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	s.log.Debug("Stored document %s (%d pages, %d bytes)", docID, pageCount, len(data.Data))
	return nil
}

func (s *SQLiteStore) GetDocument(ctx context.Context, docID string) (*models.DocumentData, error) {
	var doc models.DocumentData
	err := s.db.QueryRowContext(ctx, `
		SELECT name, doc_type, data FROM documents WHERE id = ?
	`, docID).Scan(&doc.Name, &doc.Type, &doc.Data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, docID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query document: %w", err)
	}
	return &doc, nil
}

func (s *SQLiteStore) GetDocumentInfo(ctx context.Context, docID string) (*models.DocumentInfo, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, page_count, size, zotero_id, url, created_at
		FROM documents WHERE id = ?
	`, docID)
	info, err := scanDocumentInfo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, docID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query document: %w", err)
	}
	return info, nil
}

func (s *SQLiteStore) DocumentExists(ctx context.Context, docID string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents WHERE id = ?`, docID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check document existence: %w", err)
	}
	return count > 0, nil
}

func (s *SQLiteStore) ListDocuments(ctx context.Context) ([]models.DocumentInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, page_count, size, zotero_id, url, created_at
		FROM documents
		ORDER BY created_at DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	var documents []models.DocumentInfo
	for rows.Next() {
		info, err := scanDocumentInfo(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		documents = append(documents, *info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating documents: %w", err)
	}
	return documents, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocumentInfo(row scanner) (*models.DocumentInfo, error) {
	var info models.DocumentInfo
	var name, zoteroID, url sql.NullString
	if err := row.Scan(&info.DocumentID, &name, &info.PageCount, &info.Size, &zoteroID, &url, &info.CreatedAt); err != nil {
		return nil, err
	}
	info.Name = name.String
	info.SourceInfo = models.SourceInfo{ZoteroID: zoteroID.String, URL: url.String}
	return &info, nil
}

func (s *SQLiteStore) DeleteDocument(ctx context.Context, docID string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, docID)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, docID)
	}
	return nil
}

func (s *SQLiteStore) SaveSections(ctx context.Context, docID string, list []models.Section) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var count int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents WHERE id = ?`, docID).Scan(&count); err != nil {
		return fmt.Errorf("failed to check document existence: %w", err)
	}
	if count == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, docID)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM sections WHERE document_id = ?`, docID); err != nil {
		return fmt.Errorf("failed to clear sections: %w", err)
	}
	for i, sec := range list {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO sections (document_id, position, section_id, name, start_page, end_page)
			VALUES (?, ?, ?, ?, ?, ?)
		`, docID, i, sec.ID, sec.Name, sec.StartPage, sec.EndPage)
		if err != nil {
			return fmt.Errorf("failed to insert section %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// requireDocument distinguishes an unknown document from one with no rows.
func (s *SQLiteStore) requireDocument(ctx context.Context, docID string) error {
	exists, err := s.DocumentExists(ctx, docID)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, docID)
	}
	return nil
}

func (s *SQLiteStore) GetSections(ctx context.Context, docID string) ([]models.Section, error) {
	if err := s.requireDocument(ctx, docID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT section_id, name, start_page, end_page FROM sections
		WHERE document_id = ?
		ORDER BY position
	`, docID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sections: %w", err)
	}
	defer rows.Close()

	list := []models.Section{}
	for rows.Next() {
		var sec models.Section
		if err := rows.Scan(&sec.ID, &sec.Name, &sec.StartPage, &sec.EndPage); err != nil {
			return nil, fmt.Errorf("failed to scan section: %w", err)
		}
		list = append(list, sec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sections: %w", err)
	}
	return list, nil
}

func (s *SQLiteStore) RecordExport(ctx context.Context, record models.ExportRecord) (string, error) {
	if record.ExportID == "" {
		record.ExportID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	entriesJSON, err := json.Marshal(record.Entries)
	if err != nil {
		return "", fmt.Errorf("failed to marshal entries: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO exports (id, document_id, folder_name, archive_name, entries, archive_size, output_path, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, record.ExportID, record.DocumentID, record.FolderName, record.ArchiveName,
		string(entriesJSON), record.ArchiveSize, record.OutputPath, record.CreatedAt)
	if err != nil {
		return "", fmt.Errorf("failed to insert export: %w", err)
	}
	return record.ExportID, nil
}

func (s *SQLiteStore) ListExports(ctx context.Context, docID string) ([]models.ExportRecord, error) {
	if err := s.requireDocument(ctx, docID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, document_id, folder_name, archive_name, entries, archive_size, output_path, created_at
		FROM exports
		WHERE document_id = ?
		ORDER BY created_at, rowid
	`, docID)
	if err != nil {
		return nil, fmt.Errorf("failed to query exports: %w", err)
	}
	defer rows.Close()

	records := []models.ExportRecord{}
	for rows.Next() {
		var rec models.ExportRecord
		var entriesJSON string
		var outputPath sql.NullString
		if err := rows.Scan(&rec.ExportID, &rec.DocumentID, &rec.FolderName, &rec.ArchiveName,
			&entriesJSON, &rec.ArchiveSize, &outputPath, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan export: %w", err)
		}
		if err := json.Unmarshal([]byte(entriesJSON), &rec.Entries); err != nil {
			return nil, fmt.Errorf("failed to unmarshal entries: %w", err)
		}
		rec.OutputPath = outputPath.String
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating exports: %w", err)
	}
	return records, nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

var _ Store = (*SQLiteStore)(nil)
