package operations

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Epistemic-Technology/pdf-sections-mcp/internal/archive"
	"github.com/Epistemic-Technology/pdf-sections-mcp/internal/export"
	"github.com/Epistemic-Technology/pdf-sections-mcp/internal/logger"
	"github.com/Epistemic-Technology/pdf-sections-mcp/internal/sections"
	"github.com/Epistemic-Technology/pdf-sections-mcp/internal/storage"
	"github.com/Epistemic-Technology/pdf-sections-mcp/models"
)

// ExportParams configures ExportDocument.
type ExportParams struct {
	// FolderName defaults to the document name without its extension.
	FolderName string
	// Sections, when non-nil, is exported instead of the stored list. It
	// becomes the stored list only if the export succeeds.
	Sections []models.Section
	// OutputDir, when set, receives a copy of the archive.
	OutputDir   string
	Parallelism int
}

// ExportResult is a finished export.
type ExportResult struct {
	Archive *archive.Archive
	Record  models.ExportRecord
}

// ExportDocument runs the export pipeline over a stored document and
// records the result in the export history.
//
// Parameters:
//   - ctx: Context for cancellation; checked before every section
//   - docID: ID of a document previously stored by GetOrLoadDocument
//   - params: Folder name, optional section override, output directory and
//     extraction parallelism
//   - store: Storage backend holding the document, its sections and exports
//   - log: Logger for recording operations
//
// Returns:
//   - result: The archive and the export record that was stored
//   - error: A validation, extraction or packaging error from the pipeline,
//     or a storage or file error. On any error the stored section list is
//     left as it was and no archive file remains in OutputDir.
func ExportDocument(ctx context.Context, docID string, params ExportParams, store storage.Store, log logger.Logger) (*ExportResult, error) {
	loaded, err := OpenDocument(ctx, docID, store)
	if err != nil {
		return nil, err
	}

	list := loaded.Sections
	if params.Sections != nil {
		list, err = sections.Normalize(params.Sections)
		if err != nil {
			return nil, err
		}
	}

	folderName := params.FolderName
	if folderName == "" {
		folderName = DefaultFolderName(loaded.Info.Name)
	}

	result, err := export.RunExport(ctx, loaded.Document, list, folderName, export.Options{
		Parallelism: params.Parallelism,
		Log:         log,
	})
	if err != nil {
		return nil, err
	}

	record := models.ExportRecord{
		DocumentID:  docID,
		FolderName:  folderName,
		ArchiveName: result.Name,
		Entries:     result.EntryNames(),
		ArchiveSize: len(result.Data),
	}
	if params.OutputDir != "" {
		outputPath, err := writeArchive(params.OutputDir, result)
		if err != nil {
			return nil, err
		}
		record.OutputPath = outputPath
		log.Info("Wrote %s", outputPath)
	}

	if params.Sections != nil {
		if err := store.SaveSections(ctx, docID, list); err != nil {
			removeArchive(record.OutputPath, log)
			return nil, fmt.Errorf("failed to store sections: %w", err)
		}
	}

	record.ExportID, err = store.RecordExport(ctx, record)
	if err != nil {
		removeArchive(record.OutputPath, log)
		if params.Sections != nil {
			if restoreErr := store.SaveSections(ctx, docID, loaded.Sections); restoreErr != nil {
				log.Warn("Failed to restore sections of %s: %v", docID, restoreErr)
			}
		}
		return nil, fmt.Errorf("failed to record export: %w", err)
	}
	return &ExportResult{Archive: result, Record: record}, nil
}

func writeArchive(dir string, a *archive.Archive) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}
	outputPath := filepath.Join(dir, a.Name)
	if err := os.WriteFile(outputPath, a.Data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write archive: %w", err)
	}
	return outputPath, nil
}

func removeArchive(path string, log logger.Logger) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Warn("Failed to remove %s: %v", path, err)
	}
}
