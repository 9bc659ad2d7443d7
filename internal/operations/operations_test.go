package operations

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"sync/atomic"
	"testing"

	"github.com/Epistemic-Technology/pdf-sections-mcp/internal/documents"
	"github.com/Epistemic-Technology/pdf-sections-mcp/internal/export"
	"github.com/Epistemic-Technology/pdf-sections-mcp/internal/logger"
	"github.com/Epistemic-Technology/pdf-sections-mcp/internal/pdftest"
	"github.com/Epistemic-Technology/pdf-sections-mcp/internal/sections"
	"github.com/Epistemic-Technology/pdf-sections-mcp/internal/storage"
	"github.com/Epistemic-Technology/pdf-sections-mcp/models"
)

func newTestStore(t *testing.T) storage.Store {
	t.Helper()
	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "ops.db"), logger.NewNoOpLogger())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func loadRaw(t *testing.T, store storage.Store, pages int, name string) *LoadedDocument {
	t.Helper()
	loaded, err := GetOrLoadDocument(context.Background(), LoadParams{RawData: pdftest.Build(pages), Name: name},
		store, documents.ZoteroCredentials{}, logger.NewNoOpLogger())
	if err != nil {
		t.Fatalf("GetOrLoadDocument failed: %v", err)
	}
	return loaded
}

func TestGetOrLoadDocument_RawData(t *testing.T) {
	store := newTestStore(t)
	loaded := loadRaw(t, store, 10, "Report.pdf")

	if loaded.Info.PageCount != 10 || loaded.Document.PageCount() != 10 {
		t.Errorf("Expected 10 pages, got %d / %d", loaded.Info.PageCount, loaded.Document.PageCount())
	}
	if loaded.Info.Name != "Report.pdf" {
		t.Errorf("Unexpected name %q", loaded.Info.Name)
	}
	if len(loaded.Sections) != 1 || loaded.Sections[0].Name != "Section 1" ||
		loaded.Sections[0].StartPage != 1 || loaded.Sections[0].EndPage != 10 {
		t.Errorf("Unexpected default sections: %v", loaded.Sections)
	}

	// Loading the same bytes again returns the stored document and its edits.
	if _, _, err := AddSection(context.Background(), loaded.DocumentID, store); err != nil {
		t.Fatalf("AddSection failed: %v", err)
	}
	again := loadRaw(t, store, 10, "Report.pdf")
	if again.DocumentID != loaded.DocumentID {
		t.Errorf("Expected same id, got %s and %s", loaded.DocumentID, again.DocumentID)
	}
	if len(again.Sections) != 2 {
		t.Errorf("Stored sections should survive a reload, got %v", again.Sections)
	}
}

func TestGetOrLoadDocument_URL(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Write(pdftest.Build(3))
	}))
	defer server.Close()

	store := newTestStore(t)
	params := LoadParams{URL: server.URL + "/papers/Thesis%20Draft.pdf"}
	loaded, err := GetOrLoadDocument(context.Background(), params, store, documents.ZoteroCredentials{}, logger.NewNoOpLogger())
	if err != nil {
		t.Fatalf("GetOrLoadDocument failed: %v", err)
	}
	if loaded.Info.Name != "Thesis Draft.pdf" || loaded.Info.SourceInfo.URL != params.URL {
		t.Errorf("Unexpected info: %+v", loaded.Info)
	}

	if _, err := GetOrLoadDocument(context.Background(), params, store, documents.ZoteroCredentials{}, logger.NewNoOpLogger()); err != nil {
		t.Fatalf("Second GetOrLoadDocument failed: %v", err)
	}
	if n := requests.Load(); n != 1 {
		t.Errorf("A stored URL document should not be fetched again, got %d requests", n)
	}
}

func TestGetOrLoadDocument_Errors(t *testing.T) {
	store := newTestStore(t)
	log := logger.NewNoOpLogger()

	if _, err := GetOrLoadDocument(context.Background(), LoadParams{}, store, documents.ZoteroCredentials{}, log); err == nil {
		t.Error("Expected error without a source")
	}
	if _, err := GetOrLoadDocument(context.Background(), LoadParams{URL: "https://x", RawData: []byte("%PDF")}, store, documents.ZoteroCredentials{}, log); err == nil {
		t.Error("Expected error with two sources")
	}

	_, err := GetOrLoadDocument(context.Background(), LoadParams{RawData: []byte("plain text, not a pdf")}, store, documents.ZoteroCredentials{}, log)
	var loadErr *documents.LoadError
	if !errors.As(err, &loadErr) {
		t.Errorf("Expected LoadError, got %v", err)
	}
	if docs, _ := store.ListDocuments(context.Background()); len(docs) != 0 {
		t.Errorf("Rejected input must not be stored, got %v", docs)
	}
}

func TestSectionEditing(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	docID := loadRaw(t, store, 10, "Report.pdf").DocumentID

	list, err := SetSections(ctx, docID, []models.Section{
		{Name: " Intro ", StartPage: 1, EndPage: 2},
		{Name: "Body", StartPage: 3, EndPage: 8},
	}, store)
	if err != nil {
		t.Fatalf("SetSections failed: %v", err)
	}
	if list[0].Name != "Intro" || list[0].ID == "" || list[1].ID == "" {
		t.Errorf("Sections not normalized: %v", list)
	}

	list, added, err := AddSection(ctx, docID, store)
	if err != nil {
		t.Fatalf("AddSection failed: %v", err)
	}
	if added.Name != "Section 3" || added.StartPage != 9 || added.EndPage != 10 || len(list) != 3 {
		t.Errorf("Unexpected added section %+v", added)
	}

	name := "Appendix"
	list, err = UpdateSection(ctx, docID, added.ID, sections.Patch{Name: &name}, store)
	if err != nil {
		t.Fatalf("UpdateSection failed: %v", err)
	}
	if list[2].Name != "Appendix" {
		t.Errorf("Update not applied: %v", list)
	}

	blank := "  "
	if _, err := UpdateSection(ctx, docID, added.ID, sections.Patch{Name: &blank}, store); err == nil {
		t.Error("Expected error for a blank name")
	}

	if _, err := RemoveSection(ctx, docID, "missing", store); !IsNotFound(err) {
		t.Errorf("Expected not found, got %v", err)
	}
	if _, err := RemoveSection(ctx, "missing-doc", added.ID, store); !IsNotFound(err) {
		t.Errorf("Expected document not found, got %v", err)
	}

	list, err = RemoveSection(ctx, docID, list[1].ID, store)
	if err != nil {
		t.Fatalf("RemoveSection failed: %v", err)
	}
	if len(list) != 2 || list[1].Name != "Appendix" {
		t.Errorf("Unexpected list after remove: %v", list)
	}

	stored, _ := store.GetSections(ctx, docID)
	if !reflect.DeepEqual([]models.Section(list), stored) {
		t.Errorf("Stored list %v differs from returned %v", stored, list)
	}
}

func TestValidateSections(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	docID := loadRaw(t, store, 10, "Report.pdf").DocumentID

	if _, total, err := ValidateSections(ctx, docID, store); err != nil || total != 10 {
		t.Errorf("Default list should validate, got %v (total %d)", err, total)
	}

	if _, err := SetSections(ctx, docID, []models.Section{{Name: "Bad", StartPage: 5, EndPage: 3}}, store); err != nil {
		t.Fatalf("SetSections failed: %v", err)
	}
	_, _, err := ValidateSections(ctx, docID, store)
	var rangeErr *sections.InvalidRangeError
	if !errors.As(err, &rangeErr) || rangeErr.SectionName != "Bad" {
		t.Errorf("Expected InvalidRangeError for Bad, got %v", err)
	}
}

func TestExportDocument(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	docID := loadRaw(t, store, 10, "Report.pdf").DocumentID
	outputDir := filepath.Join(t.TempDir(), "exports")

	result, err := ExportDocument(ctx, docID, ExportParams{
		Sections: []models.Section{
			{Name: "Intro", StartPage: 1, EndPage: 2},
			{Name: "Body", StartPage: 3, EndPage: 8},
			{Name: "Appendix", StartPage: 9, EndPage: 10},
		},
		OutputDir:   outputDir,
		Parallelism: 2,
	}, store, logger.NewNoOpLogger())
	if err != nil {
		t.Fatalf("ExportDocument failed: %v", err)
	}

	if result.Archive.Name != "Report.zip" || result.Record.FolderName != "Report" {
		t.Errorf("Unexpected names: %s, %s", result.Archive.Name, result.Record.FolderName)
	}
	expected := []string{"Report-Intro.pdf", "Report-Body.pdf", "Report-Appendix.pdf"}
	if !reflect.DeepEqual(result.Record.Entries, expected) {
		t.Errorf("Entries = %v, want %v", result.Record.Entries, expected)
	}

	written, err := os.ReadFile(filepath.Join(outputDir, "Report.zip"))
	if err != nil {
		t.Fatalf("Archive not written: %v", err)
	}
	if !reflect.DeepEqual(written, result.Archive.Data) {
		t.Error("Written archive differs from returned bytes")
	}

	records, err := store.ListExports(ctx, docID)
	if err != nil {
		t.Fatalf("ListExports failed: %v", err)
	}
	if len(records) != 1 || records[0].ExportID != result.Record.ExportID || records[0].OutputPath == "" {
		t.Errorf("Unexpected export history: %+v", records)
	}

	stored, _ := store.GetSections(ctx, docID)
	if len(stored) != 3 {
		t.Errorf("Sections given to export should become the current list, got %v", stored)
	}
}

func TestExportDocument_FailureKeepsSections(t *testing.T) {
	tests := []struct {
		name     string
		override []models.Section
		check    func(error) bool
	}{
		{
			name:     "invalid range",
			override: []models.Section{{Name: "Bad", StartPage: 5, EndPage: 3}},
			check: func(err error) bool {
				var rangeErr *sections.InvalidRangeError
				return errors.As(err, &rangeErr) && rangeErr.SectionName == "Bad"
			},
		},
		{
			name:     "empty override",
			override: []models.Section{},
			check:    func(err error) bool { return errors.Is(err, sections.ErrEmptySectionList) },
		},
		{
			name:     "unnamed section",
			override: []models.Section{{Name: " ", StartPage: 1, EndPage: 2}},
			check:    export.IsPipelineError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := newTestStore(t)
			docID := loadRaw(t, store, 10, "Report.pdf").DocumentID
			before, err := store.GetSections(ctx, docID)
			if err != nil {
				t.Fatalf("GetSections failed: %v", err)
			}

			_, err = ExportDocument(ctx, docID, ExportParams{
				FolderName: "Custom",
				Sections:   tt.override,
			}, store, logger.NewNoOpLogger())
			if !export.IsPipelineError(err) || !tt.check(err) {
				t.Fatalf("Unexpected error: %v", err)
			}

			after, err := store.GetSections(ctx, docID)
			if err != nil {
				t.Fatalf("GetSections failed: %v", err)
			}
			if !reflect.DeepEqual(before, after) {
				t.Errorf("Stored sections changed after a failed export: before %v, after %v", before, after)
			}
			if records, _ := store.ListExports(ctx, docID); len(records) != 0 {
				t.Errorf("Failed exports must not be recorded, got %v", records)
			}
		})
	}
}

// failingStore fails the chosen writes and passes everything else through.
type failingStore struct {
	storage.Store
	failSaveSections bool
	failRecordExport bool
}

var errStoreWrite = errors.New("disk full")

func (s *failingStore) SaveSections(ctx context.Context, docID string, list []models.Section) error {
	if s.failSaveSections {
		return errStoreWrite
	}
	return s.Store.SaveSections(ctx, docID, list)
}

func (s *failingStore) RecordExport(ctx context.Context, record models.ExportRecord) (string, error) {
	if s.failRecordExport {
		return "", errStoreWrite
	}
	return s.Store.RecordExport(ctx, record)
}

func TestGetOrLoadDocument_SectionStoreFailure(t *testing.T) {
	ctx := context.Background()
	store := &failingStore{Store: newTestStore(t), failSaveSections: true}
	data := pdftest.Build(4)

	_, err := GetOrLoadDocument(ctx, LoadParams{RawData: data}, store, documents.ZoteroCredentials{}, logger.NewNoOpLogger())
	if !errors.Is(err, errStoreWrite) {
		t.Fatalf("Expected store error, got %v", err)
	}

	docID := storage.GenerateDocumentID(models.SourceInfo{}, data)
	exists, err := store.DocumentExists(ctx, docID)
	if err != nil {
		t.Fatalf("DocumentExists failed: %v", err)
	}
	if exists {
		t.Error("Document should not stay stored without sections")
	}

	// A retry once the store recovers loads the document normally.
	store.failSaveSections = false
	loaded, err := GetOrLoadDocument(ctx, LoadParams{RawData: data}, store, documents.ZoteroCredentials{}, logger.NewNoOpLogger())
	if err != nil {
		t.Fatalf("Retry failed: %v", err)
	}
	if len(loaded.Sections) != 1 {
		t.Errorf("Expected default section list on retry, got %v", loaded.Sections)
	}
}

func TestExportDocument_RecordFailureRemovesArchive(t *testing.T) {
	ctx := context.Background()
	base := newTestStore(t)
	docID := loadRaw(t, base, 4, "Report.pdf").DocumentID
	store := &failingStore{Store: base, failRecordExport: true}
	outputDir := t.TempDir()

	before, _ := base.GetSections(ctx, docID)

	_, err := ExportDocument(ctx, docID, ExportParams{
		OutputDir: outputDir,
		Sections:  []models.Section{{Name: "Front", StartPage: 1, EndPage: 2}},
	}, store, logger.NewNoOpLogger())
	if !errors.Is(err, errStoreWrite) {
		t.Fatalf("Expected store error, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(outputDir, "Report.zip")); !os.IsNotExist(err) {
		t.Errorf("Archive should be removed when recording fails, stat err = %v", err)
	}
	if after, _ := base.GetSections(ctx, docID); !reflect.DeepEqual(before, after) {
		t.Errorf("Sections should be restored when recording fails: before %v, after %v", before, after)
	}
}

func TestDefaultFolderName(t *testing.T) {
	tests := []struct {
		name     string
		expected string
	}{
		{"Report.pdf", "Report"},
		{"archive.v2.pdf", "archive.v2"},
		{"/tmp/docs/Thesis.pdf", "Thesis"},
		{"", "Exported_PDFs"},
	}
	for _, tt := range tests {
		if got := DefaultFolderName(tt.name); got != tt.expected {
			t.Errorf("DefaultFolderName(%q) = %q, want %q", tt.name, got, tt.expected)
		}
	}
}

func TestSuggestSections_MissingAPIKey(t *testing.T) {
	store := newTestStore(t)
	docID := loadRaw(t, store, 4, "Report.pdf").DocumentID

	if _, err := SuggestSections(context.Background(), docID, SuggestParams{}, store, logger.NewNoOpLogger()); err == nil {
		t.Error("Expected error without an API key")
	}
	stored, _ := store.GetSections(context.Background(), docID)
	if len(stored) != 1 {
		t.Errorf("A failed suggestion must leave the list unchanged, got %v", stored)
	}
}
