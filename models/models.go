package models

import "time"

// Section is a named, 1-indexed inclusive page range over a source document.
type Section struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	StartPage int    `json:"start_page"`
	EndPage   int    `json:"end_page"`
}

// PageCount returns the number of pages the range covers, or 0 for an
// inverted range.
func (s Section) PageCount() int {
	if s.EndPage < s.StartPage {
		return 0
	}
	return s.EndPage - s.StartPage + 1
}

// SuggestedSection is a loosely typed section record as produced by the
// suggestion service or a client. It carries no identifier.
type SuggestedSection struct {
	Name      string `json:"name"`
	StartPage int    `json:"start_page"`
	EndPage   int    `json:"end_page"`
}

type DocumentData struct {
	Data []byte
	Type string
	Name string
}

// SourceInfo contains information about where the PDF came from
type SourceInfo struct {
	ZoteroID string `json:"zotero_id,omitempty"`
	URL      string `json:"url,omitempty"`
}

// DocumentInfo contains basic information about a stored document
type DocumentInfo struct {
	DocumentID string     `json:"document_id"`
	Name       string     `json:"name"`
	PageCount  int        `json:"page_count"`
	Size       int        `json:"size"`
	SourceInfo SourceInfo `json:"source_info,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// ExportRecord describes one completed export of a document.
type ExportRecord struct {
	ExportID    string    `json:"export_id"`
	DocumentID  string    `json:"document_id"`
	FolderName  string    `json:"folder_name"`
	ArchiveName string    `json:"archive_name"`
	Entries     []string  `json:"entries"`
	ArchiveSize int       `json:"archive_size"`
	OutputPath  string    `json:"output_path,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
