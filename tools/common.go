package tools

import (
	"github.com/Epistemic-Technology/pdf-sections-mcp/internal/config"
	"github.com/Epistemic-Technology/pdf-sections-mcp/internal/documents"
	"github.com/Epistemic-Technology/pdf-sections-mcp/models"
)

// SectionResult is the wire form of a section.
type SectionResult struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	StartPage int    `json:"start_page"`
	EndPage   int    `json:"end_page"`
}

// SectionInput is a section supplied by the client. ID is optional.
type SectionInput struct {
	ID        string `json:"id,omitempty"`
	Name      string `json:"name"`
	StartPage int    `json:"start_page"`
	EndPage   int    `json:"end_page"`
}

func toSectionResults(list []models.Section) []SectionResult {
	out := make([]SectionResult, len(list))
	for i, s := range list {
		out[i] = SectionResult{ID: s.ID, Name: s.Name, StartPage: s.StartPage, EndPage: s.EndPage}
	}
	return out
}

func fromSectionInputs(in []SectionInput) []models.Section {
	out := make([]models.Section, len(in))
	for i, s := range in {
		out[i] = models.Section{ID: s.ID, Name: s.Name, StartPage: s.StartPage, EndPage: s.EndPage}
	}
	return out
}

func zoteroCredentials(cfg *config.Config) documents.ZoteroCredentials {
	return documents.ZoteroCredentials{APIKey: cfg.ZoteroKey, LibraryID: cfg.ZoteroLib}
}
