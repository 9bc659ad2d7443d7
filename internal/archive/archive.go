// Package archive bundles extracted section documents into a single zip.
package archive

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
)

// Artifact is one extracted section waiting to be packaged.
type Artifact struct {
	SectionName string
	Data        []byte
}

// Entry is a packaged artifact under its resolved file name.
type Entry struct {
	Name string
	Data []byte
}

// Archive is the packaged output. Entries are in input order.
type Archive struct {
	Name    string
	Entries []Entry
	Data    []byte
}

// EntryNames lists entry names in archive order.
func (a *Archive) EntryNames() []string {
	names := make([]string, len(a.Entries))
	for i, e := range a.Entries {
		names[i] = e.Name
	}
	return names
}

// Package names every artifact as sanitize(folderName-sectionName).pdf,
// disambiguates collisions, and writes all of them into one zip. Nothing
// is returned unless every entry was written.
//
// Names that differ only in letter case count as collisions, since they
// would overwrite each other when extracted on a case-insensitive file
// system: sections "Intro" and "intro" become Folder-Intro.pdf and
// Folder-intro-2.pdf.
func Package(artifacts []Artifact, folderName string) (*Archive, error) {
	if len(artifacts) == 0 {
		return nil, errors.New("no artifacts to package")
	}

	namer := NewNamer(".pdf")
	entries := make([]Entry, len(artifacts))
	for i, a := range artifacts {
		entries[i] = Entry{
			Name: namer.Next(EntryBase(folderName, a.SectionName)),
			Data: a.Data,
		}
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: e.Name, Method: zip.Deflate})
		if err != nil {
			return nil, fmt.Errorf("failed to create entry %s: %w", e.Name, err)
		}
		if _, err := w.Write(e.Data); err != nil {
			return nil, fmt.Errorf("failed to write entry %s: %w", e.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize archive: %w", err)
	}

	return &Archive{
		Name:    ArchiveName(folderName),
		Entries: entries,
		Data:    buf.Bytes(),
	}, nil
}
