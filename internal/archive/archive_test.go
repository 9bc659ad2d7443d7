package archive

import (
	"archive/zip"
	"bytes"
	"io"
	"reflect"
	"testing"
)

func readZip(t *testing.T, data []byte) map[string][]byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("Archive is not a valid zip: %v", err)
	}
	files := make(map[string][]byte)
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("Failed to open entry %s: %v", f.Name, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("Failed to read entry %s: %v", f.Name, err)
		}
		files[f.Name] = content
	}
	return files
}

func zipOrder(t *testing.T, data []byte) []string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("Archive is not a valid zip: %v", err)
	}
	names := make([]string, len(zr.File))
	for i, f := range zr.File {
		names[i] = f.Name
	}
	return names
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Report-Intro", "Report-Intro"},
		{`a/b\c?d%e*f:g|h"i<j>k`, "a-b-c-d-e-f-g-h-i-j-k"},
		{"Chapter 1: Origins", "Chapter 1- Origins"},
		{"naïve café", "naïve café"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Sanitize(tt.input); got != tt.expected {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNamer(t *testing.T) {
	tests := []struct {
		name     string
		bases    []string
		expected []string
	}{
		{
			name:     "distinct",
			bases:    []string{"F-A", "F-B"},
			expected: []string{"F-A.pdf", "F-B.pdf"},
		},
		{
			name:     "duplicates",
			bases:    []string{"F-Intro", "F-Intro", "F-Intro"},
			expected: []string{"F-Intro.pdf", "F-Intro-2.pdf", "F-Intro-3.pdf"},
		},
		{
			name:     "suffix already taken",
			bases:    []string{"F-Intro", "F-Intro-2", "F-Intro"},
			expected: []string{"F-Intro.pdf", "F-Intro-2.pdf", "F-Intro-3.pdf"},
		},
		{
			name:     "generated name collides with later natural name",
			bases:    []string{"F-Intro", "F-Intro", "F-Intro-2"},
			expected: []string{"F-Intro.pdf", "F-Intro-2.pdf", "F-Intro-2-2.pdf"},
		},
		{
			name:     "case-insensitive",
			bases:    []string{"F-intro", "F-INTRO"},
			expected: []string{"F-intro.pdf", "F-INTRO-2.pdf"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			namer := NewNamer(".pdf")
			var got []string
			for _, base := range tt.bases {
				got = append(got, namer.Next(base))
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Names = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestPackage(t *testing.T) {
	artifacts := []Artifact{
		{SectionName: "Intro", Data: []byte("intro bytes")},
		{SectionName: "Body", Data: []byte("body bytes")},
		{SectionName: "Appendix", Data: []byte("appendix bytes")},
	}

	archive, err := Package(artifacts, "Report")
	if err != nil {
		t.Fatalf("Package failed: %v", err)
	}

	expected := []string{"Report-Intro.pdf", "Report-Body.pdf", "Report-Appendix.pdf"}
	if !reflect.DeepEqual(archive.EntryNames(), expected) {
		t.Errorf("EntryNames() = %v, want %v", archive.EntryNames(), expected)
	}
	if archive.Name != "Report.zip" {
		t.Errorf("Expected archive name Report.zip, got %s", archive.Name)
	}
	if order := zipOrder(t, archive.Data); !reflect.DeepEqual(order, expected) {
		t.Errorf("Zip order = %v, want %v", order, expected)
	}

	files := readZip(t, archive.Data)
	for i, name := range expected {
		if !bytes.Equal(files[name], artifacts[i].Data) {
			t.Errorf("Entry %s = %q, want %q", name, files[name], artifacts[i].Data)
		}
	}
}

func TestPackage_Collisions(t *testing.T) {
	artifacts := []Artifact{
		{SectionName: "Intro", Data: []byte("first")},
		{SectionName: "Intro", Data: []byte("second")},
		{SectionName: "a/b", Data: []byte("slash")},
		{SectionName: "a:b", Data: []byte("colon")},
	}

	archive, err := Package(artifacts, "Folder")
	if err != nil {
		t.Fatalf("Package failed: %v", err)
	}

	expected := []string{"Folder-Intro.pdf", "Folder-Intro-2.pdf", "Folder-a-b.pdf", "Folder-a-b-2.pdf"}
	if !reflect.DeepEqual(archive.EntryNames(), expected) {
		t.Errorf("EntryNames() = %v, want %v", archive.EntryNames(), expected)
	}

	files := readZip(t, archive.Data)
	if len(files) != 4 {
		t.Fatalf("Expected 4 distinct zip entries, got %d", len(files))
	}
	if string(files["Folder-Intro.pdf"]) != "first" || string(files["Folder-Intro-2.pdf"]) != "second" {
		t.Error("Colliding entries should keep encounter order")
	}
}

func TestPackage_CaseOnlyCollision(t *testing.T) {
	archive, err := Package([]Artifact{
		{SectionName: "Intro", Data: []byte("upper")},
		{SectionName: "intro", Data: []byte("lower")},
	}, "Folder")
	if err != nil {
		t.Fatalf("Package failed: %v", err)
	}

	expected := []string{"Folder-Intro.pdf", "Folder-intro-2.pdf"}
	if got := archive.EntryNames(); !reflect.DeepEqual(got, expected) {
		t.Errorf("EntryNames() = %v, want %v", got, expected)
	}
	files := readZip(t, archive.Data)
	if string(files["Folder-Intro.pdf"]) != "upper" || string(files["Folder-intro-2.pdf"]) != "lower" {
		t.Errorf("Unexpected entry contents: %v", files)
	}
}

func TestPackage_SanitizesFolder(t *testing.T) {
	archive, err := Package([]Artifact{{SectionName: "Part", Data: []byte("x")}}, "Q1/Q2 report")
	if err != nil {
		t.Fatalf("Package failed: %v", err)
	}
	if archive.EntryNames()[0] != "Q1-Q2 report-Part.pdf" {
		t.Errorf("Unexpected entry name %s", archive.EntryNames()[0])
	}
	if archive.Name != "Q1-Q2 report.zip" {
		t.Errorf("Unexpected archive name %s", archive.Name)
	}
}

func TestPackage_Deterministic(t *testing.T) {
	artifacts := []Artifact{{SectionName: "A", Data: []byte("aaa")}, {SectionName: "A", Data: []byte("bbb")}}

	first, err := Package(artifacts, "F")
	if err != nil {
		t.Fatalf("Package failed: %v", err)
	}
	second, err := Package(artifacts, "F")
	if err != nil {
		t.Fatalf("Package failed: %v", err)
	}
	if !reflect.DeepEqual(first.EntryNames(), second.EntryNames()) {
		t.Errorf("Entry names differ between runs: %v vs %v", first.EntryNames(), second.EntryNames())
	}
	if !bytes.Equal(first.Data, second.Data) {
		t.Error("Archive bytes differ between identical runs")
	}
}

func TestPackage_Empty(t *testing.T) {
	if _, err := Package(nil, "F"); err == nil {
		t.Error("Expected error for empty artifact list")
	}
}
