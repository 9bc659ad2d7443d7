package storage

import "fmt"

// CalculateResourcePaths lists the resource URIs available for a loaded
// document with the given page count.
func CalculateResourcePaths(docID string, pageCount int) []string {
	paths := []string{
		fmt.Sprintf("pdf://%s", docID),
		fmt.Sprintf("pdf://%s/sections", docID),
		fmt.Sprintf("pdf://%s/exports", docID),
	}
	if pageCount > 0 {
		paths = append(paths, fmt.Sprintf("pdf://%s/pages/1", docID))
	}
	if pageCount > 1 {
		paths = append(paths, fmt.Sprintf("pdf://%s/pages/%d", docID, pageCount))
	}
	return append(paths, fmt.Sprintf("pdf://%s/pages/{pageNumber}", docID))
}
