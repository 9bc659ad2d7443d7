package archive

import (
	"strconv"
	"strings"
)

// unsafeChars are replaced in entry names so they are valid file names on
// common filesystems.
const unsafeChars = `/\?%*:|"<>`

// Sanitize replaces every character of unsafeChars in name with '-'.
func Sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(unsafeChars, r) {
			return '-'
		}
		return r
	}, name)
}

// EntryBase is the sanitized entry name without extension.
func EntryBase(folderName, sectionName string) string {
	return Sanitize(folderName + "-" + sectionName)
}

// ArchiveName is the file name offered for the whole archive.
func ArchiveName(folderName string) string {
	return Sanitize(folderName) + ".zip"
}

// Namer hands out collision-free entry names in encounter order. The
// first use of a name keeps it; later uses get -2, -3, ... appended before
// the extension. Names are compared case-insensitively, since archives are
// often unpacked onto case-insensitive filesystems.
type Namer struct {
	ext  string
	used map[string]bool
}

// NewNamer returns a Namer for entries with the given extension (".pdf").
func NewNamer(ext string) *Namer {
	return &Namer{ext: ext, used: make(map[string]bool)}
}

// Next returns a name for base that no earlier name equals, ignoring
// case, and reserves it.
func (n *Namer) Next(base string) string {
	name := base + n.ext
	for suffix := 2; n.used[strings.ToLower(name)]; suffix++ {
		name = base + "-" + strconv.Itoa(suffix) + n.ext
	}
	n.used[strings.ToLower(name)] = true
	return name
}
