package utils

import (
	"path/filepath"
	"regexp"
	"strings"
)

var unsafeFilenameRunes = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// BaseName strips the directory and extension from a file name.
func BaseName(name string) string {
	base := filepath.Base(name)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// SanitizeFilename replaces runs of filename-unsafe characters with a
// single underscore. An empty or fully-unsafe input becomes "export".
func SanitizeFilename(name string) string {
	s := unsafeFilenameRunes.ReplaceAllString(name, "_")
	s = strings.Trim(s, "._")
	if s == "" {
		return "export"
	}
	return s
}

// ExportFilename builds the download name for an export derived from an
// uploaded document and the mapping applied to it, e.g.
// "week32_wisdot.csv" for upload "week32.pdf" and mapping "wisdot".
func ExportFilename(uploadName, mappingName, ext string) string {
	base := SanitizeFilename(BaseName(uploadName))
	if mappingName != "" {
		base += "_" + SanitizeFilename(mappingName)
	}
	return base + ext
}
