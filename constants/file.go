package constants

import "strings"

// FileTypePDF is the only format parse_jobs currently accepts.
const FileTypePDF = "PDF"

// FileTypes holds the allowed file types for the format field in ParseJob.
var FileTypes = []string{FileTypePDF}

// AllowedExtensions holds the default allowed file extensions for payroll ingestion.
var AllowedExtensions = map[string]struct{}{
	"pdf": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsAllowedExt reports whether an extension is in the allowed set.
func IsAllowedExt(ext string) bool {
	_, ok := AllowedExtensions[NormalizeExt(ext)]
	return ok
}

// MapExtToFormat maps a file extension to its ParseJob format, or ""
// when the extension is unsupported.
func MapExtToFormat(ext string) string {
	if IsAllowedExt(ext) {
		return FileTypePDF
	}
	return ""
}
