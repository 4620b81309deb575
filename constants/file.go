package constants

import "strings"

// AllowedExtensions holds the file extensions accepted for ingestion.
// Scanners in the field only hand us PDFs today.
var AllowedExtensions = map[string]struct{}{
	"pdf": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
