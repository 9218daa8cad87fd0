package reproject

import (
	"path/filepath"
	"regexp"
	"strings"
)

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// secureFilename reduces an uploaded file name to a safe basename: path
// separators are stripped, anything outside [A-Za-z0-9._-] is replaced and
// leading dots are removed.
func secureFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)
	name = unsafeChars.ReplaceAllString(name, "_")
	name = strings.TrimLeft(name, ".")
	if name == "" {
		name = "upload.zip"
	}
	return name
}
