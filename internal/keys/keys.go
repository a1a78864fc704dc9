// Package keys builds the canonical object-store keys for uploaded images
// and finished reports, so the server and analyzer always agree on layout.
package keys

import (
	"fmt"
	"strings"
)

// hashPrefixLen is how much of the content hash goes into the upload key.
// Enough to spread objects across prefixes without unreadable paths.
const hashPrefixLen = 12

// sanitize replaces spaces with hyphens and lowercases the string so the
// filename part of a key stays portable across S3 implementations.
func sanitize(s string) string {
	return strings.ToLower(strings.ReplaceAll(s, " ", "-"))
}

// Upload returns the canonical key for an uploaded image, namespaced by its
// content hash so re-uploads of the same file land on the same object.
func Upload(contentHash, filename string) string {
	prefix := contentHash
	if len(prefix) > hashPrefixLen {
		prefix = prefix[:hashPrefixLen]
	}
	return fmt.Sprintf("uploads/%s/%s", prefix, sanitize(filename))
}

// Report returns the canonical key for a finished analysis report.
func Report(id string) string {
	return fmt.Sprintf("reports/%s.json", id)
}

// Export returns the key for a rendered export of a report, where format is
// the file extension (csv, json, kml).
func Export(id, format string) string {
	return fmt.Sprintf("exports/%s.%s", id, sanitize(format))
}
