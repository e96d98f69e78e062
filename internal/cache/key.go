package cache

import (
	"path"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Key returns the registry key for an asset name.
//
// Names that differ only in Unicode composition, separator style or redundant
// path elements map to the same key, so "Über.png" typed on two different
// systems, or "ui//a.png" and "ui/./a.png", share one cache entry.
func Key(name string) string {
	return norm.NFC.String(Path(name))
}

// Path returns the file system path for an asset name: backslashes become
// slashes and redundant elements are removed. The Unicode form is kept, so
// a file stored under a decomposed name is still found.
func Path(name string) string {
	if name == "" {
		return ""
	}
	return path.Clean(strings.ReplaceAll(name, `\`, "/"))
}
