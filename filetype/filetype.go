// Package filetype resolves the Content-Type announced for an uploaded file.
package filetype

import (
	"io"
	"mime"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/pkg/errors"
)

// Wildcard is announced when nothing better is known about a file.
const Wildcard = "*/*"

// Resolve returns explicit when it is set, otherwise the type registered for
// the extension of path, otherwise Wildcard.
func Resolve(explicit, path string) string {
	if explicit != "" {
		return explicit
	}
	if t := FromExtension(path); t != "" {
		return t
	}
	return Wildcard
}

// FromExtension looks path's extension up in the MIME table. It returns an
// empty string when the path has no extension or the extension is unknown.
func FromExtension(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" || ext == "." {
		return ""
	}
	return mime.TypeByExtension(ext)
}

// Sniff detects a type from the leading bytes of r.
func Sniff(r io.Reader) (string, error) {
	mt, err := mimetype.DetectReader(r)
	if err != nil {
		return "", errors.Wrap(err, "detecting content type")
	}
	return mt.String(), nil
}
