package pathres

import (
	"net/url"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// URIToPath converts a file:// URI (or a bare path) to an absolute OS path.
// Non-file schemes yield "".
func URIToPath(uri string) string {
	if uri == "" {
		return ""
	}
	parsed, err := url.Parse(uri)
	if err != nil {
		return ""
	}
	if parsed.Scheme != "" && parsed.Scheme != "file" {
		return ""
	}
	path := parsed.Path
	if parsed.Scheme == "" {
		path = uri
	}
	if unescaped, err := url.PathUnescape(path); err == nil {
		path = unescaped
	}
	path = filepath.FromSlash(path)
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return norm.NFC.String(path)
}

// PathToURI converts an OS path into the canonical file URI used as a map key
// everywhere in the analysis: absolute, cleaned, NFC-normalised.
func PathToURI(path string) string {
	if path == "" {
		return ""
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	path = norm.NFC.String(filepath.ToSlash(filepath.Clean(path)))
	if !strings.HasPrefix(path, "/") {
		// windows drive letters: file:///C:/x
		path = "/" + path
	}
	u := url.URL{Scheme: "file", Path: path}
	return u.String()
}

// Canonical re-encodes a client-supplied URI so that equal files compare equal.
func Canonical(uri string) string {
	p := URIToPath(uri)
	if p == "" {
		return uri
	}
	return PathToURI(p)
}

// Base returns the file name of a URI, for display.
func Base(uri string) string {
	if p := URIToPath(uri); p != "" {
		return filepath.Base(p)
	}
	return uri
}
