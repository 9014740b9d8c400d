package diagfmt

import (
	"path/filepath"

	"raven/internal/diag"
	"raven/internal/pathres"
)

func displayPath(uri string, mode PathMode, base string) string {
	switch mode {
	case PathModeAbsolute:
		if p := pathres.URIToPath(uri); p != "" {
			return p
		}
		return uri
	case PathModeBasename:
		return pathres.Base(uri)
	default:
		return diag.DisplayPath(uri, base)
	}
}

// slashPath is displayPath with forward slashes, for machine formats.
func slashPath(uri string, mode PathMode, base string) string {
	return filepath.ToSlash(displayPath(uri, mode, base))
}
