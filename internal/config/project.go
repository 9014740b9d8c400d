package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// ManifestName is the project manifest searched from the workspace root up.
const ManifestName = "raven.toml"

// Manifest is a parsed raven.toml.
type Manifest struct {
	Path      string
	Root      string
	Overrides Overrides
	// Defined lists the dotted keys present in the file.
	Defined []string
}

// FindManifest walks up from startDir looking for raven.toml.
func FindManifest(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, ManifestName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// LoadManifest finds and parses the manifest above startDir. Unknown keys
// are logged and ignored.
func LoadManifest(startDir string, log *slog.Logger) (*Manifest, bool, error) {
	path, ok, err := FindManifest(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	var o Overrides
	meta, err := toml.DecodeFile(path, &o)
	if err != nil {
		return nil, true, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if log != nil {
		for _, key := range meta.Undecoded() {
			log.Warn("unknown raven.toml key", "path", path, "key", key.String())
		}
	}
	m := &Manifest{Path: path, Root: filepath.Dir(path), Overrides: o}
	for _, key := range meta.Keys() {
		if meta.IsDefined(key...) && meta.Type(key...) != "Hash" {
			m.Defined = append(m.Defined, strings.Join(key, "."))
		}
	}
	if !meta.IsDefined("crossFile") && !meta.IsDefined("diagnostics") {
		// пустой манифест только отмечает корень проекта
		m.Overrides = Overrides{}
	}
	return m, true, nil
}
