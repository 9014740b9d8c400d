package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Межфайловые
	XFileInfo          Code = 1000
	XFileMissing       Code = 1001
	XFileCircular      Code = 1002
	XFileMaxDepth      Code = 1003
	XFileAmbiguous     Code = 1004
	XFileConflict      Code = 1005
	XFileBadDirective  Code = 1006
	XFileWorkingDirErr Code = 1007

	// Области видимости
	ScopeInfo       Code = 2000
	ScopeOutOfScope Code = 2001
	ScopeUndefined  Code = 2002
)

var codeName = map[Code]string{
	UnknownCode:        "unknown",
	XFileInfo:          "cross-file",
	XFileMissing:       "missing-file",
	XFileCircular:      "circular-dependency",
	XFileMaxDepth:      "max-chain-depth",
	XFileAmbiguous:     "ambiguous-parent",
	XFileConflict:      "source-conflict",
	XFileBadDirective:  "bad-directive",
	XFileWorkingDirErr: "bad-working-directory",
	ScopeInfo:          "scope",
	ScopeOutOfScope:    "out-of-scope",
	ScopeUndefined:     "undefined-variable",
}

// ID returns the short prefixed form, e.g. XF1001.
func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("XF%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("SCP%04d", ic)
	}
	return fmt.Sprintf("E%04d", int(c))
}

// String returns the kebab-case name used as the LSP diagnostic code.
func (c Code) String() string {
	if name, ok := codeName[c]; ok {
		return name
	}
	return c.ID()
}
