package diag

import (
	"errors"
	"fmt"
	"strings"
)

// Severity defines the importance of a diagnostic.
type Severity uint8

const (
	// SevOff disables a diagnostic kind.
	SevOff Severity = iota
	SevHint
	// SevInfo is for informational diagnostics.
	SevInfo
	// SevWarning is for warning diagnostics.
	SevWarning
	SevError
)

// ErrInvalidSeverity is returned by ParseSeverity for unknown names.
var ErrInvalidSeverity = errors.New("invalid severity")

func (s Severity) String() string {
	switch s {
	case SevOff:
		return "off"
	case SevHint:
		return "hint"
	case SevInfo:
		return "information"
	case SevWarning:
		return "warning"
	case SevError:
		return "error"
	}
	return "unknown"
}

// LSP returns the DiagnosticSeverity number, 0 for SevOff.
func (s Severity) LSP() int {
	switch s {
	case SevError:
		return 1
	case SevWarning:
		return 2
	case SevInfo:
		return 3
	case SevHint:
		return 4
	}
	return 0
}

// ParseSeverity accepts error, warning, information (or info), hint and
// off, case-insensitively.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "off":
		return SevOff, nil
	case "hint":
		return SevHint, nil
	case "information", "info":
		return SevInfo, nil
	case "warning":
		return SevWarning, nil
	case "error":
		return SevError, nil
	}
	return SevOff, fmt.Errorf("%w: %q", ErrInvalidSeverity, s)
}

// MarshalText lets severities appear in config files and JSON by name.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Severity) UnmarshalText(text []byte) error {
	v, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
