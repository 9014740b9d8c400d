// Package config holds the cross-file analysis settings and the layers they
// come from: defaults, raven.yaml, RAVEN_* environment variables, the
// raven.toml project manifest and the editor's didChangeConfiguration
// payload, in increasing precedence.
package config

import (
	"time"

	"raven/internal/diag"
	"raven/internal/scope"
	"raven/internal/workspace"
)

// Severities configures each cross-file diagnostic kind; SevOff disables it.
type Severities struct {
	MissingFile        diag.Severity
	CircularDependency diag.Severity
	OutOfScope         diag.Severity
	AmbiguousParent    diag.Severity
	MaxChainDepth      diag.Severity
	SourceConflict     diag.Severity
	UndefinedVariable  diag.Severity
}

// OnDemand controls background indexing of files discovered from open
// documents.
type OnDemand struct {
	Enabled            bool
	Priority2Enabled   bool
	Priority3Enabled   bool
	MaxQueue           int
	MaxTransitiveDepth int
}

// Log configures the server log file; an empty File logs to stderr.
type Log struct {
	File       string
	Level      string
	MaxSize    int
	MaxBackups int
	MaxAge     int
	Compress   bool
}

type Config struct {
	MaxBackwardDepth int
	MaxForwardDepth  int
	MaxChainDepth    int
	AssumeCallSite   scope.CallSiteDefault

	IndexWorkspace             bool
	MaxRevalidationsPerTrigger int
	RevalidationDebounce       time.Duration

	DiagnosticsEnabled        bool
	UndefinedVariablesEnabled bool
	Severity                  Severities

	OnDemand          OnDemand
	IndexCapacity     int
	MetadataCacheSize int
	// StorePath enables the persistent index when set.
	StorePath string

	Log   Log
	Trace bool
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		MaxBackwardDepth:           10,
		MaxForwardDepth:            10,
		MaxChainDepth:              20,
		AssumeCallSite:             scope.AssumeEnd,
		IndexWorkspace:             true,
		MaxRevalidationsPerTrigger: 10,
		RevalidationDebounce:       200 * time.Millisecond,
		DiagnosticsEnabled:         true,
		UndefinedVariablesEnabled:  true,
		Severity: Severities{
			MissingFile:        diag.SevWarning,
			CircularDependency: diag.SevError,
			OutOfScope:         diag.SevWarning,
			AmbiguousParent:    diag.SevWarning,
			MaxChainDepth:      diag.SevWarning,
			SourceConflict:     diag.SevWarning,
			UndefinedVariable:  diag.SevWarning,
		},
		OnDemand: OnDemand{
			Enabled:            true,
			Priority2Enabled:   true,
			Priority3Enabled:   true,
			MaxQueue:           workspace.DefaultMaxQueue,
			MaxTransitiveDepth: 2,
		},
		IndexCapacity:     workspace.DefaultIndexCapacity,
		MetadataCacheSize: 1000,
		Log: Log{
			Level:      "info",
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
			Compress:   true,
		},
	}
}

// Scope returns the traversal limits for the scope resolver.
func (c Config) Scope() scope.Settings {
	return scope.Settings{
		MaxChainDepth:    c.MaxChainDepth,
		MaxForwardDepth:  c.MaxForwardDepth,
		MaxBackwardDepth: c.MaxBackwardDepth,
		AssumeCallSite:   c.AssumeCallSite,
	}
}

// Indexing returns the on-demand indexer settings.
func (c Config) Indexing() workspace.Settings {
	return workspace.Settings{
		Enabled:           c.OnDemand.Enabled,
		BackwardEnabled:   c.OnDemand.Priority2Enabled,
		TransitiveEnabled: c.OnDemand.Priority3Enabled,
		MaxQueue:          c.OnDemand.MaxQueue,
	}
}

// ScopeSettingsChanged reports whether switching from c to other changes
// any scope result, which requires revalidating every open document.
func (c Config) ScopeSettingsChanged(other Config) bool {
	return c.AssumeCallSite != other.AssumeCallSite ||
		c.MaxChainDepth != other.MaxChainDepth ||
		c.MaxBackwardDepth != other.MaxBackwardDepth ||
		c.MaxForwardDepth != other.MaxForwardDepth
}
