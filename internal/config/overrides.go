package config

import (
	"errors"
	"fmt"
	"time"

	"raven/internal/diag"
	"raven/internal/scope"
)

// Overrides is the shape shared by the editor settings payload and the
// raven.toml manifest. Absent keys leave the current value alone.
type Overrides struct {
	CrossFile   *CrossFileOverrides   `json:"crossFile" toml:"crossFile"`
	Diagnostics *DiagnosticsOverrides `json:"diagnostics" toml:"diagnostics"`
}

type CrossFileOverrides struct {
	MaxBackwardDepth           *int    `json:"maxBackwardDepth" toml:"maxBackwardDepth"`
	MaxForwardDepth            *int    `json:"maxForwardDepth" toml:"maxForwardDepth"`
	MaxChainDepth              *int    `json:"maxChainDepth" toml:"maxChainDepth"`
	AssumeCallSite             *string `json:"assumeCallSite" toml:"assumeCallSite"`
	IndexWorkspace             *bool   `json:"indexWorkspace" toml:"indexWorkspace"`
	MaxRevalidationsPerTrigger *int    `json:"maxRevalidationsPerTrigger" toml:"maxRevalidationsPerTrigger"`
	RevalidationDebounceMs     *int    `json:"revalidationDebounceMs" toml:"revalidationDebounceMs"`

	MissingFileSeverity        *string `json:"missingFileSeverity" toml:"missingFileSeverity"`
	CircularDependencySeverity *string `json:"circularDependencySeverity" toml:"circularDependencySeverity"`
	OutOfScopeSeverity         *string `json:"outOfScopeSeverity" toml:"outOfScopeSeverity"`
	AmbiguousParentSeverity    *string `json:"ambiguousParentSeverity" toml:"ambiguousParentSeverity"`
	MaxChainDepthSeverity      *string `json:"maxChainDepthSeverity" toml:"maxChainDepthSeverity"`

	OnDemandIndexing *OnDemandOverrides `json:"onDemandIndexing" toml:"onDemandIndexing"`
	Cache            *CacheOverrides    `json:"cache" toml:"cache"`
}

type OnDemandOverrides struct {
	Enabled            *bool `json:"enabled" toml:"enabled"`
	Priority2Enabled   *bool `json:"priority2Enabled" toml:"priority2Enabled"`
	Priority3Enabled   *bool `json:"priority3Enabled" toml:"priority3Enabled"`
	MaxQueueSize       *int  `json:"maxQueueSize" toml:"maxQueueSize"`
	MaxTransitiveDepth *int  `json:"maxTransitiveDepth" toml:"maxTransitiveDepth"`
}

type CacheOverrides struct {
	MetadataMaxEntries       *int `json:"metadataMaxEntries" toml:"metadataMaxEntries"`
	WorkspaceIndexMaxEntries *int `json:"workspaceIndexMaxEntries" toml:"workspaceIndexMaxEntries"`
}

type DiagnosticsOverrides struct {
	Enabled            *bool `json:"enabled" toml:"enabled"`
	UndefinedVariables *bool `json:"undefinedVariables" toml:"undefinedVariables"`
}

// Apply layers o over c. Invalid severities keep the previous value; all
// such problems are joined into the returned error while every valid key
// still applies.
func (o *Overrides) Apply(c Config) (Config, error) {
	if o == nil {
		return c, nil
	}
	var errs []error
	if cf := o.CrossFile; cf != nil {
		setInt(&c.MaxBackwardDepth, cf.MaxBackwardDepth, 0)
		setInt(&c.MaxForwardDepth, cf.MaxForwardDepth, 0)
		setInt(&c.MaxChainDepth, cf.MaxChainDepth, 0)
		if cf.AssumeCallSite != nil {
			c.AssumeCallSite = scope.ParseCallSiteDefault(*cf.AssumeCallSite)
		}
		setBool(&c.IndexWorkspace, cf.IndexWorkspace)
		setInt(&c.MaxRevalidationsPerTrigger, cf.MaxRevalidationsPerTrigger, 0)
		if cf.RevalidationDebounceMs != nil && *cf.RevalidationDebounceMs >= 0 {
			c.RevalidationDebounce = time.Duration(*cf.RevalidationDebounceMs) * time.Millisecond
		}

		sev := []struct {
			name string
			dst  *diag.Severity
			val  *string
		}{
			{"missingFileSeverity", &c.Severity.MissingFile, cf.MissingFileSeverity},
			{"circularDependencySeverity", &c.Severity.CircularDependency, cf.CircularDependencySeverity},
			{"outOfScopeSeverity", &c.Severity.OutOfScope, cf.OutOfScopeSeverity},
			{"ambiguousParentSeverity", &c.Severity.AmbiguousParent, cf.AmbiguousParentSeverity},
			{"maxChainDepthSeverity", &c.Severity.MaxChainDepth, cf.MaxChainDepthSeverity},
		}
		for _, s := range sev {
			if s.val == nil {
				continue
			}
			v, err := diag.ParseSeverity(*s.val)
			if err != nil {
				errs = append(errs, fmt.Errorf("crossFile.%s: %w", s.name, err))
				continue
			}
			*s.dst = v
		}

		if od := cf.OnDemandIndexing; od != nil {
			setBool(&c.OnDemand.Enabled, od.Enabled)
			setBool(&c.OnDemand.Priority2Enabled, od.Priority2Enabled)
			setBool(&c.OnDemand.Priority3Enabled, od.Priority3Enabled)
			setInt(&c.OnDemand.MaxQueue, od.MaxQueueSize, 1)
			setInt(&c.OnDemand.MaxTransitiveDepth, od.MaxTransitiveDepth, 0)
		}
		if cc := cf.Cache; cc != nil {
			setInt(&c.MetadataCacheSize, cc.MetadataMaxEntries, 1)
			setInt(&c.IndexCapacity, cc.WorkspaceIndexMaxEntries, 1)
		}
	}
	if d := o.Diagnostics; d != nil {
		setBool(&c.DiagnosticsEnabled, d.Enabled)
		setBool(&c.UndefinedVariablesEnabled, d.UndefinedVariables)
	}
	return c, errors.Join(errs...)
}

// setInt clamps to floor.
func setInt(dst *int, v *int, floor int) {
	if v != nil {
		*dst = max(*v, floor)
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}
