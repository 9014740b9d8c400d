package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"raven/internal/diag"
	"raven/internal/scope"
)

const (
	configBaseName = "raven"
	envPrefix      = "RAVEN"

	keyMaxBackwardDepth     = "crossFile.maxBackwardDepth"
	keyMaxForwardDepth      = "crossFile.maxForwardDepth"
	keyMaxChainDepth        = "crossFile.maxChainDepth"
	keyAssumeCallSite       = "crossFile.assumeCallSite"
	keyIndexWorkspace       = "crossFile.indexWorkspace"
	keyMaxRevalidations     = "crossFile.maxRevalidationsPerTrigger"
	keyDebounceMs           = "crossFile.revalidationDebounceMs"
	keyStorePath            = "crossFile.storePath"
	keyMissingFileSev       = "crossFile.missingFileSeverity"
	keyCircularSev          = "crossFile.circularDependencySeverity"
	keyOutOfScopeSev        = "crossFile.outOfScopeSeverity"
	keyAmbiguousSev         = "crossFile.ambiguousParentSeverity"
	keyMaxChainDepthSev     = "crossFile.maxChainDepthSeverity"
	keyConflictSev          = "crossFile.sourceConflictSeverity"
	keyOnDemandEnabled      = "crossFile.onDemandIndexing.enabled"
	keyOnDemandP2           = "crossFile.onDemandIndexing.priority2Enabled"
	keyOnDemandP3           = "crossFile.onDemandIndexing.priority3Enabled"
	keyOnDemandQueue        = "crossFile.onDemandIndexing.maxQueueSize"
	keyOnDemandDepth        = "crossFile.onDemandIndexing.maxTransitiveDepth"
	keyMetadataCache        = "crossFile.cache.metadataMaxEntries"
	keyIndexCapacity        = "crossFile.cache.workspaceIndexMaxEntries"
	keyDiagnosticsEnabled   = "diagnostics.enabled"
	keyUndefinedVariables   = "diagnostics.undefinedVariables"
	keyUndefinedVariableSev = "diagnostics.undefinedVariableSeverity"
	keyLogFile              = "log.file"
	keyLogLevel             = "log.level"
	keyLogMaxSize           = "log.maxSize"
	keyLogMaxBackups        = "log.maxBackups"
	keyLogMaxAge            = "log.maxAge"
	keyLogCompress          = "log.compress"
	keyTrace                = "trace"
)

// Loader assembles a Config from its layers and keeps the editor's
// overrides separate so a config file reload does not lose them.
type Loader struct {
	v    *viper.Viper
	root string
	log  *slog.Logger

	mu       sync.RWMutex
	base     Config
	client   *Overrides
	manifest *Manifest
}

// NewLoader prepares a loader for the workspace at root. Nothing is read
// until Load.
func NewLoader(root string, log *slog.Logger) *Loader {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	v := viper.New()
	v.SetConfigType("yaml")
	dirs := []string{root}
	if dir := userConfigDir(); dir != "" {
		dirs = append(dirs, filepath.Join(dir, configBaseName))
	}
	// raven.toml рядом с raven.yaml — это манифест, а не конфиг viper
	if path := findConfigFile(dirs); path != "" {
		v.SetConfigFile(path)
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	setDefaults(v, Default())
	return &Loader{v: v, root: root, log: log, base: Default()}
}

func findConfigFile(dirs []string) string {
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		for _, name := range []string{configBaseName + ".yaml", configBaseName + ".yml"} {
			p := filepath.Join(dir, name)
			if info, err := os.Stat(p); err == nil && !info.IsDir() {
				return p
			}
		}
	}
	return ""
}

func userConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return dir
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return dir
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault(keyMaxBackwardDepth, d.MaxBackwardDepth)
	v.SetDefault(keyMaxForwardDepth, d.MaxForwardDepth)
	v.SetDefault(keyMaxChainDepth, d.MaxChainDepth)
	v.SetDefault(keyAssumeCallSite, d.AssumeCallSite.String())
	v.SetDefault(keyIndexWorkspace, d.IndexWorkspace)
	v.SetDefault(keyMaxRevalidations, d.MaxRevalidationsPerTrigger)
	v.SetDefault(keyDebounceMs, d.RevalidationDebounce.Milliseconds())
	v.SetDefault(keyStorePath, d.StorePath)
	v.SetDefault(keyMissingFileSev, d.Severity.MissingFile.String())
	v.SetDefault(keyCircularSev, d.Severity.CircularDependency.String())
	v.SetDefault(keyOutOfScopeSev, d.Severity.OutOfScope.String())
	v.SetDefault(keyAmbiguousSev, d.Severity.AmbiguousParent.String())
	v.SetDefault(keyMaxChainDepthSev, d.Severity.MaxChainDepth.String())
	v.SetDefault(keyConflictSev, d.Severity.SourceConflict.String())
	v.SetDefault(keyOnDemandEnabled, d.OnDemand.Enabled)
	v.SetDefault(keyOnDemandP2, d.OnDemand.Priority2Enabled)
	v.SetDefault(keyOnDemandP3, d.OnDemand.Priority3Enabled)
	v.SetDefault(keyOnDemandQueue, d.OnDemand.MaxQueue)
	v.SetDefault(keyOnDemandDepth, d.OnDemand.MaxTransitiveDepth)
	v.SetDefault(keyMetadataCache, d.MetadataCacheSize)
	v.SetDefault(keyIndexCapacity, d.IndexCapacity)
	v.SetDefault(keyDiagnosticsEnabled, d.DiagnosticsEnabled)
	v.SetDefault(keyUndefinedVariables, d.UndefinedVariablesEnabled)
	v.SetDefault(keyUndefinedVariableSev, d.Severity.UndefinedVariable.String())
	v.SetDefault(keyLogFile, d.Log.File)
	v.SetDefault(keyLogLevel, d.Log.Level)
	v.SetDefault(keyLogMaxSize, d.Log.MaxSize)
	v.SetDefault(keyLogMaxBackups, d.Log.MaxBackups)
	v.SetDefault(keyLogMaxAge, d.Log.MaxAge)
	v.SetDefault(keyLogCompress, d.Log.Compress)
	v.SetDefault(keyTrace, d.Trace)
}

// Load reads raven.yaml (if any) and raven.toml (if any) on top of the
// defaults and the environment.
func (l *Loader) Load() (Config, error) {
	if l.v.ConfigFileUsed() != "" {
		if err := l.v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
				return l.Current(), fmt.Errorf("read config: %w", err)
			}
		}
	}
	cfg, err := fromViper(l.v)
	if err != nil {
		return l.Current(), err
	}

	manifest, _, err := LoadManifest(l.root, l.log)
	if err != nil {
		return l.Current(), err
	}
	if manifest != nil {
		if cfg, err = manifest.Overrides.Apply(cfg); err != nil {
			return l.Current(), fmt.Errorf("%s: %w", manifest.Path, err)
		}
	}

	l.mu.Lock()
	l.base = cfg
	l.manifest = manifest
	l.mu.Unlock()
	return l.Current(), nil
}

func fromViper(v *viper.Viper) (Config, error) {
	cfg := Config{
		MaxBackwardDepth:           max(v.GetInt(keyMaxBackwardDepth), 0),
		MaxForwardDepth:            max(v.GetInt(keyMaxForwardDepth), 0),
		MaxChainDepth:              max(v.GetInt(keyMaxChainDepth), 0),
		AssumeCallSite:             scope.ParseCallSiteDefault(v.GetString(keyAssumeCallSite)),
		IndexWorkspace:             v.GetBool(keyIndexWorkspace),
		MaxRevalidationsPerTrigger: max(v.GetInt(keyMaxRevalidations), 0),
		RevalidationDebounce:       time.Duration(max(v.GetInt64(keyDebounceMs), 0)) * time.Millisecond,
		DiagnosticsEnabled:         v.GetBool(keyDiagnosticsEnabled),
		UndefinedVariablesEnabled:  v.GetBool(keyUndefinedVariables),
		OnDemand: OnDemand{
			Enabled:            v.GetBool(keyOnDemandEnabled),
			Priority2Enabled:   v.GetBool(keyOnDemandP2),
			Priority3Enabled:   v.GetBool(keyOnDemandP3),
			MaxQueue:           max(v.GetInt(keyOnDemandQueue), 1),
			MaxTransitiveDepth: max(v.GetInt(keyOnDemandDepth), 0),
		},
		IndexCapacity:     max(v.GetInt(keyIndexCapacity), 1),
		MetadataCacheSize: max(v.GetInt(keyMetadataCache), 1),
		StorePath:         v.GetString(keyStorePath),
		Log: Log{
			File:       v.GetString(keyLogFile),
			Level:      v.GetString(keyLogLevel),
			MaxSize:    v.GetInt(keyLogMaxSize),
			MaxBackups: v.GetInt(keyLogMaxBackups),
			MaxAge:     v.GetInt(keyLogMaxAge),
			Compress:   v.GetBool(keyLogCompress),
		},
		Trace: v.GetBool(keyTrace),
	}

	sev := []struct {
		key string
		dst *diag.Severity
	}{
		{keyMissingFileSev, &cfg.Severity.MissingFile},
		{keyCircularSev, &cfg.Severity.CircularDependency},
		{keyOutOfScopeSev, &cfg.Severity.OutOfScope},
		{keyAmbiguousSev, &cfg.Severity.AmbiguousParent},
		{keyMaxChainDepthSev, &cfg.Severity.MaxChainDepth},
		{keyConflictSev, &cfg.Severity.SourceConflict},
		{keyUndefinedVariableSev, &cfg.Severity.UndefinedVariable},
	}
	for _, s := range sev {
		val, err := diag.ParseSeverity(v.GetString(s.key))
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", s.key, err)
		}
		*s.dst = val
	}
	return cfg, nil
}

// Current returns the effective settings: the loaded layers plus the
// editor's overrides.
func (l *Loader) Current() Config {
	l.mu.RLock()
	defer l.mu.RUnlock()
	cfg, err := l.client.Apply(l.base)
	if err != nil {
		// ошибки уже сообщены в SetClientSettings
		l.log.Debug("client settings partially invalid", "err", err)
	}
	return cfg
}

// SetClientSettings records the editor's overrides and returns the new
// effective config. Invalid values are reported but the rest applies.
func (l *Loader) SetClientSettings(o *Overrides) (Config, error) {
	l.mu.Lock()
	l.client = o
	base := l.base
	l.mu.Unlock()
	return o.Apply(base)
}

// Manifest returns the loaded raven.toml, if any.
func (l *Loader) Manifest() *Manifest {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.manifest
}

// ConfigFile returns the raven.yaml in use, or "".
func (l *Loader) ConfigFile() string { return l.v.ConfigFileUsed() }

// Watch reloads on raven.yaml changes and calls onChange with the new
// effective config. It is a no-op without a config file.
func (l *Loader) Watch(onChange func(Config)) bool {
	if l.v.ConfigFileUsed() == "" {
		return false
	}
	l.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := l.Load()
		if err != nil {
			l.log.Warn("config reload failed", "file", e.Name, "err", err)
			return
		}
		l.log.Info("config reloaded", "file", e.Name)
		if onChange != nil {
			onChange(cfg)
		}
	})
	l.v.WatchConfig()
	return true
}
