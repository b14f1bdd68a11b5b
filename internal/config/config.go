package config

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap/zapcore"
)

// Config is the configuration of a folding engine: search integration,
// reconciliation bounds, logging, the Lua collaborator script, the specs to
// register and the folds to apply at startup.
type Config struct {
	Search    SearchConfig    `toml:"search" yaml:"search"`
	Reconcile ReconcileConfig `toml:"reconcile" yaml:"reconcile"`
	Logging   LoggingConfig   `toml:"logging" yaml:"logging"`
	Script    ScriptConfig    `toml:"script" yaml:"script"`
	Specs     []SpecConfig    `toml:"specs" yaml:"specs"`
	Folds     []FoldConfig    `toml:"folds" yaml:"folds"`
}

// SearchConfig selects the search backend.
type SearchConfig struct {
	// Backend is "attributes" or "overlays".
	Backend string `toml:"backend" yaml:"backend"`

	// Invisible makes search match hidden text.
	Invisible bool `toml:"invisible" yaml:"invisible"`
}

// ReconcileConfig tunes edit reconciliation.
type ReconcileConfig struct {
	// FragileWindow bounds how far extend hooks widen the window checked
	// for fragile folds. Zero means unbounded.
	FragileWindow int `toml:"fragile_window" yaml:"fragile_window"`

	// ExtendHooks names Lua functions used as extend-region hooks.
	ExtendHooks []string `toml:"extend_hooks" yaml:"extend_hooks"`
}

// LoggingConfig configures zap.
type LoggingConfig struct {
	Level       string `toml:"level" yaml:"level"`
	Development bool   `toml:"development" yaml:"development"`
}

// ScriptConfig locates the Lua collaborator script.
type ScriptConfig struct {
	Path    string `toml:"path" yaml:"path"`
	Timeout string `toml:"timeout" yaml:"timeout"`
}

// SpecConfig defines a folding spec.
type SpecConfig struct {
	Name        string   `toml:"name" yaml:"name"`
	Ellipsis    string   `toml:"ellipsis" yaml:"ellipsis"`
	Searchable  *bool    `toml:"searchable" yaml:"searchable"`
	SearchOpen  bool     `toml:"search_open" yaml:"search_open"`
	FrontSticky bool     `toml:"front_sticky" yaml:"front_sticky"`
	RearSticky  bool     `toml:"rear_sticky" yaml:"rear_sticky"`
	Managed     bool     `toml:"managed" yaml:"managed"`
	Visible     bool     `toml:"visible" yaml:"visible"`
	Append      bool     `toml:"append" yaml:"append"`
	Aliases     []string `toml:"aliases" yaml:"aliases"`

	// Fragile names the Lua function used as the fragile predicate.
	Fragile string `toml:"fragile" yaml:"fragile"`
}

// IsSearchable reports the searchable flag, true when unset.
func (s SpecConfig) IsSearchable() bool {
	return s.Searchable == nil || *s.Searchable
}

// FoldConfig is a fold applied at startup.
type FoldConfig struct {
	Spec  string `toml:"spec" yaml:"spec"`
	Start int    `toml:"start" yaml:"start"`
	End   int    `toml:"end" yaml:"end"`
}

// Search backends.
const (
	BackendAttributes = "attributes"
	BackendOverlays   = "overlays"
)

// DefaultScriptTimeout bounds one Lua call when no timeout is configured.
const DefaultScriptTimeout = 100 * time.Millisecond

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Search:  SearchConfig{Backend: BackendAttributes},
		Logging: LoggingConfig{Level: "info"},
		Script:  ScriptConfig{Timeout: DefaultScriptTimeout.String()},
	}
}

// ScriptTimeout returns the parsed script timeout.
func (c *Config) ScriptTimeout() time.Duration {
	d, err := time.ParseDuration(c.Script.Timeout)
	if err != nil || d <= 0 {
		return DefaultScriptTimeout
	}
	return d
}

// LogLevel returns the parsed log level, info when unset.
func (c *Config) LogLevel() zapcore.Level {
	level, err := zapcore.ParseLevel(c.Logging.Level)
	if err != nil {
		return zapcore.InfoLevel
	}
	return level
}

// Validate checks the configuration and reports every problem found.
func (c *Config) Validate() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: %s", ErrValidationFailed, fmt.Sprintf(format, args...)))
	}

	switch c.Search.Backend {
	case "", BackendAttributes, BackendOverlays:
	default:
		fail("search.backend %q is not one of %q, %q", c.Search.Backend, BackendAttributes, BackendOverlays)
	}
	if c.Reconcile.FragileWindow < 0 {
		fail("reconcile.fragile_window must not be negative")
	}
	if c.Logging.Level != "" {
		if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
			fail("logging.level %q: %v", c.Logging.Level, err)
		}
	}
	if c.Script.Timeout != "" {
		if d, err := time.ParseDuration(c.Script.Timeout); err != nil || d <= 0 {
			fail("script.timeout %q is not a positive duration", c.Script.Timeout)
		}
	}
	if len(c.Reconcile.ExtendHooks) > 0 && c.Script.Path == "" {
		fail("reconcile.extend_hooks need script.path")
	}

	names := make(map[string]bool)
	for i, s := range c.Specs {
		switch {
		case s.Name == "":
			fail("specs[%d] has no name", i)
			continue
		case s.Name == "all":
			fail("specs[%d]: %q is reserved", i, s.Name)
			continue
		case names[s.Name]:
			fail("specs[%d]: %q is defined twice", i, s.Name)
			continue
		}
		names[s.Name] = true
		if s.Fragile != "" && c.Script.Path == "" {
			fail("spec %q: fragile predicate %q needs script.path", s.Name, s.Fragile)
		}
	}
	for _, s := range c.Specs {
		for _, alias := range s.Aliases {
			if alias == "all" || alias == "" || (names[alias] && alias != s.Name) {
				fail("spec %q: bad alias %q", s.Name, alias)
				continue
			}
			names[alias] = true
		}
	}

	for i, f := range c.Folds {
		if !names[f.Spec] {
			fail("folds[%d]: unknown spec %q", i, f.Spec)
		}
		if f.Start < 0 || f.End < f.Start {
			fail("folds[%d]: bad range [%d, %d)", i, f.Start, f.End)
		}
	}
	return errors.Join(errs...)
}

// Spec returns the spec named name or one of its aliases.
func (c *Config) Spec(name string) (SpecConfig, bool) {
	for _, s := range c.Specs {
		if s.Name == name || slices.Contains(s.Aliases, name) {
			return s, true
		}
	}
	return SpecConfig{}, false
}
