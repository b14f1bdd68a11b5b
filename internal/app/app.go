// Package app wires a configuration, the Lua collaborator script and a
// folding engine together for one view.
package app

import (
	"errors"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/dshills/foldlayer/internal/config"
	"github.com/dshills/foldlayer/internal/document"
	"github.com/dshills/foldlayer/internal/fold"
	"github.com/dshills/foldlayer/internal/script"
)

// Options configures Build.
type Options struct {
	// Logger receives engine and script logs. Nil means no logging.
	Logger *zap.Logger

	// Meter records engine metrics. Nil disables metrics.
	Meter metric.Meter

	// Reveal overrides the search reveal callback.
	Reveal fold.RevealFunc
}

// App is a configured folding engine.
type App struct {
	Config *config.Config
	Engine *fold.Engine

	// Script is nil when the configuration names no script.
	Script *script.Host

	logger *zap.Logger
}

// Build creates the engine of view from cfg: it loads the script, registers
// the specs in file order and applies the configured folds.
func Build(cfg *config.Config, view *document.View, opts Options) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, NewOperationError("validate", "config", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{Config: cfg, logger: logger}

	if cfg.Script.Path != "" {
		a.Script = script.New(view.Buffer(),
			script.WithTimeout(cfg.ScriptTimeout()),
			script.WithLogger(logger.Named("script")),
		)
		if err := a.Script.DoFile(cfg.Script.Path); err != nil {
			a.Close()
			return nil, NewOperationError("load script", cfg.Script.Path, errors.Join(ErrInitialization, err))
		}
	}

	engineOpts := []fold.Option{
		fold.WithLogger(logger),
		fold.WithSearchInvisible(cfg.Search.Invisible),
		fold.WithFragileWindowLimit(cfg.Reconcile.FragileWindow),
		fold.WithRevealFunc(opts.Reveal),
	}
	if cfg.Search.Backend == config.BackendOverlays {
		engineOpts = append(engineOpts, fold.WithSearchMode(fold.SearchOverlays))
	}
	if opts.Meter != nil {
		m, err := fold.NewMetrics(opts.Meter)
		if err != nil {
			a.Close()
			return nil, NewOperationError("create", "metrics", err)
		}
		engineOpts = append(engineOpts, fold.WithMetrics(m))
	}
	for _, name := range cfg.Reconcile.ExtendHooks {
		hook, err := a.scriptFunc(name)
		if err != nil {
			a.Close()
			return nil, err
		}
		engineOpts = append(engineOpts, fold.WithExtendRegionHook(a.Script.ExtendHook(hook)))
	}

	a.Engine = fold.New(view, engineOpts...)

	for _, sc := range cfg.Specs {
		if err := a.register(sc); err != nil {
			a.Close()
			return nil, err
		}
	}
	for _, fc := range cfg.Folds {
		if err := a.Engine.Fold(fc.Start, fc.End, fold.SpecID(fc.Spec)); err != nil {
			a.Close()
			return nil, NewOperationError("fold", fc.Spec, err)
		}
	}

	logger.Debug("folding engine ready",
		zap.Int("specs", len(cfg.Specs)),
		zap.Int("folds", len(cfg.Folds)),
		zap.Stringer("search", a.Engine.SearchMode()),
	)
	return a, nil
}

func (a *App) scriptFunc(name string) (string, error) {
	if a.Script == nil || !a.Script.HasFunction(name) {
		return "", NewOperationError("resolve", name, ErrMissingFunction)
	}
	return name, nil
}

// properties converts a spec's configuration to engine properties.
func (a *App) properties(sc config.SpecConfig) (fold.Properties, error) {
	props := fold.Properties{
		Ellipsis:     sc.Ellipsis,
		SearchIgnore: !sc.IsSearchable(),
		SearchOpen:   sc.SearchOpen,
		FrontSticky:  sc.FrontSticky,
		RearSticky:   sc.RearSticky,
		Managed:      sc.Managed,
		Visible:      sc.Visible,
	}
	for _, alias := range sc.Aliases {
		props.Aliases = append(props.Aliases, fold.SpecID(alias))
	}
	if sc.Fragile != "" {
		name, err := a.scriptFunc(sc.Fragile)
		if err != nil {
			return fold.Properties{}, err
		}
		props.Fragile = a.Script.Predicate(name)
	}
	return props, nil
}

func (a *App) register(sc config.SpecConfig) error {
	props, err := a.properties(sc)
	if err != nil {
		return err
	}
	var opts []fold.RegisterOption
	if sc.Append {
		opts = append(opts, fold.AppendPriority())
	}
	if err := a.Engine.Register(fold.SpecID(sc.Name), props, opts...); err != nil {
		return NewOperationError("register", sc.Name, err)
	}
	return nil
}

// Reload applies a new configuration's spec definitions. Specs that are
// still defined get the new properties and keep their folds; new specs are
// registered; specs no longer defined are unregistered, revealing their
// folds. Search, script and reconcile settings only take effect on the
// next Build.
func (a *App) Reload(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return NewOperationError("validate", "config", err)
	}

	keep := make(map[fold.SpecID]bool, len(cfg.Specs))
	var errs []error
	for _, sc := range cfg.Specs {
		id := fold.SpecID(sc.Name)
		keep[id] = true
		if err := a.register(sc); err != nil {
			errs = append(errs, err)
		}
	}
	for _, id := range a.Engine.Registry().Specs() {
		if keep[id] {
			continue
		}
		if err := a.Engine.Unregister(id); err != nil {
			errs = append(errs, NewOperationError("unregister", string(id), err))
		}
	}
	a.Config = cfg

	if err := errors.Join(errs...); err != nil {
		a.logger.Warn("config reload incomplete", zap.Error(err))
		return err
	}
	a.logger.Info("config reloaded", zap.Int("specs", len(cfg.Specs)))
	return nil
}

// Close closes the engine and the script host.
func (a *App) Close() {
	if a.Engine != nil {
		a.Engine.Close()
	}
	if a.Script != nil {
		_ = a.Script.Close()
	}
}
