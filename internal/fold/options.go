package fold

import (
	"go.uber.org/zap"

	"github.com/dshills/foldlayer/internal/document"
)

// Option configures an Engine during creation.
type Option func(*Engine)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		e.logger = NewLogger(logger)
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithRegistry shares an existing registry. Only meaningful for New.
func WithRegistry(r *Registry) Option {
	return func(e *Engine) {
		e.registry = r
	}
}

// WithSearchMode selects the search backend. The choice is fixed for the
// engine's lifetime.
func WithSearchMode(mode SearchMode) Option {
	return func(e *Engine) {
		e.searchMode = mode
	}
}

// WithSearchInvisible makes search match text hidden by any mechanism,
// revealing it temporarily.
func WithSearchInvisible(enabled bool) Option {
	return func(e *Engine) {
		e.searchInvisible = enabled
	}
}

// WithRevealFunc sets the callback run when search lands on a match.
func WithRevealFunc(fn RevealFunc) Option {
	return func(e *Engine) {
		if fn != nil {
			e.reveal = fn
		}
	}
}

// WithExternalVisibility sets the mechanism deciding whether text under a
// managed spec is hidden.
func WithExternalVisibility(fn func(spec SpecID, pos int) bool) Option {
	return func(e *Engine) {
		e.external = fn
	}
}

// WithFragileWindowLimit bounds how far extend-region hooks may widen the
// window checked for fragile folds, in runes on each side of the edit.
// Zero means unbounded.
func WithFragileWindowLimit(n int) Option {
	return func(e *Engine) {
		if n >= 0 {
			e.fragileLimit = n
		}
	}
}

// WithExtendRegionHook registers an extend-region hook at creation.
func WithExtendRegionHook(fn ExtendRegionFunc) Option {
	return func(e *Engine) {
		if fn != nil {
			e.extendHooks = append(e.extendHooks, fn)
		}
	}
}

// RevealFunc reveals a search match. It runs inside the session, so every
// reveal it performs through the session is undone when the search moves
// on or ends.
type RevealFunc func(s *SearchSession, match document.Range)
