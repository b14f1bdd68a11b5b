package fold

import (
	"go.uber.org/zap"

	"github.com/dshills/foldlayer/internal/document"
)

// Logger wraps zap.Logger with fold-specific structured logging.
type Logger struct {
	logger *zap.Logger
}

// NewLogger creates a new Logger. If logger is nil, uses a no-op logger.
func NewLogger(logger *zap.Logger) *Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Logger{logger: logger.Named("fold")}
}

// SpecRegistered logs a spec definition.
func (l *Logger) SpecRegistered(id SpecID, priority int) {
	if l == nil || l.logger == nil {
		return
	}
	l.logger.Debug("spec registered",
		zap.String("spec", string(id)),
		zap.Int("priority", priority),
	)
}

// SpecUnregistered logs a spec removal.
func (l *Logger) SpecUnregistered(id SpecID) {
	if l == nil || l.logger == nil {
		return
	}
	l.logger.Debug("spec unregistered", zap.String("spec", string(id)))
}

// NamespaceCreated logs the creation of a view namespace.
func (l *Logger) NamespaceCreated(ns Namespace, copiedFrom Namespace) {
	if l == nil || l.logger == nil {
		return
	}
	fields := []zap.Field{zap.String("namespace", string(ns))}
	if copiedFrom != "" {
		fields = append(fields, zap.String("copied_from", string(copiedFrom)))
	}
	l.logger.Debug("namespace created", fields...)
}

// RegionRepaired logs stale folded text revealed after insertion.
func (l *Logger) RegionRepaired(spec SpecID, r document.Range) {
	if l == nil || l.logger == nil {
		return
	}
	l.logger.Info("revealed stale folded insertion",
		zap.String("spec", string(spec)),
		zap.Stringer("range", r),
	)
}

// FragileInvalidated logs a fold removed by its fragile predicate.
func (l *Logger) FragileInvalidated(spec SpecID, r document.Range) {
	if l == nil || l.logger == nil {
		return
	}
	l.logger.Debug("fragile fold invalidated",
		zap.String("spec", string(spec)),
		zap.Stringer("range", r),
	)
}

// CollaboratorPanic logs a panic recovered from a predicate or hook.
func (l *Logger) CollaboratorPanic(what string, spec SpecID, recovered any) {
	if l == nil || l.logger == nil {
		return
	}
	l.logger.Error("collaborator panicked during reconciliation",
		zap.String("collaborator", what),
		zap.String("spec", string(spec)),
		zap.Any("panic", recovered),
	)
}

// SearchSessionClosed logs the end of a search session.
func (l *Logger) SearchSessionClosed(mode SearchMode, restored int) {
	if l == nil || l.logger == nil {
		return
	}
	l.logger.Debug("search session closed",
		zap.Stringer("backend", mode),
		zap.Int("restored", restored),
	)
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, fields ...zap.Field) {
	if l == nil || l.logger == nil {
		return
	}
	l.logger.Debug(msg, fields...)
}
