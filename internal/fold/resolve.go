package fold

import (
	"strings"

	"github.com/dshills/foldlayer/internal/document"
)

func (e *Engine) presentationFor(id SpecID) Presentation {
	e.presMu.RLock()
	p, ok := e.presentation[id]
	e.presMu.RUnlock()
	if ok {
		return p
	}
	props, err := e.registry.Spec(id)
	if err != nil {
		return PresentShown
	}
	return presentationOf(props)
}

// Presentation returns how folds of spec are rendered.
func (e *Engine) Presentation(spec SpecID) (Presentation, error) {
	id, err := e.registry.Resolve(spec)
	if err != nil {
		return PresentShown, err
	}
	return e.presentationFor(id), nil
}

// EffectiveSpecAt returns the highest-priority spec folded at pos. Managed
// specs are skipped.
func (e *Engine) EffectiveSpecAt(pos int) (SpecID, bool) {
	ns := e.namespace()
	for _, id := range e.registry.Specs() {
		if e.presentationFor(id) == PresentManaged {
			continue
		}
		if _, ok := e.store.buf.RunAt(Key(ns, id), pos); ok {
			return id, true
		}
	}
	return "", false
}

// IsInvisible reports whether the character at pos is hidden, by a fold or
// by the host's own invisibility.
func (e *Engine) IsInvisible(pos int) bool {
	if _, ok := e.store.buf.RunAt(document.Invisible, pos); ok {
		return true
	}
	if id, ok := e.EffectiveSpecAt(pos); ok {
		return e.presentationFor(id) != PresentShown
	}
	ns := e.namespace()
	for _, id := range e.registry.Specs() {
		if e.presentationFor(id) != PresentManaged {
			continue
		}
		if _, ok := e.store.buf.RunAt(Key(ns, id), pos); !ok {
			continue
		}
		if e.external == nil || e.external(id, pos) {
			return true
		}
	}
	return false
}

// Display renders [start, end) as this view shows it: visible text as is
// and each hidden stretch as the ellipsis of the spec hiding its start.
func (e *Engine) Display(start, end int) (string, error) {
	r, err := e.checkRange(start, end)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	pos := r.Start
	for pos < r.End {
		next := e.nextVisibilityChange(pos, r.End)
		if !e.IsInvisible(pos) {
			sb.WriteString(e.store.buf.TextRange(pos, next))
			pos = next
			continue
		}
		if id, ok := e.EffectiveSpecAt(pos); ok {
			if props, err := e.registry.Spec(id); err == nil {
				sb.WriteString(props.Ellipsis)
			}
		}
		for pos = next; pos < r.End && e.IsInvisible(pos); {
			pos = e.nextVisibilityChange(pos, r.End)
		}
	}
	return sb.String(), nil
}
