package fold

import (
	"time"

	"github.com/dshills/foldlayer/internal/document"
)

// RegisterExtendRegionHook adds a hook that may widen the window checked
// for fragile folds after an edit.
func (e *Engine) RegisterExtendRegionHook(fn ExtendRegionFunc) {
	if fn != nil {
		e.extendHooks = append(e.extendHooks, fn)
	}
}

// IgnoreModifications runs fn without reconciling the edits it makes. The
// modification counter is resynchronized afterwards, so later edits are
// still detected.
func (e *Engine) IgnoreModifications(fn func() error) error {
	e.ignoring++
	defer func() {
		e.ignoring--
		if e.ignoring == 0 {
			e.lastTick = e.store.buf.ModTick()
		}
	}()
	return fn()
}

// OnDocumentChanged re-establishes fold consistency after the content in
// [from, to) was inserted or changed. A pure deletion has from == to. The
// engine calls it itself for every buffer edit; repeated calls for the same
// change are no-ops.
func (e *Engine) OnDocumentChanged(from, to int) {
	if e.closed || e.ignoring > 0 {
		return
	}
	buf := e.store.buf
	tick := buf.ModTick()
	if tick == e.lastTick {
		return
	}
	e.lastTick = tick
	if from >= to {
		return
	}

	started := time.Now()
	defer func() {
		e.metrics.RecordReconcile(time.Since(started))
	}()

	r := document.NewRange(from, to).Clamp(buf.Len())
	if r.IsEmpty() {
		return
	}
	ns := e.namespace()
	specs := e.registry.Specs()

	e.repairInserted(ns, specs, r)
	e.extendSticky(ns, specs, r)

	window := e.extendWindow(r)
	for _, id := range specs {
		e.checkFragile(ns, id, window)
	}
}

// repairInserted reveals text that arrived already folded in the middle of
// visible text, as when undo reinserts a deleted folded stretch.
func (e *Engine) repairInserted(ns Namespace, specs []SpecID, r document.Range) {
	buf := e.store.buf
	for _, id := range specs {
		key := Key(ns, id)
		if !buf.Covers(key, r.Start, r.End) {
			continue
		}
		if r.Start > 0 {
			if _, ok := buf.RunAt(key, r.Start-1); ok {
				continue
			}
		}
		if _, ok := buf.RunAt(key, r.End); ok {
			continue
		}
		if buf.RemoveRun(key, r.Start, r.End) {
			e.logger.RegionRepaired(id, r)
			e.metrics.RecordRepair(id)
		}
	}
}

// extendSticky folds inserted text into neighbouring folds whose stickiness
// allows it.
func (e *Engine) extendSticky(ns Namespace, specs []SpecID, r document.Range) {
	buf := e.store.buf
	for _, id := range specs {
		props, err := e.registry.Spec(id)
		if err != nil || !(props.FrontSticky || props.RearSticky) {
			continue
		}
		key := Key(ns, id)
		before := false
		if r.Start > 0 {
			_, before = buf.RunAt(key, r.Start-1)
		}
		_, after := buf.RunAt(key, r.End)

		if (before && after) || (before && props.RearSticky) || (after && props.FrontSticky) {
			if buf.AddRun(key, r.Start, r.End) {
				e.metrics.RecordFold(id)
			}
		}
	}
}

// extendWindow runs the extend-region hooks over r, bounded by the fragile
// window limit when one is set.
func (e *Engine) extendWindow(r document.Range) document.Range {
	window := r
	for _, hook := range e.extendHooks {
		from, to, ok := e.callExtendHook(hook, window)
		if !ok {
			continue
		}
		window.Start = min(window.Start, from)
		window.End = max(window.End, to)
	}
	if e.fragileLimit > 0 {
		window.Start = max(window.Start, r.Start-e.fragileLimit)
		window.End = min(window.End, r.End+e.fragileLimit)
	}
	return window.Clamp(e.store.buf.Len())
}

func (e *Engine) callExtendHook(hook ExtendRegionFunc, r document.Range) (from, to int, ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			e.logger.CollaboratorPanic("extend-region hook", "", rec)
			ok = false
		}
	}()
	from, to = hook(r.Start, r.End)
	return from, to, true
}

// checkFragile asks the fragile predicate of spec about every fold touching
// the window, widened to whole folds, and reveals the ones it rejects.
func (e *Engine) checkFragile(ns Namespace, id SpecID, window document.Range) {
	props, err := e.registry.Spec(id)
	if err != nil || props.Fragile == nil {
		return
	}
	buf := e.store.buf
	key := Key(ns, id)
	for _, run := range buf.RunsIn(key, max(0, window.Start-1), window.End+1) {
		if !e.callFragile(props.Fragile, run, id) {
			continue
		}
		if buf.RemoveRun(key, run.Start, run.End) {
			e.logger.FragileInvalidated(id, run)
			e.metrics.RecordInvalidation(id)
		}
	}
}

func (e *Engine) callFragile(pred FragilePredicate, r document.Range, id SpecID) (invalid bool) {
	defer func() {
		if rec := recover(); rec != nil {
			e.logger.CollaboratorPanic("fragile predicate", id, rec)
			invalid = false
		}
	}()
	return pred(r, id)
}
