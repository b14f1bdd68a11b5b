package fold

import (
	"slices"

	"github.com/google/uuid"

	"github.com/dshills/foldlayer/internal/document"
)

// Direction selects the scan direction of NextStateChange.
type Direction int

const (
	Forward Direction = iota
	Backward
)

// NoLimit makes NextStateChange scan to the document edge.
const NoLimit = -1

// Region is a folded run of one spec.
type Region struct {
	Spec  SpecID
	Range document.Range
}

// checkRange validates [start, end) and clamps it to the document.
func (e *Engine) checkRange(start, end int) (document.Range, error) {
	if end < start {
		return document.Range{}, ErrInvalidRange
	}
	return document.NewRange(start, end).Clamp(e.store.buf.Len()), nil
}

// specsFor resolves a spec argument; All (or empty) means every spec.
func (e *Engine) specsFor(spec SpecID) ([]SpecID, error) {
	if spec == "" || spec == All {
		return e.registry.Specs(), nil
	}
	id, err := e.registry.Resolve(spec)
	if err != nil {
		return nil, err
	}
	return []SpecID{id}, nil
}

// Fold hides [start, end) under spec. Folding an already folded range is a
// no-op; runs of the same spec are merged.
func (e *Engine) Fold(start, end int, spec SpecID) error {
	if spec == "" || spec == All {
		return &SpecError{Op: "fold", Spec: spec, Err: ErrPreconditionViolation}
	}
	id, err := e.registry.Resolve(spec)
	if err != nil {
		return err
	}
	r, err := e.checkRange(start, end)
	if err != nil {
		return err
	}
	if e.store.buf.AddRun(Key(e.namespace(), id), r.Start, r.End) {
		e.metrics.RecordFold(id)
	}
	return nil
}

// Unfold reveals [start, end) for spec, or for every spec when spec is All.
func (e *Engine) Unfold(start, end int, spec SpecID) error {
	specs, err := e.specsFor(spec)
	if err != nil {
		return err
	}
	r, err := e.checkRange(start, end)
	if err != nil {
		return err
	}
	ns := e.namespace()
	for _, id := range specs {
		if e.store.buf.RemoveRun(Key(ns, id), r.Start, r.End) {
			e.metrics.RecordUnfold(id)
		}
	}
	return nil
}

// ResetVisibility reveals the whole document in this view.
func (e *Engine) ResetVisibility() {
	_ = e.Unfold(0, e.store.buf.Len(), All)
}

// IsFolded reports whether pos is folded under spec, or under any spec
// when spec is All.
func (e *Engine) IsFolded(pos int, spec SpecID) (bool, error) {
	specs, err := e.specsFor(spec)
	if err != nil {
		return false, err
	}
	ns := e.namespace()
	for _, id := range specs {
		if _, ok := e.store.buf.RunAt(Key(ns, id), pos); ok {
			return true, nil
		}
	}
	return false, nil
}

// RegionAt returns the folded run of spec containing pos. With All it
// returns the union of every spec's run covering pos.
func (e *Engine) RegionAt(pos int, spec SpecID) (document.Range, bool, error) {
	specs, err := e.specsFor(spec)
	if err != nil {
		return document.Range{}, false, err
	}
	ns := e.namespace()
	var region document.Range
	found := false
	for _, id := range specs {
		run, ok := e.store.buf.RunAt(Key(ns, id), pos)
		if !ok {
			continue
		}
		if found {
			region = region.Union(run)
		} else {
			region, found = run, true
		}
	}
	return region, found, nil
}

// AllSpecsAt returns every spec folded at pos, highest priority first.
func (e *Engine) AllSpecsAt(pos int) []SpecID {
	ns := e.namespace()
	var out []SpecID
	for _, id := range e.registry.Specs() {
		if _, ok := e.store.buf.RunAt(Key(ns, id), pos); ok {
			out = append(out, id)
		}
	}
	return out
}

// RegionFullyFolded reports whether a single run of spec covers all of
// [start, end). With All, any spec qualifies.
func (e *Engine) RegionFullyFolded(start, end int, spec SpecID) (bool, error) {
	specs, err := e.specsFor(spec)
	if err != nil {
		return false, err
	}
	r, err := e.checkRange(start, end)
	if err != nil {
		return false, err
	}
	ns := e.namespace()
	for _, id := range specs {
		if e.store.buf.Covers(Key(ns, id), r.Start, r.End) {
			return true, nil
		}
	}
	return false, nil
}

// NextStateChange returns the next position after pos (or before it, when
// scanning backward) where any of specs starts or stops being folded. A nil
// specs slice means every spec. The scan stops at limit; NoLimit scans to
// the document edge.
func (e *Engine) NextStateChange(pos int, specs []SpecID, limit int, dir Direction) (int, error) {
	ids := e.registry.Specs()
	if specs != nil {
		ids = ids[:0:0]
		for _, s := range specs {
			id, err := e.registry.Resolve(s)
			if err != nil {
				return pos, err
			}
			ids = append(ids, id)
		}
	}
	ns := e.namespace()
	keys := make([]document.Key, len(ids))
	for i, id := range ids {
		keys[i] = Key(ns, id)
	}
	return e.stateChange(pos, keys, limit, dir), nil
}

func (e *Engine) stateChange(pos int, keys []document.Key, limit int, dir Direction) int {
	buf := e.store.buf
	if dir == Backward {
		if limit == NoLimit || limit < 0 {
			limit = 0
		}
		if pos <= limit {
			return limit
		}
		best := limit
		for _, key := range keys {
			best = max(best, buf.PrevBoundary(key, pos, limit))
		}
		return best
	}

	length := buf.Len()
	if limit == NoLimit || limit > length {
		limit = length
	}
	if pos >= limit {
		return limit
	}
	best := limit
	for _, key := range keys {
		best = min(best, buf.NextBoundary(key, pos, limit))
	}
	return best
}

// visibilityKeys returns every key that affects visibility in this view:
// all spec keys plus the host's own invisibility.
func (e *Engine) visibilityKeys() []document.Key {
	ns := e.namespace()
	specs := e.registry.Specs()
	keys := make([]document.Key, 0, len(specs)+1)
	for _, id := range specs {
		keys = append(keys, Key(ns, id))
	}
	return append(keys, document.Invisible)
}

// nextVisibilityChange is NextStateChange over every visibility mechanism.
func (e *Engine) nextVisibilityChange(pos, limit int) int {
	return e.stateChange(pos, e.visibilityKeys(), limit, Forward)
}

// Regions lists the folded runs overlapping [start, end), ordered by start
// and then by priority. No specs means every spec.
func (e *Engine) Regions(start, end int, specs ...SpecID) ([]Region, error) {
	r, err := e.checkRange(start, end)
	if err != nil {
		return nil, err
	}
	ids := e.registry.Specs()
	if len(specs) > 0 {
		ids = ids[:0:0]
		for _, s := range specs {
			got, err := e.specsFor(s)
			if err != nil {
				return nil, err
			}
			ids = append(ids, got...)
		}
	}

	ns := e.namespace()
	var out []Region
	for _, id := range ids {
		for _, run := range e.store.buf.RunsIn(Key(ns, id), r.Start, r.End) {
			out = append(out, Region{Spec: id, Range: run})
		}
	}
	priority := e.registry.Specs()
	slices.SortStableFunc(out, func(a, b Region) int {
		if a.Range.Start != b.Range.Start {
			return a.Range.Start - b.Range.Start
		}
		return slices.Index(priority, a.Spec) - slices.Index(priority, b.Spec)
	})
	return out, nil
}

// SaveVisibility runs fn and then restores the fold state of this view as
// it was before fn. Folds follow edits made by fn.
func (e *Engine) SaveVisibility(fn func() error) error {
	ns := e.namespace()
	saved := Namespace(string(ns) + "#save-" + uuid.NewString())
	specs := e.registry.Specs()
	buf := e.store.buf
	for _, id := range specs {
		buf.CopyKey(Key(ns, id), Key(saved, id))
	}
	defer func() {
		for _, id := range specs {
			if !e.registry.Has(id) {
				buf.DropKey(Key(saved, id))
				continue
			}
			buf.CopyKey(Key(saved, id), Key(ns, id))
			buf.DropKey(Key(saved, id))
		}
	}()
	return fn()
}
