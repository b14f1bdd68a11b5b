package fold

import (
	"slices"
	"sync"

	"github.com/dlclark/regexp2"

	"github.com/dshills/foldlayer/internal/document"
)

// SearchMode selects how search integrates with folds.
type SearchMode int

const (
	// SearchAttributes filters and reveals against the live fold runs.
	SearchAttributes SearchMode = iota

	// SearchOverlays snapshots the folds into overlay records when the
	// session starts and works from the snapshot.
	SearchOverlays
)

// String returns the mode name.
func (m SearchMode) String() string {
	switch m {
	case SearchAttributes:
		return "attributes"
	case SearchOverlays:
		return "overlays"
	default:
		return "unknown"
	}
}

// Revealed is a fold opened by search, restored exactly as recorded.
type Revealed struct {
	Spec  SpecID
	Range document.Range
}

// SearchBackend is the fold side of a search integration.
type SearchBackend interface {
	// Searchable reports whether every fold over r allows search.
	Searchable(r document.Range) bool

	// Reveal opens the folds over r that search may open and returns
	// what it opened.
	Reveal(r document.Range) []Revealed

	// Restore folds the records back.
	Restore(records []Revealed)
}

func (e *Engine) newSearchBackend() SearchBackend {
	if e.searchMode == SearchOverlays {
		regions, _ := e.Regions(0, e.store.buf.Len())
		return &overlayBackend{engine: e, overlays: regions}
	}
	return &attributeBackend{engine: e}
}

// attributeBackend reads the fold runs directly.
type attributeBackend struct {
	engine *Engine
}

func (b *attributeBackend) Searchable(r document.Range) bool {
	e := b.engine
	ns := e.namespace()
	for _, id := range e.registry.Specs() {
		if len(e.store.buf.RunsIn(Key(ns, id), r.Start, max(r.End, r.Start+1))) == 0 {
			continue
		}
		if props, err := e.registry.Spec(id); err == nil && props.SearchIgnore {
			return false
		}
	}
	return true
}

func (b *attributeBackend) at(pos int) []Revealed {
	e := b.engine
	ns := e.namespace()
	var out []Revealed
	for _, id := range e.registry.Specs() {
		if run, ok := e.store.buf.RunAt(Key(ns, id), pos); ok {
			out = append(out, Revealed{Spec: id, Range: run})
		}
	}
	return out
}

func (b *attributeBackend) Reveal(r document.Range) []Revealed {
	e := b.engine
	return e.revealWalk(r, b.at, func(pos, limit int) int {
		return e.stateChange(pos, e.specKeys(), limit, Forward)
	})
}

func (b *attributeBackend) Restore(records []Revealed) {
	b.engine.restoreRecords(records)
}

// overlayBackend works from a snapshot of the folds taken when the session
// began. Reveals still open and close the live runs.
type overlayBackend struct {
	engine   *Engine
	overlays []Region
}

func (b *overlayBackend) overlapping(r document.Range) []Region {
	var out []Region
	for _, o := range b.overlays {
		if o.Range.Overlaps(r) || (r.IsEmpty() && o.Range.Contains(r.Start)) {
			out = append(out, o)
		}
	}
	return out
}

func (b *overlayBackend) Searchable(r document.Range) bool {
	for _, o := range b.overlapping(r) {
		if props, err := b.engine.registry.Spec(o.Spec); err == nil && props.SearchIgnore {
			return false
		}
	}
	return true
}

func (b *overlayBackend) at(pos int) []Revealed {
	priority := b.engine.registry.Specs()
	var out []Revealed
	for _, o := range b.overlays {
		if o.Range.Contains(pos) {
			out = append(out, Revealed{Spec: o.Spec, Range: o.Range})
		}
	}
	slices.SortStableFunc(out, func(a, c Revealed) int {
		return slices.Index(priority, a.Spec) - slices.Index(priority, c.Spec)
	})
	return out
}

func (b *overlayBackend) next(pos, limit int) int {
	next := limit
	for _, o := range b.overlays {
		if o.Range.Start > pos && o.Range.Start < next {
			next = o.Range.Start
		}
		if o.Range.End > pos && o.Range.End < next {
			next = o.Range.End
		}
	}
	return next
}

func (b *overlayBackend) Reveal(r document.Range) []Revealed {
	return b.engine.revealWalk(r, b.at, b.next)
}

func (b *overlayBackend) Restore(records []Revealed) {
	b.engine.restoreRecords(records)
}

func (e *Engine) specKeys() []document.Key {
	ns := e.namespace()
	specs := e.registry.Specs()
	keys := make([]document.Key, len(specs))
	for i, id := range specs {
		keys[i] = Key(ns, id)
	}
	return keys
}

// revealWalk steps through r one fold boundary at a time. Stretches whose
// top fold may not be opened by search are skipped; elsewhere every fold
// at the position is opened whole and recorded.
func (e *Engine) revealWalk(r document.Range, at func(int) []Revealed, next func(int, int) int) []Revealed {
	ns := e.namespace()
	var out []Revealed
	pos := r.Start
	end := max(r.End, r.Start+1)
	for pos < end {
		step := next(pos, end)
		folds := at(pos)
		if len(folds) > 0 && e.searchOpens(folds[0].Spec) {
			for _, rec := range folds {
				if slices.Contains(out, rec) {
					continue
				}
				if e.store.buf.RemoveRun(Key(ns, rec.Spec), rec.Range.Start, rec.Range.End) {
					out = append(out, rec)
					e.metrics.RecordReveal(rec.Spec)
				}
			}
		}
		if step <= pos {
			break
		}
		pos = step
	}
	return out
}

func (e *Engine) searchOpens(id SpecID) bool {
	props, err := e.registry.Spec(id)
	return err == nil && props.SearchOpen
}

func (e *Engine) restoreRecords(records []Revealed) {
	ns := e.namespace()
	for _, rec := range records {
		if !e.registry.Has(rec.Spec) {
			continue
		}
		e.store.buf.AddRun(Key(ns, rec.Spec), rec.Range.Start, rec.Range.End)
	}
}

// SearchSession is one search interaction. It records every fold it opens
// and folds them back when the interaction ends. Close must be called,
// typically deferred; WithSearch does so.
type SearchSession struct {
	engine  *Engine
	backend SearchBackend

	revealed map[document.Range][]Revealed
	order    []document.Range

	current *document.Range
	landed  []document.Range
	landing bool

	patterns map[string]*regexp2.Regexp

	closeOnce sync.Once
	closed    bool
}

// BeginSearch starts a search session on the engine's configured backend.
func (e *Engine) BeginSearch() *SearchSession {
	return &SearchSession{
		engine:   e,
		backend:  e.newSearchBackend(),
		revealed: make(map[document.Range][]Revealed),
		patterns: make(map[string]*regexp2.Regexp),
	}
}

// WithSearch runs fn inside a search session and closes it on every path.
func (e *Engine) WithSearch(fn func(s *SearchSession) error) error {
	s := e.BeginSearch()
	defer s.Close()
	return fn(s)
}

// SearchMode returns the engine's search backend kind.
func (e *Engine) SearchMode() SearchMode {
	return e.searchMode
}

// SetRevealFunc replaces the callback run when search lands on a match.
// Nil restores DefaultReveal.
func (e *Engine) SetRevealFunc(fn RevealFunc) {
	if fn == nil {
		fn = DefaultReveal
	}
	e.reveal = fn
}

// Backend returns the session's backend.
func (s *SearchSession) Backend() SearchBackend {
	return s.backend
}

// Filter reports whether a match over r may be reported. Every fold over r
// must be searchable. Text hidden by the host, or by folds search may not
// open, is rejected unless the engine searches invisible text; in that case
// the folds over r are revealed right away.
func (s *SearchSession) Filter(r document.Range) bool {
	if s.closed {
		return false
	}
	e := s.engine
	r = r.Clamp(e.store.buf.Len())
	if !s.backend.Searchable(r) {
		return false
	}
	if e.searchInvisible {
		_ = s.TemporaryReveal(r, false)
		return true
	}
	return !s.blocked(r)
}

// blocked reports whether part of r stays hidden even when search opens
// every fold it may open.
func (s *SearchSession) blocked(r document.Range) bool {
	e := s.engine
	end := max(r.End, r.Start+1)
	for pos := r.Start; pos < end && pos < e.store.buf.Len(); {
		if _, ok := e.store.buf.RunAt(document.Invisible, pos); ok {
			return true
		}
		if id, ok := e.EffectiveSpecAt(pos); ok && e.presentationFor(id) != PresentShown && !e.searchOpens(id) {
			return true
		}
		next := e.nextVisibilityChange(pos, end)
		if next <= pos {
			break
		}
		pos = next
	}
	return false
}

// TemporaryReveal opens the folds over r, or with restore set folds back
// what an earlier reveal of r opened. Reveal followed by restore leaves the
// fold runs as they were.
func (s *SearchSession) TemporaryReveal(r document.Range, restore bool) error {
	if s.closed {
		return ErrSessionClosed
	}
	if restore {
		s.restore(r)
		return nil
	}
	records := s.backend.Reveal(r)
	if _, ok := s.revealed[r]; !ok {
		s.order = append(s.order, r)
	}
	s.revealed[r] = append(s.revealed[r], records...)
	if s.landing && !slices.Contains(s.landed, r) {
		s.landed = append(s.landed, r)
	}
	return nil
}

func (s *SearchSession) restore(r document.Range) int {
	records, ok := s.revealed[r]
	if !ok {
		return 0
	}
	s.backend.Restore(records)
	delete(s.revealed, r)
	s.order = slices.DeleteFunc(s.order, func(o document.Range) bool { return o == r })
	return len(records)
}

// Land moves the session to match: reveals opened for the previous match
// are folded back, then the reveal callback opens the new one.
func (s *SearchSession) Land(match document.Range) error {
	if s.closed {
		return ErrSessionClosed
	}
	for _, r := range s.landed {
		s.restore(r)
	}
	s.landed = nil
	s.current = &match

	s.landing = true
	defer func() { s.landing = false }()
	s.engine.reveal(s, match)
	return nil
}

// Current returns the match the session last landed on.
func (s *SearchSession) Current() (document.Range, bool) {
	if s.current == nil {
		return document.Range{}, false
	}
	return *s.current, true
}

// Accept keeps the current match revealed after the session closes.
func (s *SearchSession) Accept() {
	for _, r := range s.landed {
		delete(s.revealed, r)
		s.order = slices.DeleteFunc(s.order, func(o document.Range) bool { return o == r })
	}
	s.landed = nil
}

// Pending returns every fold the session currently holds open.
func (s *SearchSession) Pending() []Revealed {
	var out []Revealed
	for _, r := range s.order {
		out = append(out, s.revealed[r]...)
	}
	return out
}

// FindNext searches for pattern from rune offset from and lands on the
// first match the filter accepts.
func (s *SearchSession) FindNext(pattern string, from int) (document.Range, bool, error) {
	if s.closed {
		return document.Range{}, false, ErrSessionClosed
	}
	re, ok := s.patterns[pattern]
	if !ok {
		var err error
		re, err = regexp2.Compile(pattern, regexp2.None)
		if err != nil {
			return document.Range{}, false, err
		}
		s.patterns[pattern] = re
	}

	runes := s.engine.store.buf.Runes()
	if from < 0 || from > len(runes) {
		return document.Range{}, false, ErrInvalidRange
	}
	m, err := re.FindRunesMatchStartingAt(runes, from)
	for ; m != nil && err == nil; m, err = re.FindNextMatch(m) {
		r := document.NewRange(m.Index, m.Index+m.Length)
		if !s.Filter(r) {
			continue
		}
		if err := s.Land(r); err != nil {
			return document.Range{}, false, err
		}
		return r, true, nil
	}
	return document.Range{}, false, err
}

// Close folds back everything the session opened and has not accepted.
// It runs once; later calls do nothing.
func (s *SearchSession) Close() {
	s.closeOnce.Do(func() {
		restored := 0
		for len(s.order) > 0 {
			restored += s.restore(s.order[len(s.order)-1])
		}
		s.landed = nil
		s.closed = true
		s.engine.logger.SearchSessionClosed(s.engine.searchMode, restored)
	})
}

// DefaultReveal opens the whole fold region at the start of the match and
// then at every later visibility change inside it.
func DefaultReveal(s *SearchSession, match document.Range) {
	e := s.engine
	pos := match.Start
	for {
		if region, ok, err := e.RegionAt(pos, All); err == nil && ok {
			_ = s.TemporaryReveal(region, false)
		}
		next := e.nextVisibilityChange(pos, match.End)
		if next <= pos || next >= match.End {
			return
		}
		pos = next
	}
}
