package document

import (
	"slices"
	"strings"
	"sync"
)

// Change describes a completed content mutation. [From, To) is the text
// that was inserted or changed; OldLen runes were replaced. A pure deletion
// has From == To.
type Change struct {
	From   int
	To     int
	OldLen int
}

// Delta returns the change in document length.
func (c Change) Delta() int {
	return (c.To - c.From) - c.OldLen
}

// IsDeletion returns true if no text was inserted.
func (c Change) IsDeletion() bool {
	return c.From == c.To
}

// ChangeFunc is called after a content mutation.
type ChangeFunc func(Change)

// Buffer holds text shared by every view of a document, together with the
// attribute runs attached to it. All methods are thread-safe.
type Buffer struct {
	mu    sync.RWMutex
	text  []rune
	attrs map[Key]*Runs

	// modTick counts content changes only; tick counts every change.
	modTick uint64
	tick    uint64

	views []*View
	hooks []*changeHook
}

// changeHook gives a registered hook an identity for removal.
type changeHook struct {
	fn ChangeFunc
}

// NewBuffer creates a new empty buffer.
func NewBuffer() *Buffer {
	return &Buffer{
		attrs: make(map[Key]*Runs),
	}
}

// NewBufferFromString creates a buffer with initial content.
func NewBufferFromString(s string) *Buffer {
	b := NewBuffer()
	b.text = []rune(s)
	return b
}

// Read Operations

// Len returns the document length in runes.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.text)
}

// Text returns the full buffer content as a string.
func (b *Buffer) Text() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return string(b.text)
}

// TextRange returns text in the given range, clamped to the document.
func (b *Buffer) TextRange(start, end int) string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	r := Range{Start: start, End: end}.Clamp(len(b.text))
	return string(b.text[r.Start:r.End])
}

// Runes returns a copy of the content.
func (b *Buffer) Runes() []rune {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Clone(b.text)
}

// ModTick returns the content modification counter. It increases on every
// insertion or deletion and never on attribute changes.
func (b *Buffer) ModTick() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.modTick
}

// Tick returns a counter that increases on every modification, including
// attribute changes.
func (b *Buffer) Tick() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.tick
}

// Write Operations

// OnChange registers a hook called after every content mutation, whichever
// view performed it. The returned function removes the hook.
func (b *Buffer) OnChange(fn ChangeFunc) (remove func()) {
	h := &changeHook{fn: fn}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hooks = append(b.hooks, h)
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.hooks = slices.DeleteFunc(b.hooks, func(o *changeHook) bool { return o == h })
	}
}

// Insert inserts text at pos.
func (b *Buffer) Insert(pos int, text string) (Change, error) {
	return b.edit(nil, pos, pos, text, nil)
}

// Delete removes the text in [start, end).
func (b *Buffer) Delete(start, end int) (Change, error) {
	return b.edit(nil, start, end, "", nil)
}

// Replace replaces [start, end) with text.
func (b *Buffer) Replace(start, end int, text string) (Change, error) {
	return b.edit(nil, start, end, text, nil)
}

// InsertFragment inserts a fragment's text at pos and restores its
// attribute runs before change hooks run.
func (b *Buffer) InsertFragment(pos int, f Fragment) (Change, error) {
	return b.edit(nil, pos, pos, f.Text, f.Attrs)
}

// edit applies a content mutation, shifts attribute runs, then notifies
// buffer hooks and the originating view's hooks outside the lock.
func (b *Buffer) edit(origin *View, start, end int, text string, attrs map[Key][]Range) (Change, error) {
	b.mu.Lock()
	if start < 0 || start > len(b.text) || end > len(b.text) {
		b.mu.Unlock()
		return Change{}, ErrOffsetOutOfRange
	}
	if end < start {
		b.mu.Unlock()
		return Change{}, ErrRangeInvalid
	}

	inserted := []rune(text)
	if start == end && len(inserted) == 0 {
		b.mu.Unlock()
		return Change{From: start, To: start}, nil
	}

	if end > start {
		b.text = slices.Delete(b.text, start, end)
		for _, runs := range b.attrs {
			runs.shiftDelete(start, end)
		}
	}
	if len(inserted) > 0 {
		b.text = slices.Insert(b.text, start, inserted...)
		for _, runs := range b.attrs {
			runs.shiftInsert(start, len(inserted))
		}
	}
	// Fragment runs are relative to the inserted text and never reach
	// outside it.
	span := Range{Start: start, End: start + len(inserted)}
	for key, ranges := range attrs {
		runs := b.runsLocked(key, true)
		for _, r := range ranges {
			if !r.IsValid() {
				continue
			}
			r = r.Shift(start).Intersect(span)
			runs.Add(r.Start, r.End)
		}
	}
	b.dropEmptyLocked()

	b.modTick++
	b.tick++
	change := Change{From: start, To: start + len(inserted), OldLen: end - start}

	hooks := slices.Clone(b.hooks)
	var viewHooks []ChangeFunc
	if origin != nil {
		viewHooks = slices.Clone(origin.hooks)
	}
	b.mu.Unlock()

	for _, h := range hooks {
		h.fn(change)
	}
	for _, fn := range viewHooks {
		fn(change)
	}
	return change, nil
}

// Attribute Operations

func (b *Buffer) runsLocked(key Key, create bool) *Runs {
	runs, ok := b.attrs[key]
	if !ok && create {
		runs = NewRuns()
		b.attrs[key] = runs
	}
	return runs
}

func (b *Buffer) dropEmptyLocked() {
	for key, runs := range b.attrs {
		if runs.Empty() {
			delete(b.attrs, key)
		}
	}
}

// AddRun covers [start, end) with key. The range is clamped to the document.
// Returns true if coverage changed.
func (b *Buffer) AddRun(key Key, start, end int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	r := Range{Start: start, End: end}.Clamp(len(b.text))
	if !b.runsLocked(key, true).Add(r.Start, r.End) {
		b.dropEmptyLocked()
		return false
	}
	b.tick++
	return true
}

// RemoveRun uncovers [start, end) for key. Returns true if coverage changed.
func (b *Buffer) RemoveRun(key Key, start, end int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	runs := b.runsLocked(key, false)
	if runs == nil || !runs.Remove(start, end) {
		return false
	}
	if runs.Empty() {
		delete(b.attrs, key)
	}
	b.tick++
	return true
}

// RunAt returns the run of key containing pos.
func (b *Buffer) RunAt(key Key, pos int) (Range, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	runs := b.runsLocked(key, false)
	if runs == nil {
		return Range{}, false
	}
	return runs.At(pos)
}

// Covers returns true if one run of key covers all of [start, end).
func (b *Buffer) Covers(key Key, start, end int) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	runs := b.runsLocked(key, false)
	return runs != nil && runs.Covers(start, end)
}

// NextBoundary returns the next run boundary of key after pos, capped at limit.
func (b *Buffer) NextBoundary(key Key, pos, limit int) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	runs := b.runsLocked(key, false)
	if runs == nil {
		return limit
	}
	return runs.NextBoundary(pos, limit)
}

// PrevBoundary returns the previous run boundary of key before pos, floored
// at limit.
func (b *Buffer) PrevBoundary(key Key, pos, limit int) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	runs := b.runsLocked(key, false)
	if runs == nil {
		return limit
	}
	return runs.PrevBoundary(pos, limit)
}

// RunsIn returns the unclipped runs of key overlapping [start, end).
func (b *Buffer) RunsIn(key Key, start, end int) []Range {
	b.mu.RLock()
	defer b.mu.RUnlock()
	runs := b.runsLocked(key, false)
	if runs == nil {
		return nil
	}
	return runs.Intersecting(start, end)
}

// Runs returns every run of key.
func (b *Buffer) Runs(key Key) []Range {
	b.mu.RLock()
	defer b.mu.RUnlock()
	runs := b.runsLocked(key, false)
	if runs == nil {
		return nil
	}
	return runs.All()
}

// Keys returns every key with at least one run, sorted.
func (b *Buffer) Keys() []Key {
	b.mu.RLock()
	defer b.mu.RUnlock()
	keys := make([]Key, 0, len(b.attrs))
	for key := range b.attrs {
		keys = append(keys, key)
	}
	slices.SortFunc(keys, func(a, c Key) int {
		if n := strings.Compare(a.Namespace, c.Namespace); n != 0 {
			return n
		}
		return strings.Compare(a.Name, c.Name)
	})
	return keys
}

// DropKey removes every run of key.
func (b *Buffer) DropKey(key Key) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.attrs[key]; ok {
		delete(b.attrs, key)
		b.tick++
	}
}

// CopyKey replaces the runs of dst with a copy of the runs of src.
func (b *Buffer) CopyKey(src, dst Key) {
	b.mu.Lock()
	defer b.mu.Unlock()
	runs, ok := b.attrs[src]
	if !ok || runs.Empty() {
		delete(b.attrs, dst)
		return
	}
	b.attrs[dst] = runs.Clone()
	b.tick++
}

// Copy returns the text of [start, end) with its attribute runs, relative
// to start.
func (b *Buffer) Copy(start, end int) Fragment {
	b.mu.RLock()
	defer b.mu.RUnlock()
	r := Range{Start: start, End: end}.Clamp(len(b.text))
	f := Fragment{
		Text:  string(b.text[r.Start:r.End]),
		Attrs: make(map[Key][]Range),
	}
	for key, runs := range b.attrs {
		for _, run := range runs.Intersecting(r.Start, r.End) {
			clipped := run.Intersect(r)
			if clipped.IsEmpty() {
				continue
			}
			f.Attrs[key] = append(f.Attrs[key], clipped.Shift(-r.Start))
		}
	}
	return f
}
