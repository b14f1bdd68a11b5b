package document

import (
	"github.com/emirpasic/gods/trees/redblacktree"
)

// Runs is an ordered set of disjoint, non-abutting ranges.
//
// Runs are kept in a red-black tree keyed by run start with the run end as
// value, so point and boundary queries cost O(log n) in the number of runs.
// Adding a range that overlaps or abuts existing runs merges them.
type Runs struct {
	tree *redblacktree.Tree
}

// NewRuns creates an empty run set.
func NewRuns() *Runs {
	return &Runs{tree: redblacktree.NewWithIntComparator()}
}

func nodeRange(n *redblacktree.Node) Range {
	return Range{Start: n.Key.(int), End: n.Value.(int)}
}

// Len returns the number of runs.
func (r *Runs) Len() int {
	return r.tree.Size()
}

// Empty returns true if the set has no runs.
func (r *Runs) Empty() bool {
	return r.tree.Empty()
}

// Add covers [start, end), merging with any run it overlaps or abuts.
// Returns true if coverage changed.
func (r *Runs) Add(start, end int) bool {
	if start >= end || r.Covers(start, end) {
		return false
	}

	if n, ok := r.tree.Floor(start); ok {
		prev := nodeRange(n)
		if prev.Touches(Range{Start: start, End: end}) {
			start = prev.Start
			end = max(end, prev.End)
			r.tree.Remove(prev.Start)
		}
	}

	for {
		n, ok := r.tree.Ceiling(start)
		if !ok {
			break
		}
		next := nodeRange(n)
		if !next.Touches(Range{Start: start, End: end}) {
			break
		}
		end = max(end, next.End)
		r.tree.Remove(next.Start)
	}

	r.tree.Put(start, end)
	return true
}

// Remove uncovers [start, end), splitting runs that straddle the bounds.
// Returns true if coverage changed.
func (r *Runs) Remove(start, end int) bool {
	if start >= end {
		return false
	}

	changed := false
	if n, ok := r.tree.Floor(start); ok {
		prev := nodeRange(n)
		if prev.End > start {
			changed = true
			r.tree.Remove(prev.Start)
			if prev.Start < start {
				r.tree.Put(prev.Start, start)
			}
			if prev.End > end {
				r.tree.Put(end, prev.End)
				return true
			}
		}
	}

	for {
		n, ok := r.tree.Ceiling(start)
		if !ok {
			break
		}
		next := nodeRange(n)
		if next.Start >= end {
			break
		}
		changed = true
		r.tree.Remove(next.Start)
		if next.End > end {
			r.tree.Put(end, next.End)
			break
		}
	}
	return changed
}

// At returns the run containing pos.
func (r *Runs) At(pos int) (Range, bool) {
	n, ok := r.tree.Floor(pos)
	if !ok {
		return Range{}, false
	}
	run := nodeRange(n)
	if run.End <= pos {
		return Range{}, false
	}
	return run, true
}

// Covers returns true if a single run covers all of [start, end).
// An empty range is never covered.
func (r *Runs) Covers(start, end int) bool {
	if start >= end {
		return false
	}
	run, ok := r.At(start)
	return ok && run.ContainsRange(Range{Start: start, End: end})
}

// NextBoundary returns the smallest run start or end strictly greater than
// pos, or limit when no boundary lies in (pos, limit].
func (r *Runs) NextBoundary(pos, limit int) int {
	next := limit
	if run, ok := r.At(pos); ok {
		next = run.End
	} else if n, ok := r.tree.Ceiling(pos + 1); ok {
		next = n.Key.(int)
	}
	return min(next, limit)
}

// PrevBoundary returns the largest run start or end strictly less than pos,
// or limit when no boundary lies in [limit, pos).
func (r *Runs) PrevBoundary(pos, limit int) int {
	n, ok := r.tree.Floor(pos - 1)
	if !ok {
		return limit
	}
	run := nodeRange(n)
	prev := run.Start
	if run.End < pos {
		prev = run.End
	}
	return max(prev, limit)
}

// Intersecting returns the unclipped runs that overlap [start, end).
func (r *Runs) Intersecting(start, end int) []Range {
	var out []Range
	if run, ok := r.At(start); ok {
		out = append(out, run)
		start = run.End
	}
	for start < end {
		n, ok := r.tree.Ceiling(start)
		if !ok {
			break
		}
		run := nodeRange(n)
		if run.Start >= end {
			break
		}
		out = append(out, run)
		start = run.End
	}
	return out
}

// All returns every run in ascending order.
func (r *Runs) All() []Range {
	out := make([]Range, 0, r.tree.Size())
	it := r.tree.Iterator()
	for it.Next() {
		out = append(out, Range{Start: it.Key().(int), End: it.Value().(int)})
	}
	return out
}

// Clone returns an independent copy.
func (r *Runs) Clone() *Runs {
	c := NewRuns()
	it := r.tree.Iterator()
	for it.Next() {
		c.tree.Put(it.Key(), it.Value())
	}
	return c
}

// shiftInsert moves runs for n runes inserted at pos. A run strictly
// containing pos is split; the inserted text is left uncovered.
func (r *Runs) shiftInsert(pos, n int) {
	if n <= 0 {
		return
	}

	var moved []Range
	if node, ok := r.tree.Floor(pos); ok {
		run := nodeRange(node)
		if run.Start < pos && run.End > pos {
			r.tree.Put(run.Start, pos)
			moved = append(moved, Range{Start: pos, End: run.End})
		}
	}
	for {
		node, ok := r.tree.Ceiling(pos)
		if !ok {
			break
		}
		run := nodeRange(node)
		r.tree.Remove(run.Start)
		moved = append(moved, run)
	}
	for _, run := range moved {
		r.tree.Put(run.Start+n, run.End+n)
	}
}

// shiftDelete clips and moves runs for the deletion of [start, end), merging
// runs that end up abutting.
func (r *Runs) shiftDelete(start, end int) {
	n := end - start
	if n <= 0 {
		return
	}

	mapPos := func(p int) int {
		switch {
		case p <= start:
			return p
		case p >= end:
			return p - n
		default:
			return start
		}
	}

	var moved []Range
	if node, ok := r.tree.Floor(start); ok {
		run := nodeRange(node)
		if run.Start < start && run.End > start {
			r.tree.Remove(run.Start)
			moved = append(moved, run)
		}
	}
	for {
		node, ok := r.tree.Ceiling(start)
		if !ok {
			break
		}
		run := nodeRange(node)
		r.tree.Remove(run.Start)
		moved = append(moved, run)
	}
	for _, run := range moved {
		r.Add(mapPos(run.Start), mapPos(run.End))
	}
}
