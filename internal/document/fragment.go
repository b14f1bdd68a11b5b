package document

import "maps"

// Fragment is a piece of text together with the attribute runs that covered
// it, positioned relative to the start of the text.
type Fragment struct {
	Text  string
	Attrs map[Key][]Range
}

// Len returns the fragment length in runes.
func (f Fragment) Len() int {
	return len([]rune(f.Text))
}

// Without returns a copy of the fragment with every key for which drop
// returns true removed.
func (f Fragment) Without(drop func(Key) bool) Fragment {
	out := Fragment{Text: f.Text, Attrs: make(map[Key][]Range, len(f.Attrs))}
	for key, ranges := range f.Attrs {
		if drop(key) {
			continue
		}
		out.Attrs[key] = ranges
	}
	return out
}

// Clone returns a deep copy of the fragment.
func (f Fragment) Clone() Fragment {
	out := Fragment{Text: f.Text, Attrs: maps.Clone(f.Attrs)}
	for key, ranges := range out.Attrs {
		out.Attrs[key] = append([]Range(nil), ranges...)
	}
	return out
}
