package fold

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"

	"github.com/dshills/foldlayer/internal/document"
)

// Clip is text extracted from the document, safe to insert into any view
// or document. It carries no fold keys: only the specs that folded the
// whole extracted span survive, by name.
type Clip struct {
	Text  string          `msgpack:"text"`
	Folds map[SpecID]bool `msgpack:"folds,omitempty"`
	Attrs []ClipAttr      `msgpack:"attrs,omitempty"`
}

// ClipAttr is a host attribute carried by a clip, with runs relative to
// the start of the clip.
type ClipAttr struct {
	Namespace string           `msgpack:"ns,omitempty"`
	Name      string           `msgpack:"name"`
	Runs      []document.Range `msgpack:"runs"`
}

// Folded reports whether the clip carries a whole-span fold of spec.
func (c Clip) Folded(spec SpecID) bool {
	return c.Folds[spec]
}

// Len returns the clip length in runes.
func (c Clip) Len() int {
	return len([]rune(c.Text))
}

// MarshalBinary encodes the clip with msgpack.
func (c Clip) MarshalBinary() ([]byte, error) {
	data, err := msgpack.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode clip: %w", err)
	}
	return data, nil
}

// UnmarshalBinary decodes a clip encoded by MarshalBinary.
func (c *Clip) UnmarshalBinary(data []byte) error {
	var decoded Clip
	if err := msgpack.Unmarshal(data, &decoded); err != nil {
		return fmt.Errorf("decode clip: %w", err)
	}
	*c = decoded
	return nil
}

// Extract copies [start, end) out of the document. A spec whose fold covers
// the whole range is recorded in the clip; every other fold, and every
// fold-namespace key of any view, is left behind.
func (e *Engine) Extract(start, end int) (Clip, error) {
	r, err := e.checkRange(start, end)
	if err != nil {
		return Clip{}, err
	}
	buf := e.store.buf
	frag := buf.Copy(r.Start, r.End).Without(e.store.Owns)

	clip := Clip{Text: frag.Text}
	if !r.IsEmpty() {
		ns := e.namespace()
		for _, id := range e.registry.Specs() {
			if !buf.Covers(Key(ns, id), r.Start, r.End) {
				continue
			}
			if clip.Folds == nil {
				clip.Folds = make(map[SpecID]bool)
			}
			clip.Folds[id] = true
		}
	}
	for key, runs := range frag.Attrs {
		clip.Attrs = append(clip.Attrs, ClipAttr{Namespace: key.Namespace, Name: key.Name, Runs: runs})
	}
	slices.SortFunc(clip.Attrs, func(a, b ClipAttr) int {
		if c := cmp.Compare(a.Namespace, b.Namespace); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return clip, nil
}

// InsertClip inserts a clip at pos through the engine's view and folds it
// under the clip's specs that are registered here. Attributes that would
// land in a fold namespace are dropped.
func (e *Engine) InsertClip(pos int, clip Clip) error {
	frag := document.Fragment{Text: clip.Text, Attrs: make(map[document.Key][]document.Range)}
	for _, attr := range clip.Attrs {
		key := document.Key{Namespace: attr.Namespace, Name: attr.Name}
		if e.store.Owns(key) {
			continue
		}
		frag.Attrs[key] = append(frag.Attrs[key], attr.Runs...)
	}
	change, err := e.view.InsertFragment(pos, frag)
	if err != nil {
		return err
	}
	if change.To == change.From {
		return nil
	}

	specs := make([]SpecID, 0, len(clip.Folds))
	for id, folded := range clip.Folds {
		if folded {
			specs = append(specs, id)
		}
	}
	slices.Sort(specs)
	for _, id := range specs {
		if !e.registry.Has(id) {
			e.logger.Debug("clip fold of unknown spec dropped", zap.String("spec", string(id)))
			continue
		}
		if err := e.Fold(change.From, change.To, id); err != nil {
			return err
		}
	}
	return nil
}
