package document

import (
	"slices"

	"github.com/google/uuid"
)

// View is one independent view over a buffer's content. Views share text and
// attributes; each has its own identity, used to namespace view-local state,
// and its own change hooks.
type View struct {
	id     string
	buf    *Buffer
	hooks  []ChangeFunc
	closed []func()
	done   bool
}

// NewView creates a view over the buffer. The first view created is the
// buffer's canonical view.
func (b *Buffer) NewView() *View {
	v := &View{id: uuid.NewString(), buf: b}
	b.mu.Lock()
	b.views = append(b.views, v)
	b.mu.Unlock()
	return v
}

// Views returns the open views in creation order.
func (b *Buffer) Views() []*View {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Clone(b.views)
}

// ID returns the view's unique identifier.
func (v *View) ID() string {
	return v.id
}

// Buffer returns the shared buffer.
func (v *View) Buffer() *Buffer {
	return v.buf
}

// OnChange registers a hook called after edits made through this view.
func (v *View) OnChange(fn ChangeFunc) {
	v.buf.mu.Lock()
	defer v.buf.mu.Unlock()
	v.hooks = append(v.hooks, fn)
}

// OnClose registers a function called when the view is closed.
func (v *View) OnClose(fn func()) {
	v.buf.mu.Lock()
	defer v.buf.mu.Unlock()
	v.closed = append(v.closed, fn)
}

// Insert inserts text at pos.
func (v *View) Insert(pos int, text string) (Change, error) {
	if v.isClosed() {
		return Change{}, ErrViewClosed
	}
	return v.buf.edit(v, pos, pos, text, nil)
}

// Delete removes the text in [start, end).
func (v *View) Delete(start, end int) (Change, error) {
	if v.isClosed() {
		return Change{}, ErrViewClosed
	}
	return v.buf.edit(v, start, end, "", nil)
}

// Replace replaces [start, end) with text.
func (v *View) Replace(start, end int, text string) (Change, error) {
	if v.isClosed() {
		return Change{}, ErrViewClosed
	}
	return v.buf.edit(v, start, end, text, nil)
}

// InsertFragment inserts a fragment, attributes included, at pos.
func (v *View) InsertFragment(pos int, f Fragment) (Change, error) {
	if v.isClosed() {
		return Change{}, ErrViewClosed
	}
	return v.buf.edit(v, pos, pos, f.Text, f.Attrs)
}

func (v *View) isClosed() bool {
	v.buf.mu.RLock()
	defer v.buf.mu.RUnlock()
	return v.done
}

// Close detaches the view from its buffer and runs the close callbacks.
// Closing twice is a no-op.
func (v *View) Close() {
	b := v.buf
	b.mu.Lock()
	if v.done {
		b.mu.Unlock()
		return
	}
	v.done = true
	b.views = slices.DeleteFunc(b.views, func(o *View) bool { return o == v })
	callbacks := slices.Clone(v.closed)
	b.mu.Unlock()

	for _, fn := range callbacks {
		fn()
	}
}
