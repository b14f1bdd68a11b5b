package document

import (
	"errors"
	"reflect"
	"testing"
)

func TestBufferEdits(t *testing.T) {
	b := NewBufferFromString("Hello World")

	c, err := b.Insert(5, ",")
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if c != (Change{From: 5, To: 6, OldLen: 0}) {
		t.Errorf("unexpected change %+v", c)
	}
	if b.Text() != "Hello, World" {
		t.Errorf("got %q", b.Text())
	}

	c, err = b.Replace(7, 12, "Gopher")
	if err != nil {
		t.Fatalf("replace failed: %v", err)
	}
	if c.Delta() != 1 {
		t.Errorf("expected delta 1, got %d", c.Delta())
	}

	c, err = b.Delete(0, 7)
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if !c.IsDeletion() {
		t.Error("delete should be a pure deletion")
	}
	if b.Text() != "Gopher" {
		t.Errorf("got %q", b.Text())
	}
}

func TestBufferEditErrors(t *testing.T) {
	b := NewBufferFromString("abc")

	if _, err := b.Insert(4, "x"); !errors.Is(err, ErrOffsetOutOfRange) {
		t.Errorf("expected ErrOffsetOutOfRange, got %v", err)
	}
	if _, err := b.Delete(2, 1); !errors.Is(err, ErrRangeInvalid) {
		t.Errorf("expected ErrRangeInvalid, got %v", err)
	}
}

func TestBufferRuneOffsets(t *testing.T) {
	b := NewBufferFromString("héllo")
	if b.Len() != 5 {
		t.Errorf("expected 5 runes, got %d", b.Len())
	}
	if got := b.TextRange(1, 3); got != "él" {
		t.Errorf("TextRange = %q", got)
	}
}

func TestBufferModTickIgnoresAttributes(t *testing.T) {
	b := NewBufferFromString("0123456789")
	key := Key{Name: "k"}

	tick := b.ModTick()
	b.AddRun(key, 2, 4)
	if b.ModTick() != tick {
		t.Error("attribute change must not bump ModTick")
	}
	if b.Tick() == 0 {
		t.Error("attribute change should bump Tick")
	}

	b.Insert(0, "x")
	if b.ModTick() != tick+1 {
		t.Errorf("expected ModTick %d, got %d", tick+1, b.ModTick())
	}
}

func TestBufferRunsShiftWithEdits(t *testing.T) {
	b := NewBufferFromString("0123456789")
	key := Key{Namespace: "v", Name: "fold"}
	b.AddRun(key, 2, 6)

	b.Insert(0, "ab")
	if got := b.Runs(key); !reflect.DeepEqual(got, []Range{{4, 8}}) {
		t.Errorf("after prefix insert: %v", got)
	}

	b.Insert(6, "zz")
	if got := b.Runs(key); !reflect.DeepEqual(got, []Range{{4, 6}, {8, 10}}) {
		t.Errorf("insert inside run should split: %v", got)
	}

	b.Delete(6, 8)
	if got := b.Runs(key); !reflect.DeepEqual(got, []Range{{4, 8}}) {
		t.Errorf("delete should re-merge: %v", got)
	}

	b.Delete(0, 12)
	if keys := b.Keys(); len(keys) != 0 {
		t.Errorf("empty keys should be dropped, got %v", keys)
	}
}

func TestBufferCopyAndInsertFragment(t *testing.T) {
	b := NewBufferFromString("0123456789")
	key := Key{Namespace: "v", Name: "fold"}
	b.AddRun(key, 3, 8)

	f := b.Copy(5, 10)
	if f.Text != "56789" {
		t.Errorf("fragment text %q", f.Text)
	}
	if got := f.Attrs[key]; !reflect.DeepEqual(got, []Range{{0, 3}}) {
		t.Errorf("fragment runs %v", got)
	}

	b.InsertFragment(0, f)
	if got := b.Runs(key); !reflect.DeepEqual(got, []Range{{0, 3}, {8, 13}}) {
		t.Errorf("runs after fragment insert: %v", got)
	}

	stripped := f.Without(func(k Key) bool { return k.Scoped() })
	if len(stripped.Attrs) != 0 {
		t.Errorf("Without should drop scoped keys: %v", stripped.Attrs)
	}
}

func TestBufferCopyKey(t *testing.T) {
	b := NewBufferFromString("0123456789")
	src := Key{Namespace: "a", Name: "fold"}
	dst := Key{Namespace: "b", Name: "fold"}
	b.AddRun(src, 1, 4)

	b.CopyKey(src, dst)
	b.AddRun(dst, 6, 8)

	if got := b.Runs(src); !reflect.DeepEqual(got, []Range{{1, 4}}) {
		t.Errorf("source must not see copy's changes: %v", got)
	}
	if got := b.Runs(dst); !reflect.DeepEqual(got, []Range{{1, 4}, {6, 8}}) {
		t.Errorf("copy runs: %v", got)
	}
}

func TestViewHooks(t *testing.T) {
	b := NewBufferFromString("abc")
	v1 := b.NewView()
	v2 := b.NewView()

	var bufChanges, v1Changes, v2Changes []Change
	b.OnChange(func(c Change) { bufChanges = append(bufChanges, c) })
	v1.OnChange(func(c Change) { v1Changes = append(v1Changes, c) })
	v2.OnChange(func(c Change) {
		// hooks may call back into the buffer
		_ = b.Text()
		v2Changes = append(v2Changes, c)
	})

	if _, err := v1.Insert(3, "d"); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if _, err := v2.Delete(0, 1); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	if len(bufChanges) != 2 || len(v1Changes) != 1 || len(v2Changes) != 1 {
		t.Errorf("hook counts buf=%d v1=%d v2=%d", len(bufChanges), len(v1Changes), len(v2Changes))
	}
	if v1.ID() == v2.ID() {
		t.Error("views need distinct ids")
	}
}

func TestViewClose(t *testing.T) {
	b := NewBuffer()
	v := b.NewView()
	calls := 0
	v.OnClose(func() { calls++ })

	v.Close()
	v.Close()

	if calls != 1 {
		t.Errorf("close callbacks ran %d times", calls)
	}
	if len(b.Views()) != 0 {
		t.Error("closed view should be detached")
	}
	if _, err := v.Insert(0, "x"); !errors.Is(err, ErrViewClosed) {
		t.Errorf("expected ErrViewClosed, got %v", err)
	}
}

func TestBufferInsertFragmentStaysInsideInsertedText(t *testing.T) {
	b := NewBufferFromString("0123456789")
	face := Key{Name: "face"}
	outside := Key{Name: "outside"}

	frag := Fragment{
		Text: "yy",
		Attrs: map[Key][]Range{
			face:    {{-8, 1}, {1, 5}, {3, 2}},
			outside: {{-5, -1}, {4, 9}},
		},
	}
	if _, err := b.InsertFragment(5, frag); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	if got := b.Runs(face); !reflect.DeepEqual(got, []Range{{5, 7}}) {
		t.Errorf("fragment runs must be cut to the inserted text, got %v", got)
	}
	if got := b.Runs(outside); len(got) != 0 {
		t.Errorf("runs entirely outside the fragment must be dropped, got %v", got)
	}
}

func TestBufferOnChangeRemove(t *testing.T) {
	b := NewBufferFromString("abc")
	calls := 0
	remove := b.OnChange(func(Change) { calls++ })

	if _, err := b.Insert(0, "x"); err != nil {
		t.Fatal(err)
	}
	remove()
	remove()
	if _, err := b.Insert(0, "y"); err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Errorf("removed hook ran %d times, want 1", calls)
	}
}
