package script

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/dshills/foldlayer/internal/document"
	"github.com/dshills/foldlayer/internal/fold"
)

const testScript = `
function heading_gone(s, e, spec)
  return doc.text(s, s + 1) ~= "#"
end

function whole_lines(from, to)
  while from > 0 and doc.text(from - 1, from) ~= "\n" do from = from - 1 end
  local n = doc.len()
  while to < n and doc.text(to, to + 1) ~= "\n" do to = to + 1 end
  return from, to
end

function spec_is(s, e, spec)
  return spec == "outline"
end

function broken(s, e, spec)
  error("boom")
end

function spin(s, e, spec)
  while true do end
end

function strings_back(from, to)
  return "a", "b"
end
`

func newTestHost(t *testing.T, text string, opts ...Option) (*Host, *document.Buffer) {
	t.Helper()
	buf := document.NewBufferFromString(text)
	h := New(buf, opts...)
	t.Cleanup(func() { _ = h.Close() })
	if err := h.DoString(testScript); err != nil {
		t.Fatalf("DoString() error = %v", err)
	}
	return h, buf
}

func TestSandbox(t *testing.T) {
	h := New(document.NewBuffer())
	defer h.Close()

	for _, name := range []string{"io", "os", "debug", "package", "dofile", "loadfile", "load", "loadstring", "require"} {
		if v := h.L.GetGlobal(name); v != lua.LNil {
			t.Errorf("global %q should not be available, got %s", name, v.Type())
		}
	}
	for _, name := range []string{"string", "table", "math", "pairs", "doc"} {
		if v := h.L.GetGlobal(name); v == lua.LNil {
			t.Errorf("global %q should be available", name)
		}
	}
}

func TestDocModule(t *testing.T) {
	h, buf := newTestHost(t, "# title\nbody")

	res, err := h.Call("whole_lines", 2, lua.LNumber(3), lua.LNumber(4))
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if res[0] != lua.LNumber(0) || res[1] != lua.LNumber(7) {
		t.Errorf("whole_lines(3, 4) = %v, %v, want 0, 7", res[0], res[1])
	}

	if _, err := buf.Insert(0, "x"); err != nil {
		t.Fatal(err)
	}
	if err := h.DoString(`n = doc.len()`); err != nil {
		t.Fatal(err)
	}
	if got := h.L.GetGlobal("n"); got != lua.LNumber(buf.Len()) {
		t.Errorf("doc.len() = %v, want %d", got, buf.Len())
	}
}

func TestPredicate(t *testing.T) {
	h, buf := newTestHost(t, "# title\nbody")
	pred := h.Predicate("heading_gone")

	r := document.Range{Start: 0, End: 7}
	if pred(r, "outline") {
		t.Error("fold over a heading should stay valid")
	}
	if _, err := buf.Delete(0, 1); err != nil {
		t.Fatal(err)
	}
	if !pred(r, "outline") {
		t.Error("fold without its heading should be fragile")
	}

	spec := h.Predicate("spec_is")
	if !spec(r, "outline") || spec(r, "block") {
		t.Error("predicate should receive the spec name")
	}
}

func TestPredicateFailures(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	h, _ := newTestHost(t, "text", WithLogger(zap.New(core)), WithTimeout(50*time.Millisecond))
	r := document.Range{Start: 0, End: 2}

	tests := []string{"broken", "spin", "missing"}
	for _, name := range tests {
		t.Run(name, func(t *testing.T) {
			before := logs.Len()
			if h.Predicate(name)(r, "outline") {
				t.Errorf("%s should count as not fragile", name)
			}
			if logs.Len() != before+1 {
				t.Fatalf("expected one warning, got %d", logs.Len()-before)
			}
			entry := logs.All()[logs.Len()-1]
			if entry.Message != "fragile predicate failed" {
				t.Errorf("unexpected log message %q", entry.Message)
			}
			if entry.ContextMap()["function"] != name {
				t.Errorf("log should name the function, got %v", entry.ContextMap())
			}
		})
	}

	// The state survives a timed out call.
	if !h.Predicate("spec_is")(r, "outline") {
		t.Error("host unusable after failures")
	}
}

func TestExtendHook(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	h, _ := newTestHost(t, "one\ntwo\nthree", WithLogger(zap.New(core)))

	from, to := h.ExtendHook("whole_lines")(5, 6)
	if from != 4 || to != 7 {
		t.Errorf("whole_lines(5, 6) = %d, %d, want 4, 7", from, to)
	}

	from, to = h.ExtendHook("strings_back")(5, 6)
	if from != 5 || to != 6 {
		t.Errorf("non-numeric results should leave the window, got %d, %d", from, to)
	}
	from, to = h.ExtendHook("missing")(5, 6)
	if from != 5 || to != 6 {
		t.Errorf("missing hook should leave the window, got %d, %d", from, to)
	}
	if logs.Len() != 2 {
		t.Errorf("expected 2 warnings, got %d", logs.Len())
	}
}

func TestCallErrors(t *testing.T) {
	h, _ := newTestHost(t, "")

	if err := h.DoString(`answer = 42`); err != nil {
		t.Fatal(err)
	}
	if _, err := h.Call("answer", 1); !errors.Is(err, ErrNotFunction) {
		t.Errorf("expected ErrNotFunction, got %v", err)
	}
	if !h.HasFunction("whole_lines") || h.HasFunction("answer") {
		t.Error("HasFunction mismatch")
	}
	if err := h.DoString(`this is not lua`); err == nil {
		t.Error("expected syntax error")
	}
}

func TestDoFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "folds.lua")
	if err := os.WriteFile(path, []byte(`function always(s, e, spec) return true end`), 0o644); err != nil {
		t.Fatal(err)
	}
	h := New(document.NewBufferFromString("abc"))
	defer h.Close()

	if err := h.DoFile(path); err != nil {
		t.Fatalf("DoFile() error = %v", err)
	}
	if !h.Predicate("always")(document.Range{Start: 0, End: 1}, "x") {
		t.Error("expected predicate from file")
	}
}

func TestClose(t *testing.T) {
	h := New(document.NewBuffer())
	if err := h.Close(); err != nil {
		t.Fatal(err)
	}
	if err := h.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if err := h.DoString(`x = 1`); !errors.Is(err, ErrHostClosed) {
		t.Errorf("expected ErrHostClosed, got %v", err)
	}
	if h.HasFunction("x") {
		t.Error("closed host has no functions")
	}
	var _ fold.FragilePredicate = h.Predicate("x")
}

func TestPredicateUnfoldsThroughEngine(t *testing.T) {
	buf := document.NewBufferFromString("# title\nbody\n")
	view := buf.NewView()
	h := New(buf)
	defer h.Close()
	if err := h.DoString(testScript); err != nil {
		t.Fatal(err)
	}

	e := fold.New(view)
	if err := e.Register("outline", fold.Properties{Fragile: h.Predicate("heading_gone")}); err != nil {
		t.Fatal(err)
	}
	if err := e.Fold(0, 12, "outline"); err != nil {
		t.Fatal(err)
	}
	if _, err := view.Replace(0, 1, "x"); err != nil {
		t.Fatal(err)
	}
	folded, err := e.IsFolded(5, "outline")
	if err != nil {
		t.Fatal(err)
	}
	if folded {
		t.Error("fold should be undone after its heading disappeared")
	}
}
