package script

import (
	"context"
	"fmt"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/dshills/foldlayer/internal/document"
	"github.com/dshills/foldlayer/internal/fold"
)

// DefaultTimeout bounds one script call.
const DefaultTimeout = 100 * time.Millisecond

// Host runs a Lua script against a buffer.
//
// gopher-lua's LState is not goroutine-safe; the mutex serializes every call
// into the state.
type Host struct {
	mu      sync.Mutex
	L       *lua.LState
	buf     *document.Buffer
	timeout time.Duration
	logger  *zap.Logger
	closed  bool
}

// Option configures a Host.
type Option func(*Host)

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(h *Host) {
		if d > 0 {
			h.timeout = d
		}
	}
}

// WithLogger sets the logger for failed calls.
func WithLogger(logger *zap.Logger) Option {
	return func(h *Host) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// New creates a sandboxed host reading buf.
func New(buf *document.Buffer, opts ...Option) *Host {
	h := &Host{
		buf:     buf,
		timeout: DefaultTimeout,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}

	h.L = lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibraries(h.L)
	h.installDocModule()
	return h
}

// openSafeLibraries opens the libraries a script may use. io, os, debug and
// package stay closed.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require"} {
		L.SetGlobal(name, lua.LNil)
	}
}

func (h *Host) installDocModule() {
	mod := h.L.SetFuncs(h.L.NewTable(), map[string]lua.LGFunction{
		"len": func(L *lua.LState) int {
			L.Push(lua.LNumber(h.buf.Len()))
			return 1
		},
		"text": func(L *lua.LState) int {
			start := L.CheckInt(1)
			end := L.CheckInt(2)
			L.Push(lua.LString(h.buf.TextRange(start, end)))
			return 1
		},
	})
	h.L.SetGlobal("doc", mod)
}

// DoFile runs a script file.
func (h *Host) DoFile(path string) error {
	return h.do(func(L *lua.LState) error { return L.DoFile(path) })
}

// DoString runs script source.
func (h *Host) DoString(code string) error {
	return h.do(func(L *lua.LState) error { return L.DoString(code) })
}

func (h *Host) do(fn func(*lua.LState) error) (err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrHostClosed
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()
	h.L.SetContext(ctx)
	defer h.L.RemoveContext()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	return fn(h.L)
}

// HasFunction reports whether the script defines a global function name.
func (h *Host) HasFunction(name string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return false
	}
	return h.L.GetGlobal(name).Type() == lua.LTFunction
}

// Call calls the global function name and returns nret results.
func (h *Host) Call(name string, nret int, args ...lua.LValue) ([]lua.LValue, error) {
	var results []lua.LValue
	err := h.do(func(L *lua.LState) error {
		fn := L.GetGlobal(name)
		if fn.Type() != lua.LTFunction {
			return fmt.Errorf("%w: %q", ErrNotFunction, name)
		}
		if err := L.CallByParam(lua.P{Fn: fn, NRet: nret, Protect: true}, args...); err != nil {
			return err
		}
		results = make([]lua.LValue, nret)
		for i := 0; i < nret; i++ {
			results[i] = L.Get(i - nret)
		}
		L.Pop(nret)
		return nil
	})
	return results, err
}

// Predicate adapts the script function name to a fragile predicate. The
// function is called as name(start, end, spec); a truthy result unfolds the
// fold. Errors count as "still valid".
func (h *Host) Predicate(name string) fold.FragilePredicate {
	return func(r document.Range, spec fold.SpecID) bool {
		res, err := h.Call(name, 1, lua.LNumber(r.Start), lua.LNumber(r.End), lua.LString(spec))
		if err != nil {
			h.logger.Warn("fragile predicate failed",
				zap.String("function", name),
				zap.String("spec", string(spec)),
				zap.Error(err),
			)
			return false
		}
		return lua.LVAsBool(res[0])
	}
}

// ExtendHook adapts the script function name to an extend-region hook. The
// function is called as name(from, to) and returns the new window. Errors
// and non-numeric results leave the window unchanged.
func (h *Host) ExtendHook(name string) fold.ExtendRegionFunc {
	return func(from, to int) (int, int) {
		res, err := h.Call(name, 2, lua.LNumber(from), lua.LNumber(to))
		if err != nil {
			h.logger.Warn("extend hook failed", zap.String("function", name), zap.Error(err))
			return from, to
		}
		newFrom, ok1 := res[0].(lua.LNumber)
		newTo, ok2 := res[1].(lua.LNumber)
		if !ok1 || !ok2 {
			h.logger.Warn("extend hook returned non-numbers",
				zap.String("function", name),
				zap.Stringer("from", res[0]),
				zap.Stringer("to", res[1]),
			)
			return from, to
		}
		return int(newFrom), int(newTo)
	}
}

// Close releases the Lua state. It is safe to call more than once.
func (h *Host) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.L.Close()
	h.closed = true
	return nil
}
