package fold

import (
	"slices"
	"sync"

	"github.com/dshills/foldlayer/internal/document"
)

// Engine is the folding engine of one view. Engines of views sharing a
// buffer share the Store (and its Registry) and keep separate namespaces.
//
// Engines are meant to be driven from the host's single edit loop.
type Engine struct {
	store    *Store
	registry *Registry
	view     *document.View
	ns       Namespace

	nsOnce sync.Once

	// presentation caches each spec's render policy; updated by registry
	// policy hooks.
	presMu       sync.RWMutex
	presentation map[SpecID]Presentation

	// reconciler state
	lastTick     uint64
	ignoring     int
	extendHooks  []ExtendRegionFunc
	fragileLimit int

	// search
	searchMode      SearchMode
	searchInvisible bool
	reveal          RevealFunc
	external        func(spec SpecID, pos int) bool

	logger  *Logger
	metrics *Metrics
	closed  bool

	// detach removes the engine's buffer and registry hooks on Close.
	detach []func()
}

// New creates the engine of a view, with a fresh Store for the view's buffer.
// The engine reconciles edits made to the buffer automatically.
func New(view *document.View, opts ...Option) *Engine {
	e := &Engine{logger: NewLogger(nil)}
	for _, opt := range opts {
		opt(e)
	}
	if e.registry == nil {
		e.registry = NewRegistry(e.logger)
	}
	e.store = newStore(view.Buffer(), e.registry, e.logger)
	e.attach(view)
	return e
}

// ForView creates the engine of another view over the same buffer. It
// shares the store and registry and inherits this engine's settings; its
// namespace is seeded from the canonical namespace on first use.
func (e *Engine) ForView(view *document.View, opts ...Option) (*Engine, error) {
	if view.Buffer() != e.store.buf {
		return nil, ErrViewMismatch
	}
	o := &Engine{
		store:           e.store,
		registry:        e.registry,
		extendHooks:     slices.Clone(e.extendHooks),
		fragileLimit:    e.fragileLimit,
		searchMode:      e.searchMode,
		searchInvisible: e.searchInvisible,
		reveal:          e.reveal,
		external:        e.external,
		logger:          e.logger,
		metrics:         e.metrics,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.registry = e.registry
	o.attach(view)
	return o, nil
}

func (e *Engine) attach(view *document.View) {
	e.view = view
	e.ns = Namespace(view.ID())
	if e.reveal == nil {
		e.reveal = DefaultReveal
	}
	e.presentation = make(map[SpecID]Presentation)
	for _, id := range e.registry.Specs() {
		if props, err := e.registry.Spec(id); err == nil {
			e.presentation[id] = presentationOf(props)
		}
	}
	e.detach = append(e.detach,
		e.registry.OnPolicyChange(e.updatePresentation),
		e.registry.OnRemove(e.forgetPresentation),
	)

	// Edits through any view shift this namespace's runs too, so the
	// engine follows the buffer rather than its own view.
	e.lastTick = view.Buffer().ModTick()
	e.detach = append(e.detach, view.Buffer().OnChange(func(c document.Change) {
		e.OnDocumentChanged(c.From, c.To)
	}))
	view.OnClose(e.Close)
}

// namespace returns the engine's namespace, creating it on first use.
func (e *Engine) namespace() Namespace {
	e.nsOnce.Do(func() {
		e.store.ensureNamespace(e.ns)
	})
	return e.ns
}

func (e *Engine) updatePresentation(id SpecID, p Presentation) {
	e.presMu.Lock()
	defer e.presMu.Unlock()
	e.presentation[id] = p
}

func (e *Engine) forgetPresentation(id SpecID) {
	e.presMu.Lock()
	defer e.presMu.Unlock()
	delete(e.presentation, id)
}

// Namespace returns the engine's namespace.
func (e *Engine) Namespace() Namespace {
	return e.namespace()
}

// View returns the engine's view.
func (e *Engine) View() *document.View {
	return e.view
}

// Store returns the shared per-document store.
func (e *Engine) Store() *Store {
	return e.store
}

// Registry returns the shared spec registry.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Register defines a spec in the shared registry.
func (e *Engine) Register(id SpecID, props Properties, opts ...RegisterOption) error {
	return e.registry.Register(id, props, opts...)
}

// Unregister reveals every fold of a spec in every view and removes it.
func (e *Engine) Unregister(id SpecID) error {
	return e.registry.Unregister(id)
}

// Property returns one property of a spec.
func (e *Engine) Property(id SpecID, key Property) (any, error) {
	return e.registry.Property(id, key)
}

// SetProperty changes one property of a spec.
func (e *Engine) SetProperty(id SpecID, key Property, value any) error {
	return e.registry.SetProperty(id, key, value)
}

// Close drops the engine's namespace, revealing its folds. The engine must
// not be used afterwards. Closing the view closes the engine.
func (e *Engine) Close() {
	if e.closed {
		return
	}
	e.closed = true
	for _, remove := range e.detach {
		remove()
	}
	e.detach = nil
	e.store.dropNamespace(e.ns)
}
