package fold

import (
	"fmt"
	"slices"
	"sync"
)

// Registry owns the folding specs of a document and their priority order.
// Index 0 of the order is the highest priority.
type Registry struct {
	mu      sync.RWMutex
	order   []SpecID
	specs   map[SpecID]*Properties
	aliases map[SpecID]SpecID

	policyHooks []*policyHook
	removeHooks []*removeHook

	logger *Logger
}

// RegisterOption configures Register.
type RegisterOption func(*registerConfig)

type registerConfig struct {
	append bool
}

// AppendPriority registers a new spec at the lowest priority instead of the
// highest.
func AppendPriority() RegisterOption {
	return func(c *registerConfig) {
		c.append = true
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *Logger) *Registry {
	return &Registry{
		specs:   make(map[SpecID]*Properties),
		aliases: make(map[SpecID]SpecID),
		logger:  logger,
	}
}

// Register defines a spec. Re-registering an existing id replaces its
// properties and keeps its priority.
func (r *Registry) Register(id SpecID, props Properties, opts ...RegisterOption) error {
	if id == "" || id == All {
		return &SpecError{Op: "register", Spec: id, Err: ErrInvalidSpec}
	}
	var cfg registerConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	r.mu.Lock()
	if owner, ok := r.aliases[id]; ok && owner != id {
		r.mu.Unlock()
		return &SpecError{Op: "register", Spec: id, Err: fmt.Errorf("%w: already an alias of %q", ErrInvalidSpec, owner)}
	}
	for _, alias := range props.Aliases {
		if err := r.checkAliasLocked(id, alias); err != nil {
			r.mu.Unlock()
			return err
		}
	}

	if _, exists := r.specs[id]; !exists {
		if cfg.append {
			r.order = append(r.order, id)
		} else {
			r.order = slices.Insert(r.order, 0, id)
		}
	}
	r.setAliasesLocked(id, props.Aliases)
	stored := props.clone()
	r.specs[id] = &stored
	priority := slices.Index(r.order, id)
	hooks := slices.Clone(r.policyHooks)
	r.mu.Unlock()

	r.logger.SpecRegistered(id, priority)
	for _, h := range hooks {
		h.fn(id, presentationOf(props))
	}
	return nil
}

func (r *Registry) checkAliasLocked(id, alias SpecID) error {
	if alias == "" || alias == All {
		return &SpecError{Op: "register", Spec: id, Err: fmt.Errorf("%w: bad alias %q", ErrInvalidSpec, alias)}
	}
	if _, isSpec := r.specs[alias]; isSpec && alias != id {
		return &SpecError{Op: "register", Spec: id, Err: fmt.Errorf("%w: alias %q names another spec", ErrInvalidSpec, alias)}
	}
	if owner, ok := r.aliases[alias]; ok && owner != id {
		return &SpecError{Op: "register", Spec: id, Err: fmt.Errorf("%w: alias %q belongs to %q", ErrInvalidSpec, alias, owner)}
	}
	return nil
}

func (r *Registry) setAliasesLocked(id SpecID, aliases []SpecID) {
	for alias, owner := range r.aliases {
		if owner == id {
			delete(r.aliases, alias)
		}
	}
	for _, alias := range aliases {
		r.aliases[alias] = id
	}
}

// Unregister removes a spec. Remove hooks run first so every fold of the
// spec is revealed before its metadata is discarded.
func (r *Registry) Unregister(name SpecID) error {
	id, err := r.Resolve(name)
	if err != nil {
		return err
	}

	r.mu.RLock()
	hooks := slices.Clone(r.removeHooks)
	r.mu.RUnlock()
	for _, h := range hooks {
		h.fn(id)
	}

	r.mu.Lock()
	delete(r.specs, id)
	r.setAliasesLocked(id, nil)
	r.order = slices.DeleteFunc(r.order, func(s SpecID) bool { return s == id })
	r.mu.Unlock()

	r.logger.SpecUnregistered(id)
	return nil
}

// Resolve maps a spec id or alias to the canonical id.
func (r *Registry) Resolve(name SpecID) (SpecID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.resolveLocked(name)
}

func (r *Registry) resolveLocked(name SpecID) (SpecID, error) {
	if _, ok := r.specs[name]; ok {
		return name, nil
	}
	if id, ok := r.aliases[name]; ok {
		return id, nil
	}
	return "", &SpecError{Op: "resolve", Spec: name, Err: ErrInvalidSpec}
}

// Has reports whether name resolves to a registered spec.
func (r *Registry) Has(name SpecID) bool {
	_, err := r.Resolve(name)
	return err == nil
}

// Spec returns a copy of the spec's properties.
func (r *Registry) Spec(name SpecID) (Properties, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, err := r.resolveLocked(name)
	if err != nil {
		return Properties{}, err
	}
	return r.specs[id].clone(), nil
}

// Specs returns the registered spec ids in priority order.
func (r *Registry) Specs() []SpecID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.order)
}

// Priority returns the spec's position in the priority order.
func (r *Registry) Priority(name SpecID) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, err := r.resolveLocked(name)
	if err != nil {
		return 0, err
	}
	return slices.Index(r.order, id), nil
}

// Move places the spec at index in the priority order. Out of range
// indexes are clamped.
func (r *Registry) Move(name SpecID, index int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, err := r.resolveLocked(name)
	if err != nil {
		return err
	}
	r.order = slices.DeleteFunc(r.order, func(s SpecID) bool { return s == id })
	index = min(max(index, 0), len(r.order))
	r.order = slices.Insert(r.order, index, id)
	return nil
}

// Property returns one property of a spec.
func (r *Registry) Property(name SpecID, key Property) (any, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, err := r.resolveLocked(name)
	if err != nil {
		return nil, err
	}
	return r.specs[id].get(key)
}

// SetProperty changes one property of a spec in place. Changing the
// ellipsis, managed or visible keys updates the presentation policy of
// every engine sharing the registry.
func (r *Registry) SetProperty(name SpecID, key Property, value any) error {
	return r.update(name, key.affectsPresentation(), func(p *Properties, id SpecID) error {
		if key == PropAliases {
			next := *p
			if err := next.set(key, value); err != nil {
				return err
			}
			for _, alias := range next.Aliases {
				if err := r.checkAliasLocked(id, alias); err != nil {
					return err
				}
			}
			r.setAliasesLocked(id, next.Aliases)
		}
		return p.set(key, value)
	})
}

// Update applies fn to the spec's properties. Aliases cannot be changed
// through Update; use SetProperty with PropAliases.
func (r *Registry) Update(name SpecID, fn func(*Properties)) error {
	return r.update(name, true, func(p *Properties, _ SpecID) error {
		aliases := p.Aliases
		fn(p)
		p.Aliases = aliases
		return nil
	})
}

func (r *Registry) update(name SpecID, notify bool, fn func(*Properties, SpecID) error) error {
	r.mu.Lock()
	id, err := r.resolveLocked(name)
	if err != nil {
		r.mu.Unlock()
		return err
	}
	props := r.specs[id]
	if err := fn(props, id); err != nil {
		r.mu.Unlock()
		return &SpecError{Op: "set property", Spec: id, Err: err}
	}
	presentation := presentationOf(*props)
	var hooks []*policyHook
	if notify {
		hooks = slices.Clone(r.policyHooks)
	}
	r.mu.Unlock()

	for _, h := range hooks {
		h.fn(id, presentation)
	}
	return nil
}

type policyHook struct {
	fn func(SpecID, Presentation)
}

type removeHook struct {
	fn func(SpecID)
}

// OnPolicyChange registers a hook called when a spec's presentation may
// have changed. The returned function removes the hook.
func (r *Registry) OnPolicyChange(fn func(SpecID, Presentation)) (remove func()) {
	h := &policyHook{fn: fn}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.policyHooks = append(r.policyHooks, h)
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.policyHooks = slices.DeleteFunc(r.policyHooks, func(o *policyHook) bool { return o == h })
	}
}

// OnRemove registers a hook called before a spec is removed. The returned
// function removes the hook.
func (r *Registry) OnRemove(fn func(SpecID)) (remove func()) {
	h := &removeHook{fn: fn}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeHooks = append(r.removeHooks, h)
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.removeHooks = slices.DeleteFunc(r.removeHooks, func(o *removeHook) bool { return o == h })
	}
}
