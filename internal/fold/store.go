package fold

import (
	"slices"
	"strings"
	"sync"

	"github.com/dshills/foldlayer/internal/document"
)

// Namespace isolates the fold state of one view. Views sharing a buffer
// each get their own namespace so their fold toggles never mix.
type Namespace string

// Store is the per-document fold state: the buffer whose attribute runs hold
// the folds, the spec registry, and the live namespaces. Every run is
// stored under the key (namespace, spec).
type Store struct {
	mu         sync.Mutex
	buf        *document.Buffer
	registry   *Registry
	namespaces []Namespace
	logger     *Logger
}

func newStore(buf *document.Buffer, registry *Registry, logger *Logger) *Store {
	s := &Store{buf: buf, registry: registry, logger: logger}
	registry.OnRemove(s.forgetSpec)
	return s
}

// Key returns the attribute key of spec in namespace ns.
func Key(ns Namespace, spec SpecID) document.Key {
	return document.Key{Namespace: string(ns), Name: string(spec)}
}

// Buffer returns the document buffer.
func (s *Store) Buffer() *document.Buffer {
	return s.buf
}

// Registry returns the spec registry.
func (s *Store) Registry() *Registry {
	return s.registry
}

// Namespaces returns the live namespaces; the first is canonical.
func (s *Store) Namespaces() []Namespace {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.namespaces)
}

// ensureNamespace creates ns on first use. A namespace created while others
// exist starts as a copy of the canonical namespace's runs.
func (s *Store) ensureNamespace(ns Namespace) {
	s.mu.Lock()
	if slices.Contains(s.namespaces, ns) {
		s.mu.Unlock()
		return
	}
	var canonical Namespace
	if len(s.namespaces) > 0 {
		canonical = s.namespaces[0]
	}
	s.namespaces = append(s.namespaces, ns)
	s.mu.Unlock()

	if canonical != "" {
		for _, spec := range s.registry.Specs() {
			s.buf.CopyKey(Key(canonical, spec), Key(ns, spec))
		}
	}
	s.logger.NamespaceCreated(ns, canonical)
}

// dropNamespace reveals everything folded in ns and forgets it.
func (s *Store) dropNamespace(ns Namespace) {
	s.mu.Lock()
	s.namespaces = slices.DeleteFunc(s.namespaces, func(n Namespace) bool { return n == ns })
	s.mu.Unlock()

	for _, key := range s.buf.Keys() {
		if key.Namespace == string(ns) {
			s.buf.DropKey(key)
		}
	}
}

// forgetSpec reveals every run of spec in every namespace.
func (s *Store) forgetSpec(spec SpecID) {
	for _, ns := range s.Namespaces() {
		s.buf.DropKey(Key(ns, spec))
	}
}

// Owns reports whether key is fold state of one of the store's namespaces,
// including temporary keys derived from them.
func (s *Store) Owns(key document.Key) bool {
	if key.Namespace == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ns := range s.namespaces {
		if key.Namespace == string(ns) || strings.HasPrefix(key.Namespace, string(ns)+"#") {
			return true
		}
	}
	return false
}
