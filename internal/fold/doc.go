// Package fold implements layered folding: named folding specs hide ranges
// of a document, overlapping specs compose by priority, and folds stay
// coherent while the document is edited and searched.
//
// Folds are attribute runs on the document, keyed by (namespace, spec).
// Every view gets its own namespace, so views over the same buffer never
// see each other's folds. A namespace created while another exists starts
// as a copy of the canonical one.
//
// Basic usage:
//
//	buf := document.NewBufferFromString(text)
//	eng := fold.New(buf.NewView(), fold.WithLogger(logger))
//
//	eng.Register("outline", fold.Properties{Ellipsis: "...", SearchOpen: true})
//	eng.Register("block", fold.Properties{Ellipsis: "[...]"}, fold.AppendPriority())
//
//	eng.Fold(10, 50, "outline")
//	eng.Fold(20, 30, "block")
//	spec, _ := eng.EffectiveSpecAt(25) // "outline"
//	r, _, _ := eng.RegionAt(25, fold.All) // [10:50)
//
// Edits to the buffer are reconciled automatically: folded text reinserted
// into visible text is revealed, sticky folds absorb text typed at their
// edges, and fragile folds are re-validated by their predicate.
//
// Search sessions open folds temporarily and close them again:
//
//	err := eng.WithSearch(func(s *fold.SearchSession) error {
//	    _, found, err := s.FindNext(`TODO\b`, 0)
//	    if found {
//	        s.Accept()
//	    }
//	    return err
//	})
//
// Engines are not safe for concurrent use. Drive them from one edit loop.
package fold
