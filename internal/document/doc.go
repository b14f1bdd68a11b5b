// Package document provides the host document the folding engine works on:
// shared rune-indexed text, attribute runs attached to positions, and
// independent views over the same content.
//
// The package provides:
//
//   - Thread-safe read/write access via sync.RWMutex
//   - Attribute runs keyed by Key, stored in red-black trees for O(log n)
//     boundary queries, shifted automatically by edits
//   - A content modification counter that attribute writes never bump
//   - Views with their own identity and change hooks
//   - Fragments: text copied together with its attribute runs
//
// Basic usage:
//
//	buf := document.NewBufferFromString("Hello, World!")
//	view := buf.NewView()
//	view.OnChange(func(c document.Change) {
//	    // react to the edit
//	})
//
//	view.Insert(7, "Beautiful ") // "Hello, Beautiful World!"
//
// Attribute runs:
//
//	key := document.Key{Namespace: view.ID(), Name: "outline"}
//	buf.AddRun(key, 0, 5)
//	buf.AddRun(key, 5, 9)    // merged into [0, 9)
//	r, ok := buf.RunAt(key, 3) // [0:9), true
//
// Insertion strictly inside a run splits it; the inserted text carries no
// attributes. Deletion clips runs and merges runs left abutting.
//
// Change hooks run after the buffer lock is released, so hooks may call back
// into the buffer.
package document
