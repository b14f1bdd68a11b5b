// Package script hosts the Lua collaborator script of a folding engine.
//
// A script defines global functions that the configuration names as fragile
// predicates and extend-region hooks. Scripts run in a sandboxed state with
// only the base, table, string and math libraries, and read the buffer
// through the doc module:
//
//	doc.len()          -- buffer length in characters
//	doc.text(s, e)     -- text of [s, e), clamped to the buffer
//
// A fragile predicate receives the fold's start, end and spec name and
// returns true when the fold no longer makes sense:
//
//	function heading_gone(s, e, spec)
//	  return doc.text(s, s + 1) ~= "#"
//	end
//
// An extend hook receives the edited window and returns a wider one:
//
//	function whole_lines(from, to)
//	  while from > 0 and doc.text(from - 1, from) ~= "\n" do from = from - 1 end
//	  return from, to
//	end
//
// Every call is bounded by the host's timeout. A failing or timed out call
// is logged and treated as "not fragile" or "no change".
package script
