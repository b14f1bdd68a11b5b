// Package config loads the configuration of the folding engine.
//
// Configuration files are TOML or YAML, chosen by extension:
//
//	[search]
//	backend = "attributes"   # or "overlays"
//	invisible = false
//
//	[reconcile]
//	fragile_window = 4096
//	extend_hooks = ["widen_to_paragraph"]
//
//	[script]
//	path = "folds.lua"
//	timeout = "100ms"
//
//	[[specs]]
//	name = "outline"
//	ellipsis = "..."
//	search_open = true
//	aliases = ["headline"]
//
//	[[specs]]
//	name = "block"
//	append = true
//	fragile = "block_is_broken"
//
//	[[folds]]
//	spec = "outline"
//	start = 10
//	end = 50
//
// Specs are registered in file order: each spec takes the highest priority
// unless append is set. Unknown keys are rejected.
//
// Environment variables prefixed with FOLDVIEW_ override file settings;
// see Config.ApplyEnv. Watch reloads a file as it changes.
package config
