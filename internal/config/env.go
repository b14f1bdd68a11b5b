package config

import (
	"fmt"
	"os"
	"strconv"
)

// EnvPrefix prefixes the environment variables read by ApplyEnv.
const EnvPrefix = "FOLDVIEW_"

// ApplyEnv overrides settings from the process environment:
//
//	FOLDVIEW_SEARCH_BACKEND    search.backend
//	FOLDVIEW_SEARCH_INVISIBLE  search.invisible
//	FOLDVIEW_FRAGILE_WINDOW    reconcile.fragile_window
//	FOLDVIEW_LOG_LEVEL         logging.level
//	FOLDVIEW_SCRIPT            script.path
func (c *Config) ApplyEnv() error {
	return c.applyEnv(os.LookupEnv)
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvPrefix + "SEARCH_BACKEND"); ok {
		c.Search.Backend = v
	}
	if v, ok := lookup(EnvPrefix + "SEARCH_INVISIBLE"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sSEARCH_INVISIBLE: %w", EnvPrefix, err)
		}
		c.Search.Invisible = b
	}
	if v, ok := lookup(EnvPrefix + "FRAGILE_WINDOW"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sFRAGILE_WINDOW: %w", EnvPrefix, err)
		}
		c.Reconcile.FragileWindow = n
	}
	if v, ok := lookup(EnvPrefix + "LOG_LEVEL"); ok {
		c.Logging.Level = v
	}
	if v, ok := lookup(EnvPrefix + "SCRIPT"); ok {
		c.Script.Path = v
	}
	return nil
}
