package controller

import (
	"log"
)

// Config carries the per-action defaults. The zero value works out of the
// box; missing fields are filled in when the action seals.
type Config struct {
	// DefaultFormat is the response format used when nothing was set
	// explicitly and the Accept header matched nothing. Defaults to "html".
	DefaultFormat string

	// DefaultCharset is appended to the negotiated content type. Defaults
	// to "utf-8".
	DefaultCharset string

	// DefaultHeaders are stamped on the response before the before chain
	// runs, so any callback may override them.
	DefaultHeaders map[string]string

	// PublicDir is the sandbox root for Context.SendFile. Empty leaves
	// SendFile unusable (it panics with a *ConfigError when called).
	PublicDir string

	// PropagateErrors switches error handling off for the whole action:
	// every failure escapes Call as-is, registered handlers included.
	PropagateErrors bool

	// Logger receives finalization warnings, e.g. a session store failing
	// to commit. Defaults to log.Default().
	Logger *log.Logger
}

func (c Config) normalized() Config {
	if c.DefaultFormat == "" {
		c.DefaultFormat = "html"
	}
	if c.DefaultCharset == "" {
		c.DefaultCharset = "utf-8"
	}
	if c.Logger == nil {
		c.Logger = log.Default()
	}
	return c
}
