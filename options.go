package livestring

import (
	"io"
	"log/slog"
	"os"
)

// DefaultIndent is the indent unit used when none is configured.
const DefaultIndent = "    "

// settings is shared by builders and templates. Builders copy it into every
// sub-template they create, so nested definitions inherit the indent unit,
// the escape function, the diff flag and the logger.
type settings struct {
	indent      string
	escape      func(string) string
	diffMode    bool
	rebindReuse bool
	logger      *slog.Logger
}

func defaultSettings() *settings {
	return &settings{
		indent:      DefaultIndent,
		diffMode:    true,
		rebindReuse: true,
		logger:      slog.Default(),
	}
}

func (s *settings) clone() *settings {
	c := *s
	return &c
}

func (s *settings) escaped(text string) string {
	if s.escape == nil {
		return text
	}
	return s.escape(text)
}

// Option configures a Builder and the templates it produces.
type Option func(*settings)

// WithDefaultIndent sets the indent unit used by Indented.
func WithDefaultIndent(indent string) Option {
	return func(s *settings) {
		s.indent = indent
	}
}

// WithDefaultEscape sets the escape function applied by string renderers.
// nil disables escaping.
func WithDefaultEscape(escape func(string) string) Option {
	return func(s *settings) {
		s.escape = escape
	}
}

// WithDiffMode enables or disables minimal-diff replace events.
func WithDiffMode(enabled bool) Option {
	return func(s *settings) {
		s.diffMode = enabled
	}
}

// WithRebindReuse controls whether a new data context is applied to the
// live instance in place (the default) or by tearing it down and attaching
// a fresh one.
func WithRebindReuse(enabled bool) Option {
	return func(s *settings) {
		s.rebindReuse = enabled
	}
}

// WithLogger sets the logger used for handler failures and lifecycle events.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithConfig applies a parsed Config. Unset fields keep their current value.
// Log output goes to os.Stderr when a log level is configured.
func WithConfig(cfg *Config) Option {
	return withConfigOutput(cfg, os.Stderr)
}

func withConfigOutput(cfg *Config, w io.Writer) Option {
	return func(s *settings) {
		if cfg == nil {
			return
		}
		if cfg.DefaultIndent != nil {
			s.indent = *cfg.DefaultIndent
		}
		if cfg.DefaultEscape != "" {
			// Validated configs never carry an unknown name
			if escape, err := escapeByName(cfg.DefaultEscape); err == nil {
				s.escape = escape
			} else {
				s.logger.Warn("ignoring default escape", "escape", cfg.DefaultEscape, "error", err)
			}
		}
		if cfg.DiffMode != nil {
			s.diffMode = *cfg.DiffMode
		}
		if cfg.RebindReuse != nil {
			s.rebindReuse = *cfg.RebindReuse
		}
		if cfg.LogLevel != "" {
			s.logger = cfg.Logger(w)
		}
	}
}
