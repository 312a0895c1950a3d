package livestring

import (
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Escape names accepted by Config.DefaultEscape.
const (
	EscapeNone       = "none"
	EscapeHTML       = "html"
	EscapeMinifyHTML = "minify-html"
)

// Config is the declarative form of builder settings, usually embedded in a
// larger application config file.
type Config struct {
	// DefaultIndent is the unit used by indenting renderers
	DefaultIndent *string `yaml:"default_indent,omitempty" validate:"omitempty,max=32"`

	// DefaultEscape names the escape function applied by string renderers
	DefaultEscape string `yaml:"default_escape,omitempty" validate:"omitempty,oneof=none html minify-html"`

	// DiffMode enables minimal-diff replace events
	DiffMode *bool `yaml:"diff_mode,omitempty"`

	// RebindReuse keeps live subscriptions when the data context changes
	RebindReuse *bool `yaml:"rebind_reuse,omitempty"`

	// LogLevel is one of debug, info, warn, error
	LogLevel string `yaml:"log_level,omitempty" validate:"omitempty,oneof=debug info warn error"`
}

var (
	configValidator *validator.Validate
	validatorOnce   sync.Once
)

func getValidator() *validator.Validate {
	validatorOnce.Do(func() {
		configValidator = validator.New()
		// Report yaml keys instead of Go field names
		configValidator.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
	})
	return configValidator
}

// ParseConfig decodes and validates a YAML document.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field values. Failures are reported as a MultiError,
// which matches ErrInvalidConfig with errors.Is.
func (c *Config) Validate() error {
	if err := getValidator().Struct(c); err != nil {
		if fieldErrs := ValidationToMultiError(err); len(fieldErrs) > 0 {
			return fieldErrs
		}
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Marshal encodes the config as YAML.
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

// Level returns the configured log level, Info when unset.
func (c *Config) Level() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Logger builds a text logger writing to w at the configured level.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: c.Level()}))
}

// escapeByName resolves a DefaultEscape value.
func escapeByName(name string) (func(string) string, error) {
	switch name {
	case "", EscapeNone:
		return nil, nil
	case EscapeHTML:
		return HTMLEscape, nil
	case EscapeMinifyHTML:
		return MinifyHTML, nil
	default:
		return nil, fmt.Errorf("%w: unknown escape %q", ErrInvalidConfig, name)
	}
}
