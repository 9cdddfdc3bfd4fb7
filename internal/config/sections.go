package config

import (
	"errors"
	"time"

	"github.com/dshills/peek/internal/format"
	"github.com/dshills/peek/internal/input/key"
	"github.com/dshills/peek/internal/logging"
)

// Section accessor methods return snapshot structs. Mutating the returned
// struct does not modify the underlying configuration. Use Config.Set()
// to update configuration values.

// Evaluation languages.
const (
	LangQuery = "query"
	LangLua   = "lua"
)

// Query result modes.
const (
	ModePaths = "paths"
	ModeValue = "value"
)

// ConsoleConfig holds the prompt settings.
type ConsoleConfig struct {
	// Prompt is shown before the input line.
	Prompt string

	// TabSize is the tab stop interval used to measure input.
	TabSize int
}

// EvalConfig selects and tunes the evaluator.
type EvalConfig struct {
	// Lang is the evaluator: "query" or "lua".
	Lang string

	// Mode is the query result mode: "paths" or "value".
	Mode string

	// Timeout bounds a single Lua evaluation.
	Timeout time.Duration
}

// DataConfig names the document expressions run against.
type DataConfig struct {
	// Path is a JSON, YAML or TOML file. Empty means a generated sample.
	Path string

	// Sample is the number of files in the generated sample.
	Sample int

	// Seed seeds the sample generator. Zero picks a random seed.
	Seed uint64

	// Watch reloads Path when it changes.
	Watch bool

	// Debounce coalesces bursts of file events.
	Debounce time.Duration
}

// FormatConfig controls how results are rendered.
type FormatConfig struct {
	Depth    int
	Indent   string
	Width    int
	SortKeys bool
	Colors   bool
	Theme    format.Theme
}

// Options converts the section into formatter options.
func (f FormatConfig) Options() format.Options {
	return format.Options{
		Depth:    f.Depth,
		Indent:   f.Indent,
		Width:    f.Width,
		SortKeys: f.SortKeys,
		Colors:   f.Colors,
		Theme:    f.Theme,
	}
}

// KeysConfig lists the key specifications bound to each preview action.
type KeysConfig struct {
	Commit      []string
	Cancel      []string
	HistoryPrev []string
	HistoryNext []string
}

// LogConfig controls the log file.
type LogConfig struct {
	// Level is the minimum level written.
	Level string

	// File receives log lines. "-" is stderr; empty discards.
	File string
}

// Console returns the console settings.
func (c *Config) Console() ConsoleConfig {
	return ConsoleConfig{
		Prompt:  c.getStringOr("console.prompt", "> "),
		TabSize: c.getIntOr("console.tab_size", 8),
	}
}

// Eval returns the evaluator settings.
func (c *Config) Eval() EvalConfig {
	return EvalConfig{
		Lang:    c.getStringOr("eval.lang", LangQuery),
		Mode:    c.getStringOr("eval.mode", ModePaths),
		Timeout: c.getDurationOr("eval.timeout", 2*time.Second),
	}
}

// Data returns the document settings.
func (c *Config) Data() DataConfig {
	return DataConfig{
		Path:     c.getStringOr("data.path", ""),
		Sample:   c.getIntOr("data.sample", 128),
		Seed:     c.getUint64Or("data.seed", 0),
		Watch:    c.getBoolOr("data.watch", false),
		Debounce: c.getDurationOr("data.debounce", 100*time.Millisecond),
	}
}

// Format returns the formatter settings.
func (c *Config) Format() FormatConfig {
	return FormatConfig{
		Depth:    c.getIntOr("format.depth", format.DefaultDepth),
		Indent:   c.getStringOr("format.indent", "  "),
		Width:    c.getIntOr("format.width", 80),
		SortKeys: c.getBoolOr("format.sort_keys", true),
		Colors:   c.getBoolOr("format.colors", true),
		Theme: format.Theme{
			Key:    c.getStringOr("format.theme.key", ""),
			String: c.getStringOr("format.theme.string", ""),
			Number: c.getStringOr("format.theme.number", ""),
			True:   c.getStringOr("format.theme.true", ""),
			False:  c.getStringOr("format.theme.false", ""),
			Null:   c.getStringOr("format.theme.null", ""),
		},
	}
}

// Keys returns the key bindings.
func (c *Config) Keys() KeysConfig {
	return KeysConfig{
		Commit:      c.getStringSliceOr("keys.commit", nil),
		Cancel:      c.getStringSliceOr("keys.cancel", nil),
		HistoryPrev: c.getStringSliceOr("keys.history_prev", nil),
		HistoryNext: c.getStringSliceOr("keys.history_next", nil),
	}
}

// Log returns the logging settings.
func (c *Config) Log() LogConfig {
	return LogConfig{
		Level: c.getStringOr("log.level", "info"),
		File:  c.getStringOr("log.file", ""),
	}
}

// Validate checks every section and returns all problems joined. Type
// problems recorded by the accessors are included.
func (c *Config) Validate() error {
	var errs []error
	invalid := func(path, msg string, value any, code ValidationErrorCode) {
		errs = append(errs, &ValidationError{Path: path, Message: msg, Value: value, Code: code})
	}

	c.ClearConfigErrors()

	con := c.Console()
	if con.TabSize <= 0 {
		invalid("console.tab_size", "must be positive", con.TabSize, ErrCodeOutOfRange)
	}

	ev := c.Eval()
	if ev.Lang != LangQuery && ev.Lang != LangLua {
		invalid("eval.lang", `must be "query" or "lua"`, ev.Lang, ErrCodeInvalidEnum)
	}
	if ev.Mode != ModePaths && ev.Mode != ModeValue {
		invalid("eval.mode", `must be "paths" or "value"`, ev.Mode, ErrCodeInvalidEnum)
	}
	if ev.Timeout <= 0 {
		invalid("eval.timeout", "must be positive", ev.Timeout, ErrCodeOutOfRange)
	}

	data := c.Data()
	if data.Sample <= 0 {
		invalid("data.sample", "must be positive", data.Sample, ErrCodeOutOfRange)
	}
	if data.Debounce < 0 {
		invalid("data.debounce", "must not be negative", data.Debounce, ErrCodeOutOfRange)
	}
	if data.Watch && data.Path == "" {
		invalid("data.watch", "needs data.path", data.Watch, ErrCodeInvalidEnum)
	}

	f := c.Format()
	if f.Width <= 0 {
		invalid("format.width", "must be positive", f.Width, ErrCodeOutOfRange)
	}
	if _, err := f.Theme.Style(); err != nil {
		invalid("format.theme", err.Error(), f.Theme, ErrCodePatternMismatch)
	}

	keys := c.Keys()
	for _, binding := range []struct {
		path  string
		specs []string
	}{
		{"keys.commit", keys.Commit},
		{"keys.cancel", keys.Cancel},
		{"keys.history_prev", keys.HistoryPrev},
		{"keys.history_next", keys.HistoryNext},
	} {
		for _, spec := range binding.specs {
			if _, err := key.Parse(spec); err != nil {
				invalid(binding.path, err.Error(), spec, ErrCodePatternMismatch)
			}
		}
	}

	if lc := c.Log(); !logging.ValidLevel(lc.Level) {
		invalid("log.level", "unknown level", lc.Level, ErrCodeInvalidEnum)
	}

	for path, err := range c.ConfigErrors() {
		invalid(path, err.Error(), nil, ErrCodeTypeMismatch)
	}
	return errors.Join(errs...)
}

// These methods only return the default for ErrSettingNotFound.
// Type errors are recorded and return the default to avoid breaking
// callers; Validate reports them.

func (c *Config) getStringOr(path string, defaultValue string) string {
	v, err := c.GetString(path)
	if err != nil {
		if !errors.Is(err, ErrSettingNotFound) {
			c.recordConfigError(path, err)
		}
		return defaultValue
	}
	return v
}

func (c *Config) getIntOr(path string, defaultValue int) int {
	v, err := c.GetInt(path)
	if err != nil {
		if !errors.Is(err, ErrSettingNotFound) {
			c.recordConfigError(path, err)
		}
		return defaultValue
	}
	return v
}

func (c *Config) getUint64Or(path string, defaultValue uint64) uint64 {
	v, err := c.GetUint64(path)
	if err != nil {
		if !errors.Is(err, ErrSettingNotFound) {
			c.recordConfigError(path, err)
		}
		return defaultValue
	}
	return v
}

func (c *Config) getBoolOr(path string, defaultValue bool) bool {
	v, err := c.GetBool(path)
	if err != nil {
		if !errors.Is(err, ErrSettingNotFound) {
			c.recordConfigError(path, err)
		}
		return defaultValue
	}
	return v
}

func (c *Config) getDurationOr(path string, defaultValue time.Duration) time.Duration {
	v, err := c.GetDuration(path)
	if err != nil {
		if !errors.Is(err, ErrSettingNotFound) {
			c.recordConfigError(path, err)
		}
		return defaultValue
	}
	return v
}

func (c *Config) getStringSliceOr(path string, defaultValue []string) []string {
	v, err := c.GetStringSlice(path)
	if err != nil {
		if !errors.Is(err, ErrSettingNotFound) {
			c.recordConfigError(path, err)
		}
		return append([]string(nil), defaultValue...)
	}
	return v
}

// recordConfigError stores the first error seen for each path.
func (c *Config) recordConfigError(path string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.configErrors == nil {
		c.configErrors = make(map[string]error)
	}
	if _, exists := c.configErrors[path]; !exists {
		c.configErrors[path] = err
	}
}

// ConfigErrors returns the type errors found while reading sections.
func (c *Config) ConfigErrors() map[string]error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.configErrors == nil {
		return nil
	}
	result := make(map[string]error, len(c.configErrors))
	for k, v := range c.configErrors {
		result[k] = v
	}
	return result
}

// ClearConfigErrors clears any stored configuration errors.
func (c *Config) ClearConfigErrors() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.configErrors = nil
}
