package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/dshills/peek/internal/config/layer"
	"github.com/dshills/peek/internal/config/loader"
)

// DefaultFileNames are tried in order in the user config directory when
// no file is named.
var DefaultFileNames = []string{"config.toml", "config.yaml", "config.yml"}

// Config provides layered access to peek's settings.
type Config struct {
	mu sync.RWMutex

	layers *layer.Manager
	fs     loader.FileSystem

	file      string
	userDir   string
	envPrefix string
	loaded    string

	// configErrors holds type problems found by the section accessors.
	configErrors map[string]error
}

// Option configures a Config instance.
type Option func(*Config)

// WithFile names the config file. Unlike the default file, a named file
// must exist.
func WithFile(path string) Option {
	return func(c *Config) {
		c.file = path
	}
}

// WithUserConfigDir sets the directory searched for the default file.
func WithUserConfigDir(dir string) Option {
	return func(c *Config) {
		c.userDir = dir
	}
}

// WithEnvPrefix sets the environment variable prefix.
func WithEnvPrefix(prefix string) Option {
	return func(c *Config) {
		c.envPrefix = prefix
	}
}

// WithFS sets the file system config files are read from.
func WithFS(fsys loader.FileSystem) Option {
	return func(c *Config) {
		c.fs = fsys
	}
}

// New creates a Config holding only the built-in defaults. Call Load to
// read the file and environment layers.
func New(opts ...Option) *Config {
	c := &Config{
		layers:    layer.NewManager(),
		fs:        loader.DefaultFS(),
		envPrefix: loader.DefaultEnvPrefix,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.userDir == "" {
		c.userDir = defaultUserConfigDir()
	}

	c.layers.AddLayer(layer.New(layer.SourceBuiltin, defaultConfig()))
	c.layers.AddLayer(layer.New(layer.SourceArgs, nil))
	return c
}

// Load reads the config file and the environment.
func (c *Config) Load(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.loadFile(); err != nil {
		return err
	}
	return c.loadEnvironment()
}

// File returns the config file that was loaded, or "".
func (c *Config) File() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

func (c *Config) loadFile() error {
	path := c.file
	if path == "" {
		for _, name := range DefaultFileNames {
			candidate := filepath.Join(c.userDir, name)
			if _, err := c.fs.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
		if path == "" {
			return nil
		}
	} else if _, err := c.fs.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return fmt.Errorf("reading config file %s: %w", path, err)
	}

	l, err := loader.ForPath(c.fs, path)
	if err != nil {
		return err
	}
	data, err := l.Load()
	if err != nil {
		return err
	}

	fileLayer := layer.New(layer.SourceFile, data)
	fileLayer.Path = path
	c.layers.AddLayer(fileLayer)
	c.loaded = path
	return nil
}

func (c *Config) loadEnvironment() error {
	data, err := loader.NewEnvLoader(c.envPrefix).Load()
	if err != nil {
		return err
	}
	if len(data) > 0 {
		c.layers.AddLayer(layer.New(layer.SourceEnv, data))
	}
	return nil
}

// Get returns the effective value at path.
func (c *Config) Get(path string) (any, bool) {
	return c.layers.Get(path)
}

// Set overrides the value at path. Command-line flags land here.
func (c *Config) Set(path string, value any) error {
	if path == "" {
		return ErrInvalidPath
	}
	return c.layers.Set(layer.SourceArgs.String(), path, value)
}

// Source returns the name of the layer that supplies path.
func (c *Config) Source(path string) string {
	return c.layers.WhichLayer(path)
}

// Merged returns the fully merged configuration.
func (c *Config) Merged() map[string]any {
	return c.layers.Merge()
}

// GetString returns a string value at the given path.
func (c *Config) GetString(path string) (string, error) {
	v, ok := c.Get(path)
	if !ok {
		return "", ErrSettingNotFound
	}
	s, ok := v.(string)
	if !ok {
		return "", &TypeError{Path: path, Expected: "string", Actual: typeName(v)}
	}
	return s, nil
}

// GetInt returns an integer value at the given path.
func (c *Config) GetInt(path string) (int, error) {
	v, ok := c.Get(path)
	if !ok {
		return 0, ErrSettingNotFound
	}
	switch val := v.(type) {
	case int:
		return val, nil
	case int64:
		return int(val), nil
	case uint64:
		return int(val), nil
	case float64:
		if val != float64(int(val)) {
			return 0, &TypeError{Path: path, Expected: "int", Actual: "float64"}
		}
		return int(val), nil
	default:
		return 0, &TypeError{Path: path, Expected: "int", Actual: typeName(v)}
	}
}

// GetUint64 returns an unsigned integer value at the given path.
func (c *Config) GetUint64(path string) (uint64, error) {
	v, ok := c.Get(path)
	if !ok {
		return 0, ErrSettingNotFound
	}
	switch val := v.(type) {
	case uint64:
		return val, nil
	case int:
		if val >= 0 {
			return uint64(val), nil
		}
	case int64:
		if val >= 0 {
			return uint64(val), nil
		}
	case string:
		if u, err := strconv.ParseUint(val, 10, 64); err == nil {
			return u, nil
		}
	}
	return 0, &TypeError{Path: path, Expected: "uint64", Actual: typeName(v)}
}

// GetBool returns a boolean value at the given path.
func (c *Config) GetBool(path string) (bool, error) {
	v, ok := c.Get(path)
	if !ok {
		return false, ErrSettingNotFound
	}
	b, ok := v.(bool)
	if !ok {
		return false, &TypeError{Path: path, Expected: "bool", Actual: typeName(v)}
	}
	return b, nil
}

// GetDuration returns a duration at the given path. Strings are parsed
// with time.ParseDuration; bare integers are milliseconds.
func (c *Config) GetDuration(path string) (time.Duration, error) {
	v, ok := c.Get(path)
	if !ok {
		return 0, ErrSettingNotFound
	}
	switch val := v.(type) {
	case time.Duration:
		return val, nil
	case string:
		d, err := time.ParseDuration(val)
		if err != nil {
			return 0, &TypeError{Path: path, Expected: "duration", Actual: strconv.Quote(val)}
		}
		return d, nil
	case int:
		return time.Duration(val) * time.Millisecond, nil
	case int64:
		return time.Duration(val) * time.Millisecond, nil
	default:
		return 0, &TypeError{Path: path, Expected: "duration", Actual: typeName(v)}
	}
}

// GetStringSlice returns a string slice at the given path. A single
// string is a one-element slice.
func (c *Config) GetStringSlice(path string) ([]string, error) {
	v, ok := c.Get(path)
	if !ok {
		return nil, ErrSettingNotFound
	}

	switch val := v.(type) {
	case string:
		return []string{val}, nil
	case []string:
		return append([]string(nil), val...), nil
	case []any:
		result := make([]string, len(val))
		for i, item := range val {
			s, ok := item.(string)
			if !ok {
				return nil, &TypeError{Path: path, Expected: "[]string", Actual: typeName(v)}
			}
			result[i] = s
		}
		return result, nil
	default:
		return nil, &TypeError{Path: path, Expected: "[]string", Actual: typeName(v)}
	}
}

// defaultUserConfigDir returns the default user configuration directory.
func defaultUserConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "peek")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "peek")
}

// defaultConfig returns the default configuration values.
func defaultConfig() map[string]any {
	return map[string]any{
		"console": map[string]any{
			"prompt":   "> ",
			"tab_size": 8,
		},
		"eval": map[string]any{
			"lang":    "query",
			"mode":    "paths",
			"timeout": "2s",
		},
		"data": map[string]any{
			"path":     "",
			"sample":   128,
			"seed":     0,
			"watch":    false,
			"debounce": "100ms",
		},
		"format": map[string]any{
			"depth":     3,
			"indent":    "  ",
			"width":     80,
			"sort_keys": true,
			"colors":    true,
		},
		"keys": map[string]any{
			"commit":       []any{"Enter"},
			"cancel":       []any{"Backspace"},
			"history_prev": []any{"Up", "Ctrl+P"},
			"history_next": []any{"Down", "Ctrl+N"},
		},
		"log": map[string]any{
			"level": "info",
			"file":  filepath.Join(os.TempDir(), "peek.log"),
		},
	}
}

// typeName returns the type name for error messages.
func typeName(v any) string {
	if v == nil {
		return "nil"
	}
	switch v.(type) {
	case string:
		return "string"
	case int, int64, uint64:
		return "int"
	case float64:
		return "float64"
	case bool:
		return "bool"
	case []string:
		return "[]string"
	case []any:
		return "[]any"
	case map[string]any:
		return "map"
	default:
		return fmt.Sprintf("%T", v)
	}
}
