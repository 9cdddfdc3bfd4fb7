package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func newTestConfig(t *testing.T, opts ...Option) *Config {
	t.Helper()
	opts = append([]Option{WithUserConfigDir(t.TempDir())}, opts...)
	c := New(opts...)
	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return c
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestDefaults(t *testing.T) {
	c := newTestConfig(t)

	if c.File() != "" {
		t.Errorf("File() = %q, want empty", c.File())
	}
	if got := c.Console(); got.Prompt != "> " || got.TabSize != 8 {
		t.Errorf("Console() = %+v, want prompt %q tab size 8", got, "> ")
	}
	if got := c.Eval(); got.Lang != LangQuery || got.Mode != ModePaths || got.Timeout != 2*time.Second {
		t.Errorf("Eval() = %+v", got)
	}
	if got := c.Data(); got.Sample != 128 || got.Watch || got.Debounce != 100*time.Millisecond {
		t.Errorf("Data() = %+v", got)
	}
	if got := c.Format(); got.Depth != 3 || !got.Colors || !got.SortKeys {
		t.Errorf("Format() = %+v", got)
	}
	want := KeysConfig{
		Commit:      []string{"Enter"},
		Cancel:      []string{"Backspace"},
		HistoryPrev: []string{"Up", "Ctrl+P"},
		HistoryNext: []string{"Down", "Ctrl+N"},
	}
	if got := c.Keys(); !reflect.DeepEqual(got, want) {
		t.Errorf("Keys() = %+v, want %+v", got, want)
	}
	if got := c.Log(); got.Level != "info" || got.File != filepath.Join(os.TempDir(), "peek.log") {
		t.Errorf("Log() = %+v", got)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestLoadDefaultFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.toml", `
[eval]
lang = "lua"
timeout = "250ms"

[format.theme]
key = "#ff8800"
`)

	c := newTestConfig(t, WithUserConfigDir(dir))
	if c.File() != path {
		t.Errorf("File() = %q, want %q", c.File(), path)
	}
	ev := c.Eval()
	if ev.Lang != LangLua || ev.Timeout != 250*time.Millisecond {
		t.Errorf("Eval() = %+v, want lua with 250ms", ev)
	}
	if ev.Mode != ModePaths {
		t.Errorf("Mode = %q, want default %q", ev.Mode, ModePaths)
	}
	if got := c.Format().Theme.Key; got != "#ff8800" {
		t.Errorf("Theme.Key = %q, want #ff8800", got)
	}
	if got := c.Source("eval.lang"); got != "file" {
		t.Errorf("Source(eval.lang) = %q, want file", got)
	}
	if got := c.Source("eval.mode"); got != "defaults" {
		t.Errorf("Source(eval.mode) = %q, want defaults", got)
	}
}

func TestLoadNamedYAMLFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "peek.yml", `
console:
  prompt: "peek> "
data:
  path: /tmp/doc.json
  watch: true
  seed: 42
keys:
  commit: Ctrl+J
`)

	c := newTestConfig(t, WithFile(path))
	if got := c.Console().Prompt; got != "peek> " {
		t.Errorf("Prompt = %q, want %q", got, "peek> ")
	}
	data := c.Data()
	if data.Path != "/tmp/doc.json" || !data.Watch || data.Seed != 42 {
		t.Errorf("Data() = %+v", data)
	}
	if got := c.Keys().Commit; !reflect.DeepEqual(got, []string{"Ctrl+J"}) {
		t.Errorf("Commit = %v, want [Ctrl+J]", got)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestLoadNamedFileMissing(t *testing.T) {
	c := New(WithFile(filepath.Join(t.TempDir(), "nope.toml")))
	if err := c.Load(context.Background()); !errors.Is(err, ErrFileNotFound) {
		t.Errorf("Load() = %v, want ErrFileNotFound", err)
	}
}

func TestLoadParseError(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad.toml", "[eval\nlang = 1\n")

	c := New(WithFile(path))
	var perr *ParseError
	if err := c.Load(context.Background()); !errors.As(err, &perr) {
		t.Fatalf("Load() = %v, want *ParseError", err)
	}
	if perr.Path != path {
		t.Errorf("ParseError.Path = %q, want %q", perr.Path, path)
	}
}

func TestLayerPrecedence(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.toml", `
[eval]
lang = "lua"
mode = "value"

[log]
level = "warn"
`)
	t.Setenv("PEEK_LANG", "query")
	t.Setenv("PEEK_LOG_LEVEL", "debug")

	c := newTestConfig(t, WithUserConfigDir(dir))
	if got := c.Eval().Lang; got != LangQuery {
		t.Errorf("Lang = %q, want env value %q", got, LangQuery)
	}
	if got := c.Eval().Mode; got != ModeValue {
		t.Errorf("Mode = %q, want file value %q", got, ModeValue)
	}
	if got := c.Source("log.level"); got != "environment" {
		t.Errorf("Source(log.level) = %q, want environment", got)
	}

	if err := c.Set("log.level", "error"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got := c.Log().Level; got != "error" {
		t.Errorf("Level = %q, want flag value error", got)
	}
	if got := c.Source("log.level"); got != "arguments" {
		t.Errorf("Source(log.level) = %q, want arguments", got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		value    any
		wantPath string
		wantCode ValidationErrorCode
	}{
		{"lang", "eval.lang", "python", "eval.lang", ErrCodeInvalidEnum},
		{"mode", "eval.mode", "tree", "eval.mode", ErrCodeInvalidEnum},
		{"timeout", "eval.timeout", "0s", "eval.timeout", ErrCodeOutOfRange},
		{"sample", "data.sample", 0, "data.sample", ErrCodeOutOfRange},
		{"watch without path", "data.watch", true, "data.watch", ErrCodeInvalidEnum},
		{"width", "format.width", -1, "format.width", ErrCodeOutOfRange},
		{"theme", "format.theme.key", "orange", "format.theme", ErrCodePatternMismatch},
		{"key spec", "keys.commit", []any{"<C-"}, "keys.commit", ErrCodePatternMismatch},
		{"log level", "log.level", "loud", "log.level", ErrCodeInvalidEnum},
		{"type", "format.depth", "deep", "format.depth", ErrCodeTypeMismatch},
		{"bad duration", "eval.timeout", "soon", "eval.timeout", ErrCodeTypeMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestConfig(t)
			if err := c.Set(tt.path, tt.value); err != nil {
				t.Fatalf("Set: %v", err)
			}

			err := c.Validate()
			if !errors.Is(err, ErrValidationFailed) {
				t.Fatalf("Validate() = %v, want ErrValidationFailed", err)
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Validate() = %v, want *ValidationError", err)
			}
			if verr.Path != tt.wantPath || verr.Code != tt.wantCode {
				t.Errorf("ValidationError = %s/%s, want %s/%s", verr.Path, verr.Code, tt.wantPath, tt.wantCode)
			}
		})
	}
}

func TestTypeErrorKeepsDefault(t *testing.T) {
	c := newTestConfig(t)
	_ = c.Set("format.depth", "deep")

	if got := c.Format().Depth; got != 3 {
		t.Errorf("Depth = %d, want default 3", got)
	}
	errs := c.ConfigErrors()
	if !errors.Is(errs["format.depth"], ErrTypeMismatch) {
		t.Errorf("ConfigErrors()[format.depth] = %v, want ErrTypeMismatch", errs["format.depth"])
	}
	c.ClearConfigErrors()
	if c.ConfigErrors() != nil {
		t.Error("ConfigErrors() not cleared")
	}
}

func TestGetDuration(t *testing.T) {
	tests := []struct {
		value   any
		want    time.Duration
		wantErr bool
	}{
		{"1.5s", 1500 * time.Millisecond, false},
		{int64(300), 300 * time.Millisecond, false},
		{750, 750 * time.Millisecond, false},
		{3 * time.Second, 3 * time.Second, false},
		{"never", 0, true},
		{true, 0, true},
	}

	for _, tt := range tests {
		c := New(WithUserConfigDir(t.TempDir()))
		_ = c.Set("eval.timeout", tt.value)
		got, err := c.GetDuration("eval.timeout")
		if (err != nil) != tt.wantErr {
			t.Errorf("GetDuration(%v) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("GetDuration(%v) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestGetStringSlice(t *testing.T) {
	c := New(WithUserConfigDir(t.TempDir()))

	_ = c.Set("keys.cancel", "Escape")
	if got, _ := c.GetStringSlice("keys.cancel"); !reflect.DeepEqual(got, []string{"Escape"}) {
		t.Errorf("single string = %v, want [Escape]", got)
	}

	_ = c.Set("keys.cancel", []any{"Escape", 1})
	if _, err := c.GetStringSlice("keys.cancel"); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("mixed slice error = %v, want ErrTypeMismatch", err)
	}

	if _, err := c.GetStringSlice("keys.none"); !errors.Is(err, ErrSettingNotFound) {
		t.Errorf("missing error = %v, want ErrSettingNotFound", err)
	}
}
