package loader

import (
	"errors"
	"io/fs"
	"reflect"
	"strings"
	"testing"
	"time"
)

// MemFS is an in-memory file system for testing.
type MemFS struct {
	files map[string][]byte
}

func NewMemFS() *MemFS {
	return &MemFS{files: make(map[string][]byte)}
}

func (m *MemFS) AddFile(path string, content string) {
	m.files[path] = []byte(content)
}

func (m *MemFS) ReadFile(path string) ([]byte, error) {
	data, ok := m.files[path]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return data, nil
}

func (m *MemFS) Stat(path string) (fs.FileInfo, error) {
	if _, ok := m.files[path]; ok {
		return &memFileInfo{name: path}, nil
	}
	return nil, fs.ErrNotExist
}

type memFileInfo struct {
	name string
}

func (f *memFileInfo) Name() string       { return f.name }
func (f *memFileInfo) Size() int64        { return 0 }
func (f *memFileInfo) Mode() fs.FileMode  { return 0644 }
func (f *memFileInfo) ModTime() time.Time { return time.Now() }
func (f *memFileInfo) IsDir() bool        { return false }
func (f *memFileInfo) Sys() any           { return nil }

func TestTOMLLoader_Load(t *testing.T) {
	memfs := NewMemFS()
	memfs.AddFile("/peek.toml", `
[console]
prompt = "$ "

[eval]
lang = "lua"
timeout = "500ms"

[keys]
commit = ["Enter", "Ctrl+J"]
`)

	config, err := NewTOMLLoaderWithFS(memfs, "/peek.toml").Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	console, ok := config["console"].(map[string]any)
	if !ok {
		t.Fatal("expected console to be a map")
	}
	if console["prompt"] != "$ " {
		t.Errorf("prompt = %v, want %q", console["prompt"], "$ ")
	}
	keys := config["keys"].(map[string]any)
	if want := []any{"Enter", "Ctrl+J"}; !reflect.DeepEqual(keys["commit"], want) {
		t.Errorf("commit = %v, want %v", keys["commit"], want)
	}
}

func TestTOMLLoader_Missing(t *testing.T) {
	config, err := NewTOMLLoaderWithFS(NewMemFS(), "/nope.toml").Load()
	if err != nil || config != nil {
		t.Errorf("Load() = %v, %v, want nil, nil", config, err)
	}
}

func TestTOMLLoader_ParseError(t *testing.T) {
	memfs := NewMemFS()
	memfs.AddFile("/bad.toml", "[eval]\nlang = \n")

	_, err := NewTOMLLoaderWithFS(memfs, "/bad.toml").Load()
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("err = %v, want *ParseError", err)
	}
	if perr.Path != "/bad.toml" || perr.Line != 2 {
		t.Errorf("ParseError at %s line %d, want /bad.toml line 2", perr.Path, perr.Line)
	}
	if !strings.Contains(perr.Error(), "line 2") {
		t.Errorf("Error() = %q, want it to name line 2", perr.Error())
	}
}

func TestTOMLLoader_Includes(t *testing.T) {
	memfs := NewMemFS()
	memfs.AddFile("/cfg/peek.toml", `
"@include" = ["keys.toml", "/shared/log.toml"]

[log]
level = "debug"
`)
	memfs.AddFile("/cfg/keys.toml", `
[keys]
cancel = ["Escape"]
`)
	memfs.AddFile("/shared/log.toml", `
[log]
level = "error"
file = "/var/log/peek.log"
`)

	config, err := NewTOMLLoaderWithFS(memfs, "/cfg/peek.toml").LoadWithIncludes("/cfg/peek.toml", DefaultMaxIncludeDepth)
	if err != nil {
		t.Fatalf("LoadWithIncludes failed: %v", err)
	}
	if _, ok := config["@include"]; ok {
		t.Error("@include key left in result")
	}

	log := config["log"].(map[string]any)
	if log["level"] != "debug" {
		t.Errorf("log.level = %v, want debug", log["level"])
	}
	if log["file"] != "/var/log/peek.log" {
		t.Errorf("log.file = %v, want /var/log/peek.log", log["file"])
	}
	if _, ok := config["keys"]; !ok {
		t.Error("keys section from include missing")
	}
}

func TestTOMLLoader_IncludeCycle(t *testing.T) {
	memfs := NewMemFS()
	memfs.AddFile("/a.toml", `"@include" = "b.toml"`)
	memfs.AddFile("/b.toml", `"@include" = "a.toml"`)

	_, err := NewTOMLLoaderWithFS(memfs, "/a.toml").LoadWithIncludes("/a.toml", 4)
	if !errors.Is(err, ErrIncludeDepthExceeded) {
		t.Errorf("err = %v, want ErrIncludeDepthExceeded", err)
	}
}

func TestYAMLLoader_Load(t *testing.T) {
	memfs := NewMemFS()
	memfs.AddFile("/peek.yaml", `
console:
  prompt: "peek> "
format:
  depth: 2
  theme:
    key: "#ff8800"
`)

	config, err := NewYAMLLoaderWithFS(memfs, "/peek.yaml").Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	format := config["format"].(map[string]any)
	if format["depth"] != 2 {
		t.Errorf("depth = %v (%T), want 2", format["depth"], format["depth"])
	}
	theme := format["theme"].(map[string]any)
	if theme["key"] != "#ff8800" {
		t.Errorf("theme.key = %v, want #ff8800", theme["key"])
	}
}

func TestYAMLLoader_ParseError(t *testing.T) {
	memfs := NewMemFS()
	memfs.AddFile("/bad.yaml", "console: [unclosed\n")

	_, err := NewYAMLLoaderWithFS(memfs, "/bad.yaml").Load()
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Errorf("err = %v, want *ParseError", err)
	}
}

func TestForPath(t *testing.T) {
	memfs := NewMemFS()
	memfs.AddFile("/a.toml", `x = 1`)
	memfs.AddFile("/a.yml", `x: 1`)

	tests := []struct {
		path    string
		wantErr bool
	}{
		{"/a.toml", false},
		{"/a.yml", false},
		{"/a.YAML", false},
		{"/a.json", true},
		{"/a", true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			l, err := ForPath(memfs, tt.path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ForPath(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if _, err := l.Load(); err != nil {
				t.Errorf("Load() error = %v", err)
			}
		})
	}
}

func TestEnvLoader_Load(t *testing.T) {
	loader := NewEnvLoader("PEEK_")
	loader.environ = func() []string {
		return []string{
			"HOME=/root",
			"PEEK_PROMPT=>> ",
			"PEEK_LANG=lua",
			"PEEK_LOG_LEVEL=debug",
			"PEEK_FORMAT_DEPTH=5",
			"PEEK_FORMAT_COLORS=off",
			"PEEK_DATA_WATCH=true",
			`PEEK_KEYS_HISTORY_PREV=["Up","Ctrl+P"]`,
			"PEEK_EVAL_TIMEOUT=1.5s",
			"PEEK_=ignored",
		}
	}

	config, err := loader.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	tests := []struct {
		path string
		want any
	}{
		{"console.prompt", ">> "},
		{"eval.lang", "lua"},
		{"log.level", "debug"},
		{"format.depth", int64(5)},
		{"format.colors", false},
		{"data.watch", true},
		{"keys.history_prev", []any{"Up", "Ctrl+P"}},
		{"eval.timeout", "1.5s"},
	}
	for _, tt := range tests {
		got, ok := getByPath(config, tt.path)
		if !ok || !reflect.DeepEqual(got, tt.want) {
			t.Errorf("%s = %v (%T), want %v", tt.path, got, got, tt.want)
		}
	}
	if _, ok := config["home"]; ok {
		t.Error("unprefixed variable loaded")
	}
}

func TestEnvLoader_envToPath(t *testing.T) {
	loader := NewEnvLoader("PEEK_")
	tests := []struct {
		env  string
		want string
	}{
		{"PEEK_LOG_LEVEL", "log.level"},
		{"PEEK_KEYS_HISTORY_NEXT", "keys.history_next"},
		{"PEEK_VERBOSE", ""},
		{"PEEK__X", ""},
	}
	for _, tt := range tests {
		if got := loader.envToPath(tt.env); got != tt.want {
			t.Errorf("envToPath(%q) = %q, want %q", tt.env, got, tt.want)
		}
	}
}

func getByPath(data map[string]any, path string) (any, bool) {
	current := any(data)
	for _, part := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		if current, ok = m[part]; !ok {
			return nil, false
		}
	}
	return current, true
}
