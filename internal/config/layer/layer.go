// Package layer merges configuration sources by priority.
//
// Each source (built-in defaults, the config file, the environment,
// command-line flags) is a Layer holding a nested map. The Manager merges
// them from lowest to highest priority, so a higher layer overrides only
// the keys it sets.
package layer

// Source indicates where a configuration layer came from.
type Source uint8

const (
	// SourceBuiltin holds the built-in defaults.
	SourceBuiltin Source = iota
	// SourceFile holds values read from a config file.
	SourceFile
	// SourceEnv holds values read from environment variables.
	SourceEnv
	// SourceArgs holds values from command-line flags.
	SourceArgs
)

// Priority levels for the standard sources. Higher overrides lower.
const (
	PriorityBuiltin = 0
	PriorityFile    = 100
	PriorityEnv     = 500
	PriorityArgs    = 600
)

// String returns a human-readable name for the source.
func (s Source) String() string {
	switch s {
	case SourceBuiltin:
		return "defaults"
	case SourceFile:
		return "file"
	case SourceEnv:
		return "environment"
	case SourceArgs:
		return "arguments"
	default:
		return "unknown"
	}
}

// Priority returns the standard priority for the source.
func (s Source) Priority() int {
	switch s {
	case SourceFile:
		return PriorityFile
	case SourceEnv:
		return PriorityEnv
	case SourceArgs:
		return PriorityArgs
	default:
		return PriorityBuiltin
	}
}

// Layer is a single configuration source.
type Layer struct {
	// Name identifies the layer.
	Name string

	// Priority determines merge order (higher overrides lower).
	Priority int

	// Source indicates where the layer was loaded from.
	Source Source

	// Path is the file the layer was read from, if any.
	Path string

	// Data holds the values as a nested map.
	Data map[string]any
}

// New creates a layer for source at the source's standard priority.
func New(source Source, data map[string]any) *Layer {
	if data == nil {
		data = make(map[string]any)
	}
	return &Layer{
		Name:     source.String(),
		Priority: source.Priority(),
		Source:   source,
		Data:     data,
	}
}

// Clone creates a deep copy of the layer.
func (l *Layer) Clone() *Layer {
	return &Layer{
		Name:     l.Name,
		Priority: l.Priority,
		Source:   l.Source,
		Path:     l.Path,
		Data:     cloneMap(l.Data),
	}
}
