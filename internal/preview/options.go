package preview

import "github.com/dshills/peek/internal/format"

// Formatter turns a result into display text.
type Formatter func(result any) (string, error)

// ErrorHandler receives render failures.
type ErrorHandler func(err error)

// Options controls a render.
type Options struct {
	// Truncate clips each preview line to the terminal width minus
	// TruncateMargin cells.
	Truncate bool

	// Pretty formats the result.
	Pretty Formatter

	// OnError receives any failure. The default re-raises it.
	OnError ErrorHandler
}

// Option modifies Options.
type Option func(*Options)

// DefaultOptions returns truncation on, the default formatter, and Raise.
func DefaultOptions() Options {
	return Options{
		Truncate: true,
		Pretty:   format.Default().Format,
		OnError:  Raise,
	}
}

// WithTruncate enables or disables width truncation.
func WithTruncate(truncate bool) Option {
	return func(o *Options) {
		o.Truncate = truncate
	}
}

// WithPretty sets the formatter. A nil formatter keeps the current one.
func WithPretty(pretty Formatter) Option {
	return func(o *Options) {
		if pretty != nil {
			o.Pretty = pretty
		}
	}
}

// WithOnError sets the error handler. A nil handler keeps the current one.
func WithOnError(handler ErrorHandler) Option {
	return func(o *Options) {
		if handler != nil {
			o.OnError = handler
		}
	}
}

func (o Options) apply(opts []Option) Options {
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
