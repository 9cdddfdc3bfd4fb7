package app

import (
	"fmt"
	"math/rand/v2"

	"github.com/dshills/peek/internal/config"
	"github.com/dshills/peek/internal/data"
	"github.com/dshills/peek/internal/eval"
	"github.com/dshills/peek/internal/eval/lua"
	"github.com/dshills/peek/internal/eval/query"
)

// Document is the data expressions are evaluated against.
type Document struct {
	// Path is the file the document was read from; empty for a sample.
	Path string

	// Seed generated the sample document.
	Seed uint64

	// Raw is the document as JSON.
	Raw []byte
}

// loadDocument reads the configured file or generates a sample tree.
func loadDocument(dc config.DataConfig) (*Document, error) {
	if dc.Path != "" {
		raw, err := data.Load(dc.Path)
		if err != nil {
			return nil, err
		}
		return &Document{Path: dc.Path, Raw: raw}, nil
	}

	seed := dc.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	raw, err := data.Sample(dc.Sample, seed)
	if err != nil {
		return nil, err
	}
	return &Document{Seed: seed, Raw: raw}, nil
}

// documentEvaluator evaluates against a replaceable document.
type documentEvaluator interface {
	eval.Evaluator
	SetDocument(doc []byte) error
}

func newEvaluator(ec config.EvalConfig, doc []byte) (documentEvaluator, error) {
	switch ec.Lang {
	case config.LangQuery:
		ev, err := query.New(doc, query.WithMode(query.Mode(ec.Mode)))
		if err != nil {
			return nil, err
		}
		return ev, nil
	case config.LangLua:
		ev, err := lua.New(doc, lua.WithTimeout(ec.Timeout))
		if err != nil {
			return nil, err
		}
		return ev, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownLang, ec.Lang)
	}
}
