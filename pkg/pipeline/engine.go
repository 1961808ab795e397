package pipeline

import (
	"github.com/matzehuels/unformer/pkg/errors"
	"github.com/matzehuels/unformer/pkg/layout"
	"github.com/matzehuels/unformer/pkg/layout/graphviz"
	"github.com/matzehuels/unformer/pkg/layout/layered"
)

// Layout engine names.
const (
	EngineLayered  = layered.Name
	EngineGraphviz = graphviz.Name
)

// Engines lists the available layout engines.
var Engines = []string{EngineLayered, EngineGraphviz}

// ValidateEngine checks that name is a known layout engine.
func ValidateEngine(name string) error {
	switch name {
	case EngineLayered, EngineGraphviz:
		return nil
	}
	return errors.New(errors.ErrCodeInvalidEngine, "invalid engine: %q (must be one of: layered, graphviz)", name)
}

// NewEngine returns the layout engine registered under name.
func NewEngine(name string) (layout.Engine, error) {
	switch name {
	case EngineLayered, "":
		return layered.New(), nil
	case EngineGraphviz:
		return graphviz.New(), nil
	}
	return nil, ValidateEngine(name)
}

// NewAdapter returns a layout adapter for the named engine with the given
// normalization margin. A zero margin keeps the default.
func NewAdapter(name string, margin float64) (*layout.Adapter, error) {
	engine, err := NewEngine(name)
	if err != nil {
		return nil, err
	}
	a := layout.NewAdapter(engine)
	if margin > 0 {
		a.Config.Margin = margin
	}
	return a, nil
}
