package render

import (
	"context"
	"fmt"
	"slices"

	"github.com/matzehuels/unformer/pkg/graph"
)

// Output formats.
const (
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
)

// Formats lists the supported output formats.
var Formats = []string{FormatJSON, FormatDOT, FormatSVG}

// ValidateFormat checks that format is supported.
func ValidateFormat(format string) error {
	if !slices.Contains(Formats, format) {
		return fmt.Errorf("invalid format: %q (must be one of: json, dot, svg)", format)
	}
	return nil
}

// Options configure DOT and SVG output.
type Options struct {
	// Detailed adds class names and parameter counts to node labels.
	Detailed bool
	// Unpinned ignores computed positions and lets Graphviz lay the graph out.
	Unpinned bool
}

// Render encodes g in the given format.
func Render(ctx context.Context, g *graph.Graph, format string, opts Options) ([]byte, error) {
	switch format {
	case FormatJSON:
		return JSON(g)
	case FormatDOT:
		return []byte(ToDOT(g, opts)), nil
	case FormatSVG:
		return RenderSVG(ctx, ToDOT(g, opts), pinned(g, opts))
	}
	return nil, ValidateFormat(format)
}

// RenderAll encodes g in every requested format.
func RenderAll(ctx context.Context, g *graph.Graph, formats []string, opts Options) (map[string][]byte, error) {
	out := make(map[string][]byte, len(formats))
	for _, f := range formats {
		data, err := Render(ctx, g, f, opts)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", f, err)
		}
		out[f] = data
	}
	return out, nil
}

func pinned(g *graph.Graph, opts Options) bool {
	if opts.Unpinned || g == nil || len(g.Nodes) == 0 {
		return false
	}
	for _, n := range g.Nodes {
		if !n.Positioned {
			return false
		}
	}
	return true
}
