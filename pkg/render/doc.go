// Package render exports laid-out presentation graphs for the rendering
// layer and for offline viewing.
//
// # Formats
//
//   - [FormatJSON]: flat node and edge arrays plus a node id → payload map,
//     the shape a front end consumes directly ([JSON])
//   - [FormatDOT]: Graphviz source with containers as clusters ([ToDOT])
//   - [FormatSVG]: SVG rendered in-process with go-graphviz ([RenderSVG])
//
// When the graph carries positions, DOT output pins every node at its
// computed coordinates and SVG rendering uses neato so that Graphviz
// draws the layout as computed instead of re-laying it out:
//
//	g, _ := adapter.Layout(ctx, built)
//	svg, err := render.Render(ctx, g, render.FormatSVG, render.Options{})
package render
