package graph

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"
)

// ToDOT converts g to Graphviz DOT. Edge weights become edge labels.
// Undirected kinds produce a "graph" with "--" edges, directed kinds a
// "digraph" with "->" edges.
func ToDOT(g *Graph) (string, error) {
	if g == nil {
		return "", ErrNilGraph
	}

	header, arrow := "graph", "--"
	if g.kind.IsDirected() {
		header, arrow = "digraph", "->"
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s G {\n", header)
	buf.WriteString("  node [shape=circle];\n")
	buf.WriteString("\n")

	for _, n := range g.nodes {
		fmt.Fprintf(&buf, "  %q;\n", n)
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		fmt.Fprintf(&buf, "  %q %s %q [label=%q];\n", e.From, arrow, e.To, FormatWeight(e.Weight))
	}

	buf.WriteString("}\n")
	return buf.String(), nil
}

// RenderSVG renders a DOT document to SVG using the embedded Graphviz build.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	parsed, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer parsed.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, parsed, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
