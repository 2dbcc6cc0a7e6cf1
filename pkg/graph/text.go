package graph

import (
	"math"
	"strconv"
	"strings"
)

// ToText renders g as two lists: node identifiers in insertion order and
// one "(u,v) with weight W" line per edge in Edges order.
func ToText(g *Graph) ([]string, []string, error) {
	if g == nil {
		return nil, nil, ErrNilGraph
	}

	nodes := g.Nodes()

	graphEdges := g.Edges()
	edges := make([]string, 0, len(graphEdges))
	for _, e := range graphEdges {
		edges = append(edges, DescribeEdge(e))
	}

	return nodes, edges, nil
}

// DescribeEdge formats a single edge as "(u,v) with weight W".
func DescribeEdge(e Edge) string {
	var b strings.Builder
	b.Grow(len(e.From) + len(e.To) + 24)
	b.WriteByte('(')
	b.WriteString(e.From)
	b.WriteByte(',')
	b.WriteString(e.To)
	b.WriteString(") with weight ")
	b.WriteString(FormatWeight(e.Weight))
	return b.String()
}

// FormatWeight renders w in the shortest form that round-trips, always with
// a fractional part or exponent: 1.0, 2.5, 1e-05, 1e+16. Magnitudes below
// 1e-4 or from 1e16 upwards use exponent notation.
func FormatWeight(w float64) string {
	switch {
	case math.IsNaN(w):
		return "nan"
	case math.IsInf(w, 1):
		return "inf"
	case math.IsInf(w, -1):
		return "-inf"
	case w == 0:
		if math.Signbit(w) {
			return "-0.0"
		}
		return "0.0"
	}

	abs := math.Abs(w)
	if abs < 1e-4 || abs >= 1e16 {
		return strconv.FormatFloat(w, 'e', -1, 64)
	}

	s := strconv.FormatFloat(w, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
