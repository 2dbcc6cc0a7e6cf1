// Package graph holds a small weighted graph type with string node IDs, an
// edge-list reader that builds it, and plain-text and DOT exporters.
//
// Nodes and adjacency keep insertion order, so iterating a graph that was read
// from a file reproduces the order in which the file introduced them.
package graph

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNilGraph is returned by exporters that receive a nil *Graph.
var ErrNilGraph = errors.New("nil graph")

// Kind selects the graph variant built by the edge-list reader.
type Kind int

const (
	// Undirected graphs store one edge per unordered node pair.
	Undirected Kind = iota
	// Directed graphs store one edge per ordered node pair.
	Directed
	// Multi graphs are undirected and keep parallel edges.
	Multi
	// MultiDirected graphs are directed and keep parallel edges.
	MultiDirected
)

// IsDirected reports whether (u,v) and (v,u) are distinct edges.
func (k Kind) IsDirected() bool {
	return k == Directed || k == MultiDirected
}

// IsMulti reports whether repeated node pairs create parallel edges.
func (k Kind) IsMulti() bool {
	return k == Multi || k == MultiDirected
}

func (k Kind) String() string {
	switch k {
	case Undirected:
		return "undirected"
	case Directed:
		return "directed"
	case Multi:
		return "multi"
	case MultiDirected:
		return "multidirected"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind maps a kind name (as printed by Kind.String) back to a Kind.
// The empty string selects Undirected.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "undirected", "graph":
		return Undirected, nil
	case "directed", "digraph":
		return Directed, nil
	case "multi", "multigraph":
		return Multi, nil
	case "multidirected", "multidigraph":
		return MultiDirected, nil
	default:
		return Undirected, fmt.Errorf("unknown graph kind %q", s)
	}
}

// Edge is a weighted connection between two nodes. Key numbers parallel
// edges between the same pair in multigraphs and is always 0 otherwise.
type Edge struct {
	From   string
	To     string
	Key    int
	Weight float64
}

type adjacency struct {
	order []string
	edges map[string][]*Edge
}

func newAdjacency() *adjacency {
	return &adjacency{edges: make(map[string][]*Edge)}
}

func (a *adjacency) add(nbr string, e *Edge) {
	if _, ok := a.edges[nbr]; !ok {
		a.order = append(a.order, nbr)
	}
	a.edges[nbr] = append(a.edges[nbr], e)
}

// Graph is a weighted graph with string node identifiers.
// The zero value is not usable; create graphs with New.
type Graph struct {
	kind  Kind
	nodes []string
	adj   map[string]*adjacency
	size  int
}

// New returns an empty graph of the given kind.
func New(kind Kind) *Graph {
	return &Graph{
		kind: kind,
		adj:  make(map[string]*adjacency),
	}
}

// Kind returns the variant the graph was created with.
func (g *Graph) Kind() Kind {
	return g.kind
}

// AddNode adds a node if it is not present yet.
func (g *Graph) AddNode(id string) {
	if _, ok := g.adj[id]; ok {
		return
	}
	g.adj[id] = newAdjacency()
	g.nodes = append(g.nodes, id)
}

// AddEdge connects u and v, adding missing nodes first (u before v).
// On simple graphs an existing edge keeps its position and takes the new
// weight. On multigraphs a new parallel edge is added and its key returned.
func (g *Graph) AddEdge(u, v string, weight float64) int {
	g.AddNode(u)
	g.AddNode(v)

	if !g.kind.IsMulti() {
		if existing := g.adj[u].edges[v]; len(existing) > 0 {
			existing[0].Weight = weight
			return 0
		}
	}

	key := len(g.adj[u].edges[v])
	e := &Edge{From: u, To: v, Key: key, Weight: weight}
	g.adj[u].add(v, e)
	if !g.kind.IsDirected() && u != v {
		g.adj[v].add(u, e)
	}
	g.size++
	return key
}

// HasNode reports whether id is a node of g.
func (g *Graph) HasNode(id string) bool {
	_, ok := g.adj[id]
	return ok
}

// HasEdge reports whether at least one edge connects u to v. For undirected
// kinds the order of u and v does not matter.
func (g *Graph) HasEdge(u, v string) bool {
	a, ok := g.adj[u]
	if !ok {
		return false
	}
	return len(a.edges[v]) > 0
}

// Weight returns the weight of the first edge between u and v.
func (g *Graph) Weight(u, v string) (float64, bool) {
	a, ok := g.adj[u]
	if !ok || len(a.edges[v]) == 0 {
		return 0, false
	}
	return a.edges[v][0].Weight, true
}

// Order returns the number of nodes.
func (g *Graph) Order() int {
	return len(g.nodes)
}

// Size returns the number of edges, counting parallel edges separately.
func (g *Graph) Size() int {
	return g.size
}

// Nodes returns node identifiers in insertion order.
func (g *Graph) Nodes() []string {
	out := make([]string, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// Edges returns every edge once, walking nodes in insertion order and each
// node's neighbours in insertion order. For undirected kinds an edge is
// reported from the endpoint visited first, so From/To may be swapped
// relative to how the edge was added.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, 0, g.size)
	seen := make(map[string]struct{}, len(g.nodes))
	for _, n := range g.nodes {
		a := g.adj[n]
		for _, nbr := range a.order {
			if !g.kind.IsDirected() {
				if _, done := seen[nbr]; done {
					continue
				}
			}
			for _, e := range a.edges[nbr] {
				out = append(out, Edge{From: n, To: nbr, Key: e.Key, Weight: e.Weight})
			}
		}
		seen[n] = struct{}{}
	}
	return out
}
