package graph

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

func TestFormatWeight(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{1, "1.0"},
		{2.5, "2.5"},
		{-3, "-3.0"},
		{0, "0.0"},
		{math.Copysign(0, -1), "-0.0"},
		{0.1, "0.1"},
		{0.0001, "0.0001"},
		{0.00001, "1e-05"},
		{1.5e-7, "1.5e-07"},
		{123456789, "123456789.0"},
		{1e15, "1000000000000000.0"},
		{1e16, "1e+16"},
		{2.5e20, "2.5e+20"},
		{1.0 / 3.0, "0.3333333333333333"},
		{math.Inf(1), "inf"},
		{math.Inf(-1), "-inf"},
		{math.NaN(), "nan"},
	}

	for _, tc := range tests {
		t.Run(tc.want, func(t *testing.T) {
			if got := FormatWeight(tc.in); got != tc.want {
				t.Fatalf("FormatWeight(%v) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestToText(t *testing.T) {
	g := New(Undirected)
	g.AddEdge("A", "B", 1)
	g.AddEdge("B", "C", 2.5)
	g.AddNode("D")

	nodes, edges, err := ToText(g)
	if err != nil {
		t.Fatalf("ToText() error = %v", err)
	}
	if want := []string{"A", "B", "C", "D"}; !reflect.DeepEqual(nodes, want) {
		t.Fatalf("nodes = %v, want %v", nodes, want)
	}
	if want := []string{"(A,B) with weight 1.0", "(B,C) with weight 2.5"}; !reflect.DeepEqual(edges, want) {
		t.Fatalf("edges = %v, want %v", edges, want)
	}
}

func TestToText_Empty(t *testing.T) {
	nodes, edges, err := ToText(New(Directed))
	if err != nil {
		t.Fatalf("ToText() error = %v", err)
	}
	if len(nodes) != 0 || len(edges) != 0 {
		t.Fatalf("expected empty output, got %v %v", nodes, edges)
	}
}

func TestToText_NilGraph(t *testing.T) {
	if _, _, err := ToText(nil); !errors.Is(err, ErrNilGraph) {
		t.Fatalf("ToText(nil) error = %v, want ErrNilGraph", err)
	}
}
