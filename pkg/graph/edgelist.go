package graph

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/OFFIS-RIT/graphtune/pkg/loader"
	fileio "github.com/OFFIS-RIT/graphtune/pkg/loader/io"
	"github.com/OFFIS-RIT/graphtune/pkg/logger"
)

var (
	// ErrParse matches every *ParseError.
	ErrParse = errors.New("malformed edge list")
	// ErrIO is returned when the edge-list file cannot be read.
	ErrIO = errors.New("cannot read edge list")
)

const (
	commentPrefix = "#"
	maxLineSize   = 1024 * 1024
)

// ParseError describes a line of an edge list that could not be parsed.
type ParseError struct {
	Line int
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("edge list line %d %q: %v", e.Line, e.Text, e.Err)
}

func (e *ParseError) Unwrap() []error {
	return []error{ErrParse, e.Err}
}

type readOptions struct {
	kind   Kind
	loader loader.FileLoader
}

// ReadOption configures ReadEdgeList.
type ReadOption func(*readOptions)

// WithKind selects the graph variant. The default is Undirected.
func WithKind(kind Kind) ReadOption {
	return func(o *readOptions) {
		o.kind = kind
	}
}

// WithFileLoader sets where the file is read from. The default reads from
// the local filesystem.
func WithFileLoader(l loader.FileLoader) ReadOption {
	return func(o *readOptions) {
		o.loader = l
	}
}

// ReadEdgeList reads the edge list at path into a new graph.
//
// Each non-blank line holds two node identifiers and a weight separated by
// whitespace; anything after a '#' is ignored.
//
// Example:
//
//	g, err := graph.ReadEdgeList(ctx, "karate.edgelist", graph.WithKind(graph.Directed))
//	if err != nil {
//		return err
//	}
//	nodes, edges, _ := graph.ToText(g)
func ReadEdgeList(ctx context.Context, path string, opts ...ReadOption) (*Graph, error) {
	options := readOptions{kind: Undirected}
	for _, o := range opts {
		o(&options)
	}
	if options.loader == nil {
		options.loader = fileio.NewIOFileLoader()
	}

	content, err := options.loader.ReadFile(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrIO, path, err)
	}

	g, err := ParseEdgeList(bytes.NewReader(content), options.kind)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	logger.Debug("[Graph] Loaded edge list", "path", path, "kind", options.kind, "nodes", g.Order(), "edges", g.Size())
	return g, nil
}

// ParseEdgeList builds a graph of the given kind from an edge list stream.
// Read failures of r are reported as ErrIO, bad lines as *ParseError.
func ParseEdgeList(r io.Reader, kind Kind) (*Graph, error) {
	g := New(kind)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		raw := scanner.Text()

		line := raw
		if idx := strings.Index(line, commentPrefix); idx >= 0 {
			line = line[:idx]
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		u, v, w, err := parseEdgeFields(fields)
		if err != nil {
			return nil, &ParseError{Line: lineNum, Text: raw, Err: err}
		}
		g.AddEdge(u, v, w)
	}
	if err := scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return nil, &ParseError{Line: lineNum + 1, Err: fmt.Errorf("line longer than %d bytes", maxLineSize)}
		}
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}

	return g, nil
}

func parseEdgeFields(fields []string) (string, string, float64, error) {
	if len(fields) != 3 {
		return "", "", 0, fmt.Errorf("expected 3 fields (u v weight), got %d", len(fields))
	}

	w, err := parseWeight(fields[2])
	if err != nil {
		return "", "", 0, err
	}

	return fields[0], fields[1], w, nil
}

// parseWeight accepts decimal floats the way Python's float() does:
// optional sign, digits with single underscores between them, optional
// fraction and exponent. Hex floats are rejected, as are inf and nan.
func parseWeight(s string) (float64, error) {
	if strings.ContainsAny(s, "xXpP") {
		return 0, fmt.Errorf("weight %q is not a decimal number", s)
	}
	if strings.Contains(s, "_") {
		if !validUnderscores(s) {
			return 0, fmt.Errorf("weight %q is not a number", s)
		}
		s = strings.ReplaceAll(s, "_", "")
	}

	w, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("weight %q is not a number", s)
	}
	if math.IsInf(w, 0) || math.IsNaN(w) {
		return 0, fmt.Errorf("weight %q is not finite", s)
	}
	return w, nil
}

func validUnderscores(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] != '_' {
			continue
		}
		if i == 0 || i == len(s)-1 || !isDigit(s[i-1]) || !isDigit(s[i+1]) {
			return false
		}
	}
	return true
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
