package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/OFFIS-RIT/graphtune/pkg/graph"
	"github.com/OFFIS-RIT/graphtune/pkg/logger"

	"github.com/spf13/cobra"
)

type graphOpts struct {
	kind string
}

func newGraphCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Inspect weighted edge-list files",
	}
	cmd.AddCommand(newGraphTextCmd())
	cmd.AddCommand(newGraphDotCmd())
	return cmd
}

func addKindFlag(cmd *cobra.Command, opts *graphOpts) {
	cmd.Flags().StringVar(&opts.kind, "kind", "undirected", "graph kind: undirected, directed, multi, multidirected")
}

func loadGraph(cmd *cobra.Command, path string, opts graphOpts) (*graph.Graph, error) {
	ctx := cmd.Context()

	kind, err := graph.ParseKind(opts.kind)
	if err != nil {
		return nil, err
	}

	if path == "-" {
		return graph.ParseEdgeList(cmd.InOrStdin(), kind)
	}

	l, err := loaderFor(ctx, path)
	if err != nil {
		return nil, err
	}
	g, err := graph.ReadEdgeList(ctx, path, graph.WithKind(kind), graph.WithFileLoader(l))
	if err != nil {
		return nil, err
	}

	logger.Info("[Graph] Loaded", "path", path, "kind", kind, "nodes", g.Order(), "edges", g.Size())
	return g, nil
}

func newGraphTextCmd() *cobra.Command {
	var (
		opts   graphOpts
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "text [file]",
		Short: "Print the nodes and edge descriptions of an edge list",
		Long:  "Print node identifiers, then one \"(u,v) with weight W\" line per edge. Use - to read from stdin.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := loadGraph(cmd, args[0], opts)
			if err != nil {
				return err
			}
			nodes, edges, err := graph.ToText(g)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string][]string{"nodes": nodes, "edges": edges})
			}

			fmt.Fprintln(out, "nodes:")
			for _, n := range nodes {
				fmt.Fprintf(out, "  %s\n", n)
			}
			fmt.Fprintln(out, "edges:")
			for _, e := range edges {
				fmt.Fprintf(out, "  %s\n", e)
			}
			return nil
		},
	}

	addKindFlag(cmd, &opts)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print {\"nodes\": [...], \"edges\": [...]} instead of text")
	return cmd
}

func newGraphDotCmd() *cobra.Command {
	var (
		opts    graphOpts
		svgPath string
	)

	cmd := &cobra.Command{
		Use:   "dot [file]",
		Short: "Print an edge list as Graphviz DOT, optionally rendering SVG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := loadGraph(cmd, args[0], opts)
			if err != nil {
				return err
			}
			dot, err := graph.ToDOT(g)
			if err != nil {
				return err
			}

			if svgPath == "" {
				_, err := fmt.Fprint(cmd.OutOrStdout(), dot)
				return err
			}

			svg, err := graph.RenderSVG(cmd.Context(), dot)
			if err != nil {
				return err
			}
			if err := os.WriteFile(svgPath, bytes.TrimSpace(svg), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", svgPath, err)
			}
			logger.Info("[Graph] Rendered SVG", "path", svgPath, "bytes", len(svg))
			return nil
		},
	}

	addKindFlag(cmd, &opts)
	cmd.Flags().StringVar(&svgPath, "svg", "", "render to this SVG file instead of printing DOT")
	return cmd
}
