package cli

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/OFFIS-RIT/graphtune/internal/util"
	"github.com/OFFIS-RIT/graphtune/pkg/dataset"
	"github.com/OFFIS-RIT/graphtune/pkg/graph"
	"github.com/OFFIS-RIT/graphtune/pkg/logger"

	"github.com/spf13/cobra"
)

type ioOpts struct {
	in  string
	out string
}

func addIOFlags(cmd *cobra.Command, opts *ioOpts) {
	cmd.Flags().StringVar(&opts.in, "in", "-", "input rows (.jsonl or .csv, local path or s3:// URI, - for stdin)")
	cmd.Flags().StringVar(&opts.out, "out", "-", "output JSON Lines file, - for stdout")
}

func addEncodingFlag(cmd *cobra.Command, opts *modelOpts) {
	cmd.Flags().StringVar(&opts.encoding, "encoding", "", "tiktoken encoding (default $GRAPHTUNE_ENCODING or o200k_base)")
}

func addModelFlags(cmd *cobra.Command, opts *modelOpts) {
	cmd.Flags().StringVar(&opts.template, "template", templateLlama, "chat template: llama or ollama")
	cmd.Flags().StringVar(&opts.model, "model", "", "Ollama model whose template to use (default $OLLAMA_MODEL)")
	addEncodingFlag(cmd, opts)
}

func newDatasetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dataset",
		Short: "Format and tokenize fine-tuning datasets",
	}
	cmd.AddCommand(newDatasetChatCmd())
	cmd.AddCommand(newDatasetNetworkCmd())
	cmd.AddCommand(newDatasetTokenizeCmd())
	return cmd
}

func loadRows(cmd *cobra.Command, path string) ([]dataset.Row, error) {
	content, err := readInput(cmd.Context(), path, cmd.InOrStdin())
	if err != nil {
		return nil, err
	}

	var rows []dataset.Row
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		rows, err = dataset.ReadCSVRows(bytes.NewReader(content))
	} else {
		rows, err = dataset.ReadRows(bytes.NewReader(content))
	}
	if err != nil {
		return nil, fmt.Errorf("read rows from %s: %w", path, err)
	}

	logger.Info("[Dataset] Loaded rows", "path", path, "rows", len(rows))
	return rows, nil
}

func writeRows(cmd *cobra.Command, path string, rows []dataset.Row) error {
	w, closeFn, err := openOutput(path, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	if err := dataset.WriteRows(w, rows); err != nil {
		closeFn()
		return err
	}
	return closeFn()
}

func workers(flag int) int {
	if flag > 0 {
		return flag
	}
	return util.GetEnvInt("GRAPHTUNE_WORKERS", 4)
}

func newDatasetChatCmd() *cobra.Command {
	var (
		files     ioOpts
		model     modelOpts
		inputCol  string
		outputCol string
		nWorkers  int
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Render input/output columns through a chat template",
		Long:  "Adds \"input\" (user turn) and \"output\" (assistant turn) columns rendered with the chat template.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			rows, err := loadRows(cmd, files.in)
			if err != nil {
				return err
			}
			pipeline, err := newPipeline(ctx, model)
			if err != nil {
				return err
			}
			if err := dataset.FormatChatAll(ctx, rows, inputCol, outputCol, pipeline, workers(nWorkers)); err != nil {
				return err
			}
			return writeRows(cmd, files.out, rows)
		},
	}

	addIOFlags(cmd, &files)
	addModelFlags(cmd, &model)
	cmd.Flags().StringVar(&inputCol, "input-col", "input", "column holding the user turn")
	cmd.Flags().StringVar(&outputCol, "output-col", "output", "column holding the assistant turn")
	cmd.Flags().IntVar(&nWorkers, "workers", 0, "parallel formatters (default $GRAPHTUNE_WORKERS or 4)")
	return cmd
}

func newDatasetNetworkCmd() *cobra.Command {
	var (
		files       ioOpts
		model       modelOpts
		gopts       graphOpts
		graphPath   string
		questionCol string
		nWorkers    int
	)

	cmd := &cobra.Command{
		Use:   "network",
		Short: "Write the graph question prompt into a \"text\" column",
		Long: "Loads the edge list and renders the fixed graph conversation for every row.\n" +
			"The prompt keeps its {nodes}, {edges} and {question} placeholders and the answer is always \"yes\".",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if graphPath == "" {
				return fmt.Errorf("--graph is required")
			}
			g, err := loadGraph(cmd, graphPath, gopts)
			if err != nil {
				return err
			}
			nodes, edges, err := graph.ToText(g)
			if err != nil {
				return err
			}

			rows, err := loadRows(cmd, files.in)
			if err != nil {
				return err
			}
			pipeline, err := newPipeline(ctx, model)
			if err != nil {
				return err
			}
			if err := dataset.FormatNetworkChatAll(ctx, rows, nodes, edges, questionCol, pipeline, workers(nWorkers)); err != nil {
				return err
			}
			return writeRows(cmd, files.out, rows)
		},
	}

	addIOFlags(cmd, &files)
	addModelFlags(cmd, &model)
	addKindFlag(cmd, &gopts)
	cmd.Flags().StringVar(&graphPath, "graph", "", "edge-list file (local path or s3:// URI)")
	cmd.Flags().StringVar(&questionCol, "question-col", "question", "column holding the question")
	cmd.Flags().IntVar(&nWorkers, "workers", 0, "parallel formatters (default $GRAPHTUNE_WORKERS or 4)")
	return cmd
}

func newDatasetTokenizeCmd() *cobra.Command {
	var (
		files     ioOpts
		model     modelOpts
		mode      string
		maxLength int
	)

	cmd := &cobra.Command{
		Use:   "tokenize",
		Short: "Tokenize formatted rows into fixed-length id sequences",
		Long: "nextchar mode tokenizes the \"text\" column; chat mode tokenizes \"input\" with \"output\" as labels.\n" +
			"Sequences are padded and truncated to exactly --max-length tokens.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			m, err := dataset.ParseMode(mode)
			if err != nil {
				return err
			}
			if maxLength <= 0 {
				maxLength = util.GetEnvInt("GRAPHTUNE_MAX_LENGTH", dataset.DefaultMaxLength)
			}

			rows, err := loadRows(cmd, files.in)
			if err != nil {
				return err
			}
			columns := []string{dataset.ColumnText}
			if m == dataset.ModeChat {
				columns = []string{dataset.ColumnInput, dataset.ColumnOutput}
			}
			batch, err := dataset.Columns(rows, columns...)
			if err != nil {
				return err
			}

			pipeline, err := newPipeline(ctx, model)
			if err != nil {
				return err
			}
			tokenized, err := dataset.Tokenize(ctx, batch, pipeline, m, maxLength)
			if err != nil {
				return err
			}

			w, closeFn, err := openOutput(files.out, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if err := dataset.WriteTokenized(w, tokenized); err != nil {
				closeFn()
				return err
			}
			logger.Info("[Dataset] Tokenized", "rows", len(rows), "mode", m, "max_length", maxLength)
			return closeFn()
		},
	}

	addIOFlags(cmd, &files)
	cmd.Flags().StringVar(&mode, "mode", string(dataset.ModeNextChar), "nextchar or chat")
	cmd.Flags().IntVar(&maxLength, "max-length", 0, "sequence length (default $GRAPHTUNE_MAX_LENGTH or 1024)")
	addEncodingFlag(cmd, &model)
	return cmd
}
