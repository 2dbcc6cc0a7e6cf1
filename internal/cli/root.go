// Package cli implements the graphtune command-line interface.
//
// graphtune loads weighted edge lists, prints them as text or Graphviz, and
// prepares JSON Lines datasets for chat fine-tuning:
//
//	graphtune graph text karate.edgelist
//	graphtune graph dot karate.edgelist --svg karate.svg
//	graphtune dataset chat --in qa.jsonl --input-col question --output-col answer
//	graphtune dataset network --in questions.jsonl --graph karate.edgelist
//	graphtune dataset tokenize --in chat.jsonl --mode chat --max-length 512
//
// Paths may be s3://bucket/key URIs; credentials come from the AWS_* environment.
package cli

import (
	"context"

	"github.com/OFFIS-RIT/graphtune/internal/util"
	"github.com/OFFIS-RIT/graphtune/pkg/logger"
	"github.com/OFFIS-RIT/graphtune/pkg/logger/console"

	"github.com/spf13/cobra"
)

var version = "dev"

// SetVersion sets the version reported by --version.
func SetVersion(v string) {
	version = v
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	var (
		verbose bool
		envFile string
	)

	root := &cobra.Command{
		Use:           "graphtune",
		Short:         "Turn weighted graphs and Q&A tables into chat fine-tuning data",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if envFile != "" {
				util.LoadEnv(envFile)
			} else {
				util.LoadEnv()
			}
			debug := verbose || util.GetEnvBool("DEBUG", false)
			logger.Init(console.NewConsoleLogger(console.ConsoleLoggerParams{
				Debug:  debug,
				Output: cmd.ErrOrStderr(),
			}))
		},
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().StringVar(&envFile, "env", "", "load environment from this file instead of .env")

	root.AddCommand(newGraphCmd())
	root.AddCommand(newDatasetCmd())

	return root
}

// Execute runs the CLI with the given context.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}
