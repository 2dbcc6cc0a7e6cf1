package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/OFFIS-RIT/graphtune/internal/util"
	"github.com/OFFIS-RIT/graphtune/pkg/ai"
	"github.com/OFFIS-RIT/graphtune/pkg/ai/bpe"
	"github.com/OFFIS-RIT/graphtune/pkg/ai/llama"
	"github.com/OFFIS-RIT/graphtune/pkg/ai/ollama"
	"github.com/OFFIS-RIT/graphtune/pkg/loader"
	fileio "github.com/OFFIS-RIT/graphtune/pkg/loader/io"
	"github.com/OFFIS-RIT/graphtune/pkg/loader/s3"
	"github.com/OFFIS-RIT/graphtune/pkg/logger"
)

const (
	templateLlama  = "llama"
	templateOllama = "ollama"
)

// loaderFor returns an S3 loader for s3:// URIs and a local loader otherwise.
func loaderFor(ctx context.Context, path string) (loader.FileLoader, error) {
	bucket, _, ok := s3.ParseURI(path)
	if !ok {
		return fileio.NewIOFileLoader(), nil
	}

	l, err := s3.NewS3FileLoader(ctx, s3.NewS3FileLoaderParams{
		Bucket:    bucket,
		Endpoint:  util.GetEnv("AWS_ENDPOINT"),
		Region:    util.GetEnvString("AWS_REGION", "us-east-1"),
		AccessKey: util.GetEnv("AWS_ACCESS_KEY"),
		SecretKey: util.GetEnv("AWS_SECRET_KEY"),
	})
	if err != nil {
		return nil, fmt.Errorf("create s3 loader: %w", err)
	}
	return l, nil
}

// readInput reads path through loaderFor, or stdin for "" and "-".
func readInput(ctx context.Context, path string, stdin io.Reader) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(stdin)
	}
	l, err := loaderFor(ctx, path)
	if err != nil {
		return nil, err
	}
	return l.ReadFile(ctx, path)
}

// openOutput returns stdout for "" and "-", otherwise a created file.
func openOutput(path string, stdout io.Writer) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

type modelOpts struct {
	template string
	model    string
	encoding string
}

// newPipeline builds the templater and tokenizer of one model. The tokenizer
// doubles as the templater's encoder.
func newPipeline(ctx context.Context, opts modelOpts) (ai.Pipeline, error) {
	tok, err := newTokenizer(opts.encoding)
	if err != nil {
		return nil, err
	}
	templater, err := newTemplater(ctx, opts, tok)
	if err != nil {
		return nil, err
	}

	logger.Debug("[Dataset] Pipeline ready", "template", opts.template, "encoding", opts.encoding, "pad_id", tok.PadID())
	return ai.NewPipeline(templater, tok), nil
}

func newTemplater(ctx context.Context, opts modelOpts, enc ai.TextEncoder) (ai.ChatTemplater, error) {
	switch opts.template {
	case templateLlama, "":
		return llama.NewTemplater(llama.WithEncoder(enc)), nil
	case templateOllama:
		model := opts.model
		if model == "" {
			model = util.GetEnv("OLLAMA_MODEL")
		}
		return ollama.NewTemplater(ctx, ollama.NewTemplaterParams{
			Model:   model,
			BaseURL: util.GetEnv("OLLAMA_URL"),
			ApiKey:  util.GetEnv("OLLAMA_KEY"),
			Encoder: enc,
		})
	default:
		return nil, fmt.Errorf("unknown template %q (want %s or %s)", opts.template, templateLlama, templateOllama)
	}
}

func newTokenizer(encoding string) (*bpe.Tokenizer, error) {
	if encoding == "" {
		encoding = util.GetEnvString("GRAPHTUNE_ENCODING", bpe.DefaultEncoding)
	}
	return bpe.NewTokenizer(bpe.NewTokenizerParams{Encoding: encoding})
}
