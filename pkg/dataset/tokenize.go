package dataset

import (
	"context"
	"fmt"

	"github.com/OFFIS-RIT/graphtune/pkg/ai"
	"github.com/OFFIS-RIT/graphtune/pkg/logger"
)

// Mode selects which batch fields Tokenize reads.
type Mode string

const (
	// ModeNextChar tokenizes the "text" field as one training sequence.
	ModeNextChar Mode = "nextchar"
	// ModeChat tokenizes "input" as the source and "output" as the target.
	ModeChat Mode = "chat"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeNextChar, ModeChat:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("%w, got %q", ErrInvalidMode, s)
	}
}

// Tokenize tokenizes a batch with max_length padding and truncation.
// maxLength <= 0 selects DefaultMaxLength.
func Tokenize(
	ctx context.Context,
	batch Batch,
	tokenizer ai.Tokenizer,
	mode Mode,
	maxLength int,
) (ai.TokenizedBatch, error) {
	if _, err := ParseMode(string(mode)); err != nil {
		return nil, err
	}
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}

	req := ai.TokenizeRequest{
		Padding:    ai.PaddingMaxLength,
		Truncation: true,
		MaxLength:  maxLength,
	}

	var err error
	switch mode {
	case ModeNextChar:
		req.Text, err = batch.field(ColumnText)
	case ModeChat:
		req.Text, err = batch.field(ColumnInput)
		if err == nil {
			req.TextTarget, err = batch.field(ColumnOutput)
		}
	}
	if err != nil {
		return nil, err
	}

	logger.Debug("[Dataset] Tokenizing batch", "mode", mode, "examples", len(req.Text), "max_length", maxLength)

	out, err := tokenizer.Tokenize(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("tokenize %s batch: %w", mode, err)
	}
	return out, nil
}

func (b Batch) field(name string) ([]string, error) {
	values, ok := b[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMissingColumn, name)
	}
	return values, nil
}
