// Package bpe implements ai.Tokenizer on top of tiktoken byte-pair encodings.
package bpe

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/OFFIS-RIT/graphtune/pkg/ai"
	"github.com/OFFIS-RIT/graphtune/pkg/logger"

	"github.com/pkoukk/tiktoken-go"
)

// DefaultEncoding is the encoding used when none is configured.
const DefaultEncoding = "o200k_base"

// <|endoftext|> of each encoding, used for padding unless PadID is set.
var endOfText = map[string]int{
	"o200k_base":  199999,
	"cl100k_base": 100257,
	"p50k_base":   50256,
	"p50k_edit":   50256,
	"r50k_base":   50256,
}

// Encoder is the subset of *tiktoken.Tiktoken used by Tokenizer.
type Encoder interface {
	Encode(text string, allowedSpecial []string, disallowedSpecial []string) []int
}

var getEncoding = func(name string) (Encoder, error) {
	return tiktoken.GetEncoding(name)
}

// Tokenizer pads and truncates BPE-encoded text into fixed-length batches.
// It also implements ai.TextEncoder, so it can back a chat templater.
type Tokenizer struct {
	name  string
	padID int

	once sync.Once
	enc  Encoder
	err  error
}

// NewTokenizerParams contains configuration options for creating a new Tokenizer.
type NewTokenizerParams struct {
	// Encoding is a tiktoken encoding name, DefaultEncoding when empty.
	Encoding string
	// PadID overrides the padding token. Zero selects the encoding's
	// end-of-text token.
	PadID int
}

// NewTokenizer creates a tokenizer for the named tiktoken encoding. The
// merge ranks are loaded (and cached by tiktoken) on first use, so building
// a tokenizer that never encodes costs nothing.
func NewTokenizer(params NewTokenizerParams) (*Tokenizer, error) {
	name := params.Encoding
	if name == "" {
		name = DefaultEncoding
	}

	eot, ok := endOfText[name]
	if !ok {
		return nil, fmt.Errorf("unknown encoding %q", name)
	}

	padID := params.PadID
	if padID == 0 {
		padID = eot
	}

	return &Tokenizer{name: name, padID: padID}, nil
}

// NewTokenizerWithEncoder wraps an existing encoder.
func NewTokenizerWithEncoder(enc Encoder, padID int) *Tokenizer {
	t := &Tokenizer{
		enc:   enc,
		padID: padID,
	}
	t.once.Do(func() {})
	return t
}

// PadID returns the token used to fill padded positions.
func (t *Tokenizer) PadID() int {
	return t.padID
}

func (t *Tokenizer) encoder() (Encoder, error) {
	t.once.Do(func() {
		t.enc, t.err = getEncoding(t.name)
		if t.err != nil {
			t.err = fmt.Errorf("load encoding %s: %w", t.name, t.err)
			return
		}
		logger.Debug("[Tokenizer] Loaded encoding", "encoding", t.name, "pad_id", t.padID)
	})
	return t.enc, t.err
}

// Encode converts text to token ids. Special-token markers in the text are
// encoded as ordinary text.
func (t *Tokenizer) Encode(text string) ([]int, error) {
	enc, err := t.encoder()
	if err != nil {
		return nil, err
	}
	return enc.Encode(text, nil, nil), nil
}

// Tokenize encodes req.Text (and req.TextTarget into "labels"), truncating
// from the end and padding on the right as requested. Attention masks mark
// real tokens with 1 and padding with 0.
func (t *Tokenizer) Tokenize(ctx context.Context, req ai.TokenizeRequest) (ai.TokenizedBatch, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	inputs, err := t.encodeAll(ctx, req.Text, req)
	if err != nil {
		return nil, err
	}

	ids, mask := pad(inputs, padLength(inputs, req), t.padID)
	batch := ai.TokenizedBatch{
		ai.FieldInputIDs:      ids,
		ai.FieldAttentionMask: mask,
	}

	if req.TextTarget != nil {
		targets, err := t.encodeAll(ctx, req.TextTarget, req)
		if err != nil {
			return nil, err
		}
		labels, _ := pad(targets, padLength(targets, req), t.padID)
		batch[ai.FieldLabels] = labels
	}

	logger.Debug("[Tokenizer] Tokenized batch", "examples", len(req.Text), "padding", req.Padding, "max_length", req.MaxLength)
	return batch, nil
}

func validateRequest(req ai.TokenizeRequest) error {
	if req.MaxLength < 0 {
		return fmt.Errorf("max length must not be negative, got %d", req.MaxLength)
	}
	switch req.Padding {
	case ai.PaddingMaxLength:
		if req.MaxLength == 0 {
			return errors.New("max_length padding requires a max length")
		}
	case ai.PaddingLongest, ai.PaddingNone, "":
	default:
		return fmt.Errorf("unknown padding strategy %q", req.Padding)
	}
	if req.TextTarget != nil && len(req.TextTarget) != len(req.Text) {
		return fmt.Errorf("got %d texts but %d targets", len(req.Text), len(req.TextTarget))
	}
	return nil
}

func (t *Tokenizer) encodeAll(ctx context.Context, texts []string, req ai.TokenizeRequest) ([][]int, error) {
	out := make([][]int, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ids, err := t.Encode(text)
		if err != nil {
			return nil, err
		}
		if req.Truncation && req.MaxLength > 0 && len(ids) > req.MaxLength {
			ids = ids[:req.MaxLength]
		}
		out[i] = ids
	}
	return out, nil
}

func padLength(seqs [][]int, req ai.TokenizeRequest) int {
	switch req.Padding {
	case ai.PaddingMaxLength:
		return req.MaxLength
	case ai.PaddingLongest:
		longest := 0
		for _, s := range seqs {
			longest = max(longest, len(s))
		}
		return longest
	default:
		return 0
	}
}

// pad right-pads every sequence to length with padID. Sequences already at
// or beyond length are copied unchanged.
func pad(seqs [][]int, length int, padID int) ([][]int, [][]int) {
	ids := make([][]int, len(seqs))
	mask := make([][]int, len(seqs))
	for i, s := range seqs {
		n := max(len(s), length)
		row := make([]int, n)
		m := make([]int, n)
		copy(row, s)
		for j := range n {
			if j < len(s) {
				m[j] = 1
				continue
			}
			row[j] = padID
		}
		ids[i] = row
		mask[i] = m
	}
	return ids, mask
}
