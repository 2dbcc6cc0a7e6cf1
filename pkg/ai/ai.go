package ai

import (
	"context"
	"errors"
	"fmt"
)

// Chat roles understood by every ChatTemplater.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Field names of a TokenizedBatch.
const (
	FieldInputIDs      = "input_ids"
	FieldAttentionMask = "attention_mask"
	FieldLabels        = "labels"
)

// ErrNoEncoder is returned by a ChatTemplater asked to tokenize when it was
// built without a TextEncoder.
var ErrNoEncoder = errors.New("chat templater has no encoder")

// ChatMessage represents a single message in a chat conversation.
//
// Role must be one of:
//   - "system"    → instructions for the model
//   - "user"      → a user-provided message
//   - "assistant" → a message from the AI assistant
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ValidateMessages checks that every message carries a known role.
func ValidateMessages(messages []ChatMessage) error {
	for i, m := range messages {
		switch m.Role {
		case RoleSystem, RoleUser, RoleAssistant:
		default:
			return fmt.Errorf("message %d: unknown role %q", i, m.Role)
		}
	}
	return nil
}

// Rendered is the result of applying a chat template. Text is set when the
// template was applied without tokenizing, Tokens when tokenizing.
type Rendered struct {
	Text   string
	Tokens []int
}

// ChatTemplater turns a conversation into the single string a model expects.
type ChatTemplater interface {
	ApplyChatTemplate(ctx context.Context, messages []ChatMessage, tokenize bool) (Rendered, error)
}

// TextEncoder converts text to token ids without padding or truncation.
type TextEncoder interface {
	Encode(text string) ([]int, error)
}

// Padding selects how a Tokenizer pads sequences.
type Padding string

const (
	// PaddingMaxLength pads every sequence to TokenizeRequest.MaxLength.
	PaddingMaxLength Padding = "max_length"
	// PaddingLongest pads every sequence to the longest one in the batch.
	PaddingLongest Padding = "longest"
	// PaddingNone leaves sequences at their encoded length.
	PaddingNone Padding = "do_not_pad"
)

// TokenizeRequest describes a batch to tokenize. TextTarget is optional;
// when set it must have the same length as Text and is tokenized into the
// "labels" field.
type TokenizeRequest struct {
	Text       []string
	TextTarget []string
	Padding    Padding
	Truncation bool
	MaxLength  int
}

// TokenizedBatch maps a field name (input_ids, attention_mask, labels) to one
// sequence per example.
type TokenizedBatch map[string][][]int

// Tokenizer tokenizes batches of text.
type Tokenizer interface {
	Tokenize(ctx context.Context, req TokenizeRequest) (TokenizedBatch, error)
}

// Pipeline bundles the chat template and tokenizer of one model.
type Pipeline interface {
	ChatTemplater
	Tokenizer
}

type pipeline struct {
	ChatTemplater
	Tokenizer
}

// NewPipeline combines a templater and a tokenizer into a Pipeline.
func NewPipeline(templater ChatTemplater, tokenizer Tokenizer) Pipeline {
	return pipeline{
		ChatTemplater: templater,
		Tokenizer:     tokenizer,
	}
}
