// Package llama renders conversations in the Llama 3 instruct chat format.
package llama

import (
	"context"
	"strings"

	"github.com/OFFIS-RIT/graphtune/pkg/ai"

	"github.com/valyala/fasttemplate"
)

const (
	beginOfText     = "<|begin_of_text|>"
	messageTemplate = "<|start_header_id|>[[role]]<|end_header_id|>\n\n[[content]]<|eot_id|>"
	headerTemplate  = "<|start_header_id|>[[role]]<|end_header_id|>\n\n"
)

// Templater implements ai.ChatTemplater for Llama 3 instruct models.
type Templater struct {
	message *fasttemplate.Template
	header  *fasttemplate.Template

	encoder             ai.TextEncoder
	addGenerationPrompt bool
}

// Option configures a Templater.
type Option func(*Templater)

// WithEncoder sets the encoder used when the template is applied with
// tokenize set.
func WithEncoder(enc ai.TextEncoder) Option {
	return func(t *Templater) {
		t.encoder = enc
	}
}

// WithGenerationPrompt appends an empty assistant header after the last
// message, which is what inference prompts end with.
func WithGenerationPrompt() Option {
	return func(t *Templater) {
		t.addGenerationPrompt = true
	}
}

// NewTemplater creates a Llama 3 templater.
func NewTemplater(opts ...Option) *Templater {
	t := &Templater{
		// [[ ]] tags keep literal braces in message content out of the way
		message: fasttemplate.New(messageTemplate, "[[", "]]"),
		header:  fasttemplate.New(headerTemplate, "[[", "]]"),
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// ApplyChatTemplate renders messages as
//
//	<|begin_of_text|><|start_header_id|>user<|end_header_id|>\n\n...<|eot_id|>
//
// Message content is trimmed of surrounding whitespace.
func (t *Templater) ApplyChatTemplate(ctx context.Context, messages []ai.ChatMessage, tokenize bool) (ai.Rendered, error) {
	if err := ctx.Err(); err != nil {
		return ai.Rendered{}, err
	}
	if err := ai.ValidateMessages(messages); err != nil {
		return ai.Rendered{}, err
	}
	if tokenize && t.encoder == nil {
		return ai.Rendered{}, ai.ErrNoEncoder
	}

	var b strings.Builder
	b.WriteString(beginOfText)
	for _, m := range messages {
		b.WriteString(t.message.ExecuteString(map[string]any{
			"role":    m.Role,
			"content": strings.TrimSpace(m.Content),
		}))
	}
	if t.addGenerationPrompt {
		b.WriteString(t.header.ExecuteString(map[string]any{
			"role": ai.RoleAssistant,
		}))
	}

	text := b.String()
	if !tokenize {
		return ai.Rendered{Text: text}, nil
	}
	tokens, err := t.encoder.Encode(text)
	if err != nil {
		return ai.Rendered{}, err
	}
	return ai.Rendered{Tokens: tokens}, nil
}
