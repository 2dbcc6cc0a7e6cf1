package ollama

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/OFFIS-RIT/graphtune/internal/util"
	"github.com/OFFIS-RIT/graphtune/pkg/ai"
	"github.com/OFFIS-RIT/graphtune/pkg/logger"

	"github.com/ollama/ollama/api"
	"github.com/ollama/ollama/template"
)

const (
	showTries = 3
	showDelay = 500 * time.Millisecond
)

// Templater implements ai.ChatTemplater with the chat template an Ollama
// server ships for a model, so prompts match what the model was tuned on.
//
// Ollama templates are written for inference and usually end a conversation
// whose last turn is not the assistant's with an open assistant header
// (for Llama 3: <|start_header_id|>assistant<|end_header_id|>\n\n). The
// output is rendered as the template produces it, so a user-only "input"
// column differs from the llama package's, which adds that header only
// with WithGenerationPrompt.
type Templater struct {
	model    string
	template *template.Template
	encoder  ai.TextEncoder
}

// NewTemplaterParams contains configuration options for creating a new Templater.
type NewTemplaterParams struct {
	Model string

	BaseURL string
	ApiKey  string

	// Encoder is required for tokenize=true.
	Encoder ai.TextEncoder

	HTTPClient *http.Client
}

type headerTransport struct {
	headers map[string]string
	rt      http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// clone so original request isn't modified
	r := req.Clone(req.Context())
	for k, v := range t.headers {
		// don't overwrite if already set
		if r.Header.Get(k) == "" {
			r.Header.Set(k, v)
		}
	}
	return t.rt.RoundTrip(r)
}

// NewTemplater asks the Ollama server at BaseURL (or the default from
// OLLAMA_HOST if empty) for the model's template and parses it.
func NewTemplater(ctx context.Context, params NewTemplaterParams) (*Templater, error) {
	if params.Model == "" {
		return nil, errors.New("ollama templater needs a model")
	}

	var (
		u   *url.URL
		err error
	)
	if params.BaseURL != "" {
		u, err = url.Parse(params.BaseURL)
		if err != nil {
			return nil, err
		}
	}

	httpClient := params.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if params.ApiKey != "" {
		rt := httpClient.Transport
		if rt == nil {
			rt = http.DefaultTransport
		}
		httpClient = &http.Client{
			Timeout: httpClient.Timeout,
			Transport: &headerTransport{
				headers: map[string]string{
					"Authorization": "Bearer " + params.ApiKey,
				},
				rt: rt,
			},
		}
	}

	var cli *api.Client
	if u != nil {
		cli = api.NewClient(u, httpClient)
	} else {
		cli, err = api.ClientFromEnvironment()
		if err != nil {
			return nil, err
		}
	}

	resp, err := util.RetryWithContext(ctx, showTries, showDelay, func(ctx context.Context) (*api.ShowResponse, error) {
		resp, err := cli.Show(ctx, &api.ShowRequest{Model: params.Model})
		var statusErr api.StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode < http.StatusInternalServerError {
			return nil, util.Permanent(err)
		}
		if err != nil {
			logger.Warn("[Ollama] Show failed", "model", params.Model, "err", err)
		}
		return resp, err
	})
	if err != nil {
		return nil, fmt.Errorf("show model %s: %w", params.Model, err)
	}
	if resp.Template == "" {
		return nil, fmt.Errorf("model %s has no chat template", params.Model)
	}

	logger.Debug("[Ollama] Loaded chat template", "model", params.Model, "bytes", len(resp.Template))
	return NewTemplaterFromSource(params.Model, resp.Template, params.Encoder)
}

// NewTemplaterFromSource parses an Ollama (Go text/template) chat template.
func NewTemplaterFromSource(model, source string, enc ai.TextEncoder) (*Templater, error) {
	tmpl, err := template.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("parse template for %s: %w", model, err)
	}
	return &Templater{
		model:    model,
		template: tmpl,
		encoder:  enc,
	}, nil
}

// ApplyChatTemplate renders messages with the model's template.
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

	msgs := make([]api.Message, 0, len(messages))
	for _, m := range messages {
		msgs = append(msgs, api.Message{Role: m.Role, Content: m.Content})
	}

	var buf bytes.Buffer
	if err := t.template.Execute(&buf, template.Values{Messages: msgs}); err != nil {
		return ai.Rendered{}, fmt.Errorf("execute template for %s: %w", t.model, err)
	}

	if !tokenize {
		return ai.Rendered{Text: buf.String()}, nil
	}
	tokens, err := t.encoder.Encode(buf.String())
	if err != nil {
		return ai.Rendered{}, err
	}
	return ai.Rendered{Tokens: tokens}, nil
}
