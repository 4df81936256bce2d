package llm

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

const ollamaBaseURL = "http://localhost:11434"

// ErrModelRequired is returned when Ollama is selected without a model;
// there is no sensible default for a local install
var ErrModelRequired = errors.New("ollama model must be specified (e.g., llama3.1:8b, mistral)")

// OllamaProvider implements the Provider interface for Ollama local models
type OllamaProvider struct {
	rest   *restClient
	config Config
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Format   map[string]any  `json:"format,omitempty"`
	Options  ollamaOptions   `json:"options"`
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaOptions struct {
	Temperature float32 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaChatResponse struct {
	Model           string        `json:"model"`
	Message         ollamaMessage `json:"message"`
	Done            bool          `json:"done"`
	PromptEvalCount int           `json:"prompt_eval_count"`
	EvalCount       int           `json:"eval_count"`
}

func decodeOllamaError(body []byte) (string, string) {
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &e) != nil {
		return "", ""
	}
	return "", e.Error
}

// NewOllamaProvider creates a new Ollama provider
func NewOllamaProvider(config Config) (*OllamaProvider, error) {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = ollamaBaseURL
	}

	return &OllamaProvider{
		// Local models can take minutes on CPU
		rest:   newRESTClient("ollama", baseURL, nil, config, 5*time.Minute),
		config: config,
	}, nil
}

// Name returns the provider name
func (p *OllamaProvider) Name() string {
	return "ollama"
}

// IsAvailable checks the daemon answers on /api/tags
func (p *OllamaProvider) IsAvailable(ctx context.Context) bool {
	return p.rest.ping(ctx, "/api/tags")
}

// Generate calls /api/chat once without streaming. Ollama constrains the
// output with the raw JSON schema passed as format.
func (p *OllamaProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	model := resolveModel(req, p.config, "")
	if model == "" {
		return nil, ErrModelRequired
	}

	chat := ollamaChatRequest{
		Model: model,
		Messages: []ollamaMessage{
			{Role: "system", Content: req.SystemInstruction},
			{Role: "user", Content: req.Prompt},
		},
		Options: ollamaOptions{
			Temperature: p.config.Temperature,
			NumPredict:  resolveMaxTokens(req, p.config, 0),
		},
	}
	if req.Schema != nil {
		chat.Format = req.Schema.Map()
	}

	var resp ollamaChatResponse
	if err := p.rest.postJSON(ctx, "/api/chat", chat, &resp, decodeOllamaError); err != nil {
		return nil, err
	}

	return &Response{
		Text:       stripCodeFence(resp.Message.Content),
		Model:      resp.Model,
		TokensUsed: resp.PromptEvalCount + resp.EvalCount,
	}, nil
}
