package llm

import (
	"context"
	"encoding/json"
	"strings"
	"time"
)

const (
	anthropicBaseURL      = "https://api.anthropic.com"
	anthropicVersion      = "2023-06-01"
	anthropicDefaultModel = "claude-sonnet-4-5"

	// anthropicToolName is the single tool the model is forced to call for
	// structured responses; its input is the answer
	anthropicToolName = "enregistrer_reponse"
)

// AnthropicProvider implements the Provider interface for Anthropic Claude models
type AnthropicProvider struct {
	rest   *restClient
	config Config
}

type anthropicRequest struct {
	Model       string               `json:"model"`
	MaxTokens   int                  `json:"max_tokens"`
	System      string               `json:"system,omitempty"`
	Messages    []anthropicMessage   `json:"messages"`
	Temperature float32              `json:"temperature,omitempty"`
	Tools       []anthropicTool      `json:"tools,omitempty"`
	ToolChoice  *anthropicToolChoice `json:"tool_choice,omitempty"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicTool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

type anthropicToolChoice struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

// anthropicBlock is one content block: text, or a tool_use carrying input
type anthropicBlock struct {
	Type  string          `json:"type"`
	Text  string          `json:"text,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`
}

type anthropicResponse struct {
	Model      string           `json:"model"`
	Content    []anthropicBlock `json:"content"`
	StopReason string           `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// decodeAnthropicError reads {"type":"error","error":{"type","message"}}
func decodeAnthropicError(body []byte) (string, string) {
	var e struct {
		Error struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &e) != nil {
		return "", ""
	}
	return e.Error.Type, e.Error.Message
}

// NewAnthropicProvider creates a new Anthropic provider
func NewAnthropicProvider(config Config) (*AnthropicProvider, error) {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = anthropicBaseURL
	}

	headers := map[string]string{"anthropic-version": anthropicVersion}
	if config.APIKey != "" {
		headers["x-api-key"] = config.APIKey
	}

	return &AnthropicProvider{
		rest:   newRESTClient("anthropic", baseURL, headers, config, 2*time.Minute),
		config: config,
	}, nil
}

// Name returns the provider name
func (p *AnthropicProvider) Name() string {
	return "anthropic"
}

// IsAvailable lists models, which costs no tokens
func (p *AnthropicProvider) IsAvailable(ctx context.Context) bool {
	return p.config.APIKey != "" && p.rest.ping(ctx, "/v1/models")
}

// Generate calls the Messages API once. A schema turns into a forced call of
// a single tool whose input schema is the requested shape.
func (p *AnthropicProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if p.config.APIKey == "" {
		return nil, &APIError{Provider: p.Name(), Message: ErrMissingCredential.Error(), Err: ErrMissingCredential}
	}

	apiReq := anthropicRequest{
		Model:       resolveModel(req, p.config, anthropicDefaultModel),
		MaxTokens:   resolveMaxTokens(req, p.config, 4096),
		System:      req.SystemInstruction,
		Messages:    []anthropicMessage{{Role: "user", Content: req.Prompt}},
		Temperature: p.config.Temperature,
	}

	var wrapped bool
	if req.Schema != nil {
		var root *Schema
		root, wrapped = objectRoot(req.Schema)
		apiReq.Tools = []anthropicTool{{
			Name:        anthropicToolName,
			Description: "Enregistre la réponse structurée.",
			InputSchema: root.Map(),
		}}
		apiReq.ToolChoice = &anthropicToolChoice{Type: "tool", Name: anthropicToolName}
	}

	var resp anthropicResponse
	if err := p.rest.postJSON(ctx, "/v1/messages", apiReq, &resp, decodeAnthropicError); err != nil {
		return nil, err
	}

	var text string
	if req.Schema != nil {
		input, ok := resp.toolInput()
		if !ok {
			return nil, &APIError{Provider: p.Name(), Message: "no structured output in Anthropic response"}
		}
		text = input
		if wrapped {
			inner, err := unwrapEnvelope(text)
			if err != nil {
				return nil, err
			}
			text = inner
		}
	} else {
		text = stripCodeFence(resp.text())
		if text == "" {
			return nil, &APIError{Provider: p.Name(), Message: "no content in Anthropic response"}
		}
	}

	return &Response{
		Text:       text,
		Model:      resp.Model,
		TokensUsed: resp.Usage.InputTokens + resp.Usage.OutputTokens,
	}, nil
}

func (r *anthropicResponse) toolInput() (string, bool) {
	for _, block := range r.Content {
		if block.Type == "tool_use" && block.Name == anthropicToolName && len(block.Input) > 0 {
			return string(block.Input), true
		}
	}
	return "", false
}

func (r *anthropicResponse) text() string {
	var b strings.Builder
	for _, block := range r.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return b.String()
}
