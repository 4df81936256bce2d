package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
)

// OpenAIProvider implements the Provider interface for OpenAI models
type OpenAIProvider struct {
	client *openai.Client
	config Config
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(config Config) (*OpenAIProvider, error) {
	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}, nil
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// IsAvailable checks if the provider is properly configured
func (p *OpenAIProvider) IsAvailable(ctx context.Context) bool {
	if p.config.APIKey == "" {
		return false
	}
	// Simple check: try to list models (lightweight API call)
	_, err := p.client.ListModels(ctx)
	return err == nil
}

// Generate calls the Chat Completions API once
func (p *OpenAIProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if p.config.APIKey == "" {
		return nil, &APIError{Provider: p.Name(), Message: ErrMissingCredential.Error(), Err: ErrMissingCredential}
	}

	model := resolveModel(req, p.config, openai.GPT4oMini)

	chatReq := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.SystemInstruction},
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
		MaxTokens:   resolveMaxTokens(req, p.config, 0),
		Temperature: p.config.Temperature,
	}

	// Structured outputs need an object root
	var wrapped bool
	if req.Schema != nil {
		var root *Schema
		root, wrapped = objectRoot(req.Schema)
		def := toOpenAIDefinition(root)
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "response",
				Schema: &def,
				Strict: true,
			},
		}
	}

	resp, err := p.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, p.translateError(err)
	}

	if len(resp.Choices) == 0 {
		return nil, &APIError{Provider: p.Name(), Message: "no response from OpenAI"}
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if wrapped && text != "" {
		inner, err := unwrapEnvelope(text)
		if err != nil {
			return nil, err
		}
		text = inner
	}

	return &Response{
		Text:       text,
		Model:      resp.Model,
		TokensUsed: resp.Usage.TotalTokens,
	}, nil
}

// translateError keeps the SDK error while exposing its HTTP status
func (p *OpenAIProvider) translateError(err error) error {
	out := &APIError{Provider: p.Name(), Err: err}

	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		out.StatusCode = apiErr.HTTPStatusCode
		out.Message = apiErr.Message
		out.Status = apiErr.Type
	case errors.As(err, &reqErr):
		out.StatusCode = reqErr.HTTPStatusCode
	}
	return out
}

// toOpenAIDefinition translates the neutral schema for strict structured outputs
func toOpenAIDefinition(s *Schema) jsonschema.Definition {
	def := jsonschema.Definition{
		Description: s.Description,
		Enum:        s.Enum,
	}

	switch s.Type {
	case TypeArray:
		def.Type = jsonschema.Array
		if s.Items != nil {
			items := toOpenAIDefinition(s.Items)
			def.Items = &items
		}
	case TypeObject:
		def.Type = jsonschema.Object
		def.Properties = make(map[string]jsonschema.Definition, len(s.Properties))
		for name, prop := range s.Properties {
			def.Properties[name] = toOpenAIDefinition(prop)
		}
		// Strict mode requires every property listed and no extras
		def.Required = s.orderedProperties()
		def.AdditionalProperties = false
	default:
		def.Type = jsonschema.String
	}
	return def
}
