package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"
)

// GeminiProvider implements the Provider interface for Google Gemini models
type GeminiProvider struct {
	client *genai.Client // nil when no API key was configured
	config Config
}

// NewGeminiProvider creates a new Gemini provider. A missing API key is not
// an error here; Generate reports it instead.
func NewGeminiProvider(ctx context.Context, config Config) (*GeminiProvider, error) {
	p := &GeminiProvider{config: config}
	if config.APIKey == "" {
		return p, nil
	}

	clientConfig := &genai.ClientConfig{
		APIKey:     config.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: newHTTPClient(config, 2*time.Minute),
	}
	if config.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: config.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	p.client = client
	return p, nil
}

// Name returns the provider name
func (p *GeminiProvider) Name() string {
	return "gemini"
}

// IsAvailable checks that the configured model can be looked up
func (p *GeminiProvider) IsAvailable(ctx context.Context) bool {
	if p.client == nil {
		return false
	}
	_, err := p.client.Models.Get(ctx, resolveModel(Request{}, p.config, DefaultModel), nil)
	return err == nil
}

// Generate calls generateContent once
func (p *GeminiProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if p.client == nil {
		return nil, &APIError{Provider: p.Name(), Message: ErrMissingCredential.Error(), Err: ErrMissingCredential}
	}

	model := resolveModel(req, p.config, DefaultModel)

	temperature := p.config.Temperature
	genConfig := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(req.SystemInstruction, genai.RoleUser),
		Temperature:       &temperature,
	}
	if maxTokens := resolveMaxTokens(req, p.config, 0); maxTokens > 0 {
		genConfig.MaxOutputTokens = int32(maxTokens)
	}
	if req.Schema != nil {
		genConfig.ResponseMIMEType = "application/json"
		genConfig.ResponseSchema = toGenAISchema(req.Schema)
	}

	resp, err := p.client.Models.GenerateContent(ctx, model, genai.Text(req.Prompt), genConfig)
	if err != nil {
		return nil, &APIError{Provider: p.Name(), Err: err}
	}

	out := &Response{
		Text:  strings.TrimSpace(resp.Text()),
		Model: model,
	}
	if resp.ModelVersion != "" {
		out.Model = resp.ModelVersion
	}
	if resp.UsageMetadata != nil {
		out.TokensUsed = int(resp.UsageMetadata.TotalTokenCount)
	}
	return out, nil
}

// toGenAISchema translates the neutral schema into the Gemini response schema
func toGenAISchema(s *Schema) *genai.Schema {
	if s == nil {
		return nil
	}

	out := &genai.Schema{
		Description: s.Description,
		Enum:        s.Enum,
		Required:    s.Required,
	}
	switch s.Type {
	case TypeArray:
		out.Type = genai.TypeArray
	case TypeObject:
		out.Type = genai.TypeObject
	default:
		out.Type = genai.TypeString
	}

	if s.Items != nil {
		out.Items = toGenAISchema(s.Items)
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = toGenAISchema(prop)
		}
		out.PropertyOrdering = s.orderedProperties()
	}
	return out
}
