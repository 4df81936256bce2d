package llm

import (
	"context"
	"errors"
	"os"
	"strings"
)

// Provider defines the interface for generation providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Generate issues one generation request. Implementations never retry.
	Generate(ctx context.Context, req Request) (*Response, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// Request describes one "generate content" call
type Request struct {
	// Model is the specific model to use (provider-specific, falls back to Config.Model)
	Model string

	// Prompt is the user content sent to the model
	Prompt string

	// SystemInstruction is required for every call
	SystemInstruction string

	// Schema constrains the response shape. Nil means free text.
	Schema *Schema

	// MaxTokens limits the response length (0 uses the provider default)
	MaxTokens int
}

// Response contains the provider output
type Response struct {
	// Text is the raw payload, JSON-encoded when a schema was supplied
	Text string

	// Model is the model that generated the response
	Model string

	// TokensUsed tracks token consumption when the provider reports it
	TokensUsed int
}

// ErrMissingSystemInstruction is returned for requests without a system instruction
var ErrMissingSystemInstruction = errors.New("system instruction is required")

// Validate checks the request invariants shared by all providers
func (r Request) Validate() error {
	if strings.TrimSpace(r.SystemInstruction) == "" {
		return ErrMissingSystemInstruction
	}
	return nil
}

// Config holds provider configuration
type Config struct {
	// Provider name: "gemini", "openai", "anthropic", "ollama"
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey is resolved once at construction. Empty is allowed; calls then
	// fail with ErrMissingCredential.
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama, test servers)
	BaseURL string

	// Timeout for API requests in seconds. 0 leaves the transport default.
	Timeout int

	// MaxTokens for response generation
	MaxTokens int

	// Temperature for sampling
	Temperature float32

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultModel is used when neither the request nor the config name one
const DefaultModel = "gemini-3-flash-preview"

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:    "gemini",
		Model:       DefaultModel,
		Temperature: 0.3,
	}
}

// credentialEnv lists the environment variables consulted per provider, in order
var credentialEnv = map[string][]string{
	"gemini":    {"GEMINI_API_KEY", "GOOGLE_API_KEY", "API_KEY"},
	"openai":    {"OPENAI_API_KEY"},
	"anthropic": {"ANTHROPIC_API_KEY"},
}

// LookupAPIKey resolves the credential for a provider. lookupEnv has the
// signature of os.LookupEnv. The boolean reports whether a key was found.
func LookupAPIKey(provider string, lookupEnv func(string) (string, bool)) (string, bool) {
	if lookupEnv == nil {
		lookupEnv = os.LookupEnv
	}

	names := append([]string{"ENQUETE_API_KEY"}, credentialEnv[CanonicalProvider(provider)]...)
	for _, name := range names {
		if v, ok := lookupEnv(name); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v), true
		}
	}
	return "", false
}

// resolveModel picks the request model, then the configured one, then fallback
func resolveModel(req Request, cfg Config, fallback string) string {
	if req.Model != "" {
		return req.Model
	}
	if cfg.Model != "" {
		return cfg.Model
	}
	return fallback
}

// resolveMaxTokens picks the request limit, then the configured one, then fallback
func resolveMaxTokens(req Request, cfg Config, fallback int) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	if cfg.MaxTokens > 0 {
		return cfg.MaxTokens
	}
	return fallback
}
