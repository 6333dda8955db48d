package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/invopop/jsonschema"
)

// Provider constants for LLM provider selection.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderFake   = "fake"
)

var (
	ErrEmptyAPIKey     = errors.New("API key is required")
	ErrNoCandidates    = errors.New("no candidates in response")
	ErrContentBlocked  = errors.New("response blocked by provider")
	ErrOutputTruncated = errors.New("response truncated due to token limit")
)

// Config holds remote model configuration.
type Config struct {
	Provider string // "gemini", "openai" or "fake"
	APIKey   string
	BaseURL  string // Optional: custom API endpoint
	Model    string
}

// Request is a single remote generation call.
type Request struct {
	Prompt      string
	Temperature *float64 // nil = model default

	// Schema, when set, asks the provider to constrain output to this JSON schema.
	// Nil requests free text.
	SchemaName string
	Schema     *jsonschema.Schema
}

// Generator turns a prompt into text using a hosted model. Implementations own
// authentication and transport; callers own timeouts through ctx.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
	Model() string
}

// New creates a Generator for cfg.Provider. Defaults to Gemini if no provider is specified.
func New(ctx context.Context, cfg Config) (Generator, error) {
	provider := cfg.Provider
	if provider == "" {
		provider = ProviderGemini
	}

	switch provider {
	case ProviderGemini:
		return NewGeminiClient(ctx, cfg)
	case ProviderOpenAI:
		return NewOpenAIClient(cfg)
	case ProviderFake:
		return NewFakeClient(), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", provider)
	}
}

// GenerateSchema reflects T into a closed JSON schema suitable for structured output.
func GenerateSchema[T any]() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return reflector.Reflect(v)
}

func Temp(t float64) *float64 {
	return &t
}
