package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	OTel       OTelConfig
	LLM        LLMConfig
	Generation GenerationConfig
	HTTP       HTTPConfig
	Env        string
	LogLevel   string // debug, info, warn, error; empty picks a default per Env
	NodeID     int64
}

type OTelConfig struct {
	Endpoint       string
	Headers        string
	ServiceName    string
	ServiceVersion string
	Environment    string
	SampleRatio    float64 // 0 or >= 1 samples everything
}

type LLMConfig struct {
	Provider string // "gemini", "openai" or "fake"
	Gemini   ProviderConfig
	OpenAI   ProviderConfig
	RPS      float64 // 0 disables client-side rate limiting
	Burst    int
}

type ProviderConfig struct {
	APIKey  string
	BaseURL string // Optional: custom endpoint
	Model   string
}

type GenerationConfig struct {
	MaxAttempts      int
	Temperature      float64
	StructuredOutput bool          // Ask the provider for schema-constrained JSON
	Backoff          time.Duration // Pause between attempts; 0 retries immediately
}

type HTTPConfig struct {
	Port              string
	GenerationTimeout time.Duration
	MaxInputLength    int
}

type ServiceType string

const (
	ServiceTypeServer ServiceType = "server"
	ServiceTypeCLI    ServiceType = "cli"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderFake   = "fake"
)

// Load reads configuration from environment variables and validates it.
func Load(serviceType ServiceType) (Config, error) {
	cfg := Read(serviceType)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Read loads configuration from environment variables without validating it,
// so callers can apply overrides (such as CLI flags) first.
// In development, it loads from service-specific .env files:
//   - .env.server for the HTTP service
//   - .env.cli for the command line tool
//
// Falls back to .env if service-specific file doesn't exist.
func Read(serviceType ServiceType) Config {
	if getEnv("BUGSCRIBE_ENV", "development") == "development" {
		envFile := fmt.Sprintf(".env.%s", serviceType)
		if err := godotenv.Load(envFile); err != nil {
			_ = godotenv.Load(".env")
		}
	}

	env := getEnv("BUGSCRIBE_ENV", "development")

	cfg := Config{
		Env:      env,
		LogLevel: getEnv("LOG_LEVEL", ""),
		NodeID:   getEnvInt64("NODE_ID", 1),
		OTel: OTelConfig{
			Endpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Headers:        getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""),
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "bugscribe"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "dev"),
			Environment:    env,
			SampleRatio:    getEnvFloat("OTEL_TRACES_SAMPLER_ARG", 1),
		},
		LLM: LLMConfig{
			Provider: getEnv("LLM_PROVIDER", ProviderGemini),
			Gemini: ProviderConfig{
				APIKey:  getEnv("GEMINI_API_KEY", ""),
				BaseURL: getEnv("GEMINI_BASE_URL", ""),
				Model:   getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
			},
			OpenAI: ProviderConfig{
				APIKey:  getEnv("OPENAI_API_KEY", ""),
				BaseURL: getEnv("OPENAI_BASE_URL", ""),
				Model:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			},
			RPS:   getEnvFloat("LLM_RPS", 0),
			Burst: getEnvInt("LLM_BURST", 1),
		},
		Generation: GenerationConfig{
			MaxAttempts:      getEnvInt("MAX_RETRIES", 3),
			Temperature:      getEnvFloat("LLM_TEMPERATURE", 0.1),
			StructuredOutput: getEnvBool("LLM_STRUCTURED_OUTPUT", false),
			Backoff:          getEnvDuration("RETRY_BACKOFF", 0),
		},
		HTTP: HTTPConfig{
			Port:              getEnv("PORT", "8080"),
			GenerationTimeout: getEnvDuration("GENERATION_TIMEOUT", 60*time.Second),
			MaxInputLength:    getEnvInt("MAX_INPUT_LENGTH", 5000),
		},
	}

	return cfg
}

// Validate checks that the selected provider is usable and the retry bound is positive.
func (c Config) Validate() error {
	switch c.LLM.Provider {
	case ProviderGemini:
		if c.LLM.Gemini.APIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY environment variable is required")
		}
	case ProviderOpenAI:
		if c.LLM.OpenAI.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY environment variable is required")
		}
	case ProviderFake:
	default:
		return fmt.Errorf("unsupported LLM_PROVIDER: %q", c.LLM.Provider)
	}

	if c.Generation.MaxAttempts < 1 {
		return fmt.Errorf("MAX_RETRIES must be at least 1, got %d", c.Generation.MaxAttempts)
	}

	return nil
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c OTelConfig) Enabled() bool {
	return c.Endpoint != ""
}

// Active returns the settings of the selected provider.
func (c LLMConfig) Active() ProviderConfig {
	switch c.Provider {
	case ProviderOpenAI:
		return c.OpenAI
	case ProviderGemini:
		return c.Gemini
	default:
		return ProviderConfig{Model: "fake"}
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
