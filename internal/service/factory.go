package service

import (
	"context"
	"fmt"

	"bugscribe.app/bugscribe/common/llm"
	"bugscribe.app/bugscribe/core/config"
	"bugscribe.app/bugscribe/internal/formatter"
	"bugscribe.app/bugscribe/internal/generator"
)

type Services struct {
	generator *generator.Generator
	formatter formatter.Formatter
	provider  string
}

// NewServices wires the remote model, the generator and the formatter from cfg.
func NewServices(ctx context.Context, cfg config.Config) (*Services, error) {
	active := cfg.LLM.Active()
	remote, err := llm.New(ctx, llm.Config{
		Provider: cfg.LLM.Provider,
		APIKey:   active.APIKey,
		BaseURL:  active.BaseURL,
		Model:    active.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("creating llm client: %w", err)
	}

	svcs := NewServicesWithRemote(llm.WithRateLimit(remote, cfg.LLM.RPS, cfg.LLM.Burst), cfg.Generation)
	svcs.provider = cfg.LLM.Provider
	return svcs, nil
}

// NewServicesWithRemote wires services around an already constructed remote model.
func NewServicesWithRemote(remote llm.Generator, cfg config.GenerationConfig) *Services {
	return &Services{
		generator: generator.New(remote, generator.Config{
			MaxAttempts: cfg.MaxAttempts,
			Temperature: cfg.Temperature,
			Structured:  cfg.StructuredOutput,
			Backoff:     cfg.Backoff,
		}),
		formatter: formatter.NewJira(),
	}
}

func (s *Services) BugReports() BugReportService {
	return &bugReportService{
		generator: s.generator,
		formatter: s.formatter,
		provider:  s.provider,
	}
}
