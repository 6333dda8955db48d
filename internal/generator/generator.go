package generator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/invopop/jsonschema"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"bugscribe.app/bugscribe/common/llm"
	"bugscribe.app/bugscribe/common/logger"
	"bugscribe.app/bugscribe/internal/model"
	"bugscribe.app/bugscribe/internal/prompt"
	"bugscribe.app/bugscribe/internal/schema"
)

const (
	DefaultMaxAttempts = 3
	DefaultTemperature = 0.1

	schemaName  = "bug_report"
	rawLogLimit = 2000
)

type Config struct {
	MaxAttempts int
	Temperature float64
	Structured  bool          // Send the report schema with each request
	Backoff     time.Duration // Pause between attempts
}

// Generator obtains validated reports from a remote model, retrying transport and
// shape failures up to MaxAttempts. It holds no per-call state and is safe for
// concurrent use.
type Generator struct {
	remote llm.Generator
	cfg    Config
	schema *jsonschema.Schema
}

func New(remote llm.Generator, cfg Config) *Generator {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}

	g := &Generator{remote: remote, cfg: cfg}
	if cfg.Structured {
		g.schema = llm.GenerateSchema[model.Report]()
	}
	return g
}

func (g *Generator) MaxAttempts() int {
	return g.cfg.MaxAttempts
}

// Generate returns a validated report for userInput.
//
// A nil report with a nil error means every attempt produced text that did not
// parse or validate. A *GenerationError is returned when the remote call fails
// on the final attempt, or when ctx ends between attempts.
func (g *Generator) Generate(ctx context.Context, userInput string) (*model.Report, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Component: "bugscribe.generator",
		Model:     logger.Ptr(g.remote.Model()),
	})

	p := prompt.BuildBugReport(userInput)

	for attempt := 1; attempt <= g.cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			if err := g.wait(ctx); err != nil {
				return nil, &GenerationError{Attempts: attempt - 1, Cause: err}
			}
		}

		attemptCtx := logger.WithLogFields(ctx, logger.LogFields{Attempt: logger.Ptr(attempt)})
		final := attempt == g.cfg.MaxAttempts

		report, err := g.attempt(attemptCtx, p, attempt)
		if err == nil {
			slog.InfoContext(attemptCtx, "bug report generated", "title", report.Title)
			return &report, nil
		}

		var transportErr *TransportError
		var shapeErr *ShapeError
		switch {
		case errors.As(err, &transportErr):
			slog.WarnContext(attemptCtx, "remote generation call failed", "error", transportErr.Err, "final", final)
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, &GenerationError{Attempts: attempt, Cause: ctxErr}
			}
			if final {
				return nil, &GenerationError{Attempts: attempt, Cause: transportErr.Err}
			}

		case errors.As(err, &shapeErr):
			attrs := []any{"error", shapeErr.Err, "final", final}
			if final {
				attrs = append(attrs, "raw_response", logger.Truncate(shapeErr.Raw, rawLogLimit))
			}
			slog.WarnContext(attemptCtx, "response failed schema validation", attrs...)

		default:
			return nil, err
		}
	}

	slog.ErrorContext(ctx, "no valid bug report after all attempts", "attempts", g.cfg.MaxAttempts)
	return nil, nil
}

func (g *Generator) attempt(ctx context.Context, p string, n int) (model.Report, error) {
	sc := logger.StartSpan(ctx, "generator.attempt",
		trace.WithAttributes(attribute.Int("attempt", n)))
	defer sc.End()
	ctx = sc.Context()

	req := llm.Request{
		Prompt:      p,
		Temperature: llm.Temp(g.cfg.Temperature),
	}
	if g.schema != nil {
		req.SchemaName = schemaName
		req.Schema = g.schema
	}

	raw, err := g.remote.Generate(ctx, req)
	if err != nil {
		sc.RecordError(err)
		return model.Report{}, &TransportError{Err: err}
	}

	var candidate any
	if err := json.Unmarshal([]byte(StripCodeFence(raw)), &candidate); err != nil {
		sc.RecordError(err)
		return model.Report{}, &ShapeError{Raw: raw, Err: fmt.Errorf("parse response: %w", err)}
	}

	report, err := schema.Decode(ctx, candidate)
	if err != nil {
		sc.RecordError(err)
		return model.Report{}, &ShapeError{Raw: raw, Err: err}
	}

	return report, nil
}

func (g *Generator) wait(ctx context.Context) error {
	if g.cfg.Backoff <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(g.cfg.Backoff)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// StripCodeFence removes a leading ```json marker and a trailing ``` marker.
// Each is stripped independently of the other.
func StripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}
