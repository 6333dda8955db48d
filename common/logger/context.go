package logger

import (
	"context"
	"log/slog"
)

type contextKey string

const logFieldsKey contextKey = "log_fields"

// LogFields contains structured fields automatically added to all logs within a context.
// The orchestrator sets the report ID once; the generation client adds the attempt number,
// so every line emitted while producing a report can be correlated without threading arguments.
type LogFields struct {
	ReportID  *int64  // Snowflake ID assigned to the request
	Attempt   *int    // Generation attempt (1-based)
	Provider  *string // Remote model provider ("gemini", "openai", "fake")
	Model     *string // Remote model name
	Component string  // Component name (e.g., "bugscribe.generator")
}

// WithLogFields enriches context with structured log fields.
// Multiple calls merge fields, with newer non-nil/non-empty values taking precedence.
func WithLogFields(ctx context.Context, fields LogFields) context.Context {
	existing := GetLogFields(ctx)
	merged := mergeFields(existing, fields)
	return context.WithValue(ctx, logFieldsKey, merged)
}

// GetLogFields retrieves log fields from context.
// Returns empty LogFields if none are set.
func GetLogFields(ctx context.Context) LogFields {
	if fields, ok := ctx.Value(logFieldsKey).(LogFields); ok {
		return fields
	}
	return LogFields{}
}

func (f LogFields) attrs() []slog.Attr {
	attrs := make([]slog.Attr, 0, 5)
	if f.ReportID != nil {
		attrs = append(attrs, slog.Int64("report_id", *f.ReportID))
	}
	if f.Attempt != nil {
		attrs = append(attrs, slog.Int("attempt", *f.Attempt))
	}
	if f.Provider != nil {
		attrs = append(attrs, slog.String("provider", *f.Provider))
	}
	if f.Model != nil {
		attrs = append(attrs, slog.String("model", *f.Model))
	}
	if f.Component != "" {
		attrs = append(attrs, slog.String("component", f.Component))
	}
	return attrs
}

func mergeFields(existing, new LogFields) LogFields {
	result := existing

	if new.ReportID != nil {
		result.ReportID = new.ReportID
	}
	if new.Attempt != nil {
		result.Attempt = new.Attempt
	}
	if new.Provider != nil {
		result.Provider = new.Provider
	}
	if new.Model != nil {
		result.Model = new.Model
	}
	if new.Component != "" {
		result.Component = new.Component
	}

	return result
}

// Ptr is a helper to create a pointer from a value.
// Useful for setting LogFields inline: logger.WithLogFields(ctx, logger.LogFields{Attempt: logger.Ptr(n)})
func Ptr[T any](v T) *T {
	return &v
}

// Truncate truncates a string to maxLen bytes, appending "..." if truncated.
// Used for raw model output, which can be arbitrarily long.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
