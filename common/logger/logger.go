package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/trace"

	"bugscribe.app/bugscribe/core/config"
)

// Setup installs the process-wide slog handler writing to stdout.
func Setup(cfg config.Config) {
	SetupWriter(cfg, os.Stdout)
}

// SetupWriter is Setup with an explicit destination. The CLI logs to stderr so stdout
// only carries the report.
func SetupWriter(cfg config.Config, w io.Writer) {
	slog.SetDefault(slog.New(NewHandler(cfg, w)))
}

// NewHandler picks the handler for cfg, always wrapped in a TraceHandler:
//   - production with an OTLP endpoint: otelslog bridge (records ship with the trace)
//   - production: JSON to w
//   - otherwise: human-readable text to w
func NewHandler(cfg config.Config, w io.Writer) slog.Handler {
	if cfg.IsProduction() && cfg.OTel.Enabled() {
		bridge := otelslog.NewHandler(
			cfg.OTel.ServiceName,
			otelslog.WithLoggerProvider(global.GetLoggerProvider()),
		)
		// The bridge has no level option.
		return &TraceHandler{Handler: bridge, level: Level(cfg)}
	}

	opts := &slog.HandlerOptions{Level: Level(cfg)}
	if cfg.IsProduction() {
		return NewTraceHandler(slog.NewJSONHandler(w, opts))
	}
	return NewTraceHandler(slog.NewTextHandler(w, opts))
}

// Level returns cfg.LogLevel when it parses, else debug in development and info elsewhere.
func Level(cfg config.Config) slog.Level {
	if cfg.LogLevel != "" {
		var lvl slog.Level
		if err := lvl.UnmarshalText([]byte(strings.TrimSpace(cfg.LogLevel))); err == nil {
			return lvl
		}
	}
	if cfg.IsDevelopment() {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// TraceHandler adds the active span IDs and the context LogFields to every record.
type TraceHandler struct {
	slog.Handler
	level slog.Leveler // nil defers entirely to Handler
}

func NewTraceHandler(h slog.Handler) *TraceHandler {
	return &TraceHandler{Handler: h}
}

func (h *TraceHandler) Enabled(ctx context.Context, l slog.Level) bool {
	if h.level != nil && l < h.level.Level() {
		return false
	}
	return h.Handler.Enabled(ctx, l)
}

func (h *TraceHandler) Handle(ctx context.Context, r slog.Record) error {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		r.AddAttrs(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	r.AddAttrs(GetLogFields(ctx).attrs()...)

	return h.Handler.Handle(ctx, r)
}

func (h *TraceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &TraceHandler{Handler: h.Handler.WithAttrs(attrs), level: h.level}
}

func (h *TraceHandler) WithGroup(name string) slog.Handler {
	return &TraceHandler{Handler: h.Handler.WithGroup(name), level: h.level}
}
