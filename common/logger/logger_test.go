package logger_test

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"bugscribe.app/bugscribe/common/logger"
	"bugscribe.app/bugscribe/core/config"

	otellog "go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/global"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

var _ = Describe("WithLogFields", func() {
	It("merges newer non-empty values over existing ones", func() {
		ctx := logger.WithLogFields(context.Background(), logger.LogFields{
			ReportID:  logger.Ptr(int64(7)),
			Component: "bugscribe.service",
		})
		ctx = logger.WithLogFields(ctx, logger.LogFields{
			Attempt:   logger.Ptr(2),
			Component: "bugscribe.generator",
		})

		fields := logger.GetLogFields(ctx)
		Expect(*fields.ReportID).To(Equal(int64(7)))
		Expect(*fields.Attempt).To(Equal(2))
		Expect(fields.Component).To(Equal("bugscribe.generator"))
		Expect(fields.Provider).To(BeNil())
	})

	It("returns empty fields for a bare context", func() {
		Expect(logger.GetLogFields(context.Background())).To(Equal(logger.LogFields{}))
	})
})

var _ = Describe("TraceHandler", func() {
	It("adds context fields to every record", func() {
		var buf bytes.Buffer
		log := slog.New(logger.NewTraceHandler(slog.NewTextHandler(&buf, nil)))

		ctx := logger.WithLogFields(context.Background(), logger.LogFields{
			ReportID: logger.Ptr(int64(42)),
			Attempt:  logger.Ptr(3),
			Provider: logger.Ptr("gemini"),
		})
		log.InfoContext(ctx, "attempt failed")

		out := buf.String()
		Expect(out).To(ContainSubstring("report_id=42"))
		Expect(out).To(ContainSubstring("attempt=3"))
		Expect(out).To(ContainSubstring("provider=gemini"))
	})
})

var _ = DescribeTable("Truncate",
	func(input string, maxLen int, expected string) {
		Expect(logger.Truncate(input, maxLen)).To(Equal(expected))
	},
	Entry("short string unchanged", "abc", 5, "abc"),
	Entry("exact length unchanged", "abcde", 5, "abcde"),
	Entry("long string cut", strings.Repeat("x", 10), 4, "xxxx..."),
)

var _ = DescribeTable("Level",
	func(env, level string, expected slog.Level) {
		Expect(logger.Level(config.Config{Env: env, LogLevel: level})).To(Equal(expected))
	},
	Entry("development defaults to debug", "development", "", slog.LevelDebug),
	Entry("production defaults to info", "production", "", slog.LevelInfo),
	Entry("explicit level wins", "development", "warn", slog.LevelWarn),
	Entry("case-insensitive", "production", "ERROR", slog.LevelError),
	Entry("unparsable level falls back", "production", "loud", slog.LevelInfo),
)

var _ = Describe("NewHandler", func() {
	It("writes JSON in production", func() {
		var buf bytes.Buffer
		log := slog.New(logger.NewHandler(config.Config{Env: "production"}, &buf))
		log.Info("hello", "k", "v")
		Expect(buf.String()).To(HavePrefix("{"))
		Expect(buf.String()).To(ContainSubstring(`"k":"v"`))
	})

	It("writes text elsewhere", func() {
		var buf bytes.Buffer
		log := slog.New(logger.NewHandler(config.Config{Env: "development"}, &buf))
		log.Debug("hello", "k", "v")
		Expect(buf.String()).To(ContainSubstring("k=v"))
	})
})

type recordingExporter struct {
	mu      sync.Mutex
	records []sdklog.Record
}

func (e *recordingExporter) Export(_ context.Context, records []sdklog.Record) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, r := range records {
		e.records = append(e.records, r.Clone())
	}
	return nil
}

func (e *recordingExporter) Shutdown(context.Context) error   { return nil }
func (e *recordingExporter) ForceFlush(context.Context) error { return nil }

func (e *recordingExporter) attrs() []map[string]otellog.Value {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]map[string]otellog.Value, 0, len(e.records))
	for _, r := range e.records {
		m := map[string]otellog.Value{}
		r.WalkAttributes(func(kv otellog.KeyValue) bool {
			m[kv.Key] = kv.Value
			return true
		})
		out = append(out, m)
	}
	return out
}

var _ = Describe("NewHandler with an OTLP endpoint", func() {
	var exporter *recordingExporter

	otlpConfig := func(level string) config.Config {
		return config.Config{
			Env:      "production",
			LogLevel: level,
			OTel:     config.OTelConfig{Endpoint: "http://collector:4318", ServiceName: "bugscribe"},
		}
	}

	BeforeEach(func() {
		exporter = &recordingExporter{}
		previous := global.GetLoggerProvider()
		provider := sdklog.NewLoggerProvider(sdklog.WithProcessor(sdklog.NewSimpleProcessor(exporter)))
		global.SetLoggerProvider(provider)
		DeferCleanup(func() {
			global.SetLoggerProvider(previous)
			_ = provider.Shutdown(context.Background())
		})
	})

	It("wraps the bridge so context fields reach the exported record", func() {
		h := logger.NewHandler(otlpConfig(""), &bytes.Buffer{})
		Expect(h).To(BeAssignableToTypeOf(&logger.TraceHandler{}))

		ctx := logger.WithLogFields(context.Background(), logger.LogFields{
			ReportID: logger.Ptr(int64(42)),
			Attempt:  logger.Ptr(2),
		})
		slog.New(h).InfoContext(ctx, "response failed schema validation")

		records := exporter.attrs()
		Expect(records).To(HaveLen(1))
		Expect(records[0]).To(HaveKey("attempt"))
		Expect(records[0]["attempt"].AsInt64()).To(Equal(int64(2)))
		Expect(records[0]["report_id"].AsInt64()).To(Equal(int64(42)))
	})

	It("drops records below LOG_LEVEL", func() {
		h := logger.NewHandler(otlpConfig("warn"), &bytes.Buffer{})
		Expect(h.Enabled(context.Background(), slog.LevelInfo)).To(BeFalse())
		Expect(h.Enabled(context.Background(), slog.LevelWarn)).To(BeTrue())

		log := slog.New(h).With("component", "test")
		log.Info("quiet")
		log.Error("loud")

		records := exporter.attrs()
		Expect(records).To(HaveLen(1))
		Expect(records[0]["component"].AsString()).To(Equal("test"))
	})

	It("defaults to info in production", func() {
		h := logger.NewHandler(otlpConfig(""), &bytes.Buffer{})
		Expect(h.Enabled(context.Background(), slog.LevelDebug)).To(BeFalse())
	})
})
