package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"bugscribe.app/bugscribe/common/id"
	"bugscribe.app/bugscribe/common/logger"
	"bugscribe.app/bugscribe/internal/formatter"
	"bugscribe.app/bugscribe/internal/model"
)

var ErrEmptyInput = errors.New("input text cannot be empty")

// Error wraps any failure of the generate-and-format sequence.
type Error struct {
	Cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("failed to generate formatted report: %v", e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// ReportGenerator produces a validated report, or nil when the model never
// returned a usable one.
type ReportGenerator interface {
	Generate(ctx context.Context, userInput string) (*model.Report, error)
}

type Result struct {
	ID        int64
	Report    model.Report
	Formatted string
}

type BugReportService interface {
	// Process returns nil, nil when no report could be generated.
	Process(ctx context.Context, userInput string) (*Result, error)
}

type bugReportService struct {
	generator ReportGenerator
	formatter formatter.Formatter
	provider  string
}

func NewBugReportService(generator ReportGenerator, f formatter.Formatter) BugReportService {
	return &bugReportService{
		generator: generator,
		formatter: f,
	}
}

func (s *bugReportService) Process(ctx context.Context, userInput string) (*Result, error) {
	if strings.TrimSpace(userInput) == "" {
		return nil, ErrEmptyInput
	}

	reportID := id.New()
	fields := logger.LogFields{
		ReportID:  &reportID,
		Component: "bugscribe.service",
	}
	if s.provider != "" {
		fields.Provider = &s.provider
	}
	ctx = logger.WithLogFields(ctx, fields)

	sc := logger.StartSpan(ctx, "service.process_bug_report")
	defer sc.End()
	ctx = sc.Context()
	sc.Span().SetAttributes(
		attribute.Int64("report_id", reportID),
		attribute.Int("input_length", len(userInput)),
	)

	report, err := s.generator.Generate(ctx, userInput)
	if err != nil {
		sc.RecordError(err)
		slog.ErrorContext(ctx, "bug report generation failed", "error", err)
		return nil, &Error{Cause: err}
	}

	if report == nil {
		slog.WarnContext(ctx, "unable to generate bug report")
		return nil, nil
	}

	formatted := s.formatter.Format(*report)
	slog.InfoContext(ctx, "bug report formatted", "report", report.String())

	return &Result{
		ID:        reportID,
		Report:    *report,
		Formatted: formatted,
	}, nil
}
