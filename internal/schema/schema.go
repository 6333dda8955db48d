// Package schema checks untyped candidates decoded from model output against the
// fixed bug report shape and converts them into model.Report.
package schema

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"bugscribe.app/bugscribe/internal/model"
)

// Kind is the JSON type a field must carry.
type Kind string

const KindString Kind = "string"

// Field is one required entry of the schema.
type Field struct {
	Name string
	Kind Kind
}

// BugReport is the required shape of a candidate, in report order.
var BugReport = func() []Field {
	fields := make([]Field, len(model.Fields))
	for i, name := range model.Fields {
		fields[i] = Field{Name: name, Kind: KindString}
	}
	return fields
}()

// NonEmpty lists the fields that must contain text after trimming.
var NonEmpty = []string{model.FieldTitle, model.FieldDescription, model.FieldSteps}

// Problem describes why a single field failed validation.
type Problem struct {
	Field  string
	Reason string
}

// ValidationError enumerates every field that failed validation.
type ValidationError struct {
	Problems []Problem
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		if p.Field == "" {
			parts[i] = p.Reason
			continue
		}
		parts[i] = fmt.Sprintf("%q: %s", p.Field, p.Reason)
	}
	return "schema validation failed: " + strings.Join(parts, "; ")
}

// Validate reports whether candidate is an object carrying every BugReport field as a string.
// Each failing field is logged at debug level; no coercion is attempted.
func Validate(ctx context.Context, candidate any) error {
	obj, ok := candidate.(map[string]any)
	if !ok {
		slog.DebugContext(ctx, "candidate is not an object", "type", typeName(candidate))
		return &ValidationError{Problems: []Problem{{Reason: "expected object, got " + typeName(candidate)}}}
	}

	var problems []Problem
	for _, field := range BugReport {
		value, present := obj[field.Name]
		if !present {
			slog.DebugContext(ctx, "required field missing", "field", field.Name)
			problems = append(problems, Problem{Field: field.Name, Reason: "missing"})
			continue
		}
		if got := typeName(value); Kind(got) != field.Kind {
			slog.DebugContext(ctx, "required field has wrong type",
				"field", field.Name,
				"expected", field.Kind,
				"got", got)
			problems = append(problems, Problem{
				Field:  field.Name,
				Reason: fmt.Sprintf("expected %s, got %s", field.Kind, got),
			})
		}
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// Decode validates candidate and converts it into a Report. Title, description and steps
// must also be non-blank.
func Decode(ctx context.Context, candidate any) (model.Report, error) {
	if err := Validate(ctx, candidate); err != nil {
		return model.Report{}, err
	}

	report := model.ReportFromMap(candidate.(map[string]any))

	var problems []Problem
	for _, name := range NonEmpty {
		if strings.TrimSpace(report.Value(name)) == "" {
			slog.DebugContext(ctx, "required field is empty", "field", name)
			problems = append(problems, Problem{Field: name, Reason: "empty"})
		}
	}
	if len(problems) > 0 {
		return model.Report{}, &ValidationError{Problems: problems}
	}

	return report, nil
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64, float32, int, int64, int32:
		return "number"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	default:
		return fmt.Sprintf("%T", v)
	}
}
