package model

import "fmt"

// Keys used by the remote model's JSON output and by the rendered report labels.
const (
	FieldTitle          = "Title"
	FieldDescription    = "Description of the issue"
	FieldSteps          = "Steps"
	FieldExpectedResult = "Expected result"
	FieldActualResult   = "Actual result"
)

// Fields lists the report keys in rendering order.
var Fields = []string{
	FieldTitle,
	FieldDescription,
	FieldSteps,
	FieldExpectedResult,
	FieldActualResult,
}

// Report is a structured bug report. Values are plain text.
type Report struct {
	Title          string `json:"Title" jsonschema:"description=Short summary naming what fails where and when"`
	Description    string `json:"Description of the issue" jsonschema:"description=What goes wrong and in which context"`
	Steps          string `json:"Steps" jsonschema:"description=Numbered steps to reproduce separated by line breaks"`
	ExpectedResult string `json:"Expected result" jsonschema:"description=Behaviour the user expected"`
	ActualResult   string `json:"Actual result" jsonschema:"description=Behaviour that actually happened"`
}

// ToMap converts the report into its generic keyed form.
func (r Report) ToMap() map[string]any {
	return map[string]any{
		FieldTitle:          r.Title,
		FieldDescription:    r.Description,
		FieldSteps:          r.Steps,
		FieldExpectedResult: r.ExpectedResult,
		FieldActualResult:   r.ActualResult,
	}
}

// Value returns the field stored under key, or "" for an unknown key.
func (r Report) Value(key string) string {
	switch key {
	case FieldTitle:
		return r.Title
	case FieldDescription:
		return r.Description
	case FieldSteps:
		return r.Steps
	case FieldExpectedResult:
		return r.ExpectedResult
	case FieldActualResult:
		return r.ActualResult
	default:
		return ""
	}
}

// ReportFromMap builds a report from its generic keyed form. Missing or non-string
// values become empty strings; callers that need a strict conversion use schema.Decode.
func ReportFromMap(m map[string]any) Report {
	return Report{
		Title:          stringValue(m, FieldTitle),
		Description:    stringValue(m, FieldDescription),
		Steps:          stringValue(m, FieldSteps),
		ExpectedResult: stringValue(m, FieldExpectedResult),
		ActualResult:   stringValue(m, FieldActualResult),
	}
}

func (r Report) String() string {
	desc := r.Description
	if len(desc) > 50 {
		desc = desc[:50] + "..."
	}
	return fmt.Sprintf("Report(title=%q, description=%q)", r.Title, desc)
}

func stringValue(m map[string]any, key string) string {
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}
