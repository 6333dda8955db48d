// Package formatter renders reports into ticket markup.
package formatter

import (
	"fmt"
	"strings"

	"bugscribe.app/bugscribe/internal/model"
)

type Formatter interface {
	Format(report model.Report) string
}

// Jira renders reports as Jira wiki markup: one "*Label*:\nvalue" block per field,
// blocks separated by a blank line. Line breaks inside Steps are doubled so each
// step renders as its own paragraph.
type Jira struct{}

func NewJira() *Jira {
	return &Jira{}
}

func (j *Jira) Format(report model.Report) string {
	blocks := make([]string, 0, len(model.Fields))
	for _, field := range model.Fields {
		value := report.Value(field)
		if field == model.FieldSteps {
			value = strings.ReplaceAll(value, "\n", "\n\n")
		}
		blocks = append(blocks, fmt.Sprintf("*%s*:\n%s", field, value))
	}
	return strings.Join(blocks, "\n\n")
}
