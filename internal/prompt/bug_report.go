package prompt

import (
	"fmt"
	"strings"

	"bugscribe.app/bugscribe/internal/model"
)

// BuildBugReport builds the instruction sent to the remote model. The user text is
// embedded verbatim; an empty string is accepted and rejected upstream.
func BuildBugReport(userInput string) string {
	var sb strings.Builder

	sb.WriteString("You are a bug report formatter.\n")
	sb.WriteString("You must respond ONLY with valid JSON in the following structure:\n")
	sb.WriteString("{\n")
	for i, field := range model.Fields {
		sep := ","
		if i == len(model.Fields)-1 {
			sep = ""
		}
		fmt.Fprintf(&sb, "  %q: \"string\"%s\n", field, sep)
	}
	sb.WriteString("}\n")
	sb.WriteString("Do not include any text outside JSON.\n\n")

	fmt.Fprintf(&sb, "User input: %s\n\n", userInput)

	sb.WriteString("Ensure all fields are present and are strings.\n")
	sb.WriteString("Title: Aim for a length of 20-50 characters, avoid generic titles. ")
	sb.WriteString("The title should include keywords that describe the issue and relevant context like \"what\", \"where\" and \"when\".\n")
	sb.WriteString("Steps: Number each step and put every step on its own line.\n")
	sb.WriteString("Focus on clarity and completeness. If any information is missing from the user input, ")
	sb.WriteString("make reasonable assumptions or indicate where information might be incomplete.")

	return sb.String()
}
