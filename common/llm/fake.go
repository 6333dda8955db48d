package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

const (
	fakeInputMarker = "User input: "
	fakeInputEnd    = "\n\nEnsure all fields"
	fakeTitleMax    = 50
)

// FakeClient answers every prompt with a well-formed report built from the user
// text embedded in the prompt. Used for local runs and smoke tests without credentials.
type FakeClient struct{}

func NewFakeClient() *FakeClient {
	return &FakeClient{}
}

func (f *FakeClient) Model() string {
	return "fake"
}

func (f *FakeClient) Generate(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	input := extractUserInput(req.Prompt)

	title := strings.TrimSpace(strings.SplitN(input, "\n", 2)[0])
	if runes := []rune(title); len(runes) > fakeTitleMax {
		title = string(runes[:fakeTitleMax])
	}
	if title == "" {
		title = "Unspecified issue"
	}

	report := map[string]string{
		"Title":                    title,
		"Description of the issue": input,
		"Steps":                    "1. Reproduce the reported behaviour\n2. Observe the result",
		"Expected result":          "The feature works as described",
		"Actual result":            input,
	}

	out, err := json.Marshal(report)
	if err != nil {
		return "", fmt.Errorf("fake generate: %w", err)
	}
	return string(out), nil
}

func extractUserInput(prompt string) string {
	_, rest, found := strings.Cut(prompt, fakeInputMarker)
	if !found {
		return strings.TrimSpace(prompt)
	}
	if i := strings.LastIndex(rest, fakeInputEnd); i >= 0 {
		rest = rest[:i]
	}
	return strings.TrimSpace(rest)
}
