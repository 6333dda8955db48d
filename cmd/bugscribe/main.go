// bugscribe converts a one-line bug description into a Jira-formatted bug report.
//
// Usage:
//
//	bugscribe "<description>"
//	bugscribe --provider fake --json "<description>"
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"bugscribe.app/bugscribe/common/logger"
	"bugscribe.app/bugscribe/core/config"
	"bugscribe.app/bugscribe/internal/service"
)

const (
	headerRule = "--- FORMATTED BUG REPORT ---"
	footerRule = "---------------------------"
)

var errEmptyInput = errors.New("input text cannot be empty")

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stdout, errorLine(err))
		os.Exit(1)
	}
}

// errorLine renders err for the terminal.
func errorLine(err error) string {
	if errors.Is(err, errEmptyInput) {
		return "Error: Input text cannot be empty."
	}
	return fmt.Sprintf("Error: %v", err)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	input := args[0]
	if strings.TrimSpace(input) == "" {
		return errEmptyInput
	}

	cfg := config.Read(config.ServiceTypeCLI)
	applyFlags(cmd, &cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger.SetupWriter(cfg, cmd.ErrOrStderr())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	services, err := service.NewServices(ctx, cfg)
	if err != nil {
		return err
	}

	return generate(ctx, cmd.OutOrStdout(), services.BugReports(), input, rootFlags.json)
}

func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("provider") {
		cfg.LLM.Provider = rootFlags.provider
	}
	if f.Changed("model") {
		switch cfg.LLM.Provider {
		case config.ProviderOpenAI:
			cfg.LLM.OpenAI.Model = rootFlags.model
		case config.ProviderGemini:
			cfg.LLM.Gemini.Model = rootFlags.model
		}
	}
	if f.Changed("max-retries") {
		cfg.Generation.MaxAttempts = rootFlags.maxRetries
	}
	if f.Changed("structured") {
		cfg.Generation.StructuredOutput = rootFlags.structured
	}
}

func generate(ctx context.Context, out io.Writer, svc service.BugReportService, input string, asJSON bool) error {
	fmt.Fprintln(out, "Generating bug report...")

	result, err := svc.Process(ctx, input)
	if err != nil {
		if errors.Is(err, service.ErrEmptyInput) {
			return errEmptyInput
		}
		return err
	}

	if result == nil {
		fmt.Fprintln(out, "Failed to generate bug report. Please try again.")
		return nil
	}

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result.Report)
	}

	fmt.Fprintln(out, "\n"+headerRule)
	fmt.Fprintln(out, result.Formatted)
	fmt.Fprintln(out, footerRule)
	return nil
}
