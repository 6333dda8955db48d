package main

import (
	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootFlags struct {
	maxRetries int
	provider   string
	model      string
	structured bool
	json       bool
}

var rootCmd = &cobra.Command{
	Use:   "bugscribe <description>",
	Short: "Turn a free-text bug description into a structured Jira bug report",
	Long: "bugscribe sends a short bug description to a hosted language model and prints\n" +
		"a structured report (title, description, steps, expected and actual result)\n" +
		"formatted as Jira markup.",
	Example: `  bugscribe "App closes after clicking save button"
  bugscribe --provider openai "Login form doesn't validate email addresses properly"`,
	Args:          cobra.ExactArgs(1),
	RunE:          runGenerate,
	SilenceUsage:  true,
	SilenceErrors: true,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the bugscribe version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Println("bugscribe " + version)
	},
}

func init() {
	f := rootCmd.Flags()
	f.IntVar(&rootFlags.maxRetries, "max-retries", 0, "Maximum generation attempts (default from MAX_RETRIES)")
	f.StringVar(&rootFlags.provider, "provider", "", "LLM provider: gemini, openai or fake (default from LLM_PROVIDER)")
	f.StringVar(&rootFlags.model, "model", "", "Model name for the selected provider")
	f.BoolVar(&rootFlags.structured, "structured", false, "Ask the model for schema-constrained JSON output")
	f.BoolVar(&rootFlags.json, "json", false, "Print the structured report as JSON instead of Jira markup")

	rootCmd.AddCommand(versionCmd)
	rootCmd.Version = version
}
