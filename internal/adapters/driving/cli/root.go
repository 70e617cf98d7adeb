// Package cli provides the cobra command tree for the arkivist binary.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/arkivist-labs/arkivist-cli/internal/core/ports/driving"
	"github.com/arkivist-labs/arkivist-cli/internal/logger"
)

// version is stamped by the build; overridden via SetVersion.
var version = "dev"

// Services the commands depend on. Injected once at startup via Wire so
// individual commands can stay package-level cobra vars.
var (
	answerService    driving.AnswerService
	retrievalService driving.RetrievalService
	statusService    driving.BackendStatusService
	settingsService  driving.SettingsService
	historyService   driving.HistoryService
)

// Services bundles everything the CLI needs.
type Services struct {
	Answer    driving.AnswerService
	Retrieval driving.RetrievalService
	Status    driving.BackendStatusService
	Settings  driving.SettingsService
	History   driving.HistoryService
}

// Wire injects the service implementations the commands call.
func Wire(s Services) {
	answerService = s.Answer
	retrievalService = s.Retrieval
	statusService = s.Status
	settingsService = s.Settings
	historyService = s.History
}

// SetVersion sets the version string reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "arkivist",
	Short: "Ask questions about your personal archive",
	Long: `Arkivist answers natural-language questions grounded in your indexed
document archive. Retrieval, citation-graph expansion, and answer
generation run against a remote API or a local model daemon, with
automatic failover between the two.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
