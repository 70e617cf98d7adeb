package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show backend availability",
	Long: `Probes the configured backends and reports which one would serve
the next request. Availability is checked live, not cached.`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if statusService == nil {
		return errors.New("status service not configured")
	}

	status := statusService.Status(cmd.Context())

	cmd.Println("Backend Status")
	cmd.Println("==============")
	cmd.Println()

	if status.RemoteAvailable {
		cmd.Printf("Remote: available (%s)\n", status.RemoteModelName)
	} else {
		cmd.Println("Remote: unavailable")
	}

	if status.LocalAvailable {
		cmd.Printf("Local:  available (%s)\n", status.LocalModelID)
	} else {
		cmd.Println("Local:  unavailable")
	}

	cmd.Println()
	cmd.Printf("Active: %s\n", status.ActiveBackend.Description())

	return nil
}
