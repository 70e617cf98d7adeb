package cli

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"
)

var (
	historyOps   bool
	historyLimit int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent questions and answers",
	Long: `Lists the most recent conversation turns from the local history
database, newest first. With --ops it lists the structured operation
records instead (backend, model, passage count, timing).`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().BoolVar(&historyOps, "ops", false, "show operation records instead of messages")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "number of entries to show")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	if historyService == nil {
		return errors.New("history service not configured")
	}

	if historyOps {
		return printOperations(cmd)
	}
	return printMessages(cmd)
}

func printMessages(cmd *cobra.Command) error {
	messages, err := historyService.RecentMessages(cmd.Context(), historyLimit)
	if err != nil {
		return err
	}
	if len(messages) == 0 {
		cmd.Println("No history yet.")
		return nil
	}

	for _, msg := range messages {
		cmd.Printf("[%s] %s: %s\n",
			msg.CreatedAt.Format("2006-01-02 15:04"), msg.Role, msg.Content)
		if len(msg.SourceIDs) > 0 {
			cmd.Printf("    sources: %s\n", strings.Join(msg.SourceIDs, ", "))
		}
	}
	return nil
}

func printOperations(cmd *cobra.Command) error {
	ops, err := historyService.RecentOperations(cmd.Context(), historyLimit)
	if err != nil {
		return err
	}
	if len(ops) == 0 {
		cmd.Println("No operations yet.")
		return nil
	}

	for _, op := range ops {
		cmd.Printf("[%s] %s %q\n",
			op.CreatedAt.Format("2006-01-02 15:04"), op.Kind, op.Query)
		cmd.Printf("    %s/%s, %d passages, %dms", op.Backend, op.Model, op.PassageCount, op.DurationMs)
		if op.CacheHit {
			cmd.Print(" (cached)")
		}
		cmd.Println()
	}
	return nil
}
