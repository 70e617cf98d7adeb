package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arkivist-labs/arkivist-cli/internal/core/domain"
)

var (
	retrieveLimit       int
	retrieveCollections []string
	retrieveGraph       bool
	retrieveJSON        bool
)

var retrieveCmd = &cobra.Command{
	Use:   "retrieve [query]",
	Short: "Retrieve passages without generating an answer",
	Long: `Runs the retrieval pipeline and prints the passages that would
ground an answer, with their relevance scores. Useful for inspecting
what the model would see before asking.`,
	Args: cobra.ExactArgs(1),
	RunE: runRetrieve,
}

func init() {
	retrieveCmd.Flags().IntVarP(&retrieveLimit, "limit", "n", 0, "maximum number of passages")
	retrieveCmd.Flags().StringSliceVar(&retrieveCollections, "collection", nil, "restrict retrieval to collections")
	retrieveCmd.Flags().BoolVar(&retrieveGraph, "graph", false, "expand via the citation graph")
	retrieveCmd.Flags().BoolVar(&retrieveJSON, "json", false, "output passages as JSON")
	rootCmd.AddCommand(retrieveCmd)
}

func runRetrieve(cmd *cobra.Command, args []string) error {
	query := args[0]

	if retrievalService == nil {
		return errors.New("retrieval service not configured")
	}

	filters := domain.RetrievalFilters{
		Limit:          retrieveLimit,
		Collections:    retrieveCollections,
		GraphExpansion: retrieveGraph,
	}

	passages, err := retrievalService.Retrieve(cmd.Context(), query, filters)
	if err != nil {
		return fmt.Errorf("retrieval failed: %w", err)
	}

	if retrieveJSON {
		return outputPassagesJSON(cmd, passages)
	}
	return outputPassagesTable(cmd, passages)
}

func outputPassagesJSON(cmd *cobra.Command, passages []domain.RetrievedPassage) error {
	data, err := json.MarshalIndent(passages, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal passages: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputPassagesTable(cmd *cobra.Command, passages []domain.RetrievedPassage) error {
	if len(passages) == 0 {
		cmd.Println("No passages found.")
		return nil
	}

	cmd.Println("Passages:")
	cmd.Println()
	for i, p := range passages {
		marker := ""
		if p.GraphExpansion {
			marker = " (graph)"
		}
		cmd.Printf("[%d] %s #%d (%.3f)%s\n", i+1, p.DocumentID, p.Position, p.Score, marker)
		cmd.Printf("    %s\n", snippet(p.Content, 160))
	}
	return nil
}

func snippet(content string, maxLen int) string {
	if len(content) <= maxLen {
		return content
	}
	return content[:maxLen] + "..."
}
