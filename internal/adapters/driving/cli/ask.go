package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/arkivist-labs/arkivist-cli/internal/core/domain"
)

var (
	askNoRAG       bool
	askGraph       bool
	askEntities    bool
	askCollections []string
	askBackend     string
	askLanguage    string
	askFree        bool
	askPreset      string
	askModel       string
	askLimit       int
	askTimeout     time.Duration
	askJSON        bool
	askExplain     bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question grounded in your archive",
	Long: `Asks a question and streams the answer to stdout. By default the
answer is grounded in passages retrieved from the indexed archive;
use --no-rag to query the model directly without retrieval.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askNoRAG, "no-rag", false, "answer without retrieval")
	askCmd.Flags().BoolVar(&askGraph, "graph", false, "expand context via the citation graph")
	askCmd.Flags().BoolVar(&askEntities, "entities", false, "boost search with extracted entities")
	askCmd.Flags().StringSliceVar(&askCollections, "collection", nil, "restrict retrieval to collections")
	askCmd.Flags().StringVar(&askBackend, "backend", "", "backend preference: remote, local, or auto")
	askCmd.Flags().StringVar(&askLanguage, "language", "", "answer language: en or de")
	askCmd.Flags().BoolVar(&askFree, "free", false, "free mode: no system instruction")
	askCmd.Flags().StringVar(&askPreset, "preset", "", "sampling preset: factual, balanced, or creative")
	askCmd.Flags().StringVar(&askModel, "model", "", "override the configured model")
	askCmd.Flags().IntVarP(&askLimit, "limit", "n", 0, "maximum passages to retrieve")
	askCmd.Flags().DurationVar(&askTimeout, "timeout", 0, "generation timeout (e.g. 90s, 5m)")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the full result as JSON")
	askCmd.Flags().BoolVar(&askExplain, "explain", false, "print the retrieval trace after the answer")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	query := args[0]

	if answerService == nil {
		return errors.New("answer service not configured")
	}

	opts, err := buildAnswerOptions()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if !askJSON {
		// Stream fragments as they arrive; JSON mode buffers instead.
		opts.Sink = func(fragment string) {
			fmt.Fprint(out, fragment)
		}
	}

	result, err := answerService.Answer(cmd.Context(), query, opts)
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	if askJSON {
		return outputAnswerJSON(cmd, result)
	}

	cmd.Println()
	if askExplain && result.Explanation != nil {
		outputTrace(out, result.Explanation)
	}
	return nil
}

func buildAnswerOptions() (domain.AnswerOptions, error) {
	opts := domain.AnswerOptions{
		Retrieval: !askNoRAG,
		Filters: domain.RetrievalFilters{
			Limit:          askLimit,
			Collections:    askCollections,
			GraphExpansion: askGraph,
			EntityBoost:    askEntities,
		},
		FreeMode:      askFree,
		ModelOverride: askModel,
		Timeout:       askTimeout,
	}

	if askBackend != "" {
		pref := domain.BackendPreference(askBackend)
		if !pref.IsValid() {
			return opts, fmt.Errorf("unknown backend %q (want remote, local, or auto)", askBackend)
		}
		opts.Backend = pref
	}
	if askLanguage != "" {
		lang := domain.PromptLanguage(askLanguage)
		if !lang.IsValid() {
			return opts, fmt.Errorf("unknown language %q (want en or de)", askLanguage)
		}
		opts.Language = lang
	}
	if askPreset != "" {
		opts.Preset = domain.SamplingPreset(askPreset)
	}

	return opts, nil
}

func outputAnswerJSON(cmd *cobra.Command, result domain.AnswerResult) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputTrace(out io.Writer, trace *domain.ExplanationTrace) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, "--- how this answer was produced ---")
	fmt.Fprintf(out, "Search: %d passages in %dms", trace.Search.TotalResults, trace.Search.DurationMs)
	if trace.Search.CacheHit {
		fmt.Fprint(out, " (cached)")
	}
	fmt.Fprintln(out)
	for _, doc := range trace.Search.PerDocument {
		fmt.Fprintf(out, "  %s: %d passages, best score %.3f\n", doc.DocumentID, doc.Passages, doc.BestScore)
	}
	if trace.Graph != nil && trace.Graph.Enabled {
		fmt.Fprintf(out, "Graph: %d related documents\n", trace.Graph.RelatedDocsFound)
		for _, title := range trace.Graph.Titles {
			fmt.Fprintf(out, "  - %s\n", title)
		}
	}
	if trace.Compression != nil && trace.Compression.Enabled {
		fmt.Fprintf(out, "Compression: %d -> %d chunks (%.0f%% smaller, %s)\n",
			trace.Compression.BeforeChunks, trace.Compression.AfterChunks,
			trace.Compression.ReductionPercent, trace.Compression.Strategy)
	}
	fmt.Fprintf(out, "Generation: %s / %s, prompt %d chars\n",
		trace.Generation.BackendName, trace.Generation.ModelName, trace.Generation.PromptSizeChars)
	fmt.Fprintf(out, "Timing: search %dms, generation %dms, total %dms\n",
		trace.Timing.SearchMs, trace.Timing.GenerationMs, trace.Timing.TotalMs)
}
