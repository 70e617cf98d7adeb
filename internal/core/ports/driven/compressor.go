package driven

import (
	"context"

	"github.com/arkivist-labs/arkivist-cli/internal/core/domain"
)

// CompressionResult is the compressor's output with accounting stats.
type CompressionResult struct {
	// Passages is the reduced passage set.
	Passages []domain.RetrievedPassage

	// Strategy is the name of the strategy the compressor chose
	// (e.g. "truncate", "rerank", "summary").
	Strategy string
}

// ContextCompressor reduces an oversized passage set to fit a character
// budget. The reduction algorithm is the implementation's concern.
type ContextCompressor interface {
	// Compress reduces passages to at most charBudget characters of content.
	Compress(ctx context.Context, passages []domain.RetrievedPassage, queryText string, charBudget int) (CompressionResult, error)
}
