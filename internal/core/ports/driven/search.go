package driven

import (
	"context"

	"github.com/arkivist-labs/arkivist-cli/internal/core/domain"
)

// SearchRequest is a single hybrid search invocation.
type SearchRequest struct {
	// Embedding is the query vector.
	Embedding []float32

	// QueryText is the (possibly expanded) lexical query.
	QueryText string

	// Limit is the maximum number of passages to return.
	Limit int

	// Collections restricts results to the named collections.
	Collections []string

	// DocumentIDs restricts results to specific documents.
	DocumentIDs []string

	// SourceType restricts results to a document source type.
	SourceType string

	// Entities re-weights results towards passages mentioning these
	// entities. Empty means no boosting.
	Entities []string
}

// HybridSearcher performs fused vector+lexical search over the corpus.
// The fusion algorithm (e.g. reciprocal rank fusion) lives in the
// implementation; returned scores are on the fusion scale, not cosine.
type HybridSearcher interface {
	// Search returns passages ranked by fused relevance, best first.
	Search(ctx context.Context, req SearchRequest) ([]domain.RetrievedPassage, error)
}
