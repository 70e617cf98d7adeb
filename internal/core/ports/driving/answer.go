package driving

import (
	"context"

	"github.com/arkivist-labs/arkivist-cli/internal/core/domain"
)

// AnswerService produces grounded answers to natural-language questions.
// This is used by CLI and MCP adapters.
type AnswerService interface {
	// Answer runs the full pipeline: cache lookup, retrieval, optional
	// graph expansion, compression, prompt assembly, and streamed
	// generation. Fragments are forwarded to opts.Sink as they arrive.
	Answer(ctx context.Context, query string, opts domain.AnswerOptions) (domain.AnswerResult, error)

	// Cancel stops the current generation stream, if any.
	// Calling Cancel with no active stream is a no-op.
	Cancel()
}

// RetrievalService exposes raw retrieval without generation.
type RetrievalService interface {
	// Retrieve returns the passages that would ground an answer to query.
	Retrieve(ctx context.Context, query string, filters domain.RetrievalFilters) ([]domain.RetrievedPassage, error)
}

// BackendStatusService reports live backend availability.
type BackendStatusService interface {
	// Status probes both backends and reports which one would serve the
	// next request.
	Status(ctx context.Context) domain.ProviderStatus
}
