package driven

import (
	"context"

	"github.com/arkivist-labs/arkivist-cli/internal/core/domain"
)

// TokenStream is a finite sequence of generated text fragments.
// Streams are not restartable: once drained or cancelled they are done.
type TokenStream interface {
	// Fragments returns the fragment channel. The channel is closed when
	// generation completes, fails, or the stream is cancelled.
	Fragments() <-chan string

	// Err reports the terminal error, if any, once Fragments is closed.
	// A cancelled stream reports domain.ErrStreamCancelled; a deadline
	// overrun reports domain.ErrGenerationTimeout.
	Err() error

	// Cancel stops the stream. Cancellation is cooperative: the backend
	// stops emitting promptly but token-level cut-off is best effort.
	// Safe to call more than once.
	Cancel()
}

// GenerationBackend produces streamed text completions.
//
// Implementations may include:
//   - OpenAI-compatible remote services (chat completions over SSE)
//   - Ollama (local models, NDJSON streaming)
type GenerationBackend interface {
	// Kind reports whether this is the remote or local backend.
	Kind() domain.BackendKind

	// Name returns the backend implementation name (e.g. "openai", "ollama").
	Name() string

	// ModelName returns the model that will serve the next request.
	ModelName() string

	// StreamGenerate starts a generation stream for the request.
	// The passed context bounds the whole stream, not just the initial call.
	StreamGenerate(ctx context.Context, req domain.GenerationRequest) (TokenStream, error)

	// Ping validates the backend can serve a request right now.
	// For remote backends this is an inexpensive round trip with no
	// generation; for local backends it checks that a model is loaded.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// EmbeddingService generates vector embeddings from text.
// Only the remote backend provides embeddings; when nil, retrieval is
// disabled and embedding-dependent features fail with
// domain.ErrEmbeddingUnavailable.
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
