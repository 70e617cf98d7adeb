package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// Backend Errors.

	// ErrNoBackendAvailable indicates neither the remote service nor a local
	// model can serve generation. Wrappers carry remediation text because the
	// direct caller is expected to display the message to the user.
	ErrNoBackendAvailable = errors.New("no generation backend available")

	// ErrBackendUnavailable indicates the requested backend failed its
	// liveness probe.
	ErrBackendUnavailable = errors.New("backend unavailable")

	// ErrEmbeddingUnavailable indicates query embeddings cannot be computed.
	// Retrieval and every embedding-dependent feature is disabled. Only the
	// remote backend provides embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrGenerationTimeout indicates a generation request exceeded its
	// configured deadline. The call failed but may be retried.
	ErrGenerationTimeout = errors.New("generation timed out")

	// ErrStreamCancelled indicates the caller cancelled an in-flight
	// generation stream.
	ErrStreamCancelled = errors.New("generation stream cancelled")

	// Retrieval Errors.

	// ErrSearchFailed indicates the hybrid search collaborator failed.
	// Fatal for the retrieval call.
	ErrSearchFailed = errors.New("hybrid search failed")

	// ErrGraphExpansion indicates citation graph expansion failed.
	// Non-fatal: retrieval degrades to zero expansion documents.
	ErrGraphExpansion = errors.New("graph expansion failed")

	// ErrCompressionFailed indicates context compression failed.
	// Non-fatal: passages are forwarded uncompressed.
	ErrCompressionFailed = errors.New("context compression failed")

	// ErrHistoryLog indicates a history write failed.
	// Non-fatal: history logging is fire-and-forget.
	ErrHistoryLog = errors.New("history logging failed")
)
