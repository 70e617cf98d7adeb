package domain

// ExplanationTrace records how a grounded answer was produced.
// It is built incrementally during orchestration and immutable once
// returned to the caller.
type ExplanationTrace struct {
	// Search describes the retrieval stage.
	Search SearchTrace

	// Compression describes the compression stage. Nil when compression
	// was disabled or there was nothing to compress.
	Compression *CompressionTrace

	// Graph describes citation graph expansion. Nil when not requested.
	Graph *GraphTrace

	// Generation describes the generation stage.
	Generation GenerationTrace

	// Timing holds per-stage durations.
	Timing TimingTrace
}

// SearchTrace describes the retrieval stage of an answer.
type SearchTrace struct {
	// Query is the (possibly expanded) query sent to search.
	Query string

	// TotalResults is the number of passages retrieved.
	TotalResults int

	// DurationMs is the retrieval wall time in milliseconds.
	DurationMs int64

	// CacheHit is true when the passages came from the query cache.
	CacheHit bool

	// SourceType is the source type filter in effect, if any.
	SourceType string

	// PerDocument summarises passages grouped by parent document.
	PerDocument []DocumentSummary
}

// DocumentSummary aggregates the passages retrieved from one document.
type DocumentSummary struct {
	// DocumentID identifies the document.
	DocumentID string

	// Passages is the number of passages from this document.
	Passages int

	// BestScore is the highest relevance score among them.
	BestScore float64
}

// CompressionTrace describes the context compression stage.
type CompressionTrace struct {
	// Enabled is false when compression was switched off for the request.
	Enabled bool

	// BeforeChunks and AfterChunks count passages before and after.
	BeforeChunks int
	AfterChunks  int

	// BeforeSize and AfterSize are character counts before and after.
	BeforeSize int
	AfterSize  int

	// ReductionPercent is (before-after)/before * 100.
	ReductionPercent float64

	// Strategy is the compressor's chosen strategy name.
	Strategy string
}

// GraphTrace describes citation graph expansion.
type GraphTrace struct {
	// Enabled is true when expansion was requested.
	Enabled bool

	// RelatedDocsFound is the number of expansion documents kept.
	RelatedDocsFound int

	// Titles lists the titles of the expansion documents.
	Titles []string
}

// GenerationTrace describes the generation stage.
type GenerationTrace struct {
	// BackendName identifies the backend that produced the answer.
	BackendName string

	// ModelName is the model used.
	ModelName string

	// ContextWindowTokens is the requested context window.
	ContextWindowTokens int

	// Temperature is the sampling temperature used.
	Temperature float64

	// PromptSizeChars is the size of the final prompt in characters.
	PromptSizeChars int
}

// TimingTrace holds per-stage durations in milliseconds.
type TimingTrace struct {
	SearchMs      int64
	CompressionMs int64
	GenerationMs  int64
	TotalMs       int64
}
