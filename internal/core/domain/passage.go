package domain

// RetrievedPassage is a unit of document text returned by retrieval.
// Passages are immutable once returned; retrieval never persists them.
type RetrievedPassage struct {
	// PassageID is the unique identifier of the passage (chunk) in the index.
	PassageID string

	// DocumentID links to the parent document.
	DocumentID string

	// Content is the passage text.
	Content string

	// Position is the page number or ordinal position within the document.
	Position int

	// Score is a unitless relevance score. Its scale depends on the fusion
	// strategy of the search collaborator and is not comparable across
	// strategies, nor with cosine similarity.
	Score float64

	// GraphExpansion marks passages discovered through the citation graph
	// rather than direct retrieval. Downstream consumers may weight them
	// differently.
	GraphExpansion bool
}

// RetrievalFilters narrows a retrieval request.
// Every field that changes result semantics participates in the cache key.
type RetrievalFilters struct {
	// Limit is the maximum number of passages to return.
	Limit int

	// Collections restricts results to the named collections.
	Collections []string

	// DocumentIDs restricts results to specific documents.
	DocumentIDs []string

	// SourceType restricts results to a document source type
	// (e.g. "pdf", "archive").
	SourceType string

	// ScoreThreshold drops passages below this relevance score.
	// Values above the cosine-style range are re-interpreted for the
	// fusion scale in use; see the retrieval coordinator.
	ScoreThreshold float64

	// GraphExpansion enables citation graph expansion of the result set.
	GraphExpansion bool

	// EntityBoost re-weights results using entities extracted from the query.
	EntityBoost bool
}

// DocumentRef is the graph collaborator's view of a document.
type DocumentRef struct {
	// ID is the document identifier.
	ID string

	// Title is the human-readable title.
	Title string

	// Summary is a short abstract, when available.
	Summary string
}
