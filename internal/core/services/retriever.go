package services

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/arkivist-labs/arkivist-cli/internal/core/domain"
	"github.com/arkivist-labs/arkivist-cli/internal/core/ports/driven"
	"github.com/arkivist-labs/arkivist-cli/internal/logger"
)

// Retrieval tuning constants.
const (
	// overFetchFactor requests extra candidates so that threshold and
	// filter drop-outs still leave enough results.
	overFetchFactor = 2

	// cosineThresholdFloor marks thresholds calibrated for cosine
	// similarity. Fused scores are far smaller, so anything above this is
	// re-interpreted as fusionThreshold.
	cosineThresholdFloor = 0.05

	// fusionThreshold is the relevance cutoff on the fusion score scale.
	fusionThreshold = 0.001

	// expansionQueryMinLength is the query length (in runes) below which
	// multilingual expansion is skipped entirely.
	expansionQueryMinLength = 12

	// Per-document caps for each graph expansion category.
	maxCitedPerDoc   = 3
	maxCitingPerDoc  = 3
	maxSimilarPerDoc = 3

	// maxExpansionDocs caps the total expansion set per retrieval.
	maxExpansionDocs = 8

	// similarDocThreshold is the similarity cutoff for the graph
	// collaborator's similar-documents lookup.
	similarDocThreshold = 0.75

	// uncertainSimilarity is assigned to expansion passages whose real
	// similarity could not be computed. It is lower than any measured
	// fusion or cosine score so downstream ranking keeps them last.
	uncertainSimilarity = 0.0001
)

// bilingualTerms maps lowercase query terms to archival-vocabulary
// equivalents in the other corpus language. Expansion is conservative:
// only known terms are appended and unknown queries pass through.
var bilingualTerms = map[string]string{
	"treaty":     "vertrag",
	"vertrag":    "treaty",
	"war":        "krieg",
	"krieg":      "war",
	"letter":     "brief",
	"brief":      "letter",
	"archive":    "archiv",
	"archiv":     "archive",
	"century":    "jahrhundert",
	"history":    "geschichte",
	"geschichte": "history",
	"manuscript": "handschrift",
	"map":        "karte",
	"karte":      "map",
	"church":     "kirche",
	"kirche":     "church",
	"city":       "stadt",
	"stadt":      "city",
	"king":       "könig",
	"könig":      "king",
	"emperor":    "kaiser",
	"kaiser":     "emperor",
}

// RetrievalCoordinator runs hybrid retrieval with threshold fallback and
// optional citation graph expansion.
type RetrievalCoordinator struct {
	selector *BackendSelector
	searcher driven.HybridSearcher
	graph    driven.CitationGraph   // optional
	entities driven.EntityExtractor // optional
	settings domain.RetrievalSettings
}

// NewRetrievalCoordinator creates a coordinator over the search and graph
// collaborators. The graph and entity extractor are optional (can be nil).
func NewRetrievalCoordinator(
	selector *BackendSelector,
	searcher driven.HybridSearcher,
	graph driven.CitationGraph,
	entities driven.EntityExtractor,
	settings domain.RetrievalSettings,
) *RetrievalCoordinator {
	if settings.Limit <= 0 {
		settings.Limit = domain.DefaultRetrievalLimit
	}
	return &RetrievalCoordinator{
		selector: selector,
		searcher: searcher,
		graph:    graph,
		entities: entities,
		settings: settings,
	}
}

// Retrieve returns the passages most relevant to query.
//
// Embedding failure is fatal for the call. Graph expansion failures are
// non-fatal and yield zero expansion documents. Search failures are fatal
// and surfaced to the caller.
func (r *RetrievalCoordinator) Retrieve(
	ctx context.Context, query string, filters domain.RetrievalFilters,
) ([]domain.RetrievedPassage, error) {
	logger.Section("Retrieval")

	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.RetrievedPassage{}, nil
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = r.settings.Limit
	}

	// 1. Conservative multilingual expansion.
	expandedQuery := r.expandQuery(query)
	if expandedQuery != query {
		logger.Debug("Query expanded: %q -> %q", query, expandedQuery)
	}

	// 2. Query embedding. Unavailable embeddings fail the whole call;
	// retrieval never silently degrades to lexical-only.
	embedding, err := r.selector.Embed(ctx, expandedQuery)
	if err != nil {
		return nil, fmt.Errorf("query embedding: %w", err)
	}

	// Entity boost is optional and non-fatal.
	var boostEntities []string
	if filters.EntityBoost && r.entities != nil {
		boostEntities, err = r.entities.ExtractQueryEntities(ctx, query)
		if err != nil {
			logger.Warn("Entity extraction failed: %v (searching unboosted)", err)
			boostEntities = nil
		}
	}

	// 3. Hybrid search with over-fetch.
	raw, err := r.searcher.Search(ctx, driven.SearchRequest{
		Embedding:   embedding,
		QueryText:   expandedQuery,
		Limit:       limit * overFetchFactor,
		Collections: filters.Collections,
		DocumentIDs: filters.DocumentIDs,
		SourceType:  filters.SourceType,
		Entities:    boostEntities,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSearchFailed, err)
	}
	logger.Debug("Hybrid search: %d candidates", len(raw))

	// 4. Threshold on the fusion scale.
	threshold := r.effectiveThreshold(filters.ScoreThreshold)
	kept := make([]domain.RetrievedPassage, 0, len(raw))
	for _, p := range raw {
		if p.Score >= threshold {
			kept = append(kept, p)
		}
	}

	// 5. Fallback: a degraded answer beats no answer. If thresholding
	// removed everything but search found candidates, keep the top results.
	if len(kept) == 0 && len(raw) > 0 {
		n := limit
		if n > len(raw) {
			n = len(raw)
		}
		kept = raw[:n]
		logger.Info("Threshold removed all %d candidates, keeping top %d", len(raw), n)
	}

	if len(kept) > limit {
		kept = kept[:limit]
	}
	logger.Debug("Kept %d passages after threshold", len(kept))

	// 6. Citation graph expansion.
	if filters.GraphExpansion && r.graph != nil && len(kept) > 0 {
		expansion := r.expandViaGraph(ctx, query, kept)
		kept = append(kept, expansion...)
		logger.Debug("Graph expansion added %d passages", len(expansion))
	}

	return kept, nil
}

// effectiveThreshold re-interprets cosine-calibrated thresholds for the
// fusion score scale. Fused rankings are not on a 0-1 similarity scale, so
// a caller-supplied cosine-style cutoff would remove everything.
func (r *RetrievalCoordinator) effectiveThreshold(requested float64) float64 {
	threshold := requested
	if threshold == 0 {
		threshold = r.settings.ScoreThreshold
	}
	if threshold > cosineThresholdFloor {
		logger.Debug("Threshold %.3f looks cosine-calibrated, using %.4f", threshold, fusionThreshold)
		return fusionThreshold
	}
	return threshold
}

// expandQuery appends bilingual equivalents for known archival terms.
// Short queries pass through unchanged, as does anything the term table
// cannot expand.
func (r *RetrievalCoordinator) expandQuery(query string) string {
	if len([]rune(query)) < expansionQueryMinLength {
		return query
	}

	seen := make(map[string]bool)
	for _, f := range strings.Fields(strings.ToLower(query)) {
		seen[strings.Trim(f, ".,;:?!\"'()")] = true
	}

	var additions []string
	for term := range seen {
		if equiv, ok := bilingualTerms[term]; ok && !seen[equiv] {
			additions = append(additions, equiv)
		}
	}
	if len(additions) == 0 {
		return query
	}
	return query + " " + strings.Join(additions, " ")
}

// expandViaGraph unions cited, citing, and similar documents of every
// retrieved document into graph-expansion passages. All failures here are
// non-fatal: a broken graph degrades to zero expansion.
func (r *RetrievalCoordinator) expandViaGraph(
	ctx context.Context, query string, direct []domain.RetrievedPassage,
) []domain.RetrievedPassage {
	// Visited set over the original result documents. The citation graph
	// can cycle, so expansion never walks further than one hop and never
	// revisits a document.
	visited := make(map[string]bool)
	for _, p := range direct {
		visited[p.DocumentID] = true
	}

	var candidates []domain.DocumentRef
	for _, p := range direct {
		if p.GraphExpansion {
			continue
		}
		candidates = append(candidates, r.relatedDocuments(ctx, p.DocumentID)...)
	}

	var expansion []domain.RetrievedPassage
	for _, ref := range candidates {
		if visited[ref.ID] {
			continue
		}
		visited[ref.ID] = true

		// Only documents with a usable summary become passages.
		summary := strings.TrimSpace(ref.Summary)
		if summary == "" {
			continue
		}

		score := r.expansionSimilarity(ctx, query, summary)
		expansion = append(expansion, domain.RetrievedPassage{
			PassageID:      "graph:" + ref.ID,
			DocumentID:     ref.ID,
			Content:        summary,
			Score:          score,
			GraphExpansion: true,
		})

		if len(expansion) >= maxExpansionDocs {
			break
		}
	}

	return expansion
}

// relatedDocuments gathers the capped per-category neighbours of a document.
func (r *RetrievalCoordinator) relatedDocuments(ctx context.Context, docID string) []domain.DocumentRef {
	var related []domain.DocumentRef

	cited, err := r.graph.CitedBy(ctx, docID)
	if err != nil {
		logger.Warn("%v: cited-by lookup for %s: %v", domain.ErrGraphExpansion, docID, err)
	} else {
		related = append(related, capRefs(cited, maxCitedPerDoc)...)
	}

	citing, err := r.graph.Citing(ctx, docID)
	if err != nil {
		logger.Warn("%v: citing lookup for %s: %v", domain.ErrGraphExpansion, docID, err)
	} else {
		related = append(related, capRefs(citing, maxCitingPerDoc)...)
	}

	similar, err := r.graph.Similar(ctx, docID, similarDocThreshold, maxSimilarPerDoc)
	if err != nil {
		logger.Warn("%v: similarity lookup for %s: %v", domain.ErrGraphExpansion, docID, err)
	} else {
		related = append(related, similar...)
	}

	return related
}

// expansionSimilarity scores an expansion candidate against the query.
// When the embedding backend is unavailable the candidate gets a fixed
// "uncertain" score below any measured one.
func (r *RetrievalCoordinator) expansionSimilarity(ctx context.Context, query, summary string) float64 {
	if !r.selector.CanEmbed() {
		return uncertainSimilarity
	}

	queryVec, err := r.selector.Embed(ctx, query)
	if err != nil {
		return uncertainSimilarity
	}
	summaryVec, err := r.selector.Embed(ctx, summary)
	if err != nil {
		return uncertainSimilarity
	}

	sim := cosineSimilarity(queryVec, summaryVec)
	if sim <= 0 {
		return uncertainSimilarity
	}
	return sim
}

func capRefs(refs []domain.DocumentRef, max int) []domain.DocumentRef {
	if len(refs) > max {
		return refs[:max]
	}
	return refs
}

// cosineSimilarity computes the cosine of the angle between two vectors.
// Returns 0 for mismatched or zero-length vectors.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
