package driven

import (
	"context"

	"github.com/arkivist-labs/arkivist-cli/internal/core/domain"
)

// CitationGraph exposes citation and similarity relationships between
// documents. The graph can contain cycles; callers must track visited
// documents rather than recursing on the live structure.
type CitationGraph interface {
	// CitedBy returns documents that the given document cites.
	CitedBy(ctx context.Context, docID string) ([]domain.DocumentRef, error)

	// Citing returns documents that cite the given document.
	Citing(ctx context.Context, docID string) ([]domain.DocumentRef, error)

	// Similar returns documents above the similarity threshold.
	Similar(ctx context.Context, docID string, threshold float64, limit int) ([]domain.DocumentRef, error)

	// GetDocument resolves a document by ID.
	// Returns domain.ErrNotFound for unknown documents.
	GetDocument(ctx context.Context, docID string) (*domain.DocumentRef, error)
}
