package driven

import "context"

// EntityExtractor pulls named entities out of a query for boosted search.
// This is an optional service - when nil, entity boosting is skipped and
// search runs unmodified.
type EntityExtractor interface {
	// ExtractQueryEntities returns the named entities found in text.
	ExtractQueryEntities(ctx context.Context, text string) ([]string, error)
}
