package driven

import "context"

// ProjectContextProvider supplies opaque project-level context that is
// prepended to the generation prompt. This is an optional service - when
// nil, answers carry no project context.
type ProjectContextProvider interface {
	// ProjectContext returns the context string, or "" when none is set.
	ProjectContext(ctx context.Context) (string, error)
}
