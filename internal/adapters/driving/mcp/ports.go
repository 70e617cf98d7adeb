package mcp

import (
	"github.com/arkivist-labs/arkivist-cli/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Answer produces grounded answers.
	Answer driving.AnswerService

	// Retrieval exposes raw retrieval without generation.
	Retrieval driving.RetrievalService

	// Status reports live backend availability.
	Status driving.BackendStatusService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Answer == nil {
		return ErrMissingAnswerService
	}
	// Retrieval and Status are optional; their tools and resources
	// degrade gracefully when absent.
	return nil
}
