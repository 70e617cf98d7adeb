// Package mcp provides an MCP (Model Context Protocol) server adapter for Arkivist.
// It enables AI assistants like Claude to ask grounded questions against the
// local archive and to inspect raw retrieval results.
package mcp

import "errors"

// ErrMissingAnswerService is returned when the answer service is not provided.
var ErrMissingAnswerService = errors.New("mcp: answer service is required")
