package mcp

import (
	"context"

	"github.com/arkivist-labs/arkivist-cli/internal/core/domain"
)

// mockAnswerService is a mock implementation of driving.AnswerService.
type mockAnswerService struct {
	result    domain.AnswerResult
	err       error
	lastQuery string
	lastOpts  domain.AnswerOptions
	cancelled bool
}

func (m *mockAnswerService) Answer(
	_ context.Context,
	query string,
	opts domain.AnswerOptions,
) (domain.AnswerResult, error) {
	m.lastQuery = query
	m.lastOpts = opts
	return m.result, m.err
}

func (m *mockAnswerService) Cancel() {
	m.cancelled = true
}

// mockRetrievalService is a mock implementation of driving.RetrievalService.
type mockRetrievalService struct {
	passages    []domain.RetrievedPassage
	err         error
	lastQuery   string
	lastFilters domain.RetrievalFilters
}

func (m *mockRetrievalService) Retrieve(
	_ context.Context,
	query string,
	filters domain.RetrievalFilters,
) ([]domain.RetrievedPassage, error) {
	m.lastQuery = query
	m.lastFilters = filters
	return m.passages, m.err
}

// mockStatusService is a mock implementation of driving.BackendStatusService.
type mockStatusService struct {
	status domain.ProviderStatus
}

func (m *mockStatusService) Status(_ context.Context) domain.ProviderStatus {
	return m.status
}
