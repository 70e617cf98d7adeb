package cli

import (
	"context"
	"errors"

	"github.com/arkivist-labs/arkivist-cli/internal/core/domain"
)

// setupTestServices swaps the package-level services for mocks and returns
// a cleanup function restoring the originals.
func setupTestServices() func() {
	oldAnswer := answerService
	oldRetrieval := retrievalService
	oldStatus := statusService
	oldSettings := settingsService
	oldHistory := historyService

	answerService = &mockAnswerService{}
	retrievalService = &mockRetrievalService{}
	statusService = &mockStatusService{}
	settingsService = &mockSettingsService{settings: domain.DefaultAppSettings()}
	historyService = &mockHistoryService{}

	return func() {
		answerService = oldAnswer
		retrievalService = oldRetrieval
		statusService = oldStatus
		settingsService = oldSettings
		historyService = oldHistory
	}
}

type mockAnswerService struct {
	lastQuery string
	lastOpts  domain.AnswerOptions
	cancelled bool
}

func (m *mockAnswerService) Answer(_ context.Context, query string, opts domain.AnswerOptions) (domain.AnswerResult, error) {
	m.lastQuery = query
	m.lastOpts = opts
	if opts.Sink != nil {
		opts.Sink("The treaty ")
		opts.Sink("was signed in 1648.")
	}
	result := domain.AnswerResult{
		Response:      "The treaty was signed in 1648.",
		UsedRetrieval: opts.Retrieval,
	}
	if opts.Retrieval {
		result.PassageCount = 2
		result.Explanation = &domain.ExplanationTrace{
			Search: domain.SearchTrace{
				Query:        query,
				TotalResults: 2,
				DurationMs:   12,
				PerDocument: []domain.DocumentSummary{
					{DocumentID: "doc-1", Passages: 2, BestScore: 0.031},
				},
			},
			Generation: domain.GenerationTrace{
				BackendName: "remote",
				ModelName:   "gpt-4o-mini",
			},
			Timing: domain.TimingTrace{SearchMs: 12, GenerationMs: 80, TotalMs: 95},
		}
	}
	return result, nil
}

func (m *mockAnswerService) Cancel() { m.cancelled = true }

type mockAnswerServiceError struct{}

func (m *mockAnswerServiceError) Answer(context.Context, string, domain.AnswerOptions) (domain.AnswerResult, error) {
	return domain.AnswerResult{}, errors.New("backend exploded")
}

func (m *mockAnswerServiceError) Cancel() {}

type mockRetrievalService struct {
	lastQuery   string
	lastFilters domain.RetrievalFilters
}

func (m *mockRetrievalService) Retrieve(_ context.Context, query string, filters domain.RetrievalFilters) ([]domain.RetrievedPassage, error) {
	m.lastQuery = query
	m.lastFilters = filters
	return []domain.RetrievedPassage{
		{PassageID: "p1", DocumentID: "doc-1", Content: "The Peace of Westphalia ended the war.", Position: 0, Score: 0.031},
		{PassageID: "p2", DocumentID: "doc-2", Content: "Negotiations ran for years.", Position: 3, Score: 0.016, GraphExpansion: true},
	}, nil
}

type mockRetrievalServiceError struct{}

func (m *mockRetrievalServiceError) Retrieve(context.Context, string, domain.RetrievalFilters) ([]domain.RetrievedPassage, error) {
	return nil, errors.New("search index offline")
}

type mockStatusService struct {
	status domain.ProviderStatus
}

func (m *mockStatusService) Status(context.Context) domain.ProviderStatus {
	if m.status.ActiveBackend == "" {
		return domain.ProviderStatus{
			ActiveBackend:   domain.BackendRemote,
			RemoteAvailable: true,
			RemoteModelName: "gpt-4o-mini",
			LocalAvailable:  true,
			LocalModelID:    "llama3.1:8b",
		}
	}
	return m.status
}

type mockSettingsService struct {
	settings      domain.AppSettings
	saved         bool
	preference    domain.BackendPreference
	remoteErr     error
	localErr      error
	validatedBoth bool
}

func (m *mockSettingsService) Get() domain.AppSettings { return m.settings }

func (m *mockSettingsService) Save(settings domain.AppSettings) error {
	m.settings = settings
	m.saved = true
	return nil
}

func (m *mockSettingsService) SetBackendPreference(p domain.BackendPreference) error {
	if !p.IsValid() {
		return domain.ErrInvalidInput
	}
	m.preference = p
	return nil
}

func (m *mockSettingsService) ValidateRemote() error {
	m.validatedBoth = true
	return m.remoteErr
}

func (m *mockSettingsService) ValidateLocal() error { return m.localErr }

type mockHistoryService struct {
	messages   []domain.ChatMessage
	operations []domain.AIOperation
	lastLimit  int
	err        error
}

func (m *mockHistoryService) RecentMessages(_ context.Context, limit int) ([]domain.ChatMessage, error) {
	m.lastLimit = limit
	return m.messages, m.err
}

func (m *mockHistoryService) RecentOperations(_ context.Context, limit int) ([]domain.AIOperation, error) {
	m.lastLimit = limit
	return m.operations, m.err
}
