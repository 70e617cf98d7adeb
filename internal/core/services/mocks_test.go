package services

import (
	"context"
	"sync"
	"time"

	"github.com/arkivist-labs/arkivist-cli/internal/core/domain"
	"github.com/arkivist-labs/arkivist-cli/internal/core/ports/driven"
)

// --- Mock implementations shared by the service tests ---

// mockStream implements driven.TokenStream over a fixed fragment list.
type mockStream struct {
	fragments chan string
	err       error
	mu        sync.Mutex
	cancelled bool
}

func newMockStream(fragments []string, err error) *mockStream {
	ch := make(chan string, len(fragments))
	for _, f := range fragments {
		ch <- f
	}
	close(ch)
	return &mockStream{fragments: ch, err: err}
}

func (m *mockStream) Fragments() <-chan string { return m.fragments }

func (m *mockStream) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancelled && m.err == nil {
		return domain.ErrStreamCancelled
	}
	return m.err
}

func (m *mockStream) Cancel() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancelled = true
}

// mockBackend implements driven.GenerationBackend.
type mockBackend struct {
	kind      domain.BackendKind
	name      string
	model     string
	pingErr   error
	fragments []string
	streamErr error

	pings    int
	requests []domain.GenerationRequest
}

func (m *mockBackend) Kind() domain.BackendKind { return m.kind }
func (m *mockBackend) Name() string             { return m.name }
func (m *mockBackend) ModelName() string        { return m.model }

func (m *mockBackend) StreamGenerate(_ context.Context, req domain.GenerationRequest) (driven.TokenStream, error) {
	m.requests = append(m.requests, req)
	if m.streamErr != nil {
		return nil, m.streamErr
	}
	return newMockStream(m.fragments, nil), nil
}

func (m *mockBackend) Ping(_ context.Context) error {
	m.pings++
	return m.pingErr
}

func (m *mockBackend) Close() error { return nil }

// mockEmbedding implements driven.EmbeddingService.
type mockEmbedding struct {
	vector []float32
	err    error
	calls  int
}

func (m *mockEmbedding) Embed(_ context.Context, _ string) ([]float32, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.vector, nil
}

func (m *mockEmbedding) ModelName() string           { return "mock-embed" }
func (m *mockEmbedding) Ping(_ context.Context) error { return nil }
func (m *mockEmbedding) Close() error                 { return nil }

// mockSearcher implements driven.HybridSearcher.
type mockSearcher struct {
	results []domain.RetrievedPassage
	err     error
	lastReq driven.SearchRequest
}

func (m *mockSearcher) Search(_ context.Context, req driven.SearchRequest) ([]domain.RetrievedPassage, error) {
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	if req.Limit < len(m.results) {
		return m.results[:req.Limit], nil
	}
	return m.results, nil
}

// mockGraph implements driven.CitationGraph.
type mockGraph struct {
	cited   map[string][]domain.DocumentRef
	citing  map[string][]domain.DocumentRef
	similar map[string][]domain.DocumentRef
	docs    map[string]domain.DocumentRef
	err     error
}

func (m *mockGraph) CitedBy(_ context.Context, docID string) ([]domain.DocumentRef, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.cited[docID], nil
}

func (m *mockGraph) Citing(_ context.Context, docID string) ([]domain.DocumentRef, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.citing[docID], nil
}

func (m *mockGraph) Similar(_ context.Context, docID string, _ float64, _ int) ([]domain.DocumentRef, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.similar[docID], nil
}

func (m *mockGraph) GetDocument(_ context.Context, docID string) (*domain.DocumentRef, error) {
	if m.err != nil {
		return nil, m.err
	}
	if doc, ok := m.docs[docID]; ok {
		return &doc, nil
	}
	return nil, domain.ErrNotFound
}

// mockCompressor implements driven.ContextCompressor.
type mockCompressor struct {
	result driven.CompressionResult
	err    error
	calls  int
}

func (m *mockCompressor) Compress(_ context.Context, passages []domain.RetrievedPassage, _ string, _ int) (driven.CompressionResult, error) {
	m.calls++
	if m.err != nil {
		return driven.CompressionResult{}, m.err
	}
	if m.result.Passages == nil {
		return driven.CompressionResult{Passages: passages, Strategy: "passthrough"}, nil
	}
	return m.result, nil
}

// mockEntities implements driven.EntityExtractor.
type mockEntities struct {
	entities []string
	err      error
}

func (m *mockEntities) ExtractQueryEntities(_ context.Context, _ string) ([]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.entities, nil
}

// mockHistory implements driven.HistoryStore.
type mockHistory struct {
	messages   []domain.ChatMessage
	operations []domain.AIOperation
	err        error
}

func (m *mockHistory) LogChatMessage(_ context.Context, msg domain.ChatMessage) error {
	if m.err != nil {
		return m.err
	}
	m.messages = append(m.messages, msg)
	return nil
}

func (m *mockHistory) LogAIOperation(_ context.Context, op domain.AIOperation) error {
	if m.err != nil {
		return m.err
	}
	m.operations = append(m.operations, op)
	return nil
}

func (m *mockHistory) RecentMessages(_ context.Context, limit int) ([]domain.ChatMessage, error) {
	if limit > len(m.messages) {
		limit = len(m.messages)
	}
	return m.messages[len(m.messages)-limit:], nil
}

func (m *mockHistory) RecentOperations(_ context.Context, limit int) ([]domain.AIOperation, error) {
	if limit > len(m.operations) {
		limit = len(m.operations)
	}
	return m.operations[len(m.operations)-limit:], nil
}

func (m *mockHistory) Close() error { return nil }

// mockProject implements driven.ProjectContextProvider.
type mockProject struct {
	context string
	err     error
}

func (m *mockProject) ProjectContext(_ context.Context) (string, error) {
	return m.context, m.err
}

// mockConfigStore implements driven.ConfigStore over an in-memory map.
type mockConfigStore struct {
	data    map[string]any
	saveErr error
}

func newMockConfigStore() *mockConfigStore {
	return &mockConfigStore{data: make(map[string]any)}
}

func (m *mockConfigStore) Get(key string) (any, bool) {
	val, ok := m.data[key]
	return val, ok
}

func (m *mockConfigStore) GetString(key string) string {
	if v, ok := m.data[key].(string); ok {
		return v
	}
	return ""
}

func (m *mockConfigStore) GetInt(key string) int {
	switch v := m.data[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	}
	return 0
}

func (m *mockConfigStore) GetFloat(key string) float64 {
	switch v := m.data[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 0
}

func (m *mockConfigStore) GetBool(key string) bool {
	v, _ := m.data[key].(bool)
	return v
}

func (m *mockConfigStore) GetDuration(key string) time.Duration {
	s, ok := m.data[key].(string)
	if !ok {
		return 0
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}

func (m *mockConfigStore) Set(key string, value any) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.data[key] = value
	return nil
}

func (m *mockConfigStore) Save() error { return m.saveErr }
func (m *mockConfigStore) Load() error { return nil }
func (m *mockConfigStore) Path() string {
	return "/tmp/mock-config.toml"
}

// mockValidator implements driven.BackendValidator.
type mockValidator struct {
	remoteErr error
	localErr  error

	lastRemote domain.RemoteBackendSettings
	lastLocal  domain.LocalBackendSettings
}

func (m *mockValidator) ValidateRemote(settings domain.RemoteBackendSettings) error {
	m.lastRemote = settings
	return m.remoteErr
}

func (m *mockValidator) ValidateLocal(settings domain.LocalBackendSettings) error {
	m.lastLocal = settings
	return m.localErr
}

// mockPromptStore implements driven.PromptStore.
type mockPromptStore struct {
	prompts map[string]string
	err     error
}

func (m *mockPromptStore) Load(name string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	if p, ok := m.prompts[name]; ok {
		return p, nil
	}
	return "", domain.ErrNotFound
}

func (m *mockPromptStore) Reload() {}
