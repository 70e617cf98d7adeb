package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/arkivist-labs/arkivist-cli/internal/core/domain"
	"github.com/arkivist-labs/arkivist-cli/internal/core/ports/driven"
	"github.com/arkivist-labs/arkivist-cli/internal/core/ports/driving"
	"github.com/arkivist-labs/arkivist-cli/internal/logger"
)

// Ensure AnswerService implements the driving ports.
var (
	_ driving.AnswerService        = (*AnswerService)(nil)
	_ driving.RetrievalService     = (*AnswerService)(nil)
	_ driving.BackendStatusService = (*AnswerService)(nil)
	_ driving.HistoryService       = (*AnswerService)(nil)
)

// operationKindAnswer names the structured history record for one
// retrieval-augmented exchange.
const operationKindAnswer = "rag_answer"

// AnswerService orchestrates the full question-answering pipeline:
// cache lookup, retrieval, graph expansion, compression, prompt assembly,
// streamed generation, history logging, and explanation assembly.
//
// Per request the stages run strictly in order. Across requests at most one
// generation stream is current; starting a new one supersedes the previous,
// whose remaining fragments are never delivered to any sink.
type AnswerService struct {
	selector   *BackendSelector
	retriever  *RetrievalCoordinator
	cache      *QueryCache
	prompts    *PromptBuilder
	compressor driven.ContextCompressor      // optional
	graph      driven.CitationGraph          // optional
	history    driven.HistoryStore           // optional
	project    driven.ProjectContextProvider // optional
	settings   domain.GenerationSettings

	mu        sync.Mutex
	current   driven.TokenStream
	streamSeq uint64
}

// NewAnswerService creates the orchestrator. The compressor, graph, history
// store, and project context provider are optional (can be nil).
func NewAnswerService(
	selector *BackendSelector,
	retriever *RetrievalCoordinator,
	cache *QueryCache,
	prompts *PromptBuilder,
	compressor driven.ContextCompressor,
	graph driven.CitationGraph,
	history driven.HistoryStore,
	project driven.ProjectContextProvider,
	settings domain.GenerationSettings,
) *AnswerService {
	if settings.Timeout <= 0 {
		settings.Timeout = domain.DefaultGenerationTimeout
	}
	if settings.ContextBudgetChars <= 0 {
		settings.ContextBudgetChars = domain.DefaultContextBudgetChars
	}
	return &AnswerService{
		selector:   selector,
		retriever:  retriever,
		cache:      cache,
		prompts:    prompts,
		compressor: compressor,
		graph:      graph,
		history:    history,
		project:    project,
		settings:   settings,
	}
}

// Answer runs the pipeline for one query.
func (s *AnswerService) Answer(ctx context.Context, query string, opts domain.AnswerOptions) (domain.AnswerResult, error) {
	totalStart := time.Now()
	logger.Section("Answer")
	logger.Debug("Query: %q", query)

	query = strings.TrimSpace(query)
	if query == "" {
		return domain.AnswerResult{}, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}

	// 1. Resolve the backend up front so a dead stack fails before any
	// retrieval work happens.
	backend, err := s.selector.Select(ctx, opts.Backend)
	if err != nil {
		return domain.AnswerResult{}, err
	}

	// 2. Retrieval through the cache.
	var (
		passages    []domain.RetrievedPassage
		cacheHit    bool
		searchMs    int64
		graphTitles []string
	)
	if opts.Retrieval {
		passages, cacheHit, searchMs, err = s.retrieveCached(ctx, query, &opts.Filters)
		if err != nil {
			return domain.AnswerResult{}, err
		}
		passages, graphTitles = s.dropOrphans(ctx, passages)
	}
	usedRetrieval := opts.Retrieval && len(passages) > 0

	// The search trace reports what retrieval found; compression below
	// only changes what reaches the model.
	retrieved := passages

	// 3. Compression.
	var (
		compTrace     *domain.CompressionTrace
		compressionMs int64
	)
	if usedRetrieval {
		passages, compTrace, compressionMs = s.compress(ctx, query, passages, opts.DisableCompression)
	}

	// 4. System prompt.
	systemPrompt := s.buildSystemPrompt(opts)

	// 5. Generation request assembly.
	req := s.buildRequest(ctx, query, passages, systemPrompt, opts)

	// 6. Streamed generation.
	genStart := time.Now()
	response, err := s.generate(ctx, backend, req, opts.Sink)
	if err != nil {
		return domain.AnswerResult{}, err
	}
	generationMs := time.Since(genStart).Milliseconds()

	totalMs := time.Since(totalStart).Milliseconds()

	// 7. History logging is fire-and-forget; failures never abort the call.
	s.logHistory(ctx, query, response, passages, backend, usedRetrieval, cacheHit, totalMs)

	// 8. Explanation. Answers without context are not explained.
	var trace *domain.ExplanationTrace
	if usedRetrieval {
		trace = s.buildTrace(query, retrieved, opts, backend, req, traceTimings{
			searchMs:      searchMs,
			compressionMs: compressionMs,
			generationMs:  generationMs,
			totalMs:       totalMs,
			cacheHit:      cacheHit,
			compression:   compTrace,
			graphTitles:   graphTitles,
		})
	}

	logger.Info("Answered in %dms (retrieval=%t, passages=%d)", totalMs, usedRetrieval, len(passages))

	return domain.AnswerResult{
		Response:      response,
		UsedRetrieval: usedRetrieval,
		PassageCount:  len(passages),
		Explanation:   trace,
	}, nil
}

// Retrieve exposes cache-aware retrieval without generation.
func (s *AnswerService) Retrieve(ctx context.Context, query string, filters domain.RetrievalFilters) ([]domain.RetrievedPassage, error) {
	passages, _, _, err := s.retrieveCached(ctx, query, &filters)
	if err != nil {
		return nil, err
	}
	passages, _ = s.dropOrphans(ctx, passages)
	return passages, nil
}

// Status probes both backends and reports live availability.
func (s *AnswerService) Status(ctx context.Context) domain.ProviderStatus {
	return s.selector.Status(ctx)
}

// RecentMessages returns the most recent conversation turns, newest first.
func (s *AnswerService) RecentMessages(ctx context.Context, limit int) ([]domain.ChatMessage, error) {
	if s.history == nil {
		return []domain.ChatMessage{}, nil
	}
	return s.history.RecentMessages(ctx, limit)
}

// RecentOperations returns the most recent operation records, newest first.
func (s *AnswerService) RecentOperations(ctx context.Context, limit int) ([]domain.AIOperation, error) {
	if s.history == nil {
		return []domain.AIOperation{}, nil
	}
	return s.history.RecentOperations(ctx, limit)
}

// Cancel stops the current generation stream. A call with no active stream
// is a no-op.
func (s *AnswerService) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil {
		s.current.Cancel()
		s.current = nil
	}
}

// retrieveCached consults the query cache before the retrieval coordinator.
// Failed retrievals are never cached.
func (s *AnswerService) retrieveCached(
	ctx context.Context, query string, filters *domain.RetrievalFilters,
) (passages []domain.RetrievedPassage, cacheHit bool, durationMs int64, err error) {
	if filters.Limit <= 0 {
		filters.Limit = s.retriever.settings.Limit
	}

	start := time.Now()
	key := s.cache.ComputeKey(query, *filters)

	if cached, ok := s.cache.Get(key); ok {
		logger.Debug("Query cache hit (%d passages)", len(cached))
		return cached, true, time.Since(start).Milliseconds(), nil
	}

	passages, err = s.retriever.Retrieve(ctx, query, *filters)
	if err != nil {
		return nil, false, 0, err
	}
	s.cache.Put(key, passages)

	return passages, false, time.Since(start).Milliseconds(), nil
}

// dropOrphans filters out passages whose parent document cannot be resolved.
// Orphans are dropped, not surfaced as errors. It also collects the titles
// of graph-expansion documents for the explanation trace.
func (s *AnswerService) dropOrphans(
	ctx context.Context, passages []domain.RetrievedPassage,
) ([]domain.RetrievedPassage, []string) {
	if s.graph == nil || len(passages) == 0 {
		return passages, nil
	}

	resolved := make(map[string]*domain.DocumentRef)
	kept := make([]domain.RetrievedPassage, 0, len(passages))
	var graphTitles []string

	for _, p := range passages {
		doc, ok := resolved[p.DocumentID]
		if !ok {
			var err error
			doc, err = s.graph.GetDocument(ctx, p.DocumentID)
			if err != nil {
				if !errors.Is(err, domain.ErrNotFound) {
					logger.Warn("Document %s could not be resolved: %v", p.DocumentID, err)
				}
				doc = nil
			}
			resolved[p.DocumentID] = doc
		}
		if doc == nil {
			logger.Debug("Dropping orphaned passage %s (document %s)", p.PassageID, p.DocumentID)
			continue
		}
		kept = append(kept, p)
		if p.GraphExpansion {
			graphTitles = append(graphTitles, doc.Title)
		}
	}

	return kept, graphTitles
}

// compress invokes the compressor collaborator. Failures degrade to the
// uncompressed passage set.
func (s *AnswerService) compress(
	ctx context.Context, query string, passages []domain.RetrievedPassage, disabled bool,
) ([]domain.RetrievedPassage, *domain.CompressionTrace, int64) {
	beforeSize := passageChars(passages)
	passthrough := &domain.CompressionTrace{
		Enabled:      false,
		BeforeChunks: len(passages),
		AfterChunks:  len(passages),
		BeforeSize:   beforeSize,
		AfterSize:    beforeSize,
	}

	if disabled || s.compressor == nil {
		return passages, passthrough, 0
	}

	start := time.Now()
	result, err := s.compressor.Compress(ctx, passages, query, s.settings.ContextBudgetChars)
	if err != nil {
		logger.Warn("%v: %v (forwarding uncompressed passages)", domain.ErrCompressionFailed, err)
		return passages, passthrough, time.Since(start).Milliseconds()
	}

	afterSize := passageChars(result.Passages)
	reduction := 0.0
	if beforeSize > 0 {
		reduction = float64(beforeSize-afterSize) / float64(beforeSize) * 100
	}

	trace := &domain.CompressionTrace{
		Enabled:          true,
		BeforeChunks:     len(passages),
		AfterChunks:      len(result.Passages),
		BeforeSize:       beforeSize,
		AfterSize:        afterSize,
		ReductionPercent: reduction,
		Strategy:         result.Strategy,
	}
	return result.Passages, trace, time.Since(start).Milliseconds()
}

// buildSystemPrompt merges request options with configured defaults.
func (s *AnswerService) buildSystemPrompt(opts domain.AnswerOptions) string {
	language := opts.Language
	if language == "" {
		language = s.settings.Language
	}

	useCustom := opts.UseCustomPrompt
	customText := opts.CustomPrompt
	if !useCustom && s.settings.UseCustomPrompt {
		useCustom = true
		customText = s.settings.CustomPrompt
	}

	return s.prompts.Build(language, useCustom, customText, opts.FreeMode)
}

// buildRequest assembles the generation request from query, passages,
// project context, and sampling parameters.
func (s *AnswerService) buildRequest(
	ctx context.Context, query string, passages []domain.RetrievedPassage, systemPrompt string, opts domain.AnswerOptions,
) domain.GenerationRequest {
	var projectContext string
	if s.project != nil {
		pc, err := s.project.ProjectContext(ctx)
		if err != nil {
			logger.Warn("Project context unavailable: %v", err)
		} else {
			projectContext = pc
		}
	}

	sampling := s.samplingParams(opts)

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = s.settings.Timeout
	}

	return domain.GenerationRequest{
		Query:          query,
		Passages:       passages,
		ProjectContext: projectContext,
		SystemPrompt:   systemPrompt,
		Sampling:       sampling,
		ModelOverride:  opts.ModelOverride,
		Timeout:        timeout,
	}
}

// samplingParams resolves explicit overrides against the preset defaults.
func (s *AnswerService) samplingParams(opts domain.AnswerOptions) domain.SamplingParams {
	preset := opts.Preset
	if preset == "" {
		preset = s.settings.Preset
	}
	params := preset.Params()

	if opts.Sampling != nil {
		override := *opts.Sampling
		if override.ContextWindowTokens <= 0 {
			override.ContextWindowTokens = params.ContextWindowTokens
		}
		return override
	}
	return params
}

// generate streams the response, forwarding fragments to the sink while the
// stream is still current. Deadline overruns surface as
// domain.ErrGenerationTimeout, not an opaque I/O error.
func (s *AnswerService) generate(
	ctx context.Context, backend driven.GenerationBackend, req domain.GenerationRequest, sink func(string),
) (string, error) {
	gctx, cancel := context.WithTimeout(ctx, req.Timeout)
	defer cancel()

	stream, err := backend.StreamGenerate(gctx, req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w after %s", domain.ErrGenerationTimeout, req.Timeout)
		}
		return "", fmt.Errorf("generation: %w", err)
	}

	id := s.registerStream(stream)
	defer s.clearStream(id)

	var b strings.Builder
	for fragment := range stream.Fragments() {
		// Fragments of a superseded stream are dropped, never delivered.
		if !s.isCurrent(id) {
			continue
		}
		b.WriteString(fragment)
		if sink != nil {
			sink(fragment)
		}
	}

	if err := stream.Err(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, domain.ErrGenerationTimeout) {
			return "", fmt.Errorf("%w after %s", domain.ErrGenerationTimeout, req.Timeout)
		}
		return "", fmt.Errorf("generation: %w", err)
	}

	return b.String(), nil
}

// registerStream makes a stream current, superseding (and cancelling) any
// previous one.
func (s *AnswerService) registerStream(stream driven.TokenStream) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil {
		s.current.Cancel()
	}
	s.streamSeq++
	s.current = stream
	return s.streamSeq
}

func (s *AnswerService) isCurrent(id uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != nil && s.streamSeq == id
}

func (s *AnswerService) clearStream(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.streamSeq == id {
		s.current = nil
	}
}

// logHistory writes the exchange to the history collaborator.
// All failures are swallowed with a warning.
func (s *AnswerService) logHistory(
	ctx context.Context, query, response string, passages []domain.RetrievedPassage,
	backend driven.GenerationBackend, usedRetrieval, cacheHit bool, totalMs int64,
) {
	if s.history == nil {
		return
	}

	now := time.Now()
	if err := s.history.LogChatMessage(ctx, domain.ChatMessage{
		ID:        uuid.NewString(),
		Role:      domain.ChatRoleUser,
		Content:   query,
		CreatedAt: now,
	}); err != nil {
		logger.Warn("%v: user turn: %v", domain.ErrHistoryLog, err)
	}

	if err := s.history.LogChatMessage(ctx, domain.ChatMessage{
		ID:        uuid.NewString(),
		Role:      domain.ChatRoleAssistant,
		Content:   response,
		SourceIDs: distinctDocumentIDs(passages),
		CreatedAt: now,
	}); err != nil {
		logger.Warn("%v: assistant turn: %v", domain.ErrHistoryLog, err)
	}

	if usedRetrieval {
		if err := s.history.LogAIOperation(ctx, domain.AIOperation{
			ID:           uuid.NewString(),
			Kind:         operationKindAnswer,
			Query:        query,
			Backend:      backend.Name(),
			Model:        backend.ModelName(),
			PassageCount: len(passages),
			DurationMs:   totalMs,
			CacheHit:     cacheHit,
			CreatedAt:    now,
		}); err != nil {
			logger.Warn("%v: operation record: %v", domain.ErrHistoryLog, err)
		}
	}
}

// traceTimings bundles the measurements buildTrace needs.
type traceTimings struct {
	searchMs      int64
	compressionMs int64
	generationMs  int64
	totalMs       int64
	cacheHit      bool
	compression   *domain.CompressionTrace
	graphTitles   []string
}

// buildTrace assembles the explanation returned with a grounded answer.
func (s *AnswerService) buildTrace(
	query string, passages []domain.RetrievedPassage, opts domain.AnswerOptions,
	backend driven.GenerationBackend, req domain.GenerationRequest, t traceTimings,
) *domain.ExplanationTrace {
	trace := &domain.ExplanationTrace{
		Search: domain.SearchTrace{
			Query:        query,
			TotalResults: len(passages),
			DurationMs:   t.searchMs,
			CacheHit:     t.cacheHit,
			SourceType:   opts.Filters.SourceType,
			PerDocument:  summarizeByDocument(passages),
		},
		Compression: t.compression,
		Generation: domain.GenerationTrace{
			BackendName:         backend.Name(),
			ModelName:           modelFor(backend, req),
			ContextWindowTokens: req.Sampling.ContextWindowTokens,
			Temperature:         req.Sampling.Temperature,
			PromptSizeChars:     req.PromptSize(),
		},
		Timing: domain.TimingTrace{
			SearchMs:      t.searchMs,
			CompressionMs: t.compressionMs,
			GenerationMs:  t.generationMs,
			TotalMs:       t.totalMs,
		},
	}

	if opts.Filters.GraphExpansion {
		trace.Graph = &domain.GraphTrace{
			Enabled:          true,
			RelatedDocsFound: countGraphExpansion(passages),
			Titles:           t.graphTitles,
		}
	}

	return trace
}

func modelFor(backend driven.GenerationBackend, req domain.GenerationRequest) string {
	if req.ModelOverride != "" {
		return req.ModelOverride
	}
	return backend.ModelName()
}

func passageChars(passages []domain.RetrievedPassage) int {
	total := 0
	for _, p := range passages {
		total += len(p.Content)
	}
	return total
}

func distinctDocumentIDs(passages []domain.RetrievedPassage) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, p := range passages {
		if !seen[p.DocumentID] {
			seen[p.DocumentID] = true
			ids = append(ids, p.DocumentID)
		}
	}
	return ids
}

func summarizeByDocument(passages []domain.RetrievedPassage) []domain.DocumentSummary {
	index := make(map[string]int)
	var summaries []domain.DocumentSummary
	for _, p := range passages {
		i, ok := index[p.DocumentID]
		if !ok {
			i = len(summaries)
			index[p.DocumentID] = i
			summaries = append(summaries, domain.DocumentSummary{DocumentID: p.DocumentID})
		}
		summaries[i].Passages++
		if p.Score > summaries[i].BestScore {
			summaries[i].BestScore = p.Score
		}
	}
	return summaries
}

func countGraphExpansion(passages []domain.RetrievedPassage) int {
	count := 0
	for _, p := range passages {
		if p.GraphExpansion {
			count++
		}
	}
	return count
}
