// Package ollama provides a generation backend adapter for a local Ollama
// runtime, streaming tokens as newline-delimited JSON.
package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/arkivist-labs/arkivist-cli/internal/core/domain"
	"github.com/arkivist-labs/arkivist-cli/internal/core/ports/driven"
)

// Ensure Backend implements the interface.
var _ driven.GenerationBackend = (*Backend)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "http://localhost:11434"
)

// Config holds configuration for the Ollama generation backend.
type Config struct {
	// BaseURL is the Ollama API base URL (default: http://localhost:11434).
	BaseURL string

	// Model is the model to use. Empty means whichever model the runtime
	// currently has loaded.
	Model string
}

// Backend streams completions from a local Ollama runtime.
type Backend struct {
	client  *http.Client
	baseURL string
	model   string
}

// generateRequest is the Ollama /api/generate request format.
type generateRequest struct {
	Model   string   `json:"model"`
	Prompt  string   `json:"prompt"`
	System  string   `json:"system,omitempty"`
	Stream  bool     `json:"stream"`
	Options *options `json:"options,omitempty"`
}

// options holds generation parameters.
type options struct {
	Temperature   float64 `json:"temperature,omitempty"`
	TopP          float64 `json:"top_p,omitempty"`
	TopK          int     `json:"top_k,omitempty"`
	RepeatPenalty float64 `json:"repeat_penalty,omitempty"`
	NumCtx        int     `json:"num_ctx,omitempty"`
}

// generateChunk is one NDJSON line of a streamed /api/generate response.
type generateChunk struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error,omitempty"`
}

// psResponse is the Ollama /api/ps response format.
type psResponse struct {
	Models []struct {
		Name  string `json:"name"`
		Model string `json:"model"`
	} `json:"models"`
}

// New creates a new Ollama generation backend.
func New(cfg Config) *Backend {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}

	return &Backend{
		// Streams are bounded by the request context, not a client timeout.
		client:  &http.Client{},
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
	}
}

// Kind reports this as the local backend.
func (b *Backend) Kind() domain.BackendKind {
	return domain.BackendLocal
}

// Name returns the backend implementation name.
func (b *Backend) Name() string {
	return "ollama"
}

// ModelName returns the configured model, or the currently loaded one when
// no model is pinned.
func (b *Backend) ModelName() string {
	if b.model != "" {
		return b.model
	}
	if loaded, err := b.loadedModel(context.Background()); err == nil {
		return loaded
	}
	return ""
}

// StreamGenerate starts a streamed generation for the request.
func (b *Backend) StreamGenerate(ctx context.Context, req domain.GenerationRequest) (driven.TokenStream, error) {
	model := b.model
	if req.ModelOverride != "" {
		model = req.ModelOverride
	}
	if model == "" {
		loaded, err := b.loadedModel(ctx)
		if err != nil {
			return nil, fmt.Errorf("ollama: no model configured and none loaded: %w", err)
		}
		model = loaded
	}

	reqBody := generateRequest{
		Model:  model,
		Prompt: userPrompt(req),
		System: req.SystemPrompt,
		Stream: true,
		Options: &options{
			Temperature:   req.Sampling.Temperature,
			TopP:          req.Sampling.TopP,
			TopK:          req.Sampling.TopK,
			RepeatPenalty: req.Sampling.RepeatPenalty,
			NumCtx:        req.Sampling.ContextWindowTokens,
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		b.baseURL+"/api/generate",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return nil, fmt.Errorf("ollama error (status %d): failed to read body: %w", resp.StatusCode, readErr)
		}
		return nil, fmt.Errorf("ollama error (status %d): %s", resp.StatusCode, string(body))
	}

	return newNDJSONStream(ctx, resp.Body), nil
}

// userPrompt renders the grounded user turn: context block first, then the
// question.
func userPrompt(req domain.GenerationRequest) string {
	block := req.ContextBlock()
	if block == "" {
		return req.Query
	}
	return block + "Question: " + req.Query
}

// Ping checks that the runtime is reachable and has a model loaded.
// A running daemon with nothing loaded cannot serve a request, so an empty
// /api/ps counts as unavailable when no model is pinned.
func (b *Backend) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if b.model != "" {
		// A pinned model is pulled on demand; a reachable daemon suffices.
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+"/api/version", http.NoBody)
		if err != nil {
			return fmt.Errorf("ollama: failed to create ping request: %w", err)
		}
		resp, err := b.client.Do(req)
		if err != nil {
			return fmt.Errorf("ollama: ping failed: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("ollama: API returned status %d", resp.StatusCode)
		}
		return nil
	}

	if _, err := b.loadedModel(ctx); err != nil {
		return err
	}
	return nil
}

// loadedModel returns the first model the runtime currently has loaded.
func (b *Backend) loadedModel(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+"/api/ps", http.NoBody)
	if err != nil {
		return "", fmt.Errorf("ollama: failed to create request: %w", err)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama: not reachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama: API returned status %d", resp.StatusCode)
	}

	var ps psResponse
	if err := json.NewDecoder(resp.Body).Decode(&ps); err != nil {
		return "", fmt.Errorf("ollama: decode response: %w", err)
	}
	if len(ps.Models) == 0 {
		return "", fmt.Errorf("ollama: no model loaded")
	}
	return ps.Models[0].Name, nil
}

// Close releases resources.
func (b *Backend) Close() error {
	return nil
}

// ndjsonStream adapts a newline-delimited JSON response body to a TokenStream.
type ndjsonStream struct {
	fragments chan string
	cancel    context.CancelFunc
	done      chan struct{}
	err       error
}

func newNDJSONStream(ctx context.Context, body io.ReadCloser) *ndjsonStream {
	sctx, cancel := context.WithCancel(ctx)
	s := &ndjsonStream{
		fragments: make(chan string, 16),
		cancel:    cancel,
		done:      make(chan struct{}),
	}

	// Cancellation must unblock a read in progress.
	go func() {
		select {
		case <-sctx.Done():
			body.Close()
		case <-s.done:
		}
	}()

	go func() {
		defer close(s.done)
		defer close(s.fragments)
		defer body.Close()
		s.err = s.read(sctx, body)
	}()

	return s
}

// read consumes NDJSON lines until done, an error, or cancellation.
func (s *ndjsonStream) read(ctx context.Context, body io.Reader) error {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var chunk generateChunk
		if err := json.Unmarshal(line, &chunk); err != nil {
			return fmt.Errorf("decode stream chunk: %w", err)
		}
		if chunk.Error != "" {
			return fmt.Errorf("ollama error: %s", chunk.Error)
		}

		if chunk.Response != "" {
			select {
			case s.fragments <- chunk.Response:
			case <-ctx.Done():
				return streamTerminationError(ctx)
			}
		}
		if chunk.Done {
			return nil
		}
	}

	if err := ctx.Err(); err != nil {
		return streamTerminationError(ctx)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read stream: %w", err)
	}
	return nil
}

// streamTerminationError maps context termination to the domain errors the
// orchestrator distinguishes.
func streamTerminationError(ctx context.Context) error {
	if ctx.Err() == context.DeadlineExceeded {
		return domain.ErrGenerationTimeout
	}
	return domain.ErrStreamCancelled
}

// Fragments returns the fragment channel.
func (s *ndjsonStream) Fragments() <-chan string {
	return s.fragments
}

// Err reports the terminal error once Fragments is closed.
func (s *ndjsonStream) Err() error {
	<-s.done
	return s.err
}

// Cancel stops the stream. Safe to call more than once.
func (s *ndjsonStream) Cancel() {
	s.cancel()
}
