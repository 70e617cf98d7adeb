// Package openai provides a generation backend adapter for OpenAI-compatible
// chat completion APIs, streaming tokens over server-sent events.
package openai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/arkivist-labs/arkivist-cli/internal/core/domain"
	"github.com/arkivist-labs/arkivist-cli/internal/core/ports/driven"
)

// Ensure Backend implements the interface.
var _ driven.GenerationBackend = (*Backend)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4o-mini"
)

// Config holds configuration for the OpenAI generation backend.
type Config struct {
	// APIKey is the OpenAI API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.openai.com/v1).
	// Can be changed for Azure OpenAI or compatible APIs.
	BaseURL string

	// Model is the generation model to use (default: gpt-4o-mini).
	Model string
}

// Backend streams completions from an OpenAI-compatible API.
type Backend struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
	limiter *RateLimiter
}

// chatCompletionRequest is the /chat/completions request format.
type chatCompletionRequest struct {
	Model       string              `json:"model"`
	Messages    []chatCompletionMsg `json:"messages"`
	Stream      bool                `json:"stream"`
	Temperature float64             `json:"temperature,omitempty"`
	TopP        float64             `json:"top_p,omitempty"`
}

// chatCompletionMsg is the chat message format.
type chatCompletionMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatCompletionChunk is one SSE data event of a streamed completion.
type chatCompletionChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// New creates a new OpenAI generation backend.
func New(cfg Config) (*Backend, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	return &Backend{
		// No client-level timeout: streams are bounded by the request
		// context, and a long generation is not an error.
		client:  &http.Client{},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		limiter: NewRateLimiter(),
	}, nil
}

// Kind reports this as the remote backend.
func (b *Backend) Kind() domain.BackendKind {
	return domain.BackendRemote
}

// Name returns the backend implementation name.
func (b *Backend) Name() string {
	return "openai"
}

// ModelName returns the model that will serve the next request.
func (b *Backend) ModelName() string {
	return b.model
}

// StreamGenerate starts a streamed chat completion for the request.
func (b *Backend) StreamGenerate(ctx context.Context, req domain.GenerationRequest) (driven.TokenStream, error) {
	if err := b.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("openai: rate limit wait: %w", err)
	}

	model := b.model
	if req.ModelOverride != "" {
		model = req.ModelOverride
	}

	var messages []chatCompletionMsg
	if req.SystemPrompt != "" {
		messages = append(messages, chatCompletionMsg{Role: "system", Content: req.SystemPrompt})
	}
	messages = append(messages, chatCompletionMsg{Role: "user", Content: userContent(req)})

	reqBody := chatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Stream:      true,
		Temperature: req.Sampling.Temperature,
		TopP:        req.Sampling.TopP,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		b.baseURL+"/chat/completions",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("Authorization", "Bearer "+b.apiKey)

	resp, err := b.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}

	b.limiter.UpdateFromResponse(resp)

	if resp.StatusCode != http.StatusOK {
		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return nil, fmt.Errorf("openai error (status %d): failed to read body: %w", resp.StatusCode, readErr)
		}
		return nil, fmt.Errorf("openai error (status %d): %s", resp.StatusCode, string(body))
	}

	return newSSEStream(ctx, resp.Body), nil
}

// userContent renders the grounded user turn: context block first, then the
// question.
func userContent(req domain.GenerationRequest) string {
	block := req.ContextBlock()
	if block == "" {
		return req.Query
	}
	return block + "Question: " + req.Query
}

// Ping validates the API key by listing models. No inference runs.
func (b *Backend) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+"/models", http.NoBody)
	if err != nil {
		return fmt.Errorf("openai: failed to create ping request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+b.apiKey)

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("openai: ping failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("openai: API returned status %d (failed to read body: %w)", resp.StatusCode, err)
		}
		return fmt.Errorf("openai: API returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// Close releases resources.
func (b *Backend) Close() error {
	// HTTP client doesn't need explicit cleanup
	return nil
}

// sseStream adapts a server-sent-events response body to a TokenStream.
type sseStream struct {
	fragments chan string
	cancel    context.CancelFunc
	done      chan struct{}
	err       error
}

// newSSEStream starts a reader goroutine over the response body.
// The body is closed when the stream ends or is cancelled.
func newSSEStream(ctx context.Context, body io.ReadCloser) *sseStream {
	sctx, cancel := context.WithCancel(ctx)
	s := &sseStream{
		fragments: make(chan string, 16),
		cancel:    cancel,
		done:      make(chan struct{}),
	}

	// Cancellation must unblock a read in progress, so the body is closed
	// as soon as the stream context ends.
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

// read consumes SSE events until [DONE], an error, or cancellation.
func (s *sseStream) read(ctx context.Context, body io.Reader) error {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "[DONE]" {
			return nil
		}

		var chunk chatCompletionChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return fmt.Errorf("decode stream chunk: %w", err)
		}
		if chunk.Error != nil {
			return fmt.Errorf("openai error: %s", chunk.Error.Message)
		}
		if len(chunk.Choices) == 0 {
			continue
		}

		if content := chunk.Choices[0].Delta.Content; content != "" {
			select {
			case s.fragments <- content:
			case <-ctx.Done():
				return streamTerminationError(ctx)
			}
		}
		if chunk.Choices[0].FinishReason != nil {
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
func (s *sseStream) Fragments() <-chan string {
	return s.fragments
}

// Err reports the terminal error once Fragments is closed.
func (s *sseStream) Err() error {
	<-s.done
	return s.err
}

// Cancel stops the stream. Safe to call more than once.
func (s *sseStream) Cancel() {
	s.cancel()
}
