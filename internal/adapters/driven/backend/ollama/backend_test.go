package ollama

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arkivist-labs/arkivist-cli/internal/core/domain"
)

func ndjsonBody(fragments ...string) string {
	body := ""
	for _, f := range fragments {
		line, _ := json.Marshal(generateChunk{Response: f})
		body += string(line) + "\n"
	}
	done, _ := json.Marshal(generateChunk{Done: true})
	return body + string(done) + "\n"
}

func newTestBackend(t *testing.T, model string, handler http.HandlerFunc) *Backend {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New(Config{BaseURL: server.URL, Model: model})
}

func TestNew_Defaults(t *testing.T) {
	backend := New(Config{})
	assert.Equal(t, DefaultBaseURL, backend.baseURL)
	assert.Equal(t, domain.BackendLocal, backend.Kind())
	assert.Equal(t, "ollama", backend.Name())
}

func TestStreamGenerate_StreamsFragments(t *testing.T) {
	backend := newTestBackend(t, "llama3.1:8b", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		io.WriteString(w, ndjsonBody("The ", "answer."))
	})

	stream, err := backend.StreamGenerate(context.Background(), domain.GenerationRequest{Query: "q"})
	require.NoError(t, err)

	var got string
	for f := range stream.Fragments() {
		got += f
	}
	assert.Equal(t, "The answer.", got)
	assert.NoError(t, stream.Err())
}

func TestStreamGenerate_SendsSamplingOptions(t *testing.T) {
	var captured generateRequest
	backend := newTestBackend(t, "llama3.1:8b", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &captured))
		io.WriteString(w, ndjsonBody("ok"))
	})

	req := domain.GenerationRequest{
		Query:        "when",
		SystemPrompt: "Be brief.",
		Sampling:     domain.SamplingParams{Temperature: 0.1, TopP: 0.9, TopK: 20, RepeatPenalty: 1.1, ContextWindowTokens: 8192},
		Passages: []domain.RetrievedPassage{
			{PassageID: "p1", DocumentID: "d1", Content: "relevant text"},
		},
	}
	stream, err := backend.StreamGenerate(context.Background(), req)
	require.NoError(t, err)
	for range stream.Fragments() {
	}

	assert.True(t, captured.Stream)
	assert.Equal(t, "llama3.1:8b", captured.Model)
	assert.Equal(t, "Be brief.", captured.System)
	require.NotNil(t, captured.Options)
	assert.Equal(t, 8192, captured.Options.NumCtx)
	assert.Equal(t, 20, captured.Options.TopK)
	assert.Contains(t, captured.Prompt, "relevant text")
	assert.Contains(t, captured.Prompt, "Question: when")
}

func TestStreamGenerate_MidStreamError(t *testing.T) {
	backend := newTestBackend(t, "llama3.1:8b", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"error":"model crashed"}`+"\n")
	})

	stream, err := backend.StreamGenerate(context.Background(), domain.GenerationRequest{Query: "q"})
	require.NoError(t, err)
	for range stream.Fragments() {
	}

	require.Error(t, stream.Err())
	assert.Contains(t, stream.Err().Error(), "model crashed")
}

func TestStreamGenerate_UsesLoadedModelWhenUnpinned(t *testing.T) {
	var captured generateRequest
	backend := newTestBackend(t, "", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/ps":
			io.WriteString(w, `{"models":[{"name":"mistral:7b","model":"mistral:7b"}]}`)
		case "/api/generate":
			body, _ := io.ReadAll(r.Body)
			json.Unmarshal(body, &captured)
			io.WriteString(w, ndjsonBody("ok"))
		}
	})

	stream, err := backend.StreamGenerate(context.Background(), domain.GenerationRequest{Query: "q"})
	require.NoError(t, err)
	for range stream.Fragments() {
	}

	assert.Equal(t, "mistral:7b", captured.Model)
}

func TestPing_UnpinnedRequiresLoadedModel(t *testing.T) {
	backend := newTestBackend(t, "", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"models":[]}`)
	})

	err := backend.Ping(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no model loaded")
}

func TestPing_UnpinnedWithLoadedModel(t *testing.T) {
	backend := newTestBackend(t, "", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"models":[{"name":"llama3.1:8b"}]}`)
	})

	assert.NoError(t, backend.Ping(context.Background()))
}

func TestPing_PinnedModelOnlyNeedsDaemon(t *testing.T) {
	backend := newTestBackend(t, "llama3.1:8b", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/version", r.URL.Path)
		io.WriteString(w, `{"version":"0.5.0"}`)
	})

	assert.NoError(t, backend.Ping(context.Background()))
}

func TestPing_DaemonDown(t *testing.T) {
	backend := New(Config{BaseURL: "http://127.0.0.1:1", Model: ""})

	assert.Error(t, backend.Ping(context.Background()))
}

func TestModelName_ReportsLoadedModel(t *testing.T) {
	backend := newTestBackend(t, "", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"models":[{"name":"mistral:7b"}]}`)
	})

	assert.Equal(t, "mistral:7b", backend.ModelName())
}
