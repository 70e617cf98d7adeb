package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arkivist-labs/arkivist-cli/internal/core/domain"
)

func TestServer_handleAsk(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the answer with sources", func(t *testing.T) {
		mockAnswer := &mockAnswerService{
			result: domain.AnswerResult{
				Response:      "The treaty was signed in 1648.",
				UsedRetrieval: true,
				PassageCount:  3,
				Explanation: &domain.ExplanationTrace{
					Search: domain.SearchTrace{
						PerDocument: []domain.DocumentSummary{
							{DocumentID: "doc-1", Passages: 2, BestScore: 0.031},
							{DocumentID: "doc-2", Passages: 1, BestScore: 0.016},
						},
					},
				},
			},
		}

		ports := &Ports{Answer: mockAnswer}
		server, err := NewServer(ports)
		require.NoError(t, err)

		input := AskInput{Query: "when was the treaty signed?"}
		_, output, err := server.handleAsk(ctx, nil, input)

		require.NoError(t, err)
		assert.Equal(t, "The treaty was signed in 1648.", output.Answer)
		assert.True(t, output.UsedRetrieval)
		assert.Equal(t, 3, output.PassageCount)
		require.Len(t, output.Sources, 2)
		assert.Equal(t, "doc-1", output.Sources[0].DocumentID)
		assert.Equal(t, 0.031, output.Sources[0].BestScore)
	})

	t.Run("forwards retrieval options", func(t *testing.T) {
		mockAnswer := &mockAnswerService{}
		ports := &Ports{Answer: mockAnswer}
		server, err := NewServer(ports)
		require.NoError(t, err)

		input := AskInput{
			Query:       "who negotiated?",
			Graph:       true,
			Collections: []string{"letters"},
			Limit:       4,
			Backend:     "local",
			Language:    "de",
		}
		_, _, err = server.handleAsk(ctx, nil, input)

		require.NoError(t, err)
		assert.Equal(t, "who negotiated?", mockAnswer.lastQuery)
		assert.True(t, mockAnswer.lastOpts.Retrieval)
		assert.True(t, mockAnswer.lastOpts.Filters.GraphExpansion)
		assert.Equal(t, []string{"letters"}, mockAnswer.lastOpts.Filters.Collections)
		assert.Equal(t, 4, mockAnswer.lastOpts.Filters.Limit)
		assert.Equal(t, domain.BackendPreferenceLocal, mockAnswer.lastOpts.Backend)
		assert.Equal(t, domain.PromptLanguageGerman, mockAnswer.lastOpts.Language)
	})

	t.Run("no_retrieval disables grounding", func(t *testing.T) {
		mockAnswer := &mockAnswerService{}
		ports := &Ports{Answer: mockAnswer}
		server, err := NewServer(ports)
		require.NoError(t, err)

		input := AskInput{Query: "hello", NoRetrieval: true}
		_, output, err := server.handleAsk(ctx, nil, input)

		require.NoError(t, err)
		assert.False(t, mockAnswer.lastOpts.Retrieval)
		assert.Empty(t, output.Sources)
	})

	t.Run("returns error on answer failure", func(t *testing.T) {
		mockAnswer := &mockAnswerService{
			err: errors.New("no backend available"),
		}

		ports := &Ports{Answer: mockAnswer}
		server, err := NewServer(ports)
		require.NoError(t, err)

		input := AskInput{Query: "test"}
		_, _, err = server.handleAsk(ctx, nil, input)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "no backend available")
	})
}

func TestServer_handleRetrieve(t *testing.T) {
	ctx := context.Background()

	t.Run("returns passages", func(t *testing.T) {
		mockRetrieval := &mockRetrievalService{
			passages: []domain.RetrievedPassage{
				{PassageID: "p1", DocumentID: "doc-1", Content: "content one", Position: 0, Score: 0.031},
				{PassageID: "p2", DocumentID: "doc-2", Content: "content two", Position: 3, Score: 0.016, GraphExpansion: true},
			},
		}

		ports := &Ports{Answer: &mockAnswerService{}, Retrieval: mockRetrieval}
		server, err := NewServer(ports)
		require.NoError(t, err)

		input := RetrieveInput{Query: "westphalia", Limit: 8}
		_, output, err := server.handleRetrieve(ctx, nil, input)

		require.NoError(t, err)
		assert.Equal(t, 2, output.Count)
		require.Len(t, output.Passages, 2)
		assert.Equal(t, "p1", output.Passages[0].PassageID)
		assert.Equal(t, "doc-1", output.Passages[0].DocumentID)
		assert.True(t, output.Passages[1].GraphExpansion)
		assert.Equal(t, 8, mockRetrieval.lastFilters.Limit)
	})

	t.Run("errors when retrieval port missing", func(t *testing.T) {
		ports := &Ports{Answer: &mockAnswerService{}}
		server, err := NewServer(ports)
		require.NoError(t, err)

		input := RetrieveInput{Query: "test"}
		_, _, err = server.handleRetrieve(ctx, nil, input)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "retrieval is not available")
	})

	t.Run("returns error on retrieval failure", func(t *testing.T) {
		mockRetrieval := &mockRetrievalService{
			err: errors.New("search index offline"),
		}

		ports := &Ports{Answer: &mockAnswerService{}, Retrieval: mockRetrieval}
		server, err := NewServer(ports)
		require.NoError(t, err)

		input := RetrieveInput{Query: "test"}
		_, _, err = server.handleRetrieve(ctx, nil, input)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "search index offline")
	})
}
