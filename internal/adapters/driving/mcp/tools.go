package mcp

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/arkivist-labs/arkivist-cli/internal/core/domain"
)

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Query       string   `json:"query" jsonschema:"the question to answer from the archive"`
	NoRetrieval bool     `json:"no_retrieval,omitempty" jsonschema:"answer without grounding passages"`
	Graph       bool     `json:"graph,omitempty" jsonschema:"expand context via the citation graph"`
	Collections []string `json:"collections,omitempty" jsonschema:"restrict retrieval to these collections"`
	Limit       int      `json:"limit,omitempty" jsonschema:"maximum passages to retrieve (default 8)"`
	Backend     string   `json:"backend,omitempty" jsonschema:"backend preference: remote, local, or auto"`
	Language    string   `json:"language,omitempty" jsonschema:"answer language: en or de"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer        string         `json:"answer"`
	UsedRetrieval bool           `json:"used_retrieval"`
	PassageCount  int            `json:"passage_count"`
	Sources       []SourceOutput `json:"sources,omitempty"`
}

// SourceOutput summarises one document that grounded the answer.
type SourceOutput struct {
	DocumentID string  `json:"document_id"`
	Passages   int     `json:"passages"`
	BestScore  float64 `json:"best_score"`
}

// RetrieveInput is the input schema for the retrieve tool.
type RetrieveInput struct {
	Query       string   `json:"query" jsonschema:"the query to retrieve passages for"`
	Limit       int      `json:"limit,omitempty" jsonschema:"maximum number of passages (default 8)"`
	Graph       bool     `json:"graph,omitempty" jsonschema:"expand via the citation graph"`
	Collections []string `json:"collections,omitempty" jsonschema:"restrict retrieval to these collections"`
}

// RetrieveOutput is the output schema for the retrieve tool.
type RetrieveOutput struct {
	Passages []PassageOutput `json:"passages"`
	Count    int             `json:"count"`
}

// PassageOutput represents a single retrieved passage.
type PassageOutput struct {
	PassageID      string  `json:"passage_id"`
	DocumentID     string  `json:"document_id"`
	Content        string  `json:"content"`
	Position       int     `json:"position"`
	Score          float64 `json:"score"`
	GraphExpansion bool    `json:"graph_expansion,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Ask a question answered from the indexed archive, with citations",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "retrieve",
		Description: "Retrieve the archive passages most relevant to a query",
	}, s.handleRetrieve)
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	opts := domain.AnswerOptions{
		Retrieval: !input.NoRetrieval,
		Filters: domain.RetrievalFilters{
			Limit:          input.Limit,
			Collections:    input.Collections,
			GraphExpansion: input.Graph,
		},
	}
	if input.Backend != "" {
		opts.Backend = domain.BackendPreference(input.Backend)
	}
	if input.Language != "" {
		opts.Language = domain.PromptLanguage(input.Language)
	}

	result, err := s.ports.Answer.Answer(ctx, input.Query, opts)
	if err != nil {
		return nil, AskOutput{}, err
	}

	output := AskOutput{
		Answer:        result.Response,
		UsedRetrieval: result.UsedRetrieval,
		PassageCount:  result.PassageCount,
	}
	if result.Explanation != nil {
		for _, doc := range result.Explanation.Search.PerDocument {
			output.Sources = append(output.Sources, SourceOutput{
				DocumentID: doc.DocumentID,
				Passages:   doc.Passages,
				BestScore:  doc.BestScore,
			})
		}
	}

	return nil, output, nil
}

// handleRetrieve handles the retrieve tool invocation.
func (s *Server) handleRetrieve(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RetrieveInput,
) (*mcp.CallToolResult, RetrieveOutput, error) {
	if s.ports.Retrieval == nil {
		return nil, RetrieveOutput{}, errors.New("retrieval is not available")
	}

	filters := domain.RetrievalFilters{
		Limit:          input.Limit,
		Collections:    input.Collections,
		GraphExpansion: input.Graph,
	}

	passages, err := s.ports.Retrieval.Retrieve(ctx, input.Query, filters)
	if err != nil {
		return nil, RetrieveOutput{}, err
	}

	output := RetrieveOutput{
		Passages: make([]PassageOutput, len(passages)),
		Count:    len(passages),
	}
	for i := range passages {
		output.Passages[i] = PassageOutput{
			PassageID:      passages[i].PassageID,
			DocumentID:     passages[i].DocumentID,
			Content:        passages[i].Content,
			Position:       passages[i].Position,
			Score:          passages[i].Score,
			GraphExpansion: passages[i].GraphExpansion,
		}
	}

	return nil, output, nil
}
