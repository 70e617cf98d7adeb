// Package index provides an HTTP client for the arkivist indexer daemon.
// The indexer owns the corpus: chunking, embeddings storage, hybrid search
// fusion, the citation graph, and context compression all live there. This
// adapter only speaks its JSON API.
package index

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/arkivist-labs/arkivist-cli/internal/core/domain"
	"github.com/arkivist-labs/arkivist-cli/internal/core/ports/driven"
)

// DefaultBaseURL is the default indexer endpoint.
const DefaultBaseURL = "http://localhost:8091"

// requestTimeout bounds a single indexer call. Search and compression are
// local operations; anything slower than this means the daemon is wedged.
const requestTimeout = 30 * time.Second

// Config holds the indexer client configuration.
type Config struct {
	// BaseURL is the indexer endpoint. Empty means DefaultBaseURL.
	BaseURL string
}

// Client talks to the indexer daemon. It implements the search, graph,
// compression, entity, and project-context ports.
type Client struct {
	baseURL string
	client  *http.Client
}

var (
	_ driven.HybridSearcher         = (*Client)(nil)
	_ driven.CitationGraph          = (*Client)(nil)
	_ driven.ContextCompressor      = (*Client)(nil)
	_ driven.EntityExtractor        = (*Client)(nil)
	_ driven.ProjectContextProvider = (*Client)(nil)
)

// New creates an indexer client.
func New(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: requestTimeout},
	}
}

// Ping checks that the indexer daemon is reachable.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/health", nil)
	if err != nil {
		return fmt.Errorf("creating health request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("indexer not reachable at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("indexer health check returned status %d", resp.StatusCode)
	}
	return nil
}

type passageJSON struct {
	PassageID  string  `json:"passage_id"`
	DocumentID string  `json:"document_id"`
	Content    string  `json:"content"`
	Position   int     `json:"position"`
	Score      float64 `json:"score"`
}

func (p passageJSON) toDomain() domain.RetrievedPassage {
	return domain.RetrievedPassage{
		PassageID:  p.PassageID,
		DocumentID: p.DocumentID,
		Content:    p.Content,
		Position:   p.Position,
		Score:      p.Score,
	}
}

func passageToJSON(p domain.RetrievedPassage) passageJSON {
	return passageJSON{
		PassageID:  p.PassageID,
		DocumentID: p.DocumentID,
		Content:    p.Content,
		Position:   p.Position,
		Score:      p.Score,
	}
}

type searchRequestJSON struct {
	Embedding   []float32 `json:"embedding"`
	Query       string    `json:"query"`
	Limit       int       `json:"limit"`
	Collections []string  `json:"collections,omitempty"`
	DocumentIDs []string  `json:"document_ids,omitempty"`
	SourceType  string    `json:"source_type,omitempty"`
	Entities    []string  `json:"entities,omitempty"`
}

type searchResponseJSON struct {
	Passages []passageJSON `json:"passages"`
}

// Search runs fused hybrid search on the indexer.
func (c *Client) Search(ctx context.Context, req driven.SearchRequest) ([]domain.RetrievedPassage, error) {
	body := searchRequestJSON{
		Embedding:   req.Embedding,
		Query:       req.QueryText,
		Limit:       req.Limit,
		Collections: req.Collections,
		DocumentIDs: req.DocumentIDs,
		SourceType:  req.SourceType,
		Entities:    req.Entities,
	}

	var out searchResponseJSON
	if err := c.postJSON(ctx, "/api/search", body, &out); err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	passages := make([]domain.RetrievedPassage, len(out.Passages))
	for i, p := range out.Passages {
		passages[i] = p.toDomain()
	}
	return passages, nil
}

type documentJSON struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Summary string `json:"summary"`
}

func (d documentJSON) toDomain() domain.DocumentRef {
	return domain.DocumentRef{ID: d.ID, Title: d.Title, Summary: d.Summary}
}

type documentsResponseJSON struct {
	Documents []documentJSON `json:"documents"`
}

// CitedBy returns documents that docID cites.
func (c *Client) CitedBy(ctx context.Context, docID string) ([]domain.DocumentRef, error) {
	return c.documentList(ctx, "/api/documents/"+url.PathEscape(docID)+"/cited")
}

// Citing returns documents citing docID.
func (c *Client) Citing(ctx context.Context, docID string) ([]domain.DocumentRef, error) {
	return c.documentList(ctx, "/api/documents/"+url.PathEscape(docID)+"/citing")
}

// Similar returns documents above the similarity threshold.
func (c *Client) Similar(ctx context.Context, docID string, threshold float64, limit int) ([]domain.DocumentRef, error) {
	path := "/api/documents/" + url.PathEscape(docID) + "/similar" +
		"?threshold=" + strconv.FormatFloat(threshold, 'f', -1, 64) +
		"&limit=" + strconv.Itoa(limit)
	return c.documentList(ctx, path)
}

// GetDocument resolves a document by ID.
func (c *Client) GetDocument(ctx context.Context, docID string) (*domain.DocumentRef, error) {
	var out documentJSON
	err := c.getJSON(ctx, "/api/documents/"+url.PathEscape(docID), &out)
	if err != nil {
		return nil, err
	}
	doc := out.toDomain()
	return &doc, nil
}

func (c *Client) documentList(ctx context.Context, path string) ([]domain.DocumentRef, error) {
	var out documentsResponseJSON
	if err := c.getJSON(ctx, path, &out); err != nil {
		return nil, err
	}
	docs := make([]domain.DocumentRef, len(out.Documents))
	for i, d := range out.Documents {
		docs[i] = d.toDomain()
	}
	return docs, nil
}

type compressRequestJSON struct {
	Passages []passageJSON `json:"passages"`
	Query    string        `json:"query"`
	Budget   int           `json:"budget"`
}

type compressResponseJSON struct {
	Passages []passageJSON `json:"passages"`
	Strategy string        `json:"strategy"`
}

// Compress reduces passages to the character budget on the indexer side.
func (c *Client) Compress(
	ctx context.Context, passages []domain.RetrievedPassage, queryText string, charBudget int,
) (driven.CompressionResult, error) {
	body := compressRequestJSON{
		Passages: make([]passageJSON, len(passages)),
		Query:    queryText,
		Budget:   charBudget,
	}
	for i, p := range passages {
		body.Passages[i] = passageToJSON(p)
	}

	var out compressResponseJSON
	if err := c.postJSON(ctx, "/api/compress", body, &out); err != nil {
		return driven.CompressionResult{}, fmt.Errorf("compress: %w", err)
	}

	result := driven.CompressionResult{
		Passages: make([]domain.RetrievedPassage, len(out.Passages)),
		Strategy: out.Strategy,
	}
	for i, p := range out.Passages {
		// Compression can drop GraphExpansion on the wire; restore it
		// from the input set by passage ID.
		result.Passages[i] = p.toDomain()
		for _, orig := range passages {
			if orig.PassageID == p.PassageID {
				result.Passages[i].GraphExpansion = orig.GraphExpansion
				break
			}
		}
	}
	return result, nil
}

type entitiesRequestJSON struct {
	Text string `json:"text"`
}

type entitiesResponseJSON struct {
	Entities []string `json:"entities"`
}

// ExtractQueryEntities returns the named entities found in text.
func (c *Client) ExtractQueryEntities(ctx context.Context, text string) ([]string, error) {
	var out entitiesResponseJSON
	if err := c.postJSON(ctx, "/api/entities", entitiesRequestJSON{Text: text}, &out); err != nil {
		return nil, fmt.Errorf("entity extraction: %w", err)
	}
	return out.Entities, nil
}

type projectResponseJSON struct {
	Context string `json:"context"`
}

// ProjectContext returns the active project's context string, if any.
func (c *Client) ProjectContext(ctx context.Context) (string, error) {
	var out projectResponseJSON
	if err := c.getJSON(ctx, "/api/project", &out); err != nil {
		return "", err
	}
	return out.Context, nil
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshalling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, out)
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("indexer request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return domain.ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512)) //nolint:errcheck
		return fmt.Errorf("indexer returned status %d: %s", resp.StatusCode, string(data))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
