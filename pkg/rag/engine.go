package rag

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"

	"commandcenter-be/internal/repository/contract"
	"commandcenter-be/pkg/embedding"
)

// ErrUnavailable marks the embedding or search backend as unreachable.
// Callers surface it as a degraded-mode message, not a hard failure.
var ErrUnavailable = errors.New("retrieval backend unavailable")

// Result is one ranked citation.
type Result struct {
	ChunkText   string  `json:"chunk_text"`
	SourceTitle string  `json:"source_title"`
	Folder      string  `json:"folder"`
	Similarity  float64 `json:"similarity"` // raw cosine similarity in [-1, 1]
}

// SearchResponse distinguishes "no KB match" (NotFound) from an empty query
// and from errors. Callers must never treat NotFound as silent success.
type SearchResponse struct {
	Results  []Result `json:"results"`
	NotFound bool     `json:"not_found"`
}

// ChunkStore is the slice of the chunk repository the engine needs. The
// narrow interface keeps the engine testable without a database.
type ChunkStore interface {
	SearchSimilar(ctx context.Context, embedding []float32, limit int) ([]*contract.ScoredChunk, error)
	FindContextChunks(ctx context.Context) ([]*contract.ContextChunk, error)
}

// Engine embeds queries and ranks stored chunks by cosine similarity. It
// applies no relevance threshold to the scores it surfaces; the floor only
// decides whether the result set counts as "found" at all.
type Engine struct {
	provider      embedding.Provider
	store         ChunkStore
	notFoundFloor float64
	logger        *log.Logger
}

func NewEngine(provider embedding.Provider, store ChunkStore, notFoundFloor float64, logger *log.Logger) *Engine {
	return &Engine{
		provider:      provider,
		store:         store,
		notFoundFloor: notFoundFloor,
		logger:        logger,
	}
}

// Search returns the top limit chunks ranked by similarity, deduplicated by
// source document. An empty query short-circuits without an embedding call.
func (e *Engine) Search(ctx context.Context, query string, limit int) (*SearchResponse, error) {
	if strings.TrimSpace(query) == "" {
		return &SearchResponse{}, nil
	}
	if limit <= 0 {
		limit = 5
	}

	vector, err := e.provider.Generate(ctx, query, embedding.TaskRetrievalQuery)
	if err != nil {
		e.logger.Printf("[RAG] Embedding failed: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	// Over-fetch so document-level dedup still fills the requested limit.
	scored, err := e.store.SearchSimilar(ctx, vector, limit*3)
	if err != nil {
		e.logger.Printf("[RAG] Similarity search failed: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	// Results must be non-increasing by similarity regardless of store
	// ordering; dedup below keeps the best chunk per document.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Similarity > scored[j].Similarity
	})

	seen := make(map[string]bool)
	var results []Result
	for _, s := range scored {
		docKey := s.Chunk.DocumentId.String()
		if seen[docKey] {
			continue
		}
		seen[docKey] = true
		results = append(results, Result{
			ChunkText:   s.Chunk.Content,
			SourceTitle: s.SourceTitle,
			Folder:      s.Folder,
			Similarity:  s.Similarity,
		})
		if len(results) == limit {
			break
		}
	}

	if len(results) == 0 || results[0].Similarity < e.notFoundFloor {
		e.logger.Printf("[RAG] No result above floor %.2f for query: %s", e.notFoundFloor, truncate(query, 60))
		return &SearchResponse{Results: results, NotFound: true}, nil
	}

	return &SearchResponse{Results: results}, nil
}

// LoadContext concatenates every always-available chunk grouped by document,
// in document order. Some facts (system configuration, hard thresholds) must
// reach a specialist's reasoning without depending on a similarity match.
// Output is byte-identical across calls while the underlying documents are
// unchanged.
func (e *Engine) LoadContext(ctx context.Context) (string, error) {
	chunks, err := e.store.FindContextChunks(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(chunks) == 0 {
		return "", nil
	}

	var b strings.Builder
	currentTitle := ""
	for _, c := range chunks {
		if c.SourceTitle != currentTitle {
			if currentTitle != "" {
				b.WriteString("\n")
			}
			b.WriteString("# ")
			b.WriteString(c.SourceTitle)
			b.WriteString("\n\n")
			currentTitle = c.SourceTitle
		}
		b.WriteString(c.Chunk.Content)
		b.WriteString("\n")
	}
	return b.String(), nil
}

// FormatReply renders a search response into a user-facing answer with
// citations. Lives here so the fast path and the router's search_kb action
// produce identical output.
func (e *Engine) FormatReply(resp *SearchResponse) string {
	if resp.NotFound && len(resp.Results) == 0 {
		return "I couldn't find anything about that in the documentation."
	}
	if len(resp.Results) == 0 {
		return "Please give me a few words to search the documentation for."
	}

	var b strings.Builder
	if resp.NotFound {
		b.WriteString("Nothing in the documentation matched closely; the nearest entries are:\n\n")
	} else {
		b.WriteString("Here is what the documentation says:\n\n")
	}
	for _, r := range resp.Results {
		b.WriteString(r.ChunkText)
		b.WriteString("\n")
		if r.Folder != "" {
			b.WriteString(fmt.Sprintf("(Source: %s / %s, relevance %.2f)\n\n", r.SourceTitle, r.Folder, r.Similarity))
		} else {
			b.WriteString(fmt.Sprintf("(Source: %s, relevance %.2f)\n\n", r.SourceTitle, r.Similarity))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
