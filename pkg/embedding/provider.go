package embedding

import "context"

// Gemini task types; Ollama ignores them but the hint improves Gemini
// retrieval quality, so both sides of the index use the same pair.
const (
	TaskRetrievalQuery    = "RETRIEVAL_QUERY"
	TaskRetrievalDocument = "RETRIEVAL_DOCUMENT"
)

// Provider generates a fixed-dimension embedding vector for text. The same
// provider MUST be used at ingestion and query time or similarities are
// meaningless.
type Provider interface {
	Generate(ctx context.Context, text string, taskType string) ([]float32, error)
}
