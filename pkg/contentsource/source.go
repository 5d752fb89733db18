package contentsource

import "context"

// SourceDocument is a document as served by the installation's content
// repository, before chunking and embedding.
type SourceDocument struct {
	SourceId  string `json:"source_id"`
	Title     string `json:"title"`
	Folder    string `json:"folder"`
	Content   string `json:"content"`
	IsContext bool   `json:"is_context"`
}

// ContentSource abstracts where knowledge base documents come from. The
// production source is the installation's document service; tests and the
// seeding tool use in-process implementations.
type ContentSource interface {
	ListDocuments(ctx context.Context) ([]SourceDocument, error)
	FetchDocument(ctx context.Context, sourceId string) (*SourceDocument, error)
}
