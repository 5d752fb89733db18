package agent

import (
	"context"

	"commandcenter-be/pkg/llm"
)

// Result is what a specialist hands back. Text is returned to the user
// verbatim; Metadata travels untouched alongside it for attribution.
type Result struct {
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Handler is an opaque downstream capability. The router knows nothing about
// how a handler answers, only that it conforms to this contract and respects
// the deadline on ctx.
type Handler interface {
	Name() string
	Handle(ctx context.Context, query string, history []llm.Message) (*Result, error)
}
