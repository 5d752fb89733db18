package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"commandcenter-be/pkg/llm"
)

// ContextLoader supplies the installation facts (system profile, hard
// thresholds) that every delegated request must carry. These facts reach the
// specialist unconditionally, not through a similarity match.
type ContextLoader func(ctx context.Context) (string, error)

// HTTPHandler is the client side of the specialist-handler contract:
// POST {query, context, history} -> {text, metadata}. Both the status service
// (live telemetry) and the planning service (optimization reasoning) speak it.
type HTTPHandler struct {
	name        string
	baseURL     string
	loadContext ContextLoader
	client      *http.Client
}

var _ Handler = &HTTPHandler{}

func NewStatusHandler(baseURL string, timeout time.Duration, loader ContextLoader) *HTTPHandler {
	return newHTTPHandler("status", baseURL, timeout, loader)
}

func NewPlanningHandler(baseURL string, timeout time.Duration, loader ContextLoader) *HTTPHandler {
	return newHTTPHandler("planning", baseURL, timeout, loader)
}

func newHTTPHandler(name, baseURL string, timeout time.Duration, loader ContextLoader) *HTTPHandler {
	if timeout <= 0 {
		timeout = 40 * time.Second
	}
	return &HTTPHandler{
		name:        name,
		baseURL:     baseURL,
		loadContext: loader,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

func (h *HTTPHandler) Name() string {
	return h.name
}

type handleRequest struct {
	Query   string          `json:"query"`
	Context string          `json:"context,omitempty"`
	History []handleMessage `json:"history,omitempty"`
}

type handleMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (h *HTTPHandler) Handle(ctx context.Context, query string, history []llm.Message) (*Result, error) {
	payload := handleRequest{
		Query:   query,
		History: make([]handleMessage, len(history)),
	}
	for i, msg := range history {
		payload.History[i] = handleMessage{Role: msg.Role, Content: msg.Content}
	}

	if h.loadContext != nil {
		// A context-store outage degrades to a query-only dispatch; it never
		// blocks the delegation itself.
		if contextText, err := h.loadContext(ctx); err == nil {
			payload.Context = contextText
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := h.baseURL + "/handle"
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s handler request failed: %w", h.name, err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s handler error: status %d, body: %s", h.name, resp.StatusCode, string(bodyBytes))
	}

	var result Result
	if err := json.Unmarshal(bodyBytes, &result); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	if result.Text == "" {
		return nil, fmt.Errorf("%s handler returned empty text", h.name)
	}

	return &result, nil
}
