package contentsource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// HTTPSource fetches documents from the installation's document service over
// plain HTTP. Endpoints: GET /documents and GET /documents/{source_id}.
type HTTPSource struct {
	baseURL string
	client  *http.Client
}

func NewHTTPSource(baseURL string, timeout time.Duration) *HTTPSource {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPSource{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (s *HTTPSource) ListDocuments(ctx context.Context) ([]SourceDocument, error) {
	var docs []SourceDocument
	if err := s.getJSON(ctx, s.baseURL+"/documents", &docs); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

func (s *HTTPSource) FetchDocument(ctx context.Context, sourceId string) (*SourceDocument, error) {
	var doc SourceDocument
	endpoint := s.baseURL + "/documents/" + url.PathEscape(sourceId)
	if err := s.getJSON(ctx, endpoint, &doc); err != nil {
		return nil, fmt.Errorf("fetch document %s: %w", sourceId, err)
	}
	return &doc, nil
}

func (s *HTTPSource) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
