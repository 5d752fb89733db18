package agent

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"commandcenter-be/pkg/llm"
)

type capturedRequest struct {
	Query   string `json:"query"`
	Context string `json:"context"`
	History []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"history"`
}

func specialistStub(t *testing.T, captured *capturedRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/handle" {
			t.Errorf("path = %q, want /handle", r.URL.Path)
		}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Fatalf("read request body: %v", err)
		}
		if err := json.Unmarshal(body, captured); err != nil {
			t.Fatalf("unmarshal request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(Result{Text: "battery at 76%"}); err != nil {
			t.Fatalf("encode response: %v", err)
		}
	}))
}

func TestHandleIncludesLoadedContext(t *testing.T) {
	var captured capturedRequest
	srv := specialistStub(t, &captured)
	defer srv.Close()

	loader := func(ctx context.Context) (string, error) {
		return "# System Profile\n\nbattery: 30kWh\n", nil
	}
	handler := NewStatusHandler(srv.URL, 5*time.Second, loader)

	history := []llm.Message{{Role: "user", Content: "hi"}}
	result, err := handler.Handle(context.Background(), "battery level", history)
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if result.Text != "battery at 76%" {
		t.Errorf("Text = %q", result.Text)
	}
	if captured.Query != "battery level" {
		t.Errorf("Query = %q", captured.Query)
	}
	if captured.Context != "# System Profile\n\nbattery: 30kWh\n" {
		t.Errorf("Context = %q, want loaded installation facts", captured.Context)
	}
	if len(captured.History) != 1 || captured.History[0].Content != "hi" {
		t.Errorf("History = %+v", captured.History)
	}
}

func TestHandleWithoutLoaderOmitsContext(t *testing.T) {
	var captured capturedRequest
	srv := specialistStub(t, &captured)
	defer srv.Close()

	handler := NewPlanningHandler(srv.URL, 5*time.Second, nil)

	if _, err := handler.Handle(context.Background(), "plan tonight", nil); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if captured.Context != "" {
		t.Errorf("Context = %q, want empty without a loader", captured.Context)
	}
}

func TestHandleContextLoadFailureStillDispatches(t *testing.T) {
	var captured capturedRequest
	srv := specialistStub(t, &captured)
	defer srv.Close()

	loader := func(ctx context.Context) (string, error) {
		return "", errors.New("context store down")
	}
	handler := NewStatusHandler(srv.URL, 5*time.Second, loader)

	result, err := handler.Handle(context.Background(), "battery level", nil)
	if err != nil {
		t.Fatalf("Handle should not fail on a context load error: %v", err)
	}
	if result.Text != "battery at 76%" {
		t.Errorf("Text = %q", result.Text)
	}
	if captured.Context != "" {
		t.Errorf("Context = %q, want empty on load failure", captured.Context)
	}
	if captured.Query != "battery level" {
		t.Errorf("Query = %q, dispatch must carry the query regardless", captured.Query)
	}
}

func TestHandleNon200IsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	handler := NewStatusHandler(srv.URL, 5*time.Second, nil)

	if _, err := handler.Handle(context.Background(), "battery level", nil); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}
