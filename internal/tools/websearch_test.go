package tools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWebSearchToolExtractsAbstract(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"AbstractText":"Go is a programming language.","RelatedTopics":[{"Text":"Golang mascot: Gopher"}]}`))
	}))
	defer srv.Close()

	tool := NewWebSearchTool(srv.URL)
	out, err := tool.Invoke(context.Background(), json.RawMessage(`{"query":"golang"}`))
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	if out == "" {
		t.Fatalf("expected non-empty result")
	}
}

func TestWebSearchToolRequiresQuery(t *testing.T) {
	tool := NewWebSearchTool("")
	if _, err := tool.Invoke(context.Background(), json.RawMessage(`{}`)); err == nil {
		t.Fatalf("expected error for missing query")
	}
}

func TestWebSearchToolNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	tool := NewWebSearchTool(srv.URL)
	if _, err := tool.Invoke(context.Background(), json.RawMessage(`{"query":"x"}`)); err == nil {
		t.Fatalf("expected error on non-2xx response")
	}
}
