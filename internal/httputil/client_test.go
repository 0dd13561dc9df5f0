package httputil

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestStandardClient_Wraps(t *testing.T) {
	customClient := &http.Client{}
	if NewStandardClient(customClient).Client != customClient {
		t.Error("expected custom client to be wrapped")
	}
	if NewStandardClient(nil).Client != http.DefaultClient {
		t.Error("expected nil to fall back to http.DefaultClient")
	}
}

func TestFetch_Mock(t *testing.T) {
	mock := NewMockHTTPClient()
	mock.AddResponse(http.StatusOK, `[{"id":"a"}]`)
	mock.AddResponse(http.StatusBadGateway, `upstream down`)
	mock.AddErrorResponse(errors.New("connection refused"))

	ctx := context.Background()
	body, err := Fetch(ctx, mock, "http://footprints.example/api", 1024)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(body) != `[{"id":"a"}]` {
		t.Errorf("body = %q", body)
	}
	req := mock.Requests[0]
	if req.Header.Get("Accept") != "application/json" {
		t.Errorf("Accept = %q", req.Header.Get("Accept"))
	}
	if !strings.HasPrefix(req.Header.Get("User-Agent"), "grismview/") {
		t.Errorf("User-Agent = %q", req.Header.Get("User-Agent"))
	}

	if _, err := Fetch(ctx, mock, "http://footprints.example/api", 1024); err == nil || !strings.Contains(err.Error(), "status 502") {
		t.Errorf("expected status error, got %v", err)
	}
	if _, err := Fetch(ctx, mock, "http://footprints.example/api", 1024); err == nil || !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("expected transport error, got %v", err)
	}
	if mock.RequestCount() != 3 {
		t.Errorf("RequestCount() = %d, want 3", mock.RequestCount())
	}

	// Drained queue returns an empty 200.
	body, err = Fetch(ctx, mock, "http://footprints.example/api", 1024)
	if err != nil || len(body) != 0 {
		t.Errorf("drained Fetch = %q, %v", body, err)
	}
}

func TestFetch_Server(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("a", 64)))
	}))
	defer srv.Close()

	client := NewStandardClient(srv.Client())
	if _, err := Fetch(context.Background(), client, srv.URL, 1024); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if _, err := Fetch(context.Background(), client, srv.URL, 32); err == nil || !strings.Contains(err.Error(), "exceeds") {
		t.Errorf("expected size error, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Fetch(ctx, client, srv.URL, 1024); err == nil {
		t.Error("expected error for cancelled context")
	}
}
