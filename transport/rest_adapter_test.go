package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goliatone/go-iap/core"
)

func TestRESTAdapter_DefaultsToGET(t *testing.T) {
	var method string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	adapter := NewRESTAdapter(server.Client())
	res, err := adapter.Do(context.Background(), core.TransportRequest{URL: server.URL})
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	if method != http.MethodGet {
		t.Fatalf("expected GET default, got %q", method)
	}
	if res.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", res.StatusCode)
	}
}

func TestRESTAdapter_MergesHeadersAndQuery(t *testing.T) {
	var gotAuth string
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.Query().Get("alt")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	adapter := NewRESTAdapter(server.Client())
	adapter.DefaultHeaders["Accept"] = "application/json"
	_, err := adapter.Do(context.Background(), core.TransportRequest{
		URL:     server.URL,
		Headers: map[string]string{"Authorization": "Bearer tok"},
		Query:   map[string]string{"alt": "json"},
	})
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	if gotAuth != "Bearer tok" {
		t.Fatalf("unexpected auth header %q", gotAuth)
	}
	if gotQuery != "json" {
		t.Fatalf("unexpected query %q", gotQuery)
	}
}

func TestRESTAdapter_RequiresURL(t *testing.T) {
	adapter := NewRESTAdapter(nil)
	_, err := adapter.Do(context.Background(), core.TransportRequest{})
	if err == nil {
		t.Fatalf("expected error for empty url")
	}
}

func TestRESTAdapter_BodyLimitEnforced(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 64)))
	}))
	defer server.Close()

	adapter := NewRESTAdapter(server.Client())
	adapter.MaxResponseBodyBytes = 16
	_, err := adapter.Do(context.Background(), core.TransportRequest{URL: server.URL})
	if err == nil {
		t.Fatalf("expected body limit error")
	}
	if !strings.Contains(err.Error(), "exceeds limit") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestRESTAdapter_TransportFailureIsRemoteError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	serverURL := server.URL
	server.Close()

	adapter := NewRESTAdapter(nil)
	_, err := adapter.Do(context.Background(), core.TransportRequest{URL: serverURL})
	if err == nil {
		t.Fatalf("expected transport error for closed server")
	}
	if !core.IsRemoteError(err) {
		t.Fatalf("expected remote error envelope, got %v", err)
	}
}
