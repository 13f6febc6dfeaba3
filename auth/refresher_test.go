package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/goliatone/go-iap/core"
	"github.com/goliatone/go-iap/transport"
)

type fakeTransport struct {
	mu       sync.Mutex
	calls    int
	requests []core.TransportRequest
	respond  func(req core.TransportRequest) (core.TransportResponse, error)
}

func (t *fakeTransport) Kind() string { return "fake" }

func (t *fakeTransport) Do(_ context.Context, req core.TransportRequest) (core.TransportResponse, error) {
	t.mu.Lock()
	t.calls++
	t.requests = append(t.requests, req)
	t.mu.Unlock()
	if t.respond == nil {
		return core.TransportResponse{StatusCode: http.StatusOK, Body: []byte(`{}`)}, nil
	}
	return t.respond(req)
}

func (t *fakeTransport) callCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls
}

func fullCredentials() *Credentials {
	return NewCredentials(core.CredentialsConfig{
		ClientID:     "client-1",
		ClientSecret: "secret-1",
		RefreshToken: "refresh-1",
		AccessToken:  "stale-token",
	})
}

func TestRefresher_IncompleteCredentialsFailFast(t *testing.T) {
	adapter := &fakeTransport{}
	refresher, err := NewRefresher(RefresherConfig{
		Credentials: NewCredentials(core.CredentialsConfig{ClientID: "client-1"}),
		Transport:   adapter,
	})
	if err != nil {
		t.Fatalf("new refresher: %v", err)
	}

	if refresher.Enabled() {
		t.Fatalf("partial tuple must not enable purchase-state checks")
	}
	_, err = refresher.Refresh(context.Background())
	if err == nil {
		t.Fatalf("expected configuration error")
	}
	if !core.IsConfigError(err) {
		t.Fatalf("expected config error, got %v", err)
	}
	if adapter.callCount() != 0 {
		t.Fatalf("expected no network attempt, got %d calls", adapter.callCount())
	}
}

func TestRefresher_SwapsAccessTokenBeforeReturning(t *testing.T) {
	credentials := fullCredentials()
	adapter := &fakeTransport{
		respond: func(core.TransportRequest) (core.TransportResponse, error) {
			return core.TransportResponse{
				StatusCode: http.StatusOK,
				Body:       []byte(`{"access_token":"fresh-token","expires_in":3600}`),
			}, nil
		},
	}
	refresher, err := NewRefresher(RefresherConfig{Credentials: credentials, Transport: adapter})
	if err != nil {
		t.Fatalf("new refresher: %v", err)
	}

	body, err := refresher.Refresh(context.Background())
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if credentials.AccessToken() != "fresh-token" {
		t.Fatalf("expected swapped token, got %q", credentials.AccessToken())
	}
	if body["access_token"] != "fresh-token" {
		t.Fatalf("expected parsed response body, got %+v", body)
	}
}

func TestRefresher_RemoteErrorSurfacesNestedMessage(t *testing.T) {
	adapter := &fakeTransport{
		respond: func(core.TransportRequest) (core.TransportResponse, error) {
			return core.TransportResponse{
				StatusCode: http.StatusBadRequest,
				Body:       []byte(`{"error":{"message":"invalid grant"}}`),
			}, nil
		},
	}
	refresher, err := NewRefresher(RefresherConfig{Credentials: fullCredentials(), Transport: adapter})
	if err != nil {
		t.Fatalf("new refresher: %v", err)
	}

	_, err = refresher.Refresh(context.Background())
	if err == nil {
		t.Fatalf("expected remote error")
	}
	if !core.IsRemoteError(err) {
		t.Fatalf("expected remote error, got %v", err)
	}
	if !strings.Contains(err.Error(), "invalid grant") {
		t.Fatalf("expected nested message, got %v", err)
	}
}

func TestRefresher_RawErrorValueSurfaced(t *testing.T) {
	adapter := &fakeTransport{
		respond: func(core.TransportRequest) (core.TransportResponse, error) {
			return core.TransportResponse{
				StatusCode: http.StatusBadRequest,
				Body:       []byte(`{"error":"invalid_client"}`),
			}, nil
		},
	}
	refresher, _ := NewRefresher(RefresherConfig{Credentials: fullCredentials(), Transport: adapter})

	_, err := refresher.Refresh(context.Background())
	if err == nil || !strings.Contains(err.Error(), "invalid_client") {
		t.Fatalf("expected raw error value in message, got %v", err)
	}
}

func TestRefresher_TransportFailureIsRemoteError(t *testing.T) {
	adapter := &fakeTransport{
		respond: func(core.TransportRequest) (core.TransportResponse, error) {
			return core.TransportResponse{}, fmt.Errorf("connection refused")
		},
	}
	refresher, _ := NewRefresher(RefresherConfig{Credentials: fullCredentials(), Transport: adapter})

	_, err := refresher.Refresh(context.Background())
	if !core.IsRemoteError(err) {
		t.Fatalf("expected remote error, got %v", err)
	}
}

func TestRefresher_SendsFormEncodedGrant(t *testing.T) {
	var captured url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		captured = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "fresh-token"})
	}))
	defer server.Close()

	credentials := fullCredentials()
	refresher, err := NewRefresher(RefresherConfig{
		Credentials: credentials,
		Transport:   transport.NewRESTAdapter(server.Client()),
		TokenURL:    server.URL,
	})
	if err != nil {
		t.Fatalf("new refresher: %v", err)
	}

	if _, err := refresher.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	if captured.Get("grant_type") != "refresh_token" {
		t.Fatalf("unexpected grant_type %q", captured.Get("grant_type"))
	}
	if captured.Get("client_id") != "client-1" || captured.Get("client_secret") != "secret-1" {
		t.Fatalf("unexpected client pair: %v", captured)
	}
	if captured.Get("refresh_token") != "refresh-1" {
		t.Fatalf("unexpected refresh token %q", captured.Get("refresh_token"))
	}
	if credentials.AccessToken() != "fresh-token" {
		t.Fatalf("expected swapped token, got %q", credentials.AccessToken())
	}
}
