package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-iap/core"
)

// Refresher redeems the long-lived refresh token for a new access token
// against the platform token endpoint. Refreshes are serialized through a
// single-flight lock so two concurrent reconciliations cannot race the shared
// access token.
type Refresher struct {
	credentials *Credentials
	transport   core.TransportAdapter
	tokenURL    string
	observer    core.Observer

	refreshMu sync.Mutex
}

type RefresherConfig struct {
	Credentials *Credentials
	Transport   core.TransportAdapter
	TokenURL    string
	Logger      core.Logger
	Metrics     core.MetricsRecorder
}

func NewRefresher(cfg RefresherConfig) (*Refresher, error) {
	if cfg.Credentials == nil {
		return nil, fmt.Errorf("auth: credentials are required")
	}
	if cfg.Transport == nil {
		return nil, fmt.Errorf("auth: transport adapter is required")
	}
	tokenURL := strings.TrimSpace(cfg.TokenURL)
	if tokenURL == "" {
		tokenURL = core.DefaultTokenURL
	}
	return &Refresher{
		credentials: cfg.Credentials,
		transport:   cfg.Transport,
		tokenURL:    tokenURL,
		observer:    core.Observer{Logger: cfg.Logger, Metrics: cfg.Metrics},
	}, nil
}

func (r *Refresher) Enabled() bool {
	return r != nil && r.credentials.Complete()
}

func (r *Refresher) AccessToken() string {
	if r == nil {
		return ""
	}
	return r.credentials.AccessToken()
}

// Refresh sends the form-encoded refresh_token grant and swaps the returned
// access token into the shared credential state before returning. An
// incomplete credential tuple fails fast with a configuration error and no
// network attempt.
func (r *Refresher) Refresh(ctx context.Context) (map[string]any, error) {
	if r == nil {
		return nil, core.ConfigError("auth: refresher is not configured")
	}
	if !r.credentials.Complete() {
		return nil, core.ConfigError("auth: client id, client secret, refresh token, and access token must be configured")
	}

	r.refreshMu.Lock()
	defer r.refreshMu.Unlock()

	clientID, clientSecret, refreshToken := r.credentials.clientPair()
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("client_id", clientID)
	form.Set("client_secret", clientSecret)
	form.Set("refresh_token", refreshToken)

	startedAt := time.Now().UTC()
	res, err := r.transport.Do(ctx, core.TransportRequest{
		Method: http.MethodPost,
		URL:    r.tokenURL,
		Headers: map[string]string{
			"Content-Type": "application/x-www-form-urlencoded",
		},
		Body: []byte(form.Encode()),
	})
	if err != nil {
		r.observer.Observe(ctx, startedAt, "credential_refresh", err, nil)
		return nil, core.RemoteError(err, "auth: token endpoint request failed")
	}

	body := map[string]any{}
	if len(res.Body) > 0 {
		if decodeErr := json.Unmarshal(res.Body, &body); decodeErr != nil {
			err = core.RemoteError(decodeErr, "auth: decode token endpoint response")
			r.observer.Observe(ctx, startedAt, "credential_refresh", err, nil)
			return nil, err
		}
	}

	if remoteErr, ok := body["error"]; ok {
		err = core.RemoteError(nil, remoteErrorMessage(remoteErr))
		r.observer.Observe(ctx, startedAt, "credential_refresh", err, nil)
		return nil, err
	}

	if token, ok := body["access_token"].(string); ok && strings.TrimSpace(token) != "" {
		r.credentials.SetAccessToken(token)
	}

	r.observer.Observe(ctx, startedAt, "credential_refresh", nil, map[string]any{
		"status_code": res.StatusCode,
	})
	return body, nil
}

// remoteErrorMessage extracts a nested message from the error payload when
// present, otherwise the raw error value.
func remoteErrorMessage(value any) string {
	if nested, ok := value.(map[string]any); ok {
		if message, ok := nested["message"].(string); ok && strings.TrimSpace(message) != "" {
			return "auth: " + strings.TrimSpace(message)
		}
	}
	return fmt.Sprintf("auth: token endpoint returned error: %v", value)
}

var _ core.CredentialRefresher = (*Refresher)(nil)
