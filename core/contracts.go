package core

import (
	"context"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

// KeyStore resolves the active trust anchor for an environment.
type KeyStore interface {
	Anchor(env Environment) (TrustAnchor, bool)
}

// Verifier performs a single cryptographic verification of a receipt payload
// against a signature and unwrapped key material.
type Verifier interface {
	Verify(payload string, signature string, keyMaterial string) (*VerifiedPayload, error)
}

// CredentialRefresher redeems the long-lived refresh credential for a new
// access token and exposes the current one.
type CredentialRefresher interface {
	// Enabled reports whether the full credential tuple is configured.
	Enabled() bool
	AccessToken() string
	// Refresh redeems the refresh token and swaps the new access token into
	// shared state before returning. The parsed response body is returned for
	// callers that inspect it.
	Refresh(ctx context.Context) (map[string]any, error)
}

// StatusReconciler determines the authoritative purchase status for a
// verified payload.
type StatusReconciler interface {
	Reconcile(ctx context.Context, payload *VerifiedPayload, opts ValidateOptions) (Result, error)
}

type TransportRequest struct {
	Method   string
	URL      string
	Headers  map[string]string
	Query    map[string]string
	Body     []byte
	Metadata map[string]any
	Timeout  time.Duration
}

type TransportResponse struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
	Metadata   map[string]any
}

type TransportAdapter interface {
	Kind() string
	Do(ctx context.Context, req TransportRequest) (TransportResponse, error)
}

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}
