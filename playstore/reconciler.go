package playstore

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-iap/core"
)

type reconcileState int

const (
	statePending reconcileState = iota
	stateSuccess
	stateFailure
)

// Reconciler confirms a verified receipt's purchase or subscription status
// against the platform's live record. The sequence is fixed: Lookup, Decide,
// Recheck. A failed first lookup triggers exactly one credential refresh and
// one recheck; a failed refresh or a failed recheck is fatal. At most two
// remote lookups and one refresh happen per call.
type Reconciler struct {
	refresher core.CredentialRefresher
	transport core.TransportAdapter
	apiBase   string
	observer  core.Observer
}

type ReconcilerConfig struct {
	Refresher core.CredentialRefresher
	Transport core.TransportAdapter
	APIBase   string
	Logger    core.Logger
	Metrics   core.MetricsRecorder
}

func NewReconciler(cfg ReconcilerConfig) (*Reconciler, error) {
	if cfg.Transport == nil {
		return nil, fmt.Errorf("playstore: transport adapter is required")
	}
	apiBase := strings.TrimSpace(strings.TrimSuffix(cfg.APIBase, "/"))
	if apiBase == "" {
		apiBase = core.DefaultAPIBase
	}
	return &Reconciler{
		refresher: cfg.Refresher,
		transport: cfg.Transport,
		apiBase:   apiBase,
		observer:  core.Observer{Logger: cfg.Logger, Metrics: cfg.Metrics},
	}, nil
}

func (r *Reconciler) Reconcile(ctx context.Context, payload *core.VerifiedPayload, opts core.ValidateOptions) (core.Result, error) {
	if r == nil {
		return core.FailureResult("reconciler is not configured"), core.ConfigError("playstore: reconciler is nil")
	}
	if payload == nil {
		err := core.MalformedReceiptError("playstore: verified payload is required")
		return core.FailureResult(err.Error()), err
	}

	payload.Service = core.ServiceGoogle

	// Purchase-state checking never configured: the reconciler is a
	// pass-through with no remote calls.
	if r.refresher == nil || !r.refresher.Enabled() {
		return core.SuccessResult(payload, "receipt verified"), nil
	}

	startedAt := time.Now().UTC()
	fields := map[string]any{
		"package_name": payload.PackageName,
		"product_id":   payload.ProductID,
		"subscription": opts.Subscription,
	}

	result, err := r.reconcile(ctx, payload, opts)
	r.observer.Observe(ctx, startedAt, "purchase_reconcile", err, fields)
	return result, err
}

func (r *Reconciler) reconcile(ctx context.Context, payload *core.VerifiedPayload, opts core.ValidateOptions) (core.Result, error) {
	state := statePending

	// Lookup. Failure here is not fatal: it drives the refresh path.
	record, lookupErr := r.lookup(ctx, payload, opts)
	if lookupErr != nil {
		state = stateFailure
	} else {
		state = stateSuccess
		applyRecord(payload, record, opts)
	}

	// Decide. An explicit skip flag, not an overloaded state value: a lookup
	// that already succeeded means the recheck is a no-op.
	skipRecheck := false
	if state == stateSuccess {
		skipRecheck = true
	} else {
		if _, refreshErr := r.refresher.Refresh(ctx); refreshErr != nil {
			return core.FailureResult(refreshErr.Error()), refreshErr
		}
		state = stateSuccess
	}

	// Recheck. Only runs after a real refresh; a second failure is fatal.
	if !skipRecheck && state == stateSuccess {
		record, lookupErr = r.lookup(ctx, payload, opts)
		if lookupErr != nil {
			return core.FailureResult(lookupErr.Error()), lookupErr
		}
		applyRecord(payload, record, opts)
	}

	return core.SuccessResult(payload, "purchase status confirmed"), nil
}

// lookup performs one authenticated GET for the purchase or subscription
// record. A transport failure or an error key in the body both count as a
// failed lookup.
func (r *Reconciler) lookup(ctx context.Context, payload *core.VerifiedPayload, opts core.ValidateOptions) (map[string]any, error) {
	resource := "products"
	if opts.Subscription {
		resource = "subscriptions"
	}
	lookupURL := fmt.Sprintf(
		"%s/%s/purchases/%s/%s/tokens/%s",
		r.apiBase,
		url.PathEscape(payload.PackageName),
		resource,
		url.PathEscape(payload.ProductID),
		url.PathEscape(payload.PurchaseToken),
	)

	res, err := r.transport.Do(ctx, core.TransportRequest{
		Method: http.MethodGet,
		URL:    lookupURL,
		Headers: map[string]string{
			"Authorization": "Bearer " + r.refresher.AccessToken(),
		},
	})
	if err != nil {
		return nil, core.RemoteError(err, "playstore: purchase status lookup failed")
	}

	record := map[string]any{}
	if len(res.Body) > 0 {
		if decodeErr := json.Unmarshal(res.Body, &record); decodeErr != nil {
			return nil, core.RemoteError(decodeErr, "playstore: decode purchase record")
		}
	}
	if remoteErr, ok := record["error"]; ok {
		return nil, core.RemoteError(nil, lookupErrorMessage(remoteErr))
	}
	if res.StatusCode >= http.StatusBadRequest {
		return nil, core.RemoteError(nil, fmt.Sprintf("playstore: purchase status lookup returned status %d", res.StatusCode))
	}
	return record, nil
}

func lookupErrorMessage(value any) string {
	if nested, ok := value.(map[string]any); ok {
		if message, ok := nested["message"].(string); ok && strings.TrimSpace(message) != "" {
			return "playstore: " + strings.TrimSpace(message)
		}
	}
	return fmt.Sprintf("playstore: purchase record returned error: %v", value)
}

// applyRecord copies the subscription lifecycle fields from the remote record
// into the payload. Product lookups carry neither field.
func applyRecord(payload *core.VerifiedPayload, record map[string]any, opts core.ValidateOptions) {
	if !opts.Subscription || record == nil {
		return
	}
	if renewing, ok := record["autoRenewing"].(bool); ok {
		payload.AutoRenewing = &renewing
	}
	if expiry, ok := parseMillis(record["expiryTimeMillis"]); ok {
		payload.ExpirationTime = &expiry
	}
}

// parseMillis accepts the string-encoded millisecond timestamps the publisher
// API emits, plus plain numbers from older records.
func parseMillis(value any) (int64, bool) {
	switch v := value.(type) {
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	case float64:
		return int64(v), true
	case int64:
		return v, true
	}
	return 0, false
}

var _ core.StatusReconciler = (*Reconciler)(nil)
