package playstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-iap/core"
	"github.com/google/uuid"
)

// Validator orchestrates receipt verification across trust anchors with
// ordered fallback (live, then sandbox) and hands verified payloads to the
// status reconciler.
type Validator struct {
	keys       core.KeyStore
	verifier   core.Verifier
	reconciler core.StatusReconciler
	observer   core.Observer
}

type ValidatorConfig struct {
	Keys       core.KeyStore
	Verifier   core.Verifier
	Reconciler core.StatusReconciler
	Logger     core.Logger
	Metrics    core.MetricsRecorder
}

func NewValidator(cfg ValidatorConfig) (*Validator, error) {
	if cfg.Keys == nil {
		return nil, fmt.Errorf("playstore: key store is required")
	}
	if cfg.Verifier == nil {
		return nil, fmt.Errorf("playstore: verifier is required")
	}
	if cfg.Reconciler == nil {
		return nil, fmt.Errorf("playstore: reconciler is required")
	}
	return &Validator{
		keys:       cfg.Keys,
		verifier:   cfg.Verifier,
		reconciler: cfg.Reconciler,
		observer:   core.Observer{Logger: cfg.Logger, Metrics: cfg.Metrics},
	}, nil
}

// Validate checks the receipt structure, verifies the signature against the
// resolved trust anchors, and reconciles purchase status on success. On total
// verification failure the error from the first attempt (dynamic override or
// live anchor) is reported; the sandbox attempt's error never is. That
// asymmetry is a policy decision: live-path diagnostics take priority for
// callers.
func (v *Validator) Validate(ctx context.Context, receipt core.Receipt, opts core.ValidateOptions) (core.Result, error) {
	if v == nil {
		return core.FailureResult("validator is not configured"), core.ConfigError("playstore: validator is nil")
	}

	startedAt := time.Now().UTC()
	validationID := uuid.New().String()
	fields := map[string]any{
		"validation_id": validationID,
		"subscription":  opts.Subscription,
	}

	result, err := v.validate(ctx, receipt, opts)
	if result.Metadata == nil {
		result.Metadata = map[string]any{}
	}
	result.Metadata["validation_id"] = validationID
	v.observer.Observe(ctx, startedAt, "receipt_validate", err, fields)
	return result, err
}

func (v *Validator) validate(ctx context.Context, receipt core.Receipt, opts core.ValidateOptions) (core.Result, error) {
	if receipt.Data == nil {
		err := core.MalformedReceiptError("playstore: receipt data is required")
		return core.FailureResult(err.Error()), err
	}
	if strings.TrimSpace(receipt.Signature) == "" {
		err := core.MalformedReceiptError("playstore: receipt signature is required")
		return core.FailureResult(err.Error()), err
	}

	payload, err := CanonicalReceiptData(receipt.Data)
	if err != nil {
		return core.FailureResult(err.Error()), err
	}

	verified, err := v.verify(payload, receipt.Signature, opts)
	if err != nil {
		return core.FailureResult(err.Error()), err
	}

	return v.reconciler.Reconcile(ctx, verified, opts)
}

// verify resolves the first key (dynamic override, else live anchor) and
// falls back to the sandbox anchor exactly once. The first attempt's error is
// the one surfaced on total failure.
func (v *Validator) verify(payload string, signature string, opts core.ValidateOptions) (*core.VerifiedPayload, error) {
	firstKey := strings.TrimSpace(opts.DynamicKey)
	if firstKey == "" {
		if anchor, ok := v.keys.Anchor(core.EnvironmentLive); ok {
			firstKey = anchor.KeyMaterial
		}
	}

	verified, firstErr := v.verifier.Verify(payload, signature, firstKey)
	if firstErr == nil {
		return verified, nil
	}

	sandbox, ok := v.keys.Anchor(core.EnvironmentSandbox)
	if !ok {
		return nil, firstErr
	}
	verified, sandboxErr := v.verifier.Verify(payload, signature, sandbox.KeyMaterial)
	if sandboxErr != nil {
		return nil, firstErr
	}
	return verified, nil
}
