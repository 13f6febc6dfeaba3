package core

import "strings"

// Environment tags a trust anchor with the deployment environment whose
// receipts it can verify.
type Environment string

const (
	EnvironmentLive    Environment = "live"
	EnvironmentSandbox Environment = "sandbox"
)

func (e Environment) Valid() bool {
	switch e {
	case EnvironmentLive, EnvironmentSandbox:
		return true
	}
	return false
}

// Status is the terminal outcome reported in a validation result envelope.
type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusFailure Status = "FAILURE"
)

// ServiceGoogle identifies the issuing platform on reconciled payloads.
const ServiceGoogle = "GOOGLE"

// TrustAnchor is a public verification key tagged by environment. KeyMaterial
// is unwrapped base64 (no PEM envelope, no line breaks).
type TrustAnchor struct {
	Environment Environment
	KeyMaterial string
}

func (a TrustAnchor) Empty() bool {
	return strings.TrimSpace(a.KeyMaterial) == ""
}

// Receipt is the raw client-submitted purchase receipt. Data may be the
// signed JSON string or the already-decoded object form; object-typed data is
// canonicalized before any crypto work.
type Receipt struct {
	Data      any    `json:"data"`
	Signature string `json:"signature"`
}

// ValidateOptions carries per-call knobs for a validation run.
type ValidateOptions struct {
	// Subscription selects the subscriptions sub-resource for the remote
	// status lookup instead of products.
	Subscription bool
	// DynamicKey overrides the live trust anchor for the first verification
	// attempt. Sandbox fallback still applies when it fails.
	DynamicKey string
}

// VerifiedPayload is the decoded receipt body after a successful signature
// check, augmented with reconciliation fields.
type VerifiedPayload struct {
	Status        Status
	Service       string
	PackageName   string
	ProductID     string
	PurchaseToken string

	// Subscription-only fields, populated from the remote record during
	// reconciliation.
	AutoRenewing   *bool
	ExpirationTime *int64

	// Fields holds the full decoded receipt body.
	Fields map[string]any
}

// Field returns a named value from the decoded receipt body.
func (p *VerifiedPayload) Field(name string) (any, bool) {
	if p == nil || p.Fields == nil {
		return nil, false
	}
	value, ok := p.Fields[name]
	return value, ok
}

// Result is the envelope returned by every validation operation, paired with
// a nil or non-nil error.
type Result struct {
	Status   Status
	Message  string
	Payload  *VerifiedPayload
	Metadata map[string]any
}

func SuccessResult(payload *VerifiedPayload, message string) Result {
	return Result{
		Status:  StatusSuccess,
		Message: message,
		Payload: payload,
	}
}

func FailureResult(message string) Result {
	return Result{
		Status:  StatusFailure,
		Message: message,
	}
}
