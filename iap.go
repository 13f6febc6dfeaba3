// Package iap validates in-app purchase receipts issued by the Play-store
// platform and reconciles their live purchase status against the publisher
// API.
package iap

import "github.com/goliatone/go-iap/core"

type Config = core.Config

type TrustAnchorSourceConfig = core.TrustAnchorSourceConfig

type CredentialsConfig = core.CredentialsConfig

type EndpointConfig = core.EndpointConfig

type Receipt = core.Receipt

type ValidateOptions = core.ValidateOptions

type Result = core.Result

type VerifiedPayload = core.VerifiedPayload

type Environment = core.Environment

type Status = core.Status

const (
	EnvironmentLive    = core.EnvironmentLive
	EnvironmentSandbox = core.EnvironmentSandbox

	StatusSuccess = core.StatusSuccess
	StatusFailure = core.StatusFailure
)

var (
	IsMalformedReceipt    = core.IsMalformedReceipt
	IsVerificationFailure = core.IsVerificationFailure
	IsCryptoError         = core.IsCryptoError
	IsConfigError         = core.IsConfigError
	IsRemoteError         = core.IsRemoteError
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}
