package trust

import (
	"crypto"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-iap/core"
)

const pemLineLength = 64

// SignatureVerifier checks a receipt payload against a SHA1-with-RSA
// signature. Key material is unwrapped base64; it is folded into a PEM
// envelope before parsing.
type SignatureVerifier struct{}

func NewSignatureVerifier() SignatureVerifier {
	return SignatureVerifier{}
}

// Verify performs a single verification attempt. A key that cannot be parsed
// or a signature that cannot be decoded is a crypto error; a signature that
// simply does not validate is a verification failure. The two carry distinct
// text codes so callers can tell "key wrong or absent" from "signature
// genuinely invalid".
func (SignatureVerifier) Verify(payload string, signature string, keyMaterial string) (*core.VerifiedPayload, error) {
	if strings.TrimSpace(payload) == "" {
		return nil, core.MalformedReceiptError("trust: receipt payload is required")
	}
	if strings.TrimSpace(keyMaterial) == "" {
		return nil, core.CryptoError(nil, "trust: verification key material is required")
	}

	publicKey, err := parsePublicKey(keyMaterial)
	if err != nil {
		return nil, err
	}

	rawSignature, err := base64.StdEncoding.DecodeString(strings.TrimSpace(signature))
	if err != nil {
		return nil, core.CryptoError(err, "trust: decode receipt signature")
	}

	digest := sha1.Sum([]byte(payload))
	if err := rsa.VerifyPKCS1v15(publicKey, crypto.SHA1, digest[:], rawSignature); err != nil {
		if errors.Is(err, rsa.ErrVerification) {
			return nil, core.VerificationError("trust: failed to validate receipt signature")
		}
		return nil, core.CryptoError(err, "trust: signature verification")
	}

	return decodePayload(payload)
}

func parsePublicKey(keyMaterial string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(wrapKeyMaterial(keyMaterial)))
	if block == nil {
		return nil, core.CryptoError(nil, "trust: key material is not valid base64 DER")
	}
	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, core.CryptoError(err, "trust: parse public key")
	}
	publicKey, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, core.CryptoError(nil, fmt.Sprintf("trust: unexpected key type %T", parsed))
	}
	return publicKey, nil
}

// wrapKeyMaterial folds unwrapped base64 into the standard PEM envelope,
// inserting a line break every 64 characters between the fixed header and
// footer markers.
func wrapKeyMaterial(keyMaterial string) string {
	keyMaterial = strings.TrimSpace(keyMaterial)

	var builder strings.Builder
	builder.WriteString("-----BEGIN PUBLIC KEY-----\n")
	for len(keyMaterial) > 0 {
		line := keyMaterial
		if len(line) > pemLineLength {
			line = line[:pemLineLength]
		}
		builder.WriteString(line)
		builder.WriteString("\n")
		keyMaterial = keyMaterial[len(line):]
	}
	builder.WriteString("-----END PUBLIC KEY-----\n")
	return builder.String()
}

func decodePayload(payload string) (*core.VerifiedPayload, error) {
	fields := map[string]any{}
	if err := json.Unmarshal([]byte(payload), &fields); err != nil {
		return nil, core.MalformedReceiptError(fmt.Sprintf("trust: decode receipt payload: %v", err))
	}

	verified := &core.VerifiedPayload{
		Status: core.StatusSuccess,
		Fields: fields,
	}
	verified.PackageName = stringField(fields, "packageName")
	verified.ProductID = stringField(fields, "productId")
	verified.PurchaseToken = stringField(fields, "purchaseToken")
	return verified, nil
}

func stringField(fields map[string]any, name string) string {
	value, ok := fields[name]
	if !ok {
		return ""
	}
	text, ok := value.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(text)
}

var _ core.Verifier = SignatureVerifier{}
