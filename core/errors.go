package core

import (
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	IAPErrorMalformedReceipt   = "IAP_MALFORMED_RECEIPT"
	IAPErrorVerificationFailed = "IAP_VERIFICATION_FAILED"
	IAPErrorCrypto             = "IAP_CRYPTO_ERROR"
	IAPErrorConfigInvalid      = "IAP_CONFIG_INVALID"
	IAPErrorRemote             = "IAP_REMOTE_ERROR"
	IAPErrorInternal           = "IAP_INTERNAL_ERROR"
)

// MalformedReceiptError reports a structural problem with the receipt input,
// detected before any crypto or network work. Never retried.
func MalformedReceiptError(message string) error {
	return goerrors.New(message, goerrors.CategoryBadInput).
		WithCode(http.StatusBadRequest).
		WithTextCode(IAPErrorMalformedReceipt)
}

// VerificationError reports a signature that does not validate against a
// given key. Drives fallback to the next trust anchor, otherwise terminal.
func VerificationError(message string) error {
	return goerrors.New(message, goerrors.CategoryAuth).
		WithCode(http.StatusUnauthorized).
		WithTextCode(IAPErrorVerificationFailed)
}

// CryptoError reports an exception from the verification primitive, such as
// malformed key material or undecodable signature encoding. Callers may treat
// it like a verification failure, but the code stays distinct.
func CryptoError(source error, message string) error {
	if source == nil {
		return goerrors.New(message, goerrors.CategoryAuth).
			WithCode(http.StatusUnauthorized).
			WithTextCode(IAPErrorCrypto)
	}
	return goerrors.Wrap(source, goerrors.CategoryAuth, message).
		WithCode(http.StatusUnauthorized).
		WithTextCode(IAPErrorCrypto)
}

// ConfigError reports incomplete or invalid module configuration. Fails fast
// with no network attempt.
func ConfigError(message string) error {
	return goerrors.New(message, goerrors.CategoryValidation).
		WithCode(http.StatusInternalServerError).
		WithTextCode(IAPErrorConfigInvalid)
}

// RemoteError reports a transport failure or an error payload from a remote
// endpoint.
func RemoteError(source error, message string) error {
	if source == nil {
		return goerrors.New(message, goerrors.CategoryExternal).
			WithCode(http.StatusBadGateway).
			WithTextCode(IAPErrorRemote)
	}
	return goerrors.Wrap(source, goerrors.CategoryExternal, message).
		WithCode(http.StatusBadGateway).
		WithTextCode(IAPErrorRemote)
}

func IsMalformedReceipt(err error) bool    { return hasTextCode(err, IAPErrorMalformedReceipt) }
func IsVerificationFailure(err error) bool { return hasTextCode(err, IAPErrorVerificationFailed) }
func IsCryptoError(err error) bool         { return hasTextCode(err, IAPErrorCrypto) }
func IsConfigError(err error) bool         { return hasTextCode(err, IAPErrorConfigInvalid) }
func IsRemoteError(err error) bool         { return hasTextCode(err, IAPErrorRemote) }

func hasTextCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(richErr.TextCode), code)
}

// MapError normalizes arbitrary errors into the module error envelope.
func MapError(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureErrorEnvelope(richErr)
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "receipt"), strings.Contains(msg, "missing"):
		return ensureErrorEnvelope(goerrors.New(err.Error(), goerrors.CategoryBadInput).
			WithTextCode(IAPErrorMalformedReceipt))
	case strings.Contains(msg, "failed to validate"), strings.Contains(msg, "signature"):
		return ensureErrorEnvelope(goerrors.New(err.Error(), goerrors.CategoryAuth).
			WithTextCode(IAPErrorVerificationFailed))
	case strings.Contains(msg, "required"), strings.Contains(msg, "invalid"):
		return ensureErrorEnvelope(goerrors.New(err.Error(), goerrors.CategoryValidation).
			WithTextCode(IAPErrorConfigInvalid))
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureErrorEnvelope(mapped)
}

func ensureErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = iapHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultIAPTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultIAPTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput:
		return IAPErrorMalformedReceipt
	case goerrors.CategoryValidation:
		return IAPErrorConfigInvalid
	case goerrors.CategoryAuth, goerrors.CategoryAuthz:
		return IAPErrorVerificationFailed
	case goerrors.CategoryExternal:
		return IAPErrorRemote
	default:
		return IAPErrorInternal
	}
}

func iapHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
