package playstore

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/goliatone/go-iap/core"
)

// CanonicalReceiptData normalizes receipt data to the exact string form the
// signature was computed over. String input passes through untouched so the
// operation is idempotent. Object input is JSON-encoded with forward slashes
// escaped; encoding/json sorts map keys, which keeps the output deterministic
// regardless of the caller's key order.
func CanonicalReceiptData(data any) (string, error) {
	switch value := data.(type) {
	case nil:
		return "", core.MalformedReceiptError("playstore: receipt data is required")
	case string:
		if strings.TrimSpace(value) == "" {
			return "", core.MalformedReceiptError("playstore: receipt data is required")
		}
		return value, nil
	case []byte:
		if len(value) == 0 {
			return "", core.MalformedReceiptError("playstore: receipt data is required")
		}
		return string(value), nil
	default:
		encoded, err := json.Marshal(value)
		if err != nil {
			return "", core.MalformedReceiptError(fmt.Sprintf("playstore: encode receipt data: %v", err))
		}
		return strings.ReplaceAll(string(encoded), "/", `\/`), nil
	}
}
