package playstore

import (
	"strings"
	"testing"

	"github.com/goliatone/go-iap/core"
)

func TestCanonicalReceiptData_StringPassesThrough(t *testing.T) {
	in := `{"productId":"a/b"}`
	out, err := CanonicalReceiptData(in)
	if err != nil {
		t.Fatalf("canonicalize: %v", err)
	}
	if out != in {
		t.Fatalf("string input must pass through untouched, got %q", out)
	}

	// Idempotent: a second pass over the result changes nothing.
	again, err := CanonicalReceiptData(out)
	if err != nil {
		t.Fatalf("canonicalize again: %v", err)
	}
	if again != out {
		t.Fatalf("canonicalization is not idempotent: %q vs %q", again, out)
	}
}

func TestCanonicalReceiptData_ObjectIsDeterministic(t *testing.T) {
	first := map[string]any{
		"packageName": "com.example.app",
		"productId":   "premium",
		"orderUrl":    "https://play.example/order/1",
	}
	second := map[string]any{
		"orderUrl":    "https://play.example/order/1",
		"productId":   "premium",
		"packageName": "com.example.app",
	}

	a, err := CanonicalReceiptData(first)
	if err != nil {
		t.Fatalf("canonicalize first: %v", err)
	}
	b, err := CanonicalReceiptData(second)
	if err != nil {
		t.Fatalf("canonicalize second: %v", err)
	}
	if a != b {
		t.Fatalf("equivalent objects must canonicalize identically:\n%q\n%q", a, b)
	}
}

func TestCanonicalReceiptData_EscapesSlashes(t *testing.T) {
	out, err := CanonicalReceiptData(map[string]any{"orderUrl": "https://play.example/o"})
	if err != nil {
		t.Fatalf("canonicalize: %v", err)
	}
	if strings.Contains(strings.ReplaceAll(out, `\/`, ""), "/") {
		t.Fatalf("expected all slashes escaped, got %q", out)
	}
}

func TestCanonicalReceiptData_RejectsEmpty(t *testing.T) {
	if _, err := CanonicalReceiptData(nil); !core.IsMalformedReceipt(err) {
		t.Fatalf("expected malformed receipt for nil data, got %v", err)
	}
	if _, err := CanonicalReceiptData("  "); !core.IsMalformedReceipt(err) {
		t.Fatalf("expected malformed receipt for blank data, got %v", err)
	}
}
