package command

import (
	"context"
	"testing"

	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-iap/core"
)

type fakeValidationService struct {
	validateCalls int
	refreshCalls  int
	result        core.Result
	err           error
}

func (f *fakeValidationService) Validate(_ context.Context, _ core.Receipt, _ core.ValidateOptions) (core.Result, error) {
	f.validateCalls++
	if f.err != nil {
		return core.FailureResult(f.err.Error()), f.err
	}
	return f.result, nil
}

func (f *fakeValidationService) RefreshCredentials(context.Context) error {
	f.refreshCalls++
	return f.err
}

func TestValidateReceiptCommand_StoresResult(t *testing.T) {
	service := &fakeValidationService{
		result: core.SuccessResult(&core.VerifiedPayload{Status: core.StatusSuccess}, "ok"),
	}
	cmd := NewValidateReceiptCommand(service)

	collector := gocmd.NewResult[core.Result]()
	ctx := gocmd.ContextWithResult(context.Background(), collector)

	err := cmd.Execute(ctx, ValidateReceiptMessage{
		Receipt: core.Receipt{Data: `{"a":1}`, Signature: "sig"},
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if service.validateCalls != 1 {
		t.Fatalf("expected one validate call, got %d", service.validateCalls)
	}
	result, ok := collector.Load()
	if !ok {
		t.Fatalf("expected result to be stored")
	}
	if result.Status != core.StatusSuccess || result.Message != "ok" {
		t.Fatalf("unexpected result: %#v", result)
	}
}

func TestValidateReceiptCommand_RejectsInvalidMessage(t *testing.T) {
	service := &fakeValidationService{}
	cmd := NewValidateReceiptCommand(service)

	err := cmd.Execute(context.Background(), ValidateReceiptMessage{
		Receipt: core.Receipt{Signature: "sig"},
	})
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if service.validateCalls != 0 {
		t.Fatalf("service must not run for invalid messages")
	}
}

func TestValidateReceiptCommand_RequiresService(t *testing.T) {
	cmd := NewValidateReceiptCommand(nil)
	err := cmd.Execute(context.Background(), ValidateReceiptMessage{
		Receipt: core.Receipt{Data: `{"a":1}`, Signature: "sig"},
	})
	if err == nil {
		t.Fatalf("expected dependency error")
	}
}

func TestRefreshCredentialsCommand(t *testing.T) {
	service := &fakeValidationService{}
	cmd := NewRefreshCredentialsCommand(service)

	if err := cmd.Execute(context.Background(), RefreshCredentialsMessage{}); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if service.refreshCalls != 1 {
		t.Fatalf("expected one refresh call, got %d", service.refreshCalls)
	}
}

func TestMessageValidation(t *testing.T) {
	cases := []struct {
		name    string
		message ValidateReceiptMessage
		wantErr bool
	}{
		{"valid", ValidateReceiptMessage{Receipt: core.Receipt{Data: `{"a":1}`, Signature: "sig"}}, false},
		{"object data", ValidateReceiptMessage{Receipt: core.Receipt{Data: map[string]any{"a": 1}, Signature: "sig"}}, false},
		{"missing data", ValidateReceiptMessage{Receipt: core.Receipt{Signature: "sig"}}, true},
		{"blank string data", ValidateReceiptMessage{Receipt: core.Receipt{Data: "  ", Signature: "sig"}}, true},
		{"missing signature", ValidateReceiptMessage{Receipt: core.Receipt{Data: `{"a":1}`}}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.message.Validate()
			if tc.wantErr && err == nil {
				t.Fatalf("expected error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
