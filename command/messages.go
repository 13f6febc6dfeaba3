package command

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-iap/core"
)

const (
	TypeValidateReceipt    = "iap.command.receipt.validate"
	TypeRefreshCredentials = "iap.command.credentials.refresh"
)

type ValidateReceiptMessage struct {
	Receipt core.Receipt
	Options core.ValidateOptions
}

func (ValidateReceiptMessage) Type() string { return TypeValidateReceipt }

func (m ValidateReceiptMessage) Validate() error {
	if m.Receipt.Data == nil {
		return fmt.Errorf("command: receipt data is required")
	}
	if data, ok := m.Receipt.Data.(string); ok && strings.TrimSpace(data) == "" {
		return fmt.Errorf("command: receipt data is required")
	}
	if strings.TrimSpace(m.Receipt.Signature) == "" {
		return fmt.Errorf("command: receipt signature is required")
	}
	return nil
}

type RefreshCredentialsMessage struct{}

func (RefreshCredentialsMessage) Type() string { return TypeRefreshCredentials }

func (RefreshCredentialsMessage) Validate() error { return nil }
