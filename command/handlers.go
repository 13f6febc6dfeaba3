package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-iap/core"
)

// ValidationService is the mutating surface the command handlers drive.
type ValidationService interface {
	Validate(ctx context.Context, receipt core.Receipt, opts core.ValidateOptions) (core.Result, error)
	RefreshCredentials(ctx context.Context) error
}

type ValidateReceiptCommand struct {
	service ValidationService
}

func NewValidateReceiptCommand(service ValidationService) *ValidateReceiptCommand {
	return &ValidateReceiptCommand{service: service}
}

func (c *ValidateReceiptCommand) Execute(ctx context.Context, msg ValidateReceiptMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: validation service is required")
	}
	if err := msg.Validate(); err != nil {
		return commandWrapValidation(err, "command: validate receipt message")
	}
	out, err := c.service.Validate(ctx, msg.Receipt, msg.Options)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type RefreshCredentialsCommand struct {
	service ValidationService
}

func NewRefreshCredentialsCommand(service ValidationService) *RefreshCredentialsCommand {
	return &RefreshCredentialsCommand{service: service}
}

func (c *RefreshCredentialsCommand) Execute(ctx context.Context, msg RefreshCredentialsMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: validation service is required")
	}
	return c.service.RefreshCredentials(ctx)
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
