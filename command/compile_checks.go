package command

import gocmd "github.com/goliatone/go-command"

var (
	_ gocmd.Commander[ValidateReceiptMessage]    = (*ValidateReceiptCommand)(nil)
	_ gocmd.Commander[RefreshCredentialsMessage] = (*RefreshCredentialsCommand)(nil)
)
