package sms

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/csmouse/csmouse/internal/repo"
)

// Console is the gateway used when Twilio credentials are absent: messages go
// to the log instead of the wire. It enforces the same registration
// precondition as the real gateway so local runs exercise the full path.
// Verify always fails, since there is no auth token to sign against.
type Console struct {
	Registry repo.RegistrationStore
	Log      *zap.Logger
}

func NewConsole(registry repo.RegistrationStore, log *zap.Logger) *Console {
	return &Console{Registry: registry, Log: log}
}

func (c *Console) Send(ctx context.Context, to, body string) (SendResult, error) {
	registered, err := c.Registry.IsRegistered(ctx, to)
	if err != nil {
		return SendResult{}, fmt.Errorf("registration check: %w", err)
	}
	if !registered {
		return Rejected(fmt.Sprintf("phone number %q is not registered", to)), nil
	}
	sid := "console-" + uuid.NewString()
	c.Log.Info("console_send",
		zap.String("to", to),
		zap.String("body", BodyPrefix+body),
		zap.String("sid", sid),
	)
	return SendResult{Sent: true, SID: sid}, nil
}

func (c *Console) Verify(url string, params map[string]string, signature string) bool {
	return false
}
