package sms

import "context"

// SendResult is the outcome of one send attempt. Rejected sends (unregistered
// destination) are results, not errors, so callers can branch without
// threading exceptions through unrelated layers. An error return is reserved
// for transport failures talking to the provider.
type SendResult struct {
	Sent   bool   `json:"sent"`
	SID    string `json:"sid,omitempty"`    // provider message ID when sent
	Reason string `json:"reason,omitempty"` // set when rejected
}

func Rejected(reason string) SendResult {
	return SendResult{Sent: false, Reason: reason}
}

type Gateway interface {
	Send(ctx context.Context, to, body string) (SendResult, error)
	// Verify reports whether a signed inbound request is authentic. url is
	// the exact URL the provider signed; params the decoded form fields.
	Verify(url string, params map[string]string, signature string) bool
}
