package sms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/csmouse/csmouse/internal/repo"
)

// BodyPrefix is prepended to every outbound message so residents can tell
// where the text came from.
const BodyPrefix = "CS Mouse: "

const twilioAPIBase = "https://api.twilio.com/2010-04-01"

// Twilio sends and verifies SMS through the Twilio REST API. Destinations
// must be registered: Send returns a Rejected result for numbers the
// registration store does not know, so delivery failures are visible to
// operators instead of silently dropped.
type Twilio struct {
	AccountSID string
	AuthToken  string
	FromNumber string
	Registry   repo.RegistrationStore
	Client     *http.Client
	BaseURL    string // overridable for tests
}

func NewTwilio(accountSID, authToken, fromNumber string, registry repo.RegistrationStore) *Twilio {
	if accountSID == "" || authToken == "" {
		return nil
	}
	return &Twilio{
		AccountSID: accountSID,
		AuthToken:  authToken,
		FromNumber: fromNumber,
		Registry:   registry,
		Client:     &http.Client{Timeout: 10 * time.Second},
		BaseURL:    twilioAPIBase,
	}
}

type messageResponse struct {
	SID string `json:"sid"`
}

func (t *Twilio) Send(ctx context.Context, to, body string) (SendResult, error) {
	if t == nil || t.AccountSID == "" {
		return SendResult{}, errors.New("twilio disabled")
	}

	registered, err := t.Registry.IsRegistered(ctx, to)
	if err != nil {
		return SendResult{}, fmt.Errorf("registration check: %w", err)
	}
	if !registered {
		return Rejected(fmt.Sprintf("phone number %q is not registered", to)), nil
	}

	form := url.Values{}
	form.Set("To", to)
	form.Set("From", t.FromNumber)
	form.Set("Body", BodyPrefix+body)

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", t.BaseURL, t.AccountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return SendResult{}, err
	}
	req.SetBasicAuth(t.AccountSID, t.AuthToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.Client.Do(req)
	if err != nil {
		return SendResult{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return SendResult{}, fmt.Errorf("twilio status %d", resp.StatusCode)
	}

	var mr messageResponse
	if err := json.NewDecoder(resp.Body).Decode(&mr); err != nil {
		return SendResult{}, fmt.Errorf("decode twilio response: %w", err)
	}
	return SendResult{Sent: true, SID: mr.SID}, nil
}
