package sms

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/base64"
	"sort"
)

// Verify implements Twilio's request validation: HMAC-SHA1 over the exact
// request URL with the POST parameters appended in sorted key order,
// base64-encoded and compared against the X-Twilio-Signature header.
func (t *Twilio) Verify(url string, params map[string]string, signature string) bool {
	if t == nil || t.AuthToken == "" || signature == "" {
		return false
	}
	expected := computeSignature(t.AuthToken, url, params)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) == 1
}

func computeSignature(authToken, url string, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	mac := hmac.New(sha1.New, []byte(authToken))
	mac.Write([]byte(url))
	for _, k := range keys {
		mac.Write([]byte(k))
		mac.Write([]byte(params[k]))
	}
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
