package sms

import "encoding/xml"

type twimlResponse struct {
	XMLName xml.Name `xml:"Response"`
	Message string   `xml:"Message,omitempty"`
}

// TwiMLReply renders the reply document Twilio expects from a webhook. An
// empty message produces a bare <Response></Response>, which tells Twilio to
// reply with nothing.
func TwiMLReply(message string) string {
	out, _ := xml.Marshal(twimlResponse{Message: message})
	return xml.Header + string(out)
}
