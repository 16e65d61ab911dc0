package httpapi

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/csmouse/csmouse/internal/command"
	"github.com/csmouse/csmouse/internal/sms"
)

// handleInboundSMS is the Twilio webhook. The signature is checked against
// the exact URL Twilio signed before any store is touched; verification
// failures are a plain 403 with no detail.
func (s *Server) handleInboundSMS(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "bad form")
		return
	}

	params := make(map[string]string, len(r.PostForm))
	for k, vs := range r.PostForm {
		if len(vs) > 0 {
			params[k] = vs[0]
		}
	}

	signature := r.Header.Get("X-Twilio-Signature")
	if !s.Gateway.Verify(s.signedURL(r), params, signature) {
		s.Logger.Warn("webhook_verify_failed", zap.String("remote", r.RemoteAddr))
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	from := params["From"]
	body := params["Body"]
	if from == "" {
		writeError(w, http.StatusBadRequest, "missing From")
		return
	}
	s.Logger.Info("webhook_received", zap.String("from", from), zap.String("body", body))

	res, err := s.Interp.Handle(r.Context(), from, body)
	if err != nil {
		s.Logger.Error("command_failed", zap.String("from", from), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	switch res.Outcome {
	case command.Conflict:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(sms.BodyPrefix + res.Reply))
	case command.Success:
		writeTwiML(w, sms.BodyPrefix+res.Reply)
	default:
		writeTwiML(w, "")
	}
}

// signedURL reconstructs the URL Twilio used when computing the signature.
func (s *Server) signedURL(r *http.Request) string {
	if s.PublicBaseURL != "" {
		return s.PublicBaseURL + r.URL.Path
	}
	return "https://" + r.Host + r.URL.Path
}

func writeTwiML(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(sms.TwiMLReply(message)))
}
