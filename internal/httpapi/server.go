package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/csmouse/csmouse/internal/command"
	"github.com/csmouse/csmouse/internal/engine"
	apimw "github.com/csmouse/csmouse/internal/httpapi/middleware"
	"github.com/csmouse/csmouse/internal/repo"
	"github.com/csmouse/csmouse/internal/sms"
)

type Server struct {
	Logger   *zap.Logger
	Traps    repo.TrapStore
	Registry repo.RegistrationStore
	Engine   *engine.Delta
	Interp   *command.Interpreter
	Gateway  sms.Gateway

	// PublicBaseURL is the base URL Twilio signed webhook requests against.
	// Empty means reconstruct from the Host header (https assumed).
	PublicBaseURL string
}

func NewServer(l *zap.Logger, traps repo.TrapStore, registry repo.RegistrationStore, eng *engine.Delta, interp *command.Interpreter, gw sms.Gateway, publicBaseURL string) *Server {
	return &Server{
		Logger:        l,
		Traps:         traps,
		Registry:      registry,
		Engine:        eng,
		Interp:        interp,
		Gateway:       gw,
		PublicBaseURL: publicBaseURL,
	}
}

func (s *Server) Router(keys apimw.Keys, webhookRPM, webhookBurst int) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(cors.AllowAll().Handler)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// Twilio is authenticated by its request signature, not an API key.
	r.Group(func(r chi.Router) {
		r.Use(apimw.RateLimit(webhookRPM, webhookBurst))
		r.Post("/webhook/sms", s.handleInboundSMS)
	})

	r.Group(func(r chi.Router) {
		r.Use(apimw.RequireDevice(keys))
		r.Post("/api/traps/status", s.handleTrapStatus)
	})

	r.Group(func(r chi.Router) {
		r.Use(apimw.RequireAdmin(keys))
		r.Get("/api/traps", s.handleListTraps)
		r.Put("/api/traps/{trapID}", s.handleSetTrapMeta)
		r.Post("/api/messages", s.handleSendMessage)
		r.Post("/api/registrations", s.handleRegister)
		r.Delete("/api/registrations/{number}", s.handleUnregister)
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
