package httpapi

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/csmouse/csmouse/internal/domain"
)

// telemetryEntry mirrors what trap firmware posts. Pointer fields so that a
// missing key is distinguishable from a false/zero value: an entry lacking
// either field fails alone without taking the batch down with it.
type telemetryEntry struct {
	HammerDown   *bool    `json:"hammerDown"`
	BatteryLevel *float64 `json:"batteryLevel"`
}

type trapStatusPayload struct {
	Traps map[string]telemetryEntry `json:"traps"`
}

func (s *Server) handleTrapStatus(w http.ResponseWriter, r *http.Request) {
	var p trapStatusPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil || len(p.Traps) == 0 {
		writeError(w, http.StatusBadRequest, "bad payload")
		return
	}

	batch := make(map[domain.TrapID]domain.TelemetryReport, len(p.Traps))
	invalid := 0
	for id, e := range p.Traps {
		if e.HammerDown == nil || e.BatteryLevel == nil {
			invalid++
			s.Logger.Error("telemetry_missing_fields", zap.String("trap_id", id))
			continue
		}
		batch[domain.TrapID(id)] = domain.TelemetryReport{
			HammerDown:   *e.HammerDown,
			BatteryLevel: *e.BatteryLevel,
		}
	}

	res := s.Engine.ProcessBatch(r.Context(), batch)
	res.Failed += invalid

	s.Logger.Info("trap_status_batch",
		zap.Int("processed", res.Processed),
		zap.Int("failed", res.Failed),
		zap.Int("notified", res.Notified),
		zap.Int("rejected", res.Rejected),
	)
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleListTraps(w http.ResponseWriter, r *http.Request) {
	traps, err := s.Traps.List(r.Context())
	if err != nil {
		s.Logger.Error("list_traps_failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "list error")
		return
	}
	if traps == nil {
		traps = []domain.TrapRecord{}
	}
	writeJSON(w, http.StatusOK, traps)
}

type trapMetaPayload struct {
	Name            string   `json:"name"`
	ResidentNumbers []string `json:"resident_numbers"`
}

func (s *Server) handleSetTrapMeta(w http.ResponseWriter, r *http.Request) {
	trapID := chi.URLParam(r, "trapID")
	var p trapMetaPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "bad payload")
		return
	}
	if err := s.Traps.SetMeta(r.Context(), domain.TrapID(trapID), p.Name, p.ResidentNumbers); err != nil {
		s.Logger.Error("set_trap_meta_failed", zap.String("trap_id", trapID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "update error")
		return
	}
	rec, err := s.Traps.Get(r.Context(), domain.TrapID(trapID))
	if err != nil || rec == nil {
		writeError(w, http.StatusInternalServerError, "update error")
		return
	}
	s.Logger.Info("trap_meta_updated", zap.String("trap_id", trapID))
	writeJSON(w, http.StatusOK, rec)
}

type registrationPayload struct {
	PhoneNumber string `json:"phone_number"`
}

// handleRegister is the operator path for opting a number in without the SMS
// round trip (initial rollout, or local runs where the console gateway cannot
// verify webhook signatures). Same idempotence rules as the interpreter:
// duplicates are a 409, not an error.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var p registrationPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil || p.PhoneNumber == "" {
		writeError(w, http.StatusBadRequest, "bad payload")
		return
	}

	registered, err := s.Registry.IsRegistered(r.Context(), p.PhoneNumber)
	if err != nil {
		s.Logger.Error("register_failed", zap.String("number", p.PhoneNumber), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "registration error")
		return
	}
	if registered {
		writeError(w, http.StatusConflict, "already registered")
		return
	}
	if err := s.Registry.Register(r.Context(), p.PhoneNumber); err != nil {
		s.Logger.Error("register_failed", zap.String("number", p.PhoneNumber), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "registration error")
		return
	}
	s.Logger.Info("registered_by_admin", zap.String("number", p.PhoneNumber))
	writeJSON(w, http.StatusCreated, registrationPayload{PhoneNumber: p.PhoneNumber})
}

func (s *Server) handleUnregister(w http.ResponseWriter, r *http.Request) {
	// E.164 numbers arrive with the + escaped as %2B; chi hands back the raw
	// segment when the URL carried escapes.
	number, err := url.PathUnescape(chi.URLParam(r, "number"))
	if err != nil || number == "" {
		writeError(w, http.StatusBadRequest, "missing number")
		return
	}
	if err := s.Registry.Unregister(r.Context(), number); err != nil {
		s.Logger.Error("unregister_failed", zap.String("number", number), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "registration error")
		return
	}
	s.Logger.Info("unregistered_by_admin", zap.String("number", number))
	w.WriteHeader(http.StatusNoContent)
}

type sendPayload struct {
	To   string `json:"to"`
	Body string `json:"body"`
}

// handleSendMessage is the operator raw-send path. A rejected destination is
// surfaced as a 409, never a silent success.
func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var p sendPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil || p.To == "" || p.Body == "" {
		writeError(w, http.StatusBadRequest, "bad payload")
		return
	}

	res, err := s.Gateway.Send(r.Context(), p.To, p.Body)
	if err != nil {
		s.Logger.Error("message_send_failed", zap.String("to", p.To), zap.Error(err))
		writeError(w, http.StatusBadGateway, "send failed")
		return
	}
	if !res.Sent {
		s.Logger.Warn("message_send_rejected", zap.String("to", p.To), zap.String("reason", res.Reason))
		writeError(w, http.StatusConflict, res.Reason)
		return
	}
	s.Logger.Info("message_sent", zap.String("to", p.To), zap.String("sid", res.SID))
	writeJSON(w, http.StatusOK, res)
}
