package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/csmouse/csmouse/internal/domain"
	"github.com/csmouse/csmouse/internal/repo"
	"github.com/csmouse/csmouse/internal/sms"
)

// Delta compares incoming trap telemetry against last-known state and decides
// which notifications to send. Both triggers are edge-triggered: the hammer
// fires on the false->true transition only, and the battery fires once per
// downward crossing of the threshold.
type Delta struct {
	traps   repo.TrapStore
	gateway sms.Gateway
	log     *zap.Logger
}

func NewDelta(traps repo.TrapStore, gateway sms.Gateway, log *zap.Logger) *Delta {
	return &Delta{traps: traps, gateway: gateway, log: log}
}

// BatchResult summarizes one invocation for the caller's response.
type BatchResult struct {
	Processed int `json:"processed"`
	Failed    int `json:"failed"`
	Notified  int `json:"notified"` // successful per-recipient sends
	Rejected  int `json:"rejected"` // sends refused for unregistered numbers
}

// ProcessBatch diffs each report against stored state, persists the incoming
// values, and fans out the resulting notifications. A failure on one trap or
// one recipient never aborts the rest of the batch; failures are logged and
// counted, not retried.
func (d *Delta) ProcessBatch(ctx context.Context, batch map[domain.TrapID]domain.TelemetryReport) BatchResult {
	var res BatchResult
	var pending []domain.NotificationEvent

	for id, report := range batch {
		events, err := d.processTrap(ctx, id, report)
		if err != nil {
			res.Failed++
			d.log.Error("trap_update_failed", zap.String("trap_id", string(id)), zap.Error(err))
			continue
		}
		res.Processed++
		pending = append(pending, events...)
	}

	for _, ev := range pending {
		sent, rejected := d.fanOut(ctx, ev)
		res.Notified += sent
		res.Rejected += rejected
	}
	return res
}

func (d *Delta) processTrap(ctx context.Context, id domain.TrapID, report domain.TelemetryReport) ([]domain.NotificationEvent, error) {
	if report.BatteryLevel < 0 || report.BatteryLevel > 100 {
		return nil, fmt.Errorf("battery level %.1f out of range [0,100]", report.BatteryLevel)
	}

	prev, err := d.traps.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get: %w", err)
	}

	var events []domain.NotificationEvent
	if prev == nil {
		// First report for an unseen trap: persist initial state, nothing to
		// diff against, so no notifications.
		d.log.Info("trap_first_report", zap.String("trap_id", string(id)))
	} else {
		if report.HammerDown && !prev.HammerDown {
			events = append(events, domain.NotificationEvent{
				TrapID:     id,
				Recipients: prev.ResidentNumbers,
				Text:       fmt.Sprintf("%s trap triggered", prev.Name),
			})
			d.log.Info("hammer_triggered", zap.String("trap_id", string(id)))
		}
		if report.BatteryLevel <= domain.LowBatteryLevel && prev.BatteryLevel > domain.LowBatteryLevel {
			events = append(events, domain.NotificationEvent{
				TrapID:     id,
				Recipients: prev.ResidentNumbers,
				Text:       fmt.Sprintf("%s battery level low", prev.Name),
			})
			d.log.Info("battery_low", zap.String("trap_id", string(id)),
				zap.Float64("battery_level", report.BatteryLevel))
		}
	}

	hd := report.HammerDown
	bl := report.BatteryLevel
	if err := d.traps.Upsert(ctx, id, repo.TrapUpdate{HammerDown: &hd, BatteryLevel: &bl}); err != nil {
		return nil, fmt.Errorf("upsert: %w", err)
	}
	return events, nil
}

// fanOut sends one event to every recipient. A rejected or failed send for
// one number never blocks the remaining numbers.
func (d *Delta) fanOut(ctx context.Context, ev domain.NotificationEvent) (sent, rejected int) {
	for _, number := range ev.Recipients {
		res, err := d.gateway.Send(ctx, number, ev.Text)
		if err != nil {
			d.log.Error("send_failed",
				zap.String("trap_id", string(ev.TrapID)),
				zap.String("to", number),
				zap.Error(err))
			continue
		}
		if !res.Sent {
			rejected++
			d.log.Warn("send_rejected",
				zap.String("trap_id", string(ev.TrapID)),
				zap.String("to", number),
				zap.String("reason", res.Reason))
			continue
		}
		sent++
		d.log.Info("sent",
			zap.String("trap_id", string(ev.TrapID)),
			zap.String("to", number),
			zap.String("sid", res.SID))
	}
	return sent, rejected
}
