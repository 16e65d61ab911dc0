package domain

import "time"

type TrapID string

// LowBatteryLevel is the alert threshold in percent. Battery levels are
// percentages (0-100) everywhere in this system; devices reporting fractions
// must convert before posting.
const LowBatteryLevel = 10.0

// DefaultTrapName is used for traps that report telemetry before anyone
// has named them.
const DefaultTrapName = "Unnamed"

// TrapRecord is the last-known state of a trap. Created implicitly on the
// first telemetry report for an unseen trap ID; never deleted.
type TrapRecord struct {
	ID              TrapID    `json:"trap_id"`
	Name            string    `json:"name"`
	HammerDown      bool      `json:"hammer_down"`
	BatteryLevel    float64   `json:"battery_level"`
	ResidentNumbers []string  `json:"resident_numbers"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TelemetryReport is one batch entry as posted by a trap. Not persisted
// as-is; folded into the TrapRecord.
type TelemetryReport struct {
	HammerDown   bool    `json:"hammerDown"`
	BatteryLevel float64 `json:"batteryLevel"`
}

// NotificationEvent is a pending fan-out: one message body addressed to the
// resident numbers of a single trap.
type NotificationEvent struct {
	TrapID     TrapID   `json:"trap_id"`
	Recipients []string `json:"recipients"`
	Text       string   `json:"text"`
}
