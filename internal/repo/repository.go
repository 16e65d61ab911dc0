package repo

import (
	"context"

	"github.com/csmouse/csmouse/internal/domain"
)

// Ports (interfaces) — swap in any DB adapter later.

// TrapUpdate carries a partial update: nil fields keep their stored value.
// An update with no fields set is a valid no-op.
type TrapUpdate struct {
	HammerDown   *bool
	BatteryLevel *float64
}

type TrapStore interface {
	// Get returns nil, nil if no trap exists with this ID.
	Get(ctx context.Context, id domain.TrapID) (*domain.TrapRecord, error)
	// Upsert applies the partial update, creating the record with defaults
	// ("Unnamed", no residents) if it does not exist.
	Upsert(ctx context.Context, id domain.TrapID, u TrapUpdate) error
	List(ctx context.Context) ([]domain.TrapRecord, error)
	// SetMeta replaces the display name and resident numbers.
	SetMeta(ctx context.Context, id domain.TrapID, name string, residents []string) error
}

type RegistrationStore interface {
	IsRegistered(ctx context.Context, phoneNumber string) (bool, error)
	Register(ctx context.Context, phoneNumber string) error
	Unregister(ctx context.Context, phoneNumber string) error
}
