package memory

import (
	"context"
	"sync"
	"time"

	"github.com/csmouse/csmouse/internal/domain"
	"github.com/csmouse/csmouse/internal/repo"
)

var _ repo.TrapStore = (*Store)(nil)
var _ repo.RegistrationStore = (*Store)(nil)

type Store struct {
	mu         sync.RWMutex
	traps      map[domain.TrapID]*domain.TrapRecord
	registered map[string]struct{}
}

func New() *Store {
	return &Store{
		traps:      make(map[domain.TrapID]*domain.TrapRecord),
		registered: make(map[string]struct{}),
	}
}

// ---- TrapStore ----

func (m *Store) Get(ctx context.Context, id domain.TrapID) (*domain.TrapRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.traps[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	cp.ResidentNumbers = append([]string(nil), t.ResidentNumbers...)
	return &cp, nil
}

func (m *Store) Upsert(ctx context.Context, id domain.TrapID, u repo.TrapUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.traps[id]
	if !ok {
		t = &domain.TrapRecord{
			ID:           id,
			Name:         domain.DefaultTrapName,
			BatteryLevel: 100,
		}
		m.traps[id] = t
	}
	if u.HammerDown != nil {
		t.HammerDown = *u.HammerDown
	}
	if u.BatteryLevel != nil {
		t.BatteryLevel = *u.BatteryLevel
	}
	t.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *Store) List(ctx context.Context) ([]domain.TrapRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.TrapRecord, 0, len(m.traps))
	for _, t := range m.traps {
		cp := *t
		cp.ResidentNumbers = append([]string(nil), t.ResidentNumbers...)
		out = append(out, cp)
	}
	return out, nil
}

func (m *Store) SetMeta(ctx context.Context, id domain.TrapID, name string, residents []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.traps[id]
	if !ok {
		t = &domain.TrapRecord{ID: id, BatteryLevel: 100}
		m.traps[id] = t
	}
	if name == "" {
		name = domain.DefaultTrapName
	}
	t.Name = name
	t.ResidentNumbers = append([]string(nil), residents...)
	t.UpdatedAt = time.Now().UTC()
	return nil
}

// ---- RegistrationStore ----

func (m *Store) IsRegistered(ctx context.Context, phoneNumber string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.registered[phoneNumber]
	return ok, nil
}

func (m *Store) Register(ctx context.Context, phoneNumber string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registered[phoneNumber] = struct{}{}
	return nil
}

func (m *Store) Unregister(ctx context.Context, phoneNumber string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.registered, phoneNumber)
	return nil
}
