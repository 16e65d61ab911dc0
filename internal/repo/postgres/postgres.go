package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/csmouse/csmouse/internal/domain"
	"github.com/csmouse/csmouse/internal/repo"
)

var _ repo.TrapStore = (*Store)(nil)
var _ repo.RegistrationStore = (*Store)(nil)

type Store struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

func New(ctx context.Context, dsn string, log *zap.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctxPing); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &Store{pool: pool, log: log}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// ---- TrapStore ----

func (s *Store) Get(ctx context.Context, id domain.TrapID) (*domain.TrapRecord, error) {
	const q = `SELECT name, hammer_down, battery_level, resident_numbers, updated_at
	             FROM traps WHERE trap_id=$1`
	t := domain.TrapRecord{ID: id}
	err := s.pool.QueryRow(ctx, q, string(id)).Scan(
		&t.Name, &t.HammerDown, &t.BatteryLevel, &t.ResidentNumbers, &t.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get trap: %w", err)
	}
	return &t, nil
}

// Upsert inserts defaults for an unseen trap and applies only the fields the
// update carries; COALESCE keeps the stored column when the argument is NULL.
func (s *Store) Upsert(ctx context.Context, id domain.TrapID, u repo.TrapUpdate) error {
	const q = `
		INSERT INTO traps (trap_id, name, hammer_down, battery_level, resident_numbers, updated_at)
		VALUES ($1, $4, COALESCE($2, FALSE), COALESCE($3, 100), '{}', NOW())
		ON CONFLICT (trap_id)
		DO UPDATE SET hammer_down   = COALESCE($2, traps.hammer_down),
		              battery_level = COALESCE($3, traps.battery_level),
		              updated_at    = NOW()
	`
	_, err := s.pool.Exec(ctx, q, string(id), u.HammerDown, u.BatteryLevel, domain.DefaultTrapName)
	if err != nil {
		return fmt.Errorf("upsert trap: %w", err)
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]domain.TrapRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT trap_id, name, hammer_down, battery_level, resident_numbers, updated_at
		   FROM traps
		  ORDER BY trap_id`)
	if err != nil {
		return nil, fmt.Errorf("list traps: %w", err)
	}
	defer rows.Close()

	var out []domain.TrapRecord
	for rows.Next() {
		var t domain.TrapRecord
		if err := rows.Scan(&t.ID, &t.Name, &t.HammerDown, &t.BatteryLevel, &t.ResidentNumbers, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan trap: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) SetMeta(ctx context.Context, id domain.TrapID, name string, residents []string) error {
	if name == "" {
		name = domain.DefaultTrapName
	}
	if residents == nil {
		residents = []string{}
	}
	const q = `
		INSERT INTO traps (trap_id, name, hammer_down, battery_level, resident_numbers, updated_at)
		VALUES ($1, $2, FALSE, 100, $3, NOW())
		ON CONFLICT (trap_id)
		DO UPDATE SET name=EXCLUDED.name, resident_numbers=EXCLUDED.resident_numbers, updated_at=NOW()
	`
	_, err := s.pool.Exec(ctx, q, string(id), name, residents)
	if err != nil {
		return fmt.Errorf("set trap meta: %w", err)
	}
	return nil
}

// ---- RegistrationStore ----

func (s *Store) IsRegistered(ctx context.Context, phoneNumber string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM registered_users WHERE phone_number=$1)`,
		phoneNumber).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("is registered: %w", err)
	}
	return exists, nil
}

func (s *Store) Register(ctx context.Context, phoneNumber string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO registered_users (phone_number, created_at)
		 VALUES ($1, NOW())
		 ON CONFLICT (phone_number) DO NOTHING`,
		phoneNumber)
	if err != nil {
		return fmt.Errorf("register: %w", err)
	}
	return nil
}

func (s *Store) Unregister(ctx context.Context, phoneNumber string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM registered_users WHERE phone_number=$1`, phoneNumber)
	if err != nil {
		return fmt.Errorf("unregister: %w", err)
	}
	return nil
}
