package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/csmouse/csmouse/internal/domain"
	"github.com/csmouse/csmouse/internal/repo"
	"github.com/csmouse/csmouse/internal/repo/memory"
	"github.com/csmouse/csmouse/internal/sms"
)

// ---- test helpers ----

type fakeGateway struct {
	registered map[string]bool
	sent       []string // "number|text"
	failFor    map[string]error
}

func newFakeGateway(registered ...string) *fakeGateway {
	g := &fakeGateway{registered: map[string]bool{}, failFor: map[string]error{}}
	for _, n := range registered {
		g.registered[n] = true
	}
	return g
}

func (g *fakeGateway) Send(_ context.Context, to, body string) (sms.SendResult, error) {
	if err := g.failFor[to]; err != nil {
		return sms.SendResult{}, err
	}
	if !g.registered[to] {
		return sms.Rejected(fmt.Sprintf("phone number %q is not registered", to)), nil
	}
	g.sent = append(g.sent, to+"|"+body)
	return sms.SendResult{Sent: true, SID: "SM_fake"}, nil
}

func (g *fakeGateway) Verify(string, map[string]string, string) bool { return true }

// failingTraps wraps a real store and fails Get for one trap ID.
type failingTraps struct {
	repo.TrapStore
	failID domain.TrapID
}

func (f *failingTraps) Get(ctx context.Context, id domain.TrapID) (*domain.TrapRecord, error) {
	if id == f.failID {
		return nil, errors.New("store unavailable")
	}
	return f.TrapStore.Get(ctx, id)
}

func seedTrap(t *testing.T, store *memory.Store, id domain.TrapID, name string, hammerDown bool, battery float64, residents ...string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.SetMeta(ctx, id, name, residents))
	hd, bl := hammerDown, battery
	require.NoError(t, store.Upsert(ctx, id, repo.TrapUpdate{HammerDown: &hd, BatteryLevel: &bl}))
}

func report(hammerDown bool, battery float64) domain.TelemetryReport {
	return domain.TelemetryReport{HammerDown: hammerDown, BatteryLevel: battery}
}

// ---- tests ----

func TestDelta_HammerRisingEdgeNotifies(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := memory.New()
	seedTrap(t, store, "t1", "Kitchen", false, 80, "+15551234567")
	gw := newFakeGateway("+15551234567")
	d := NewDelta(store, gw, zap.NewNop())

	res := d.ProcessBatch(ctx, map[domain.TrapID]domain.TelemetryReport{
		"t1": report(true, 80),
	})

	require.Equal(t, 1, res.Processed)
	require.Equal(t, 1, res.Notified)
	require.Equal(t, []string{"+15551234567|Kitchen trap triggered"}, gw.sent)

	rec, err := store.Get(ctx, "t1")
	require.NoError(t, err)
	require.True(t, rec.HammerDown, "incoming state must be persisted")
}

func TestDelta_HammerStaysDownDoesNotRefire(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := memory.New()
	seedTrap(t, store, "t1", "Kitchen", false, 80, "+15551234567")
	gw := newFakeGateway("+15551234567")
	d := NewDelta(store, gw, zap.NewNop())

	d.ProcessBatch(ctx, map[domain.TrapID]domain.TelemetryReport{"t1": report(true, 80)})
	d.ProcessBatch(ctx, map[domain.TrapID]domain.TelemetryReport{"t1": report(true, 80)})

	require.Len(t, gw.sent, 1, "hammer staying down must not re-fire")
}

func TestDelta_NoFallingEdgeNotification(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := memory.New()
	seedTrap(t, store, "t1", "Kitchen", true, 80, "+15551234567")
	gw := newFakeGateway("+15551234567")
	d := NewDelta(store, gw, zap.NewNop())

	res := d.ProcessBatch(ctx, map[domain.TrapID]domain.TelemetryReport{"t1": report(false, 80)})

	require.Equal(t, 1, res.Processed)
	require.Zero(t, res.Notified)
	require.Empty(t, gw.sent)

	rec, err := store.Get(ctx, "t1")
	require.NoError(t, err)
	require.False(t, rec.HammerDown)
}

func TestDelta_BatteryFiresOncePerCrossing(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := memory.New()
	seedTrap(t, store, "t1", "Attic", false, 50, "+15551234567")
	gw := newFakeGateway("+15551234567")
	d := NewDelta(store, gw, zap.NewNop())

	// 50 -> 50, 5, 3, 2, 50, 4: exactly two crossings (50->5 and 50->4)
	for _, level := range []float64{50, 5, 3, 2, 50, 4} {
		d.ProcessBatch(ctx, map[domain.TrapID]domain.TelemetryReport{"t1": report(false, level)})
	}

	require.Len(t, gw.sent, 2)
	for _, s := range gw.sent {
		require.Equal(t, "+15551234567|Attic battery level low", s)
	}
}

func TestDelta_UnseenTrapPersistedWithoutNotification(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := memory.New()
	gw := newFakeGateway()
	d := NewDelta(store, gw, zap.NewNop())

	res := d.ProcessBatch(ctx, map[domain.TrapID]domain.TelemetryReport{
		"new-trap": report(true, 5),
	})

	require.Equal(t, 1, res.Processed)
	require.Zero(t, res.Notified)
	require.Empty(t, gw.sent)

	rec, err := store.Get(ctx, "new-trap")
	require.NoError(t, err)
	require.NotNil(t, rec, "first report must create the record, not drop it")
	require.Equal(t, domain.DefaultTrapName, rec.Name)
	require.True(t, rec.HammerDown)
	require.Equal(t, 5.0, rec.BatteryLevel)
}

func TestDelta_BatteryOutOfRangeFailsOnlyThatTrap(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := memory.New()
	seedTrap(t, store, "good", "Garage", false, 80, "+15551234567")
	gw := newFakeGateway("+15551234567")
	d := NewDelta(store, gw, zap.NewNop())

	res := d.ProcessBatch(ctx, map[domain.TrapID]domain.TelemetryReport{
		"bad":  report(false, 250),
		"good": report(true, 80),
	})

	require.Equal(t, 1, res.Processed)
	require.Equal(t, 1, res.Failed)
	require.Equal(t, 1, res.Notified)

	rec, err := store.Get(ctx, "bad")
	require.NoError(t, err)
	require.Nil(t, rec, "invalid entry must not be persisted")
}

func TestDelta_StoreReadFailureIsIsolated(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	inner := memory.New()
	seedTrap(t, inner, "ok1", "A", false, 80, "+15551234567")
	seedTrap(t, inner, "ok2", "B", false, 80, "+15551234567")
	store := &failingTraps{TrapStore: inner, failID: "broken"}
	gw := newFakeGateway("+15551234567")
	d := NewDelta(store, gw, zap.NewNop())

	res := d.ProcessBatch(ctx, map[domain.TrapID]domain.TelemetryReport{
		"ok1":    report(true, 80),
		"broken": report(true, 80),
		"ok2":    report(true, 80),
	})

	require.Equal(t, 2, res.Processed)
	require.Equal(t, 1, res.Failed)
	require.Equal(t, 2, res.Notified)
}

func TestDelta_RejectedRecipientDoesNotBlockOthers(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := memory.New()
	seedTrap(t, store, "t1", "Kitchen", false, 80,
		"+15550000001", "+15550000002", "+15550000003")
	// middle recipient unregistered, first one errors at the provider
	gw := newFakeGateway("+15550000001", "+15550000003")
	gw.failFor["+15550000001"] = errors.New("provider timeout")
	d := NewDelta(store, gw, zap.NewNop())

	res := d.ProcessBatch(ctx, map[domain.TrapID]domain.TelemetryReport{"t1": report(true, 80)})

	require.Equal(t, 1, res.Notified)
	require.Equal(t, 1, res.Rejected)
	require.Equal(t, []string{"+15550000003|Kitchen trap triggered"}, gw.sent)
}

func TestDelta_HammerAndBatteryCanBothFire(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := memory.New()
	seedTrap(t, store, "t1", "Kitchen", false, 80, "+15551234567")
	gw := newFakeGateway("+15551234567")
	d := NewDelta(store, gw, zap.NewNop())

	res := d.ProcessBatch(ctx, map[domain.TrapID]domain.TelemetryReport{"t1": report(true, 4)})

	require.Equal(t, 2, res.Notified)
	got := append([]string(nil), gw.sent...)
	sort.Strings(got)
	require.Equal(t, []string{
		"+15551234567|Kitchen battery level low",
		"+15551234567|Kitchen trap triggered",
	}, got)
}
