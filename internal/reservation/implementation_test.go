package reservation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"reservio/internal/inventory"
	"reservio/internal/payment"
)

type approveAll struct {
	mu    sync.Mutex
	calls int
}

func (p *approveAll) Pay(ctx context.Context, holderID string, amountCents int64) error {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
	return nil
}

type declineAll struct{}

func (declineAll) Pay(ctx context.Context, holderID string, amountCents int64) error {
	return fmt.Errorf("%w: insufficient funds", payment.ErrDeclined)
}

type failTransport struct{}

func (failTransport) Pay(ctx context.Context, holderID string, amountCents int64) error {
	return errors.New("gateway timeout")
}

func newTestEngine(t *testing.T, reg *Registry, payments map[string]payment.Processor, opts ...Option) Service {
	t.Helper()
	return NewService(reg, payments, nil, zap.NewNop(), opts...)
}

func TestReserveConfirmsAfterPayment(t *testing.T) {
	reg := newTestRegistry(t)
	addPool(t, reg, inventory.PoolSpec{ID: "rooms"})
	resourceID := addResource(t, reg, "rooms", 12000)

	proc := &approveAll{}
	engine := newTestEngine(t, reg, map[string]payment.Processor{"card": proc})

	rsv, err := engine.Reserve(context.Background(), ReserveRequest{
		Criteria: inventory.Criteria{Pool: "rooms"},
		HolderID: "guest-1",
	})
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, rsv.Status)
	assert.Equal(t, resourceID, rsv.ResourceID)
	assert.Equal(t, 1, proc.calls)

	res, err := reg.Resource(resourceID)
	require.NoError(t, err)
	assert.Equal(t, inventory.StatusReserved, res.Status)
}

func TestReserveExactlyKWinnersUnderConcurrency(t *testing.T) {
	reg := newTestRegistry(t)
	addPool(t, reg, inventory.PoolSpec{ID: "rooms"})
	addResource(t, reg, "rooms", 12000)
	addResource(t, reg, "rooms", 12000)

	engine := newTestEngine(t, reg, map[string]payment.Processor{"card": &approveAll{}})

	const callers = 5
	var wg sync.WaitGroup
	var mu sync.Mutex
	confirmed, exhausted := 0, 0

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			rsv, err := engine.Reserve(context.Background(), ReserveRequest{
				Criteria: inventory.Criteria{Pool: "rooms"},
				HolderID: fmt.Sprintf("guest-%d", n),
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil && rsv.Status == StatusConfirmed:
				confirmed++
			case errors.Is(err, ErrNoResourceAvailable):
				exhausted++
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 2, confirmed, "pool of 2 admits exactly 2 winners")
	assert.Equal(t, 3, exhausted)
}

func TestReserveRollsBackOnDecline(t *testing.T) {
	reg := newTestRegistry(t)
	addPool(t, reg, inventory.PoolSpec{ID: "rooms"})
	resourceID := addResource(t, reg, "rooms", 12000)

	engine := newTestEngine(t, reg, map[string]payment.Processor{
		"card": declineAll{},
		"cash": &approveAll{},
	})

	rsv, err := engine.Reserve(context.Background(), ReserveRequest{
		Criteria:      inventory.Criteria{Pool: "rooms"},
		HolderID:      "guest-1",
		PaymentMethod: "card",
	})
	assert.ErrorIs(t, err, ErrPaymentDeclined)
	require.NotNil(t, rsv)
	assert.Equal(t, StatusFailed, rsv.Status)

	// The rollback restores availability before Reserve returns.
	res, err := reg.Resource(resourceID)
	require.NoError(t, err)
	assert.Equal(t, inventory.StatusAvailable, res.Status)

	again, err := engine.Reserve(context.Background(), ReserveRequest{
		Criteria:      inventory.Criteria{Pool: "rooms"},
		HolderID:      "guest-2",
		PaymentMethod: "cash",
	})
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, again.Status)
}

func TestReserveRollsBackOnTransportFailure(t *testing.T) {
	reg := newTestRegistry(t)
	addPool(t, reg, inventory.PoolSpec{ID: "rooms"})
	resourceID := addResource(t, reg, "rooms", 12000)

	engine := newTestEngine(t, reg, map[string]payment.Processor{"card": failTransport{}})

	rsv, err := engine.Reserve(context.Background(), ReserveRequest{
		Criteria: inventory.Criteria{Pool: "rooms"},
		HolderID: "guest-1",
	})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrPaymentDeclined)
	require.NotNil(t, rsv)
	assert.Equal(t, StatusFailed, rsv.Status)

	res, err := reg.Resource(resourceID)
	require.NoError(t, err)
	assert.Equal(t, inventory.StatusAvailable, res.Status)
}

func TestReserveExhaustedPool(t *testing.T) {
	reg := newTestRegistry(t)
	addPool(t, reg, inventory.PoolSpec{ID: "rooms"})

	engine := newTestEngine(t, reg, map[string]payment.Processor{"card": &approveAll{}})

	_, err := engine.Reserve(context.Background(), ReserveRequest{
		Criteria: inventory.Criteria{Pool: "rooms"},
		HolderID: "guest-1",
	})
	assert.ErrorIs(t, err, ErrNoResourceAvailable)
}

func TestAppointmentWindowScenario(t *testing.T) {
	reg := newTestRegistry(t)
	addPool(t, reg, inventory.PoolSpec{ID: "appointments", Windowed: true, ExclusiveHolder: true})
	addResource(t, reg, "appointments", 5000)

	engine := newTestEngine(t, reg, map[string]payment.Processor{"card": &approveAll{}})
	reserve := func(w Window) (*Reservation, error) {
		return engine.Reserve(context.Background(), ReserveRequest{
			Criteria: inventory.Criteria{Pool: "appointments", Start: w.Start, End: w.End},
			HolderID: "patient-H",
		})
	}

	first, err := reserve(window(10, 0, 10, 30))
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, first.Status)

	_, err = reserve(window(10, 15, 10, 45))
	assert.ErrorIs(t, err, ErrConflict)

	adjacent, err := reserve(window(10, 30, 11, 0))
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, adjacent.Status)
}

func TestCancelIdempotentAndRoundTrip(t *testing.T) {
	reg := newTestRegistry(t)
	addPool(t, reg, inventory.PoolSpec{ID: "rooms"})
	resourceID := addResource(t, reg, "rooms", 12000)

	engine := newTestEngine(t, reg, map[string]payment.Processor{"card": &approveAll{}})

	rsv, err := engine.Reserve(context.Background(), ReserveRequest{
		Criteria: inventory.Criteria{Pool: "rooms"},
		HolderID: "guest-1",
	})
	require.NoError(t, err)

	require.NoError(t, engine.Cancel(context.Background(), rsv.ID, "guest-1"))
	require.NoError(t, engine.Cancel(context.Background(), rsv.ID, "guest-1"), "second cancel is a no-op")

	got, err := engine.Get(context.Background(), rsv.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, got.Status)

	// Cancel then reserve again: the same resource is handed out.
	again, err := engine.Reserve(context.Background(), ReserveRequest{
		Criteria: inventory.Criteria{Pool: "rooms"},
		HolderID: "guest-2",
	})
	require.NoError(t, err)
	assert.Equal(t, resourceID, again.ResourceID)
}

func TestCancelUnknownReservation(t *testing.T) {
	reg := newTestRegistry(t)
	engine := newTestEngine(t, reg, map[string]payment.Processor{"card": &approveAll{}})

	err := engine.Cancel(context.Background(), uuid.New(), "op")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEngineOccupancyFlow(t *testing.T) {
	reg := newTestRegistry(t)
	addPool(t, reg, inventory.PoolSpec{ID: "rooms"})
	addResource(t, reg, "rooms", 12000)

	engine := newTestEngine(t, reg, map[string]payment.Processor{"card": &approveAll{}})

	rsv, err := engine.Reserve(context.Background(), ReserveRequest{
		Criteria: inventory.Criteria{Pool: "rooms"},
		HolderID: "guest-1",
	})
	require.NoError(t, err)

	_, err = engine.CheckIn(context.Background(), rsv.ID, "imposter")
	assert.ErrorIs(t, err, ErrHolderMismatch)

	checkedIn, err := engine.CheckIn(context.Background(), rsv.ID, "guest-1")
	require.NoError(t, err)
	assert.Equal(t, StatusCheckedIn, checkedIn.Status)

	checkedOut, err := engine.CheckOut(context.Background(), rsv.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCheckedOut, checkedOut.Status)
}

func TestReserveValidation(t *testing.T) {
	reg := newTestRegistry(t)
	addPool(t, reg, inventory.PoolSpec{ID: "rooms"})
	addResource(t, reg, "rooms", 12000)

	engine := newTestEngine(t, reg, map[string]payment.Processor{"card": &approveAll{}})

	_, err := engine.Reserve(context.Background(), ReserveRequest{
		Criteria: inventory.Criteria{Pool: "rooms"},
	})
	assert.Error(t, err, "holder id is required")

	_, err = engine.Reserve(context.Background(), ReserveRequest{
		Criteria:      inventory.Criteria{Pool: "rooms"},
		HolderID:      "guest-1",
		PaymentMethod: "barter",
	})
	assert.Error(t, err, "unknown payment method")

	now := time.Date(2026, 8, 2, 10, 0, 0, 0, time.UTC)
	_, err = engine.Reserve(context.Background(), ReserveRequest{
		Criteria: inventory.Criteria{Pool: "rooms", Start: now, End: now.Add(-time.Hour)},
		HolderID: "guest-1",
	})
	assert.ErrorIs(t, err, ErrWindowRequired)
}

func TestReserveRateLimited(t *testing.T) {
	reg := newTestRegistry(t)
	addPool(t, reg, inventory.PoolSpec{ID: "rooms"})
	addResource(t, reg, "rooms", 12000)
	addResource(t, reg, "rooms", 12000)

	engine := newTestEngine(t, reg,
		map[string]payment.Processor{"card": &approveAll{}},
		WithRateLimit(rate.Every(time.Hour), 1),
	)

	_, err := engine.Reserve(context.Background(), ReserveRequest{
		Criteria: inventory.Criteria{Pool: "rooms"},
		HolderID: "guest-1",
	})
	require.NoError(t, err)

	_, err = engine.Reserve(context.Background(), ReserveRequest{
		Criteria: inventory.Criteria{Pool: "rooms"},
		HolderID: "guest-2",
	})
	assert.ErrorIs(t, err, ErrRateLimited)
}
