package reservations

import (
	"context"
	"sync"
	"testing"
	"time"

	"ticketly/internal/events"
	"ticketly/internal/seats"
	"ticketly/internal/shared/config"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// In-memory seat store with the same claim semantics as the Postgres store:
// overlapping claims get exactly one winner and losers see the conflicts.
type fakeSeatStore struct {
	mu    sync.Mutex
	seats map[uuid.UUID]*seats.Seat
}

func newFakeSeatStore() *fakeSeatStore {
	return &fakeSeatStore{seats: make(map[uuid.UUID]*seats.Seat)}
}

func (f *fakeSeatStore) addSeat(eventID uuid.UUID, row, number string, price float64) uuid.UUID {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := uuid.New()
	f.seats[id] = &seats.Seat{
		ID:         id,
		EventID:    eventID,
		Row:        row,
		SeatNumber: number,
		Section:    "ORCHESTRA",
		Price:      price,
		Status:     seats.StatusAvailable,
	}
	return id
}

func (f *fakeSeatStore) seatStatus(id uuid.UUID) seats.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.seats[id].Status
}

func (f *fakeSeatStore) CreateSeats(ctx context.Context, rows []seats.Seat) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range rows {
		seat := rows[i]
		f.seats[seat.ID] = &seat
	}
	return nil
}

func (f *fakeSeatStore) GetSeatByID(ctx context.Context, id uuid.UUID) (*seats.Seat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seat, ok := f.seats[id]
	if !ok {
		return nil, seats.ErrSeatNotFound
	}
	copied := *seat
	return &copied, nil
}

func (f *fakeSeatStore) GetSeatsByIDs(ctx context.Context, seatIDs []uuid.UUID) ([]seats.Seat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []seats.Seat
	for _, id := range seatIDs {
		if seat, ok := f.seats[id]; ok {
			result = append(result, *seat)
		}
	}
	return result, nil
}

func (f *fakeSeatStore) GetSeatsByEventID(ctx context.Context, eventID uuid.UUID) ([]seats.Seat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []seats.Seat
	for _, seat := range f.seats {
		if seat.EventID == eventID {
			result = append(result, *seat)
		}
	}
	return result, nil
}

func (f *fakeSeatStore) GetSeatsByToken(ctx context.Context, token string) ([]seats.Seat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []seats.Seat
	for _, seat := range f.seats {
		if seat.ReservationToken != nil && *seat.ReservationToken == token {
			result = append(result, *seat)
		}
	}
	return result, nil
}

func (f *fakeSeatStore) ReserveSeats(ctx context.Context, eventID uuid.UUID, seatIDs []uuid.UUID, token string) ([]seats.Seat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var conflicts []string
	for _, id := range seatIDs {
		seat, ok := f.seats[id]
		if !ok || seat.EventID != eventID {
			return nil, seats.ErrSeatNotFound
		}
		if seat.Status != seats.StatusAvailable {
			conflicts = append(conflicts, id.String())
		}
	}
	if len(conflicts) > 0 {
		return nil, &seats.SeatUnavailableError{SeatIDs: conflicts}
	}

	claimed := make([]seats.Seat, 0, len(seatIDs))
	for _, id := range seatIDs {
		seat := f.seats[id]
		seat.Status = seats.StatusReserved
		t := token
		seat.ReservationToken = &t
		claimed = append(claimed, *seat)
	}
	return claimed, nil
}

func (f *fakeSeatStore) ReleaseSeats(ctx context.Context, token string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var released int64
	for _, seat := range f.seats {
		if seat.ReservationToken != nil && *seat.ReservationToken == token && seat.Status == seats.StatusReserved {
			seat.Status = seats.StatusAvailable
			seat.ReservationToken = nil
			released++
		}
	}
	return released, nil
}

func (f *fakeSeatStore) FindReservedTokens(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seen := make(map[string]bool)
	var tokens []string
	for _, seat := range f.seats {
		if seat.Status == seats.StatusReserved && seat.ReservationToken != nil && !seen[*seat.ReservationToken] {
			seen[*seat.ReservationToken] = true
			tokens = append(tokens, *seat.ReservationToken)
		}
	}
	return tokens, nil
}

type fakeLedger struct {
	mu      sync.Mutex
	holds   map[string]*Hold
	putErr  error
	deleted []string
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{holds: make(map[string]*Hold)}
}

func (f *fakeLedger) Put(ctx context.Context, hold *Hold, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return f.putErr
	}
	copied := *hold
	f.holds[hold.Token] = &copied
	return nil
}

func (f *fakeLedger) Get(ctx context.Context, token string) (*Hold, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	hold, ok := f.holds[token]
	if !ok {
		return nil, ErrReservationNotFound
	}
	copied := *hold
	return &copied, nil
}

func (f *fakeLedger) Delete(ctx context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.holds, token)
	f.deleted = append(f.deleted, token)
	return nil
}

func (f *fakeLedger) PreloadScripts(ctx context.Context) error {
	return nil
}

type fakeEventDirectory struct {
	existing map[uuid.UUID]bool
}

func (f *fakeEventDirectory) EventExists(ctx context.Context, id uuid.UUID) (bool, error) {
	return f.existing[id], nil
}

type fixture struct {
	store   *fakeSeatStore
	ledger  *fakeLedger
	service *service
	eventID uuid.UUID
	seatIDs []uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := newFakeSeatStore()
	ledger := newFakeLedger()
	eventID := uuid.New()

	seatIDs := []uuid.UUID{
		store.addSeat(eventID, "A", "1", 100),
		store.addSeat(eventID, "A", "2", 100),
		store.addSeat(eventID, "B", "1", 50),
	}

	cfg := &config.Config{
		Redis:        config.RedisConfig{SeatHoldTTL: 10 * time.Minute},
		Reservations: config.ReservationConfig{MaxSeatsPerHold: 10},
	}

	dir := &fakeEventDirectory{existing: map[uuid.UUID]bool{eventID: true}}
	svc := NewService(store, ledger, dir, nil, cfg).(*service)

	return &fixture{
		store:   store,
		ledger:  ledger,
		service: svc,
		eventID: eventID,
		seatIDs: seatIDs,
	}
}

func (fx *fixture) seatIDStrings(idxs ...int) []string {
	out := make([]string, 0, len(idxs))
	for _, i := range idxs {
		out = append(out, fx.seatIDs[i].String())
	}
	return out
}

func TestReserveSuccess(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	hold, err := fx.service.Reserve(ctx, ReserveRequest{
		EventID: fx.eventID.String(),
		SeatIDs: fx.seatIDStrings(0, 2),
	})
	require.NoError(t, err)
	require.NotNil(t, hold)

	assert.NotEmpty(t, hold.Token)
	assert.Equal(t, 150.0, hold.TotalAmount)
	assert.Equal(t, 600, hold.TTL)
	require.Len(t, hold.Seats, 2)

	// Response seats come back in request order
	assert.Equal(t, fx.seatIDs[0].String(), hold.Seats[0].ID)
	assert.Equal(t, fx.seatIDs[2].String(), hold.Seats[1].ID)

	assert.Equal(t, seats.StatusReserved, fx.store.seatStatus(fx.seatIDs[0]))
	assert.Equal(t, seats.StatusReserved, fx.store.seatStatus(fx.seatIDs[2]))
	assert.Equal(t, seats.StatusAvailable, fx.store.seatStatus(fx.seatIDs[1]))
}

func TestReserveConflictIsAllOrNothing(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	_, err := fx.service.Reserve(ctx, ReserveRequest{
		EventID: fx.eventID.String(),
		SeatIDs: fx.seatIDStrings(1),
	})
	require.NoError(t, err)

	// Overlapping request: seat 1 is taken, seat 0 is free
	_, err = fx.service.Reserve(ctx, ReserveRequest{
		EventID: fx.eventID.String(),
		SeatIDs: fx.seatIDStrings(0, 1),
	})
	require.Error(t, err)
	assert.True(t, seats.IsSeatUnavailable(err))

	var unavailable *seats.SeatUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, []string{fx.seatIDs[1].String()}, unavailable.SeatIDs)

	// Losing request left no partial claim behind
	assert.Equal(t, seats.StatusAvailable, fx.store.seatStatus(fx.seatIDs[0]))
}

func TestReserveValidation(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	_, err := fx.service.Reserve(ctx, ReserveRequest{
		EventID: fx.eventID.String(),
		SeatIDs: nil,
	})
	assert.ErrorIs(t, err, ErrInvalidSeatCount)

	// Same seat twice
	_, err = fx.service.Reserve(ctx, ReserveRequest{
		EventID: fx.eventID.String(),
		SeatIDs: fx.seatIDStrings(0, 0),
	})
	assert.ErrorIs(t, err, ErrInvalidSeatCount)

	_, err = fx.service.Reserve(ctx, ReserveRequest{
		EventID: uuid.New().String(),
		SeatIDs: fx.seatIDStrings(0),
	})
	assert.ErrorIs(t, err, events.ErrEventNotFound)

	_, err = fx.service.Reserve(ctx, ReserveRequest{
		EventID: fx.eventID.String(),
		SeatIDs: []string{uuid.New().String()},
	})
	assert.ErrorIs(t, err, seats.ErrSeatNotFound)
}

func TestReserveMaxSeatsPerHold(t *testing.T) {
	fx := newFixture(t)
	fx.service.config.Reservations.MaxSeatsPerHold = 2

	_, err := fx.service.Reserve(context.Background(), ReserveRequest{
		EventID: fx.eventID.String(),
		SeatIDs: fx.seatIDStrings(0, 1, 2),
	})
	assert.ErrorIs(t, err, ErrInvalidSeatCount)
}

func TestReserveCompensatesOnLedgerFailure(t *testing.T) {
	fx := newFixture(t)
	fx.ledger.putErr = assert.AnError

	_, err := fx.service.Reserve(context.Background(), ReserveRequest{
		EventID: fx.eventID.String(),
		SeatIDs: fx.seatIDStrings(0, 1),
	})
	require.Error(t, err)

	// The claim was rolled back
	assert.Equal(t, seats.StatusAvailable, fx.store.seatStatus(fx.seatIDs[0]))
	assert.Equal(t, seats.StatusAvailable, fx.store.seatStatus(fx.seatIDs[1]))
}

func TestVerifyLiveHold(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	hold, err := fx.service.Reserve(ctx, ReserveRequest{
		EventID: fx.eventID.String(),
		SeatIDs: fx.seatIDStrings(0, 1),
	})
	require.NoError(t, err)

	result, err := fx.service.Verify(ctx, hold.Token)
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Equal(t, 200.0, result.TotalAmount)
	assert.Len(t, result.Seats, 2)
	assert.InDelta(t, 600, result.RemainingSeconds, 2)
}

func TestVerifyUnknownToken(t *testing.T) {
	fx := newFixture(t)

	result, err := fx.service.Verify(context.Background(), uuid.New().String())
	require.NoError(t, err)
	assert.False(t, result.Valid)
}

func TestVerifyExpiredHoldReleasesSeats(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	hold, err := fx.service.Reserve(ctx, ReserveRequest{
		EventID: fx.eventID.String(),
		SeatIDs: fx.seatIDStrings(0, 1),
	})
	require.NoError(t, err)

	// Jump past the expiry; the ledger entry still physically exists
	fx.service.now = func() time.Time { return time.Now().Add(11 * time.Minute) }

	result, err := fx.service.Verify(ctx, hold.Token)
	require.NoError(t, err)
	assert.False(t, result.Valid)

	// Lazy cleanup released the seats and dropped the entry
	assert.Equal(t, seats.StatusAvailable, fx.store.seatStatus(fx.seatIDs[0]))
	assert.Equal(t, seats.StatusAvailable, fx.store.seatStatus(fx.seatIDs[1]))
	_, err = fx.ledger.Get(ctx, hold.Token)
	assert.ErrorIs(t, err, ErrReservationNotFound)
}

func TestCancelReleasesSeats(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	hold, err := fx.service.Reserve(ctx, ReserveRequest{
		EventID: fx.eventID.String(),
		SeatIDs: fx.seatIDStrings(0, 1, 2),
	})
	require.NoError(t, err)

	require.NoError(t, fx.service.Cancel(ctx, hold.Token))

	for _, id := range fx.seatIDs {
		assert.Equal(t, seats.StatusAvailable, fx.store.seatStatus(id))
	}

	// Cancelled seats are immediately reclaimable
	_, err = fx.service.Reserve(ctx, ReserveRequest{
		EventID: fx.eventID.String(),
		SeatIDs: fx.seatIDStrings(0),
	})
	assert.NoError(t, err)
}

func TestCancelIsIdempotent(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	hold, err := fx.service.Reserve(ctx, ReserveRequest{
		EventID: fx.eventID.String(),
		SeatIDs: fx.seatIDStrings(0),
	})
	require.NoError(t, err)

	require.NoError(t, fx.service.Cancel(ctx, hold.Token))
	require.NoError(t, fx.service.Cancel(ctx, hold.Token))
	require.NoError(t, fx.service.Cancel(ctx, uuid.New().String()))
}

func TestGetHoldExpiry(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	hold, err := fx.service.Reserve(ctx, ReserveRequest{
		EventID: fx.eventID.String(),
		SeatIDs: fx.seatIDStrings(0),
	})
	require.NoError(t, err)

	live, err := fx.service.GetHold(ctx, hold.Token)
	require.NoError(t, err)
	assert.Equal(t, hold.Token, live.Token)
	assert.Equal(t, []string{fx.seatIDs[0].String()}, live.SeatIDs)

	fx.service.now = func() time.Time { return time.Now().Add(11 * time.Minute) }

	_, err = fx.service.GetHold(ctx, hold.Token)
	assert.ErrorIs(t, err, ErrReservationExpired)

	// A second read sees the cleaned-up entry as missing, not expired
	_, err = fx.service.GetHold(ctx, hold.Token)
	assert.ErrorIs(t, err, ErrReservationNotFound)
}

func TestConcurrentReserveSingleWinner(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	const attempts = 20
	var wg sync.WaitGroup
	results := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := fx.service.Reserve(ctx, ReserveRequest{
				EventID: fx.eventID.String(),
				SeatIDs: fx.seatIDStrings(0, 1),
			})
			results[i] = err
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range results {
		if err == nil {
			winners++
		} else {
			assert.True(t, seats.IsSeatUnavailable(err))
		}
	}
	assert.Equal(t, 1, winners)
}
